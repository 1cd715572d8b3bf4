package schedule

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core"
	"github.com/tantsukool/backend/core/group"
	"github.com/tantsukool/backend/core/student"
	"github.com/tantsukool/backend/core/user"
)

var (
	// errors
	ErrNotFound          = errors.New("schedule not found")
	ErrStudentNotInGroup = errors.New("student is not in the schedule's group")
)

type (
	Repository interface {
		CreateSchedules(ctx context.Context, schedules ...Schedule) ([]Schedule, error)
		QuerySchedulesByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Schedule, error)
		GetScheduleByID(ctx context.Context, id primitive.ObjectID) (Schedule, error)
		SetScheduleCanceled(ctx context.Context, id primitive.ObjectID, canceled bool) error
		DeleteSchedule(ctx context.Context, id primitive.ObjectID) error
		// DeleteSchedulesByGroup drops the group's schedules along with their attendance marks.
		DeleteSchedulesByGroup(ctx context.Context, groupID primitive.ObjectID) error

		// UpsertAttendance writes the mark for (attendance.Schedule, attendance.Student),
		// overwriting a previous one.
		UpsertAttendance(ctx context.Context, a Attendance) (Attendance, error)
		QueryAttendanceBySchedule(ctx context.Context, scheduleID primitive.ObjectID) ([]Attendance, error)
	}

	Service struct {
		repo        Repository
		groupRepo   group.Repository
		studentRepo student.Repository
	}
)

func NewService(repo Repository, groupRepo group.Repository, studentRepo student.Repository) *Service {
	return &Service{repo: repo, groupRepo: groupRepo, studentRepo: studentRepo}
}

// CreateBulk generates and persists the weekly occurrences for a group.
func (svc *Service) CreateBulk(ctx context.Context, groupID primitive.ObjectID, nsb NewScheduleBulk) ([]Schedule, error) {
	if _, err := svc.groupRepo.GetGroupByID(ctx, groupID); err != nil {
		return nil, err
	}
	return svc.repo.CreateSchedules(ctx, nsb.Generate(groupID)...)
}

func (svc *Service) QueryByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Schedule, error) {
	return svc.repo.QuerySchedulesByGroup(ctx, groupID)
}

func (svc *Service) GetByID(ctx context.Context, id primitive.ObjectID) (Schedule, error) {
	return svc.repo.GetScheduleByID(ctx, id)
}

func (svc *Service) Cancel(ctx context.Context, id primitive.ObjectID) error {
	if _, err := svc.repo.GetScheduleByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.SetScheduleCanceled(ctx, id, true)
}

func (svc *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return svc.repo.DeleteSchedule(ctx, id)
}

// Mark records presence marks for a schedule occurrence. Every marked
// student must currently be in the schedule's group.
func (svc *Service) Mark(ctx context.Context, scheduleID primitive.ObjectID, markedBy user.User, ma MarkAttendance) ([]Attendance, error) {
	sched, err := svc.repo.GetScheduleByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	g, err := svc.groupRepo.GetGroupByID(ctx, sched.Group)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	marks := make([]Attendance, 0, len(ma.Entries))
	for _, entry := range ma.Entries {
		sid, err := primitive.ObjectIDFromHex(entry.StudentID)
		if err != nil {
			return nil, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: "invalid id"})
		}
		if !g.HasStudent(sid) {
			return nil, core.NewValidationError(ErrStudentNotInGroup, core.FieldError{Field: "student_id", Error: ErrStudentNotInGroup.Error()})
		}
		a, err := svc.repo.UpsertAttendance(ctx, Attendance{
			Schedule: scheduleID,
			Student:  sid,
			Present:  entry.Present,
			MarkedBy: markedBy.ID,
			MarkedAt: now,
		})
		if err != nil {
			return nil, err
		}
		marks = append(marks, a)
	}
	return marks, nil
}

// AttendanceSheet assembles the per-student presence view of one occurrence.
func (svc *Service) AttendanceSheet(ctx context.Context, scheduleID primitive.ObjectID) (Sheet, error) {
	sched, err := svc.repo.GetScheduleByID(ctx, scheduleID)
	if err != nil {
		return Sheet{}, err
	}
	students, err := svc.studentRepo.FilterStudentsByGroup(ctx, sched.Group)
	if err != nil {
		return Sheet{}, err
	}
	marks, err := svc.repo.QueryAttendanceBySchedule(ctx, scheduleID)
	if err != nil {
		return Sheet{}, err
	}

	present := make(map[primitive.ObjectID]bool, len(marks))
	for _, m := range marks {
		present[m.Student] = m.Present
	}

	rows := make([]SheetRow, 0, len(students))
	for _, s := range students {
		row := SheetRow{StudentID: s.ID, StudentName: s.FullName()}
		if p, ok := present[s.ID]; ok {
			p := p
			row.Present = &p
		}
		rows = append(rows, row)
	}
	return Sheet{Schedule: sched, Rows: rows}, nil
}

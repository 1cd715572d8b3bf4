package inmemdb

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateSchedules(_ context.Context, schedules ...schedule.Schedule) ([]schedule.Schedule, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	created := make([]schedule.Schedule, 0, len(schedules))
	for _, s := range schedules {
		s := s
		s.ID = primitive.NewObjectID()
		repo.db.schedules[s.ID] = &s
		created = append(created, s)
	}
	return created, nil
}

func (repo *scheduleRepository) QuerySchedulesByGroup(_ context.Context, groupID primitive.ObjectID) ([]schedule.Schedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	schedules := make([]schedule.Schedule, 0)
	for _, s := range repo.db.schedules {
		if s.Group == groupID {
			schedules = append(schedules, *s)
		}
	}
	sort.Slice(schedules, func(i, j int) bool { return schedules[i].StartsAt.Before(schedules[j].StartsAt) })
	return schedules, nil
}

func (repo *scheduleRepository) GetScheduleByID(_ context.Context, id primitive.ObjectID) (schedule.Schedule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.schedules[id]; ok {
		return *s, nil
	}
	return schedule.Schedule{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) SetScheduleCanceled(_ context.Context, id primitive.ObjectID, canceled bool) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.schedules[id]
	if !ok {
		return schedule.ErrNotFound
	}
	s.Canceled = canceled
	return nil
}

func (repo *scheduleRepository) DeleteSchedule(_ context.Context, id primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.schedules, id)
	return nil
}

func (repo *scheduleRepository) DeleteSchedulesByGroup(_ context.Context, groupID primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for id, s := range repo.db.schedules {
		if s.Group != groupID {
			continue
		}
		for key := range repo.db.attendance {
			if key.schedule == id {
				delete(repo.db.attendance, key)
			}
		}
		delete(repo.db.schedules, id)
	}
	return nil
}

func (repo *scheduleRepository) UpsertAttendance(_ context.Context, a schedule.Attendance) (schedule.Attendance, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := attendanceKey{schedule: a.Schedule, student: a.Student}
	if orig, ok := repo.db.attendance[key]; ok {
		a.ID = orig.ID
	} else {
		a.ID = primitive.NewObjectID()
	}
	repo.db.attendance[key] = &a
	return a, nil
}

func (repo *scheduleRepository) QueryAttendanceBySchedule(_ context.Context, scheduleID primitive.ObjectID) ([]schedule.Attendance, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	marks := make([]schedule.Attendance, 0)
	for key, a := range repo.db.attendance {
		if key.schedule == scheduleID {
			marks = append(marks, *a)
		}
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].Student.Hex() < marks[j].Student.Hex() })
	return marks, nil
}

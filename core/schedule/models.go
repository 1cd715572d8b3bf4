package schedule

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core"
)

// Schedule is one class occurrence of a group.
type Schedule struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Group     primitive.ObjectID `json:"group" bson:"group"`
	StartsAt  time.Time          `json:"starts_at" bson:"starts_at"` // UTC
	EndsAt    time.Time          `json:"ends_at" bson:"ends_at"`     // UTC
	Location  string             `json:"location,omitempty" bson:"location,omitempty"`
	Canceled  bool               `json:"canceled" bson:"canceled"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"` // UTC
}

// Attendance is one student's presence mark for a schedule occurrence.
// Exactly one document per (schedule, student); marking again overwrites.
type Attendance struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Schedule primitive.ObjectID `json:"schedule" bson:"schedule"`
	Student  primitive.ObjectID `json:"student" bson:"student"`
	Present  bool               `json:"present" bson:"present"`
	MarkedBy primitive.ObjectID `json:"marked_by" bson:"marked_by"`
	MarkedAt time.Time          `json:"marked_at" bson:"marked_at"` // UTC
}

// NewScheduleBulk generates weekly occurrences starting from StartsAt.
type NewScheduleBulk struct {
	StartsAt        time.Time `json:"starts_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gte=15,lte=480"`
	Weeks           int       `json:"weeks" validate:"required,gte=1,lte=52"`
	Location        string    `json:"location"`
}

func (nsb *NewScheduleBulk) Validate() error {
	nsb.Location = core.CleanString(nsb.Location)
	return core.Validate.Struct(nsb)
}

// Generate expands the bulk request into one Schedule per week.
func (nsb *NewScheduleBulk) Generate(groupID primitive.ObjectID) []Schedule {
	now := time.Now().UTC()
	duration := time.Duration(nsb.DurationMinutes) * time.Minute

	schedules := make([]Schedule, 0, nsb.Weeks)
	for i := 0; i < nsb.Weeks; i++ {
		start := nsb.StartsAt.UTC().AddDate(0, 0, 7*i)
		schedules = append(schedules, Schedule{
			Group:     groupID,
			StartsAt:  start,
			EndsAt:    start.Add(duration),
			Location:  nsb.Location,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return schedules
}

// AttendanceEntry is one student's mark in a MarkAttendance request.
type AttendanceEntry struct {
	StudentID string `json:"student_id" validate:"required,objectid"`
	Present   bool   `json:"present"`
}

// MarkAttendance contains the presence marks for a schedule occurrence.
type MarkAttendance struct {
	Entries []AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

func (ma *MarkAttendance) Validate() error {
	return core.Validate.Struct(ma)
}

// SheetRow pairs a student with its presence mark (nil = not marked yet).
type SheetRow struct {
	StudentID   primitive.ObjectID `json:"student_id"`
	StudentName string             `json:"student_name"`
	Present     *bool              `json:"present"`
}

// Sheet is the attendance view of one schedule occurrence.
type Sheet struct {
	Schedule Schedule   `json:"schedule"`
	Rows     []SheetRow `json:"rows"`
}

package group

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core"
	"github.com/tantsukool/backend/core/parent"
	"github.com/tantsukool/backend/core/student"
)

// Group is a class/cohort owning a roster of students, their derived
// parents and the teachers in charge of it.
type Group struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name        string               `json:"name" bson:"name"`
	Location    string               `json:"location" bson:"location"`
	Description string               `json:"description" bson:"description"`
	Teachers    []primitive.ObjectID `json:"teachers" bson:"teachers"`
	Students    []primitive.ObjectID `json:"students" bson:"students"`
	Parents     []primitive.ObjectID `json:"parents" bson:"parents"`
	CreatedAt   time.Time            `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt   time.Time            `json:"updated_at" bson:"updated_at"` // UTC
}

func (g *Group) HasStudent(id primitive.ObjectID) bool {
	for _, sid := range g.Students {
		if sid == id {
			return true
		}
	}
	return false
}

func (g *Group) HasParent(id primitive.ObjectID) bool {
	for _, pid := range g.Parents {
		if pid == id {
			return true
		}
	}
	return false
}

// Populated is a Group with its student and parent records loaded
// in place of the raw reference sets.
type Populated struct {
	Group
	StudentRecords []student.Student `json:"student_records"`
	ParentRecords  []parent.Parent   `json:"parent_records"`
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name        string   `json:"name" validate:"required"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	TeacherIDs  []string `json:"teacher_ids" validate:"omitempty,dive,objectid"`
}

func (ng *NewGroup) Validate() error {
	ng.Name = core.CleanString(ng.Name)
	ng.Location = core.CleanString(ng.Location)
	ng.Description = core.CleanString(ng.Description)
	return core.Validate.Struct(ng)
}

// UpdateGroup defines what information may be provided to modify an existing Group.
// Roster membership is not edited here; see the roster manager.
type UpdateGroup struct {
	Name        string   `json:"name"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	TeacherIDs  []string `json:"teacher_ids" validate:"omitempty,dive,objectid"`
}

func (ug *UpdateGroup) Validate(orig Group) error {
	if name := core.CleanString(ug.Name); name != "" {
		ug.Name = name
	} else {
		ug.Name = orig.Name
	}
	ug.Location = core.CleanString(ug.Location)
	ug.Description = core.CleanString(ug.Description)
	return core.Validate.Struct(ug)
}

package student

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core"
)

type Student struct {
	ID        primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	FirstName string              `json:"first_name" bson:"first_name"`
	LastName  string              `json:"last_name" bson:"last_name"`
	Age       int                 `json:"age,omitempty" bson:"age,omitempty"`
	Group     *primitive.ObjectID `json:"group,omitempty" bson:"group,omitempty"`
	Parent    *primitive.ObjectID `json:"parent,omitempty" bson:"parent,omitempty"`

	// denormalized parent contact shown on rosters
	ParentName  string `json:"parent_name,omitempty" bson:"parent_name,omitempty"`
	ParentEmail string `json:"parent_email,omitempty" bson:"parent_email,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"` // UTC
}

func (s *Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// NewStudent contains information needed to enroll a new Student.
// An optional group id enrolls on create; an optional parent email/name pair
// resolves or creates the parent record.
type NewStudent struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name"`
	Age         int    `json:"age" validate:"omitempty,gte=0,lte=100"`
	GroupID     string `json:"group_id" validate:"omitempty,objectid"`
	ParentEmail string `json:"parent_email" validate:"omitempty,email"`
	ParentName  string `json:"parent_name"`
}

func (ns *NewStudent) Validate() error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.GroupID = core.CleanString(ns.GroupID)
	ns.ParentEmail = core.CleanString(ns.ParentEmail, true /* lower */)
	ns.ParentName = core.CleanString(ns.ParentName)
	return core.Validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Age         int    `json:"age" validate:"omitempty,gte=0,lte=100"`
	GroupID     string `json:"group_id" validate:"omitempty,objectid"`
	ParentEmail string `json:"parent_email" validate:"omitempty,email"`
	ParentName  string `json:"parent_name"`
}

func (us *UpdateStudent) Validate(orig Student) error {
	if name := core.CleanString(us.FirstName); name != "" {
		us.FirstName = name
	} else {
		us.FirstName = orig.FirstName
	}
	us.LastName = core.CleanString(us.LastName)
	us.GroupID = core.CleanString(us.GroupID)
	us.ParentEmail = core.CleanString(us.ParentEmail, true /* lower */)
	us.ParentName = core.CleanString(us.ParentName)
	return core.Validate.Struct(us)
}

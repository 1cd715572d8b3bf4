package parent

import (
	"net/mail"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core"
)

type Parent struct {
	ID        primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	FirstName string               `json:"first_name" bson:"first_name"`
	LastName  string               `json:"last_name" bson:"last_name"`
	Email     string               `json:"email" bson:"email"` // lowercased; identity key
	Phone     string               `json:"phone,omitempty" bson:"phone,omitempty"`
	Students  []primitive.ObjectID `json:"students" bson:"students"`
	CreatedAt time.Time            `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt time.Time            `json:"updated_at" bson:"updated_at"` // UTC
}

func (p *Parent) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

func (p *Parent) Address() mail.Address {
	return mail.Address{Name: p.FullName(), Address: p.Email}
}

func (p *Parent) HasStudent(id primitive.ObjectID) bool {
	for _, sid := range p.Students {
		if sid == id {
			return true
		}
	}
	return false
}

// UpdateParent defines what information may be provided to modify an existing Parent.
// Email is the identity key and is not editable here.
type UpdateParent struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

func (up *UpdateParent) Validate(orig Parent) error {
	if name := core.CleanString(up.FirstName); name != "" {
		up.FirstName = name
	} else {
		up.FirstName = orig.FirstName
	}
	up.LastName = core.CleanString(up.LastName)
	up.Phone = core.CleanString(up.Phone)
	return core.Validate.Struct(up)
}

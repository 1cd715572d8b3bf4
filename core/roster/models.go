package roster

import (
	"strings"

	"github.com/tantsukool/backend/core"
)

// DefaultParentFirstName is the placeholder first name used when a parent
// is created from an email alone.
const DefaultParentFirstName = "Lapsevanem"

// ParentUpsert is one entry of the bulk editor's parent payload: an email
// keyed upsert with an optional free-form name.
type ParentUpsert struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// FullEdit is the administrative bulk editor payload: group info plus the
// requested student roster and parent payload.
type FullEdit struct {
	Name        string         `json:"name"`
	Location    string         `json:"location"`
	Description string         `json:"description"`
	StudentIDs  []string       `json:"student_ids" validate:"omitempty,dive,objectid"`
	Parents     []ParentUpsert `json:"parents"`
}

func (fe *FullEdit) Validate() error {
	fe.Name = core.CleanString(fe.Name)
	fe.Location = core.CleanString(fe.Location)
	fe.Description = core.CleanString(fe.Description)
	return core.Validate.Struct(fe)
}

// ParseParentName splits a raw name on whitespace: the first token becomes
// the first name, the remaining tokens joined by a single space become the
// last name. An empty name yields the placeholder first name.
func ParseParentName(raw string) (firstName, lastName string) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return DefaultParentFirstName, ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// Package roster keeps the Group/Student/Parent reference sets mutually
// consistent over a store without multi-document transactions. Every
// mutation is a desired-end-state diff applied through replay-safe
// add-if-absent / remove-if-present primitives, so a failed operation can
// simply be re-run and will converge.
package roster

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core"
	"github.com/tantsukool/backend/core/group"
	"github.com/tantsukool/backend/core/parent"
	"github.com/tantsukool/backend/core/schedule"
	"github.com/tantsukool/backend/core/student"
	"github.com/tantsukool/backend/core/update"
	"github.com/tantsukool/backend/core/user"
)

var (
	// errors
	ErrUnknownStudent = errors.New("unknown student id")
	ErrParentEmail    = errors.New("parent email is required")
)

type Service struct {
	groups    group.Repository
	students  student.Repository
	parents   parent.Repository
	updates   update.Repository
	schedules schedule.Repository
	users     user.Repository
	logger    core.Logger
}

func NewService(
	groups group.Repository,
	students student.Repository,
	parents parent.Repository,
	updates update.Repository,
	schedules schedule.Repository,
	users user.Repository,
	logger core.Logger,
) *Service {
	return &Service{
		groups:    groups,
		students:  students,
		parents:   parents,
		updates:   updates,
		schedules: schedules,
		users:     users,
		logger:    logger,
	}
}

// AttachStudentToGroup moves the student into the given group: pulls it out
// of its previous group (if any), adds it to the new group's students set and
// points Student.Group at the new group. The student's parent follows into
// the new group's parents set, and the old group is re-checked for a now
// unused parent reference.
func (svc *Service) AttachStudentToGroup(ctx context.Context, studentID, groupID primitive.ObjectID) error {
	s, err := svc.students.GetStudentByID(ctx, studentID)
	if err != nil {
		return err
	}
	if _, err := svc.groups.GetGroupByID(ctx, groupID); err != nil {
		return err
	}

	var oldGroupID *primitive.ObjectID
	if s.Group != nil && *s.Group != groupID {
		oldGroupID = s.Group
		if err := svc.groups.RemoveGroupStudent(ctx, *oldGroupID, studentID); err != nil {
			return err
		}
	}
	if err := svc.groups.AddGroupStudent(ctx, groupID, studentID); err != nil {
		return err
	}
	if err := svc.students.SetStudentGroup(ctx, studentID, &groupID); err != nil {
		return err
	}

	if s.Parent != nil {
		if err := svc.groups.AddGroupParent(ctx, groupID, *s.Parent); err != nil {
			return err
		}
		if oldGroupID != nil {
			if err := svc.CleanupUnusedParent(ctx, *oldGroupID, *s.Parent); err != nil {
				return err
			}
		}
	}
	return nil
}

// DetachStudentFromGroup is the inverse: removes the student from its current
// group's students set, clears Student.Group and re-checks the former group
// for an unused parent reference. Detaching an unassigned student is a no-op.
func (svc *Service) DetachStudentFromGroup(ctx context.Context, studentID primitive.ObjectID) error {
	s, err := svc.students.GetStudentByID(ctx, studentID)
	if err != nil {
		return err
	}
	if s.Group == nil {
		return nil
	}
	groupID := *s.Group

	if err := svc.groups.RemoveGroupStudent(ctx, groupID, studentID); err != nil {
		return err
	}
	if err := svc.students.SetStudentGroup(ctx, studentID, nil); err != nil {
		return err
	}
	if s.Parent != nil {
		if err := svc.CleanupUnusedParent(ctx, groupID, *s.Parent); err != nil {
			return err
		}
	}
	return nil
}

// CleanupUnusedParent removes the parent from the group's parents set when no
// student in the group references it anymore. The check-and-remove lives in a
// single repository call; see group.Repository.RemoveGroupParentIfUnused.
func (svc *Service) CleanupUnusedParent(ctx context.Context, groupID, parentID primitive.ObjectID) error {
	_, err := svc.groups.RemoveGroupParentIfUnused(ctx, groupID, parentID)
	return err
}

// ResolveOrCreateParent is the sole path for parent identity resolution.
// The email is lowercased and trimmed and keys the lookup; the raw name is
// split into first/last name. An existing record is updated only when a
// name was actually supplied and differs from the stored one.
func (svc *Service) ResolveOrCreateParent(ctx context.Context, email, rawName string) (parent.Parent, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return parent.Parent{}, core.NewValidationError(ErrParentEmail, core.FieldError{Field: "email", Error: ErrParentEmail.Error()})
	}
	firstName, lastName := ParseParentName(rawName)

	p, err := svc.parents.GetParentByEmail(ctx, email)
	if err == parent.ErrNotFound {
		now := time.Now().UTC()
		return svc.parents.CreateParent(ctx, parent.Parent{
			FirstName: firstName,
			LastName:  lastName,
			Email:     email,
			Students:  []primitive.ObjectID{},
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err != nil {
		return parent.Parent{}, err
	}

	if rawName != "" && (p.FirstName != firstName || p.LastName != lastName) {
		p.FirstName = firstName
		p.LastName = lastName
		p.UpdatedAt = time.Now().UTC()
		return svc.parents.UpdateParent(ctx, p)
	}
	return p, nil
}

// Enroll creates a student record and wires up its optional group and parent
// in one go. The group is checked before anything is written.
func (svc *Service) Enroll(ctx context.Context, ns student.NewStudent) (student.Student, error) {
	var groupID *primitive.ObjectID
	if ns.GroupID != "" {
		gid, err := primitive.ObjectIDFromHex(ns.GroupID)
		if err != nil {
			return student.Student{}, core.NewValidationError(err, core.FieldError{Field: "group_id", Error: "invalid id"})
		}
		if _, err := svc.groups.GetGroupByID(ctx, gid); err != nil {
			return student.Student{}, err
		}
		groupID = &gid
	}

	now := time.Now().UTC()
	s, err := svc.students.CreateStudent(ctx, student.Student{
		FirstName: ns.FirstName,
		LastName:  ns.LastName,
		Age:       ns.Age,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return student.Student{}, err
	}

	if ns.ParentEmail != "" {
		if err := svc.linkParent(ctx, &s, ns.ParentEmail, ns.ParentName); err != nil {
			return student.Student{}, err
		}
	}
	if groupID != nil {
		if err := svc.AttachStudentToGroup(ctx, s.ID, *groupID); err != nil {
			return student.Student{}, err
		}
	}
	return svc.students.GetStudentByID(ctx, s.ID)
}

// ChangeParent re-points the student at the parent record matching the given
// email, creating it if needed. The previous parent (if different) is
// unlinked, cleaned out of the student's group when unused and deleted when
// orphaned.
func (svc *Service) ChangeParent(ctx context.Context, studentID primitive.ObjectID, email, rawName string) (student.Student, error) {
	s, err := svc.students.GetStudentByID(ctx, studentID)
	if err != nil {
		return student.Student{}, err
	}
	if err := svc.linkParent(ctx, &s, email, rawName); err != nil {
		return student.Student{}, err
	}
	return svc.students.GetStudentByID(ctx, studentID)
}

// linkParent attaches the resolved parent to the student, replacing any
// previous one.
func (svc *Service) linkParent(ctx context.Context, s *student.Student, email, rawName string) error {
	p, err := svc.ResolveOrCreateParent(ctx, email, rawName)
	if err != nil {
		return err
	}
	if s.Parent != nil && *s.Parent == p.ID {
		// same parent; refresh the denormalized contact only
		return svc.students.SetStudentParent(ctx, s.ID, &p.ID, p.FullName(), p.Email)
	}

	oldParentID := s.Parent
	if err := svc.parents.AddParentStudent(ctx, p.ID, s.ID); err != nil {
		return err
	}
	if err := svc.students.SetStudentParent(ctx, s.ID, &p.ID, p.FullName(), p.Email); err != nil {
		return err
	}
	if s.Group != nil {
		if err := svc.groups.AddGroupParent(ctx, *s.Group, p.ID); err != nil {
			return err
		}
	}

	if oldParentID != nil {
		if err := svc.parents.RemoveParentStudent(ctx, *oldParentID, s.ID); err != nil {
			return err
		}
		if s.Group != nil {
			if err := svc.CleanupUnusedParent(ctx, *s.Group, *oldParentID); err != nil {
				return err
			}
		}
		if err := svc.deleteParentIfOrphaned(ctx, *oldParentID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteStudents removes student records entirely, detaching them from their
// groups and parents first so no stale references survive.
func (svc *Service) DeleteStudents(ctx context.Context, ids ...primitive.ObjectID) error {
	for _, id := range ids {
		s, err := svc.students.GetStudentByID(ctx, id)
		if err != nil {
			if err == student.ErrNotFound {
				continue
			}
			return err
		}
		if err := svc.DetachStudentFromGroup(ctx, id); err != nil {
			return err
		}
		if s.Parent != nil {
			if err := svc.parents.RemoveParentStudent(ctx, *s.Parent, id); err != nil {
				return err
			}
			if err := svc.deleteParentIfOrphaned(ctx, *s.Parent); err != nil {
				return err
			}
		}
		if err := svc.students.DeleteStudentsByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// DeleteGroup removes the group and cascades deletion of its students,
// its feed updates and its schedules, and pulls the group out of every
// teacher's access scope. Parents are left to the orphan rule: records
// with no students and no remaining group references are deleted.
func (svc *Service) DeleteGroup(ctx context.Context, groupID primitive.ObjectID) error {
	g, err := svc.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return err
	}

	for _, sid := range g.Students {
		s, err := svc.students.GetStudentByID(ctx, sid)
		if err != nil {
			if err == student.ErrNotFound {
				continue
			}
			return err
		}
		if s.Parent != nil {
			if err := svc.parents.RemoveParentStudent(ctx, *s.Parent, sid); err != nil {
				return err
			}
		}
	}
	if err := svc.students.DeleteStudentsByID(ctx, g.Students...); err != nil {
		return err
	}
	if err := svc.groups.DeleteGroup(ctx, groupID); err != nil {
		return err
	}
	if err := svc.updates.DeleteUpdatesByGroup(ctx, groupID); err != nil {
		return err
	}
	if err := svc.schedules.DeleteSchedulesByGroup(ctx, groupID); err != nil {
		return err
	}
	if err := svc.users.RemoveGroupFromUsers(ctx, groupID); err != nil {
		return err
	}

	for _, pid := range g.Parents {
		if err := svc.deleteParentIfOrphaned(ctx, pid); err != nil {
			return err
		}
	}
	return nil
}

// BulkReplaceRoster reconciles the group's student membership to exactly the
// requested set and recomputes the authoritative parents set as the union of
// the remaining students' parents and the explicitly supplied parent payload.
// All requested student ids are validated before anything is mutated; the
// operation is idempotent and converges when re-run after a partial failure.
func (svc *Service) BulkReplaceRoster(ctx context.Context, groupID primitive.ObjectID, studentIDs []string, parentPayload []ParentUpsert) (group.Group, error) {
	g, err := svc.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return group.Group{}, err
	}

	// fail fast: every requested id must reference an existing student
	requested := make([]student.Student, 0, len(studentIDs))
	requestedSet := make(map[primitive.ObjectID]bool, len(studentIDs))
	for _, rawID := range studentIDs {
		sid, err := primitive.ObjectIDFromHex(rawID)
		if err != nil {
			return group.Group{}, core.NewValidationError(ErrUnknownStudent, core.FieldError{Field: "student_ids", Error: "invalid id: " + rawID})
		}
		if requestedSet[sid] {
			continue
		}
		s, err := svc.students.GetStudentByID(ctx, sid)
		if err != nil {
			if err == student.ErrNotFound {
				return group.Group{}, core.NewValidationError(ErrUnknownStudent, core.FieldError{Field: "student_ids", Error: "unknown student id: " + rawID})
			}
			return group.Group{}, err
		}
		requested = append(requested, s)
		requestedSet[sid] = true
	}

	// detach current members absent from the requested set
	for _, sid := range g.Students {
		if !requestedSet[sid] {
			if err := svc.DetachStudentFromGroup(ctx, sid); err != nil {
				return group.Group{}, err
			}
		}
	}

	// attach requested members, pulling them out of their previous groups
	for _, s := range requested {
		if err := svc.AttachStudentToGroup(ctx, s.ID, groupID); err != nil {
			return group.Group{}, err
		}
	}

	// recompute the authoritative parents set
	desiredParents := make(map[primitive.ObjectID]bool)
	for _, s := range requested {
		if s.Parent != nil {
			desiredParents[*s.Parent] = true
		}
	}
	for _, pu := range parentPayload {
		// a payload entry without an email aborts the remaining parent
		// processing; student mutations above are not undone.
		p, err := svc.ResolveOrCreateParent(ctx, pu.Email, pu.Name)
		if err != nil {
			return group.Group{}, err
		}
		if !desiredParents[p.ID] {
			desiredParents[p.ID] = true
			if err := svc.groups.AddGroupParent(ctx, groupID, p.ID); err != nil {
				return group.Group{}, err
			}
		}
	}

	// prune stale parent references and delete orphaned parent records
	for _, pid := range g.Parents {
		if desiredParents[pid] {
			continue
		}
		if err := svc.groups.RemoveGroupParent(ctx, groupID, pid); err != nil {
			return group.Group{}, err
		}
		if err := svc.deleteParentIfOrphaned(ctx, pid); err != nil {
			return group.Group{}, err
		}
	}

	return svc.groups.GetGroupByID(ctx, groupID)
}

// deleteParentIfOrphaned deletes the parent record once nothing references
// it anymore: no students and no group parents sets.
func (svc *Service) deleteParentIfOrphaned(ctx context.Context, parentID primitive.ObjectID) error {
	n, err := svc.students.CountStudentsByParent(ctx, parentID)
	if err != nil || n > 0 {
		return err
	}
	refs, err := svc.groups.CountGroupsWithParent(ctx, parentID)
	if err != nil || refs > 0 {
		return err
	}
	return svc.parents.DeleteParent(ctx, parentID)
}

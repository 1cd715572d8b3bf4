package group

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core"
	"github.com/tantsukool/backend/core/parent"
	"github.com/tantsukool/backend/core/student"
)

var (
	// errors
	ErrNotFound = errors.New("group not found")
)

type (
	Repository interface {
		CreateGroup(ctx context.Context, g Group) (Group, error)
		QueryAllGroups(ctx context.Context) ([]Group, error)
		GetGroupByID(ctx context.Context, id primitive.ObjectID) (Group, error)
		GetGroupsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Group, error)
		UpdateGroup(ctx context.Context, g Group) (Group, error)

		// set primitives; all add-if-absent / remove-if-present and
		// safe to replay.
		AddGroupStudent(ctx context.Context, groupID, studentID primitive.ObjectID) error
		RemoveGroupStudent(ctx context.Context, groupID, studentID primitive.ObjectID) error
		AddGroupParent(ctx context.Context, groupID, parentID primitive.ObjectID) error
		RemoveGroupParent(ctx context.Context, groupID, parentID primitive.ObjectID) error

		// RemoveGroupParentIfUnused removes parentID from the group's parents set
		// only when no student currently in the group references it. The check and
		// the removal are kept in a single store call to keep the race window as
		// narrow as the store allows.
		RemoveGroupParentIfUnused(ctx context.Context, groupID, parentID primitive.ObjectID) (removed bool, err error)

		CountGroupsWithParent(ctx context.Context, parentID primitive.ObjectID) (int64, error)
		DeleteGroup(ctx context.Context, id primitive.ObjectID) error
	}

	Service struct {
		repo        Repository
		studentRepo student.Repository
		parentRepo  parent.Repository
		logger      core.Logger
	}
)

func NewService(repo Repository, studentRepo student.Repository, parentRepo parent.Repository, logger core.Logger) *Service {
	return &Service{
		repo:        repo,
		studentRepo: studentRepo,
		parentRepo:  parentRepo,
		logger:      logger,
	}
}

func (svc *Service) Create(ctx context.Context, ng NewGroup) (Group, error) {
	now := time.Now().UTC()
	g := Group{
		Name:        ng.Name,
		Location:    ng.Location,
		Description: ng.Description,
		Teachers:    parseIDs(ng.TeacherIDs),
		Students:    []primitive.ObjectID{},
		Parents:     []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateGroup(ctx, g)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Group, error) {
	return svc.repo.QueryAllGroups(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id primitive.ObjectID) (Group, error) {
	return svc.repo.GetGroupByID(ctx, id)
}

func (svc *Service) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Group, error) {
	return svc.repo.GetGroupsByIDs(ctx, ids)
}

func (svc *Service) Update(ctx context.Context, id primitive.ObjectID, ug UpdateGroup) (Group, error) {
	orig, err := svc.repo.GetGroupByID(ctx, id)
	if err != nil {
		return Group{}, err
	}
	orig.Name = ug.Name
	orig.Location = ug.Location
	orig.Description = ug.Description
	if ug.TeacherIDs != nil {
		orig.Teachers = parseIDs(ug.TeacherIDs)
	}
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateGroup(ctx, orig)
}

// Populate loads the group's student and parent records for API responses.
func (svc *Service) Populate(ctx context.Context, g Group) (Populated, error) {
	students, err := svc.studentRepo.GetStudentsByIDs(ctx, g.Students)
	if err != nil {
		return Populated{}, err
	}
	parents, err := svc.parentRepo.GetParentsByIDs(ctx, g.Parents)
	if err != nil {
		return Populated{}, err
	}
	return Populated{Group: g, StudentRecords: students, ParentRecords: parents}, nil
}

// RosterCSV renders the group's roster as CSV: one row per student with
// the denormalized parent contact columns.
func (svc *Service) RosterCSV(ctx context.Context, id primitive.ObjectID) ([]byte, error) {
	g, err := svc.repo.GetGroupByID(ctx, id)
	if err != nil {
		return nil, err
	}
	students, err := svc.studentRepo.GetStudentsByIDs(ctx, g.Students)
	if err != nil {
		return nil, err
	}

	var buff bytes.Buffer
	w := csv.NewWriter(&buff)
	_ = w.Write([]string{"first_name", "last_name", "age", "parent_name", "parent_email"})
	for _, s := range students {
		age := ""
		if s.Age > 0 {
			age = strconv.Itoa(s.Age)
		}
		_ = w.Write([]string{s.FirstName, s.LastName, age, s.ParentName, s.ParentEmail})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

func parseIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return oids
}

package student

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		GetStudentByID(ctx context.Context, id primitive.ObjectID) (Student, error)
		GetStudentsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Student, error)
		FilterStudentsByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)

		// point mutations used by the roster manager
		SetStudentGroup(ctx context.Context, id primitive.ObjectID, groupID *primitive.ObjectID) error
		SetStudentParent(ctx context.Context, id primitive.ObjectID, parentID *primitive.ObjectID, parentName, parentEmail string) error

		CountStudentsByGroupAndParent(ctx context.Context, groupID, parentID primitive.ObjectID) (int64, error)
		CountStudentsByParent(ctx context.Context, parentID primitive.ObjectID) (int64, error)
		DeleteStudentsByID(ctx context.Context, ids ...primitive.ObjectID) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id primitive.ObjectID) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) FilterByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Student, error) {
	return svc.repo.FilterStudentsByGroup(ctx, groupID)
}

// Create persists the bare student record. Group and parent wiring is the
// roster manager's job; see roster.Service.Enroll.
func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	s := Student{
		FirstName: ns.FirstName,
		LastName:  ns.LastName,
		Age:       ns.Age,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateStudent(ctx, s)
}

// UpdateInfo updates the student's own fields. Group and parent changes go
// through the roster manager.
func (svc *Service) UpdateInfo(ctx context.Context, id primitive.ObjectID, us UpdateStudent) (Student, error) {
	orig, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	orig.FirstName = us.FirstName
	orig.LastName = us.LastName
	if us.Age != 0 {
		orig.Age = us.Age
	}
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, orig)
}

package parent

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// errors
	ErrNotFound = errors.New("parent not found")
)

type (
	Repository interface {
		CreateParent(ctx context.Context, p Parent) (Parent, error)
		QueryAllParents(ctx context.Context) ([]Parent, error)
		GetParentByID(ctx context.Context, id primitive.ObjectID) (Parent, error)
		GetParentsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Parent, error)
		// GetParentByEmail looks up by the lowercased identity email.
		GetParentByEmail(ctx context.Context, email string) (Parent, error)
		UpdateParent(ctx context.Context, p Parent) (Parent, error)

		// set primitives used by the roster manager
		AddParentStudent(ctx context.Context, parentID, studentID primitive.ObjectID) error
		RemoveParentStudent(ctx context.Context, parentID, studentID primitive.ObjectID) error

		DeleteParent(ctx context.Context, id primitive.ObjectID) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) QueryAll(ctx context.Context) ([]Parent, error) {
	return svc.repo.QueryAllParents(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id primitive.ObjectID) (Parent, error) {
	return svc.repo.GetParentByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id primitive.ObjectID, up UpdateParent) (Parent, error) {
	orig, err := svc.repo.GetParentByID(ctx, id)
	if err != nil {
		return Parent{}, err
	}
	orig.FirstName = up.FirstName
	orig.LastName = up.LastName
	orig.Phone = up.Phone
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateParent(ctx, orig)
}

package inmemdb

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core/parent"
)

type parentRepository struct {
	db *DB
}

var _ parent.Repository = (*parentRepository)(nil)

func NewParentRepository(db *DB) parent.Repository {
	return &parentRepository{db: db}
}

func (repo *parentRepository) CreateParent(_ context.Context, p parent.Parent) (parent.Parent, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.ID = primitive.NewObjectID()
	if p.Students == nil {
		p.Students = []primitive.ObjectID{}
	}
	repo.db.parents[p.ID] = &p
	return p, nil
}

func (repo *parentRepository) QueryAllParents(_ context.Context) ([]parent.Parent, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	parents := make([]parent.Parent, 0, len(repo.db.parents))
	for _, p := range repo.db.parents {
		parents = append(parents, *p)
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i].CreatedAt.Before(parents[j].CreatedAt) })
	return parents, nil
}

func (repo *parentRepository) GetParentByID(_ context.Context, id primitive.ObjectID) (parent.Parent, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.parents[id]; ok {
		return *p, nil
	}
	return parent.Parent{}, parent.ErrNotFound
}

func (repo *parentRepository) GetParentsByIDs(_ context.Context, ids []primitive.ObjectID) ([]parent.Parent, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	parents := make([]parent.Parent, 0, len(ids))
	for _, id := range ids {
		if p, ok := repo.db.parents[id]; ok {
			parents = append(parents, *p)
		}
	}
	return parents, nil
}

func (repo *parentRepository) GetParentByEmail(_ context.Context, email string) (parent.Parent, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, p := range repo.db.parents {
		if p.Email == email {
			return *p, nil
		}
	}
	return parent.Parent{}, parent.ErrNotFound
}

func (repo *parentRepository) UpdateParent(_ context.Context, p parent.Parent) (parent.Parent, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.parents[p.ID]
	if !ok {
		return parent.Parent{}, parent.ErrNotFound
	}
	orig.FirstName = p.FirstName
	orig.LastName = p.LastName
	orig.Phone = p.Phone
	orig.UpdatedAt = p.UpdatedAt
	return *orig, nil
}

func (repo *parentRepository) AddParentStudent(_ context.Context, parentID, studentID primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p, ok := repo.db.parents[parentID]
	if !ok {
		return parent.ErrNotFound
	}
	p.Students = addToSet(p.Students, studentID)
	return nil
}

func (repo *parentRepository) RemoveParentStudent(_ context.Context, parentID, studentID primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p, ok := repo.db.parents[parentID]
	if !ok {
		return parent.ErrNotFound
	}
	p.Students = removeFromSet(p.Students, studentID)
	return nil
}

func (repo *parentRepository) DeleteParent(_ context.Context, id primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.parents, id)
	return nil
}

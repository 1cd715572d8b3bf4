package inmemdb

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core/update"
)

type updateRepository struct {
	db *DB
}

var _ update.Repository = (*updateRepository)(nil)

func NewUpdateRepository(db *DB) update.Repository {
	return &updateRepository{db: db}
}

func (repo *updateRepository) CreateUpdate(_ context.Context, u update.Update) (update.Update, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	u.ID = primitive.NewObjectID()
	if u.Comments == nil {
		u.Comments = []update.Comment{}
	}
	repo.db.updates[u.ID] = &u
	return u, nil
}

func (repo *updateRepository) QueryUpdatesByGroup(_ context.Context, groupID primitive.ObjectID) ([]update.Update, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	updates := make([]update.Update, 0)
	for _, u := range repo.db.updates {
		if u.Group == groupID {
			updates = append(updates, *u)
		}
	}
	// newest first
	sort.Slice(updates, func(i, j int) bool { return updates[i].CreatedAt.After(updates[j].CreatedAt) })
	return updates, nil
}

func (repo *updateRepository) GetUpdateByID(_ context.Context, id primitive.ObjectID) (update.Update, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if u, ok := repo.db.updates[id]; ok {
		return *u, nil
	}
	return update.Update{}, update.ErrNotFound
}

func (repo *updateRepository) AddComment(_ context.Context, updateID primitive.ObjectID, c update.Comment) (update.Update, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	u, ok := repo.db.updates[updateID]
	if !ok {
		return update.Update{}, update.ErrNotFound
	}
	u.Comments = append(u.Comments, c)
	return *u, nil
}

func (repo *updateRepository) RemoveComment(_ context.Context, updateID, commentID primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	u, ok := repo.db.updates[updateID]
	if !ok {
		return update.ErrNotFound
	}
	for i, c := range u.Comments {
		if c.ID == commentID {
			u.Comments = append(u.Comments[:i], u.Comments[i+1:]...)
			return nil
		}
	}
	return update.ErrCommentNotFound
}

func (repo *updateRepository) DeleteUpdate(_ context.Context, id primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.updates, id)
	return nil
}

func (repo *updateRepository) DeleteUpdatesByGroup(_ context.Context, groupID primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for id, u := range repo.db.updates {
		if u.Group == groupID {
			delete(repo.db.updates, id)
		}
	}
	return nil
}

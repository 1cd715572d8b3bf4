package inmemdb

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core/group"
)

type groupRepository struct {
	db *DB
}

var _ group.Repository = (*groupRepository)(nil)

func NewGroupRepository(db *DB) group.Repository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) CreateGroup(_ context.Context, g group.Group) (group.Group, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g.ID = primitive.NewObjectID()
	if g.Teachers == nil {
		g.Teachers = []primitive.ObjectID{}
	}
	if g.Students == nil {
		g.Students = []primitive.ObjectID{}
	}
	if g.Parents == nil {
		g.Parents = []primitive.ObjectID{}
	}
	repo.db.groups[g.ID] = &g
	return g, nil
}

func (repo *groupRepository) QueryAllGroups(_ context.Context) ([]group.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	groups := make([]group.Group, 0, len(repo.db.groups))
	for _, g := range repo.db.groups {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].CreatedAt.Before(groups[j].CreatedAt) })
	return groups, nil
}

func (repo *groupRepository) GetGroupByID(_ context.Context, id primitive.ObjectID) (group.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.get(id)
}

func (repo *groupRepository) get(id primitive.ObjectID) (group.Group, error) {
	if g, ok := repo.db.groups[id]; ok {
		return *g, nil
	}
	return group.Group{}, group.ErrNotFound
}

func (repo *groupRepository) GetGroupsByIDs(_ context.Context, ids []primitive.ObjectID) ([]group.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	groups := make([]group.Group, 0, len(ids))
	for _, id := range ids {
		if g, ok := repo.db.groups[id]; ok {
			groups = append(groups, *g)
		}
	}
	return groups, nil
}

func (repo *groupRepository) UpdateGroup(_ context.Context, g group.Group) (group.Group, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.groups[g.ID]
	if !ok {
		return group.Group{}, group.ErrNotFound
	}
	orig.Name = g.Name
	orig.Location = g.Location
	orig.Description = g.Description
	orig.Teachers = g.Teachers
	orig.UpdatedAt = g.UpdatedAt
	return *orig, nil
}

func (repo *groupRepository) AddGroupStudent(_ context.Context, groupID, studentID primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g, ok := repo.db.groups[groupID]
	if !ok {
		return group.ErrNotFound
	}
	g.Students = addToSet(g.Students, studentID)
	return nil
}

func (repo *groupRepository) RemoveGroupStudent(_ context.Context, groupID, studentID primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g, ok := repo.db.groups[groupID]
	if !ok {
		return group.ErrNotFound
	}
	g.Students = removeFromSet(g.Students, studentID)
	return nil
}

func (repo *groupRepository) AddGroupParent(_ context.Context, groupID, parentID primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g, ok := repo.db.groups[groupID]
	if !ok {
		return group.ErrNotFound
	}
	g.Parents = addToSet(g.Parents, parentID)
	return nil
}

func (repo *groupRepository) RemoveGroupParent(_ context.Context, groupID, parentID primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g, ok := repo.db.groups[groupID]
	if !ok {
		return group.ErrNotFound
	}
	g.Parents = removeFromSet(g.Parents, parentID)
	return nil
}

func (repo *groupRepository) RemoveGroupParentIfUnused(_ context.Context, groupID, parentID primitive.ObjectID) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g, ok := repo.db.groups[groupID]
	if !ok {
		return false, group.ErrNotFound
	}
	for _, s := range repo.db.students {
		if s.Group != nil && *s.Group == groupID && s.Parent != nil && *s.Parent == parentID {
			return false, nil
		}
	}
	g.Parents = removeFromSet(g.Parents, parentID)
	return true, nil
}

func (repo *groupRepository) CountGroupsWithParent(_ context.Context, parentID primitive.ObjectID) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var n int64
	for _, g := range repo.db.groups {
		if g.HasParent(parentID) {
			n++
		}
	}
	return n, nil
}

func (repo *groupRepository) DeleteGroup(_ context.Context, id primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.groups, id)
	return nil
}

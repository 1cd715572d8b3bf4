package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tantsukool/backend/core/group"
)

type groupRepository struct {
	groups   *mongo.Collection
	students *mongo.Collection
}

var _ group.Repository = (*groupRepository)(nil)

func NewGroupRepository(db *mongo.Database) group.Repository {
	return &groupRepository{
		groups:   db.Collection(groupsCollection),
		students: db.Collection(studentsCollection),
	}
}

func (repo *groupRepository) CreateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	res, err := repo.groups.InsertOne(ctx, g)
	if err != nil {
		return group.Group{}, err
	}
	g.ID = res.InsertedID.(primitive.ObjectID)
	return g, nil
}

func (repo *groupRepository) QueryAllGroups(ctx context.Context) ([]group.Group, error) {
	cur, err := repo.groups.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	groups := make([]group.Group, 0)
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (repo *groupRepository) GetGroupByID(ctx context.Context, id primitive.ObjectID) (group.Group, error) {
	var g group.Group
	err := repo.groups.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if err == mongo.ErrNoDocuments {
		return group.Group{}, group.ErrNotFound
	}
	return g, err
}

func (repo *groupRepository) GetGroupsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]group.Group, error) {
	if len(ids) == 0 {
		return []group.Group{}, nil
	}
	cur, err := repo.groups.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	groups := make([]group.Group, 0, len(ids))
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (repo *groupRepository) UpdateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	res, err := repo.groups.UpdateOne(ctx, bson.M{"_id": g.ID}, bson.M{"$set": bson.M{
		"name":        g.Name,
		"location":    g.Location,
		"description": g.Description,
		"teachers":    g.Teachers,
		"updated_at":  g.UpdatedAt,
	}})
	if err != nil {
		return group.Group{}, err
	}
	if res.MatchedCount == 0 {
		return group.Group{}, group.ErrNotFound
	}
	return repo.GetGroupByID(ctx, g.ID)
}

func (repo *groupRepository) AddGroupStudent(ctx context.Context, groupID, studentID primitive.ObjectID) error {
	return repo.updateSet(ctx, groupID, bson.M{"$addToSet": bson.M{"students": studentID}})
}

func (repo *groupRepository) RemoveGroupStudent(ctx context.Context, groupID, studentID primitive.ObjectID) error {
	return repo.updateSet(ctx, groupID, bson.M{"$pull": bson.M{"students": studentID}})
}

func (repo *groupRepository) AddGroupParent(ctx context.Context, groupID, parentID primitive.ObjectID) error {
	return repo.updateSet(ctx, groupID, bson.M{"$addToSet": bson.M{"parents": parentID}})
}

func (repo *groupRepository) RemoveGroupParent(ctx context.Context, groupID, parentID primitive.ObjectID) error {
	return repo.updateSet(ctx, groupID, bson.M{"$pull": bson.M{"parents": parentID}})
}

func (repo *groupRepository) updateSet(ctx context.Context, groupID primitive.ObjectID, update bson.M) error {
	res, err := repo.groups.UpdateOne(ctx, bson.M{"_id": groupID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return group.ErrNotFound
	}
	return nil
}

// RemoveGroupParentIfUnused counts the group's students still referencing the
// parent and pulls the reference only when none remain. The store offers no
// cross-collection conditional update, so a small count-then-pull window
// remains; it is confined to this single call.
func (repo *groupRepository) RemoveGroupParentIfUnused(ctx context.Context, groupID, parentID primitive.ObjectID) (bool, error) {
	n, err := repo.students.CountDocuments(ctx, bson.M{"group": groupID, "parent": parentID})
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := repo.RemoveGroupParent(ctx, groupID, parentID); err != nil {
		return false, err
	}
	return true, nil
}

func (repo *groupRepository) CountGroupsWithParent(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	return repo.groups.CountDocuments(ctx, bson.M{"parents": parentID})
}

func (repo *groupRepository) DeleteGroup(ctx context.Context, id primitive.ObjectID) error {
	_, err := repo.groups.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

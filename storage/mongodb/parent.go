package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tantsukool/backend/core/parent"
)

type parentRepository struct {
	coll *mongo.Collection
}

var _ parent.Repository = (*parentRepository)(nil)

func NewParentRepository(db *mongo.Database) parent.Repository {
	return &parentRepository{coll: db.Collection(parentsCollection)}
}

func (repo *parentRepository) CreateParent(ctx context.Context, p parent.Parent) (parent.Parent, error) {
	res, err := repo.coll.InsertOne(ctx, p)
	if err != nil {
		return parent.Parent{}, err
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return p, nil
}

func (repo *parentRepository) QueryAllParents(ctx context.Context) ([]parent.Parent, error) {
	return repo.query(ctx, bson.M{})
}

func (repo *parentRepository) GetParentByID(ctx context.Context, id primitive.ObjectID) (parent.Parent, error) {
	return repo.get(ctx, bson.M{"_id": id})
}

func (repo *parentRepository) GetParentsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]parent.Parent, error) {
	if len(ids) == 0 {
		return []parent.Parent{}, nil
	}
	return repo.query(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (repo *parentRepository) GetParentByEmail(ctx context.Context, email string) (parent.Parent, error) {
	return repo.get(ctx, bson.M{"email": email})
}

func (repo *parentRepository) UpdateParent(ctx context.Context, p parent.Parent) (parent.Parent, error) {
	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"phone":      p.Phone,
		"updated_at": p.UpdatedAt,
	}})
	if err != nil {
		return parent.Parent{}, err
	}
	if res.MatchedCount == 0 {
		return parent.Parent{}, parent.ErrNotFound
	}
	return repo.GetParentByID(ctx, p.ID)
}

func (repo *parentRepository) AddParentStudent(ctx context.Context, parentID, studentID primitive.ObjectID) error {
	return repo.updateSet(ctx, parentID, bson.M{"$addToSet": bson.M{"students": studentID}})
}

func (repo *parentRepository) RemoveParentStudent(ctx context.Context, parentID, studentID primitive.ObjectID) error {
	return repo.updateSet(ctx, parentID, bson.M{"$pull": bson.M{"students": studentID}})
}

func (repo *parentRepository) updateSet(ctx context.Context, parentID primitive.ObjectID, update bson.M) error {
	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": parentID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return parent.ErrNotFound
	}
	return nil
}

func (repo *parentRepository) DeleteParent(ctx context.Context, id primitive.ObjectID) error {
	_, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (repo *parentRepository) get(ctx context.Context, filter bson.M) (parent.Parent, error) {
	var p parent.Parent
	err := repo.coll.FindOne(ctx, filter).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return parent.Parent{}, parent.ErrNotFound
	}
	return p, err
}

func (repo *parentRepository) query(ctx context.Context, filter bson.M) ([]parent.Parent, error) {
	cur, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	parents := make([]parent.Parent, 0)
	if err := cur.All(ctx, &parents); err != nil {
		return nil, err
	}
	return parents, nil
}

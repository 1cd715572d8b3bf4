package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tantsukool/backend/core/update"
)

type updateRepository struct {
	coll *mongo.Collection
}

var _ update.Repository = (*updateRepository)(nil)

func NewUpdateRepository(db *mongo.Database) update.Repository {
	return &updateRepository{coll: db.Collection(updatesCollection)}
}

func (repo *updateRepository) CreateUpdate(ctx context.Context, u update.Update) (update.Update, error) {
	res, err := repo.coll.InsertOne(ctx, u)
	if err != nil {
		return update.Update{}, err
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return u, nil
}

func (repo *updateRepository) QueryUpdatesByGroup(ctx context.Context, groupID primitive.ObjectID) ([]update.Update, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := repo.coll.Find(ctx, bson.M{"group": groupID}, opts)
	if err != nil {
		return nil, err
	}
	updates := make([]update.Update, 0)
	if err := cur.All(ctx, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (repo *updateRepository) GetUpdateByID(ctx context.Context, id primitive.ObjectID) (update.Update, error) {
	var u update.Update
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return update.Update{}, update.ErrNotFound
	}
	return u, err
}

func (repo *updateRepository) AddComment(ctx context.Context, updateID primitive.ObjectID, c update.Comment) (update.Update, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u update.Update
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": updateID}, bson.M{
		"$push": bson.M{"comments": c},
		"$set":  bson.M{"updated_at": c.CreatedAt},
	}, opts).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return update.Update{}, update.ErrNotFound
	}
	return u, err
}

func (repo *updateRepository) RemoveComment(ctx context.Context, updateID, commentID primitive.ObjectID) error {
	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": updateID}, bson.M{
		"$pull": bson.M{"comments": bson.M{"_id": commentID}},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return update.ErrNotFound
	}
	if res.ModifiedCount == 0 {
		return update.ErrCommentNotFound
	}
	return nil
}

func (repo *updateRepository) DeleteUpdate(ctx context.Context, id primitive.ObjectID) error {
	_, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (repo *updateRepository) DeleteUpdatesByGroup(ctx context.Context, groupID primitive.ObjectID) error {
	_, err := repo.coll.DeleteMany(ctx, bson.M{"group": groupID})
	return err
}

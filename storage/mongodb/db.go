// Package mongodb implements the repositories over the document store.
// No multi-document transactions are used: every mutation is a single
// point write ($addToSet / $pull / $set) safe to replay.
package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tantsukool/backend/core"
)

// collection names
const (
	usersCollection      = "users"
	groupsCollection     = "groups"
	studentsCollection   = "students"
	parentsCollection    = "parents"
	updatesCollection    = "updates"
	schedulesCollection  = "schedules"
	attendanceCollection = "attendance"
)

func Open(conf *core.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Database.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to document store")
	}
	if err := ping(ctx, client); err != nil {
		return nil, err
	}
	return client.Database(conf.Database.Name), nil
}

// ping waits for the store to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, client *mongo.Client) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = client.Ping(ctx, readpref.Primary())
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}
	if err != nil {
		return errors.Wrap(err, "document store ping timeout")
	}
	return nil
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	if _, err := db.Collection(parentsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	}); err != nil {
		return errors.Wrap(err, "creating parent email index")
	}
	if _, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: unique,
	}); err != nil {
		return errors.Wrap(err, "creating user username index")
	}
	if _, err := db.Collection(attendanceCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "schedule", Value: 1}, {Key: "student", Value: 1}},
		Options: unique,
	}); err != nil {
		return errors.Wrap(err, "creating attendance index")
	}
	if _, err := db.Collection(studentsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "group", Value: 1}, {Key: "parent", Value: 1}},
	}); err != nil {
		return errors.Wrap(err, "creating student group/parent index")
	}
	return nil
}

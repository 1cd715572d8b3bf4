package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tantsukool/backend/core/student"
)

type studentRepository struct {
	coll *mongo.Collection
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *mongo.Database) student.Repository {
	return &studentRepository{coll: db.Collection(studentsCollection)}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	res, err := repo.coll.InsertOne(ctx, s)
	if err != nil {
		return student.Student{}, err
	}
	s.ID = res.InsertedID.(primitive.ObjectID)
	return s, nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	return repo.query(ctx, bson.M{})
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id primitive.ObjectID) (student.Student, error) {
	var s student.Student
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return student.Student{}, student.ErrNotFound
	}
	return s, err
}

func (repo *studentRepository) GetStudentsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]student.Student, error) {
	if len(ids) == 0 {
		return []student.Student{}, nil
	}
	return repo.query(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (repo *studentRepository) FilterStudentsByGroup(ctx context.Context, groupID primitive.ObjectID) ([]student.Student, error) {
	return repo.query(ctx, bson.M{"group": groupID})
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": s.ID}, bson.M{"$set": bson.M{
		"first_name": s.FirstName,
		"last_name":  s.LastName,
		"age":        s.Age,
		"updated_at": s.UpdatedAt,
	}})
	if err != nil {
		return student.Student{}, err
	}
	if res.MatchedCount == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudentByID(ctx, s.ID)
}

func (repo *studentRepository) SetStudentGroup(ctx context.Context, id primitive.ObjectID, groupID *primitive.ObjectID) error {
	var update bson.M
	if groupID == nil {
		update = bson.M{
			"$unset": bson.M{"group": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		}
	} else {
		update = bson.M{"$set": bson.M{"group": *groupID, "updated_at": time.Now().UTC()}}
	}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo *studentRepository) SetStudentParent(ctx context.Context, id primitive.ObjectID, parentID *primitive.ObjectID, parentName, parentEmail string) error {
	var update bson.M
	if parentID == nil {
		update = bson.M{
			"$unset": bson.M{"parent": "", "parent_name": "", "parent_email": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		}
	} else {
		update = bson.M{"$set": bson.M{
			"parent":       *parentID,
			"parent_name":  parentName,
			"parent_email": parentEmail,
			"updated_at":   time.Now().UTC(),
		}}
	}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo *studentRepository) CountStudentsByGroupAndParent(ctx context.Context, groupID, parentID primitive.ObjectID) (int64, error) {
	return repo.coll.CountDocuments(ctx, bson.M{"group": groupID, "parent": parentID})
}

func (repo *studentRepository) CountStudentsByParent(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	return repo.coll.CountDocuments(ctx, bson.M{"parent": parentID})
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, ids ...primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (repo *studentRepository) query(ctx context.Context, filter bson.M) ([]student.Student, error) {
	cur, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	students := make([]student.Student, 0)
	if err := cur.All(ctx, &students); err != nil {
		return nil, err
	}
	return students, nil
}

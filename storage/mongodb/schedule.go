package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tantsukool/backend/core/schedule"
)

type scheduleRepository struct {
	schedules  *mongo.Collection
	attendance *mongo.Collection
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db *mongo.Database) schedule.Repository {
	return &scheduleRepository{
		schedules:  db.Collection(schedulesCollection),
		attendance: db.Collection(attendanceCollection),
	}
}

func (repo *scheduleRepository) CreateSchedules(ctx context.Context, schedules ...schedule.Schedule) ([]schedule.Schedule, error) {
	if len(schedules) == 0 {
		return []schedule.Schedule{}, nil
	}
	docs := make([]interface{}, 0, len(schedules))
	for _, sched := range schedules {
		docs = append(docs, sched)
	}
	res, err := repo.schedules.InsertMany(ctx, docs)
	if err != nil {
		return nil, err
	}
	for i, id := range res.InsertedIDs {
		schedules[i].ID = id.(primitive.ObjectID)
	}
	return schedules, nil
}

func (repo *scheduleRepository) QuerySchedulesByGroup(ctx context.Context, groupID primitive.ObjectID) ([]schedule.Schedule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "starts_at", Value: 1}})
	cur, err := repo.schedules.Find(ctx, bson.M{"group": groupID}, opts)
	if err != nil {
		return nil, err
	}
	schedules := make([]schedule.Schedule, 0)
	if err := cur.All(ctx, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (repo *scheduleRepository) GetScheduleByID(ctx context.Context, id primitive.ObjectID) (schedule.Schedule, error) {
	var sched schedule.Schedule
	err := repo.schedules.FindOne(ctx, bson.M{"_id": id}).Decode(&sched)
	if err == mongo.ErrNoDocuments {
		return schedule.Schedule{}, schedule.ErrNotFound
	}
	return sched, err
}

func (repo *scheduleRepository) SetScheduleCanceled(ctx context.Context, id primitive.ObjectID, canceled bool) error {
	res, err := repo.schedules.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"canceled": canceled}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

func (repo *scheduleRepository) DeleteSchedule(ctx context.Context, id primitive.ObjectID) error {
	if _, err := repo.schedules.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return err
	}
	_, err := repo.attendance.DeleteMany(ctx, bson.M{"schedule": id})
	return err
}

func (repo *scheduleRepository) DeleteSchedulesByGroup(ctx context.Context, groupID primitive.ObjectID) error {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := repo.schedules.Find(ctx, bson.M{"group": groupID}, opts)
	if err != nil {
		return err
	}
	var refs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &refs); err != nil {
		return err
	}
	if len(refs) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}
	if _, err := repo.schedules.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return err
	}
	_, err = repo.attendance.DeleteMany(ctx, bson.M{"schedule": bson.M{"$in": ids}})
	return err
}

func (repo *scheduleRepository) UpsertAttendance(ctx context.Context, a schedule.Attendance) (schedule.Attendance, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var saved schedule.Attendance
	err := repo.attendance.FindOneAndUpdate(ctx,
		bson.M{"schedule": a.Schedule, "student": a.Student},
		bson.M{"$set": bson.M{
			"present":   a.Present,
			"marked_by": a.MarkedBy,
			"marked_at": a.MarkedAt,
		}},
		opts,
	).Decode(&saved)
	if err != nil {
		return schedule.Attendance{}, err
	}
	return saved, nil
}

func (repo *scheduleRepository) QueryAttendanceBySchedule(ctx context.Context, scheduleID primitive.ObjectID) ([]schedule.Attendance, error) {
	cur, err := repo.attendance.Find(ctx, bson.M{"schedule": scheduleID})
	if err != nil {
		return nil, err
	}
	marks := make([]schedule.Attendance, 0)
	if err := cur.All(ctx, &marks); err != nil {
		return nil, err
	}
	return marks, nil
}

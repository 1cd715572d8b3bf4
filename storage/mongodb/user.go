package mongodb

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tantsukool/backend/core/user"
)

type userRepository struct {
	coll *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *mongo.Database) user.Repository {
	return &userRepository{coll: db.Collection(usersCollection)}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	excludedIDs := make([]primitive.ObjectID, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excludedIDs = append(excludedIDs, usr.ID)
	}

	check := func(field, value string, sentinel error) error {
		if value == "" {
			return nil
		}
		filter := bson.M{field: value}
		if len(excludedIDs) > 0 {
			filter["_id"] = bson.M{"$nin": excludedIDs}
		}
		n, err := repo.coll.CountDocuments(ctx, filter)
		if err != nil {
			return err
		}
		if n > 0 {
			return sentinel
		}
		return nil
	}

	if err := check("username", username, user.ErrUsernameExists); err != nil {
		return err
	}
	return check("email", email, user.ErrEmailExists)
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := repo.coll.InsertOne(ctx, usr)
	if err != nil {
		return user.User{}, err
	}
	usr.ID = res.InsertedID.(primitive.ObjectID)
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	return repo.query(ctx, bson.M{})
}

func (repo *userRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (user.User, error) {
	return repo.get(ctx, bson.M{"_id": id})
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.get(ctx, bson.M{"username": username})
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.get(ctx, bson.M{"email": email})
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.get(ctx, bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": username},
	}})
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	query := bson.M{}
	if filter.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"username": re},
			bson.M{"email": re},
		}
	}
	if filter.IsActive != nil {
		query["is_active"] = *filter.IsActive
	}
	if filter.Roles != nil {
		// roles are hierarchical prefixes ("admin:" matches "admin:owner")
		res := make(bson.A, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			res = append(res, primitive.Regex{Pattern: "^" + regexp.QuoteMeta(role)})
		}
		query["roles"] = bson.M{"$elemMatch": bson.M{"$in": res}}
	}
	return repo.query(ctx, query)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	set := bson.M{
		"name":       usr.Name,
		"username":   usr.Username,
		"email":      usr.Email,
		"roles":      usr.Roles,
		"groups":     usr.Groups,
		"updated_at": usr.UpdatedAt,
	}
	if len(usr.PasswordHash) > 0 {
		set["password_hash"] = usr.PasswordHash
	}
	if isActive != nil {
		set["is_active"] = *isActive
	}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": usr.ID}, bson.M{"$set": set})
	if err != nil {
		return user.User{}, err
	}
	if res.MatchedCount == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *userRepository) SetLastLogin(ctx context.Context, id primitive.ObjectID, t time.Time) error {
	_, err := repo.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login": t}})
	return err
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (repo *userRepository) RemoveGroupFromUsers(ctx context.Context, groupID primitive.ObjectID) error {
	_, err := repo.coll.UpdateMany(ctx,
		bson.M{"groups": groupID},
		bson.M{"$pull": bson.M{"groups": groupID}},
	)
	return err
}

func (repo *userRepository) get(ctx context.Context, filter bson.M) (user.User, error) {
	var usr user.User
	err := repo.coll.FindOne(ctx, filter).Decode(&usr)
	if err == mongo.ErrNoDocuments {
		return user.User{}, user.ErrNotFound
	}
	return usr, err
}

func (repo *userRepository) query(ctx context.Context, filter bson.M) ([]user.User, error) {
	cur, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0)
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

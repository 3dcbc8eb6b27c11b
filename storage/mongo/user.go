package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/darasahq/darasa/core/user"
)

type userRepository struct {
	coll *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *mongo.Database) *userRepository {
	return &userRepository{coll: db.Collection(usersColl)}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	filter := bson.M{"email": email}
	if len(excludedUsers) > 0 {
		ids := make([]primitive.ObjectID, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		filter["_id"] = bson.M{"$nin": ids}
	}

	n, err := repo.coll.CountDocuments(ctx, filter)
	if err != nil {
		return err
	}
	if n > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, usr); err != nil {
		if isDup(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (user.User, error) {
	var usr user.User
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&usr)
	if err == mongo.ErrNoDocuments {
		return user.User{}, user.ErrNotFound
	}
	return usr, err
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var usr user.User
	err := repo.coll.FindOne(ctx, bson.M{"email": email}).Decode(&usr)
	if err == mongo.ErrNoDocuments {
		return user.User{}, user.ErrNotFound
	}
	return usr, err
}

func (repo *userRepository) FilterUsers(ctx context.Context, qf user.QueryFilter) ([]user.User, error) {
	filter := bson.M{}
	var and bson.A
	if qf.Search != "" {
		rx := primitive.Regex{Pattern: regexEscape(qf.Search), Options: "i"}
		and = append(and, bson.M{"$or": bson.A{bson.M{"name": rx}, bson.M{"email": rx}}})
	}
	if qf.Role != "" {
		filter["role"] = qf.Role
	}
	if qf.TrackID != "" {
		// matches both normalized assignments and legacy string lists
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"track_assignments.track_id": qf.TrackID},
			bson.M{"assigned_tracks": qf.TrackID},
		}})
	}
	if len(and) > 0 {
		filter["$and"] = and
	}
	if qf.IsActive != nil {
		filter["is_active"] = *qf.IsActive
	}
	created := bson.M{}
	if !qf.CreatedFrom.IsZero() {
		created["$gte"] = qf.CreatedFrom
	}
	if !qf.CreatedTo.IsZero() {
		created["$lte"] = qf.CreatedTo
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0)
	if err = cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	set := bson.M{"updated_at": usr.UpdatedAt}
	if usr.Name != "" {
		set["name"] = usr.Name
	}
	if usr.Email != "" {
		set["email"] = usr.Email
	}
	if usr.Phone != "" {
		set["phone"] = usr.Phone
	}
	if usr.Role != "" {
		set["role"] = usr.Role
	}
	if usr.TrackAssignments != nil {
		set["track_assignments"] = usr.TrackAssignments
		set["assigned_tracks"] = nil
	}
	if len(usr.PasswordHash) > 0 {
		set["password_hash"] = usr.PasswordHash
		set["is_password_default"] = usr.IsPasswordDefault
	}
	if !usr.LastLogin.IsZero() {
		set["last_login"] = usr.LastLogin
	}
	if isActive != nil {
		set["is_active"] = *isActive
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated user.User
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": usr.ID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return user.User{}, user.ErrNotFound
	}
	if isDup(err) {
		return user.User{}, user.ErrEmailExists
	}
	return updated, err
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/darasahq/darasa/core/application"
	"github.com/darasahq/darasa/core/user"
)

type applicationRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

var _ application.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(db *mongo.Database) *applicationRepository {
	return &applicationRepository{db: db, coll: db.Collection(applicationsColl)}
}

func (repo *applicationRepository) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	app.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, app); err != nil {
		if isDup(err) {
			return application.Application{}, application.ErrExists
		}
		return application.Application{}, err
	}
	return app, nil
}

func (repo *applicationRepository) GetApplicationByID(ctx context.Context, id primitive.ObjectID) (application.Application, error) {
	var app application.Application
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&app)
	if err == mongo.ErrNoDocuments {
		return application.Application{}, application.ErrNotFound
	}
	return app, err
}

func (repo *applicationRepository) FilterApplications(ctx context.Context, qf application.QueryFilter) ([]application.Application, error) {
	filter := bson.M{}
	if !qf.CohortID.IsZero() {
		filter["cohort_id"] = qf.CohortID
	}
	if qf.TrackID != "" {
		filter["track_id"] = qf.TrackID
	}
	if qf.Status != "" {
		filter["status"] = qf.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	apps := make([]application.Application, 0)
	if err = cur.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (repo *applicationRepository) UpdateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	set := bson.M{
		"status":     app.Status,
		"updated_at": app.UpdatedAt,
	}
	if app.RejectionReason != "" {
		set["rejection_reason"] = app.RejectionReason
	}
	if app.ReviewedBy != nil {
		set["reviewed_by"] = app.ReviewedBy
		set["reviewed_at"] = app.ReviewedAt
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated application.Application
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": app.ID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return application.Application{}, application.ErrNotFound
	}
	return updated, err
}

// AcceptApplication lands the accepted status, the applicant's promotion and
// the cohort-track seat count in one transaction; a full track aborts all
// three writes.
func (repo *applicationRepository) AcceptApplication(ctx context.Context, app application.Application, applicant user.User) (application.Application, error) {
	cohortRepo := NewCohortRepository(repo.db)
	users := repo.db.Collection(usersColl)

	var updated application.Application
	err := runTxn(ctx, repo.db, func(ctx context.Context) error {
		if err := cohortRepo.IncrementTrackStudents(ctx, app.CohortID, app.TrackID, 1); err != nil {
			return err
		}

		if _, err := users.UpdateOne(ctx, bson.M{"_id": applicant.ID}, bson.M{"$set": bson.M{
			"role":                applicant.Role,
			"password_hash":       applicant.PasswordHash,
			"is_password_default": applicant.IsPasswordDefault,
			"updated_at":          applicant.UpdatedAt,
		}}); err != nil {
			return err
		}

		var err error
		updated, err = repo.UpdateApplication(ctx, app)
		return err
	})
	if err != nil {
		return application.Application{}, err
	}
	return updated, nil
}

func (repo *applicationRepository) DeleteApplication(ctx context.Context, id primitive.ObjectID) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return application.ErrNotFound
	}
	return nil
}

package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/darasahq/darasa/core/cohort"
)

type cohortRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

var _ cohort.Repository = (*cohortRepository)(nil) // interface compliance check

func NewCohortRepository(db *mongo.Database) *cohortRepository {
	return &cohortRepository{db: db, coll: db.Collection(cohortsColl)}
}

func (repo *cohortRepository) CreateCohort(ctx context.Context, c cohort.Cohort) (cohort.Cohort, error) {
	c.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, c); err != nil {
		if isDup(err) {
			return cohort.Cohort{}, cohort.ErrNumberExists
		}
		return cohort.Cohort{}, err
	}
	return c, nil
}

func (repo *cohortRepository) GetCohortByID(ctx context.Context, id primitive.ObjectID) (cohort.Cohort, error) {
	var c cohort.Cohort
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return cohort.Cohort{}, cohort.ErrNotFound
	}
	return c, err
}

func (repo *cohortRepository) GetCohortByNumber(ctx context.Context, number string) (cohort.Cohort, error) {
	var c cohort.Cohort
	err := repo.coll.FindOne(ctx, bson.M{"number": number}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return cohort.Cohort{}, cohort.ErrNotFound
	}
	return c, err
}

func (repo *cohortRepository) GetActiveCohort(ctx context.Context) (cohort.Cohort, error) {
	var c cohort.Cohort
	err := repo.coll.FindOne(ctx, bson.M{"is_currently_active": true}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return cohort.Cohort{}, cohort.ErrNoActive
	}
	return c, err
}

func (repo *cohortRepository) QueryAllCohorts(ctx context.Context) ([]cohort.Cohort, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: -1}})
	cur, err := repo.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	cohorts := make([]cohort.Cohort, 0)
	if err = cur.All(ctx, &cohorts); err != nil {
		return nil, err
	}
	return cohorts, nil
}

func (repo *cohortRepository) UpdateCohort(ctx context.Context, c cohort.Cohort, applicationsOpen *bool) (cohort.Cohort, error) {
	set := bson.M{"updated_at": c.UpdatedAt}
	if c.Name != "" {
		set["name"] = c.Name
	}
	if !c.StartDate.IsZero() {
		set["start_date"] = c.StartDate
	}
	if !c.EndDate.IsZero() {
		set["end_date"] = c.EndDate
	}
	if c.Tracks != nil {
		set["tracks"] = c.Tracks
	}
	if applicationsOpen != nil {
		set["applications_open"] = *applicationsOpen
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated cohort.Cohort
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": c.ID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return cohort.Cohort{}, cohort.ErrNotFound
	}
	return updated, err
}

// SetActiveCohort flips the single-active flag in one transaction so two
// cohorts can never both read as active.
func (repo *cohortRepository) SetActiveCohort(ctx context.Context, id primitive.ObjectID) (cohort.Cohort, error) {
	var activated cohort.Cohort
	err := runTxn(ctx, repo.db, func(ctx context.Context) error {
		if _, err := repo.coll.UpdateMany(ctx,
			bson.M{"is_currently_active": true, "_id": bson.M{"$ne": id}},
			bson.M{"$set": bson.M{"is_currently_active": false}},
		); err != nil {
			return err
		}

		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err := repo.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"is_currently_active": true}},
			opts,
		).Decode(&activated)
		if err == mongo.ErrNoDocuments {
			return cohort.ErrNotFound
		}
		return err
	})
	if err != nil {
		return cohort.Cohort{}, err
	}
	return activated, nil
}

// IncrementTrackStudents bumps the embedded track counter. A positive delta
// checks capacity first; callers that need atomicity against racing accepts
// run this inside a transaction (see AcceptApplication).
func (repo *cohortRepository) IncrementTrackStudents(ctx context.Context, id primitive.ObjectID, trackID string, delta int) error {
	if delta > 0 {
		c, err := repo.GetCohortByID(ctx, id)
		if err != nil {
			return err
		}
		ct, ok := c.Track(trackID)
		if !ok {
			return cohort.ErrNotFound
		}
		if ct.Capacity > 0 && ct.CurrentStudents+delta > ct.Capacity {
			return cohort.ErrTrackFull
		}
	}

	res, err := repo.coll.UpdateOne(ctx,
		bson.M{"_id": id, "tracks.track_id": trackID},
		bson.M{"$inc": bson.M{"tracks.$.current_students": delta}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return cohort.ErrNotFound
	}
	return nil
}

func (repo *cohortRepository) DeleteCohort(ctx context.Context, id primitive.ObjectID) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return cohort.ErrNotFound
	}
	return nil
}

package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/darasahq/darasa/core/interview"
)

type interviewRepository struct {
	db    *mongo.Database
	coll  *mongo.Collection
	slots *mongo.Collection
}

var _ interview.Repository = (*interviewRepository)(nil) // interface compliance check

func NewInterviewRepository(db *mongo.Database) *interviewRepository {
	return &interviewRepository{
		db:    db,
		coll:  db.Collection(interviewsColl),
		slots: db.Collection(interviewSlotsColl),
	}
}

func (repo *interviewRepository) CreateSlot(ctx context.Context, slot interview.InterviewSlot) (interview.InterviewSlot, error) {
	slot.ID = primitive.NewObjectID()
	if _, err := repo.slots.InsertOne(ctx, slot); err != nil {
		return interview.InterviewSlot{}, err
	}
	return slot, nil
}

func (repo *interviewRepository) GetSlotByID(ctx context.Context, id primitive.ObjectID) (interview.InterviewSlot, error) {
	var slot interview.InterviewSlot
	err := repo.slots.FindOne(ctx, bson.M{"_id": id}).Decode(&slot)
	if err == mongo.ErrNoDocuments {
		return interview.InterviewSlot{}, interview.ErrSlotNotFound
	}
	return slot, err
}

func (repo *interviewRepository) QuerySlots(ctx context.Context, onlyAvailable bool) ([]interview.InterviewSlot, error) {
	filter := bson.M{}
	if onlyAvailable {
		filter["is_active"] = true
		filter["$expr"] = bson.M{"$lt": bson.A{"$booked", "$capacity"}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	cur, err := repo.slots.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	slots := make([]interview.InterviewSlot, 0)
	if err = cur.All(ctx, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (repo *interviewRepository) DeactivateSlot(ctx context.Context, id primitive.ObjectID) error {
	res, err := repo.slots.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_active": false}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return interview.ErrSlotNotFound
	}
	return nil
}

// BookInterview seats the interview and takes a slot seat in one transaction;
// the seat filter only matches while capacity remains.
func (repo *interviewRepository) BookInterview(ctx context.Context, iv interview.Interview) (interview.Interview, error) {
	iv.ID = primitive.NewObjectID()
	err := runTxn(ctx, repo.db, func(ctx context.Context) error {
		res, err := repo.slots.UpdateOne(ctx,
			bson.M{
				"_id":       iv.SlotID,
				"is_active": true,
				"$expr":     bson.M{"$lt": bson.A{"$booked", "$capacity"}},
			},
			bson.M{"$inc": bson.M{"booked": 1}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			n, cErr := repo.slots.CountDocuments(ctx, bson.M{"_id": iv.SlotID})
			if cErr != nil {
				return cErr
			}
			if n == 0 {
				return interview.ErrSlotNotFound
			}
			return interview.ErrSlotFull
		}

		if _, err = repo.coll.InsertOne(ctx, iv); err != nil {
			if isDup(err) {
				return interview.ErrExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return interview.Interview{}, err
	}
	return iv, nil
}

func (repo *interviewRepository) GetInterviewByID(ctx context.Context, id primitive.ObjectID) (interview.Interview, error) {
	var iv interview.Interview
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&iv)
	if err == mongo.ErrNoDocuments {
		return interview.Interview{}, interview.ErrNotFound
	}
	return iv, err
}

func (repo *interviewRepository) GetInterviewByApplicationID(ctx context.Context, appID primitive.ObjectID) (interview.Interview, error) {
	var iv interview.Interview
	err := repo.coll.FindOne(ctx, bson.M{"application_id": appID}).Decode(&iv)
	if err == mongo.ErrNoDocuments {
		return interview.Interview{}, interview.ErrNotFound
	}
	return iv, err
}

func (repo *interviewRepository) QueryInterviews(ctx context.Context, status string) ([]interview.Interview, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}})
	cur, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	interviews := make([]interview.Interview, 0)
	if err = cur.All(ctx, &interviews); err != nil {
		return nil, err
	}
	return interviews, nil
}

func (repo *interviewRepository) UpdateInterview(ctx context.Context, iv interview.Interview, freeSlot bool) (interview.Interview, error) {
	var updated interview.Interview
	err := runTxn(ctx, repo.db, func(ctx context.Context) error {
		set := bson.M{
			"status":     iv.Status,
			"updated_at": iv.UpdatedAt,
		}
		if iv.Notes != "" {
			set["notes"] = iv.Notes
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": iv.ID}, bson.M{"$set": set}, opts).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			return interview.ErrNotFound
		}
		if err != nil {
			return err
		}

		if freeSlot {
			_, err = repo.slots.UpdateOne(ctx,
				bson.M{"_id": iv.SlotID, "booked": bson.M{"$gt": 0}},
				bson.M{"$inc": bson.M{"booked": -1}},
			)
		}
		return err
	})
	if err != nil {
		return interview.Interview{}, err
	}
	return updated, nil
}

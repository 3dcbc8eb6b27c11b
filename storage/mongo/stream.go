package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/darasahq/darasa/core/stream"
)

type streamRepository struct {
	coll *mongo.Collection
}

var _ stream.Repository = (*streamRepository)(nil) // interface compliance check

func NewStreamRepository(db *mongo.Database) *streamRepository {
	return &streamRepository{coll: db.Collection(streamsColl)}
}

func (repo *streamRepository) CreateStream(ctx context.Context, s stream.Stream) (stream.Stream, error) {
	s.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, s); err != nil {
		return stream.Stream{}, err
	}
	return s, nil
}

func (repo *streamRepository) GetStreamByID(ctx context.Context, id primitive.ObjectID) (stream.Stream, error) {
	var s stream.Stream
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return stream.Stream{}, stream.ErrNotFound
	}
	return s, err
}

func (repo *streamRepository) FilterStreams(ctx context.Context, qf stream.QueryFilter) ([]stream.Stream, error) {
	filter := bson.M{}
	if !qf.CohortID.IsZero() {
		filter["cohort_id"] = qf.CohortID
	}
	if qf.TrackID != "" {
		// cohort-wide posts are visible from every track
		filter["$or"] = bson.A{
			bson.M{"track_id": qf.TrackID},
			bson.M{"track_id": bson.M{"$in": bson.A{nil, ""}}},
		}
	}
	if qf.PublishedOnly {
		filter["is_published"] = true
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "is_pinned", Value: -1},
		{Key: "created_at", Value: -1},
	})
	cur, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	streams := make([]stream.Stream, 0)
	if err = cur.All(ctx, &streams); err != nil {
		return nil, err
	}
	return streams, nil
}

func (repo *streamRepository) UpdateStream(ctx context.Context, s stream.Stream, isPinned, isPublished *bool) (stream.Stream, error) {
	set := bson.M{"updated_at": s.UpdatedAt}
	if s.Title != "" {
		set["title"] = s.Title
	}
	if s.Body != "" {
		set["body"] = s.Body
	}
	if isPinned != nil {
		set["is_pinned"] = *isPinned
	}
	if isPublished != nil {
		set["is_published"] = *isPublished
		if *isPublished {
			set["published_at"] = time.Now().UTC()
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated stream.Stream
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": s.ID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return stream.Stream{}, stream.ErrNotFound
	}
	return updated, err
}

func (repo *streamRepository) DeleteStream(ctx context.Context, id primitive.ObjectID) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return stream.ErrNotFound
	}
	return nil
}

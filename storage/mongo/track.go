package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/darasahq/darasa/core/track"
)

type trackRepository struct {
	coll *mongo.Collection
}

var _ track.Repository = (*trackRepository)(nil) // interface compliance check

func NewTrackRepository(db *mongo.Database) *trackRepository {
	return &trackRepository{coll: db.Collection(tracksColl)}
}

func (repo *trackRepository) CreateTrack(ctx context.Context, trk track.Track) (track.Track, error) {
	trk.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, trk); err != nil {
		if isDup(err) {
			return track.Track{}, track.ErrExists
		}
		return track.Track{}, err
	}
	return trk, nil
}

func (repo *trackRepository) GetTrackByID(ctx context.Context, id primitive.ObjectID) (track.Track, error) {
	var trk track.Track
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&trk)
	if err == mongo.ErrNoDocuments {
		return track.Track{}, track.ErrNotFound
	}
	return trk, err
}

func (repo *trackRepository) GetTrackByTrackID(ctx context.Context, trackID string) (track.Track, error) {
	var trk track.Track
	err := repo.coll.FindOne(ctx, bson.M{"track_id": trackID}).Decode(&trk)
	if err == mongo.ErrNoDocuments {
		return track.Track{}, track.ErrNotFound
	}
	return trk, err
}

func (repo *trackRepository) QueryAllTracks(ctx context.Context) ([]track.Track, error) {
	opts := options.Find().SetSort(bson.D{{Key: "track_id", Value: 1}})
	cur, err := repo.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	tracks := make([]track.Track, 0)
	if err = cur.All(ctx, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (repo *trackRepository) UpdateTrack(ctx context.Context, trk track.Track, isActive *bool) (track.Track, error) {
	set := bson.M{"updated_at": trk.UpdatedAt}
	if trk.Name != "" {
		set["name"] = trk.Name
	}
	if trk.Description != "" {
		set["description"] = trk.Description
	}
	if isActive != nil {
		set["is_active"] = *isActive
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated track.Track
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": trk.ID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return track.Track{}, track.ErrNotFound
	}
	return updated, err
}

func (repo *trackRepository) DeleteTrack(ctx context.Context, id primitive.ObjectID) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return track.ErrNotFound
	}
	return nil
}

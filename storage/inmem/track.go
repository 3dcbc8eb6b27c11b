package inmemdb

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core/track"
)

type trackRepository struct {
	db *DB
}

var _ track.Repository = (*trackRepository)(nil)

func NewTrackRepository(db *DB) *trackRepository {
	return &trackRepository{db: db}
}

func (repo *trackRepository) CreateTrack(_ context.Context, trk track.Track) (track.Track, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, t := range repo.db.tracks {
		if t.TrackID == trk.TrackID {
			return track.Track{}, track.ErrExists
		}
	}
	trk.ID = primitive.NewObjectID()
	repo.db.tracks[trk.ID] = &trk
	return trk, nil
}

func (repo *trackRepository) GetTrackByID(_ context.Context, id primitive.ObjectID) (track.Track, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if trk, ok := repo.db.tracks[id]; ok {
		return *trk, nil
	}
	return track.Track{}, track.ErrNotFound
}

func (repo *trackRepository) GetTrackByTrackID(_ context.Context, trackID string) (track.Track, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, trk := range repo.db.tracks {
		if trk.TrackID == trackID {
			return *trk, nil
		}
	}
	return track.Track{}, track.ErrNotFound
}

func (repo *trackRepository) QueryAllTracks(_ context.Context) ([]track.Track, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tracks := make([]track.Track, 0, len(repo.db.tracks))
	for _, trk := range repo.db.tracks {
		tracks = append(tracks, *trk)
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].TrackID < tracks[j].TrackID })
	return tracks, nil
}

func (repo *trackRepository) UpdateTrack(_ context.Context, trk track.Track, isActive *bool) (track.Track, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.tracks[trk.ID]
	if !ok {
		return track.Track{}, track.ErrNotFound
	}
	if trk.Name != "" {
		orig.Name = trk.Name
	}
	if trk.Description != "" {
		orig.Description = trk.Description
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	orig.UpdatedAt = trk.UpdatedAt
	return *orig, nil
}

func (repo *trackRepository) DeleteTrack(_ context.Context, id primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.tracks[id]; !ok {
		return track.ErrNotFound
	}
	delete(repo.db.tracks, id)
	return nil
}

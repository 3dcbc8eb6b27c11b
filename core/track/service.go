package track

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound = errors.New("track not found")
	ErrExists   = errors.New("a track with this id already exists")
)

type (
	Repository interface {
		CreateTrack(ctx context.Context, trk Track) (Track, error)
		GetTrackByID(ctx context.Context, id primitive.ObjectID) (Track, error)
		GetTrackByTrackID(ctx context.Context, trackID string) (Track, error)
		QueryAllTracks(ctx context.Context) ([]Track, error)
		UpdateTrack(ctx context.Context, trk Track, isActive *bool) (Track, error)
		DeleteTrack(ctx context.Context, id primitive.ObjectID) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nt NewTrack) (Track, error) {
	now := time.Now().UTC()
	trk := Track{
		TrackID:     nt.TrackID,
		Name:        nt.Name,
		Description: nt.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateTrack(ctx, trk)
}

func (svc *Service) GetByID(ctx context.Context, id primitive.ObjectID) (Track, error) {
	return svc.repo.GetTrackByID(ctx, id)
}

func (svc *Service) GetByTrackID(ctx context.Context, trackID string) (Track, error) {
	return svc.repo.GetTrackByTrackID(ctx, trackID)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Track, error) {
	return svc.repo.QueryAllTracks(ctx)
}

func (svc *Service) Update(ctx context.Context, id primitive.ObjectID, ut UpdateTrack) (Track, error) {
	trk := Track{
		ID:          id,
		Name:        ut.Name,
		Description: ut.Description,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateTrack(ctx, trk, ut.IsActive)
}

func (svc *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return svc.repo.DeleteTrack(ctx, id)
}

package stream

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

var ErrNotFound = errors.New("stream not found")

type (
	QueryFilter struct {
		CohortID      primitive.ObjectID
		TrackID       string
		PublishedOnly bool
	}

	Repository interface {
		CreateStream(ctx context.Context, s Stream) (Stream, error)
		GetStreamByID(ctx context.Context, id primitive.ObjectID) (Stream, error)
		// FilterStreams returns pinned posts first, then most recent.
		FilterStreams(ctx context.Context, filter QueryFilter) ([]Stream, error)
		UpdateStream(ctx context.Context, s Stream, isPinned, isPublished *bool) (Stream, error)
		DeleteStream(ctx context.Context, id primitive.ObjectID) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, creator user.User, ns NewStream) (Stream, error) {
	if err := ns.Validate(); err != nil {
		return Stream{}, err
	}
	cohortID, _ := primitive.ObjectIDFromHex(ns.CohortID)
	if ns.TrackID != "" && !creator.HasTrackAccess(cohortID, ns.TrackID) {
		return Stream{}, core.NewPermissionError("no access to this cohort track")
	}
	if ns.TrackID == "" && !creator.IsAdmin() {
		return Stream{}, core.NewPermissionError("only admins can post cohort-wide streams")
	}

	now := time.Now().UTC()
	s := Stream{
		CohortID:    cohortID,
		TrackID:     ns.TrackID,
		Title:       ns.Title,
		Body:        ns.Body,
		CreatedBy:   creator.ID,
		IsPinned:    ns.IsPinned,
		IsPublished: ns.Publish,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ns.Publish {
		s.PublishedAt = &now
	}
	return svc.repo.CreateStream(ctx, s)
}

func (svc *Service) GetByID(ctx context.Context, id primitive.ObjectID) (Stream, error) {
	return svc.repo.GetStreamByID(ctx, id)
}

// Filter lists streams; students only ever see published ones.
func (svc *Service) Filter(ctx context.Context, viewer user.User, filter QueryFilter) ([]Stream, error) {
	if !viewer.IsStaff() {
		filter.PublishedOnly = true
	}
	return svc.repo.FilterStreams(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, actor user.User, id primitive.ObjectID, us UpdateStream) (Stream, error) {
	orig, err := svc.repo.GetStreamByID(ctx, id)
	if err != nil {
		return Stream{}, err
	}
	if !actor.IsAdmin() && orig.CreatedBy != actor.ID {
		return Stream{}, core.NewPermissionError("only the author or an admin can edit a stream")
	}
	if err = us.Validate(orig); err != nil {
		return Stream{}, err
	}

	s := Stream{
		ID:        id,
		Title:     us.Title,
		Body:      us.Body,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateStream(ctx, s, us.IsPinned, us.IsPublished)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id primitive.ObjectID) error {
	orig, err := svc.repo.GetStreamByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && orig.CreatedBy != actor.ID {
		return core.NewPermissionError("only the author or an admin can delete a stream")
	}
	return svc.repo.DeleteStream(ctx, id)
}

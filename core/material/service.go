package material

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

var ErrNotFound = errors.New("material not found")

type (
	QueryFilter struct {
		CohortID      primitive.ObjectID
		TrackID       string
		PublishedOnly bool
	}

	Repository interface {
		CreateMaterial(ctx context.Context, m Material) (Material, error)
		GetMaterialByID(ctx context.Context, id primitive.ObjectID) (Material, error)
		FilterMaterials(ctx context.Context, filter QueryFilter) ([]Material, error)
		UpdateMaterial(ctx context.Context, m Material, isPublished *bool) (Material, error)
		DeleteMaterial(ctx context.Context, id primitive.ObjectID) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, creator user.User, nm NewMaterial) (Material, error) {
	if err := nm.Validate(); err != nil {
		return Material{}, err
	}
	cohortID, _ := primitive.ObjectIDFromHex(nm.CohortID)
	if !creator.HasTrackAccess(cohortID, nm.TrackID) {
		return Material{}, core.NewPermissionError("no access to this cohort track")
	}

	now := time.Now().UTC()
	m := Material{
		CohortID:    cohortID,
		TrackID:     nm.TrackID,
		Title:       nm.Title,
		Description: nm.Description,
		Type:        nm.Type,
		URL:         nm.URL,
		CreatedBy:   creator.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateMaterial(ctx, m)
}

func (svc *Service) GetByID(ctx context.Context, id primitive.ObjectID) (Material, error) {
	return svc.repo.GetMaterialByID(ctx, id)
}

// Filter lists materials; students only ever see published ones.
func (svc *Service) Filter(ctx context.Context, viewer user.User, filter QueryFilter) ([]Material, error) {
	if !viewer.IsStaff() {
		filter.PublishedOnly = true
	}
	return svc.repo.FilterMaterials(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, actor user.User, id primitive.ObjectID, um UpdateMaterial) (Material, error) {
	orig, err := svc.repo.GetMaterialByID(ctx, id)
	if err != nil {
		return Material{}, err
	}
	if !actor.HasTrackAccess(orig.CohortID, orig.TrackID) {
		return Material{}, core.NewPermissionError("no access to this cohort track")
	}
	if err = um.Validate(orig); err != nil {
		return Material{}, err
	}

	m := Material{
		ID:          id,
		Title:       um.Title,
		Description: um.Description,
		Type:        um.Type,
		URL:         um.URL,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateMaterial(ctx, m, um.IsPublished)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id primitive.ObjectID) error {
	orig, err := svc.repo.GetMaterialByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.HasTrackAccess(orig.CohortID, orig.TrackID) {
		return core.NewPermissionError("no access to this cohort track")
	}
	return svc.repo.DeleteMaterial(ctx, id)
}

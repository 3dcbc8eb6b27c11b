package cohort

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core"
)

var (
	ErrNotFound     = errors.New("cohort not found")
	ErrNumberExists = errors.New("a cohort with this number already exists")
	ErrNoActive     = errors.New("no currently active cohort")
	ErrTrackFull    = errors.New("track is at capacity")
)

type (
	Repository interface {
		CreateCohort(ctx context.Context, c Cohort) (Cohort, error)
		GetCohortByID(ctx context.Context, id primitive.ObjectID) (Cohort, error)
		GetCohortByNumber(ctx context.Context, number string) (Cohort, error)
		GetActiveCohort(ctx context.Context) (Cohort, error)
		QueryAllCohorts(ctx context.Context) ([]Cohort, error)
		UpdateCohort(ctx context.Context, c Cohort, applicationsOpen *bool) (Cohort, error)
		// SetActiveCohort atomically deactivates every other cohort and
		// activates the given one; at most one cohort is active system-wide.
		SetActiveCohort(ctx context.Context, id primitive.ObjectID) (Cohort, error)
		// IncrementTrackStudents bumps CurrentStudents on the matching
		// embedded track by delta, never exceeding Capacity when positive.
		IncrementTrackStudents(ctx context.Context, id primitive.ObjectID, trackID string, delta int) error
		DeleteCohort(ctx context.Context, id primitive.ObjectID) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewCohort) (Cohort, error) {
	now := time.Now().UTC()
	c := Cohort{
		Number:           nc.Number,
		Name:             nc.Name,
		StartDate:        nc.StartDate,
		EndDate:          nc.EndDate,
		ApplicationsOpen: true,
		Tracks:           buildTracks(nc.Tracks),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return svc.repo.CreateCohort(ctx, c)
}

func buildTracks(nts []NewCohortTrack) []CohortTrack {
	tracks := make([]CohortTrack, 0, len(nts))
	for _, nt := range nts {
		ct := CohortTrack{TrackID: nt.TrackID, Capacity: nt.Capacity}
		for _, hex := range nt.MentorIDs {
			if id, err := primitive.ObjectIDFromHex(hex); err == nil {
				ct.MentorIDs = append(ct.MentorIDs, id)
			}
		}
		tracks = append(tracks, ct)
	}
	return tracks
}

func (svc *Service) GetByID(ctx context.Context, id primitive.ObjectID) (Cohort, error) {
	return svc.repo.GetCohortByID(ctx, id)
}

func (svc *Service) GetByNumber(ctx context.Context, number string) (Cohort, error) {
	return svc.repo.GetCohortByNumber(ctx, core.CleanString(number))
}

func (svc *Service) GetActive(ctx context.Context) (Cohort, error) {
	return svc.repo.GetActiveCohort(ctx)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Cohort, error) {
	return svc.repo.QueryAllCohorts(ctx)
}

func (svc *Service) Update(ctx context.Context, id primitive.ObjectID, uc UpdateCohort) (Cohort, error) {
	c := Cohort{
		ID:        id,
		Name:      uc.Name,
		StartDate: uc.StartDate,
		EndDate:   uc.EndDate,
		UpdatedAt: time.Now().UTC(),
	}
	if uc.Tracks != nil {
		c.Tracks = buildTracks(uc.Tracks)
	}
	return svc.repo.UpdateCohort(ctx, c, uc.ApplicationsOpen)
}

func (svc *Service) SetActive(ctx context.Context, id primitive.ObjectID) (Cohort, error) {
	return svc.repo.SetActiveCohort(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return svc.repo.DeleteCohort(ctx, id)
}

package inmemdb

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core/cohort"
)

type cohortRepository struct {
	db *DB
}

var _ cohort.Repository = (*cohortRepository)(nil)

func NewCohortRepository(db *DB) *cohortRepository {
	return &cohortRepository{db: db}
}

func (repo *cohortRepository) CreateCohort(_ context.Context, c cohort.Cohort) (cohort.Cohort, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.cohorts {
		if existing.Number == c.Number {
			return cohort.Cohort{}, cohort.ErrNumberExists
		}
	}
	c.ID = primitive.NewObjectID()
	repo.db.cohorts[c.ID] = &c
	return c, nil
}

func (repo *cohortRepository) GetCohortByID(_ context.Context, id primitive.ObjectID) (cohort.Cohort, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.cohorts[id]; ok {
		return *c, nil
	}
	return cohort.Cohort{}, cohort.ErrNotFound
}

func (repo *cohortRepository) GetCohortByNumber(_ context.Context, number string) (cohort.Cohort, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, c := range repo.db.cohorts {
		if c.Number == number {
			return *c, nil
		}
	}
	return cohort.Cohort{}, cohort.ErrNotFound
}

func (repo *cohortRepository) GetActiveCohort(_ context.Context) (cohort.Cohort, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, c := range repo.db.cohorts {
		if c.IsCurrentlyActive {
			return *c, nil
		}
	}
	return cohort.Cohort{}, cohort.ErrNoActive
}

func (repo *cohortRepository) QueryAllCohorts(_ context.Context) ([]cohort.Cohort, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	cohorts := make([]cohort.Cohort, 0, len(repo.db.cohorts))
	for _, c := range repo.db.cohorts {
		cohorts = append(cohorts, *c)
	}
	sort.Slice(cohorts, func(i, j int) bool { return cohorts[i].StartDate.After(cohorts[j].StartDate) })
	return cohorts, nil
}

func (repo *cohortRepository) UpdateCohort(_ context.Context, c cohort.Cohort, applicationsOpen *bool) (cohort.Cohort, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.cohorts[c.ID]
	if !ok {
		return cohort.Cohort{}, cohort.ErrNotFound
	}
	if c.Name != "" {
		orig.Name = c.Name
	}
	if !c.StartDate.IsZero() {
		orig.StartDate = c.StartDate
	}
	if !c.EndDate.IsZero() {
		orig.EndDate = c.EndDate
	}
	if c.Tracks != nil {
		orig.Tracks = c.Tracks
	}
	if applicationsOpen != nil {
		orig.ApplicationsOpen = *applicationsOpen
	}
	orig.UpdatedAt = c.UpdatedAt
	return *orig, nil
}

func (repo *cohortRepository) SetActiveCohort(_ context.Context, id primitive.ObjectID) (cohort.Cohort, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	target, ok := repo.db.cohorts[id]
	if !ok {
		return cohort.Cohort{}, cohort.ErrNotFound
	}
	for _, c := range repo.db.cohorts {
		c.IsCurrentlyActive = false
	}
	target.IsCurrentlyActive = true
	return *target, nil
}

func (repo *cohortRepository) IncrementTrackStudents(_ context.Context, id primitive.ObjectID, trackID string, delta int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	return repo.incrementLocked(id, trackID, delta)
}

// incrementLocked assumes the db mutex is held.
func (repo *cohortRepository) incrementLocked(id primitive.ObjectID, trackID string, delta int) error {
	c, ok := repo.db.cohorts[id]
	if !ok {
		return cohort.ErrNotFound
	}
	for i := range c.Tracks {
		if c.Tracks[i].TrackID != trackID {
			continue
		}
		if delta > 0 && c.Tracks[i].Capacity > 0 && c.Tracks[i].CurrentStudents+delta > c.Tracks[i].Capacity {
			return cohort.ErrTrackFull
		}
		c.Tracks[i].CurrentStudents += delta
		return nil
	}
	return cohort.ErrNotFound
}

func (repo *cohortRepository) DeleteCohort(_ context.Context, id primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.cohorts[id]; !ok {
		return cohort.ErrNotFound
	}
	delete(repo.db.cohorts, id)
	return nil
}

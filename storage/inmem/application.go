package inmemdb

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core/application"
	"github.com/darasahq/darasa/core/user"
)

type applicationRepository struct {
	db *DB
}

var _ application.Repository = (*applicationRepository)(nil)

func NewApplicationRepository(db *DB) *applicationRepository {
	return &applicationRepository{db: db}
}

func (repo *applicationRepository) CreateApplication(_ context.Context, app application.Application) (application.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.applications {
		if existing.ApplicantID == app.ApplicantID && existing.CohortID == app.CohortID {
			return application.Application{}, application.ErrExists
		}
	}
	app.ID = primitive.NewObjectID()
	repo.db.applications[app.ID] = &app
	return app, nil
}

func (repo *applicationRepository) GetApplicationByID(_ context.Context, id primitive.ObjectID) (application.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if app, ok := repo.db.applications[id]; ok {
		return *app, nil
	}
	return application.Application{}, application.ErrNotFound
}

func (repo *applicationRepository) FilterApplications(_ context.Context, qf application.QueryFilter) ([]application.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	apps := make([]application.Application, 0)
	for _, app := range repo.db.applications {
		if !qf.CohortID.IsZero() && app.CohortID != qf.CohortID {
			continue
		}
		if qf.TrackID != "" && app.TrackID != qf.TrackID {
			continue
		}
		if qf.Status != "" && app.Status != qf.Status {
			continue
		}
		apps = append(apps, *app)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].CreatedAt.After(apps[j].CreatedAt) })
	return apps, nil
}

func (repo *applicationRepository) UpdateApplication(_ context.Context, app application.Application) (application.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	return repo.updateLocked(app)
}

// updateLocked assumes the db mutex is held.
func (repo *applicationRepository) updateLocked(app application.Application) (application.Application, error) {
	orig, ok := repo.db.applications[app.ID]
	if !ok {
		return application.Application{}, application.ErrNotFound
	}
	orig.Status = app.Status
	orig.UpdatedAt = app.UpdatedAt
	if app.RejectionReason != "" {
		orig.RejectionReason = app.RejectionReason
	}
	if app.ReviewedBy != nil {
		orig.ReviewedBy = app.ReviewedBy
		orig.ReviewedAt = app.ReviewedAt
	}
	return *orig, nil
}

// AcceptApplication mirrors the mongo transaction: the counter bump, the
// promotion and the status write either all land or none do.
func (repo *applicationRepository) AcceptApplication(_ context.Context, app application.Application, applicant user.User) (application.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cohortRepo := &cohortRepository{db: repo.db}
	if err := cohortRepo.incrementLocked(app.CohortID, app.TrackID, 1); err != nil {
		return application.Application{}, err
	}

	usr, ok := repo.db.users[applicant.ID]
	if !ok {
		cohortRepo.incrementLocked(app.CohortID, app.TrackID, -1) //nolint:errcheck
		return application.Application{}, user.ErrNotFound
	}
	updated, err := repo.updateLocked(app)
	if err != nil {
		cohortRepo.incrementLocked(app.CohortID, app.TrackID, -1) //nolint:errcheck
		return application.Application{}, err
	}

	usr.Role = applicant.Role
	usr.PasswordHash = applicant.PasswordHash
	usr.IsPasswordDefault = applicant.IsPasswordDefault
	usr.UpdatedAt = applicant.UpdatedAt
	return updated, nil
}

func (repo *applicationRepository) DeleteApplication(_ context.Context, id primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.applications[id]; !ok {
		return application.ErrNotFound
	}
	delete(repo.db.applications, id)
	return nil
}

package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/cohort"
	"github.com/darasahq/darasa/core/user"
)

var (
	ErrNotFound = errors.New("application not found")
	ErrExists   = errors.New("an application for this cohort already exists")
)

type (
	Repository interface {
		// CreateApplication returns ErrExists on a duplicate
		// (applicant, cohort) pair; backed by a unique compound index.
		CreateApplication(ctx context.Context, app Application) (Application, error)
		GetApplicationByID(ctx context.Context, id primitive.ObjectID) (Application, error)
		FilterApplications(ctx context.Context, filter QueryFilter) ([]Application, error)
		UpdateApplication(ctx context.Context, app Application) (Application, error)
		// AcceptApplication persists the accepted status, the applicant's
		// promotion to student and the cohort-track counter increment in one
		// transaction.
		AcceptApplication(ctx context.Context, app Application, applicant user.User) (Application, error)
		DeleteApplication(ctx context.Context, id primitive.ObjectID) error
	}

	// Notifier dispatches applicant-facing emails; implementations enqueue
	// into the email outbox and never fail the review.
	Notifier interface {
		ApplicationReceived(ctx context.Context, app Application, applicant user.User)
		ApplicationShortlisted(ctx context.Context, app Application, applicant user.User)
		ApplicationAccepted(ctx context.Context, app Application, applicant user.User, password string)
		ApplicationRejected(ctx context.Context, app Application, applicant user.User, reason string)
	}

	Service struct {
		repo       Repository
		usrSvc     *user.Service
		cohortRepo cohort.Repository
		notifier   Notifier
	}
)

func NewService(repo Repository, usrSvc *user.Service, cohortRepo cohort.Repository, notifier Notifier) *Service {
	return &Service{repo: repo, usrSvc: usrSvc, cohortRepo: cohortRepo, notifier: notifier}
}

// Submit handles applicant intake: resolves the target cohort, finds or
// creates the applicant account and persists the pending application.
func (svc *Service) Submit(ctx context.Context, na NewApplication) (Application, error) {
	if err := na.Validate(); err != nil {
		return Application{}, err
	}

	coh, err := svc.resolveCohort(ctx, na.CohortNumber)
	if err != nil {
		return Application{}, err
	}
	if !coh.ApplicationsOpen {
		return Application{}, core.NewValidationError(nil, core.FieldError{
			Field: "cohort_number", Error: "applications are closed for this cohort",
		})
	}
	if !coh.HasTrack(na.TrackID) {
		return Application{}, core.NewValidationError(nil, core.FieldError{
			Field: "track_id", Error: "track is not offered in this cohort",
		})
	}

	applicant, err := svc.usrSvc.GetOrCreateApplicant(ctx, na.Name, na.Email, na.Phone, GeneratePassword())
	if err != nil {
		return Application{}, err
	}

	now := time.Now().UTC()
	app := Application{
		ApplicantID: applicant.ID,
		CohortID:    coh.ID,
		TrackID:     na.TrackID,
		Status:      StatusPending,
		Motivation:  na.Motivation,
		CVURL:       na.CVURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	app, err = svc.repo.CreateApplication(ctx, app)
	if err != nil {
		if err == ErrExists {
			return Application{}, core.NewConflictError(err.Error(), err)
		}
		return Application{}, err
	}

	svc.notifier.ApplicationReceived(ctx, app, applicant)
	return app, nil
}

func (svc *Service) resolveCohort(ctx context.Context, number string) (cohort.Cohort, error) {
	if number == "" {
		coh, err := svc.cohortRepo.GetActiveCohort(ctx)
		if err != nil {
			if err == cohort.ErrNoActive {
				return cohort.Cohort{}, core.NewValidationError(nil, core.FieldError{
					Field: "cohort_number", Error: "no cohort is currently accepting applications",
				})
			}
			return cohort.Cohort{}, err
		}
		return coh, nil
	}

	coh, err := svc.cohortRepo.GetCohortByNumber(ctx, number)
	if err != nil {
		if err == cohort.ErrNotFound {
			return cohort.Cohort{}, core.NewValidationError(nil, core.FieldError{
				Field: "cohort_number", Error: "unknown cohort",
			})
		}
		return cohort.Cohort{}, err
	}
	return coh, nil
}

// Review applies a reviewer's status decision and its side effects. The
// status write always lands; notification failures are the notifier's
// problem and never roll it back.
func (svc *Service) Review(ctx context.Context, reviewer user.User, id primitive.ObjectID, ra ReviewApplication) (Application, error) {
	app, err := svc.repo.GetApplicationByID(ctx, id)
	if err != nil {
		return Application{}, err
	}

	if !reviewer.HasTrackAccess(app.CohortID, app.TrackID) {
		return Application{}, core.NewPermissionError("no access to this cohort track")
	}
	if err = ra.Validate(app); err != nil {
		return Application{}, err
	}

	now := time.Now().UTC()
	app.Status = ra.Status
	app.ReviewedBy = &reviewer.ID
	app.ReviewedAt = &now
	app.UpdatedAt = now

	applicant, err := svc.usrSvc.GetByID(ctx, app.ApplicantID)
	if err != nil {
		return Application{}, err
	}

	switch ra.Status {
	case StatusAccepted:
		return svc.accept(ctx, app, applicant)

	case StatusRejected:
		app.RejectionReason = ra.RejectionReason
		if app, err = svc.repo.UpdateApplication(ctx, app); err != nil {
			return Application{}, err
		}
		svc.notifier.ApplicationRejected(ctx, app, applicant, ra.RejectionReason)

	case StatusShortlisted:
		if app, err = svc.repo.UpdateApplication(ctx, app); err != nil {
			return Application{}, err
		}
		svc.notifier.ApplicationShortlisted(ctx, app, applicant)

	default:
		if app, err = svc.repo.UpdateApplication(ctx, app); err != nil {
			return Application{}, err
		}
	}
	return app, nil
}

// accept regenerates the applicant's credentials, promotes them to student
// and bumps the cohort-track counter, all under one repository transaction.
func (svc *Service) accept(ctx context.Context, app Application, applicant user.User) (Application, error) {
	password := GeneratePassword()
	if err := applicant.SetPassword(password); err != nil {
		return Application{}, err
	}
	applicant.Role = user.RoleStudent
	applicant.IsPasswordDefault = true
	applicant.UpdatedAt = time.Now().UTC()

	app, err := svc.repo.AcceptApplication(ctx, app, applicant)
	if err != nil {
		if err == cohort.ErrTrackFull {
			return Application{}, core.NewConflictError(err.Error(), err)
		}
		return Application{}, err
	}

	svc.notifier.ApplicationAccepted(ctx, app, applicant, password)
	return app, nil
}

func (svc *Service) GetByID(ctx context.Context, id primitive.ObjectID) (Application, error) {
	return svc.repo.GetApplicationByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Application, error) {
	return svc.repo.FilterApplications(ctx, filter)
}

func (svc *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return svc.repo.DeleteApplication(ctx, id)
}

// GeneratePassword returns a random one-time credential for generated
// accounts; holders are flagged IsPasswordDefault until they change it.
func GeneratePassword() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

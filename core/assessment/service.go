package assessment

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/application"
	"github.com/darasahq/darasa/core/user"
)

var (
	ErrNotFound = errors.New("assessment not found")
	ErrExists   = errors.New("an assessment for this application already exists")
)

type (
	Repository interface {
		// CreateAssessment returns ErrExists on a duplicate application;
		// backed by a unique index on application_id.
		CreateAssessment(ctx context.Context, a Assessment) (Assessment, error)
		GetAssessmentByID(ctx context.Context, id primitive.ObjectID) (Assessment, error)
		GetAssessmentByApplicationID(ctx context.Context, appID primitive.ObjectID) (Assessment, error)
		QueryAssessments(ctx context.Context, status string) ([]Assessment, error)
		UpdateAssessment(ctx context.Context, a Assessment) (Assessment, error)
		DeleteAssessment(ctx context.Context, id primitive.ObjectID) error
	}

	Notifier interface {
		AssessmentReceived(ctx context.Context, a Assessment, applicant user.User)
		AssessmentReviewed(ctx context.Context, a Assessment, applicant user.User)
	}

	Service struct {
		repo     Repository
		appSvc   *application.Service
		usrSvc   *user.Service
		notifier Notifier
	}
)

func NewService(repo Repository, appSvc *application.Service, usrSvc *user.Service, notifier Notifier) *Service {
	return &Service{repo: repo, appSvc: appSvc, usrSvc: usrSvc, notifier: notifier}
}

// Submit accepts a take-home assessment for a shortlisted application.
func (svc *Service) Submit(ctx context.Context, na NewAssessment) (Assessment, error) {
	if err := na.Validate(); err != nil {
		return Assessment{}, err
	}

	appID, err := primitive.ObjectIDFromHex(na.ApplicationID)
	if err != nil {
		return Assessment{}, core.NewValidationError(nil, core.FieldError{Field: "application_id", Error: "invalid id"})
	}
	app, err := svc.appSvc.GetByID(ctx, appID)
	if err != nil {
		return Assessment{}, err
	}
	if app.Status != application.StatusShortlisted {
		return Assessment{}, core.NewValidationError(nil, core.FieldError{
			Field: "application_id", Error: "application is not shortlisted",
		})
	}
	if _, err = svc.repo.GetAssessmentByApplicationID(ctx, appID); err == nil {
		return Assessment{}, core.NewConflictError(ErrExists.Error(), ErrExists)
	} else if err != ErrNotFound {
		return Assessment{}, err
	}

	now := time.Now().UTC()
	a := Assessment{
		ApplicationID: appID,
		FileURL:       na.FileURL,
		LinkURL:       na.LinkURL,
		Notes:         na.Notes,
		Status:        StatusSubmitted,
		SubmittedAt:   now,
		UpdatedAt:     now,
	}
	a, err = svc.repo.CreateAssessment(ctx, a)
	if err != nil {
		if err == ErrExists { // unique-index backstop for the racing insert
			return Assessment{}, core.NewConflictError(err.Error(), err)
		}
		return Assessment{}, err
	}

	if applicant, uErr := svc.usrSvc.GetByID(ctx, app.ApplicantID); uErr == nil {
		svc.notifier.AssessmentReceived(ctx, a, applicant)
	}
	return a, nil
}

// Review records a reviewer's verdict on an assessment.
func (svc *Service) Review(ctx context.Context, reviewer user.User, id primitive.ObjectID, ra ReviewAssessment) (Assessment, error) {
	a, err := svc.repo.GetAssessmentByID(ctx, id)
	if err != nil {
		return Assessment{}, err
	}
	app, err := svc.appSvc.GetByID(ctx, a.ApplicationID)
	if err != nil {
		return Assessment{}, err
	}
	if !reviewer.HasTrackAccess(app.CohortID, app.TrackID) {
		return Assessment{}, core.NewPermissionError("no access to this cohort track")
	}
	if err = ra.Validate(a); err != nil {
		return Assessment{}, err
	}

	now := time.Now().UTC()
	a.Status = ra.Status
	a.ReviewNotes = ra.ReviewNotes
	a.ReviewedBy = &reviewer.ID
	a.ReviewedAt = &now
	a.UpdatedAt = now
	if ra.Score != nil {
		a.Score = ra.Score
	}

	if a, err = svc.repo.UpdateAssessment(ctx, a); err != nil {
		return Assessment{}, err
	}

	if a.Status == StatusReviewed {
		if applicant, uErr := svc.usrSvc.GetByID(ctx, app.ApplicantID); uErr == nil {
			svc.notifier.AssessmentReviewed(ctx, a, applicant)
		}
	}
	return a, nil
}

func (svc *Service) GetByID(ctx context.Context, id primitive.ObjectID) (Assessment, error) {
	return svc.repo.GetAssessmentByID(ctx, id)
}

func (svc *Service) GetByApplicationID(ctx context.Context, appID primitive.ObjectID) (Assessment, error) {
	return svc.repo.GetAssessmentByApplicationID(ctx, appID)
}

func (svc *Service) Query(ctx context.Context, status string) ([]Assessment, error) {
	return svc.repo.QueryAssessments(ctx, core.CleanString(status, true /* lower */))
}

func (svc *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return svc.repo.DeleteAssessment(ctx, id)
}

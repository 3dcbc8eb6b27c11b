package application

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core"
)

// Application statuses.
const (
	StatusPending     = "pending"
	StatusUnderReview = "under-review"
	StatusShortlisted = "shortlisted"
	StatusAccepted    = "accepted"
	StatusRejected    = "rejected"
)

var AllStatuses = []string{StatusPending, StatusUnderReview, StatusShortlisted, StatusAccepted, StatusRejected}

// transitions is the authoritative status graph; accepted and rejected are
// terminal. Every status mutation is validated against it before the write.
var transitions = map[string][]string{
	StatusPending:     {StatusUnderReview, StatusRejected},
	StatusUnderReview: {StatusShortlisted, StatusRejected},
	StatusShortlisted: {StatusAccepted, StatusRejected},
	StatusAccepted:    {},
	StatusRejected:    {},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Application struct {
	ID              primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ApplicantID     primitive.ObjectID  `json:"applicant_id" bson:"applicant_id"`
	CohortID        primitive.ObjectID  `json:"cohort_id" bson:"cohort_id"`
	TrackID         string              `json:"track_id" bson:"track_id"`
	Status          string              `json:"status" bson:"status"`
	Motivation      string              `json:"motivation,omitempty" bson:"motivation,omitempty"`
	CVURL           string              `json:"cv_url" bson:"cv_url"`
	RejectionReason string              `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	ReviewedBy      *primitive.ObjectID `json:"reviewed_by,omitempty" bson:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time          `json:"reviewed_at,omitempty" bson:"reviewed_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt       time.Time           `json:"updated_at" bson:"updated_at"` // UTC
}

func (a *Application) IsTerminal() bool {
	return a.Status == StatusAccepted || a.Status == StatusRejected
}

// NewApplication is the applicant intake payload. CohortNumber selects the
// target cohort; empty means the currently active one.
type NewApplication struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"omitempty,min=7,max=20"`
	TrackID      string `json:"track_id" validate:"required,trackid"`
	CohortNumber string `json:"cohort_number"`
	CVURL        string `json:"cv_url" validate:"required,httpurl"`
	Motivation   string `json:"motivation" validate:"omitempty,max=3000"`
}

func (na *NewApplication) Validate() error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.TrackID = core.CleanString(na.TrackID, true /* lower */)
	na.CohortNumber = core.CleanString(na.CohortNumber)
	return core.Validate.Struct(na)
}

// ReviewApplication sets a new status; reason only applies to rejections.
type ReviewApplication struct {
	Status          string `json:"status" validate:"required,appstatus"`
	RejectionReason string `json:"rejection_reason" validate:"omitempty,max=2000"`
}

func (ra *ReviewApplication) Validate(app Application) error {
	ra.Status = core.CleanString(ra.Status, true /* lower */)
	if err := core.Validate.Struct(ra); err != nil {
		return err
	}
	if !CanTransition(app.Status, ra.Status) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "status",
			Error: fmt.Sprintf("cannot transition from %q to %q", app.Status, ra.Status),
		})
	}
	return nil
}

type QueryFilter struct {
	CohortID primitive.ObjectID
	TrackID  string
	Status   string
}

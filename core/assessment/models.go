package assessment

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core"
)

// Assessment statuses.
const (
	StatusSubmitted   = "submitted"
	StatusUnderReview = "under-review"
	StatusReviewed    = "reviewed"
)

var AllStatuses = []string{StatusSubmitted, StatusUnderReview, StatusReviewed}

// Submission types, derived from the submitted artifacts.
const (
	TypeFile = "file"
	TypeLink = "link"
)

var transitions = map[string][]string{
	StatusSubmitted:   {StatusUnderReview, StatusReviewed},
	StatusUnderReview: {StatusReviewed},
	StatusReviewed:    {},
}

func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Assessment struct {
	ID            primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ApplicationID primitive.ObjectID  `json:"application_id" bson:"application_id"`
	FileURL       string              `json:"file_url,omitempty" bson:"file_url,omitempty"`
	LinkURL       string              `json:"link_url,omitempty" bson:"link_url,omitempty"`
	Notes         string              `json:"notes,omitempty" bson:"notes,omitempty"`
	Status        string              `json:"status" bson:"status"`
	Score         *int                `json:"score,omitempty" bson:"score,omitempty"`
	ReviewNotes   string              `json:"review_notes,omitempty" bson:"review_notes,omitempty"`
	ReviewedBy    *primitive.ObjectID `json:"reviewed_by,omitempty" bson:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time          `json:"reviewed_at,omitempty" bson:"reviewed_at,omitempty"`
	SubmittedAt   time.Time           `json:"submitted_at" bson:"submitted_at"` // UTC
	UpdatedAt     time.Time           `json:"updated_at" bson:"updated_at"`     // UTC
}

// SubmissionType derives "file" or "link" from the submitted artifacts;
// a file takes precedence when both are present.
func (a *Assessment) SubmissionType() string {
	if a.FileURL != "" {
		return TypeFile
	}
	return TypeLink
}

type NewAssessment struct {
	ApplicationID string `json:"application_id" validate:"required,objectid"`
	FileURL       string `json:"file_url" validate:"omitempty,httpurl"`
	LinkURL       string `json:"link_url" validate:"omitempty,httpurl"`
	Notes         string `json:"notes" validate:"omitempty,max=1000"`
}

func (na *NewAssessment) Validate() error {
	na.FileURL = core.CleanString(na.FileURL)
	na.LinkURL = core.CleanString(na.LinkURL)

	if err := core.Validate.Struct(na); err != nil {
		return err
	}
	if na.FileURL == "" && na.LinkURL == "" {
		return core.NewValidationError(nil, core.FieldError{
			Field: "file_url", Error: "at least one of file_url or link_url is required",
		})
	}
	return nil
}

type ReviewAssessment struct {
	Status      string `json:"status" validate:"required,assessmentstatus"`
	Score       *int   `json:"score" validate:"omitempty,min=0,max=100"`
	ReviewNotes string `json:"review_notes" validate:"omitempty,max=2000"`
}

func (ra *ReviewAssessment) Validate(a Assessment) error {
	ra.Status = core.CleanString(ra.Status, true /* lower */)
	if err := core.Validate.Struct(ra); err != nil {
		return err
	}
	if !CanTransition(a.Status, ra.Status) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "status",
			Error: fmt.Sprintf("cannot transition from %q to %q", a.Status, ra.Status),
		})
	}
	return nil
}

var (
	statusTag  = "assessmentstatus"
	statusText = "invalid status"
)

func init() {
	_ = core.Validate.RegisterValidation(statusTag, func(fl validator.FieldLevel) bool {
		status := fl.Field().String()
		for _, s := range AllStatuses {
			if s == status {
				return true
			}
		}
		return false
	})
	core.RegisterCustomTranslation(statusTag, statusText)
}

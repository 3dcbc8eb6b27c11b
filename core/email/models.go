package email

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core"
)

// Template types.
const (
	TypeApplicationReceived    = "application-received"
	TypeApplicationShortlisted = "application-shortlisted"
	TypeApplicationAccepted    = "application-accepted"
	TypeApplicationRejected    = "application-rejected"
	TypeAssessmentReceived     = "assessment-received"
	TypeAssessmentReviewed     = "assessment-reviewed"
	TypeInterviewInvitation    = "interview-invitation"
	TypePasswordReset          = "password-reset"
	TypeDirect                 = "direct"
)

var AllTemplateTypes = []string{
	TypeApplicationReceived, TypeApplicationShortlisted, TypeApplicationAccepted,
	TypeApplicationRejected, TypeAssessmentReceived, TypeAssessmentReviewed,
	TypeInterviewInvitation, TypePasswordReset, TypeDirect,
}

// Log statuses.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusBounced = "bounced"
)

var variableNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// EmailTemplate is a named, typed content record; at most one template per
// type is active at any time.
type EmailTemplate struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	TemplateType string             `json:"template_type" bson:"template_type"`
	Subject      string             `json:"subject" bson:"subject"`
	HTMLContent  string             `json:"html_content" bson:"html_content"`
	// Variables is the whitelist of {{token}} names the content may use.
	Variables []string           `json:"variables,omitempty" bson:"variables,omitempty"`
	IsActive  bool               `json:"is_active" bson:"is_active"`
	CreatedBy primitive.ObjectID `json:"created_by" bson:"created_by"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"` // UTC
}

type LogAttachment struct {
	Filename    string `json:"filename" bson:"filename"`
	ContentType string `json:"content_type" bson:"content_type"`
	ContentB64  string `json:"-" bson:"content_b64"`
}

// EmailLog is the audit record of one send attempt. Rows are written with
// status pending before any provider call (outbox) and updated afterwards.
type EmailLog struct {
	ID           primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	TemplateID   *primitive.ObjectID `json:"template_id,omitempty" bson:"template_id,omitempty"`
	TemplateType string              `json:"template_type" bson:"template_type"`
	ToName       string              `json:"to_name,omitempty" bson:"to_name,omitempty"`
	ToAddress    string              `json:"to_address" bson:"to_address"`
	Subject      string              `json:"subject" bson:"subject"`
	HTMLContent  string              `json:"-" bson:"html_content"`
	Variables    map[string]string   `json:"variables,omitempty" bson:"variables,omitempty"`
	Attachments  []LogAttachment     `json:"attachments,omitempty" bson:"attachments,omitempty"`
	Status       string              `json:"status" bson:"status"`
	Attempts     int                 `json:"attempts" bson:"attempts"`
	LastError    string              `json:"last_error,omitempty" bson:"last_error,omitempty"`
	CreatedAt    time.Time           `json:"created_at" bson:"created_at"` // UTC
	SentAt       *time.Time          `json:"sent_at,omitempty" bson:"sent_at,omitempty"`
}

type NewTemplate struct {
	Name         string   `json:"name" validate:"required,max=200"`
	TemplateType string   `json:"template_type" validate:"required,templatetype"`
	Subject      string   `json:"subject" validate:"required,max=300"`
	HTMLContent  string   `json:"html_content" validate:"required"`
	Variables    []string `json:"variables"`
	IsActive     bool     `json:"is_active"`
}

func (nt *NewTemplate) Validate() error {
	nt.Name = core.CleanString(nt.Name)
	nt.TemplateType = core.CleanString(nt.TemplateType, true /* lower */)

	if err := core.Validate.Struct(nt); err != nil {
		return err
	}
	return validateVariableNames(nt.Variables)
}

type UpdateTemplate struct {
	Name        string   `json:"name"`
	Subject     string   `json:"subject" validate:"omitempty,max=300"`
	HTMLContent string   `json:"html_content"`
	Variables   []string `json:"variables"`
	IsActive    *bool    `json:"is_active"`
}

func (ut *UpdateTemplate) Validate(orig EmailTemplate) error {
	ut.Name = core.CleanString(ut.Name)
	if ut.Name == "" {
		ut.Name = orig.Name
	}
	if ut.Subject == "" {
		ut.Subject = orig.Subject
	}
	if ut.HTMLContent == "" {
		ut.HTMLContent = orig.HTMLContent
	}
	if err := core.Validate.Struct(ut); err != nil {
		return err
	}
	return validateVariableNames(ut.Variables)
}

func validateVariableNames(vars []string) error {
	for _, v := range vars {
		if !variableNameRegex.MatchString(v) {
			return core.NewValidationError(nil, core.FieldError{
				Field: "variables", Error: "variable names must be lowercase identifiers",
			})
		}
	}
	return nil
}

type LogFilter struct {
	Status       string
	TemplateType string
	ToAddress    string
}

var (
	templateTypeTag  = "templatetype"
	templateTypeText = "invalid template type"
)

func init() {
	_ = core.Validate.RegisterValidation(templateTypeTag, func(fl validator.FieldLevel) bool {
		tt := fl.Field().String()
		for _, t := range AllTemplateTypes {
			if t == tt {
				return true
			}
		}
		return false
	})
	core.RegisterCustomTranslation(templateTypeTag, templateTypeText)
}

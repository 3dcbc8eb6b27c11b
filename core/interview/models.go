package interview

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core"
)

// Interview statuses.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
)

var AllStatuses = []string{StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow}

var transitions = map[string][]string{
	StatusScheduled: {StatusCompleted, StatusCancelled, StatusNoShow},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusNoShow:    {},
}

func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InterviewSlot is interviewer-declared availability.
type InterviewSlot struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	InterviewerID primitive.ObjectID `json:"interviewer_id" bson:"interviewer_id"`
	StartTime     time.Time          `json:"start_time" bson:"start_time"`
	EndTime       time.Time          `json:"end_time" bson:"end_time"`
	Capacity      int                `json:"capacity" bson:"capacity"`
	Booked        int                `json:"booked" bson:"booked"`
	IsActive      bool               `json:"is_active" bson:"is_active"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"` // UTC
}

func (s *InterviewSlot) HasRoom() bool { return s.Booked < s.Capacity }

// Interview binds one Application to one slot.
type Interview struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ApplicationID primitive.ObjectID `json:"application_id" bson:"application_id"`
	SlotID        primitive.ObjectID `json:"slot_id" bson:"slot_id"`
	ScheduledAt   time.Time          `json:"scheduled_at" bson:"scheduled_at"`
	Status        string             `json:"status" bson:"status"`
	MeetingURL    string             `json:"meeting_url,omitempty" bson:"meeting_url,omitempty"`
	Notes         string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"` // UTC
}

type NewInterviewSlot struct {
	InterviewerID string    `json:"interviewer_id" validate:"required,objectid"`
	StartTime     time.Time `json:"start_time" validate:"required"`
	EndTime       time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Capacity      int       `json:"capacity" validate:"omitempty,min=1,max=50"`
}

func (ns *NewInterviewSlot) Validate() error {
	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	if ns.StartTime.Before(time.Now()) {
		return core.NewValidationError(nil, core.FieldError{Field: "start_time", Error: "slot must be in the future"})
	}
	return nil
}

type NewInterview struct {
	ApplicationID string `json:"application_id" validate:"required,objectid"`
	SlotID        string `json:"slot_id" validate:"required,objectid"`
	MeetingURL    string `json:"meeting_url" validate:"omitempty,httpurl"`
	Notes         string `json:"notes" validate:"omitempty,max=1000"`
}

func (ni *NewInterview) Validate() error {
	ni.MeetingURL = core.CleanString(ni.MeetingURL)
	return core.Validate.Struct(ni)
}

type UpdateInterview struct {
	Status string `json:"status" validate:"required,interviewstatus"`
	Notes  string `json:"notes" validate:"omitempty,max=1000"`
}

func (ui *UpdateInterview) Validate(iv Interview) error {
	ui.Status = core.CleanString(ui.Status, true /* lower */)
	if err := core.Validate.Struct(ui); err != nil {
		return err
	}
	if !CanTransition(iv.Status, ui.Status) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "status",
			Error: fmt.Sprintf("cannot transition from %q to %q", iv.Status, ui.Status),
		})
	}
	return nil
}

var (
	statusTag  = "interviewstatus"
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

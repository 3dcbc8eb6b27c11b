package interview

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
	ErrNotFound     = errors.New("interview not found")
	ErrSlotNotFound = errors.New("interview slot not found")
	ErrExists       = errors.New("an interview for this application already exists")
	ErrSlotFull     = errors.New("interview slot is fully booked")
)

type (
	Repository interface {
		CreateSlot(ctx context.Context, slot InterviewSlot) (InterviewSlot, error)
		GetSlotByID(ctx context.Context, id primitive.ObjectID) (InterviewSlot, error)
		QuerySlots(ctx context.Context, onlyAvailable bool) ([]InterviewSlot, error)
		DeactivateSlot(ctx context.Context, id primitive.ObjectID) error
		// BookInterview persists the interview and increments the slot's
		// booked counter in one transaction; returns ErrExists on a
		// duplicate application, ErrSlotFull when the slot is at capacity.
		BookInterview(ctx context.Context, iv Interview) (Interview, error)
		GetInterviewByID(ctx context.Context, id primitive.ObjectID) (Interview, error)
		GetInterviewByApplicationID(ctx context.Context, appID primitive.ObjectID) (Interview, error)
		QueryInterviews(ctx context.Context, status string) ([]Interview, error)
		// UpdateInterview releases the slot seat when the new status is
		// cancelled.
		UpdateInterview(ctx context.Context, iv Interview, freeSlot bool) (Interview, error)
	}

	Notifier interface {
		InterviewScheduled(ctx context.Context, iv Interview, applicant user.User, event CalendarEvent)
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

func (svc *Service) CreateSlot(ctx context.Context, ns NewInterviewSlot) (InterviewSlot, error) {
	if err := ns.Validate(); err != nil {
		return InterviewSlot{}, err
	}
	interviewerID, _ := primitive.ObjectIDFromHex(ns.InterviewerID)
	capacity := ns.Capacity
	if capacity == 0 {
		capacity = 1
	}
	slot := InterviewSlot{
		InterviewerID: interviewerID,
		StartTime:     ns.StartTime,
		EndTime:       ns.EndTime,
		Capacity:      capacity,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}
	return svc.repo.CreateSlot(ctx, slot)
}

func (svc *Service) QuerySlots(ctx context.Context, onlyAvailable bool) ([]InterviewSlot, error) {
	return svc.repo.QuerySlots(ctx, onlyAvailable)
}

func (svc *Service) DeactivateSlot(ctx context.Context, id primitive.ObjectID) error {
	return svc.repo.DeactivateSlot(ctx, id)
}

// Schedule books an interview for a shortlisted application into a slot and
// sends a calendar invitation.
func (svc *Service) Schedule(ctx context.Context, ni NewInterview) (Interview, error) {
	if err := ni.Validate(); err != nil {
		return Interview{}, err
	}

	appID, _ := primitive.ObjectIDFromHex(ni.ApplicationID)
	slotID, _ := primitive.ObjectIDFromHex(ni.SlotID)

	app, err := svc.appSvc.GetByID(ctx, appID)
	if err != nil {
		return Interview{}, err
	}
	if app.Status != application.StatusShortlisted {
		return Interview{}, core.NewValidationError(nil, core.FieldError{
			Field: "application_id", Error: "application is not shortlisted",
		})
	}

	slot, err := svc.repo.GetSlotByID(ctx, slotID)
	if err != nil {
		return Interview{}, err
	}
	if !slot.IsActive || !slot.HasRoom() {
		return Interview{}, core.NewConflictError(ErrSlotFull.Error(), ErrSlotFull)
	}

	now := time.Now().UTC()
	iv := Interview{
		ApplicationID: appID,
		SlotID:        slotID,
		ScheduledAt:   slot.StartTime,
		Status:        StatusScheduled,
		MeetingURL:    ni.MeetingURL,
		Notes:         ni.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	iv, err = svc.repo.BookInterview(ctx, iv)
	if err != nil {
		if err == ErrExists || err == ErrSlotFull {
			return Interview{}, core.NewConflictError(err.Error(), err)
		}
		return Interview{}, err
	}

	if applicant, uErr := svc.usrSvc.GetByID(ctx, app.ApplicantID); uErr == nil {
		event := CalendarEvent{
			UID:         iv.ID.Hex() + "@darasa",
			Summary:     "Admission interview",
			Description: "Your admission interview. Join: " + iv.MeetingURL,
			Location:    iv.MeetingURL,
			Start:       slot.StartTime,
			End:         slot.EndTime,
			Organizer:   core.Conf.Email.DefaultFromAddress,
			Attendee:    applicant.Email,
		}
		svc.notifier.InterviewScheduled(ctx, iv, applicant, event)
	}
	return iv, nil
}

func (svc *Service) Update(ctx context.Context, id primitive.ObjectID, ui UpdateInterview) (Interview, error) {
	iv, err := svc.repo.GetInterviewByID(ctx, id)
	if err != nil {
		return Interview{}, err
	}
	if err = ui.Validate(iv); err != nil {
		return Interview{}, err
	}

	freeSlot := ui.Status == StatusCancelled
	iv.Status = ui.Status
	if ui.Notes != "" {
		iv.Notes = ui.Notes
	}
	iv.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateInterview(ctx, iv, freeSlot)
}

func (svc *Service) GetByID(ctx context.Context, id primitive.ObjectID) (Interview, error) {
	return svc.repo.GetInterviewByID(ctx, id)
}

func (svc *Service) GetByApplicationID(ctx context.Context, appID primitive.ObjectID) (Interview, error) {
	return svc.repo.GetInterviewByApplicationID(ctx, appID)
}

func (svc *Service) Query(ctx context.Context, status string) ([]Interview, error) {
	return svc.repo.QueryInterviews(ctx, core.CleanString(status, true /* lower */))
}

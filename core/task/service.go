package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

var (
	ErrNotFound           = errors.New("task not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrSubmissionExists   = errors.New("a submission for this task already exists")
)

type (
	QueryFilter struct {
		CohortID      primitive.ObjectID
		TrackID       string
		PublishedOnly bool
	}

	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		GetTaskByID(ctx context.Context, id primitive.ObjectID) (Task, error)
		FilterTasks(ctx context.Context, filter QueryFilter) ([]Task, error)
		UpdateTask(ctx context.Context, t Task, allowLate, isPublished *bool) (Task, error)
		DeleteTask(ctx context.Context, id primitive.ObjectID) error

		// CreateSubmission returns ErrSubmissionExists on a duplicate
		// (task, student) pair; backed by a unique compound index.
		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id primitive.ObjectID) (Submission, error)
		QuerySubmissionsByTask(ctx context.Context, taskID primitive.ObjectID) ([]Submission, error)
		QuerySubmissionsByStudent(ctx context.Context, studentID primitive.ObjectID) ([]Submission, error)
		UpdateSubmission(ctx context.Context, s Submission) (Submission, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, creator user.User, nt NewTask) (Task, error) {
	if err := nt.Validate(); err != nil {
		return Task{}, err
	}
	cohortID, _ := primitive.ObjectIDFromHex(nt.CohortID)
	if !creator.HasTrackAccess(cohortID, nt.TrackID) {
		return Task{}, core.NewPermissionError("no access to this cohort track")
	}

	now := time.Now().UTC()
	t := Task{
		CohortID:            cohortID,
		TrackID:             nt.TrackID,
		Title:               nt.Title,
		Description:         nt.Description,
		DueDate:             nt.DueDate,
		MaxScore:            nt.MaxScore,
		AllowLateSubmission: nt.AllowLateSubmission,
		CreatedBy:           creator.ID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	return svc.repo.CreateTask(ctx, t)
}

func (svc *Service) GetByID(ctx context.Context, id primitive.ObjectID) (Task, error) {
	return svc.repo.GetTaskByID(ctx, id)
}

// Filter lists tasks; students only ever see published ones.
func (svc *Service) Filter(ctx context.Context, viewer user.User, filter QueryFilter) ([]Task, error) {
	if !viewer.IsStaff() {
		filter.PublishedOnly = true
	}
	return svc.repo.FilterTasks(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, actor user.User, id primitive.ObjectID, ut UpdateTask) (Task, error) {
	orig, err := svc.repo.GetTaskByID(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if !actor.HasTrackAccess(orig.CohortID, orig.TrackID) {
		return Task{}, core.NewPermissionError("no access to this cohort track")
	}
	if err = ut.Validate(orig); err != nil {
		return Task{}, err
	}

	t := Task{
		ID:          id,
		Title:       ut.Title,
		Description: ut.Description,
		DueDate:     ut.DueDate,
		MaxScore:    ut.MaxScore,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateTask(ctx, t, ut.AllowLateSubmission, ut.IsPublished)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id primitive.ObjectID) error {
	orig, err := svc.repo.GetTaskByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.HasTrackAccess(orig.CohortID, orig.TrackID) {
		return core.NewPermissionError("no access to this cohort track")
	}
	return svc.repo.DeleteTask(ctx, id)
}

// Submit records a student's work on a published task. Late submissions are
// rejected unless the task allows them; one submission per (task, student).
func (svc *Service) Submit(ctx context.Context, student user.User, ns NewSubmission) (Submission, error) {
	if err := ns.Validate(); err != nil {
		return Submission{}, err
	}

	taskID, _ := primitive.ObjectIDFromHex(ns.TaskID)
	t, err := svc.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		return Submission{}, err
	}
	if !t.IsPublished {
		return Submission{}, ErrNotFound
	}

	now := time.Now().UTC()
	if !t.AcceptsSubmissionsAt(now) {
		return Submission{}, core.NewValidationError(nil, core.FieldError{
			Field: "task_id", Error: "the due date has passed and late submissions are not allowed",
		})
	}

	s := Submission{
		TaskID:      taskID,
		StudentID:   student.ID,
		Content:     ns.Content,
		FileURL:     ns.FileURL,
		LinkURL:     ns.LinkURL,
		Status:      StatusSubmitted,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	s, err = svc.repo.CreateSubmission(ctx, s)
	if err != nil {
		if err == ErrSubmissionExists {
			return Submission{}, core.NewConflictError(err.Error(), err)
		}
		return Submission{}, err
	}
	return s, nil
}

// Grade scores a submission; the score must lie within [0, task.MaxScore].
func (svc *Service) Grade(ctx context.Context, grader user.User, id primitive.ObjectID, gs GradeSubmission) (Submission, error) {
	s, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	t, err := svc.repo.GetTaskByID(ctx, s.TaskID)
	if err != nil {
		return Submission{}, err
	}
	if !grader.HasTrackAccess(t.CohortID, t.TrackID) {
		return Submission{}, core.NewPermissionError("no access to this cohort track")
	}
	if err = core.Validate.Struct(&gs); err != nil {
		return Submission{}, err
	}
	if gs.Score < 0 || gs.Score > t.MaxScore {
		return Submission{}, core.NewValidationError(nil, core.FieldError{
			Field: "score",
			Error: fmt.Sprintf("score must be between 0 and %d", t.MaxScore),
		})
	}
	if s.Status != StatusSubmitted {
		return Submission{}, core.NewValidationError(nil, core.FieldError{
			Field: "status", Error: fmt.Sprintf("cannot grade a %s submission", s.Status),
		})
	}

	now := time.Now().UTC()
	s.Score = &gs.Score
	s.Feedback = gs.Feedback
	s.Status = StatusGraded
	s.GradedBy = &grader.ID
	s.GradedAt = &now
	s.UpdatedAt = now
	return svc.repo.UpdateSubmission(ctx, s)
}

// Return hands a graded submission back to the student.
func (svc *Service) Return(ctx context.Context, actor user.User, id primitive.ObjectID) (Submission, error) {
	s, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	t, err := svc.repo.GetTaskByID(ctx, s.TaskID)
	if err != nil {
		return Submission{}, err
	}
	if !actor.HasTrackAccess(t.CohortID, t.TrackID) {
		return Submission{}, core.NewPermissionError("no access to this cohort track")
	}
	if s.Status != StatusGraded {
		return Submission{}, core.NewValidationError(nil, core.FieldError{
			Field: "status", Error: "only graded submissions can be returned",
		})
	}

	s.Status = StatusReturned
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubmission(ctx, s)
}

func (svc *Service) GetSubmission(ctx context.Context, id primitive.ObjectID) (Submission, error) {
	return svc.repo.GetSubmissionByID(ctx, id)
}

func (svc *Service) SubmissionsByTask(ctx context.Context, taskID primitive.ObjectID) ([]Submission, error) {
	return svc.repo.QuerySubmissionsByTask(ctx, taskID)
}

func (svc *Service) SubmissionsByStudent(ctx context.Context, studentID primitive.ObjectID) ([]Submission, error) {
	return svc.repo.QuerySubmissionsByStudent(ctx, studentID)
}

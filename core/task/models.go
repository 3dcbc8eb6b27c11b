package task

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core"
)

// Submission statuses.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusGraded    = "graded"
	StatusReturned  = "returned"
)

var AllSubmissionStatuses = []string{StatusDraft, StatusSubmitted, StatusGraded, StatusReturned}

type Task struct {
	ID                  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CohortID            primitive.ObjectID `json:"cohort_id" bson:"cohort_id"`
	TrackID             string             `json:"track_id" bson:"track_id"`
	Title               string             `json:"title" bson:"title"`
	Description         string             `json:"description,omitempty" bson:"description,omitempty"`
	DueDate             time.Time          `json:"due_date" bson:"due_date"`
	MaxScore            int                `json:"max_score" bson:"max_score"`
	AllowLateSubmission bool               `json:"allow_late_submission" bson:"allow_late_submission"`
	IsPublished         bool               `json:"is_published" bson:"is_published"`
	CreatedBy           primitive.ObjectID `json:"created_by" bson:"created_by"`
	CreatedAt           time.Time          `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt           time.Time          `json:"updated_at" bson:"updated_at"` // UTC
}

// AcceptsSubmissionsAt reports whether a submission at `t` is allowed by the
// due-date rule; the rule is uniform across every submit path.
func (t *Task) AcceptsSubmissionsAt(at time.Time) bool {
	return t.AllowLateSubmission || !at.After(t.DueDate)
}

type Submission struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	TaskID      primitive.ObjectID  `json:"task_id" bson:"task_id"`
	StudentID   primitive.ObjectID  `json:"student_id" bson:"student_id"`
	Content     string              `json:"content,omitempty" bson:"content,omitempty"`
	FileURL     string              `json:"file_url,omitempty" bson:"file_url,omitempty"`
	LinkURL     string              `json:"link_url,omitempty" bson:"link_url,omitempty"`
	Status      string              `json:"status" bson:"status"`
	Score       *int                `json:"score,omitempty" bson:"score,omitempty"`
	Feedback    string              `json:"feedback,omitempty" bson:"feedback,omitempty"`
	GradedBy    *primitive.ObjectID `json:"graded_by,omitempty" bson:"graded_by,omitempty"`
	GradedAt    *time.Time          `json:"graded_at,omitempty" bson:"graded_at,omitempty"`
	SubmittedAt time.Time           `json:"submitted_at" bson:"submitted_at"` // UTC
	UpdatedAt   time.Time           `json:"updated_at" bson:"updated_at"`     // UTC
}

type NewTask struct {
	CohortID            string    `json:"cohort_id" validate:"required,objectid"`
	TrackID             string    `json:"track_id" validate:"required,trackid"`
	Title               string    `json:"title" validate:"required,max=200"`
	Description         string    `json:"description" validate:"omitempty,max=5000"`
	DueDate             time.Time `json:"due_date" validate:"required"`
	MaxScore            int       `json:"max_score" validate:"required,min=1,max=1000"`
	AllowLateSubmission bool      `json:"allow_late_submission"`
}

func (nt *NewTask) Validate() error {
	nt.Title = core.CleanString(nt.Title)
	return core.Validate.Struct(nt)
}

type UpdateTask struct {
	Title               string    `json:"title"`
	Description         string    `json:"description" validate:"omitempty,max=5000"`
	DueDate             time.Time `json:"due_date"`
	MaxScore            int       `json:"max_score" validate:"omitempty,min=1,max=1000"`
	AllowLateSubmission *bool     `json:"allow_late_submission"`
	IsPublished         *bool     `json:"is_published"`
}

func (ut *UpdateTask) Validate(orig Task) error {
	ut.Title = core.CleanString(ut.Title)
	if ut.Title == "" {
		ut.Title = orig.Title
	}
	if ut.DueDate.IsZero() {
		ut.DueDate = orig.DueDate
	}
	if ut.MaxScore == 0 {
		ut.MaxScore = orig.MaxScore
	}
	return core.Validate.Struct(ut)
}

type NewSubmission struct {
	TaskID  string `json:"task_id" validate:"required,objectid"`
	Content string `json:"content" validate:"omitempty,max=10000"`
	FileURL string `json:"file_url" validate:"omitempty,httpurl"`
	LinkURL string `json:"link_url" validate:"omitempty,httpurl"`
}

func (ns *NewSubmission) Validate() error {
	ns.Content = core.CleanString(ns.Content)
	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	if ns.Content == "" && ns.FileURL == "" && ns.LinkURL == "" {
		return core.NewValidationError(nil, core.FieldError{
			Field: "content", Error: "a submission needs content, a file or a link",
		})
	}
	return nil
}

type GradeSubmission struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback" validate:"omitempty,max=5000"`
}

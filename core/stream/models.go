package stream

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core"
)

// Stream is an announcement/update post scoped to a cohort, optionally
// narrowed to one track.
type Stream struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CohortID    primitive.ObjectID `json:"cohort_id" bson:"cohort_id"`
	TrackID     string             `json:"track_id,omitempty" bson:"track_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Body        string             `json:"body" bson:"body"`
	CreatedBy   primitive.ObjectID `json:"created_by" bson:"created_by"`
	IsPinned    bool               `json:"is_pinned" bson:"is_pinned"`
	IsPublished bool               `json:"is_published" bson:"is_published"`
	PublishedAt *time.Time         `json:"published_at,omitempty" bson:"published_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"` // UTC
}

type NewStream struct {
	CohortID string `json:"cohort_id" validate:"required,objectid"`
	TrackID  string `json:"track_id" validate:"omitempty,trackid"`
	Title    string `json:"title" validate:"required,max=200"`
	Body     string `json:"body" validate:"required,max=10000"`
	IsPinned bool   `json:"is_pinned"`
	Publish  bool   `json:"publish"`
}

func (ns *NewStream) Validate() error {
	ns.Title = core.CleanString(ns.Title)
	return core.Validate.Struct(ns)
}

type UpdateStream struct {
	Title       string `json:"title"`
	Body        string `json:"body" validate:"omitempty,max=10000"`
	IsPinned    *bool  `json:"is_pinned"`
	IsPublished *bool  `json:"is_published"`
}

func (us *UpdateStream) Validate(orig Stream) error {
	us.Title = core.CleanString(us.Title)
	if us.Title == "" {
		us.Title = orig.Title
	}
	if us.Body == "" {
		us.Body = orig.Body
	}
	return core.Validate.Struct(us)
}

package cohort

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core"
)

// CohortTrack is the embedded association of a Track within a Cohort,
// carrying its own mentor list and capacity counters.
type CohortTrack struct {
	TrackID         string               `json:"track_id" bson:"track_id"`
	MentorIDs       []primitive.ObjectID `json:"mentor_ids,omitempty" bson:"mentor_ids,omitempty"`
	Capacity        int                  `json:"capacity" bson:"capacity"`
	CurrentStudents int                  `json:"current_students" bson:"current_students"`
}

type Cohort struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Number            string             `json:"number" bson:"number"`
	Name              string             `json:"name" bson:"name"`
	StartDate         time.Time          `json:"start_date" bson:"start_date"`
	EndDate           time.Time          `json:"end_date" bson:"end_date"`
	ApplicationsOpen  bool               `json:"applications_open" bson:"applications_open"`
	IsCurrentlyActive bool               `json:"is_currently_active" bson:"is_currently_active"`
	Tracks            []CohortTrack      `json:"tracks" bson:"tracks"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"` // UTC
}

// Track returns the embedded CohortTrack for the given trackID, if any.
func (c *Cohort) Track(trackID string) (CohortTrack, bool) {
	for _, ct := range c.Tracks {
		if ct.TrackID == trackID {
			return ct, true
		}
	}
	return CohortTrack{}, false
}

func (c *Cohort) HasTrack(trackID string) bool {
	_, ok := c.Track(trackID)
	return ok
}

type NewCohortTrack struct {
	TrackID   string   `json:"track_id" validate:"required,trackid"`
	MentorIDs []string `json:"mentor_ids" validate:"omitempty,dive,objectid"`
	Capacity  int      `json:"capacity" validate:"omitempty,min=1,max=1000"`
}

type NewCohort struct {
	Number    string           `json:"number" validate:"required,alphanum_"`
	Name      string           `json:"name" validate:"required"`
	StartDate time.Time        `json:"start_date" validate:"required"`
	EndDate   time.Time        `json:"end_date" validate:"required,gtfield=StartDate"`
	Tracks    []NewCohortTrack `json:"tracks" validate:"required,min=1,dive"`
}

func (nc *NewCohort) Validate() error {
	nc.Number = core.CleanString(nc.Number)
	nc.Name = core.CleanString(nc.Name)
	return core.Validate.Struct(nc)
}

type UpdateCohort struct {
	Name             string           `json:"name"`
	StartDate        time.Time        `json:"start_date"`
	EndDate          time.Time        `json:"end_date"`
	ApplicationsOpen *bool            `json:"applications_open"`
	Tracks           []NewCohortTrack `json:"tracks" validate:"omitempty,dive"`
}

func (uc *UpdateCohort) Validate(orig Cohort) error {
	uc.Name = core.CleanString(uc.Name)
	if uc.Name == "" {
		uc.Name = orig.Name
	}
	if uc.StartDate.IsZero() {
		uc.StartDate = orig.StartDate
	}
	if uc.EndDate.IsZero() {
		uc.EndDate = orig.EndDate
	}
	if !uc.EndDate.After(uc.StartDate) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "end date must be after start date"})
	}
	return core.Validate.Struct(uc)
}

package track

import (
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core"
)

// Track identifiers; TrackID is immutable once created.
const (
	BackendDevelopment  = "backend-development"
	FrontendDevelopment = "frontend-development"
	ProductDesign       = "product-design"
	DataScience         = "data-science"
)

var AllTrackIDs = []string{BackendDevelopment, FrontendDevelopment, ProductDesign, DataScience}

var (
	trackIDTag  = "trackid"
	trackIDText = "invalid track id"
)

func init() {
	_ = core.Validate.RegisterValidation(trackIDTag, trackIDValidation)
	core.RegisterCustomTranslation(trackIDTag, trackIDText)
}

func trackIDValidation(fl validator.FieldLevel) bool {
	return IsValidTrackID(fl.Field().String())
}

func IsValidTrackID(id string) bool {
	for _, t := range AllTrackIDs {
		if t == id {
			return true
		}
	}
	return false
}

type Track struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TrackID     string             `json:"track_id" bson:"track_id"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	IsActive    bool               `json:"is_active" bson:"is_active"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"` // UTC
}

type NewTrack struct {
	TrackID     string `json:"track_id" validate:"required,trackid"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

func (nt *NewTrack) Validate() error {
	nt.TrackID = core.CleanString(nt.TrackID, true /* lower */)
	nt.Name = core.CleanString(nt.Name)
	return core.Validate.Struct(nt)
}

// UpdateTrack never touches TrackID; the identity is immutable.
type UpdateTrack struct {
	Name        string `json:"name"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	IsActive    *bool  `json:"is_active"`
}

func (ut *UpdateTrack) Validate(orig Track) error {
	ut.Name = core.CleanString(ut.Name)
	if ut.Name == "" {
		ut.Name = orig.Name
	}
	return core.Validate.Struct(ut)
}

package material

import (
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core"
)

// Material types.
const (
	TypeDocument = "document"
	TypeVideo    = "video"
	TypeLink     = "link"
)

var AllTypes = []string{TypeDocument, TypeVideo, TypeLink}

type Material struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CohortID    primitive.ObjectID `json:"cohort_id" bson:"cohort_id"`
	TrackID     string             `json:"track_id" bson:"track_id"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Type        string             `json:"type" bson:"type"`
	URL         string             `json:"url" bson:"url"`
	CreatedBy   primitive.ObjectID `json:"created_by" bson:"created_by"`
	IsPublished bool               `json:"is_published" bson:"is_published"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"` // UTC
}

type NewMaterial struct {
	CohortID    string `json:"cohort_id" validate:"required,objectid"`
	TrackID     string `json:"track_id" validate:"required,trackid"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Type        string `json:"type" validate:"required,materialtype"`
	URL         string `json:"url" validate:"required,httpurl"`
}

func (nm *NewMaterial) Validate() error {
	nm.Title = core.CleanString(nm.Title)
	nm.Type = core.CleanString(nm.Type, true /* lower */)
	return core.Validate.Struct(nm)
}

type UpdateMaterial struct {
	Title       string `json:"title"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Type        string `json:"type" validate:"omitempty,materialtype"`
	URL         string `json:"url" validate:"omitempty,httpurl"`
	IsPublished *bool  `json:"is_published"`
}

func (um *UpdateMaterial) Validate(orig Material) error {
	um.Title = core.CleanString(um.Title)
	if um.Title == "" {
		um.Title = orig.Title
	}
	if um.Type == "" {
		um.Type = orig.Type
	}
	if um.URL == "" {
		um.URL = orig.URL
	}
	return core.Validate.Struct(um)
}

var (
	typeTag  = "materialtype"
	typeText = "invalid material type"
)

func init() {
	_ = core.Validate.RegisterValidation(typeTag, func(fl validator.FieldLevel) bool {
		mt := fl.Field().String()
		for _, t := range AllTypes {
			if t == mt {
				return true
			}
		}
		return false
	})
	core.RegisterCustomTranslation(typeTag, typeText)
}

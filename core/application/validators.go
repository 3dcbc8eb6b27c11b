package application

import (
	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
)

var (
	appStatusTag  = "appstatus"
	appStatusText = "invalid status"
)

func init() {
	_ = core.Validate.RegisterValidation(appStatusTag, appStatusValidation)
	core.RegisterCustomTranslation(appStatusTag, appStatusText)
}

func appStatusValidation(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	for _, s := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

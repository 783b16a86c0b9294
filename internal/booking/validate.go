package booking

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// calendardate: a YYYY-MM-DD date string.
	Validate.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})

	// resourcetype: one of the closed resource category enum.
	Validate.RegisterValidation("resourcetype", func(fl validator.FieldLevel) bool {
		return ResourceType(fl.Field().String()).Valid()
	})
}

package validator

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

type enum interface {
	Valid() bool
}

// validateEnum accepts fields whose type knows its own valid values
func validateEnum(fl validator.FieldLevel) bool {
	e, ok := fl.Field().Interface().(enum)
	return ok && e.Valid()
}

// Validator returns a singleton that can be used to validate various objects
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New()

		if err := v.RegisterValidation("enum", validateEnum); err != nil {
			panic("failed to register validation: " + err.Error())
		}
	})
	return v
}

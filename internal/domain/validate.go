package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks struct tags on payloads before they are sent to the backend.
// Failures match ErrValidationFailed.
func Validate(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		msgs = append(msgs, describeFieldError(fieldErr))
	}
	return fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(msgs, ", "))
}

func describeFieldError(err validator.FieldError) string {
	field := err.Field()
	switch err.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, err.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, err.Tag())
	}
}

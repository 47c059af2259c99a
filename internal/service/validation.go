package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
)

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// validationError turns validator output into a VALIDATION_ERROR naming the
// offending fields, missing ones first.
func validationError(err error, fallback string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fallback)
	}
	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			invalid = append(invalid, fe.Field())
		}
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(invalid, ", "))
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, strings.Join(parts, "; "))
}

package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator and renders violations as
// client-safe messages keyed by JSON field names.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON tag names, not Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})

	return &Validator{validate: v}
}

// Struct returns one message per violated rule, or nil when the value is
// valid. Unexpected validator failures are returned as the error.
func (v *Validator) Struct(value any) ([]string, error) {
	err := v.validate.Struct(value)
	if err == nil {
		return nil, nil
	}

	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return nil, err
	}

	messages := make([]string, 0, len(violations))
	for _, violation := range violations {
		messages = append(messages, message(violation))
	}
	return messages, nil
}

func message(err validator.FieldError) string {
	field := err.Field()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, err.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

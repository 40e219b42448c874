package utils

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON name
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(f.Tag.Get("query"), ",", 2)[0]
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}

// Request locations used in FieldError.Loc
const (
	LocationBody  = "body"
	LocationQuery = "query"
	LocationPath  = "path"
)

// FieldError describes one invalid input
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationError wraps validation errors with structured details
type ValidationError struct {
	Message string
	Errors  []FieldError
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return e.Message
	}
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Msg
	}
	return e.Message + ": " + strings.Join(msgs, "; ")
}

// ValidateStruct validates a struct using go-playground/validator. Field
// errors are reported at the given location ("body", "query" or "path").
func ValidateStruct(s interface{}, location string) error {
	if err := validate.Struct(s); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewValidationError(location, validationErrors)
		}
		return err
	}
	return nil
}

// NewValidationError creates a ValidationError from validator.ValidationErrors
func NewValidationError(location string, errs validator.ValidationErrors) *ValidationError {
	out := make([]FieldError, 0, len(errs))
	for _, err := range errs {
		field := err.Field()
		tag := err.Tag()

		var msg, typ string
		switch tag {
		case "required":
			msg, typ = fmt.Sprintf("%s is required", field), "value_error.missing"
		case "min", "gte":
			msg, typ = fmt.Sprintf("%s must be greater than or equal to %s", field, err.Param()), "value_error.number.not_ge"
		case "max", "lte":
			msg, typ = fmt.Sprintf("%s must be less than or equal to %s", field, err.Param()), "value_error.number.not_le"
		case "gt":
			msg, typ = fmt.Sprintf("%s must be greater than %s", field, err.Param()), "value_error.number.not_gt"
		case "lt":
			msg, typ = fmt.Sprintf("%s must be less than %s", field, err.Param()), "value_error.number.not_lt"
		case "oneof":
			msg, typ = fmt.Sprintf("%s must be one of: %s", field, err.Param()), "value_error.const"
		default:
			msg, typ = fmt.Sprintf("%s validation failed on '%s' tag", field, tag), "value_error"
		}
		if err.Kind() == reflect.String && (tag == "max" || tag == "min") {
			msg = fmt.Sprintf("%s length must be %s %s", field, map[string]string{"max": "at most", "min": "at least"}[tag], err.Param())
			typ = "value_error.any_str." + tag + "_length"
		}

		out = append(out, FieldError{Loc: []string{location, field}, Msg: msg, Type: typ})
	}

	sort.SliceStable(out, func(i, j int) bool { return strings.Join(out[i].Loc, ".") < strings.Join(out[j].Loc, ".") })

	return &ValidationError{
		Message: "Validation failed",
		Errors:  out,
	}
}

// NewFieldValidationError reports a single invalid input, e.g. a path
// parameter that is not an integer
func NewFieldValidationError(location, field, msg, typ string) *ValidationError {
	return &ValidationError{
		Message: "Validation failed",
		Errors:  []FieldError{{Loc: []string{location, field}, Msg: msg, Type: typ}},
	}
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// GetValidationErrors extracts field errors from a ValidationError
func GetValidationErrors(err error) []FieldError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Errors
	}
	return nil
}

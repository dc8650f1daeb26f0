// Package validation checks control API request bodies before they reach
// the domain layer, using the validator/v10 library.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/earconlabs/earcon/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion and
// the custom rules the sound API needs.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with our rules registered.
func New() *Validator {
	v := validator.New()

	// Report fields under their JSON names so error details line up with
	// the request body the client actually sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" {
			return fld.Name
		}
		return name
	})

	// soundname: cue and set names end up in file lookups, so anything
	// that smells like a path is refused before resolution starts.
	mustRegister(v, "soundname", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return !strings.ContainsAny(s, `/\`) && !strings.Contains(s, "..")
	})

	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

// Validate checks a struct against its validate tags, converting failures
// to a domain validation error with per-field details.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = friendlyMessage(fe)
	}

	return domainerrors.ValidationWithDetails("validation failed", details)
}

// friendlyMessage renders one field error for API consumers.
func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be at least " + e.Param()
	case "lte":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	case "soundname":
		return "must not contain path separators or '..'"
	default:
		return "is invalid"
	}
}

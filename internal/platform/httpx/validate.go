package httpx

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground validation and flattens failures into the
// per-field 422 envelope.
type Validator struct {
	validate *validator.Validate
}

// NewValidator constructs a Validator keyed by json field names.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates the target, returning a *ValidationError on failure.
func (v *Validator) Struct(target any) error {
	err := v.validate.Struct(target)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fieldName(fe), fieldMessage(fe))
	}
	return verr
}

func fieldName(fe validator.FieldError) string {
	// Namespace is Struct.field or Struct.field[0]; drop the struct prefix.
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "This field must be a valid email address."
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("This field must contain at least %s items.", fe.Param())
		}
		return fmt.Sprintf("This field must be at least %s characters.", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("This field may not contain more than %s items.", fe.Param())
		}
		return fmt.Sprintf("This field may not be greater than %s characters.", fe.Param())
	case "slug":
		return "This field may only contain letters, numbers, dashes, and underscores."
	case "gt":
		return fmt.Sprintf("This field must be greater than %s.", fe.Param())
	default:
		return "This field is invalid."
	}
}

// RegisterSlugValidation installs the `slug` tag: URL-safe tokens made of
// letters, numbers, dashes, and underscores.
func (v *Validator) RegisterSlugValidation() error {
	return v.validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return false
		}
		for _, r := range value {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			default:
				return false
			}
		}
		return true
	})
}

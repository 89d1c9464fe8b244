package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError indicates that a request payload or upload is invalid.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateStruct(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate payload: %w", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describeFieldError(fe)
	}
	return ValidationError{Message: "invalid payload", Fields: fields}
}

func describeFieldError(fe validator.FieldError) string {
	switch {
	case fe.Tag() == "required":
		return "is required"
	case strings.HasPrefix(fe.Tag(), "email"):
		return "must be a valid email address"
	case fe.Tag() == "max" && fe.Kind() == reflect.String:
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case fe.Tag() == "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case fe.Tag() == "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return "is invalid"
	}
}

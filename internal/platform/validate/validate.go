// Package validate wraps go-playground/validator with field names taken from
// json tags and a single error type the HTTP layer can map.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrValidation = errors.New("validation failed")

// Error describes the first field that failed validation.
type Error struct {
	Field string
	Tag   string
	Param string
}

func (e *Error) Error() string {
	switch e.Tag {
	case "required":
		return e.Field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", e.Field, strings.ReplaceAll(e.Param, " ", ", "))
	case "email":
		return e.Field + " must be a valid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field, e.Param)
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes", e.Field, e.Param)
	case "":
		return e.Field + " is invalid"
	default:
		return fmt.Sprintf("%s failed %s validation", e.Field, e.Tag)
	}
}

func (e *Error) Is(target error) bool {
	return target == ErrValidation
}

// Required builds the error reported for a missing field.
func Required(field string) *Error {
	return &Error{Field: field, Tag: "required"}
}

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	if err := val.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}
	return val
}

// maxBytes limits the encoded length of a string, unlike max which counts
// runes.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// Struct validates s and returns the first failing field as *Error.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &Error{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()}
	}
	return fmt.Errorf("validate: %w", err)
}

package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/symph-co/shorturl/internal/app/apperror"
)

var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{4,16}$`)

// newValidator builds a validator that knows the slug and future rules and
// reports fields by their JSON names.
func newValidator(now func() time.Time) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("future", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		return ok && t.After(now())
	})

	return v
}

// validationError turns the first failed rule into a User error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Invalid("Request body is invalid.").Wrap(err)
	}

	fe := verrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required.", fe.Field())
	case "http_url":
		msg = fmt.Sprintf("%s must be a valid http(s) URL.", fe.Field())
	case "slug":
		msg = fmt.Sprintf("%s must be 4 to 16 letters, digits, '-' or '_'.", fe.Field())
	case "future":
		msg = fmt.Sprintf("%s must be in the future.", fe.Field())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param())
	default:
		msg = fmt.Sprintf("%s is invalid.", fe.Field())
	}
	return apperror.Invalid(msg).Wrap(err)
}

package validator

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	apperrors "github.com/eventsync-services/common/errors"
)

// Email pattern - RFC 5322 simplified
var EmailPattern = regexp.MustCompile(`^[a-zA-Z0-9_+&*.'-]+@(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}$`)

var global = New()

// New returns a validator that reports fields by their JSON names and knows
// the custom tags used by request models:
//
//	notblank  - required, and not only whitespace
//	emailaddr - matches EmailPattern
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	return v
}

// Validate checks a request struct. Missing required fields are reported
// together; otherwise the first failing rule is reported.
func Validate(ctx context.Context, structure any) error {
	err := global.StructCtx(ctx, structure)
	if err == nil {
		return nil
	}

	var vErrors validator.ValidationErrors
	if !stderrors.As(err, &vErrors) || len(vErrors) == 0 {
		return apperrors.ValidationError(err.Error())
	}

	var missing []string
	for _, ve := range vErrors {
		if ve.Tag() == "required" || ve.Tag() == "notblank" {
			missing = append(missing, ve.Field())
		}
	}
	if len(missing) > 0 {
		return apperrors.MissingFields(missing)
	}
	return fieldError(vErrors[0])
}

func fieldError(ve validator.FieldError) *apperrors.AppError {
	field := ve.Field()
	switch ve.Tag() {
	case "emailaddr", "email":
		return apperrors.InvalidEmail().WithField("field", field)
	case "min":
		if ve.Kind() == reflect.String && strings.Contains(strings.ToLower(field), "password") {
			return apperrors.InvalidPassword(ve.Param()).WithField("field", field)
		}
		if ve.Kind() == reflect.String {
			return apperrors.InvalidInput(field, fmt.Sprintf("%s must be at least %s characters", field, ve.Param()))
		}
		return apperrors.InvalidInput(field, fmt.Sprintf("%s must be at least %s", field, ve.Param()))
	case "max":
		if ve.Kind() == reflect.String {
			return apperrors.InvalidInput(field, fmt.Sprintf("%s must be at most %s characters", field, ve.Param()))
		}
		return apperrors.InvalidInput(field, fmt.Sprintf("%s must be at most %s", field, ve.Param()))
	case "gte", "gt":
		return apperrors.InvalidInput(field, fmt.Sprintf("%s must be at least %s", field, ve.Param()))
	default:
		return apperrors.InvalidInput(field, fmt.Sprintf("%s is invalid", field))
	}
}

// IsValidEmail validates email format
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	return EmailPattern.MatchString(email)
}

// NormalizeEmail trims and lower-cases an email for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

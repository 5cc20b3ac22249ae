package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/eventsync-services/common/errors"
)

type signup struct {
	Name     string `json:"name" validate:"notblank,min=2"`
	Email    string `json:"email" validate:"notblank,emailaddr"`
	Password string `json:"password" validate:"required,min=6"`
	Capacity *int   `json:"capacity,omitempty" validate:"omitempty,gte=0"`
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected bool
	}{
		{"Valid email", "user@college.edu", true},
		{"Valid with dots", "first.last@mail.college.edu", true},
		{"Valid with plus", "user+tag@gmail.com", true},
		{"Invalid no @", "usercollege.edu", false},
		{"Invalid no domain", "user@", false},
		{"Invalid no TLD", "user@college", false},
		{"Empty", "", false},
		{"Whitespace", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidEmail(tt.email))
		})
	}
}

func TestValidateReportsAllMissingFields(t *testing.T) {
	err := Validate(context.Background(), &signup{Name: "  ", Password: ""})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
	assert.Equal(t, []string{"name", "email", "password"}, appErr.Fields["missing"])
}

func TestValidateRules(t *testing.T) {
	negative := -1
	tests := []struct {
		name  string
		input signup
		code  apperrors.ErrorCode
		field string
	}{
		{"short name", signup{Name: "A", Email: "a@college.edu", Password: "secret1"}, apperrors.ErrCodeInvalidInput, "name"},
		{"bad email", signup{Name: "Asha", Email: "nope", Password: "secret1"}, apperrors.ErrCodeInvalidEmail, "email"},
		{"short password", signup{Name: "Asha", Email: "a@college.edu", Password: "123"}, apperrors.ErrCodeInvalidPassword, "password"},
		{"negative capacity", signup{Name: "Asha", Email: "a@college.edu", Password: "secret1", Capacity: &negative}, apperrors.ErrCodeInvalidInput, "capacity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(context.Background(), &tt.input)
			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.field, appErr.Fields["field"])
			assert.Equal(t, 400, appErr.HTTPStatus)
		})
	}
}

func TestValidatePasses(t *testing.T) {
	assert.NoError(t, Validate(context.Background(), &signup{Name: "Asha", Email: "a@college.edu", Password: "secret1"}))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "asha@college.edu", NormalizeEmail("  Asha@College.EDU "))
}

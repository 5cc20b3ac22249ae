package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewManager("secret", 0)

	token, err := m.GenerateToken(42, "a@college.edu", RoleAdmin)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "a@college.edu", claims.Email)
	assert.True(t, claims.IsAdmin())
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateRejects(t *testing.T) {
	m := NewManager("secret", time.Hour)
	token, err := m.GenerateToken(1, "a@college.edu", RoleAttendee)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewManager("other", time.Hour).ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateToken("not.a.token")
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewManager("secret", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpired)
	})
}

func TestGenerateRejectsUnknownRole(t *testing.T) {
	_, err := NewManager("secret", time.Hour).GenerateToken(1, "a@college.edu", "STAFF")
	assert.Error(t, err)
}

package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	Cost = bcrypt.MinCost
}

func TestHashPassword(t *testing.T) {
	hashed, err := HashPassword("Pass123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hashed, "$2a$"))

	again, err := HashPassword("Pass123")
	require.NoError(t, err)
	assert.NotEqual(t, hashed, again, "bcrypt salts every hash")

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestVerifyPassword(t *testing.T) {
	plainPassword := "Pass123"
	hash, err := HashPassword(plainPassword)
	require.NoError(t, err)

	tests := []struct {
		name     string
		plain    string
		hash     string
		expected bool
	}{
		{"Correct password", plainPassword, hash, true},
		{"Wrong password", "WrongPass", hash, false},
		{"Empty plain", "", hash, false},
		{"Empty hash", plainPassword, "", false},
		{"Garbage hash", plainPassword, "not-a-hash", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, VerifyPassword(tt.plain, tt.hash))
		})
	}
}

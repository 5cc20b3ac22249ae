package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventsync-services/common/db/dbtest"
	apperrors "github.com/eventsync-services/common/errors"
	"github.com/eventsync-services/common/hash"
	"github.com/eventsync-services/common/jwt"
	"github.com/eventsync-services/common/router"
	"github.com/eventsync-services/services/auth-lambda/models"
)

const testPasskey = "campus-key"

func init() {
	hash.Cost = bcrypt.MinCost
}

func newUseCase(t *testing.T) *AuthUseCase {
	t.Helper()
	conn := dbtest.Open(t)
	return NewAuthUseCase(conn, jwt.NewManager("test-secret", time.Hour), Config{AdminPasskey: testPasskey})
}

func registerAdmin(t *testing.T, uc *AuthUseCase, email string) *models.AuthResponse {
	t.Helper()
	resp, err := uc.RegisterAdmin(context.Background(), models.AdminRegisterRequest{
		Name: "Dean Admin", Email: email, Password: "secret123", AdminKey: testPasskey,
	})
	require.NoError(t, err)
	return resp
}

func adminLogin(uc *AuthUseCase, email, key string) (*models.AuthResponse, error) {
	return uc.LoginAdmin(context.Background(), models.AdminLoginRequest{
		Email: email, Password: "secret123", AdminKey: key,
	})
}

func TestRegisterAndLoginAttendee(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()

	reg, err := uc.RegisterAttendee(ctx, models.RegisterRequest{Name: "Asha  Rao", Email: "Asha@College.edu", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "Asha Rao", reg.User.Name)
	assert.Equal(t, "asha@college.edu", reg.User.Email)
	assert.False(t, reg.User.IsAdmin)
	assert.Equal(t, jwt.RoleAttendee, reg.User.Role)

	login, err := uc.LoginAttendee(ctx, models.LoginRequest{Email: "asha@college.edu", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	_, err = uc.LoginAttendee(ctx, models.LoginRequest{Email: "asha@college.edu", Password: "wrong-password"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidCredentials))

	_, err = uc.LoginAttendee(ctx, models.LoginRequest{Email: "nobody@college.edu", Password: "secret123"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidCredentials))
}

func TestRegisterAttendeeValidation(t *testing.T) {
	uc := newUseCase(t)

	tests := []struct {
		name string
		req  models.RegisterRequest
		code apperrors.ErrorCode
	}{
		{"missing fields", models.RegisterRequest{}, apperrors.ErrCodeValidation},
		{"short name", models.RegisterRequest{Name: "A", Email: "a@college.edu", Password: "secret123"}, apperrors.ErrCodeInvalidInput},
		{"bad email", models.RegisterRequest{Name: "Asha", Email: "not-an-email", Password: "secret123"}, apperrors.ErrCodeInvalidEmail},
		{"short password", models.RegisterRequest{Name: "Asha", Email: "a@college.edu", Password: "123"}, apperrors.ErrCodeInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.RegisterAttendee(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestRegisterAttendeeDuplicateEmail(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()
	req := models.RegisterRequest{Name: "Asha", Email: "asha@college.edu", Password: "secret123"}

	_, err := uc.RegisterAttendee(ctx, req)
	require.NoError(t, err)

	_, err = uc.RegisterAttendee(ctx, req)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAlreadyExists))
}

func TestAdminPasskeyNotConfigured(t *testing.T) {
	uc := NewAuthUseCase(dbtest.Open(t), jwt.NewManager("test-secret", time.Hour), Config{})

	assert.False(t, uc.AdminKeyStatus().Configured)

	_, err := uc.RegisterAdmin(context.Background(), models.AdminRegisterRequest{
		Name: "Dean", Email: "dean@college.edu", Password: "secret123", AdminKey: "anything",
	})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePasskeyNotConfigured))

	_, err = adminLogin(uc, "dean@college.edu", "anything")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePasskeyNotConfigured))
}

func TestRegisterAdminWrongPasskey(t *testing.T) {
	uc := newUseCase(t)
	assert.True(t, uc.AdminKeyStatus().Configured)

	_, err := uc.RegisterAdmin(context.Background(), models.AdminRegisterRequest{
		Name: "Dean", Email: "dean@college.edu", Password: "secret123", AdminKey: "guess",
	})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAccessDenied))
}

func TestAdminLockoutAfterThreeWrongPasskeys(t *testing.T) {
	uc := newUseCase(t)
	registerAdmin(t, uc, "dean@college.edu")

	_, err := adminLogin(uc, "dean@college.edu", "wrong")
	require.True(t, apperrors.HasCode(err, apperrors.ErrCodeAccessDenied))
	_, err = adminLogin(uc, "dean@college.edu", "wrong")
	require.True(t, apperrors.HasCode(err, apperrors.ErrCodeAccessDenied))

	_, err = adminLogin(uc, "dean@college.edu", "wrong")
	require.True(t, apperrors.HasCode(err, apperrors.ErrCodeUserBlocked), "third wrong passkey blocks")

	_, err = adminLogin(uc, "dean@college.edu", testPasskey)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUserBlocked), "correct passkey is rejected once blocked")

	admins, err := uc.ListAdmins(context.Background())
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, models.StatusBlocked, admins[0].Status)
	assert.Equal(t, 3, admins[0].AdminKeyAttempts)
}

func TestConcurrentWrongPasskeysAreAllCounted(t *testing.T) {
	const attempts = 8
	conn := dbtest.Open(t)
	uc := NewAuthUseCase(conn, jwt.NewManager("test-secret", time.Hour), Config{AdminPasskey: testPasskey, MaxKeyAttempts: attempts})
	registerAdmin(t, uc, "dean@college.edu")

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = adminLogin(uc, "dean@college.edu", "wrong")
		}(i)
	}
	wg.Wait()

	blocked := 0
	for _, err := range errs {
		switch {
		case apperrors.HasCode(err, apperrors.ErrCodeUserBlocked):
			blocked++
		default:
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAccessDenied), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, blocked, "only the attempt that reached the limit blocks")

	admins, err := uc.ListAdmins(context.Background())
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, attempts, admins[0].AdminKeyAttempts)
	assert.Equal(t, models.StatusBlocked, admins[0].Status)

	// further wrong keys are refused before touching the counter
	_, err = adminLogin(uc, "dean@college.edu", "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUserBlocked))
	admins, err = uc.ListAdmins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, attempts, admins[0].AdminKeyAttempts)
}

func TestAdminCorrectPasskeyResetsAttempts(t *testing.T) {
	uc := newUseCase(t)
	registerAdmin(t, uc, "dean@college.edu")

	for round := 0; round < 3; round++ {
		_, err := adminLogin(uc, "dean@college.edu", "wrong")
		require.True(t, apperrors.HasCode(err, apperrors.ErrCodeAccessDenied))
		_, err = adminLogin(uc, "dean@college.edu", "wrong")
		require.True(t, apperrors.HasCode(err, apperrors.ErrCodeAccessDenied))

		resp, err := adminLogin(uc, "dean@college.edu", testPasskey)
		require.NoError(t, err, "round %d", round)
		assert.True(t, resp.User.IsAdmin)
	}

	admins, err := uc.ListAdmins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, admins[0].AdminKeyAttempts)
	assert.Equal(t, models.StatusActive, admins[0].Status)
}

func TestAdminWrongPasswordDoesNotCountAttempt(t *testing.T) {
	uc := newUseCase(t)
	registerAdmin(t, uc, "dean@college.edu")

	for i := 0; i < 5; i++ {
		_, err := uc.LoginAdmin(context.Background(), models.AdminLoginRequest{
			Email: "dean@college.edu", Password: "not-it", AdminKey: "wrong",
		})
		require.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidCredentials))
	}

	_, err := adminLogin(uc, "dean@college.edu", testPasskey)
	assert.NoError(t, err)
}

func TestUnlockAdmin(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()
	reg := registerAdmin(t, uc, "dean@college.edu")

	for i := 0; i < 3; i++ {
		_, _ = adminLogin(uc, "dean@college.edu", "wrong")
	}

	_, err := uc.ResolveIdentity(ctx, reg.Token)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUserBlocked), "blocked administrators' tokens are rejected")

	admin, err := uc.UnlockAdmin(ctx, "DEAN@college.edu")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, admin.Status())

	_, err = adminLogin(uc, "dean@college.edu", testPasskey)
	assert.NoError(t, err)

	_, err = uc.UnlockAdmin(ctx, "missing@college.edu")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func TestResolveIdentityUsesRoleTable(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()

	// Both accounts get id 1 in their own table
	attendee, err := uc.RegisterAttendee(ctx, models.RegisterRequest{Name: "Asha", Email: "asha@college.edu", Password: "secret123"})
	require.NoError(t, err)
	admin := registerAdmin(t, uc, "dean@college.edu")
	require.Equal(t, attendee.User.ID, admin.User.ID)

	identity, err := uc.ResolveIdentity(ctx, attendee.Token)
	require.NoError(t, err)
	assert.Equal(t, router.Identity{UserID: attendee.User.ID, Role: jwt.RoleAttendee, Email: "asha@college.edu"}, identity)

	identity, err = uc.ResolveIdentity(ctx, admin.Token)
	require.NoError(t, err)
	assert.Equal(t, jwt.RoleAdmin, identity.Role)
	assert.Equal(t, "dean@college.edu", identity.Email)

	_, err = uc.ResolveIdentity(ctx, "garbage")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidToken))
}

func TestProfileManagement(t *testing.T) {
	uc := newUseCase(t)
	ctx := context.Background()

	asha, err := uc.RegisterAttendee(ctx, models.RegisterRequest{Name: "Asha", Email: "asha@college.edu", Password: "secret123"})
	require.NoError(t, err)
	_, err = uc.RegisterAttendee(ctx, models.RegisterRequest{Name: "Ravi", Email: "ravi@college.edu", Password: "secret123"})
	require.NoError(t, err)

	_, err = uc.UpdateProfile(ctx, asha.User.ID, models.UpdateProfileRequest{Name: "Asha R", Email: "ravi@college.edu"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAlreadyExists))

	updated, err := uc.UpdateProfile(ctx, asha.User.ID, models.UpdateProfileRequest{Name: "Asha R", Email: "asha.r@college.edu"})
	require.NoError(t, err)
	assert.Equal(t, "asha.r@college.edu", updated.Email)

	me, err := uc.Me(ctx, router.Identity{UserID: asha.User.ID, Role: jwt.RoleAttendee})
	require.NoError(t, err)
	assert.Equal(t, "Asha R", me.Name)

	err = uc.ChangePassword(ctx, asha.User.ID, models.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "newsecret"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	require.NoError(t, uc.ChangePassword(ctx, asha.User.ID, models.ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "newsecret"}))
	_, err = uc.LoginAttendee(ctx, models.LoginRequest{Email: "asha.r@college.edu", Password: "newsecret"})
	require.NoError(t, err)

	require.NoError(t, uc.DeleteAccount(ctx, asha.User.ID))
	_, err = uc.ResolveIdentity(ctx, asha.Token)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidToken))
	assert.True(t, apperrors.HasCode(uc.DeleteAccount(ctx, asha.User.ID), apperrors.ErrCodeNotFound))
}

package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/eventsync-services/common/errors"
	"github.com/eventsync-services/common/hash"
	"github.com/eventsync-services/common/jwt"
	"github.com/eventsync-services/common/logger"
	"github.com/eventsync-services/common/metrics"
	"github.com/eventsync-services/common/router"
	"github.com/eventsync-services/common/validator"
	"github.com/eventsync-services/services/auth-lambda/models"
	"github.com/eventsync-services/services/auth-lambda/repository"
)

// DefaultMaxKeyAttempts is the number of wrong passkeys that blocks an administrator
const DefaultMaxKeyAttempts = 3

// Config holds the administrator passkey settings
type Config struct {
	AdminPasskey   string
	MaxKeyAttempts int
}

// AuthUseCase handles authentication business logic
type AuthUseCase struct {
	attendees      *repository.AttendeeRepository
	admins         *repository.AdminRepository
	tokens         *jwt.Manager
	adminPasskey   string
	maxKeyAttempts int
}

// NewAuthUseCase creates a new auth use case
func NewAuthUseCase(conn *sqlx.DB, tokens *jwt.Manager, cfg Config) *AuthUseCase {
	if cfg.MaxKeyAttempts <= 0 {
		cfg.MaxKeyAttempts = DefaultMaxKeyAttempts
	}
	return &AuthUseCase{
		attendees:      repository.NewAttendeeRepository(conn),
		admins:         repository.NewAdminRepository(conn),
		tokens:         tokens,
		adminPasskey:   cfg.AdminPasskey,
		maxKeyAttempts: cfg.MaxKeyAttempts,
	}
}

// RegisterAttendee creates an attendee account and signs it in
func (uc *AuthUseCase) RegisterAttendee(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if err := validator.Validate(ctx, req); err != nil {
		return nil, err
	}
	email := validator.NormalizeEmail(req.Email)

	existing, err := uc.attendees.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if existing != nil {
		return nil, apperrors.AlreadyExists("Email")
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to secure password")
	}

	attendee := &models.Attendee{Name: trim(req.Name), Email: email, PasswordHash: passwordHash}
	if err := uc.attendees.Create(ctx, attendee); err != nil {
		return nil, asAppError(err)
	}

	logger.WithContext(ctx).LogEvent(logger.EventLog{
		Event: "attendee_registered", UserID: attendee.ID, Entity: "attendee", EntityID: attendee.ID,
		Action: "create", Success: true,
	})
	return uc.issue(attendee.ID, attendee.Name, attendee.Email, jwt.RoleAttendee)
}

// LoginAttendee signs an attendee in
func (uc *AuthUseCase) LoginAttendee(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if err := validator.Validate(ctx, req); err != nil {
		return nil, err
	}

	attendee, err := uc.attendees.FindByEmail(ctx, validator.NormalizeEmail(req.Email))
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if attendee == nil || !hash.VerifyPassword(req.Password, attendee.PasswordHash) {
		return nil, apperrors.InvalidCredentials()
	}

	return uc.issue(attendee.ID, attendee.Name, attendee.Email, jwt.RoleAttendee)
}

// AdminKeyStatus reports whether administrator registration and login are enabled
func (uc *AuthUseCase) AdminKeyStatus() models.KeyStatusResponse {
	return models.KeyStatusResponse{Configured: uc.adminPasskey != ""}
}

// RegisterAdmin creates an administrator when the shared passkey matches
func (uc *AuthUseCase) RegisterAdmin(ctx context.Context, req models.AdminRegisterRequest) (*models.AuthResponse, error) {
	if uc.adminPasskey == "" {
		return nil, apperrors.PasskeyNotConfigured()
	}
	if err := validator.Validate(ctx, req); err != nil {
		return nil, err
	}
	if !uc.passkeyMatches(req.AdminKey) {
		return nil, apperrors.AccessDenied("Invalid admin key")
	}

	admin, err := uc.CreateAdmin(ctx, models.RegisterRequest{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		return nil, err
	}
	return uc.issue(admin.ID, admin.Name, admin.Email, jwt.RoleAdmin)
}

// CreateAdmin creates an administrator without a passkey. It backs the
// operator CLI and RegisterAdmin.
func (uc *AuthUseCase) CreateAdmin(ctx context.Context, req models.RegisterRequest) (*models.Administrator, error) {
	if err := validator.Validate(ctx, req); err != nil {
		return nil, err
	}
	email := validator.NormalizeEmail(req.Email)

	existing, err := uc.admins.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if existing != nil {
		return nil, apperrors.AlreadyExists("Admin email")
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to secure password")
	}

	admin := &models.Administrator{Name: trim(req.Name), Email: email, PasswordHash: passwordHash}
	if err := uc.admins.Create(ctx, admin); err != nil {
		return nil, asAppError(err)
	}

	logger.WithContext(ctx).LogEvent(logger.EventLog{
		Event: "admin_created", UserID: admin.ID, Entity: "administrator", EntityID: admin.ID,
		Action: "create", Success: true,
	})
	return admin, nil
}

// LoginAdmin signs an administrator in. Credentials are checked first, then
// the account state, then the passkey. Each wrong passkey is counted in
// storage; reaching the limit blocks the account until UnlockAdmin.
func (uc *AuthUseCase) LoginAdmin(ctx context.Context, req models.AdminLoginRequest) (*models.AuthResponse, error) {
	if uc.adminPasskey == "" {
		return nil, apperrors.PasskeyNotConfigured()
	}
	if err := validator.Validate(ctx, req); err != nil {
		return nil, err
	}

	admin, err := uc.admins.FindByEmail(ctx, validator.NormalizeEmail(req.Email))
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if admin == nil || !hash.VerifyPassword(req.Password, admin.PasswordHash) {
		return nil, apperrors.InvalidCredentials()
	}
	if admin.IsBlocked {
		return nil, apperrors.UserBlocked()
	}

	log := logger.WithContext(ctx).With("admin_id", admin.ID)

	if !uc.passkeyMatches(req.AdminKey) {
		updated, err := uc.admins.RecordFailedPasskey(ctx, admin.ID, uc.maxKeyAttempts)
		if err != nil {
			return nil, asAppError(err)
		}
		if updated.IsBlocked {
			metrics.AdminLockouts.Inc()
			log.LogEvent(logger.EventLog{
				Event: "admin_blocked", UserID: admin.ID, Entity: "administrator", EntityID: admin.ID,
				Action: "block", Success: true,
				Metadata: map[string]interface{}{"attempts": updated.AdminKeyAttempts},
			})
			return nil, apperrors.UserBlocked()
		}
		remaining := uc.maxKeyAttempts - updated.AdminKeyAttempts
		log.Warn("[AUTH] wrong admin key, %d attempt(s) remaining", remaining)
		return nil, apperrors.AccessDenied(fmt.Sprintf("Invalid admin key. %d attempt(s) remaining", remaining)).
			WithField("remainingAttempts", remaining)
	}

	if admin.AdminKeyAttempts > 0 {
		if err := uc.admins.ResetPasskeyAttempts(ctx, admin.ID); err != nil {
			return nil, apperrors.DatabaseError(err)
		}
	}

	return uc.issue(admin.ID, admin.Name, admin.Email, jwt.RoleAdmin)
}

// UnlockAdmin moves a BLOCKED administrator back to ACTIVE
func (uc *AuthUseCase) UnlockAdmin(ctx context.Context, email string) (*models.Administrator, error) {
	admin, err := uc.admins.FindByEmail(ctx, validator.NormalizeEmail(email))
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if admin == nil {
		return nil, apperrors.NotFound("Administrator")
	}
	if err := uc.admins.Unlock(ctx, admin.ID); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	logger.WithContext(ctx).LogEvent(logger.EventLog{
		Event: "admin_unlocked", UserID: admin.ID, Entity: "administrator", EntityID: admin.ID,
		Action: "unlock", Success: true,
		Metadata: map[string]interface{}{"previous_status": admin.Status()},
	})
	admin.IsBlocked = false
	admin.AdminKeyAttempts = 0
	return admin, nil
}

// ListAdmins returns every administrator with its state
func (uc *AuthUseCase) ListAdmins(ctx context.Context) ([]models.AdminSummary, error) {
	admins, err := uc.admins.List(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	out := make([]models.AdminSummary, 0, len(admins))
	for i := range admins {
		a := &admins[i]
		out = append(out, models.AdminSummary{
			ID: a.ID, Name: a.Name, Email: a.Email, Status: a.Status(),
			AdminKeyAttempts: a.AdminKeyAttempts, CreatedAt: a.CreatedAt,
		})
	}
	return out, nil
}

// Me returns the profile of the signed-in caller
func (uc *AuthUseCase) Me(ctx context.Context, identity router.Identity) (*models.UserProfile, error) {
	if identity.IsAdmin() {
		admin, err := uc.admins.FindByID(ctx, identity.UserID)
		if err != nil {
			return nil, apperrors.DatabaseError(err)
		}
		if admin == nil {
			return nil, apperrors.NotFound("Administrator")
		}
		return profile(admin.ID, admin.Name, admin.Email, jwt.RoleAdmin), nil
	}

	attendee, err := uc.attendees.FindByID(ctx, identity.UserID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if attendee == nil {
		return nil, apperrors.NotFound("User")
	}
	return profile(attendee.ID, attendee.Name, attendee.Email, jwt.RoleAttendee), nil
}

// UpdateProfile changes an attendee's name and email
func (uc *AuthUseCase) UpdateProfile(ctx context.Context, attendeeID int64, req models.UpdateProfileRequest) (*models.UserProfile, error) {
	if err := validator.Validate(ctx, req); err != nil {
		return nil, err
	}

	attendee, err := uc.attendees.FindByID(ctx, attendeeID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if attendee == nil {
		return nil, apperrors.NotFound("User")
	}

	email := validator.NormalizeEmail(req.Email)
	if email != attendee.Email {
		other, err := uc.attendees.FindByEmail(ctx, email)
		if err != nil {
			return nil, apperrors.DatabaseError(err)
		}
		if other != nil {
			return nil, apperrors.AlreadyExists("Email")
		}
	}

	name := trim(req.Name)
	if err := uc.attendees.UpdateProfile(ctx, attendeeID, name, email); err != nil {
		return nil, asAppError(err)
	}
	return profile(attendeeID, name, email, jwt.RoleAttendee), nil
}

// ChangePassword replaces the password after checking the current one
func (uc *AuthUseCase) ChangePassword(ctx context.Context, attendeeID int64, req models.ChangePasswordRequest) error {
	if err := validator.Validate(ctx, req); err != nil {
		return err
	}

	attendee, err := uc.attendees.FindByID(ctx, attendeeID)
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	if attendee == nil {
		return apperrors.NotFound("User")
	}
	if !hash.VerifyPassword(req.CurrentPassword, attendee.PasswordHash) {
		return apperrors.InvalidInput("currentPassword", "Current password is incorrect")
	}

	passwordHash, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to secure password")
	}
	if err := uc.attendees.UpdatePassword(ctx, attendeeID, passwordHash); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

// DeleteAccount removes the attendee and their registrations
func (uc *AuthUseCase) DeleteAccount(ctx context.Context, attendeeID int64) error {
	if err := uc.attendees.Delete(ctx, attendeeID); err != nil {
		return asAppError(err)
	}
	logger.WithContext(ctx).LogEvent(logger.EventLog{
		Event: "attendee_deleted", UserID: attendeeID, Entity: "attendee", EntityID: attendeeID,
		Action: "delete", Success: true,
	})
	return nil
}

// ResolveIdentity validates a bearer token and loads the account from the
// table its role names. It is the router's IdentityResolver.
func (uc *AuthUseCase) ResolveIdentity(ctx context.Context, token string) (router.Identity, error) {
	claims, err := uc.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return router.Identity{}, apperrors.TokenExpired()
		}
		return router.Identity{}, apperrors.InvalidToken()
	}

	switch claims.Role {
	case jwt.RoleAdmin:
		admin, err := uc.admins.FindByID(ctx, claims.UserID)
		if err != nil {
			return router.Identity{}, apperrors.DatabaseError(err)
		}
		if admin == nil {
			return router.Identity{}, apperrors.InvalidToken()
		}
		if admin.IsBlocked {
			return router.Identity{}, apperrors.UserBlocked()
		}
		return router.Identity{UserID: admin.ID, Role: jwt.RoleAdmin, Email: admin.Email}, nil
	default:
		attendee, err := uc.attendees.FindByID(ctx, claims.UserID)
		if err != nil {
			return router.Identity{}, apperrors.DatabaseError(err)
		}
		if attendee == nil {
			return router.Identity{}, apperrors.InvalidToken()
		}
		return router.Identity{UserID: attendee.ID, Role: jwt.RoleAttendee, Email: attendee.Email}, nil
	}
}

func (uc *AuthUseCase) issue(id int64, name, email, role string) (*models.AuthResponse, error) {
	token, err := uc.tokens.GenerateToken(id, email, role)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to generate token")
	}
	return &models.AuthResponse{Token: token, User: *profile(id, name, email, role)}, nil
}

func (uc *AuthUseCase) passkeyMatches(key string) bool {
	return subtle.ConstantTimeCompare([]byte(key), []byte(uc.adminPasskey)) == 1
}

// trim collapses runs of whitespace in display names
func trim(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func profile(id int64, name, email, role string) *models.UserProfile {
	return &models.UserProfile{ID: id, Name: name, Email: email, Role: role, IsAdmin: role == jwt.RoleAdmin}
}

// asAppError keeps AppErrors from the repository and wraps everything else
func asAppError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.DatabaseError(err)
}

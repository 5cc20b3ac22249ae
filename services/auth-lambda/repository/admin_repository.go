package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eventsync-services/common/db"
	apperrors "github.com/eventsync-services/common/errors"
	"github.com/eventsync-services/services/auth-lambda/models"
)

const adminColumns = `admin_id, name, email, password_hash, admin_key_attempts, is_blocked, created_at, updated_at`

// AdminRepository handles administrator data access, including the passkey
// lockout counter.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new administrator repository
func NewAdminRepository(conn *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: conn}
}

// FindByEmail returns nil when no administrator has the email
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.Administrator, error) {
	var admin models.Administrator
	err := r.db.GetContext(ctx, &admin,
		`SELECT `+adminColumns+` FROM administrators WHERE email = ?`, email)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query administrator: %w", err)
	}
	return &admin, nil
}

// FindByID returns nil when the administrator does not exist
func (r *AdminRepository) FindByID(ctx context.Context, id int64) (*models.Administrator, error) {
	var admin models.Administrator
	err := r.db.GetContext(ctx, &admin,
		`SELECT `+adminColumns+` FROM administrators WHERE admin_id = ?`, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query administrator: %w", err)
	}
	return &admin, nil
}

// Create inserts an ACTIVE administrator with no failed attempts
func (r *AdminRepository) Create(ctx context.Context, admin *models.Administrator) error {
	now := db.Now()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO administrators (name, email, password_hash, admin_key_attempts, is_blocked, created_at, updated_at)
		 VALUES (?, ?, ?, 0, 0, ?, ?)`,
		admin.Name, admin.Email, admin.PasswordHash, now, now,
	)
	if err != nil {
		if db.IsDuplicateKey(err) {
			return apperrors.AlreadyExists("Admin email")
		}
		return fmt.Errorf("failed to insert administrator: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get administrator id: %w", err)
	}
	admin.ID = id
	admin.AdminKeyAttempts = 0
	admin.IsBlocked = false
	admin.CreatedAt = now
	admin.UpdatedAt = now
	return nil
}

// RecordFailedPasskey counts one wrong passkey and blocks the account once
// maxAttempts is reached. The counter is incremented in storage so concurrent
// attempts are all counted. The updated row is returned.
func (r *AdminRepository) RecordFailedPasskey(ctx context.Context, id int64, maxAttempts int) (*models.Administrator, error) {
	var admin models.Administrator
	err := db.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		now := db.Now()
		if _, err := tx.ExecContext(ctx,
			`UPDATE administrators SET admin_key_attempts = admin_key_attempts + 1, updated_at = ? WHERE admin_id = ?`,
			now, id,
		); err != nil {
			return fmt.Errorf("failed to increment passkey attempts: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE administrators SET is_blocked = 1 WHERE admin_id = ? AND admin_key_attempts >= ?`,
			id, maxAttempts,
		); err != nil {
			return fmt.Errorf("failed to block administrator: %w", err)
		}
		if err := tx.GetContext(ctx, &admin,
			`SELECT `+adminColumns+` FROM administrators WHERE admin_id = ?`, id); err != nil {
			if db.IsNoRows(err) {
				return apperrors.NotFound("Administrator")
			}
			return fmt.Errorf("failed to reload administrator: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// ResetPasskeyAttempts clears the counter after a correct passkey
func (r *AdminRepository) ResetPasskeyAttempts(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE administrators SET admin_key_attempts = 0, updated_at = ? WHERE admin_id = ? AND admin_key_attempts <> 0`,
		db.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to reset passkey attempts: %w", err)
	}
	return nil
}

// Unlock returns a BLOCKED administrator to ACTIVE and clears the counter
func (r *AdminRepository) Unlock(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE administrators SET is_blocked = 0, admin_key_attempts = 0, updated_at = ? WHERE admin_id = ?`,
		db.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to unlock administrator: %w", err)
	}
	return nil
}

// List returns every administrator ordered by id
func (r *AdminRepository) List(ctx context.Context) ([]models.Administrator, error) {
	admins := []models.Administrator{}
	if err := r.db.SelectContext(ctx, &admins,
		`SELECT `+adminColumns+` FROM administrators ORDER BY admin_id`); err != nil {
		return nil, fmt.Errorf("failed to list administrators: %w", err)
	}
	return admins, nil
}

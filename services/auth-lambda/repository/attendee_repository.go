package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eventsync-services/common/db"
	apperrors "github.com/eventsync-services/common/errors"
	"github.com/eventsync-services/services/auth-lambda/models"
)

const attendeeColumns = `attendee_id, name, email, password_hash, created_at, updated_at`

// AttendeeRepository handles attendee account data access
type AttendeeRepository struct {
	db *sqlx.DB
}

// NewAttendeeRepository creates a new attendee repository
func NewAttendeeRepository(conn *sqlx.DB) *AttendeeRepository {
	return &AttendeeRepository{db: conn}
}

// FindByEmail returns nil when no attendee has the email
func (r *AttendeeRepository) FindByEmail(ctx context.Context, email string) (*models.Attendee, error) {
	var attendee models.Attendee
	err := r.db.GetContext(ctx, &attendee,
		`SELECT `+attendeeColumns+` FROM attendees WHERE email = ?`, email)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query attendee: %w", err)
	}
	return &attendee, nil
}

// FindByID returns nil when the attendee does not exist
func (r *AttendeeRepository) FindByID(ctx context.Context, id int64) (*models.Attendee, error) {
	var attendee models.Attendee
	err := r.db.GetContext(ctx, &attendee,
		`SELECT `+attendeeColumns+` FROM attendees WHERE attendee_id = ?`, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query attendee: %w", err)
	}
	return &attendee, nil
}

// Create inserts the attendee and fills in its id and timestamps.
// A taken email is reported as AlreadyExists even when two sign-ups race.
func (r *AttendeeRepository) Create(ctx context.Context, attendee *models.Attendee) error {
	now := db.Now()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO attendees (name, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		attendee.Name, attendee.Email, attendee.PasswordHash, now, now,
	)
	if err != nil {
		if db.IsDuplicateKey(err) {
			return apperrors.AlreadyExists("Email")
		}
		return fmt.Errorf("failed to insert attendee: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get attendee id: %w", err)
	}
	attendee.ID = id
	attendee.CreatedAt = now
	attendee.UpdatedAt = now
	return nil
}

// UpdateProfile changes name and email
func (r *AttendeeRepository) UpdateProfile(ctx context.Context, id int64, name, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE attendees SET name = ?, email = ?, updated_at = ? WHERE attendee_id = ?`,
		name, email, db.Now(), id,
	)
	if err != nil {
		if db.IsDuplicateKey(err) {
			return apperrors.AlreadyExists("Email")
		}
		return fmt.Errorf("failed to update attendee: %w", err)
	}
	return nil
}

// UpdatePassword stores a new password hash
func (r *AttendeeRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE attendees SET password_hash = ?, updated_at = ? WHERE attendee_id = ?`,
		passwordHash, db.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// Delete removes the attendee. Registrations go with it through the foreign key.
func (r *AttendeeRepository) Delete(ctx context.Context, id int64) error {
	return db.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		// Explicit delete keeps MySQL tables created without the cascade consistent
		if _, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE attendee_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete registrations: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM attendees WHERE attendee_id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete attendee: %w", err)
		}
		return requireRow(result, "Attendee")
	})
}

func requireRow(result sql.Result, resource string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound(resource)
	}
	return nil
}

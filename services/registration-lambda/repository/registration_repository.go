package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventsync-services/common/db"
	apperrors "github.com/eventsync-services/common/errors"
	"github.com/eventsync-services/services/registration-lambda/models"
)

const detailQuery = `
	SELECT r.registration_id, r.attendee_id, r.event_id, r.name, r.email, r.phone, r.address,
		r.emergency_contact, r.college, r.branch, r.year, r.roll_number, r.special_requirements,
		r.verification_payload, r.qr_code_data_url, r.checked_in, r.checked_in_at, r.created_at,
		e.title AS event_title, e.event_date, e.event_time, e.category, e.location, e.image_url,
		a.name AS account_name, a.email AS account_email
	FROM registrations r
	JOIN events e ON e.event_id = r.event_id
	JOIN attendees a ON a.attendee_id = r.attendee_id`

type detailRow struct {
	models.Registration
	EventTitle   string    `db:"event_title"`
	EventDate    time.Time `db:"event_date"`
	EventTime    *string   `db:"event_time"`
	Category     *string   `db:"category"`
	Location     string    `db:"location"`
	ImageURL     *string   `db:"image_url"`
	AccountName  string    `db:"account_name"`
	AccountEmail string    `db:"account_email"`
}

func (row *detailRow) toDetail() *models.RegistrationDetail {
	return &models.RegistrationDetail{
		Registration: row.Registration,
		Event: models.EventSummary{
			ID:       row.EventID,
			Title:    row.EventTitle,
			Date:     row.EventDate,
			Time:     row.EventTime,
			Category: row.Category,
			Location: row.Location,
			ImageURL: row.ImageURL,
		},
		Account: models.AccountSummary{ID: row.AttendeeID, Name: row.AccountName, Email: row.AccountEmail},
	}
}

// RegistrationRepository handles registration data access
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository creates a new registration repository
func NewRegistrationRepository(conn *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: conn}
}

// FindEvent returns nil when the event does not exist
func (r *RegistrationRepository) FindEvent(ctx context.Context, eventID int64) (*models.EventSummary, error) {
	var event models.EventSummary
	err := r.db.GetContext(ctx, &event, `
		SELECT event_id, title, event_date, event_time, category, location, image_url
		FROM events WHERE event_id = ?`, eventID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query event: %w", err)
	}
	return &event, nil
}

// Finalizer builds the verification payload and QR data URL for a new id
type Finalizer func(registrationID int64) (payload, qrDataURL string, err error)

// Create inserts the registration and stores its verification payload in the
// same transaction. The (attendee, event) unique key turns a second
// registration, including a concurrent one, into a Conflict error.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration, finalize Finalizer) error {
	return db.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		now := db.Now()
		result, err := tx.ExecContext(ctx, `
			INSERT INTO registrations (attendee_id, event_id, name, email, phone, address, emergency_contact,
				college, branch, year, roll_number, special_requirements, checked_in, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
			reg.AttendeeID, reg.EventID, reg.Name, reg.Email, reg.Phone, reg.Address, reg.EmergencyContact,
			reg.College, reg.Branch, reg.Year, reg.RollNumber, reg.SpecialRequirements, now,
		)
		if err != nil {
			if db.IsDuplicateKey(err) {
				return apperrors.Conflict("Already registered for this event")
			}
			return fmt.Errorf("failed to insert registration: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get registration id: %w", err)
		}

		payload, qrDataURL, err := finalize(id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE registrations SET verification_payload = ?, qr_code_data_url = ? WHERE registration_id = ?`,
			payload, qrDataURL, id,
		); err != nil {
			return fmt.Errorf("failed to store verification payload: %w", err)
		}

		reg.ID = id
		reg.CreatedAt = now
		reg.VerificationPayload.String, reg.VerificationPayload.Valid = payload, true
		reg.QRCodeDataURL.String, reg.QRCodeDataURL.Valid = qrDataURL, true
		return nil
	})
}

// FindDetail returns nil when the registration does not exist
func (r *RegistrationRepository) FindDetail(ctx context.Context, id int64) (*models.RegistrationDetail, error) {
	var row detailRow
	if err := r.db.GetContext(ctx, &row, detailQuery+` WHERE r.registration_id = ?`, id); err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query registration: %w", err)
	}
	return row.toDetail(), nil
}

// ListByAttendee returns the attendee's registrations, newest first
func (r *RegistrationRepository) ListByAttendee(ctx context.Context, attendeeID int64) ([]*models.RegistrationDetail, error) {
	var rows []detailRow
	if err := r.db.SelectContext(ctx, &rows,
		detailQuery+` WHERE r.attendee_id = ? ORDER BY r.created_at DESC, r.registration_id DESC`, attendeeID); err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	out := make([]*models.RegistrationDetail, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDetail())
	}
	return out, nil
}

// MarkCheckedIn flips checked_in from false to true. It reports false when
// the registration was already checked in.
func (r *RegistrationRepository) MarkCheckedIn(ctx context.Context, id int64, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE registrations SET checked_in = 1, checked_in_at = ? WHERE registration_id = ? AND checked_in = 0`,
		at, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update checkin: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

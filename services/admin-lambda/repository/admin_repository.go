package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventsync-services/common/db"
	"github.com/eventsync-services/services/admin-lambda/models"
)

const eventSelect = `
	SELECT e.event_id, e.title, e.description, e.event_date, e.event_time, e.category, e.location,
		e.capacity, e.image_url, e.created_by, ad.name AS creator_name, ad.email AS creator_email, e.created_at
	FROM events e
	LEFT JOIN administrators ad ON ad.admin_id = e.created_by`

const registrationSelect = `
	SELECT r.registration_id, r.event_id, e.title AS event_title, r.attendee_id,
		a.name AS account_name, a.email AS account_email, r.name, r.email, r.phone, r.college,
		r.branch, r.year, r.roll_number, r.checked_in, r.checked_in_at, r.created_at
	FROM registrations r
	JOIN events e ON e.event_id = r.event_id
	JOIN attendees a ON a.attendee_id = r.attendee_id`

// AdminRepository holds the read queries behind the administration screens
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(conn *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: conn}
}

// Counts returns the aggregate numbers. Events dated on or after since are
// counted as upcoming.
func (r *AdminRepository) Counts(ctx context.Context, since time.Time) (*models.Counts, error) {
	var c models.Counts
	err := r.db.GetContext(ctx, &c, `
		SELECT
			(SELECT COUNT(*) FROM events) AS total_events,
			(SELECT COUNT(*) FROM events WHERE event_date >= ?) AS upcoming_events,
			(SELECT COUNT(*) FROM registrations) AS total_registrations,
			(SELECT COUNT(*) FROM attendees) AS total_attendees,
			(SELECT COUNT(*) FROM registrations WHERE checked_in = 1) AS checked_in`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count: %w", err)
	}
	return &c, nil
}

// RecentEvents returns the newest events by creation time
func (r *AdminRepository) RecentEvents(ctx context.Context, limit int) ([]models.EventRow, error) {
	rows := []models.EventRow{}
	if err := r.db.SelectContext(ctx, &rows,
		eventSelect+` ORDER BY e.created_at DESC, e.event_id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	return rows, nil
}

// RecentRegistrations returns the newest registrations
func (r *AdminRepository) RecentRegistrations(ctx context.Context, limit int) ([]models.RegistrationRow, error) {
	rows := []models.RegistrationRow{}
	if err := r.db.SelectContext(ctx, &rows,
		registrationSelect+` ORDER BY r.created_at DESC, r.registration_id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("failed to query recent registrations: %w", err)
	}
	return rows, nil
}

// ListEvents returns events by date descending. A zero limit returns all.
func (r *AdminRepository) ListEvents(ctx context.Context, limit, offset int) ([]models.EventRow, error) {
	query := eventSelect + ` ORDER BY e.event_date DESC, e.event_id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows := []models.EventRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	return rows, nil
}

// CountEvents returns the number of events
func (r *AdminRepository) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM events`); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// EventTitle returns "" when the event does not exist
func (r *AdminRepository) EventTitle(ctx context.Context, eventID int64) (string, error) {
	var title string
	if err := r.db.GetContext(ctx, &title, `SELECT title FROM events WHERE event_id = ?`, eventID); err != nil {
		if db.IsNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to query event: %w", err)
	}
	return title, nil
}

// RegistrationsForEvents loads the registrations of every listed event in a
// single IN query.
func (r *AdminRepository) RegistrationsForEvents(ctx context.Context, eventIDs []int64) ([]models.RegistrationRow, error) {
	rows := []models.RegistrationRow{}
	if len(eventIDs) == 0 {
		return rows, nil
	}

	query, args, err := sqlx.In(registrationSelect+` WHERE r.event_id IN (?) ORDER BY r.created_at, r.registration_id`, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build registrations query: %w", err)
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	return rows, nil
}

// ListEventRegistrations returns one page of an event's registrations
func (r *AdminRepository) ListEventRegistrations(ctx context.Context, eventID int64, limit, offset int) ([]models.RegistrationRow, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM registrations WHERE event_id = ?`, eventID); err != nil {
		return nil, 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	rows := []models.RegistrationRow{}
	if err := r.db.SelectContext(ctx, &rows,
		registrationSelect+` WHERE r.event_id = ? ORDER BY r.created_at DESC, r.registration_id DESC LIMIT ? OFFSET ?`,
		eventID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to query registrations: %w", err)
	}
	return rows, total, nil
}

// ListAttendees returns every attendee with their registration count
func (r *AdminRepository) ListAttendees(ctx context.Context) ([]models.AttendeeRow, error) {
	rows := []models.AttendeeRow{}
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT a.attendee_id, a.name, a.email, a.created_at, COUNT(r.registration_id) AS registration_count
		FROM attendees a
		LEFT JOIN registrations r ON r.attendee_id = a.attendee_id
		GROUP BY a.attendee_id, a.name, a.email, a.created_at
		ORDER BY a.created_at DESC, a.attendee_id DESC`); err != nil {
		return nil, fmt.Errorf("failed to query attendees: %w", err)
	}
	return rows, nil
}

// ListAdmins returns every administrator account
func (r *AdminRepository) ListAdmins(ctx context.Context) ([]models.AdminRow, error) {
	rows := []models.AdminRow{}
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT admin_id, name, email, admin_key_attempts, is_blocked, created_at
		FROM administrators ORDER BY admin_id`); err != nil {
		return nil, fmt.Errorf("failed to query administrators: %w", err)
	}
	return rows, nil
}

// Recipients returns the account of every registrant of an event
func (r *AdminRepository) Recipients(ctx context.Context, eventID int64) ([]models.Recipient, error) {
	rows := []models.Recipient{}
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT r.registration_id, a.name AS account_name, a.email AS account_email
		FROM registrations r
		JOIN attendees a ON a.attendee_id = r.attendee_id
		WHERE r.event_id = ?
		ORDER BY r.registration_id`, eventID); err != nil {
		return nil, fmt.Errorf("failed to query recipients: %w", err)
	}
	return rows, nil
}

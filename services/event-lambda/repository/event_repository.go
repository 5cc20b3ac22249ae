package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eventsync-services/common/db"
	apperrors "github.com/eventsync-services/common/errors"
	"github.com/eventsync-services/services/event-lambda/models"
)

const eventColumns = `event_id, title, description, event_date, event_time, category, location,
	capacity, image_url, image_key, created_by, created_at, updated_at`

// EventRepository handles event data access
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(conn *sqlx.DB) *EventRepository {
	return &EventRepository{db: conn}
}

// List returns every event, soonest first
func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	events := []models.Event{}
	if err := r.db.SelectContext(ctx, &events,
		`SELECT `+eventColumns+` FROM events ORDER BY event_date ASC, event_id ASC`); err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	return events, nil
}

// FindByID returns nil when the event does not exist
func (r *EventRepository) FindByID(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	err := r.db.GetContext(ctx, &event, `SELECT `+eventColumns+` FROM events WHERE event_id = ?`, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query event: %w", err)
	}
	return &event, nil
}

// CountRegistrations returns how many registrations reference the event
func (r *EventRepository) CountRegistrations(ctx context.Context, eventID int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM registrations WHERE event_id = ?`, eventID); err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}

// Create inserts the event and fills in its id and timestamps
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	now := db.Now()
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO events (title, description, event_date, event_time, category, location,
			capacity, image_url, image_key, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.Title, event.Description, event.EventDate, event.EventTime, event.Category, event.Location,
		event.Capacity, event.ImageURL, event.ImageKey, event.CreatedBy, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get event id: %w", err)
	}
	event.ID = id
	event.CreatedAt = now
	event.UpdatedAt = now
	return nil
}

// Update overwrites the editable columns of an existing event
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	now := db.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE events SET title = ?, description = ?, event_date = ?, event_time = ?, category = ?,
			location = ?, capacity = ?, image_url = ?, image_key = ?, updated_at = ?
		WHERE event_id = ?`,
		event.Title, event.Description, event.EventDate, event.EventTime, event.Category,
		event.Location, event.Capacity, event.ImageURL, event.ImageKey, now,
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	event.UpdatedAt = now
	return nil
}

// Delete removes the event and its registrations in one transaction
func (r *EventRepository) Delete(ctx context.Context, id int64) (int64, error) {
	var removed int64
	err := db.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE event_id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete registrations: %w", err)
		}
		if removed, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}

		result, err = tx.ExecContext(ctx, `DELETE FROM events WHERE event_id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			return apperrors.NotFound("Event")
		}
		return nil
	})
	return removed, err
}

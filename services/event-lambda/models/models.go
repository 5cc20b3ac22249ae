package models

import (
	"database/sql"
	"time"
)

// Event represents an event in the system
// Maps to table: events
type Event struct {
	ID          int64          `db:"event_id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	EventDate   time.Time      `db:"event_date"`
	EventTime   sql.NullString `db:"event_time"`
	Category    sql.NullString `db:"category"`
	Location    string         `db:"location"`
	Capacity    sql.NullInt64  `db:"capacity"`
	ImageURL    sql.NullString `db:"image_url"`
	ImageKey    sql.NullString `db:"image_key"`
	CreatedBy   sql.NullInt64  `db:"created_by"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// EventResponse is the JSON form of an event
type EventResponse struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Description       *string   `json:"description"`
	Date              time.Time `json:"date"`
	Time              *string   `json:"time"`
	Category          *string   `json:"category"`
	Location          string    `json:"location"`
	Capacity          *int64    `json:"capacity"`
	ImageURL          *string   `json:"imageUrl"`
	CreatedBy         *int64    `json:"createdBy"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
	RegistrationCount *int      `json:"registrationCount,omitempty"`
}

// ToResponse converts the row into its JSON form
func (e *Event) ToResponse() EventResponse {
	return EventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: nullString(e.Description),
		Date:        e.EventDate,
		Time:        nullString(e.EventTime),
		Category:    nullString(e.Category),
		Location:    e.Location,
		Capacity:    nullInt(e.Capacity),
		ImageURL:    nullString(e.ImageURL),
		CreatedBy:   nullInt(e.CreatedBy),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// EventRequest is the body of POST /api/events and PUT /api/events/{id}.
// Image is a data: URL to upload or an http(s) URL to keep as-is; on update
// an empty image keeps the current one unless RemoveImage is set.
type EventRequest struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Date        string `json:"date" validate:"notblank"`
	Time        string `json:"time" validate:"max=50"`
	Category    string `json:"category" validate:"max=100"`
	Location    string `json:"location" validate:"notblank,max=255"`
	Capacity    *int64 `json:"capacity" validate:"omitempty,gte=0"`
	Image       string `json:"image"`
	RemoveImage bool   `json:"removeImage"`
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

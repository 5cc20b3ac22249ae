package models

import (
	"time"

	shared "github.com/eventsync-services/common/models"
)

// ============================================================
// Read models used by the administration screens
// ============================================================

// EventRow is an event with its creator resolved
type EventRow struct {
	ID           int64     `json:"id" db:"event_id"`
	Title        string    `json:"title" db:"title"`
	Description  *string   `json:"description" db:"description"`
	Date         time.Time `json:"date" db:"event_date"`
	Time         *string   `json:"time" db:"event_time"`
	Category     *string   `json:"category" db:"category"`
	Location     string    `json:"location" db:"location"`
	Capacity     *int64    `json:"capacity" db:"capacity"`
	ImageURL     *string   `json:"imageUrl" db:"image_url"`
	CreatedBy    *int64    `json:"createdBy" db:"created_by"`
	CreatorName  *string   `json:"creatorName" db:"creator_name"`
	CreatorEmail *string   `json:"creatorEmail" db:"creator_email"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// RegistrationRow is a registration with its event title and owning account
type RegistrationRow struct {
	ID           int64      `json:"id" db:"registration_id"`
	EventID      int64      `json:"eventId" db:"event_id"`
	EventTitle   string     `json:"eventTitle" db:"event_title"`
	AttendeeID   int64      `json:"attendeeId" db:"attendee_id"`
	AccountName  string     `json:"accountName" db:"account_name"`
	AccountEmail string     `json:"accountEmail" db:"account_email"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	Phone        string     `json:"phone" db:"phone"`
	College      string     `json:"college" db:"college"`
	Branch       string     `json:"branch" db:"branch"`
	Year         string     `json:"year" db:"year"`
	RollNumber   string     `json:"rollNumber" db:"roll_number"`
	CheckedIn    bool       `json:"checkedIn" db:"checked_in"`
	CheckedInAt  *time.Time `json:"checkedInAt" db:"checked_in_at"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
}

// AttendeeRow is an attendee account in admin listings
type AttendeeRow struct {
	ID                int64     `json:"id" db:"attendee_id"`
	Name              string    `json:"name" db:"name"`
	Email             string    `json:"email" db:"email"`
	RegistrationCount int       `json:"registrationCount" db:"registration_count"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}

// AdminRow is an administrator account in the export. The password hash is
// never selected.
type AdminRow struct {
	ID               int64     `json:"id" db:"admin_id"`
	Name             string    `json:"name" db:"name"`
	Email            string    `json:"email" db:"email"`
	AdminKeyAttempts int       `json:"adminKeyAttempts" db:"admin_key_attempts"`
	IsBlocked        bool      `json:"isBlocked" db:"is_blocked"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}

// Recipient is one registrant reached by a notification
type Recipient struct {
	RegistrationID int64  `db:"registration_id"`
	Name           string `db:"account_name"`
	Email          string `db:"account_email"`
}

// Counts holds the aggregate numbers shown on the dashboard and stats page
type Counts struct {
	TotalEvents        int `db:"total_events"`
	UpcomingEvents     int `db:"upcoming_events"`
	TotalRegistrations int `db:"total_registrations"`
	TotalAttendees     int `db:"total_attendees"`
	CheckedIn          int `db:"checked_in"`
}

// ============================================================
// Responses
// ============================================================

// DashboardResponse is returned by GET /api/admin/dashboard
type DashboardResponse struct {
	TotalEvents         int               `json:"totalEvents"`
	TotalRegistrations  int               `json:"totalRegistrations"`
	TotalAttendees      int               `json:"totalAttendees"`
	CheckedInCount      int               `json:"checkedInCount"`
	RecentEvents        []EventRow        `json:"recentEvents"`
	RecentRegistrations []RegistrationRow `json:"recentRegistrations"`
}

// ExportEvent is an event with exactly its own registrations
type ExportEvent struct {
	EventRow
	Registrations []RegistrationRow `json:"registrations"`
}

// PageInfo describes the page of events in a paged export
type PageInfo struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalRecords int `json:"totalRecords"`
}

// ExportResponse is returned by GET /api/admin/all-data
type ExportResponse struct {
	Events     []ExportEvent `json:"events"`
	Admins     []AdminRow    `json:"admins"`
	Attendees  []AttendeeRow `json:"attendees"`
	Pagination *PageInfo     `json:"pagination,omitempty"`
}

// StatsResponse is returned by the public GET /api/stats
type StatsResponse struct {
	TotalAttendees     int `json:"totalAttendees"`
	TotalEvents        int `json:"totalEvents"`
	UpcomingEvents     int `json:"upcomingEvents"`
	TotalRegistrations int `json:"totalRegistrations"`
}

// NotifyRequest is the body of POST /api/admin/send-notifications
type NotifyRequest struct {
	EventID shared.ID `json:"eventId"`
	Subject string    `json:"subject" validate:"notblank,max=200"`
	Message string    `json:"message" validate:"notblank,max=10000"`
}

// NotifyResult reports the outcome of a notification batch
type NotifyResult struct {
	Total   int    `json:"total"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Message string `json:"message"`
}

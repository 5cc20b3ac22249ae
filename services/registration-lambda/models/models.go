package models

import (
	"database/sql"
	"time"

	shared "github.com/eventsync-services/common/models"
)

// Registration represents an attendee's registration for one event
// Maps to table: registrations
type Registration struct {
	ID                  int64          `db:"registration_id"`
	AttendeeID          int64          `db:"attendee_id"`
	EventID             int64          `db:"event_id"`
	Name                string         `db:"name"`
	Email               string         `db:"email"`
	Phone               string         `db:"phone"`
	Address             sql.NullString `db:"address"`
	EmergencyContact    string         `db:"emergency_contact"`
	College             string         `db:"college"`
	Branch              string         `db:"branch"`
	Year                string         `db:"year"`
	RollNumber          string         `db:"roll_number"`
	SpecialRequirements sql.NullString `db:"special_requirements"`
	VerificationPayload sql.NullString `db:"verification_payload"`
	QRCodeDataURL       sql.NullString `db:"qr_code_data_url"`
	CheckedIn           bool           `db:"checked_in"`
	CheckedInAt         sql.NullTime   `db:"checked_in_at"`
	CreatedAt           time.Time      `db:"created_at"`
}

// EventSummary is the part of an event shown next to a registration
type EventSummary struct {
	ID       int64     `json:"id" db:"event_id"`
	Title    string    `json:"title" db:"title"`
	Date     time.Time `json:"date" db:"event_date"`
	Time     *string   `json:"time" db:"event_time"`
	Category *string   `json:"category" db:"category"`
	Location string    `json:"location" db:"location"`
	ImageURL *string   `json:"imageUrl" db:"image_url"`
}

// AccountSummary identifies the attendee account that owns a registration
type AccountSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegistrationResponse is the JSON form of a registration
type RegistrationResponse struct {
	ID                  int64         `json:"id"`
	AttendeeID          int64         `json:"attendeeId"`
	EventID             int64         `json:"eventId"`
	Name                string        `json:"name"`
	Email               string        `json:"email"`
	Phone               string        `json:"phone"`
	Address             *string       `json:"address"`
	EmergencyContact    string        `json:"emergencyContact"`
	College             string        `json:"college"`
	Branch              string        `json:"branch"`
	Year                string        `json:"year"`
	RollNumber          string        `json:"rollNumber"`
	SpecialRequirements *string       `json:"specialRequirements"`
	VerificationPayload string        `json:"verificationPayload"`
	QRCodeDataURL       string        `json:"qrCodeDataUrl"`
	CheckedIn           bool          `json:"checkedIn"`
	CheckedInAt         *time.Time    `json:"checkedInAt"`
	CreatedAt           time.Time     `json:"createdAt"`
	Event               *EventSummary `json:"event,omitempty"`
}

// ToResponse converts the row into its JSON form
func (r *Registration) ToResponse() RegistrationResponse {
	resp := RegistrationResponse{
		ID:                  r.ID,
		AttendeeID:          r.AttendeeID,
		EventID:             r.EventID,
		Name:                r.Name,
		Email:               r.Email,
		Phone:               r.Phone,
		EmergencyContact:    r.EmergencyContact,
		College:             r.College,
		Branch:              r.Branch,
		Year:                r.Year,
		RollNumber:          r.RollNumber,
		VerificationPayload: r.VerificationPayload.String,
		QRCodeDataURL:       r.QRCodeDataURL.String,
		CheckedIn:           r.CheckedIn,
		CreatedAt:           r.CreatedAt,
	}
	if r.Address.Valid {
		resp.Address = &r.Address.String
	}
	if r.SpecialRequirements.Valid {
		resp.SpecialRequirements = &r.SpecialRequirements.String
	}
	if r.CheckedInAt.Valid {
		t := r.CheckedInAt.Time
		resp.CheckedInAt = &t
	}
	return resp
}

// RegistrationDetail is a registration together with its event and owner
type RegistrationDetail struct {
	Registration
	Event   EventSummary
	Account AccountSummary
}

// RegisterRequest is the body of POST /api/register. Personal and academic
// fields are a snapshot and are never updated afterwards.
type RegisterRequest struct {
	EventID             shared.ID `json:"eventId"`
	Name                string    `json:"name" validate:"notblank,max=100"`
	Email               string    `json:"email" validate:"notblank,emailaddr"`
	Phone               string    `json:"phone" validate:"notblank,max=30"`
	College             string    `json:"college" validate:"notblank,max=200"`
	Branch              string    `json:"branch" validate:"notblank,max=100"`
	Year                string    `json:"year" validate:"notblank,max=20"`
	RollNumber          string    `json:"rollNumber" validate:"notblank,max=50"`
	EmergencyContact    string    `json:"emergencyContact" validate:"notblank,max=30"`
	Address             string    `json:"address" validate:"max=500"`
	SpecialRequirements string    `json:"specialRequirements" validate:"max=1000"`
}

// ScanRequest carries the text read from a registration QR code
type ScanRequest struct {
	QR string `json:"qr"`
}

// VerificationResponse describes the registration a payload names
type VerificationResponse struct {
	RegistrationID int64          `json:"registrationId"`
	User           AccountSummary `json:"user"`
	Attendee       AttendeeInfo   `json:"attendee"`
	Event          EventSummary   `json:"event"`
	CheckedIn      bool           `json:"checkedIn"`
	CheckedInAt    *time.Time     `json:"checkedInAt"`
}

// AttendeeInfo is the registration snapshot shown at the entrance
type AttendeeInfo struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	College    string `json:"college"`
	Branch     string `json:"branch"`
	Year       string `json:"year"`
	RollNumber string `json:"rollNumber"`
}

// CheckInResponse is returned by POST /api/register/checkin
type CheckInResponse struct {
	VerificationResponse
	AlreadyCheckedIn bool   `json:"alreadyCheckedIn"`
	Message          string `json:"message"`
}

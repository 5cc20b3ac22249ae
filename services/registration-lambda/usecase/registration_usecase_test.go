package usecase

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventsync-services/common/db"
	"github.com/eventsync-services/common/db/dbtest"
	"github.com/eventsync-services/common/email"
	apperrors "github.com/eventsync-services/common/errors"
	"github.com/eventsync-services/common/jwt"
	shared "github.com/eventsync-services/common/models"
	"github.com/eventsync-services/common/qrcode"
	"github.com/eventsync-services/common/router"
	"github.com/eventsync-services/services/registration-lambda/models"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []email.EmailMessage
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg email.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func seedAttendee(t *testing.T, conn *sqlx.DB, email string) int64 {
	t.Helper()
	now := db.Now()
	res, err := conn.Exec(`INSERT INTO attendees (name, email, password_hash, created_at, updated_at) VALUES ('Account', ?, 'x', ?, ?)`,
		email, now, now)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func seedEvent(t *testing.T, conn *sqlx.DB, title string) int64 {
	t.Helper()
	now := db.Now()
	res, err := conn.Exec(`INSERT INTO events (title, event_date, event_time, location, created_at, updated_at)
		VALUES (?, ?, '10:00 AM', 'Main Hall', ?, ?)`,
		title, time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC), now, now)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func countRegistrations(t *testing.T, conn *sqlx.DB) int {
	t.Helper()
	var n int
	require.NoError(t, conn.Get(&n, `SELECT COUNT(*) FROM registrations`))
	return n
}

func validRequest(eventID int64) models.RegisterRequest {
	return models.RegisterRequest{
		EventID:          shared.ID(eventID),
		Name:             "Asha Rao",
		Email:            "asha.personal@mail.com",
		Phone:            "9876543210",
		College:          "Government Engineering College",
		Branch:           "CSE",
		Year:             "3",
		RollNumber:       "21CS042",
		EmergencyContact: "9123456780",
		Address:          "12 Lake Road",
	}
}

func newUseCase(conn *sqlx.DB, mailer email.Mailer) *RegistrationUseCase {
	return NewRegistrationUseCase(conn, qrcode.NewSigner("test-secret"), mailer)
}

func TestRegisterSendsConfirmation(t *testing.T) {
	conn := dbtest.Open(t)
	mailer := &fakeMailer{}
	uc := newUseCase(conn, mailer)
	attendeeID := seedAttendee(t, conn, "asha@college.edu")
	eventID := seedEvent(t, conn, "Hackathon")

	reg, err := uc.Register(context.Background(), attendeeID, validRequest(eventID))
	require.NoError(t, err)
	assert.Equal(t, attendeeID, reg.AttendeeID)
	assert.Equal(t, eventID, reg.EventID)
	assert.NotEmpty(t, reg.VerificationPayload)
	assert.Contains(t, reg.QRCodeDataURL, "data:image/png;base64,")
	assert.False(t, reg.CheckedIn)
	require.NotNil(t, reg.Event)
	assert.Equal(t, "Hackathon", reg.Event.Title)
	assert.Nil(t, reg.SpecialRequirements)

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, []string{"asha.personal@mail.com"}, msg.To, "sent to the address on the form")
	assert.Contains(t, msg.Subject, "Hackathon")
	assert.Contains(t, msg.HTMLBody, `src="cid:registration-qr"`)
	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "registration-qr", msg.Attachments[0].ContentID)
	assert.True(t, bytes.HasPrefix(msg.Attachments[0].Data, []byte("\x89PNG")))
	assert.Empty(t, msg.Attachments[1].ContentID)
	assert.True(t, bytes.HasPrefix(msg.Attachments[1].Data, []byte("%PDF")))
}

func TestRegisterTwiceConflicts(t *testing.T) {
	conn := dbtest.Open(t)
	uc := newUseCase(conn, &fakeMailer{})
	ctx := context.Background()
	attendeeID := seedAttendee(t, conn, "asha@college.edu")
	eventID := seedEvent(t, conn, "Hackathon")

	_, err := uc.Register(ctx, attendeeID, validRequest(eventID))
	require.NoError(t, err)

	_, err = uc.Register(ctx, attendeeID, validRequest(eventID))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConflict))
	assert.Equal(t, 1, countRegistrations(t, conn))

	// A different attendee may still register
	other := seedAttendee(t, conn, "ravi@college.edu")
	_, err = uc.Register(ctx, other, validRequest(eventID))
	require.NoError(t, err)
	assert.Equal(t, 2, countRegistrations(t, conn))
}

func TestConcurrentRegistrationsKeepOneRow(t *testing.T) {
	conn := dbtest.Open(t)
	uc := newUseCase(conn, &fakeMailer{})
	attendeeID := seedAttendee(t, conn, "asha@college.edu")
	eventID := seedEvent(t, conn, "Hackathon")

	const attempts = 5
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.Register(context.Background(), attendeeID, validRequest(eventID))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, countRegistrations(t, conn))
}

func TestRegisterValidation(t *testing.T) {
	conn := dbtest.Open(t)
	uc := newUseCase(conn, &fakeMailer{})
	attendeeID := seedAttendee(t, conn, "asha@college.edu")
	eventID := seedEvent(t, conn, "Hackathon")

	tests := []struct {
		name    string
		mutate  func(r *models.RegisterRequest)
		missing string
	}{
		{"event", func(r *models.RegisterRequest) { r.EventID = 0 }, "eventId"},
		{"name", func(r *models.RegisterRequest) { r.Name = "" }, "name"},
		{"email", func(r *models.RegisterRequest) { r.Email = "  " }, "email"},
		{"phone", func(r *models.RegisterRequest) { r.Phone = "" }, "phone"},
		{"college", func(r *models.RegisterRequest) { r.College = "" }, "college"},
		{"branch", func(r *models.RegisterRequest) { r.Branch = "" }, "branch"},
		{"year", func(r *models.RegisterRequest) { r.Year = "" }, "year"},
		{"roll number", func(r *models.RegisterRequest) { r.RollNumber = "" }, "rollNumber"},
		{"emergency contact", func(r *models.RegisterRequest) { r.EmergencyContact = "" }, "emergencyContact"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest(eventID)
			tt.mutate(&req)

			_, err := uc.Register(context.Background(), attendeeID, req)
			require.Error(t, err)
			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
			assert.Equal(t, []string{tt.missing}, appErr.Fields["missing"])
			assert.Zero(t, countRegistrations(t, conn))
		})
	}

	req := validRequest(eventID)
	req.Email = "not-an-email"
	_, err := uc.Register(context.Background(), attendeeID, req)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidEmail))

	_, err = uc.Register(context.Background(), attendeeID, validRequest(eventID+100))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	assert.Zero(t, countRegistrations(t, conn))
}

func TestRegisterSucceedsWhenEmailFails(t *testing.T) {
	conn := dbtest.Open(t)
	uc := newUseCase(conn, &fakeMailer{err: errors.New("smtp down")})
	attendeeID := seedAttendee(t, conn, "asha@college.edu")
	eventID := seedEvent(t, conn, "Hackathon")

	reg, err := uc.Register(context.Background(), attendeeID, validRequest(eventID))
	require.NoError(t, err)
	assert.NotZero(t, reg.ID)
	assert.Equal(t, 1, countRegistrations(t, conn))
}

func TestVerifyRoundTrip(t *testing.T) {
	conn := dbtest.Open(t)
	uc := newUseCase(conn, &fakeMailer{})
	ctx := context.Background()
	attendeeID := seedAttendee(t, conn, "asha@college.edu")
	eventID := seedEvent(t, conn, "Hackathon")

	reg, err := uc.Register(ctx, attendeeID, validRequest(eventID))
	require.NoError(t, err)

	v, err := uc.Verify(ctx, reg.VerificationPayload)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, v.RegistrationID)
	assert.Equal(t, "asha@college.edu", v.User.Email)
	assert.Equal(t, "asha.personal@mail.com", v.Attendee.Email)
	assert.Equal(t, "21CS042", v.Attendee.RollNumber)
	assert.Equal(t, "Hackathon", v.Event.Title)
	assert.False(t, v.CheckedIn)
	assert.Nil(t, v.CheckedInAt)

	// Verification never checks anyone in
	v, err = uc.Verify(ctx, reg.VerificationPayload)
	require.NoError(t, err)
	assert.False(t, v.CheckedIn)
}

func TestVerifyRejectsBadPayloads(t *testing.T) {
	conn := dbtest.Open(t)
	uc := newUseCase(conn, &fakeMailer{})
	ctx := context.Background()
	attendeeID := seedAttendee(t, conn, "asha@college.edu")
	eventID := seedEvent(t, conn, "Hackathon")
	reg, err := uc.Register(ctx, attendeeID, validRequest(eventID))
	require.NoError(t, err)

	forged, err := qrcode.NewSigner("other-secret").Encode(reg.ID)
	require.NoError(t, err)

	for _, payload := range []string{"", "EVENT:1|USER:1", "{not json", forged} {
		_, err := uc.Verify(ctx, payload)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMalformedPayload), "payload %q", payload)
	}

	missing, err := qrcode.NewSigner("test-secret").Encode(reg.ID + 100)
	require.NoError(t, err)
	_, err = uc.Verify(ctx, missing)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func TestCheckInIsIdempotent(t *testing.T) {
	conn := dbtest.Open(t)
	uc := newUseCase(conn, &fakeMailer{})
	ctx := context.Background()
	attendeeID := seedAttendee(t, conn, "asha@college.edu")
	eventID := seedEvent(t, conn, "Hackathon")
	reg, err := uc.Register(ctx, attendeeID, validRequest(eventID))
	require.NoError(t, err)

	first := time.Date(2026, 11, 20, 9, 30, 0, 0, time.UTC)
	uc.now = func() time.Time { return first }

	res, err := uc.CheckIn(ctx, 1, reg.VerificationPayload)
	require.NoError(t, err)
	assert.True(t, res.CheckedIn)
	assert.False(t, res.AlreadyCheckedIn)
	require.NotNil(t, res.CheckedInAt)
	assert.True(t, first.Equal(*res.CheckedInAt))

	uc.now = func() time.Time { return first.Add(time.Hour) }
	res, err = uc.CheckIn(ctx, 1, reg.VerificationPayload)
	require.NoError(t, err)
	assert.True(t, res.CheckedIn)
	assert.True(t, res.AlreadyCheckedIn)
	assert.True(t, first.Equal(*res.CheckedInAt), "keeps the first check-in time")

	v, err := uc.Verify(ctx, reg.VerificationPayload)
	require.NoError(t, err)
	assert.True(t, v.CheckedIn)

	_, err = uc.CheckIn(ctx, 1, "EVENT:1|USER:1")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMalformedPayload))
}

func TestMyRegistrationsAndAdmitCard(t *testing.T) {
	conn := dbtest.Open(t)
	uc := newUseCase(conn, &fakeMailer{})
	ctx := context.Background()
	owner := seedAttendee(t, conn, "asha@college.edu")
	stranger := seedAttendee(t, conn, "ravi@college.edu")
	first := seedEvent(t, conn, "Hackathon")
	second := seedEvent(t, conn, "Fest")

	_, err := uc.Register(ctx, owner, validRequest(first))
	require.NoError(t, err)
	reg, err := uc.Register(ctx, owner, validRequest(second))
	require.NoError(t, err)

	mine, err := uc.MyRegistrations(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, reg.ID, mine[0].ID, "newest first")
	require.NotNil(t, mine[0].Event)
	assert.Equal(t, "Fest", mine[0].Event.Title)

	none, err := uc.MyRegistrations(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, none)

	card, name, err := uc.AdmitCard(ctx, router.Identity{UserID: owner, Role: jwt.RoleAttendee}, reg.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(card, []byte("%PDF")))
	assert.Contains(t, name, "admit-card-")

	_, _, err = uc.AdmitCard(ctx, router.Identity{UserID: stranger, Role: jwt.RoleAttendee}, reg.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAccessDenied))

	// Admin ids live in their own table and may collide with attendee ids
	_, _, err = uc.AdmitCard(ctx, router.Identity{UserID: stranger, Role: jwt.RoleAdmin}, reg.ID)
	require.NoError(t, err)

	_, _, err = uc.AdmitCard(ctx, router.Identity{UserID: owner, Role: jwt.RoleAttendee}, reg.ID+100)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

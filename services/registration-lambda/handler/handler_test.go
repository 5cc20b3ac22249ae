package handler_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventsync-services/common/db"
	"github.com/eventsync-services/common/db/dbtest"
	"github.com/eventsync-services/common/email"
	"github.com/eventsync-services/common/hash"
	"github.com/eventsync-services/common/jwt"
	"github.com/eventsync-services/common/qrcode"
	"github.com/eventsync-services/common/router"
	authmodels "github.com/eventsync-services/services/auth-lambda/models"
	authusecase "github.com/eventsync-services/services/auth-lambda/usecase"
	"github.com/eventsync-services/services/registration-lambda/handler"
	"github.com/eventsync-services/services/registration-lambda/usecase"
)

type discardMailer struct{}

func (discardMailer) Send(context.Context, email.EmailMessage) error { return nil }

type testServer struct {
	conn   *sqlx.DB
	auth   *authusecase.AuthUseCase
	tokens *jwt.Manager
	r      *router.Router
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	hash.Cost = bcrypt.MinCost
	conn := dbtest.Open(t)
	tokens := jwt.NewManager("test-secret", time.Hour)
	auth := authusecase.NewAuthUseCase(conn, tokens, authusecase.Config{AdminPasskey: "key"})

	r := router.New(auth.ResolveIdentity, router.Recover())
	r.Add(handler.NewRegistrationHandler(
		usecase.NewRegistrationUseCase(conn, qrcode.NewSigner("qr-secret"), discardMailer{}),
	).Routes()...)
	return &testServer{conn: conn, auth: auth, tokens: tokens, r: r}
}

func (s *testServer) attendeeToken(t *testing.T, email string) string {
	t.Helper()
	res, err := s.auth.RegisterAttendee(context.Background(), authmodels.RegisterRequest{
		Name: "Student", Email: email, Password: "secret1",
	})
	require.NoError(t, err)
	return res.Token
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	admin, err := s.auth.CreateAdmin(context.Background(), authmodels.RegisterRequest{
		Name: "Dean", Email: "dean@college.edu", Password: "secret1",
	})
	require.NoError(t, err)
	token, err := s.tokens.GenerateToken(admin.ID, admin.Email, jwt.RoleAdmin)
	require.NoError(t, err)
	return token
}

func (s *testServer) event(t *testing.T) int64 {
	t.Helper()
	now := db.Now()
	res, err := s.conn.Exec(`INSERT INTO events (title, event_date, location, created_at, updated_at) VALUES ('Hackathon', ?, 'Main Hall', ?, ?)`,
		now.AddDate(0, 1, 0), now, now)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) events.APIGatewayProxyResponse {
	t.Helper()
	req := events.APIGatewayProxyRequest{HTTPMethod: method, Path: path, Headers: map[string]string{}}
	if token != "" {
		req.Headers["Authorization"] = "Bearer " + token
	}
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		req.Body = string(b)
	}
	resp, err := s.r.Handler()(context.Background(), req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp events.APIGatewayProxyResponse) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))
	return out
}

func registrationBody(eventID int64) map[string]interface{} {
	return map[string]interface{}{
		"eventId":          fmt.Sprint(eventID),
		"name":             "Asha Rao",
		"email":            "asha@mail.com",
		"phone":            "9876543210",
		"college":          "GEC",
		"branch":           "CSE",
		"year":             "3",
		"rollNumber":       "21CS042",
		"emergencyContact": "9123456780",
	}
}

func TestRegistrationFlow(t *testing.T) {
	s := newServer(t)
	attendee := s.attendeeToken(t, "asha@college.edu")
	admin := s.adminToken(t)
	eventID := s.event(t)

	resp := s.do(t, http.MethodPost, "/api/register", attendee, registrationBody(eventID))
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)
	created := decode(t, resp)
	payload := created["verificationPayload"].(string)
	regID := int64(created["id"].(float64))

	resp = s.do(t, http.MethodPost, "/api/register", attendee, registrationBody(eventID))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Administrators cannot register
	resp = s.do(t, http.MethodPost, "/api/register", admin, registrationBody(eventID))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/register/me", attendee, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &mine))
	assert.Len(t, mine, 1)

	resp = s.do(t, http.MethodPost, "/api/register/scan", "", map[string]string{"qr": payload})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decode(t, resp)["checkedIn"])

	resp = s.do(t, http.MethodPost, "/api/register/checkin", attendee, map[string]string{"qr": payload})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/register/checkin", admin, map[string]string{"qr": payload})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	checkIn := decode(t, resp)
	assert.Equal(t, true, checkIn["checkedIn"])
	assert.Equal(t, false, checkIn["alreadyCheckedIn"])

	resp = s.do(t, http.MethodPost, "/api/register/checkin", admin, map[string]string{"qr": payload})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode(t, resp)["alreadyCheckedIn"])

	resp = s.do(t, http.MethodPost, "/api/register/scan", "", map[string]string{"qr": "EVENT:1|USER:1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodGet, fmt.Sprintf("/api/register/%d/admit-card", regID), attendee, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.IsBase64Encoded)
	assert.Equal(t, "application/pdf", resp.Headers["Content-Type"])
	pdf, err := base64.StdEncoding.DecodeString(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	other := s.attendeeToken(t, "ravi@college.edu")
	resp = s.do(t, http.MethodGet, fmt.Sprintf("/api/register/%d/admit-card", regID), other, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodGet, fmt.Sprintf("/api/register/%d/admit-card", regID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterReportsMissingFields(t *testing.T) {
	s := newServer(t)
	attendee := s.attendeeToken(t, "asha@college.edu")
	eventID := s.event(t)

	body := registrationBody(eventID)
	delete(body, "rollNumber")
	delete(body, "college")

	resp := s.do(t, http.MethodPost, "/api/register", attendee, body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	fields, ok := decode(t, resp)["fields"].(map[string]interface{})
	require.True(t, ok, resp.Body)
	assert.ElementsMatch(t, []interface{}{"college", "rollNumber"}, fields["missing"])
}

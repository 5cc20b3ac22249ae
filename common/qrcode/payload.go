package qrcode

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	apperrors "github.com/eventsync-services/common/errors"
)

// Payload is the text encoded in a registration QR code. It carries only an
// opaque registration id plus an HMAC so ids cannot be guessed or altered.
type Payload struct {
	RegistrationID string `json:"registrationId"`
	Signature      string `json:"sig"`
}

// Signer builds and verifies registration payloads
type Signer struct {
	key []byte
}

// NewSigner creates a payload signer keyed with secret
func NewSigner(secret string) *Signer {
	return &Signer{key: []byte(secret)}
}

// Encode returns the payload text for a registration id
func (s *Signer) Encode(registrationID int64) (string, error) {
	id := strconv.FormatInt(registrationID, 10)
	b, err := json.Marshal(Payload{RegistrationID: id, Signature: s.sign(id)})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses payload text and returns the registration id it names.
// Every rejection is a MalformedPayload error, including the legacy
// "EVENT:<id>|USER:<id>" format which is no longer honoured.
func (s *Signer) Decode(text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, apperrors.MalformedPayload("payload is empty")
	}
	if strings.HasPrefix(text, "EVENT:") {
		return 0, apperrors.MalformedPayload("legacy EVENT/USER payloads are no longer accepted")
	}

	var p Payload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return 0, apperrors.MalformedPayload("payload is not valid JSON")
	}
	if p.RegistrationID == "" {
		return 0, apperrors.MalformedPayload("registrationId is missing")
	}
	id, err := strconv.ParseInt(p.RegistrationID, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.MalformedPayload("registrationId is not a valid identifier")
	}
	if p.Signature == "" {
		return 0, apperrors.MalformedPayload("signature is missing")
	}

	expected := s.sign(p.RegistrationID)
	if !hmac.Equal([]byte(expected), []byte(p.Signature)) {
		return 0, apperrors.MalformedPayload("signature does not match")
	}
	return id, nil
}

func (s *Signer) sign(id string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte("registration:" + id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

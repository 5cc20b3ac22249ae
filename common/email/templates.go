package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// ============================================================
// TEMPLATE BUILDERS
// ============================================================

// RegistrationEmailData fills the registration confirmation
type RegistrationEmailData struct {
	To             string
	AttendeeName   string
	EventTitle     string
	EventDate      string
	EventTime      string
	Location       string
	RegistrationID int64
	QRCodePNG      []byte
	AdmitCardPDF   []byte
}

// NotificationEmailData fills an administrator broadcast
type NotificationEmailData struct {
	To           string
	AttendeeName string
	EventTitle   string
	Subject      string
	Message      string
}

var registrationTemplate = template.Must(template.New("registration").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2937">
<h2 style="color:#2563eb">You're registered!</h2>
<p>Hi {{.AttendeeName}},</p>
<p>Your registration for <strong>{{.EventTitle}}</strong> is confirmed.</p>
<table style="border-collapse:collapse">
<tr><td style="padding:4px 12px 4px 0;color:#6b7280">Date</td><td>{{.EventDate}}{{if .EventTime}} at {{.EventTime}}{{end}}</td></tr>
<tr><td style="padding:4px 12px 4px 0;color:#6b7280">Venue</td><td>{{.Location}}</td></tr>
<tr><td style="padding:4px 12px 4px 0;color:#6b7280">Registration</td><td>#{{.RegistrationID}}</td></tr>
</table>
{{if .QRCodePNG}}<p>Show this QR code at the entrance:</p>
<img src="cid:registration-qr" alt="Registration QR code" width="220" height="220"/>{{end}}
<p>Your admit card is attached as a PDF.</p>
<p style="color:#6b7280;font-size:12px">EventSync</p>
</body></html>`))

var notificationTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2937">
<h2 style="color:#2563eb">{{.Subject}}</h2>
<p>Hi {{.AttendeeName}},</p>
<p style="white-space:pre-line">{{.Message}}</p>
<p style="color:#6b7280;font-size:12px">You are receiving this because you registered for {{.EventTitle}} on EventSync.</p>
</body></html>`))

// qrContentID is the inline part the confirmation body references
const qrContentID = "registration-qr"

// RegistrationConfirmation builds the confirmation message with the QR code
// inline and the admit card attached
func RegistrationConfirmation(data RegistrationEmailData) (EmailMessage, error) {
	var html bytes.Buffer
	if err := registrationTemplate.Execute(&html, data); err != nil {
		return EmailMessage{}, fmt.Errorf("render registration email: %w", err)
	}

	msg := EmailMessage{
		To:       []string{data.To},
		Subject:  fmt.Sprintf("Registration: %s", data.EventTitle),
		HTMLBody: html.String(),
	}
	if len(data.QRCodePNG) > 0 {
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename:  fmt.Sprintf("registration-%d.png", data.RegistrationID),
			Data:      data.QRCodePNG,
			MimeType:  "image/png",
			ContentID: qrContentID,
		})
	}
	if len(data.AdmitCardPDF) > 0 {
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename: fmt.Sprintf("admit-card-%d.pdf", data.RegistrationID),
			Data:     data.AdmitCardPDF,
			MimeType: "application/pdf",
		})
	}
	return msg, nil
}

// Notification builds an administrator broadcast. The subject gets the
// "[EventSync]" prefix.
func Notification(data NotificationEmailData) (EmailMessage, error) {
	var html bytes.Buffer
	if err := notificationTemplate.Execute(&html, data); err != nil {
		return EmailMessage{}, fmt.Errorf("render notification email: %w", err)
	}
	return EmailMessage{
		To:       []string{data.To},
		Subject:  "[EventSync] " + data.Subject,
		HTMLBody: html.String(),
	}, nil
}

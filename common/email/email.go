package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eventsync-services/common/logger"
)

// ============================================================
// CONFIGURATION & SERVICE
// ============================================================

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

// Mailer sends one message. EmailService is the SMTP implementation.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

type EmailService struct {
	config  Config
	devMode bool
}

// NewEmailService creates an SMTP mailer. Without credentials it runs in dev
// mode and only logs the messages it would have sent.
func NewEmailService(config Config) *EmailService {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.From == "" {
		config.From = config.Username
	}
	return &EmailService{
		config:  config,
		devMode: config.Username == "" || config.Password == "",
	}
}

// DevMode reports whether messages are logged instead of sent
func (s *EmailService) DevMode() bool {
	return s.devMode
}

// ============================================================
// DATA STRUCTURES
// ============================================================

type EmailMessage struct {
	To          []string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Attachment is a file part. With a ContentID it is sent inline and the HTML
// body can reference it as "cid:<ContentID>".
type Attachment struct {
	Filename  string
	Data      []byte
	MimeType  string
	ContentID string
}

// ============================================================
// SENDING ENGINE
// ============================================================

func (s *EmailService) Send(ctx context.Context, msg EmailMessage) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}
	if s.devMode {
		logger.WithContext(ctx).WithFields(map[string]interface{}{
			"to":      strings.Join(msg.To, ", "),
			"subject": msg.Subject,
		}).Debug("[EMAIL] dev mode, message not sent")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	body := s.buildMessage(msg)
	if err := s.deliver(ctx, msg.To, body); err != nil {
		return fmt.Errorf("send email to %s: %w", strings.Join(msg.To, ", "), err)
	}
	return nil
}

// deliver mirrors smtp.SendMail but honours the context deadline
func (s *EmailService) deliver(ctx context.Context, to []string, body []byte) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
			return err
		}
	}
	if ok, _ := client.Extension("AUTH"); ok {
		auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(s.config.From); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func (s *EmailService) buildMessage(msg EmailMessage) []byte {
	var body bytes.Buffer
	mixed := newBoundary()

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.config.FromName), s.config.From)
	}

	body.WriteString(fmt.Sprintf("From: %s\r\n", from))
	body.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ", ")))
	body.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject)))
	body.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mixed))

	var inline, attached []Attachment
	for _, att := range msg.Attachments {
		if att.ContentID != "" {
			inline = append(inline, att)
		} else {
			attached = append(attached, att)
		}
	}

	body.WriteString(fmt.Sprintf("--%s\r\n", mixed))
	if len(inline) > 0 {
		related := newBoundary()
		body.WriteString(fmt.Sprintf("Content-Type: multipart/related; boundary=%s\r\n\r\n", related))
		body.WriteString(fmt.Sprintf("--%s\r\n", related))
		writeHTMLPart(&body, msg.HTMLBody)
		for _, att := range inline {
			body.WriteString(fmt.Sprintf(
				"--%s\r\nContent-Type: %s; name=\"%s\"\r\nContent-Transfer-Encoding: base64\r\nContent-ID: <%s>\r\nContent-Disposition: inline; filename=\"%s\"\r\n\r\n",
				related, att.MimeType, att.Filename, att.ContentID, att.Filename,
			))
			writeBase64Lines(&body, att.Data)
		}
		body.WriteString(fmt.Sprintf("--%s--\r\n", related))
	} else {
		writeHTMLPart(&body, msg.HTMLBody)
	}

	for _, att := range attached {
		body.WriteString(fmt.Sprintf(
			"--%s\r\nContent-Type: %s; name=\"%s\"\r\nContent-Transfer-Encoding: base64\r\nContent-Disposition: attachment; filename=\"%s\"\r\n\r\n",
			mixed, att.MimeType, att.Filename, att.Filename,
		))
		writeBase64Lines(&body, att.Data)
	}
	body.WriteString(fmt.Sprintf("--%s--\r\n", mixed))
	return body.Bytes()
}

func newBoundary() string {
	return "eventsync_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// writeHTMLPart writes the HTML body quoted-printable so no line exceeds the
// SMTP limit and non-ASCII text is declared.
func writeHTMLPart(buf *bytes.Buffer, html string) {
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\nContent-Transfer-Encoding: quoted-printable\r\n\r\n")
	qp := quotedprintable.NewWriter(buf)
	_, _ = qp.Write([]byte(html))
	_ = qp.Close()
	buf.WriteString("\r\n")
}

// writeBase64Lines wraps encoded data at 76 characters per RFC 2045
func writeBase64Lines(buf *bytes.Buffer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")
}

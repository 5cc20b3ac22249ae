package usecase

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventsync-services/common/db"
	"github.com/eventsync-services/common/email"
	apperrors "github.com/eventsync-services/common/errors"
	"github.com/eventsync-services/common/logger"
	"github.com/eventsync-services/common/metrics"
	"github.com/eventsync-services/common/pdf"
	"github.com/eventsync-services/common/qrcode"
	"github.com/eventsync-services/common/router"
	"github.com/eventsync-services/common/validator"
	"github.com/eventsync-services/services/registration-lambda/models"
	"github.com/eventsync-services/services/registration-lambda/repository"
)

const emailDateLayout = "Monday, 02 January 2006"

// RegistrationUseCase handles registration, admit cards and entrance check-in
type RegistrationUseCase struct {
	regRepo *repository.RegistrationRepository
	signer  *qrcode.Signer
	mailer  email.Mailer
	now     func() time.Time
}

// NewRegistrationUseCase creates a new registration use case
func NewRegistrationUseCase(conn *sqlx.DB, signer *qrcode.Signer, mailer email.Mailer) *RegistrationUseCase {
	return &RegistrationUseCase{
		regRepo: repository.NewRegistrationRepository(conn),
		signer:  signer,
		mailer:  mailer,
		now:     db.Now,
	}
}

// Register records attendeeID's registration for an event. The QR payload is
// generated in the same transaction as the insert. A confirmation email with
// the admit card is sent afterwards; its failure never fails the request.
func (uc *RegistrationUseCase) Register(ctx context.Context, attendeeID int64, req models.RegisterRequest) (*models.RegistrationResponse, error) {
	if req.EventID <= 0 {
		return nil, apperrors.ValidationError("Missing eventId").WithField("missing", []string{"eventId"})
	}
	if err := validator.Validate(ctx, req); err != nil {
		return nil, err
	}

	event, err := uc.regRepo.FindEvent(ctx, req.EventID.Int64())
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if event == nil {
		return nil, apperrors.NotFound("Event")
	}

	reg := &models.Registration{
		AttendeeID:          attendeeID,
		EventID:             event.ID,
		Name:                strings.TrimSpace(req.Name),
		Email:               strings.TrimSpace(req.Email),
		Phone:               strings.TrimSpace(req.Phone),
		Address:             optional(req.Address),
		EmergencyContact:    strings.TrimSpace(req.EmergencyContact),
		College:             strings.TrimSpace(req.College),
		Branch:              strings.TrimSpace(req.Branch),
		Year:                strings.TrimSpace(req.Year),
		RollNumber:          strings.TrimSpace(req.RollNumber),
		SpecialRequirements: optional(req.SpecialRequirements),
	}

	err = uc.regRepo.Create(ctx, reg, func(id int64) (string, string, error) {
		payload, err := uc.signer.Encode(id)
		if err != nil {
			return "", "", fmt.Errorf("encode payload: %w", err)
		}
		dataURL, err := qrcode.GenerateQRCodeBase64(payload, qrcode.DefaultSize)
		if err != nil {
			return "", "", err
		}
		return payload, dataURL, nil
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeConflict) {
			metrics.RegistrationConflicts.Inc()
			return nil, err
		}
		return nil, asAppError(err)
	}

	metrics.RegistrationsCreated.Inc()
	logger.WithContext(ctx).LogEvent(logger.EventLog{
		Event:    "registration_created",
		UserID:   attendeeID,
		EntityID: reg.ID,
		Entity:   "registration",
		Action:   "create",
		Success:  true,
		Metadata: map[string]interface{}{"event_id": event.ID},
	})

	uc.sendConfirmation(ctx, reg, event)

	resp := reg.ToResponse()
	resp.Event = event
	return &resp, nil
}

// MyRegistrations lists the attendee's registrations with their events
func (uc *RegistrationUseCase) MyRegistrations(ctx context.Context, attendeeID int64) ([]models.RegistrationResponse, error) {
	details, err := uc.regRepo.ListByAttendee(ctx, attendeeID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	out := make([]models.RegistrationResponse, 0, len(details))
	for _, d := range details {
		resp := d.ToResponse()
		event := d.Event
		resp.Event = &event
		out = append(out, resp)
	}
	return out, nil
}

// AdmitCard renders the admit card PDF. Only the owning attendee or an
// administrator may download it.
func (uc *RegistrationUseCase) AdmitCard(ctx context.Context, caller router.Identity, registrationID int64) ([]byte, string, error) {
	detail, err := uc.findDetail(ctx, registrationID)
	if err != nil {
		return nil, "", err
	}
	if !caller.IsAdmin() && detail.AttendeeID != caller.UserID {
		return nil, "", apperrors.AccessDenied("You can only download your own admit card")
	}

	png, err := qrcode.GenerateQRCodePngBytes(detail.VerificationPayload.String, qrcode.DefaultSize)
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to generate admit card")
	}
	card, err := admitCard(&detail.Registration, &detail.Event, png)
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to generate admit card")
	}
	return card, fmt.Sprintf("admit-card-%d.pdf", detail.ID), nil
}

// Verify resolves a scanned payload without changing anything
func (uc *RegistrationUseCase) Verify(ctx context.Context, payload string) (*models.VerificationResponse, error) {
	id, err := uc.signer.Decode(payload)
	if err != nil {
		return nil, err
	}
	detail, err := uc.findDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := verification(detail)
	return &resp, nil
}

// CheckIn marks the registration a payload names as checked in. Scanning the
// same code again succeeds and reports alreadyCheckedIn.
func (uc *RegistrationUseCase) CheckIn(ctx context.Context, adminID int64, payload string) (*models.CheckInResponse, error) {
	id, err := uc.signer.Decode(payload)
	if err != nil {
		metrics.CheckIns.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if _, err := uc.findDetail(ctx, id); err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
			metrics.CheckIns.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}

	changed, err := uc.regRepo.MarkCheckedIn(ctx, id, uc.now())
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	// Reload so a repeat scan reports the original check-in time
	detail, err := uc.findDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &models.CheckInResponse{
		VerificationResponse: verification(detail),
		AlreadyCheckedIn:     !changed,
		Message:              "Checked in",
	}
	outcome := "checked_in"
	if !changed {
		outcome = "already_checked_in"
		resp.Message = "Already checked in"
	}
	metrics.CheckIns.WithLabelValues(outcome).Inc()

	logger.WithContext(ctx).LogEvent(logger.EventLog{
		Event:    "checkin",
		UserID:   adminID,
		EntityID: id,
		Entity:   "registration",
		Action:   outcome,
		Success:  true,
		Metadata: map[string]interface{}{"event_id": detail.EventID},
	})
	return resp, nil
}

func (uc *RegistrationUseCase) findDetail(ctx context.Context, id int64) (*models.RegistrationDetail, error) {
	detail, err := uc.regRepo.FindDetail(ctx, id)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if detail == nil {
		return nil, apperrors.NotFound("Registration")
	}
	return detail, nil
}

func (uc *RegistrationUseCase) sendConfirmation(ctx context.Context, reg *models.Registration, event *models.EventSummary) {
	log := logger.WithContext(ctx).With("registration_id", reg.ID)

	png, err := qrcode.GenerateQRCodePngBytes(reg.VerificationPayload.String, qrcode.DefaultSize)
	if err != nil {
		log.WithError(err).Warn("[REGISTER] QR image not generated, sending without it")
	}
	var card []byte
	if png != nil {
		if card, err = admitCard(reg, event, png); err != nil {
			log.WithError(err).Warn("[REGISTER] admit card not generated, sending without attachment")
		}
	}

	msg, err := email.RegistrationConfirmation(email.RegistrationEmailData{
		To:             reg.Email,
		AttendeeName:   reg.Name,
		EventTitle:     event.Title,
		EventDate:      event.Date.Format(emailDateLayout),
		EventTime:      deref(event.Time),
		Location:       event.Location,
		RegistrationID: reg.ID,
		QRCodePNG:      png,
		AdmitCardPDF:   card,
	})
	if err != nil {
		log.WithError(err).Error("[REGISTER] failed to build confirmation email")
		return
	}

	err = uc.mailer.Send(ctx, msg)
	metrics.EmailsSent.WithLabelValues("registration", metrics.EmailResult(err)).Inc()
	if err != nil {
		log.WithError(err).Warn("[REGISTER] confirmation email to %s failed", reg.Email)
		return
	}
	log.Info("[REGISTER] confirmation sent to %s", reg.Email)
}

func admitCard(reg *models.Registration, event *models.EventSummary, png []byte) ([]byte, error) {
	return pdf.GenerateAdmitCard(pdf.AdmitCardData{
		RegistrationID: reg.ID,
		EventTitle:     event.Title,
		EventDate:      event.Date,
		EventTime:      deref(event.Time),
		Location:       event.Location,
		AttendeeName:   reg.Name,
		AttendeeEmail:  reg.Email,
		College:        reg.College,
		Branch:         reg.Branch,
		Year:           reg.Year,
		RollNumber:     reg.RollNumber,
		QRCodePngBytes: png,
	})
}

func verification(d *models.RegistrationDetail) models.VerificationResponse {
	resp := models.VerificationResponse{
		RegistrationID: d.ID,
		User:           d.Account,
		Attendee: models.AttendeeInfo{
			Name:       d.Name,
			Email:      d.Email,
			Phone:      d.Phone,
			College:    d.College,
			Branch:     d.Branch,
			Year:       d.Year,
			RollNumber: d.RollNumber,
		},
		Event:     d.Event,
		CheckedIn: d.CheckedIn,
	}
	if d.CheckedInAt.Valid {
		t := d.CheckedInAt.Time
		resp.CheckedInAt = &t
	}
	return resp
}

func optional(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func asAppError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.DatabaseError(err)
}

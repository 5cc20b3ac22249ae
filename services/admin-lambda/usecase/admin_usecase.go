package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/eventsync-services/common/db"
	"github.com/eventsync-services/common/email"
	apperrors "github.com/eventsync-services/common/errors"
	"github.com/eventsync-services/common/logger"
	"github.com/eventsync-services/common/metrics"
	"github.com/eventsync-services/common/validator"
	"github.com/eventsync-services/services/admin-lambda/models"
	"github.com/eventsync-services/services/admin-lambda/repository"
)

const (
	recentEventsLimit        = 5
	recentRegistrationsLimit = 10
	defaultSendTimeout       = 20 * time.Second
)

// Config tunes bulk notification delivery
type Config struct {
	NotifyConcurrency int
	SendTimeout       time.Duration
}

// AdminUseCase handles the administrator dashboard, exports and notifications
type AdminUseCase struct {
	adminRepo *repository.AdminRepository
	mailer    email.Mailer
	config    Config
	now       func() time.Time
}

// NewAdminUseCase creates a new admin use case
func NewAdminUseCase(conn *sqlx.DB, mailer email.Mailer, config Config) *AdminUseCase {
	if config.NotifyConcurrency <= 0 {
		config.NotifyConcurrency = 1
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = defaultSendTimeout
	}
	return &AdminUseCase{
		adminRepo: repository.NewAdminRepository(conn),
		mailer:    mailer,
		config:    config,
		now:       db.Now,
	}
}

// Dashboard returns aggregate counts and recent activity
func (uc *AdminUseCase) Dashboard(ctx context.Context) (*models.DashboardResponse, error) {
	counts, err := uc.adminRepo.Counts(ctx, uc.now())
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	events, err := uc.adminRepo.RecentEvents(ctx, recentEventsLimit)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	regs, err := uc.adminRepo.RecentRegistrations(ctx, recentRegistrationsLimit)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	return &models.DashboardResponse{
		TotalEvents:         counts.TotalEvents,
		TotalRegistrations:  counts.TotalRegistrations,
		TotalAttendees:      counts.TotalAttendees,
		CheckedInCount:      counts.CheckedIn,
		RecentEvents:        events,
		RecentRegistrations: regs,
	}, nil
}

// Stats returns the public landing page numbers
func (uc *AdminUseCase) Stats(ctx context.Context) (*models.StatsResponse, error) {
	counts, err := uc.adminRepo.Counts(ctx, uc.now())
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return &models.StatsResponse{
		TotalAttendees:     counts.TotalAttendees,
		TotalEvents:        counts.TotalEvents,
		UpcomingEvents:     counts.UpcomingEvents,
		TotalRegistrations: counts.TotalRegistrations,
	}, nil
}

// ExportAllData returns events with exactly their own registrations, plus
// every administrator and attendee. With limit 0 the export is complete;
// otherwise page and limit select a page of events.
func (uc *AdminUseCase) ExportAllData(ctx context.Context, page, limit int) (*models.ExportResponse, error) {
	offset := 0
	if limit > 0 {
		offset = (page - 1) * limit
	}

	events, err := uc.adminRepo.ListEvents(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	regs, err := uc.adminRepo.RegistrationsForEvents(ctx, ids)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	byEvent := make(map[int64][]models.RegistrationRow, len(events))
	for _, reg := range regs {
		byEvent[reg.EventID] = append(byEvent[reg.EventID], reg)
	}

	out := &models.ExportResponse{Events: make([]models.ExportEvent, 0, len(events))}
	for _, e := range events {
		list := byEvent[e.ID]
		if list == nil {
			list = []models.RegistrationRow{}
		}
		out.Events = append(out.Events, models.ExportEvent{EventRow: e, Registrations: list})
	}

	if out.Admins, err = uc.adminRepo.ListAdmins(ctx); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if out.Attendees, err = uc.adminRepo.ListAttendees(ctx); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	if limit > 0 {
		total, err := uc.adminRepo.CountEvents(ctx)
		if err != nil {
			return nil, apperrors.DatabaseError(err)
		}
		out.Pagination = &models.PageInfo{
			CurrentPage:  page,
			TotalPages:   (total + limit - 1) / limit,
			TotalRecords: total,
		}
	}
	return out, nil
}

// EventRegistrations returns one page of an event's registrations
func (uc *AdminUseCase) EventRegistrations(ctx context.Context, eventID int64, page, limit int) ([]models.RegistrationRow, int, error) {
	if err := uc.requireEvent(ctx, eventID); err != nil {
		return nil, 0, err
	}
	rows, total, err := uc.adminRepo.ListEventRegistrations(ctx, eventID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, apperrors.DatabaseError(err)
	}
	return rows, total, nil
}

// ListAttendees returns every attendee account
func (uc *AdminUseCase) ListAttendees(ctx context.Context) ([]models.AttendeeRow, error) {
	rows, err := uc.adminRepo.ListAttendees(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return rows, nil
}

// NotifyRegistrants emails every registrant of an event. Delivery failures
// are counted per recipient and never fail the batch.
func (uc *AdminUseCase) NotifyRegistrants(ctx context.Context, adminID int64, req models.NotifyRequest) (*models.NotifyResult, error) {
	if req.EventID <= 0 {
		return nil, apperrors.ValidationError("Missing eventId").WithField("missing", []string{"eventId"})
	}
	if err := validator.Validate(ctx, req); err != nil {
		return nil, err
	}

	eventID := req.EventID.Int64()
	title, err := uc.adminRepo.EventTitle(ctx, eventID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if title == "" {
		return nil, apperrors.NotFound("Event")
	}

	recipients, err := uc.adminRepo.Recipients(ctx, eventID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if len(recipients) == 0 {
		return nil, apperrors.ValidationError("No registrations found for this event")
	}

	var sent, failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(uc.config.NotifyConcurrency)
	for _, rcpt := range recipients {
		rcpt := rcpt
		g.Go(func() error {
			if err := uc.notify(ctx, rcpt, title, req); err != nil {
				failed.Add(1)
				logger.WithContext(ctx).WithError(err).Warn("[NOTIFY] delivery to %s failed", rcpt.Email)
			} else {
				sent.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := &models.NotifyResult{
		Total:  len(recipients),
		Sent:   int(sent.Load()),
		Failed: int(failed.Load()),
	}
	result.Message = fmt.Sprintf("Notifications sent to %d of %d registrants", result.Sent, result.Total)

	logger.WithContext(ctx).LogEvent(logger.EventLog{
		Event:    "notification_batch",
		UserID:   adminID,
		EntityID: eventID,
		Entity:   "event",
		Action:   "send_notifications",
		Success:  result.Failed == 0,
		Metadata: map[string]interface{}{"total": result.Total, "sent": result.Sent, "failed": result.Failed},
	})
	return result, nil
}

func (uc *AdminUseCase) notify(ctx context.Context, rcpt models.Recipient, eventTitle string, req models.NotifyRequest) error {
	msg, err := email.Notification(email.NotificationEmailData{
		To:           rcpt.Email,
		AttendeeName: rcpt.Name,
		EventTitle:   eventTitle,
		Subject:      req.Subject,
		Message:      req.Message,
	})
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, uc.config.SendTimeout)
	defer cancel()
	err = uc.mailer.Send(sendCtx, msg)
	metrics.EmailsSent.WithLabelValues("notification", metrics.EmailResult(err)).Inc()
	return err
}

func (uc *AdminUseCase) requireEvent(ctx context.Context, eventID int64) error {
	title, err := uc.adminRepo.EventTitle(ctx, eventID)
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	if title == "" {
		return apperrors.NotFound("Event")
	}
	return nil
}

package usecase

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/eventsync-services/common/errors"
	"github.com/eventsync-services/common/logger"
	"github.com/eventsync-services/common/storage"
	"github.com/eventsync-services/common/validator"
	"github.com/eventsync-services/services/event-lambda/models"
	"github.com/eventsync-services/services/event-lambda/repository"
)

// EventUseCase handles event business logic
type EventUseCase struct {
	eventRepo *repository.EventRepository
	images    storage.ImageStore
}

// NewEventUseCase creates a new event use case
func NewEventUseCase(conn *sqlx.DB, images storage.ImageStore) *EventUseCase {
	return &EventUseCase{
		eventRepo: repository.NewEventRepository(conn),
		images:    images,
	}
}

// ListEvents returns every event sorted by date ascending
func (uc *EventUseCase) ListEvents(ctx context.Context) ([]models.EventResponse, error) {
	events, err := uc.eventRepo.List(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	out := make([]models.EventResponse, 0, len(events))
	for i := range events {
		out = append(out, events[i].ToResponse())
	}
	return out, nil
}

// GetEvent returns one event with its registration count
func (uc *EventUseCase) GetEvent(ctx context.Context, id int64) (*models.EventResponse, error) {
	event, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := uc.eventRepo.CountRegistrations(ctx, id)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	resp := event.ToResponse()
	resp.RegistrationCount = &count
	return &resp, nil
}

// CreateEvent stores a new event created by adminID
func (uc *EventUseCase) CreateEvent(ctx context.Context, adminID int64, req models.EventRequest) (*models.EventResponse, error) {
	event := &models.Event{CreatedBy: sql.NullInt64{Int64: adminID, Valid: adminID > 0}}
	if err := applyRequest(ctx, event, req); err != nil {
		return nil, err
	}

	if req.Image != "" {
		imageURL, imageKey, err := uc.storeImage(ctx, req.Image)
		if err != nil {
			return nil, err
		}
		event.ImageURL = nullable(imageURL)
		event.ImageKey = nullable(imageKey)
	}

	if err := uc.eventRepo.Create(ctx, event); err != nil {
		uc.deleteImage(ctx, event.ImageKey.String)
		return nil, apperrors.DatabaseError(err)
	}

	logger.WithContext(ctx).LogEvent(logger.EventLog{
		Event: "event_created", UserID: adminID, Entity: "event", EntityID: event.ID,
		Action: "create", Success: true,
	})
	resp := event.ToResponse()
	return &resp, nil
}

// UpdateEvent replaces the editable fields of an event. A replaced or removed
// hosted image is deleted after the row is saved.
func (uc *EventUseCase) UpdateEvent(ctx context.Context, adminID, id int64, req models.EventRequest) (*models.EventResponse, error) {
	event, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyRequest(ctx, event, req); err != nil {
		return nil, err
	}

	previousKey := event.ImageKey.String
	switch {
	case req.Image != "" && req.Image != event.ImageURL.String:
		imageURL, imageKey, err := uc.storeImage(ctx, req.Image)
		if err != nil {
			return nil, err
		}
		event.ImageURL = nullable(imageURL)
		event.ImageKey = nullable(imageKey)
	case req.Image == "" && req.RemoveImage:
		event.ImageURL = sql.NullString{}
		event.ImageKey = sql.NullString{}
	}

	if err := uc.eventRepo.Update(ctx, event); err != nil {
		if event.ImageKey.String != previousKey {
			uc.deleteImage(ctx, event.ImageKey.String)
		}
		return nil, apperrors.DatabaseError(err)
	}
	if previousKey != "" && previousKey != event.ImageKey.String {
		uc.deleteImage(ctx, previousKey)
	}

	logger.WithContext(ctx).LogEvent(logger.EventLog{
		Event: "event_updated", UserID: adminID, Entity: "event", EntityID: event.ID,
		Action: "update", Success: true,
	})
	resp := event.ToResponse()
	return &resp, nil
}

// DeleteEvent removes the event together with its registrations, then its
// hosted image. A failed image delete is logged only.
func (uc *EventUseCase) DeleteEvent(ctx context.Context, adminID, id int64) error {
	event, err := uc.find(ctx, id)
	if err != nil {
		return err
	}

	removed, err := uc.eventRepo.Delete(ctx, id)
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.DatabaseError(err)
	}
	uc.deleteImage(ctx, event.ImageKey.String)

	logger.WithContext(ctx).LogEvent(logger.EventLog{
		Event: "event_deleted", UserID: adminID, Entity: "event", EntityID: id,
		Action: "delete", Success: true,
		Metadata: map[string]interface{}{"registrations_removed": removed},
	})
	return nil
}

func (uc *EventUseCase) find(ctx context.Context, id int64) (*models.Event, error) {
	event, err := uc.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if event == nil {
		return nil, apperrors.NotFound("Event")
	}
	return event, nil
}

// storeImage uploads a data: URL or accepts an http(s) URL as-is. The
// returned key is empty for images this service does not host.
func (uc *EventUseCase) storeImage(ctx context.Context, image string) (string, string, error) {
	if !storage.IsDataURL(image) {
		u, err := url.Parse(image)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "", "", apperrors.InvalidInput("image", "Image must be an http(s) URL or a data URL")
		}
		return image, "", nil
	}

	data, contentType, ext, err := storage.ParseImageDataURL(image)
	if err != nil {
		return "", "", apperrors.InvalidInput("image", err.Error())
	}

	key := "events/" + uuid.NewString() + "." + ext
	imageURL, err := uc.images.Upload(ctx, key, data, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			return "", "", apperrors.ValidationError("Image uploads are not enabled, provide an image URL instead")
		}
		return "", "", apperrors.StorageError(err)
	}
	return imageURL, key, nil
}

func (uc *EventUseCase) deleteImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := uc.images.Delete(ctx, key); err != nil {
		logger.WithContext(ctx).WithError(err).With("image_key", key).Warn("[EVENT] failed to delete hosted image")
	}
}

func applyRequest(ctx context.Context, event *models.Event, req models.EventRequest) error {
	if err := validator.Validate(ctx, req); err != nil {
		return err
	}
	date, err := ParseEventDate(req.Date)
	if err != nil {
		return apperrors.InvalidInput("date", "Date must be RFC 3339 or YYYY-MM-DD")
	}

	event.Title = strings.TrimSpace(req.Title)
	event.Description = nullable(strings.TrimSpace(req.Description))
	event.EventDate = date
	event.EventTime = nullable(strings.TrimSpace(req.Time))
	event.Category = nullable(strings.TrimSpace(req.Category))
	event.Location = strings.TrimSpace(req.Location)
	event.Capacity = sql.NullInt64{}
	if req.Capacity != nil {
		event.Capacity = sql.NullInt64{Int64: *req.Capacity, Valid: true}
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

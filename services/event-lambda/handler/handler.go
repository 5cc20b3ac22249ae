package handler

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/eventsync-services/common/response"
	"github.com/eventsync-services/common/router"
	"github.com/eventsync-services/services/event-lambda/models"
	"github.com/eventsync-services/services/event-lambda/usecase"
)

// EventHandler handles event requests
type EventHandler struct {
	useCase *usecase.EventUseCase
}

// NewEventHandler creates a new event handler
func NewEventHandler(useCase *usecase.EventUseCase) *EventHandler {
	return &EventHandler{useCase: useCase}
}

// Routes returns the /api/events route table
func (h *EventHandler) Routes() []router.Route {
	return []router.Route{
		{Method: http.MethodGet, Path: "/api/events", Access: router.Public, Handler: h.HandleGetEvents},
		{Method: http.MethodGet, Path: "/api/events/{id}", Access: router.Public, Handler: h.HandleGetEventDetail},
		{Method: http.MethodPost, Path: "/api/events", Access: router.AdminOnly, Handler: h.HandleCreateEvent},
		{Method: http.MethodPut, Path: "/api/events/{id}", Access: router.AdminOnly, Handler: h.HandleUpdateEvent},
		{Method: http.MethodDelete, Path: "/api/events/{id}", Access: router.AdminOnly, Handler: h.HandleDeleteEvent},
	}
}

// HandleGetEvents handles GET /api/events
func (h *EventHandler) HandleGetEvents(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	list, err := h.useCase.ListEvents(ctx)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusOK, list)
}

// HandleGetEventDetail handles GET /api/events/{id}
func (h *EventHandler) HandleGetEventDetail(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id, err := router.PathInt64(request, "id")
	if err != nil {
		return response.Error(ctx, err)
	}

	event, err := h.useCase.GetEvent(ctx, id)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusOK, event)
}

// HandleCreateEvent handles POST /api/events
func (h *EventHandler) HandleCreateEvent(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	identity, _ := router.IdentityFrom(request)

	var req models.EventRequest
	if err := router.DecodeJSON(request, &req); err != nil {
		return response.Error(ctx, err)
	}

	event, err := h.useCase.CreateEvent(ctx, identity.UserID, req)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusCreated, event)
}

// HandleUpdateEvent handles PUT /api/events/{id}
func (h *EventHandler) HandleUpdateEvent(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	identity, _ := router.IdentityFrom(request)
	id, err := router.PathInt64(request, "id")
	if err != nil {
		return response.Error(ctx, err)
	}

	var req models.EventRequest
	if err := router.DecodeJSON(request, &req); err != nil {
		return response.Error(ctx, err)
	}

	event, err := h.useCase.UpdateEvent(ctx, identity.UserID, id, req)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusOK, event)
}

// HandleDeleteEvent handles DELETE /api/events/{id}
func (h *EventHandler) HandleDeleteEvent(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	identity, _ := router.IdentityFrom(request)
	id, err := router.PathInt64(request, "id")
	if err != nil {
		return response.Error(ctx, err)
	}

	if err := h.useCase.DeleteEvent(ctx, identity.UserID, id); err != nil {
		return response.Error(ctx, err)
	}
	return response.Message(http.StatusOK, "Deleted")
}

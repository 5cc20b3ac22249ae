package handler

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/eventsync-services/common/response"
	"github.com/eventsync-services/common/router"
	"github.com/eventsync-services/services/admin-lambda/models"
	"github.com/eventsync-services/services/admin-lambda/usecase"
)

// AdminHandler handles administrator requests and the public stats
type AdminHandler struct {
	useCase *usecase.AdminUseCase
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(useCase *usecase.AdminUseCase) *AdminHandler {
	return &AdminHandler{useCase: useCase}
}

// Routes returns the /api/admin routes and /api/stats
func (h *AdminHandler) Routes() []router.Route {
	return []router.Route{
		{Method: http.MethodGet, Path: "/api/admin/dashboard", Access: router.AdminOnly, Handler: h.HandleDashboard},
		{Method: http.MethodGet, Path: "/api/admin/all-data", Access: router.AdminOnly, Handler: h.HandleExportAllData},
		{Method: http.MethodPost, Path: "/api/admin/send-notifications", Access: router.AdminOnly, Handler: h.HandleSendNotifications},
		{Method: http.MethodGet, Path: "/api/admin/events/{eventId}/registrations", Access: router.AdminOnly, Handler: h.HandleEventRegistrations},
		{Method: http.MethodGet, Path: "/api/admin/users", Access: router.AdminOnly, Handler: h.HandleListAttendees},
		{Method: http.MethodGet, Path: "/api/stats", Access: router.Public, Handler: h.HandleStats},
	}
}

// HandleDashboard handles GET /api/admin/dashboard
func (h *AdminHandler) HandleDashboard(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	dash, err := h.useCase.Dashboard(ctx)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusOK, dash)
}

// HandleExportAllData handles GET /api/admin/all-data[?page=&limit=]
func (h *AdminHandler) HandleExportAllData(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	page, limit, _ := router.Pagination(request)

	export, err := h.useCase.ExportAllData(ctx, page, limit)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusOK, export)
}

// HandleSendNotifications handles POST /api/admin/send-notifications
func (h *AdminHandler) HandleSendNotifications(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	identity, _ := router.IdentityFrom(request)

	var req models.NotifyRequest
	if err := router.DecodeJSON(request, &req); err != nil {
		return response.Error(ctx, err)
	}

	result, err := h.useCase.NotifyRegistrants(ctx, identity.UserID, req)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusOK, result)
}

// HandleEventRegistrations handles GET /api/admin/events/{eventId}/registrations
func (h *AdminHandler) HandleEventRegistrations(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	eventID, err := router.PathInt64(request, "eventId")
	if err != nil {
		return response.Error(ctx, err)
	}
	page, limit, ok := router.Pagination(request)
	if !ok {
		page, limit = 1, router.DefaultPageSize
	}

	rows, total, err := h.useCase.EventRegistrations(ctx, eventID, page, limit)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusOK, response.NewPaginated(rows, page, limit, total))
}

// HandleListAttendees handles GET /api/admin/users
func (h *AdminHandler) HandleListAttendees(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	list, err := h.useCase.ListAttendees(ctx)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusOK, list)
}

// HandleStats handles GET /api/stats
func (h *AdminHandler) HandleStats(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	stats, err := h.useCase.Stats(ctx)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusOK, stats)
}

package handler

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/eventsync-services/common/response"
	"github.com/eventsync-services/common/router"
	"github.com/eventsync-services/services/registration-lambda/models"
	"github.com/eventsync-services/services/registration-lambda/usecase"
)

// RegistrationHandler handles registration and check-in requests
type RegistrationHandler struct {
	useCase *usecase.RegistrationUseCase
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(useCase *usecase.RegistrationUseCase) *RegistrationHandler {
	return &RegistrationHandler{useCase: useCase}
}

// Routes returns the /api/register route table
func (h *RegistrationHandler) Routes() []router.Route {
	return []router.Route{
		{Method: http.MethodPost, Path: "/api/register", Access: router.AttendeeOnly, Handler: h.HandleRegister},
		{Method: http.MethodGet, Path: "/api/register/me", Access: router.AttendeeOnly, Handler: h.HandleMyRegistrations},
		{Method: http.MethodPost, Path: "/api/register/scan", Access: router.Public, Handler: h.HandleScan},
		{Method: http.MethodPost, Path: "/api/register/checkin", Access: router.AdminOnly, Handler: h.HandleCheckIn},
		{Method: http.MethodGet, Path: "/api/register/{id}/admit-card", Access: router.Authenticated, Handler: h.HandleAdmitCard},
	}
}

// HandleRegister handles POST /api/register
func (h *RegistrationHandler) HandleRegister(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	identity, _ := router.IdentityFrom(request)

	var req models.RegisterRequest
	if err := router.DecodeJSON(request, &req); err != nil {
		return response.Error(ctx, err)
	}

	reg, err := h.useCase.Register(ctx, identity.UserID, req)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusCreated, reg)
}

// HandleMyRegistrations handles GET /api/register/me
func (h *RegistrationHandler) HandleMyRegistrations(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	identity, _ := router.IdentityFrom(request)

	list, err := h.useCase.MyRegistrations(ctx, identity.UserID)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusOK, list)
}

// HandleScan handles POST /api/register/scan. It only reads.
func (h *RegistrationHandler) HandleScan(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var req models.ScanRequest
	if err := router.DecodeJSON(request, &req); err != nil {
		return response.Error(ctx, err)
	}

	result, err := h.useCase.Verify(ctx, req.QR)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusOK, result)
}

// HandleCheckIn handles POST /api/register/checkin
func (h *RegistrationHandler) HandleCheckIn(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	identity, _ := router.IdentityFrom(request)

	var req models.ScanRequest
	if err := router.DecodeJSON(request, &req); err != nil {
		return response.Error(ctx, err)
	}

	result, err := h.useCase.CheckIn(ctx, identity.UserID, req.QR)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusOK, result)
}

// HandleAdmitCard handles GET /api/register/{id}/admit-card
func (h *RegistrationHandler) HandleAdmitCard(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	identity, _ := router.IdentityFrom(request)
	id, err := router.PathInt64(request, "id")
	if err != nil {
		return response.Error(ctx, err)
	}

	card, filename, err := h.useCase.AdmitCard(ctx, identity, id)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.Binary(http.StatusOK, "application/pdf", filename, card)
}

package handler

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	apperrors "github.com/eventsync-services/common/errors"
	"github.com/eventsync-services/common/response"
	"github.com/eventsync-services/common/router"
	"github.com/eventsync-services/services/auth-lambda/models"
	"github.com/eventsync-services/services/auth-lambda/usecase"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	useCase *usecase.AuthUseCase
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(useCase *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{useCase: useCase}
}

// Routes returns the /api/auth route table
func (h *AuthHandler) Routes() []router.Route {
	return []router.Route{
		{Method: http.MethodPost, Path: "/api/auth/register", Access: router.Public, Handler: h.HandleRegister},
		{Method: http.MethodPost, Path: "/api/auth/login", Access: router.Public, Handler: h.HandleLogin},
		{Method: http.MethodPost, Path: "/api/auth/admin/login", Access: router.Public, Handler: h.HandleAdminLogin},
		{Method: http.MethodPost, Path: "/api/auth/admin/register", Access: router.Public, Handler: h.HandleAdminRegister},
		{Method: http.MethodGet, Path: "/api/auth/admin/key-status", Access: router.Public, Handler: h.HandleKeyStatus},
		{Method: http.MethodGet, Path: "/api/auth/me", Access: router.Authenticated, Handler: h.HandleMe},
		{Method: http.MethodPut, Path: "/api/auth/profile", Access: router.AttendeeOnly, Handler: h.HandleUpdateProfile},
		{Method: http.MethodPut, Path: "/api/auth/change-password", Access: router.AttendeeOnly, Handler: h.HandleChangePassword},
		{Method: http.MethodDelete, Path: "/api/auth/profile", Access: router.AttendeeOnly, Handler: h.HandleDeleteAccount},
	}
}

// HandleRegister handles POST /api/auth/register
func (h *AuthHandler) HandleRegister(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var req models.RegisterRequest
	if err := router.DecodeJSON(request, &req); err != nil {
		return response.Error(ctx, err)
	}

	result, err := h.useCase.RegisterAttendee(ctx, req)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusCreated, result)
}

// HandleLogin handles POST /api/auth/login
func (h *AuthHandler) HandleLogin(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var req models.LoginRequest
	if err := router.DecodeJSON(request, &req); err != nil {
		return response.Error(ctx, err)
	}

	result, err := h.useCase.LoginAttendee(ctx, req)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusOK, result)
}

// HandleAdminLogin handles POST /api/auth/admin/login
func (h *AuthHandler) HandleAdminLogin(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var req models.AdminLoginRequest
	if err := router.DecodeJSON(request, &req); err != nil {
		return response.Error(ctx, err)
	}

	result, err := h.useCase.LoginAdmin(ctx, req)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusOK, result)
}

// HandleAdminRegister handles POST /api/auth/admin/register
func (h *AuthHandler) HandleAdminRegister(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var req models.AdminRegisterRequest
	if err := router.DecodeJSON(request, &req); err != nil {
		return response.Error(ctx, err)
	}

	result, err := h.useCase.RegisterAdmin(ctx, req)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusCreated, result)
}

// HandleKeyStatus handles GET /api/auth/admin/key-status
func (h *AuthHandler) HandleKeyStatus(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return response.JSON(http.StatusOK, h.useCase.AdminKeyStatus())
}

// HandleMe handles GET /api/auth/me
func (h *AuthHandler) HandleMe(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	identity, ok := router.IdentityFrom(request)
	if !ok {
		return response.Error(ctx, apperrors.Unauthorized("Not authorized"))
	}

	user, err := h.useCase.Me(ctx, identity)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusOK, map[string]interface{}{"user": user})
}

// HandleUpdateProfile handles PUT /api/auth/profile
func (h *AuthHandler) HandleUpdateProfile(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	identity, ok := router.IdentityFrom(request)
	if !ok {
		return response.Error(ctx, apperrors.Unauthorized("Not authorized"))
	}

	var req models.UpdateProfileRequest
	if err := router.DecodeJSON(request, &req); err != nil {
		return response.Error(ctx, err)
	}

	user, err := h.useCase.UpdateProfile(ctx, identity.UserID, req)
	if err != nil {
		return response.Error(ctx, err)
	}
	return response.JSON(http.StatusOK, map[string]interface{}{"user": user})
}

// HandleChangePassword handles PUT /api/auth/change-password
func (h *AuthHandler) HandleChangePassword(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	identity, ok := router.IdentityFrom(request)
	if !ok {
		return response.Error(ctx, apperrors.Unauthorized("Not authorized"))
	}

	var req models.ChangePasswordRequest
	if err := router.DecodeJSON(request, &req); err != nil {
		return response.Error(ctx, err)
	}

	if err := h.useCase.ChangePassword(ctx, identity.UserID, req); err != nil {
		return response.Error(ctx, err)
	}
	return response.Message(http.StatusOK, "Password changed successfully")
}

// HandleDeleteAccount handles DELETE /api/auth/profile
func (h *AuthHandler) HandleDeleteAccount(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	identity, ok := router.IdentityFrom(request)
	if !ok {
		return response.Error(ctx, apperrors.Unauthorized("Not authorized"))
	}

	if err := h.useCase.DeleteAccount(ctx, identity.UserID); err != nil {
		return response.Error(ctx, err)
	}
	return response.Message(http.StatusOK, "Account deleted successfully")
}

package router

import (
	"context"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	apperrors "github.com/eventsync-services/common/errors"
	"github.com/eventsync-services/common/jwt"
	"github.com/eventsync-services/common/logger"
	"github.com/eventsync-services/common/response"
)

// Headers set by Authenticate for handlers. Client-supplied values are
// always discarded first.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserRole  = "X-User-Role"
	HeaderUserEmail = "X-User-Email"
)

// Identity is the resolved caller
type Identity struct {
	UserID int64
	Role   string
	Email  string
}

func (i Identity) IsAdmin() bool {
	return i.Role == jwt.RoleAdmin
}

// IdentityResolver validates a bearer token and loads the account it names
type IdentityResolver func(ctx context.Context, token string) (Identity, error)

// Authenticate resolves the bearer token and enforces the route's access level
func Authenticate(resolve IdentityResolver, access Access) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
			request.Headers = stripIdentityHeaders(request.Headers)

			token := bearerToken(request)
			if token == "" {
				if access != Public {
					return response.Error(ctx, apperrors.Unauthorized("Not authorized, no token"))
				}
				return next(ctx, request)
			}

			identity, err := resolve(ctx, token)
			if err != nil {
				if access == Public {
					logger.WithContext(ctx).WithError(err).Debug("[AUTH] ignoring invalid token on public route")
					return next(ctx, request)
				}
				return response.Error(ctx, err)
			}

			switch access {
			case AttendeeOnly:
				if identity.Role != jwt.RoleAttendee {
					return response.Error(ctx, apperrors.AccessDenied("This action is only available to attendees"))
				}
			case AdminOnly:
				if identity.Role != jwt.RoleAdmin {
					return response.Error(ctx, apperrors.AccessDenied("Administrator access required"))
				}
			}

			request.Headers[HeaderUserID] = strconv.FormatInt(identity.UserID, 10)
			request.Headers[HeaderUserRole] = identity.Role
			request.Headers[HeaderUserEmail] = identity.Email
			ctx = logger.ContextWithUserID(ctx, identity.UserID)
			recordCaller(ctx, identity.UserID)
			return next(ctx, request)
		}
	}
}

// IdentityFrom returns the caller set by Authenticate
func IdentityFrom(request events.APIGatewayProxyRequest) (Identity, bool) {
	id, err := strconv.ParseInt(request.Headers[HeaderUserID], 10, 64)
	if err != nil || id <= 0 {
		return Identity{}, false
	}
	return Identity{
		UserID: id,
		Role:   request.Headers[HeaderUserRole],
		Email:  request.Headers[HeaderUserEmail],
	}, true
}

// Header looks a header up case-insensitively
func Header(request events.APIGatewayProxyRequest, name string) string {
	if v, ok := request.Headers[name]; ok {
		return v
	}
	for k, v := range request.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func bearerToken(request events.APIGatewayProxyRequest) string {
	auth := Header(request, "Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func stripIdentityHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers)+3)
	for k, v := range headers {
		if strings.EqualFold(k, HeaderUserID) || strings.EqualFold(k, HeaderUserRole) || strings.EqualFold(k, HeaderUserEmail) {
			continue
		}
		out[k] = v
	}
	return out
}

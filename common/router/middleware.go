package router

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	apperrors "github.com/eventsync-services/common/errors"
	"github.com/eventsync-services/common/logger"
	"github.com/eventsync-services/common/metrics"
	"github.com/eventsync-services/common/response"
)

const HeaderRequestID = "X-Request-Id"

type callerKey struct{}

// caller is filled in by Authenticate so Logging, which runs outside it, can
// log the user id.
type caller struct {
	userID int64
}

func withCaller(ctx context.Context) (context.Context, *caller) {
	c := &caller{}
	return context.WithValue(ctx, callerKey{}, c), c
}

func recordCaller(ctx context.Context, userID int64) {
	if c, ok := ctx.Value(callerKey{}).(*caller); ok {
		c.userID = userID
	}
}

// Logging assigns a request id, logs one line per request and records
// request metrics.
func Logging() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
			start := time.Now()

			requestID := Header(request, HeaderRequestID)
			if requestID == "" {
				requestID = request.RequestContext.RequestID
			}
			if requestID == "" {
				requestID = uuid.NewString()
			}
			ctx = logger.ContextWithRequestID(ctx, requestID)
			ctx, who := withCaller(ctx)

			resp, err := next(ctx, request)
			status := resp.StatusCode
			if err != nil {
				status = http.StatusInternalServerError
			}
			if resp.Headers == nil {
				resp.Headers = map[string]string{}
			}
			resp.Headers[HeaderRequestID] = requestID

			duration := time.Since(start)
			metrics.HTTPRequests.WithLabelValues(request.HTTPMethod, request.Resource, strconv.Itoa(status)).Inc()
			metrics.HTTPDuration.WithLabelValues(request.HTTPMethod, request.Resource).Observe(duration.Seconds())

			entry := logger.RequestLog{
				Method:       request.HTTPMethod,
				Path:         request.Path,
				Status:       status,
				Duration:     duration,
				ClientIP:     request.RequestContext.Identity.SourceIP,
				UserAgent:    request.RequestContext.Identity.UserAgent,
				RequestID:    requestID,
				UserID:       who.userID,
				ResponseSize: int64(len(resp.Body)),
			}
			if err != nil {
				entry.Error = err.Error()
			}
			logger.Default().LogRequest(entry)

			return resp, err
		}
	}
}

// Recover turns handler panics into 500 responses
func Recover() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, request events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
			defer func() {
				if p := recover(); p != nil {
					resp, err = response.Error(ctx, apperrors.Wrap(fmt.Errorf("panic: %v", p), apperrors.ErrCodeInternal, "Internal server error"))
				}
			}()
			return next(ctx, request)
		}
	}
}

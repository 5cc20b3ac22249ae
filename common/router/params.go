package router

import (
	"encoding/json"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	apperrors "github.com/eventsync-services/common/errors"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PathInt64 parses a numeric path parameter
func PathInt64(request events.APIGatewayProxyRequest, name string) (int64, error) {
	raw := request.PathParameters[name]
	if raw == "" {
		return 0, apperrors.MissingField(name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidInput(name, "Invalid "+name)
	}
	return id, nil
}

// Pagination reads page/limit. ok is false when neither is present, in which
// case callers return the complete list.
func Pagination(request events.APIGatewayProxyRequest) (page, limit int, ok bool) {
	pageStr := request.QueryStringParameters["page"]
	limitStr := request.QueryStringParameters["limit"]
	if pageStr == "" && limitStr == "" {
		return 0, 0, false
	}

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit, true
}

// DecodeJSON unmarshals the request body into dst
func DecodeJSON(request events.APIGatewayProxyRequest, dst interface{}) error {
	if request.Body == "" {
		return apperrors.ValidationError("Request body is required")
	}
	if err := json.Unmarshal([]byte(request.Body), dst); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}
	return nil
}

package response

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	apperrors "github.com/eventsync-services/common/errors"
	"github.com/eventsync-services/common/logger"
)

// Paginated wraps one page of a list
type Paginated[T any] struct {
	Items        []T `json:"items"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
	TotalRecords int `json:"totalRecords"`
}

// NewPaginated builds a page wrapper. items is never serialised as null.
func NewPaginated[T any](items []T, page, limit, total int) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Paginated[T]{Items: items, TotalPages: totalPages, CurrentPage: page, TotalRecords: total}
}

// JSON serialises data as the response body
func JSON(statusCode int, data interface{}) (events.APIGatewayProxyResponse, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    defaultHeaders(),
			Body:       `{"message":"Failed to serialize response"}`,
		}, nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    defaultHeaders(),
		Body:       string(body),
	}, nil
}

// Message responds with {"message": message}
func Message(statusCode int, message string) (events.APIGatewayProxyResponse, error) {
	return JSON(statusCode, map[string]string{"message": message})
}

// Error converts err into its HTTP representation. Errors that are not
// AppErrors are logged with their stack and reported as a generic 500.
func Error(ctx context.Context, err error) (events.APIGatewayProxyResponse, error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.ToAppError(err)
	}

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.WithContext(ctx).WithFields(map[string]interface{}{
			"code":  appErr.Code,
			"stack": appErr.Stack,
		}).WithError(err).Error("request failed")
	}

	return JSON(appErr.HTTPStatus, appErr.ToJSON())
}

// Binary responds with a base64-encoded body, e.g. a PDF download
func Binary(statusCode int, contentType, filename string, data []byte) (events.APIGatewayProxyResponse, error) {
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type":        contentType,
			"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, filename),
		},
		Body:            base64.StdEncoding.EncodeToString(data),
		IsBase64Encoded: true,
	}, nil
}

func defaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json;charset=UTF-8",
	}
}

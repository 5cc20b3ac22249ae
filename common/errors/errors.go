package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorCode represents application-specific error codes
type ErrorCode string

const (
	// Authentication errors (1xxx)
	ErrCodeUnauthorized       ErrorCode = "E1001"
	ErrCodeInvalidCredentials ErrorCode = "E1002"
	ErrCodeTokenExpired       ErrorCode = "E1003"
	ErrCodeInvalidToken       ErrorCode = "E1004"
	ErrCodeAccessDenied       ErrorCode = "E1005"
	ErrCodeUserBlocked        ErrorCode = "E1006"

	// Validation errors (2xxx)
	ErrCodeValidation       ErrorCode = "E2001"
	ErrCodeInvalidInput     ErrorCode = "E2002"
	ErrCodeMissingField     ErrorCode = "E2003"
	ErrCodeInvalidEmail     ErrorCode = "E2005"
	ErrCodeInvalidPassword  ErrorCode = "E2007"
	ErrCodeMalformedPayload ErrorCode = "E2008"

	// Resource errors (3xxx)
	ErrCodeNotFound      ErrorCode = "E3001"
	ErrCodeAlreadyExists ErrorCode = "E3002"
	ErrCodeConflict      ErrorCode = "E3003"

	// External service errors (5xxx)
	ErrCodeStorageError ErrorCode = "E5004"

	// Internal errors (9xxx)
	ErrCodeInternal             ErrorCode = "E9001"
	ErrCodeDatabase             ErrorCode = "E9002"
	ErrCodeTimeout              ErrorCode = "E9003"
	ErrCodePasskeyNotConfigured ErrorCode = "E9004"
)

// AppError represents an application error with context
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Stack      string                 `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails adds additional details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithField adds a field to the error
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// ToJSON converts error to the response body clients render.
// "message" is the string the client surfaces to the user.
func (e *AppError) ToJSON() map[string]interface{} {
	result := map[string]interface{}{
		"code":    e.Code,
		"message": e.Message,
	}
	if e.Details != "" {
		result["details"] = e.Details
	}
	if len(e.Fields) > 0 {
		result["fields"] = e.Fields
	}
	return result
}

// Is matches on error code so callers can test with errors.Is(err, errors.NotFound(""))
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ============================================================
// Error constructors
// ============================================================

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: getHTTPStatus(code),
		Stack:      captureStack(2),
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: getHTTPStatus(code),
		Cause:      err,
		Stack:      captureStack(2),
	}
}

// ============================================================
// Predefined error constructors
// ============================================================

// Authentication errors
func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func InvalidCredentials() *AppError {
	return New(ErrCodeInvalidCredentials, "Invalid email or password")
}

func TokenExpired() *AppError {
	return New(ErrCodeTokenExpired, "Session has expired, please sign in again")
}

func InvalidToken() *AppError {
	return New(ErrCodeInvalidToken, "Invalid token")
}

func AccessDenied(message string) *AppError {
	if message == "" {
		message = "You do not have permission to perform this action"
	}
	return New(ErrCodeAccessDenied, message)
}

func UserBlocked() *AppError {
	return New(ErrCodeUserBlocked, "Account is blocked, contact another administrator to unlock it")
}

// Validation errors
func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func InvalidInput(field, message string) *AppError {
	return New(ErrCodeInvalidInput, message).WithField("field", field)
}

func MissingField(field string) *AppError {
	return New(ErrCodeMissingField, fmt.Sprintf("%s is required", field)).WithField("field", field)
}

// MissingFields reports every absent required field at once
func MissingFields(fields []string) *AppError {
	return New(ErrCodeValidation, "Missing required fields: "+strings.Join(fields, ", ")).
		WithField("missing", fields)
}

func InvalidEmail() *AppError {
	return New(ErrCodeInvalidEmail, "Email address is invalid")
}

func InvalidPassword(minLength string) *AppError {
	return New(ErrCodeInvalidPassword, fmt.Sprintf("Password must be at least %s characters", minLength))
}

func MalformedPayload(reason string) *AppError {
	return New(ErrCodeMalformedPayload, "Malformed verification payload").WithDetails(reason)
}

// Resource errors
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func AlreadyExists(resource string) *AppError {
	return New(ErrCodeAlreadyExists, fmt.Sprintf("%s already exists", resource))
}

func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message)
}

// External service errors
func StorageError(err error) *AppError {
	return Wrap(err, ErrCodeStorageError, "Image storage is unavailable")
}

// Internal errors
func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func DatabaseError(err error) *AppError {
	return Wrap(err, ErrCodeDatabase, "Database error")
}

func Timeout() *AppError {
	return New(ErrCodeTimeout, "Request timed out")
}

func PasskeyNotConfigured() *AppError {
	return New(ErrCodePasskeyNotConfigured, "Admin passkey is not configured on the server")
}

// ============================================================
// Helper functions
// ============================================================

func getHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeUnauthorized, ErrCodeInvalidCredentials, ErrCodeTokenExpired, ErrCodeInvalidToken:
		return http.StatusUnauthorized
	case ErrCodeAccessDenied, ErrCodeUserBlocked:
		return http.StatusForbidden
	case ErrCodeValidation, ErrCodeInvalidInput, ErrCodeMissingField,
		ErrCodeInvalidEmail, ErrCodeInvalidPassword, ErrCodeMalformedPayload:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists, ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeStorageError:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func captureStack(skip int) string {
	var pcs [32]uintptr
	n := runtime.Callers(skip+1, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.File, "runtime/") {
			if !more {
				break
			}
			continue
		}
		sb.WriteString(fmt.Sprintf("%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}
	return sb.String()
}

// IsAppError checks if an error is, or wraps, an AppError
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// AsAppError converts an error to AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ToAppError converts any error to AppError. An expired context becomes a
// timeout; other unknown errors become a generic internal error so their text
// never reaches a client.
func ToAppError(err error) *AppError {
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return Timeout().WithCause(err)
	}
	return Internal("Internal server error").WithCause(err)
}

// HasCode reports whether err is an AppError with the given code
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

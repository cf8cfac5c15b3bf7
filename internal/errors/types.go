package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a categorized error type
type ErrorCode string

const (
	// Domain errors
	ErrCodeInvalidCreation ErrorCode = "INVALID_CREATION"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeNotAuthorized   ErrorCode = "NOT_AUTHORIZED"

	// Input/config errors
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"

	// Infrastructure errors
	ErrCodeDatabaseQuery ErrorCode = "DATABASE_QUERY"
	ErrCodeProviderAPI   ErrorCode = "PROVIDER_API"
	ErrCodeQueueDispatch ErrorCode = "QUEUE_DISPATCH"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// AppError is a structured application error carrying a code and optional context.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Cause     error                  `json:"-"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Retryable bool                   `json:"retryable"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapRetryable wraps an error and marks it as retryable
func WrapRetryable(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// NewInvalidCreation reports a failed entity/value-object construction precondition.
func NewInvalidCreation(entity string) *AppError {
	return New(ErrCodeInvalidCreation, fmt.Sprintf("invalid creation: %s", entity)).
		WithContext("entity", entity)
}

// NewNotFound reports a missing aggregate.
func NewNotFound(resource, identifier string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithContext("resource", resource).
		WithContext("identifier", identifier)
}

// NewNotAuthorized reports a permission or authentication failure.
func NewNotAuthorized(reason string) *AppError {
	return New(ErrCodeNotAuthorized, "not authorized").
		WithContext("reason", reason)
}

// NewDatabaseError wraps a persistence failure with operation context.
func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseQuery, fmt.Sprintf("database %s failed", operation)).
		WithContext("operation", operation)
}

// NewProviderError wraps a channel-provider API failure; 5xx/429/408 are retryable.
func NewProviderError(provider, endpoint string, statusCode int, err error) *AppError {
	appErr := Wrap(err, ErrCodeProviderAPI, fmt.Sprintf("%s API call failed", provider)).
		WithContext("provider", provider).
		WithContext("endpoint", endpoint).
		WithContext("status_code", statusCode)
	if statusCode >= 500 || statusCode == 429 || statusCode == 408 {
		appErr.Retryable = true
	}
	return appErr
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// HTTPStatusCode maps error codes to HTTP status codes
func HTTPStatusCode(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidCreation, ErrCodeInvalidInput, ErrCodeInvalidConfig:
		return 400
	case ErrCodeNotAuthorized:
		return 403
	case ErrCodeNotFound:
		return 404
	case ErrCodeProviderAPI:
		if IsRetryable(err) {
			return 502
		}
		return 500
	case ErrCodeDatabaseQuery:
		return 503
	default:
		return 500
	}
}

// HTTPErrorResponse is the error envelope returned at the transport boundary.
type HTTPErrorResponse struct {
	Error struct {
		Code    ErrorCode `json:"code"`
		Message string    `json:"message"`
	} `json:"error"`
}

// ToHTTPResponse converts an error to a standardized HTTP response
func ToHTTPResponse(err error) HTTPErrorResponse {
	var response HTTPErrorResponse
	var appErr *AppError
	if errors.As(err, &appErr) {
		response.Error.Code = appErr.Code
		response.Error.Message = appErr.Message
		return response
	}
	response.Error.Code = ErrCodeInternalError
	response.Error.Message = "an internal error occurred"
	return response
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Invocation errors
	ErrCodeArgument  ErrorCode = "ARGUMENT"
	ErrCodeSizeLimit ErrorCode = "SIZE_LIMIT"

	// Input/output errors
	ErrCodeInputNotFound ErrorCode = "INPUT_NOT_FOUND"
	ErrCodeDecode        ErrorCode = "DECODE"
	ErrCodeEncode        ErrorCode = "ENCODE"

	// Rendering errors
	ErrCodeRenderConfig ErrorCode = "RENDER_CONFIG"
	ErrCodeParseColor   ErrorCode = "PARSE_COLOR"

	// Configuration errors
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Resource errors
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// Validation errors
	ErrCodeValidation ErrorCode = "VALIDATION"

	// Database errors
	ErrCodeDatabaseQuery ErrorCode = "DATABASE_QUERY"

	// Rate limiting
	ErrCodeAPIRateLimit ErrorCode = "API_RATE_LIMIT"

	// Internal errors
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// AppError represents a structured application error
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Cause    error                  `json:"-"`
	HTTPCode int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// GetHTTPCode returns the appropriate HTTP status code
func (e *AppError) GetHTTPCode() int {
	if e.HTTPCode != 0 {
		return e.HTTPCode
	}
	return getDefaultHTTPCode(e.Code)
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Newf creates a new AppError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(cause error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Cause:    cause,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(cause error, code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Cause:    cause,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// getDefaultHTTPCode returns the default HTTP status code for an error code
func getDefaultHTTPCode(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound, ErrCodeInputNotFound:
		return http.StatusNotFound
	case ErrCodeArgument, ErrCodeValidation, ErrCodeSizeLimit, ErrCodeParseColor, ErrCodeRenderConfig:
		return http.StatusBadRequest
	case ErrCodeDecode:
		return http.StatusUnprocessableEntity
	case ErrCodeAPIRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors

// ArgumentError creates an error for a missing or unparseable command line argument
func ArgumentError(arg string, reason string) *AppError {
	return New(ErrCodeArgument, fmt.Sprintf("invalid argument '%s': %s", arg, reason)).
		WithDetail("argument", arg).
		WithDetail("reason", reason)
}

// SizeLimitError creates an error for image dimensions above the allowed maximum
func SizeLimitError(width, height, max int) *AppError {
	return New(ErrCodeSizeLimit, fmt.Sprintf("image size too large: %dx%d (max: %d)", width, height, max)).
		WithDetail("width", width).
		WithDetail("height", height).
		WithDetail("max", max)
}

// InputNotFoundError creates an error for a missing input file
func InputNotFoundError(path string) *AppError {
	return New(ErrCodeInputNotFound, fmt.Sprintf("input file does not exist: %s", path)).
		WithDetail("path", path)
}

// DecodeError creates an error for an unreadable or unsupported audio file
func DecodeError(path string, cause error) *AppError {
	return Wrap(cause, ErrCodeDecode, fmt.Sprintf("failed to read input audio file: %s", path)).
		WithDetail("path", path)
}

// EncodeError creates an error for a failed PNG write
func EncodeError(path string, cause error) *AppError {
	return Wrap(cause, ErrCodeEncode, fmt.Sprintf("failed to save image: %s", path)).
		WithDetail("path", path)
}

// RenderConfigError creates an error for an invalid rasterizer configuration
func RenderConfigError(field string, reason string) *AppError {
	return New(ErrCodeRenderConfig, fmt.Sprintf("invalid render config '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// ParseColorError creates an error for a malformed RRGGBBAA colour string
func ParseColorError(value string, reason string) *AppError {
	return New(ErrCodeParseColor, fmt.Sprintf("invalid color %q: %s", value, reason)).
		WithDetail("value", value).
		WithDetail("reason", reason)
}

// ValidationError creates a validation error
func ValidationError(field string, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// NotFound creates a not found error
func NotFound(resource string, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// DatabaseError creates a database error
func DatabaseError(operation string, cause error) *AppError {
	return Wrap(cause, ErrCodeDatabaseQuery, fmt.Sprintf("database %s failed", operation)).
		WithDetail("operation", operation)
}

// ConfigError creates a configuration error
func ConfigError(key string, reason string) *AppError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("configuration error for '%s': %s", key, reason)).
		WithDetail("key", key).
		WithDetail("reason", reason)
}

// RateLimitError creates a rate limit error
func RateLimitError(resource string, limit string) *AppError {
	return New(ErrCodeAPIRateLimit, fmt.Sprintf("rate limit exceeded for '%s': %s", resource, limit)).
		WithDetail("resource", resource).
		WithDetail("limit", limit)
}

// As finds the first AppError in err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if an error is of a specific type
func Is(err error, code ErrorCode) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// GetHTTPCode extracts the HTTP status code from an error
func GetHTTPCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.GetHTTPCode()
	}
	return http.StatusInternalServerError
}

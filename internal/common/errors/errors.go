package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// ErrorCode classifies a client-side failure
type ErrorCode string

const (
	// Generic
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"

	// Auth
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden        ErrorCode = "FORBIDDEN"
	ErrCodeNotAuthenticated ErrorCode = "NOT_AUTHENTICATED"

	// Transport
	ErrCodeNetwork         ErrorCode = "NETWORK_ERROR"
	ErrCodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
	ErrCodeExternalAPI     ErrorCode = "EXTERNAL_API_ERROR"
	ErrCodeDecode          ErrorCode = "DECODE_ERROR"

	// Local credential storage
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
)

// FallbackMessage is shown when an error carries nothing readable.
const FallbackMessage = "Unknown error"

// AppError is a typed error carried from the transport up to the feature state
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Status     int                    `json:"status,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Context    map[string]string      `json:"context,omitempty"`
	Stack      []string               `json:"stack,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	RequestID  string                 `json:"request_id,omitempty"`
	TelegramID int64                  `json:"telegram_id,omitempty"`
	Cause      error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound
}

func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation
}

// IsUnauthorized reports a rejected or missing credential.
func (e *AppError) IsUnauthorized() bool {
	return e.Code == ErrCodeUnauthorized || e.Code == ErrCodeNotAuthenticated
}

func (e *AppError) IsNetwork() bool {
	return e.Code == ErrCodeNetwork
}

func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

func (e *AppError) WithTelegramID(telegramID int64) *AppError {
	e.TelegramID = telegramID
	return e
}

func (e *AppError) WithStatus(status int) *AppError {
	e.Status = status
	return e
}

// New creates an AppError with a captured stack
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Stack:     getStackTrace(),
	}
}

// Wrap attaches a cause to a new AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func getStackTrace() []string {
	var stack []string
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		if strings.Contains(fn.Name(), "internal/common/errors") {
			continue
		}
		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		if len(stack) >= 10 {
			break
		}
	}
	return stack
}

// NewValidationError builds a client-side validation failure. Message is user-facing.
func NewValidationError(field, message string) *AppError {
	return New(ErrCodeValidation, message).
		WithDetail("field", field)
}

func NewNotAuthenticatedError() *AppError {
	return New(ErrCodeNotAuthenticated, "not logged in")
}

func NewNetworkError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeNetwork, "network error, check your connection").
		WithDetail("operation", operation)
}

func NewStorageError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStorage, fmt.Sprintf("credential storage failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewDecodeError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDecode, "unexpected response from server").
		WithDetail("operation", operation)
}

// FromStatus maps an HTTP error response to an AppError. message is what the
// server said, or empty.
func FromStatus(status int, message string) *AppError {
	if message == "" {
		message = http.StatusText(status)
	}
	if message == "" {
		message = FallbackMessage
	}

	var code ErrorCode
	switch {
	case status == http.StatusUnauthorized:
		code = ErrCodeUnauthorized
	case status == http.StatusForbidden:
		code = ErrCodeForbidden
	case status == http.StatusNotFound:
		code = ErrCodeNotFound
	case status == http.StatusTooManyRequests:
		code = ErrCodeTooManyRequests
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		code = ErrCodeValidation
	default:
		code = ErrCodeExternalAPI
	}
	return New(code, message).WithStatus(status)
}

func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError unwraps err to an AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err == nil {
		return nil, false
	}
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether err carries an authentication failure.
func IsUnauthorized(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.IsUnauthorized()
}

func IsValidation(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.IsValidation()
}

func IsNotFound(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.IsNotFound()
}

func IsForbidden(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == ErrCodeForbidden
}

// UserMessage returns the human-readable text a screen shows for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := AsAppError(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackMessage
}

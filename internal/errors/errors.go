// Package errors provides the application error taxonomy. Services return
// AppError values so handlers can render consistent responses without leaking
// internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches any AppError carrying the same code, so a wrapped or re-messaged
// copy still satisfies errors.Is against its sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
)

// General errors.
var (
	ErrInvalidInput       = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound           = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer     = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrServiceUnavailable = &AppError{Code: "SERVICE_UNAVAILABLE", Message: "Service temporarily unavailable", StatusCode: http.StatusServiceUnavailable}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Drink record errors.
var (
	ErrDrinkNotFound      = &AppError{Code: "DRINK_NOT_FOUND", Message: "Drink record not found", StatusCode: http.StatusNotFound}
	ErrIceSugarRequired   = &AppError{Code: "ICE_SUGAR_REQUIRED", Message: "Ice and sugar levels must both be selected", StatusCode: http.StatusBadRequest}
	ErrInvalidDate        = &AppError{Code: "INVALID_DATE", Message: "Date must be formatted as YYYY-MM-DD", StatusCode: http.StatusBadRequest}
	ErrInvalidPrice       = &AppError{Code: "INVALID_PRICE", Message: "Price must be a non-negative number", StatusCode: http.StatusBadRequest}
	ErrNothingToExport    = &AppError{Code: "NOTHING_TO_EXPORT", Message: "There are no records to export", StatusCode: http.StatusUnprocessableEntity}
	ErrUnsupportedFormat  = &AppError{Code: "UNSUPPORTED_FORMAT", Message: "Unsupported export format", StatusCode: http.StatusBadRequest}
	ErrSnapshotNotReady   = &AppError{Code: "SNAPSHOT_NOT_READY", Message: "Record store is not ready yet", StatusCode: http.StatusServiceUnavailable}
	ErrSessionEnded       = &AppError{Code: "SESSION_ENDED", Message: "The session was signed out", StatusCode: http.StatusUnauthorized}
)

// Package errors provides custom error types for the fintrack API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import (
	"errors"
	"net/http"
)

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

// Is reports whether target is an AppError with the same code, so that
// errors.Is matches a sentinel even after Wrap or WithMessage.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
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

// From returns err as an *AppError. Errors that are not AppErrors become
// ErrInternalServer wrapping the original error.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrInternalServer, err)
}

// Authentication & authorization errors.
var (
	ErrUnauthorized           = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials     = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid password", StatusCode: http.StatusUnauthorized}
	ErrInvalidCurrentPassword = &AppError{Code: "INVALID_CURRENT_PASSWORD", Message: "Current password is incorrect.", StatusCode: http.StatusBadRequest}
	ErrOTPExpired             = &AppError{Code: "OTP_EXPIRED", Message: "OTP expired or invalid.", StatusCode: http.StatusBadRequest}
	ErrOTPInvalid             = &AppError{Code: "OTP_INVALID", Message: "Invalid OTP.", StatusCode: http.StatusBadRequest}
	ErrOTPDelivery            = &AppError{Code: "OTP_DELIVERY_FAILED", Message: "Error sending OTP.", StatusCode: http.StatusInternalServerError}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors. Duplicates are reported as 400 to match the existing client contract.
var (
	ErrUserNotFound         = &AppError{Code: "USER_NOT_FOUND", Message: "User not found.", StatusCode: http.StatusNotFound}
	ErrPhoneNotRegistered   = &AppError{Code: "PHONE_NOT_REGISTERED", Message: "Phone number not registered.", StatusCode: http.StatusNotFound}
	ErrDuplicatePhoneNumber = &AppError{Code: "DUPLICATE_PHONE_NUMBER", Message: "Phone number is already registered.", StatusCode: http.StatusBadRequest}
	ErrDuplicateEmail       = &AppError{Code: "DUPLICATE_EMAIL", Message: "Email is already registered.", StatusCode: http.StatusBadRequest}
	ErrDuplicateUsername    = &AppError{Code: "DUPLICATE_USERNAME", Message: "Username is already taken.", StatusCode: http.StatusBadRequest}
)

// Transaction errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Unsupported transaction type", StatusCode: http.StatusBadRequest}
	ErrInvalidCategory        = &AppError{Code: "INVALID_CATEGORY", Message: "Unsupported category", StatusCode: http.StatusBadRequest}
)

// Password reset errors.
var (
	ErrResetOutOfOrder  = &AppError{Code: "RESET_OUT_OF_ORDER", Message: "Password reset step is not available right now", StatusCode: http.StatusConflict}
	ErrPasswordMismatch = &AppError{Code: "PASSWORD_MISMATCH", Message: "Passwords do not match.", StatusCode: http.StatusBadRequest}
)

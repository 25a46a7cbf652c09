// Package errors provides the application error type shared by every MyFinances
// service. Service-layer code returns *AppError so handlers can render a
// consistent {"error":{"code","message"}} body without leaking internals.
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

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrConflict       = &AppError{Code: "CONFLICT", Message: "Resource conflict", StatusCode: http.StatusConflict}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrRateLimited    = &AppError{Code: "RATE_LIMITED", Message: "Too many requests", StatusCode: http.StatusTooManyRequests}
	ErrUpstream       = &AppError{Code: "UPSTREAM_UNAVAILABLE", Message: "Upstream service unavailable", StatusCode: http.StatusBadGateway}
)

// User errors.
var (
	ErrUserNotFound      = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail    = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
	ErrDuplicateUsername = &AppError{Code: "DUPLICATE_USERNAME", Message: "A user with this username already exists", StatusCode: http.StatusConflict}
	ErrIdentityProvider  = &AppError{Code: "IDENTITY_PROVIDER_ERROR", Message: "Identity provider request failed", StatusCode: http.StatusBadGateway}
	ErrProfileMissing    = &AppError{Code: "PROFILE_MISSING", Message: "No local profile exists for this identity", StatusCode: http.StatusInternalServerError}
	ErrAccountLocked     = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked. Try again later", StatusCode: http.StatusLocked}
)

// Category errors.
var (
	ErrCategoryNotFound        = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryNameTaken       = &AppError{Code: "CATEGORY_NAME_TAKEN", Message: "A category with this name already exists", StatusCode: http.StatusConflict}
	ErrCategoryInUse           = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing transactions", StatusCode: http.StatusConflict}
	ErrCategoryHasChildren     = &AppError{Code: "CATEGORY_HAS_CHILDREN", Message: "Category has child categories", StatusCode: http.StatusConflict}
	ErrSelfParentCategory      = &AppError{Code: "SELF_PARENT_CATEGORY", Message: "A category cannot be its own parent", StatusCode: http.StatusBadRequest}
	ErrCategoryCycle           = &AppError{Code: "CATEGORY_CYCLE", Message: "Parent change would create a cycle", StatusCode: http.StatusBadRequest}
	ErrCategoryTypeMismatch    = &AppError{Code: "CATEGORY_TYPE_MISMATCH", Message: "Parent category must have the same type", StatusCode: http.StatusBadRequest}
	ErrSystemCategoryImmutable = &AppError{Code: "SYSTEM_CATEGORY_IMMUTABLE", Message: "System categories cannot be modified", StatusCode: http.StatusForbidden}
)

// Transaction errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Unsupported transaction type", StatusCode: http.StatusBadRequest}
	ErrInvalidAmount          = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must be positive with at most two decimal places", StatusCode: http.StatusBadRequest}
)

// Investment errors.
var (
	ErrInvestmentNotFound = &AppError{Code: "INVESTMENT_NOT_FOUND", Message: "Investment not found", StatusCode: http.StatusNotFound}
)

// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes following domain-driven design
const (
	// Infrastructure errors (5xx)
	CodeInternal            = "INTERNAL_ERROR"
	CodeDatabase            = "DATABASE_ERROR"
	CodeOrderCreationFailed = "ORDER_CREATION_FAILED"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Business rule violations (422)
	CodeBusinessRule          = "BUSINESS_RULE_VIOLATION"
	CodeInsufficientStock     = "INSUFFICIENT_STOCK"
	CodeNoRecipeDefined       = "NO_RECIPE_DEFINED"
	CodeQuoteAlreadyConverted = "QUOTE_ALREADY_CONVERTED"
	CodeQuoteExpired          = "QUOTE_EXPIRED"

	// Transient, retryable (409)
	CodeReservationExpired = "RESERVATION_EXPIRED"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict        = "CONFLICT"
	CodeDuplicate       = "DUPLICATE_ENTRY"
	CodeCashSessionOpen = "CASH_SESSION_ALREADY_OPEN"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// ShortMaterial describes one material that could not be reserved or consumed.
type ShortMaterial struct {
	MaterialID string  `json:"materialId"`
	Requested  float64 `json:"requested"`
	Available  float64 `json:"available"`
}

// NewInsufficientStock creates a stock shortage error for a single material.
func NewInsufficientStock(materialID string, requested, available float64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"material_id": materialID,
			"requested":   requested,
			"available":   available,
		},
	}
}

// NewInsufficientStockList creates a shortage error naming every short material,
// so a caller can present an actionable message.
func NewInsufficientStockList(shorts []ShortMaterial) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock for one or more materials",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"materials": shorts},
	}
}

// NewNoRecipeDefined creates a data-setup error: the product has no active recipe.
// Must be fixed upstream, never silently defaulted.
func NewNoRecipeDefined(productID string) *AppError {
	return &AppError{
		Code:       CodeNoRecipeDefined,
		Message:    "No active recipe defined for product",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"product_id": productID},
	}
}

// NewReservationExpired creates a transient error for stale reservation tokens.
func NewReservationExpired(token string) *AppError {
	return &AppError{
		Code:       CodeReservationExpired,
		Message:    "Reservation expired or no longer active",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"token": token},
	}
}

// NewQuoteAlreadyConverted is returned when a quote is not in a sendable state.
func NewQuoteAlreadyConverted(quoteID string, status string) *AppError {
	return &AppError{
		Code:       CodeQuoteAlreadyConverted,
		Message:    "Quote was already converted or is not convertible",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"quote_id": quoteID, "status": status},
	}
}

// NewOrderCreationFailed wraps a persistence failure during conversion.
// Always accompanied by a full compensating rollback of reservations.
func NewOrderCreationFailed(err error) *AppError {
	return &AppError{
		Code:       CodeOrderCreationFailed,
		Message:    "Order could not be persisted",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewCashSessionOpen is returned when opening a session while one is open.
func NewCashSessionOpen(sessionID any) *AppError {
	return &AppError{
		Code:       CodeCashSessionOpen,
		Message:    "A cash session is already open",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"session_id": sessionID},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsCode checks whether err carries the given error code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// IsInsufficientStock checks if error is CodeInsufficientStock
func IsInsufficientStock(err error) bool {
	return IsCode(err, CodeInsufficientStock)
}

// IsReservationExpired checks if error is CodeReservationExpired
func IsReservationExpired(err error) bool {
	return IsCode(err, CodeReservationExpired)
}

package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidCurrency       = &AppError{http.StatusBadRequest, "INVALID_CURRENCY", "Invalid currency"}
	ErrInvalidAmount         = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Invalid amount"}
	ErrRateUnavailable       = &AppError{http.StatusServiceUnavailable, "RATE_UNAVAILABLE", "Exchange rate is currently unavailable"}
	ErrInconsistentHost      = &AppError{http.StatusUnprocessableEntity, "INCONSISTENT_HOST", "Collective is not hosted by the declared host"}
	ErrNoHost                = &AppError{http.StatusUnprocessableEntity, "NO_HOST", "Collective has no host"}
	ErrDuplicateOrder        = &AppError{http.StatusConflict, "DUPLICATE_ORDER", "Order was already recorded"}
	ErrCurrencyMismatch      = &AppError{http.StatusUnprocessableEntity, "CURRENCY_MISMATCH", "Currency does not match the collective or ledger entries"}
	ErrUnsupportedService    = &AppError{http.StatusBadRequest, "UNSUPPORTED_SERVICE", "Unsupported service"}
	ErrLedgerWriteFailed     = &AppError{http.StatusInternalServerError, "LEDGER_WRITE_FAILED", "Transactions could not be recorded"}
	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrInvalidIdempotencyKey = &AppError{http.StatusBadRequest, "INVALID_IDEMPOTENCY_KEY", "Idempotency-Key must be at most 255 characters"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency-Key was already used for a different request"}
)

package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrRateUnavailable    = errors.New("exchange rate unavailable")
	ErrInconsistentHost   = errors.New("collective host does not match declared host")
	ErrPersistence        = errors.New("ledger write failed")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrDuplicateOrder     = errors.New("order already has ledger entries")
	ErrCurrencyMismatch   = errors.New("currency mismatch")
	ErrNoHost             = errors.New("collective has no host")
	ErrUnsupportedService = errors.New("unsupported service")
	ErrInvalidRequest     = errors.New("invalid request")
	// ErrIdempotencyConflict is returned when an idempotency key is reused
	// for a request other than the one that first claimed it.
	ErrIdempotencyConflict = errors.New("idempotency key reused with a different request")
)

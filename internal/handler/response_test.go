package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/josh-kwaku/collective-ledger/internal/domain"
)

func TestRespondDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", fmt.Errorf("GetByID: %w", domain.ErrNotFound), http.StatusNotFound, "RESOURCE_NOT_FOUND"},
		{"invalid currency", domain.ErrInvalidCurrency, http.StatusBadRequest, "INVALID_CURRENCY"},
		{"rate unavailable", fmt.Errorf("quote: %w", domain.ErrRateUnavailable), http.StatusServiceUnavailable, "RATE_UNAVAILABLE"},
		{"inconsistent host", domain.ErrInconsistentHost, http.StatusUnprocessableEntity, "INCONSISTENT_HOST"},
		{"no host", domain.ErrNoHost, http.StatusUnprocessableEntity, "NO_HOST"},
		{"duplicate order", domain.ErrDuplicateOrder, http.StatusConflict, "DUPLICATE_ORDER"},
		{"idempotency conflict", fmt.Errorf("existing: %w", domain.ErrIdempotencyConflict), http.StatusConflict, "IDEMPOTENCY_CONFLICT"},
		{"currency mismatch", domain.ErrCurrencyMismatch, http.StatusUnprocessableEntity, "CURRENCY_MISMATCH"},
		{"unsupported service", domain.ErrUnsupportedService, http.StatusBadRequest, "UNSUPPORTED_SERVICE"},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"invalid request", domain.ErrInvalidRequest, http.StatusBadRequest, "INVALID_REQUEST"},
		{
			"persistence wins over driver detail",
			fmt.Errorf("CreatePair: %w: %w", domain.ErrPersistence, &pq.Error{Code: "40001"}),
			http.StatusInternalServerError, "LEDGER_WRITE_FAILED",
		},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondDomainError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, rec))
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

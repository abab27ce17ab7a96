package middleware

import (
	"net/http"

	"github.com/josh-kwaku/collective-ledger/internal/handler"
	"github.com/josh-kwaku/collective-ledger/internal/logging"
)

const maxIdempotencyKeyLen = 255

// RequireIdempotencyKey rejects writes without a usable Idempotency-Key.
// Replays are resolved by the order service against the stored order, so
// nothing is cached here.
func RequireIdempotencyKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(handler.IdempotencyKeyHeader)
		if key == "" {
			handler.RespondAppError(w, handler.ErrMissingIdempotencyKey, nil)
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			handler.RespondAppError(w, handler.ErrInvalidIdempotencyKey, nil)
			return
		}

		ctx := logging.With(r.Context(), "idempotency_key", key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

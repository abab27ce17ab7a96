package middleware

import (
	"net/http"
	"strings"

	"github.com/josh-kwaku/collective-ledger/internal/auth"
	"github.com/josh-kwaku/collective-ledger/internal/handler"
	"github.com/josh-kwaku/collective-ledger/internal/logging"
)

// Auth resolves the admin or member recorded as CreatedByUserID on every
// order and ledger entry. Only session tokens qualify: a connected-account
// verification token proves ownership of a provider account, not a user,
// and is refused here.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, appErr := bearerToken(r)
			if appErr != nil {
				handler.RespondAppError(w, appErr, nil)
				return
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				logging.FromContext(r.Context()).Info("session token rejected", "error", err, "path", r.URL.Path)
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			ctx := auth.ContextWithUserID(r.Context(), claims.UserID)
			ctx = logging.With(ctx, "user_id", claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken reads the Authorization header. The scheme name is matched
// case-insensitively.
func bearerToken(r *http.Request) (string, *handler.AppError) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", handler.ErrMissingToken
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", handler.ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", handler.ErrInvalidToken
	}
	return token, nil
}

package auth

import (
	"context"

	"github.com/google/uuid"
)

type callerKey struct{}

// ContextWithUserID records the authenticated caller. Orders, expenses and
// connected accounts created during the request are attributed to it.
func ContextWithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, callerKey{}, id)
}

// UserIDFromContext reports false for an unauthenticated request or a nil id.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(callerKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

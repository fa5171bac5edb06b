package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/storefront/pkg/apperr"
)

// contextKey is an unexported type to prevent key collisions in context.
type contextKey string

const userIDKey contextKey = "user_id"

// UserIDFromCtx extracts the authenticated user ID placed by RequireAuth.
// Returns uuid.Nil and apperr.ErrUnauthenticated when the request is anonymous,
// so handlers can hand the error straight to errhttp.WriteError.
func UserIDFromCtx(ctx context.Context) (uuid.UUID, error) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, apperr.ErrUnauthenticated
	}
	return userID, nil
}

// WithUserID returns a new context carrying the authenticated user.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

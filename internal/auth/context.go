package auth

import (
	"context"
	"fmt"

	svcErr "github.com/oggyb/fittrack/internal/errors"
)

type userIDKey struct{}

// WithUserID stores the authenticated user id on ctx.
func WithUserID(ctx context.Context, userID uint64) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID returns the authenticated user id or ErrUnauthenticated.
func UserID(ctx context.Context) (uint64, error) {
	id, ok := ctx.Value(userIDKey{}).(uint64)
	if !ok || id == 0 {
		return 0, fmt.Errorf("%w: no user in context", svcErr.ErrUnauthenticated)
	}
	return id, nil
}

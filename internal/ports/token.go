package ports

import (
	"context"
	"time"
)

// TokenCache holds the gateway bearer token between calls.
type TokenCache interface {
	// Get returns the cached token, or ok=false when absent or expired.
	Get(ctx context.Context) (token string, ok bool, err error)

	// Set stores token until expiresAt.
	Set(ctx context.Context, token string, expiresAt time.Time) error

	// Invalidate drops the cached token.
	Invalidate(ctx context.Context) error
}

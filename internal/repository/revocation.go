package repository

import (
	"context"
	"time"
)

// RevocationList remembers revoked token IDs until the tokens would have
// expired anyway.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	// Prune forgets entries that expired before now and reports how many
	// remain.
	Prune(ctx context.Context, now time.Time) (removed, remaining int, err error)
}

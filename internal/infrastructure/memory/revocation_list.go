package memory

import (
	"context"
	"sync"
	"time"
)

type RevocationList struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // token ID -> token expiry
}

func NewRevocationList() *RevocationList {
	return &RevocationList{revoked: make(map[string]time.Time)}
}

func (l *RevocationList) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	l.mu.Lock()
	l.revoked[tokenID] = expiresAt
	l.mu.Unlock()
	return nil
}

func (l *RevocationList) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.revoked[tokenID]
	return ok, nil
}

func (l *RevocationList) Prune(_ context.Context, now time.Time) (int, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for id, exp := range l.revoked {
		if exp.Before(now) {
			delete(l.revoked, id)
			removed++
		}
	}
	return removed, len(l.revoked), nil
}

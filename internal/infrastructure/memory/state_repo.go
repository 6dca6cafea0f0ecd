package memory

import (
	"context"
	"sync"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
)

// StateRepository keeps state for the life of the process only.
type StateRepository struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewStateRepository() *StateRepository {
	return &StateRepository{blobs: make(map[string][]byte)}
}

func (r *StateRepository) Load(_ context.Context, name string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.blobs[name]
	if !ok {
		return nil, domain.ErrStateNotFound
	}
	return append([]byte(nil), b...), nil
}

func (r *StateRepository) Save(_ context.Context, name string, data []byte) error {
	r.mu.Lock()
	r.blobs[name] = append([]byte(nil), data...)
	r.mu.Unlock()
	return nil
}

func (r *StateRepository) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	delete(r.blobs, name)
	r.mu.Unlock()
	return nil
}

func (r *StateRepository) Ping(_ context.Context) error { return nil }

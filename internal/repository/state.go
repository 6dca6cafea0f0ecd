package repository

import "context"

// StateRepository persists opaque client state blobs under a fixed name.
// Load returns domain.ErrStateNotFound when nothing is stored.
type StateRepository interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	Ping(ctx context.Context) error
}

package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "storefront:state:"

// StateRepository keeps state blobs in Redis under storefront:state:<name>.
// Records do not expire; logout deletes them.
type StateRepository struct {
	rdb goredis.UniversalClient
}

func NewStateRepository(rdb goredis.UniversalClient) *StateRepository {
	return &StateRepository{rdb: rdb}
}

// NewClient dials addr and verifies the connection.
func NewClient(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (r *StateRepository) Load(ctx context.Context, name string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, keyPrefix+name).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("get state %s: %w", name, err)
	}
	return b, nil
}

func (r *StateRepository) Save(ctx context.Context, name string, data []byte) error {
	if err := r.rdb.Set(ctx, keyPrefix+name, data, 0).Err(); err != nil {
		return fmt.Errorf("set state %s: %w", name, err)
	}
	return nil
}

func (r *StateRepository) Delete(ctx context.Context, name string) error {
	if err := r.rdb.Del(ctx, keyPrefix+name).Err(); err != nil {
		return fmt.Errorf("delete state %s: %w", name, err)
	}
	return nil
}

func (r *StateRepository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

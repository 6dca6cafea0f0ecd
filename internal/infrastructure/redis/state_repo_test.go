package redis_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	"github.com/ErlanBelekov/storefront-client/internal/infrastructure/redis"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newRepo(t *testing.T) (*redis.StateRepository, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return redis.NewStateRepository(rdb), mr
}

func TestStateRepository_RoundTrip(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()

	if _, err := repo.Load(ctx, "auth-storage"); !errors.Is(err, domain.ErrStateNotFound) {
		t.Fatalf("load before save: err = %v", err)
	}
	if err := repo.Save(ctx, "auth-storage", []byte(`{"version":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := mr.Get("storefront:state:auth-storage")
	if err != nil {
		t.Fatalf("raw get: %v", err)
	}
	if got != `{"version":1}` {
		t.Errorf("stored %q", got)
	}
	if ttl := mr.TTL("storefront:state:auth-storage"); ttl != 0 {
		t.Errorf("ttl = %v, want none", ttl)
	}

	b, err := repo.Load(ctx, "auth-storage")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(b) != `{"version":1}` {
		t.Errorf("loaded %s", b)
	}
}

func TestStateRepository_Delete(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()

	_ = repo.Save(ctx, "auth-storage", []byte(`{}`))
	if err := repo.Delete(ctx, "auth-storage"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("storefront:state:auth-storage") {
		t.Error("key still present")
	}
	if err := repo.Delete(ctx, "auth-storage"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestStateRepository_Ping(t *testing.T) {
	repo, _ := newRepo(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	rdb := goredis.NewClient(&goredis.Options{Addr: addr, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	if err := redis.NewStateRepository(rdb).Ping(context.Background()); err == nil {
		t.Error("expected ping to fail against a stopped server")
	}
}

package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	"github.com/ErlanBelekov/storefront-client/internal/infrastructure/memory"
)

func TestStateRepository_CopiesOnSaveAndLoad(t *testing.T) {
	repo := memory.NewStateRepository()
	ctx := context.Background()

	data := []byte(`{"a":1}`)
	if err := repo.Save(ctx, "s", data); err != nil {
		t.Fatalf("save: %v", err)
	}
	data[2] = 'X'

	got, err := repo.Load(ctx, "s")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("stored blob aliased caller slice: %s", got)
	}

	if err := repo.Delete(ctx, "s"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Load(ctx, "s"); !errors.Is(err, domain.ErrStateNotFound) {
		t.Errorf("err = %v", err)
	}
}

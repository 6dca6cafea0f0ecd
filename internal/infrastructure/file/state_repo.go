package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
)

// StateRepository stores each state blob as <dir>/<name>.json. Writes go to a
// temp file first and are renamed into place, so readers never see a torn
// record.
type StateRepository struct {
	dir string
}

func NewStateRepository(dir string) (*StateRepository, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &StateRepository{dir: dir}, nil
}

func (r *StateRepository) Load(_ context.Context, name string) ([]byte, error) {
	path, err := r.path(name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("read state %s: %w", name, err)
	}
	return b, nil
}

func (r *StateRepository) Save(_ context.Context, name string, data []byte) error {
	path, err := r.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(r.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write state %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync state %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace state %s: %w", name, err)
	}
	return nil
}

// Delete is idempotent.
func (r *StateRepository) Delete(_ context.Context, name string) error {
	path, err := r.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete state %s: %w", name, err)
	}
	return nil
}

// Ping checks the state directory is still there and is a directory.
func (r *StateRepository) Ping(_ context.Context) error {
	info, err := os.Stat(r.dir)
	if err != nil {
		return fmt.Errorf("stat state dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("state dir %s is not a directory", r.dir)
	}
	return nil
}

func (r *StateRepository) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid state name %q", name)
	}
	return filepath.Join(r.dir, name+".json"), nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const stateTable = "client_state"

const createStateTable = `CREATE TABLE IF NOT EXISTS client_state (
	name       TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type StateRepository struct {
	pool *pgxpool.Pool
}

func NewStateRepository(pool *pgxpool.Pool) *StateRepository {
	return &StateRepository{pool: pool}
}

// EnsureSchema creates the state table if it is missing.
func (r *StateRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createStateTable); err != nil {
		return fmt.Errorf("create %s table: %w", stateTable, err)
	}
	return nil
}

func (r *StateRepository) Load(ctx context.Context, name string) ([]byte, error) {
	query, args, err := psql.Select("data").
		From(stateTable).
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build load state query: %w", err)
	}

	var data []byte
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("load state %s: %w", name, err)
	}
	return data, nil
}

func (r *StateRepository) Save(ctx context.Context, name string, data []byte) error {
	query, args, err := psql.Insert(stateTable).
		Columns("name", "data", "updated_at").
		Values(name, string(data), sq.Expr("now()")).
		Suffix("ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build save state query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save state %s: %w", name, err)
	}
	return nil
}

func (r *StateRepository) Delete(ctx context.Context, name string) error {
	query, args, err := psql.Delete(stateTable).
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete state query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete state %s: %w", name, err)
	}
	return nil
}

func (r *StateRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Package postgres provides a PostgreSQL-backed save-game store.
//
// Saves are stored as JSONB payloads keyed by save ID; the schema is created
// on startup and migration is idempotent.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taleforge/taleforge/internal/game"
	"github.com/taleforge/taleforge/internal/save"
)

// Compile-time interface check.
var _ save.Store = (*Store)(nil)

const ddlGameSaves = `
CREATE TABLE IF NOT EXISTS game_saves (
    id        TEXT         PRIMARY KEY,
    saved_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
    payload   JSONB        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_game_saves_saved_at
    ON game_saves (saved_at DESC);
`

// Store is a PostgreSQL-backed [save.Store] holding a single [pgxpool.Pool].
// All operations are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore establishes a connection pool to the PostgreSQL database at dsn
// and runs [Migrate] to ensure the game_saves table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Migrate creates or ensures the game_saves table exists. It is idempotent
// and safe to call on every application start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlGameSaves); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

// Put implements [save.Store] as an upsert on the save ID.
func (s *Store) Put(ctx context.Context, sv game.Save) error {
	payload, err := json.Marshal(sv)
	if err != nil {
		return fmt.Errorf("postgres store: marshal %q: %w", sv.ID, err)
	}

	const q = `
		INSERT INTO game_saves (id, payload)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET payload = EXCLUDED.payload, saved_at = now()`

	if _, err := s.pool.Exec(ctx, q, sv.ID, payload); err != nil {
		return fmt.Errorf("postgres store: put %q: %w", sv.ID, err)
	}
	return nil
}

// Get implements [save.Store].
func (s *Store) Get(ctx context.Context, id string) (game.Save, error) {
	const q = `SELECT payload FROM game_saves WHERE id = $1`

	var payload []byte
	err := s.pool.QueryRow(ctx, q, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Save{}, save.ErrNotFound
	}
	if err != nil {
		return game.Save{}, fmt.Errorf("postgres store: get %q: %w", id, err)
	}

	var sv game.Save
	if err := json.Unmarshal(payload, &sv); err != nil {
		return game.Save{}, fmt.Errorf("postgres store: unmarshal %q: %w", id, err)
	}
	return sv, nil
}

// List implements [save.Store]. Saves are ordered newest first.
func (s *Store) List(ctx context.Context) ([]game.Save, error) {
	const q = `SELECT payload FROM game_saves ORDER BY saved_at DESC`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("postgres store: list: %w", err)
	}
	saves, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (game.Save, error) {
		var payload []byte
		if err := row.Scan(&payload); err != nil {
			return game.Save{}, err
		}
		var sv game.Save
		if err := json.Unmarshal(payload, &sv); err != nil {
			return game.Save{}, err
		}
		return sv, nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres store: scan rows: %w", err)
	}
	if saves == nil {
		saves = []game.Save{}
	}
	return saves, nil
}

// Delete implements [save.Store].
func (s *Store) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM game_saves WHERE id = $1`

	tag, err := s.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("postgres store: delete %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return save.ErrNotFound
	}
	return nil
}

// Ping reports whether the database is reachable. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases all connections held by the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

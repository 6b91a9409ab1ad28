// Package save defines the save-game store interface and an in-memory
// implementation. A PostgreSQL-backed implementation lives in the postgres
// subpackage.
package save

import (
	"context"
	"errors"

	"github.com/taleforge/taleforge/internal/game"
)

// ErrNotFound is returned when no save with the requested ID exists.
var ErrNotFound = errors.New("save: not found")

// Store persists campaign snapshots. Implementations must be safe for
// concurrent use.
type Store interface {
	// Put inserts the save, replacing any existing save with the same ID.
	Put(ctx context.Context, s game.Save) error

	// Get returns the save with the given ID, or [ErrNotFound].
	Get(ctx context.Context, id string) (game.Save, error)

	// List returns all saves, newest first.
	List(ctx context.Context) ([]game.Save, error)

	// Delete removes the save with the given ID, or returns [ErrNotFound].
	Delete(ctx context.Context, id string) error
}

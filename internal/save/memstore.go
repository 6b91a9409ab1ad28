package save

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/taleforge/taleforge/internal/game"
)

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// MemStore is an in-memory [Store]. Saves are lost on process exit; it is the
// fallback when no PostgreSQL DSN is configured, and the store of choice in
// tests.
//
// Saves are held as their JSON payload, mirroring the postgres layout, so
// callers never share memory with the stored snapshot.
type MemStore struct {
	mu    sync.RWMutex
	saves map[string][]byte
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{saves: make(map[string][]byte)}
}

// Put implements [Store].
func (m *MemStore) Put(_ context.Context, s game.Save) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("save: marshal %q: %w", s.ID, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[s.ID] = payload
	return nil
}

// Get implements [Store].
func (m *MemStore) Get(_ context.Context, id string) (game.Save, error) {
	m.mu.RLock()
	payload, ok := m.saves[id]
	m.mu.RUnlock()
	if !ok {
		return game.Save{}, ErrNotFound
	}
	var s game.Save
	if err := json.Unmarshal(payload, &s); err != nil {
		return game.Save{}, fmt.Errorf("save: unmarshal %q: %w", id, err)
	}
	return s, nil
}

// List implements [Store]. Saves are ordered newest first.
func (m *MemStore) List(_ context.Context) ([]game.Save, error) {
	m.mu.RLock()
	payloads := make([][]byte, 0, len(m.saves))
	for _, p := range m.saves {
		payloads = append(payloads, p)
	}
	m.mu.RUnlock()

	saves := make([]game.Save, 0, len(payloads))
	for _, p := range payloads {
		var s game.Save
		if err := json.Unmarshal(p, &s); err != nil {
			return nil, fmt.Errorf("save: unmarshal: %w", err)
		}
		saves = append(saves, s)
	}
	sort.Slice(saves, func(i, j int) bool { return saves[i].Timestamp > saves[j].Timestamp })
	return saves, nil
}

// Delete implements [Store].
func (m *MemStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.saves[id]; !ok {
		return ErrNotFound
	}
	delete(m.saves, id)
	return nil
}

// ABOUTME: Generic typed collection CRUD over the backend API
// ABOUTME: Every mutation refetches the owning collection before returning
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DouniaBN/aieve-creator-crm-sub000/backend"
)

// ErrNotFound is returned when a row is absent from the post-mutation
// snapshot of its collection.
var ErrNotFound = errors.New("store: record not found")

// row is the constraint collection rows satisfy via models.Meta.
type row[T any] interface {
	*T
	Stamp(userID string, now time.Time)
	Key() string
	SetKey(id string)
}

// Collection is the typed CRUD proxy for one backend table. The cached
// snapshot is a read replica: it is only ever replaced wholesale by a
// refetch, never patched locally, so readers always observe a state the
// backend confirmed.
type Collection[T any, PT row[T]] struct {
	s     *Store
	table string
	limit int

	mu     sync.RWMutex
	cached []T
}

func newCollection[T any, PT row[T]](s *Store, table string, limit int) *Collection[T, PT] {
	return &Collection[T, PT]{s: s, table: table, limit: limit}
}

// Fetch retrieves the full collection for the current identity, most
// recent first, replaces the cached snapshot and returns it.
func (c *Collection[T, PT]) Fetch(ctx context.Context) ([]T, error) {
	var rows []T
	if err := c.s.api.ListOwned(ctx, c.table, c.s.userID, c.limit, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", c.table, err)
	}

	c.mu.Lock()
	c.cached = rows
	c.mu.Unlock()

	return c.copyCached(), nil
}

// Cached returns the last fetched snapshot without touching the backend.
func (c *Collection[T, PT]) Cached() []T {
	return c.copyCached()
}

func (c *Collection[T, PT]) copyCached() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.cached))
	copy(out, c.cached)
	return out
}

// Create persists a new row owned by the current identity and returns it
// as observed in the refetched collection.
func (c *Collection[T, PT]) Create(ctx context.Context, rec T) (T, error) {
	var zero T

	id := uuid.NewString()
	PT(&rec).Stamp(c.s.userID, c.s.now())

	if err := c.s.api.Insert(ctx, c.table, id, rec); err != nil {
		return zero, fmt.Errorf("failed to create %s row: %w", c.table, err)
	}

	rows, err := c.Fetch(ctx)
	if err != nil {
		return zero, err
	}
	if found, ok := findByKey[T, PT](rows, id); ok {
		return found, nil
	}

	// The row was accepted but fell outside a capped snapshot.
	PT(&rec).SetKey(id)
	return rec, nil
}

// Update applies a partial patch; unspecified fields keep their stored
// values. The updated row is returned from the refetched snapshot.
func (c *Collection[T, PT]) Update(ctx context.Context, id string, patch map[string]any) (T, error) {
	var zero T

	if err := c.s.api.Merge(ctx, c.table, id, patch); err != nil {
		return zero, fmt.Errorf("failed to update %s row %s: %w", c.table, id, err)
	}

	rows, err := c.Fetch(ctx)
	if err != nil {
		return zero, err
	}
	if found, ok := findByKey[T, PT](rows, id); ok {
		return found, nil
	}

	// The row was merged but fell outside a capped snapshot; read it back
	// directly so a successful mutation never reports as missing.
	outside, err := c.Find(ctx, map[string]any{"id": id})
	if err != nil {
		return zero, err
	}
	if len(outside) > 0 {
		return outside[0], nil
	}
	return zero, fmt.Errorf("%w: %s %s", ErrNotFound, c.table, id)
}

// Delete removes a row permanently. There is no soft-delete at this layer.
func (c *Collection[T, PT]) Delete(ctx context.Context, id string) error {
	if err := c.s.api.Remove(ctx, c.table, id); err != nil {
		return fmt.Errorf("failed to delete %s row %s: %w", c.table, id, err)
	}
	_, err := c.Fetch(ctx)
	return err
}

// Find queries the backend with field equality filters, bypassing the
// cached snapshot.
func (c *Collection[T, PT]) Find(ctx context.Context, filters map[string]any) ([]T, error) {
	var rows []T
	if err := c.s.api.ListMatching(ctx, c.table, c.s.userID, filters, &rows); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.table, err)
	}
	return rows, nil
}

// Get returns a row from the cached snapshot by id.
func (c *Collection[T, PT]) Get(id string) (T, bool) {
	return findByKey[T, PT](c.copyCached(), id)
}

func (c *Collection[T, PT]) clear() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

func findByKey[T any, PT row[T]](rows []T, id string) (T, bool) {
	for i := range rows {
		if PT(&rows[i]).Key() == id {
			return rows[i], true
		}
	}
	var zero T
	return zero, false
}

// ensureSingleton implements idempotent get-or-create for the
// singleton-per-identity tables. Duplicate rows under a first-access race
// are prevented by the backend's unique index on user_id, not by client
// locking; the race loser re-reads the winner's row.
func ensureSingleton[T any, PT row[T]](ctx context.Context, s *Store, table string, defaults T) (T, error) {
	var zero T

	var rows []T
	if err := s.api.ListOwned(ctx, table, s.userID, 1, &rows); err != nil {
		return zero, fmt.Errorf("failed to fetch %s: %w", table, err)
	}
	if len(rows) > 0 {
		return rows[0], nil
	}

	PT(&defaults).Stamp(s.userID, s.now())
	id := uuid.NewString()

	if err := s.api.Insert(ctx, table, id, defaults); err != nil && !errors.Is(err, backend.ErrConflict) {
		return zero, fmt.Errorf("failed to create %s: %w", table, err)
	}

	rows = rows[:0]
	if err := s.api.ListOwned(ctx, table, s.userID, 1, &rows); err != nil {
		return zero, fmt.Errorf("failed to fetch %s: %w", table, err)
	}
	if len(rows) == 0 {
		return zero, fmt.Errorf("%w: %s singleton", ErrNotFound, table)
	}
	return rows[0], nil
}

// ABOUTME: Tests for the in-memory backend fake
// ABOUTME: Verifies the unique indexes, scoping and ordering the remote store defines
package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDoc struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name,omitempty"`
	Number    string    `json:"invoice_number,omitempty"`
}

func TestInsertAndListOwned(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"first", "second", "third"} {
		err := m.Insert(ctx, TableProjects, name, memDoc{
			UserID:    "creator:alice",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Name:      name,
		})
		require.NoError(t, err)
	}

	var rows []memDoc
	require.NoError(t, m.ListOwned(ctx, TableProjects, "creator:alice", 0, &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "third", rows[0].Name)
	assert.Equal(t, "third", rows[0].ID)
	assert.Equal(t, "first", rows[2].Name)

	var capped []memDoc
	require.NoError(t, m.ListOwned(ctx, TableProjects, "creator:alice", 2, &capped))
	assert.Len(t, capped, 2)
}

func TestListScopesByIdentity(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Insert(ctx, TableTasks, "a", memDoc{UserID: "creator:alice", Name: "a"}))
	require.NoError(t, m.Insert(ctx, TableTasks, "b", memDoc{UserID: "creator:bob", Name: "b"}))

	var rows []memDoc
	require.NoError(t, m.ListOwned(ctx, TableTasks, "creator:bob", 0, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0].Name)
}

func TestDuplicateInvoiceNumberRejected(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Insert(ctx, TableInvoices, "a", memDoc{UserID: "creator:alice", Number: "INV-001"}))

	err := m.Insert(ctx, TableInvoices, "b", memDoc{UserID: "creator:alice", Number: "INV-001"})
	assert.ErrorIs(t, err, ErrConflict)

	// Same number under a different identity is fine.
	require.NoError(t, m.Insert(ctx, TableInvoices, "c", memDoc{UserID: "creator:bob", Number: "INV-001"}))
}

func TestMergeIntoDuplicateNumberRejected(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Insert(ctx, TableInvoices, "a", memDoc{UserID: "creator:alice", Number: "INV-001"}))
	require.NoError(t, m.Insert(ctx, TableInvoices, "b", memDoc{UserID: "creator:alice", Number: "INV-002"}))

	err := m.Merge(ctx, TableInvoices, "b", map[string]any{"invoice_number": "INV-001"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSingletonPerIdentity(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Insert(ctx, TableUserSettings, "a", memDoc{UserID: "creator:alice"}))

	err := m.Insert(ctx, TableUserSettings, "b", memDoc{UserID: "creator:alice"})
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, m.Insert(ctx, TableUserSettings, "c", memDoc{UserID: "creator:bob"}))
}

func TestMergeUpdatesSingleField(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Insert(ctx, TableProjects, "p", memDoc{UserID: "creator:alice", Name: "before"}))
	require.NoError(t, m.Merge(ctx, TableProjects, "p", map[string]any{"name": "after"}))

	var rows []memDoc
	require.NoError(t, m.ListOwned(ctx, TableProjects, "creator:alice", 0, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "after", rows[0].Name)
	assert.Equal(t, "creator:alice", rows[0].UserID)
}

func TestRemove(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Insert(ctx, TableTasks, "x", memDoc{UserID: "creator:alice"}))
	require.NoError(t, m.Remove(ctx, TableTasks, "x"))

	var rows []memDoc
	require.NoError(t, m.ListOwned(ctx, TableTasks, "creator:alice", 0, &rows))
	assert.Empty(t, rows)

	// Removing an absent row is a no-op, matching DELETE semantics.
	require.NoError(t, m.Remove(ctx, TableTasks, "x"))
}

func TestListMatchingNormalizesValues(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	type feeDoc struct {
		UserID string  `json:"user_id"`
		Fee    float64 `json:"fee"`
	}
	require.NoError(t, m.Insert(ctx, TableBrandDeals, "d", feeDoc{UserID: "creator:alice", Fee: 500}))

	// An int filter value must match the float the row stores.
	var rows []feeDoc
	require.NoError(t, m.ListMatching(ctx, TableBrandDeals, "creator:alice", map[string]any{"fee": 500}, &rows))
	assert.Len(t, rows, 1)
}

// ABOUTME: Tests for collection CRUD, caps, ordering and singleton semantics
// ABOUTME: Runs against the in-memory backend
package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DouniaBN/aieve-creator-crm-sub000/backend"
	"github.com/DouniaBN/aieve-creator-crm-sub000/models"
)

func newTestStore(t *testing.T) (*Store, *backend.Memory) {
	t.Helper()
	mem := backend.NewMemory()
	s := New(mem, "creator:alice", zerolog.Nop())

	// A deterministic strictly increasing clock keeps ordering assertions
	// independent of wall-clock resolution.
	base := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time {
		base = base.Add(time.Second)
		return base
	})
	return s, mem
}

func TestCreateAndFetchProjects(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	created, err := s.Projects.Create(ctx, models.Project{Name: "Summer Campaign", Status: models.ProjectActive})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "creator:alice", created.UserID)
	assert.False(t, created.CreatedAt.IsZero())

	rows, err := s.Projects.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Summer Campaign", rows[0].Name)
}

func TestFetchOrdersMostRecentFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := s.Projects.Create(ctx, models.Project{Name: fmt.Sprintf("p%d", i), Status: models.ProjectActive})
		require.NoError(t, err)
	}

	rows, err := s.Projects.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "p3", rows[0].Name)
	assert.Equal(t, "p1", rows[2].Name)
}

func TestTaskHistoryCap(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 8; i++ {
		_, err := s.Tasks.Create(ctx, models.Task{Content: fmt.Sprintf("task %d", i)})
		require.NoError(t, err)
	}

	rows, err := s.Tasks.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, rows, TaskHistoryLimit)
	assert.Equal(t, "task 8", rows[0].Content)
	assert.Equal(t, "task 4", rows[TaskHistoryLimit-1].Content)
}

func TestUpdateBeyondHistoryCap(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	oldest, err := s.Tasks.Create(ctx, models.Task{Content: "task 1"})
	require.NoError(t, err)
	for i := 2; i <= TaskHistoryLimit+2; i++ {
		_, err := s.Tasks.Create(ctx, models.Task{Content: fmt.Sprintf("task %d", i)})
		require.NoError(t, err)
	}

	// The oldest task no longer appears in the capped snapshot, but a
	// successful update on it must still report the merged row.
	_, inSnapshot := s.Tasks.Get(oldest.ID)
	require.False(t, inSnapshot)

	updated, err := s.Tasks.Update(ctx, oldest.ID, map[string]any{"completed": true})
	require.NoError(t, err)
	assert.Equal(t, oldest.ID, updated.ID)
	assert.True(t, updated.Completed)
	assert.Equal(t, "task 1", updated.Content)
}

func TestPartialUpdateLeavesOtherFields(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	deal, err := s.BrandDeals.Create(ctx, models.BrandDeal{
		BrandName:    "Acme",
		ContactEmail: "partnerships@acme.test",
		Fee:          500,
		Status:       models.DealNegotiation,
	})
	require.NoError(t, err)

	updated, err := s.BrandDeals.Update(ctx, deal.ID, map[string]any{"status": models.DealConfirmed})
	require.NoError(t, err)

	assert.Equal(t, models.DealConfirmed, updated.Status)
	assert.Equal(t, "Acme", updated.BrandName)
	assert.Equal(t, "partnerships@acme.test", updated.ContactEmail)
	assert.Equal(t, 500.0, updated.Fee)
}

func TestUpdateUnknownRecord(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Tasks.Update(context.Background(), "missing", map[string]any{"completed": true})
	assert.Error(t, err)
}

func TestDeleteRemovesRow(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	task, err := s.Tasks.Create(ctx, models.Task{Content: "ship media kit"})
	require.NoError(t, err)

	require.NoError(t, s.Tasks.Delete(ctx, task.ID))

	rows, err := s.Tasks.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMutationFailurePropagates(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	mem.FailNext("insert", backend.TableTasks, errors.New("connection reset"))
	_, err := s.Tasks.Create(ctx, models.Task{Content: "x"})
	require.Error(t, err)

	rows, err := s.Tasks.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFindFilters(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, status := range []string{models.InvoiceDraft, models.InvoiceSent, models.InvoiceDraft} {
		_, err := s.Invoices.Create(ctx, models.Invoice{
			InvoiceNumber: fmt.Sprintf("INV-%03d", len(s.Invoices.Cached())+1),
			Status:        status,
			ClientName:    "Acme",
		})
		require.NoError(t, err)
	}

	drafts, err := s.Invoices.Find(ctx, map[string]any{"status": models.InvoiceDraft})
	require.NoError(t, err)
	assert.Len(t, drafts, 2)
}

func TestIdentityScoping(t *testing.T) {
	mem := backend.NewMemory()
	alice := New(mem, "creator:alice", zerolog.Nop())
	bob := New(mem, "creator:bob", zerolog.Nop())
	ctx := context.Background()

	_, err := alice.Tasks.Create(ctx, models.Task{Content: "alice's task"})
	require.NoError(t, err)

	rows, err := bob.Tasks.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestProfileGetOrCreate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	p, err := s.Profile(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "USD", p.Currency)

	again, err := s.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
}

func TestProfileSurvivesConcurrentFirstAccess(t *testing.T) {
	// Two stores for the same identity racing on first access: the backend
	// unique index makes the second insert collapse onto the first row.
	mem := backend.NewMemory()
	a := New(mem, "creator:alice", zerolog.Nop())
	b := New(mem, "creator:alice", zerolog.Nop())
	ctx := context.Background()

	pa, err := a.Profile(ctx)
	require.NoError(t, err)
	pb, err := b.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, pa.ID, pb.ID)
}

func TestUpdateSettings(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	settings, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.NotificationsEnabled)

	settings, err = s.UpdateSettings(ctx, map[string]any{"notifications_enabled": false})
	require.NoError(t, err)
	assert.False(t, settings.NotificationsEnabled)

	// The cached singleton reflects the write.
	settings, err = s.Settings(ctx)
	require.NoError(t, err)
	assert.False(t, settings.NotificationsEnabled)
}

func TestClearDropsSnapshots(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Tasks.Create(ctx, models.Task{Content: "x"})
	require.NoError(t, err)
	_, err = s.Profile(ctx)
	require.NoError(t, err)

	s.Clear()
	assert.Empty(t, s.Tasks.Cached())

	// Data survives remotely; only the local replica was dropped.
	rows, err := s.Tasks.Fetch(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRefreshAllLoadsEverything(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Projects.Create(ctx, models.Project{Name: "p", Status: models.ProjectActive})
	require.NoError(t, err)
	s.Clear()

	require.NoError(t, s.RefreshAll(ctx))
	assert.Len(t, s.Projects.Cached(), 1)
}

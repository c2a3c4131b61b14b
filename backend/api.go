// ABOUTME: Narrow remote-store surface consumed by the data layer
// ABOUTME: Defines the API interface and the shared backend error values
package backend

import (
	"context"
	"errors"
)

// Table names for the six mutable collections and the two
// singleton-per-identity collections.
const (
	TableProjects      = "projects"
	TableInvoices      = "invoices"
	TableBrandDeals    = "brand_deals"
	TableContentPosts  = "content_posts"
	TableTasks         = "tasks"
	TableNotifications = "notifications"
	TableUserProfile   = "user_profile"
	TableUserSettings  = "user_settings"
)

var (
	// ErrConflict is returned when an insert violates a uniqueness
	// constraint (duplicate singleton row, duplicate invoice number).
	ErrConflict = errors.New("backend: uniqueness conflict")

	// ErrNotSignedIn is returned for data access without an
	// authenticated session.
	ErrNotSignedIn = errors.New("backend: not signed in")
)

// API is the remote CRUD surface the data layer is written against. The
// production implementation is Client (SurrealDB over WebSocket); Memory
// provides the same contract in process for tests and offline use.
//
// All list operations decode into out, which must be a pointer to a slice,
// ordered by created_at descending (most recent first). Mutations return
// once the backend has accepted the row; callers refetch to observe the
// post-mutation state.
type API interface {
	// ListOwned fetches every row of table owned by userID, newest first.
	// limit <= 0 means the full collection.
	ListOwned(ctx context.Context, table, userID string, limit int, out any) error

	// ListMatching is ListOwned restricted by field equality filters.
	// Filter keys are internal column names, never user input.
	ListMatching(ctx context.Context, table, userID string, filters map[string]any, out any) error

	// Insert persists row under the given record id.
	Insert(ctx context.Context, table, id string, row any) error

	// Merge partially updates a row; fields absent from patch keep their
	// stored values.
	Merge(ctx context.Context, table, id string, patch map[string]any) error

	// Remove permanently deletes a row. Removing an absent row is not an
	// error.
	Remove(ctx context.Context, table, id string) error
}

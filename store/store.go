// ABOUTME: Session-scoped remote data store over the backend API
// ABOUTME: Owns the six collections plus the profile and settings singletons
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/DouniaBN/aieve-creator-crm-sub000/backend"
	"github.com/DouniaBN/aieve-creator-crm-sub000/models"
)

// History caps applied at fetch time.
const (
	TaskHistoryLimit         = 5
	NotificationHistoryLimit = 50
)

// Store binds the backend API to one authenticated identity. It is
// constructed on sign-in and discarded on sign-out; consumers receive it
// by reference rather than through package-level state. Local snapshots
// are read replicas of the remote store, refreshed after every mutation.
type Store struct {
	api    backend.API
	userID string
	now    func() time.Time
	log    zerolog.Logger

	Projects      *Collection[models.Project, *models.Project]
	Invoices      *Collection[models.Invoice, *models.Invoice]
	BrandDeals    *Collection[models.BrandDeal, *models.BrandDeal]
	ContentPosts  *Collection[models.ContentPost, *models.ContentPost]
	Tasks         *Collection[models.Task, *models.Task]
	Notifications *Collection[models.Notification, *models.Notification]

	mu       sync.Mutex
	profile  *models.UserProfile
	settings *models.UserSettings
}

// New creates a store scoped to userID.
func New(api backend.API, userID string, log zerolog.Logger) *Store {
	s := &Store{
		api:    api,
		userID: userID,
		now:    time.Now,
		log:    log.With().Str("user", userID).Logger(),
	}
	s.Projects = newCollection[models.Project, *models.Project](s, backend.TableProjects, 0)
	s.Invoices = newCollection[models.Invoice, *models.Invoice](s, backend.TableInvoices, 0)
	s.BrandDeals = newCollection[models.BrandDeal, *models.BrandDeal](s, backend.TableBrandDeals, 0)
	s.ContentPosts = newCollection[models.ContentPost, *models.ContentPost](s, backend.TableContentPosts, 0)
	s.Tasks = newCollection[models.Task, *models.Task](s, backend.TableTasks, TaskHistoryLimit)
	s.Notifications = newCollection[models.Notification, *models.Notification](s, backend.TableNotifications, NotificationHistoryLimit)
	return s
}

// UserID returns the identity this store is scoped to.
func (s *Store) UserID() string { return s.userID }

// SetClock overrides the time source, for tests.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// RefreshAll fetches every collection and both singletons, as done on
// sign-in. The first failing fetch aborts the refresh.
func (s *Store) RefreshAll(ctx context.Context) error {
	if _, err := s.Projects.Fetch(ctx); err != nil {
		return err
	}
	if _, err := s.Invoices.Fetch(ctx); err != nil {
		return err
	}
	if _, err := s.BrandDeals.Fetch(ctx); err != nil {
		return err
	}
	if _, err := s.ContentPosts.Fetch(ctx); err != nil {
		return err
	}
	if _, err := s.Tasks.Fetch(ctx); err != nil {
		return err
	}
	if _, err := s.Notifications.Fetch(ctx); err != nil {
		return err
	}
	if _, err := s.Profile(ctx); err != nil {
		return err
	}
	if _, err := s.Settings(ctx); err != nil {
		return err
	}
	return nil
}

// Clear drops every local snapshot immediately. Late results from
// operations started before Clear are never folded back in.
func (s *Store) Clear() {
	s.Projects.clear()
	s.Invoices.clear()
	s.BrandDeals.clear()
	s.ContentPosts.clear()
	s.Tasks.clear()
	s.Notifications.clear()

	s.mu.Lock()
	s.profile = nil
	s.settings = nil
	s.mu.Unlock()
}

// Profile returns the identity's profile, creating an empty one on first
// access.
func (s *Store) Profile(ctx context.Context) (models.UserProfile, error) {
	s.mu.Lock()
	if s.profile != nil {
		p := *s.profile
		s.mu.Unlock()
		return p, nil
	}
	s.mu.Unlock()

	p, err := ensureSingleton[models.UserProfile, *models.UserProfile](ctx, s, backend.TableUserProfile, models.UserProfile{Currency: "USD"})
	if err != nil {
		return models.UserProfile{}, err
	}

	s.mu.Lock()
	s.profile = &p
	s.mu.Unlock()
	return p, nil
}

// UpdateProfile merges a partial patch into the profile row and returns
// the refetched result.
func (s *Store) UpdateProfile(ctx context.Context, patch map[string]any) (models.UserProfile, error) {
	current, err := s.Profile(ctx)
	if err != nil {
		return models.UserProfile{}, err
	}

	if err := s.api.Merge(ctx, backend.TableUserProfile, current.ID, patch); err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to update profile: %w", err)
	}

	s.mu.Lock()
	s.profile = nil
	s.mu.Unlock()
	return s.Profile(ctx)
}

// Settings returns the identity's settings, creating the default row
// (notifications enabled) on first access.
func (s *Store) Settings(ctx context.Context) (models.UserSettings, error) {
	s.mu.Lock()
	if s.settings != nil {
		v := *s.settings
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	v, err := ensureSingleton[models.UserSettings, *models.UserSettings](ctx, s, backend.TableUserSettings, models.UserSettings{NotificationsEnabled: true})
	if err != nil {
		return models.UserSettings{}, err
	}

	s.mu.Lock()
	s.settings = &v
	s.mu.Unlock()
	return v, nil
}

// UpdateSettings merges a partial patch into the settings row.
func (s *Store) UpdateSettings(ctx context.Context, patch map[string]any) (models.UserSettings, error) {
	current, err := s.Settings(ctx)
	if err != nil {
		return models.UserSettings{}, err
	}

	if err := s.api.Merge(ctx, backend.TableUserSettings, current.ID, patch); err != nil {
		return models.UserSettings{}, fmt.Errorf("failed to update settings: %w", err)
	}

	s.mu.Lock()
	s.settings = nil
	s.mu.Unlock()
	return s.Settings(ctx)
}

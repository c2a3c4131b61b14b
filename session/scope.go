// ABOUTME: Session scope binding the store, notifier and sync rules to one identity
// ABOUTME: Orchestrates logical user actions and rejects duplicate in-flight submits
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/DouniaBN/aieve-creator-crm-sub000/backend"
	"github.com/DouniaBN/aieve-creator-crm-sub000/derive"
	"github.com/DouniaBN/aieve-creator-crm-sub000/invoices"
	"github.com/DouniaBN/aieve-creator-crm-sub000/models"
	"github.com/DouniaBN/aieve-creator-crm-sub000/notify"
	"github.com/DouniaBN/aieve-creator-crm-sub000/store"
)

// ErrBusy rejects a duplicate submit while the same action on the same
// record is still in flight.
var ErrBusy = errors.New("session: operation already in flight")

// Scope is the per-identity façade over the store, the notification
// emitter and the cross-entity sync rules. It is constructed on sign-in,
// torn down on sign-out, and passed by reference to consumers. Within one
// logical action the primary mutation, its notification and any derived
// invoice are issued sequentially so later steps observe earlier ones;
// notification and sync failures never fail the primary action.
type Scope struct {
	Store   *store.Store
	Emitter *notify.Emitter
	Syncer  *derive.Syncer

	gen *invoices.Generator
	log zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewScope builds a scope for userID over the given backend.
func NewScope(api backend.API, userID string, log zerolog.Logger) *Scope {
	s := store.New(api, userID, log)
	return &Scope{
		Store:    s,
		Emitter:  notify.NewEmitter(s, log),
		Syncer:   derive.NewSyncer(s, log),
		gen:      invoices.NewGenerator(s),
		log:      log.With().Str("user", userID).Logger(),
		inflight: map[string]struct{}{},
	}
}

// begin marks key busy. Returns false if the same key is already in flight.
func (sc *Scope) begin(key string) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if _, busy := sc.inflight[key]; busy {
		return false
	}
	sc.inflight[key] = struct{}{}
	return true
}

func (sc *Scope) end(key string) {
	sc.mu.Lock()
	delete(sc.inflight, key)
	sc.mu.Unlock()
}

// CreateInvoice allocates a number when none was supplied, back-fills
// creator fields from the profile, recomputes totals and persists.
func (sc *Scope) CreateInvoice(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	if !sc.begin("invoice-create") {
		return models.Invoice{}, ErrBusy
	}
	defer sc.end("invoice-create")

	if inv.InvoiceNumber == "" {
		number, err := sc.gen.Next(ctx)
		if err != nil {
			return models.Invoice{}, err
		}
		inv.InvoiceNumber = number
	}
	if inv.Status == "" {
		inv.Status = models.InvoiceDraft
	}
	inv.Recalculate()

	if profile, err := sc.Store.Profile(ctx); err == nil {
		derive.EnrichInvoice(&inv, profile)
	} else {
		sc.log.Warn().Err(err).Msg("creating invoice without profile enrichment")
	}

	created, err := sc.Store.Invoices.Create(ctx, inv)
	if err != nil {
		return models.Invoice{}, err
	}

	sc.Emitter.InvoiceCreated(ctx, created)
	return created, nil
}

// Monetary inputs whose change requires the aggregates to be recomputed.
func touchesMonetary(patch map[string]any) bool {
	for _, k := range []string{"line_items", "discount_rate", "tax_rate"} {
		if _, ok := patch[k]; ok {
			return true
		}
	}
	return false
}

// UpdateInvoice applies a partial update, recomputes totals when monetary
// inputs changed and emits a status notification on a real transition.
func (sc *Scope) UpdateInvoice(ctx context.Context, id string, patch map[string]any) (models.Invoice, error) {
	key := id + "-update"
	if !sc.begin(key) {
		return models.Invoice{}, ErrBusy
	}
	defer sc.end(key)

	previous, err := sc.invoiceByID(ctx, id)
	if err != nil {
		return models.Invoice{}, err
	}

	updated, err := sc.Store.Invoices.Update(ctx, id, patch)
	if err != nil {
		return models.Invoice{}, err
	}

	if touchesMonetary(patch) {
		recalced := updated
		recalced.Recalculate()
		updated, err = sc.Store.Invoices.Update(ctx, id, map[string]any{
			"line_items":      recalced.LineItems,
			"subtotal":        recalced.Subtotal,
			"discount_amount": recalced.DiscountAmount,
			"tax_amount":      recalced.TaxAmount,
			"total":           recalced.Total,
		})
		if err != nil {
			return models.Invoice{}, err
		}
	}

	sc.Emitter.InvoiceStatusChanged(ctx, updated, previous.Status)
	return updated, nil
}

func (sc *Scope) invoiceByID(ctx context.Context, id string) (models.Invoice, error) {
	if inv, ok := sc.Store.Invoices.Get(id); ok {
		return inv, nil
	}
	if _, err := sc.Store.Invoices.Fetch(ctx); err != nil {
		return models.Invoice{}, err
	}
	inv, ok := sc.Store.Invoices.Get(id)
	if !ok {
		return models.Invoice{}, fmt.Errorf("invoice %s: %w", id, store.ErrNotFound)
	}
	return inv, nil
}

func (sc *Scope) DeleteInvoice(ctx context.Context, id string) error {
	key := id + "-delete"
	if !sc.begin(key) {
		return ErrBusy
	}
	defer sc.end(key)
	return sc.Store.Invoices.Delete(ctx, id)
}

// CreateBrandDeal persists the deal, announces it and, when it is already
// in a deliverable paid state, materializes its invoice.
func (sc *Scope) CreateBrandDeal(ctx context.Context, deal models.BrandDeal) (models.BrandDeal, error) {
	if !sc.begin("deal-create") {
		return models.BrandDeal{}, ErrBusy
	}
	defer sc.end("deal-create")

	if deal.Status == "" {
		deal.Status = models.DealNegotiation
	}
	if deal.Fee < 0 {
		return models.BrandDeal{}, fmt.Errorf("brand deal fee must not be negative, got %v", deal.Fee)
	}

	created, err := sc.Store.BrandDeals.Create(ctx, deal)
	if err != nil {
		return models.BrandDeal{}, err
	}

	sc.Emitter.BrandDealCreated(ctx, created)
	sc.materialize(ctx, created)
	return created, nil
}

// negativeFee reports whether a patch value would violate the fee >= 0
// invariant. Patches built in-process carry float64, CLI flags may carry
// ints.
func negativeFee(v any) bool {
	switch n := v.(type) {
	case float64:
		return n < 0
	case float32:
		return n < 0
	case int:
		return n < 0
	case int64:
		return n < 0
	}
	return false
}

// UpdateBrandDeal applies a partial update, emits a transition
// notification and materializes the invoice when the deal became
// deliverable.
func (sc *Scope) UpdateBrandDeal(ctx context.Context, id string, patch map[string]any) (models.BrandDeal, error) {
	if fee, ok := patch["fee"]; ok && negativeFee(fee) {
		return models.BrandDeal{}, fmt.Errorf("brand deal fee must not be negative, got %v", fee)
	}

	key := id + "-update"
	if !sc.begin(key) {
		return models.BrandDeal{}, ErrBusy
	}
	defer sc.end(key)

	previous, ok := sc.Store.BrandDeals.Get(id)
	if !ok {
		if _, err := sc.Store.BrandDeals.Fetch(ctx); err != nil {
			return models.BrandDeal{}, err
		}
		previous, _ = sc.Store.BrandDeals.Get(id)
	}

	updated, err := sc.Store.BrandDeals.Update(ctx, id, patch)
	if err != nil {
		return models.BrandDeal{}, err
	}

	sc.Emitter.BrandDealStatusChanged(ctx, updated, previous.Status)
	sc.materialize(ctx, updated)
	return updated, nil
}

// materialize runs invoice materialization best-effort after a deal write.
func (sc *Scope) materialize(ctx context.Context, deal models.BrandDeal) {
	inv, created, err := sc.Syncer.MaterializeInvoice(ctx, deal)
	if err != nil {
		sc.log.Warn().Err(err).Str("deal", deal.ID).Msg("invoice materialization failed")
		return
	}
	if created {
		sc.Emitter.InvoiceCreated(ctx, inv)
	}
}

func (sc *Scope) DeleteBrandDeal(ctx context.Context, id string) error {
	key := id + "-delete"
	if !sc.begin(key) {
		return ErrBusy
	}
	defer sc.end(key)
	return sc.Store.BrandDeals.Delete(ctx, id)
}

// CreateContentPost persists the post and announces it.
func (sc *Scope) CreateContentPost(ctx context.Context, post models.ContentPost) (models.ContentPost, error) {
	if !sc.begin("post-create") {
		return models.ContentPost{}, ErrBusy
	}
	defer sc.end("post-create")

	if post.Status == "" {
		post.Status = models.PostIdea
	}

	created, err := sc.Store.ContentPosts.Create(ctx, post)
	if err != nil {
		return models.ContentPost{}, err
	}

	sc.Emitter.ContentPostCreated(ctx, created)
	return created, nil
}

func (sc *Scope) UpdateContentPost(ctx context.Context, id string, patch map[string]any) (models.ContentPost, error) {
	key := id + "-update"
	if !sc.begin(key) {
		return models.ContentPost{}, ErrBusy
	}
	defer sc.end(key)

	previous, ok := sc.Store.ContentPosts.Get(id)
	if !ok {
		if _, err := sc.Store.ContentPosts.Fetch(ctx); err != nil {
			return models.ContentPost{}, err
		}
		previous, _ = sc.Store.ContentPosts.Get(id)
	}

	updated, err := sc.Store.ContentPosts.Update(ctx, id, patch)
	if err != nil {
		return models.ContentPost{}, err
	}

	sc.Emitter.ContentPostStatusChanged(ctx, updated, previous.Status)
	return updated, nil
}

func (sc *Scope) DeleteContentPost(ctx context.Context, id string) error {
	key := id + "-delete"
	if !sc.begin(key) {
		return ErrBusy
	}
	defer sc.end(key)
	return sc.Store.ContentPosts.Delete(ctx, id)
}

func (sc *Scope) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	if p.Status == "" {
		p.Status = models.ProjectActive
	}
	return sc.Store.Projects.Create(ctx, p)
}

func (sc *Scope) UpdateProject(ctx context.Context, id string, patch map[string]any) (models.Project, error) {
	return sc.Store.Projects.Update(ctx, id, patch)
}

func (sc *Scope) DeleteProject(ctx context.Context, id string) error {
	return sc.Store.Projects.Delete(ctx, id)
}

func (sc *Scope) CreateTask(ctx context.Context, content string) (models.Task, error) {
	return sc.Store.Tasks.Create(ctx, models.Task{Content: content})
}

// ToggleTask flips a task's completed flag.
func (sc *Scope) ToggleTask(ctx context.Context, id string) (models.Task, error) {
	task, ok := sc.Store.Tasks.Get(id)
	if !ok {
		if _, err := sc.Store.Tasks.Fetch(ctx); err != nil {
			return models.Task{}, err
		}
		task, ok = sc.Store.Tasks.Get(id)
		if !ok {
			return models.Task{}, fmt.Errorf("task %s: %w", id, store.ErrNotFound)
		}
	}
	return sc.Store.Tasks.Update(ctx, id, map[string]any{"completed": !task.Completed})
}

func (sc *Scope) DeleteTask(ctx context.Context, id string) error {
	return sc.Store.Tasks.Delete(ctx, id)
}

// MarkNotificationRead flags one notification as read.
func (sc *Scope) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := sc.Store.Notifications.Update(ctx, id, map[string]any{"read": true})
	return err
}

// MarkAllNotificationsRead flags every unread notification as read.
func (sc *Scope) MarkAllNotificationsRead(ctx context.Context) error {
	rows, err := sc.Store.Notifications.Fetch(ctx)
	if err != nil {
		return err
	}
	for _, n := range rows {
		if n.Read {
			continue
		}
		if _, err := sc.Store.Notifications.Update(ctx, n.ID, map[string]any{"read": true}); err != nil {
			return err
		}
	}
	return nil
}

// UpdateProfile writes the patch and fans the changed business fields out
// into existing invoices. The fan-out is best-effort.
func (sc *Scope) UpdateProfile(ctx context.Context, patch map[string]any) (models.UserProfile, error) {
	if !sc.begin("profile-update") {
		return models.UserProfile{}, ErrBusy
	}
	defer sc.end("profile-update")

	profile, err := sc.Store.UpdateProfile(ctx, patch)
	if err != nil {
		return models.UserProfile{}, err
	}

	if err := sc.Syncer.FanOutProfile(ctx, profile, patch); err != nil {
		sc.log.Warn().Err(err).Msg("profile fan-out failed")
	}
	return profile, nil
}

func (sc *Scope) UpdateSettings(ctx context.Context, patch map[string]any) (models.UserSettings, error) {
	return sc.Store.UpdateSettings(ctx, patch)
}

// ABOUTME: Translates CRUD outcomes and status transitions into notification records
// ABOUTME: Emission is best-effort and never fails the originating mutation
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/DouniaBN/aieve-creator-crm-sub000/models"
	"github.com/DouniaBN/aieve-creator-crm-sub000/store"
)

// Emitter observes mutations and writes typed notification rows, subject
// to the per-identity notifications toggle. Every method is fire-and
// -forget: failures are logged and swallowed so a side-channel write can
// never roll back or fail the user's primary action.
type Emitter struct {
	store *store.Store
	log   zerolog.Logger
}

func NewEmitter(s *store.Store, log zerolog.Logger) *Emitter {
	return &Emitter{store: s, log: log}
}

func (e *Emitter) emit(ctx context.Context, n models.Notification) {
	settings, err := e.store.Settings(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("skipping notification: settings unavailable")
		return
	}
	if !settings.NotificationsEnabled {
		return
	}

	n.Read = false
	if _, err := e.store.Notifications.Create(ctx, n); err != nil {
		e.log.Warn().Err(err).Str("type", n.Type).Msg("failed to record notification")
	}
}

// InvoiceCreated announces a newly created invoice.
func (e *Emitter) InvoiceCreated(ctx context.Context, inv models.Invoice) {
	e.emit(ctx, models.Notification{
		Type:        models.NotifyInvoiceCreated,
		Title:       "Invoice Created",
		Message:     fmt.Sprintf("Invoice %s for %s has been created.", inv.InvoiceNumber, inv.ClientName),
		RelatedID:   inv.ID,
		RelatedType: models.RelatedInvoice,
	})
}

// InvoiceStatusChanged announces sent/paid/overdue transitions. Updating
// an invoice to the status it already has emits nothing.
func (e *Emitter) InvoiceStatusChanged(ctx context.Context, inv models.Invoice, previous string) {
	if inv.Status == previous {
		return
	}

	n := models.Notification{
		RelatedID:   inv.ID,
		RelatedType: models.RelatedInvoice,
	}
	switch inv.Status {
	case models.InvoiceSent:
		n.Type = models.NotifyInvoiceSent
		n.Title = "Invoice Sent"
		n.Message = fmt.Sprintf("Invoice %s has been sent to %s.", inv.InvoiceNumber, inv.ClientName)
	case models.InvoicePaid:
		n.Type = models.NotifyInvoicePaid
		n.Title = "Invoice Paid"
		n.Message = fmt.Sprintf("Invoice %s has been paid by %s.", inv.InvoiceNumber, inv.ClientName)
	case models.InvoiceOverdue:
		n.Type = models.NotifyInvoiceOverdue
		n.Title = "Invoice Overdue"
		n.Message = fmt.Sprintf("Invoice %s is now overdue.", inv.InvoiceNumber)
	default:
		return
	}
	e.emit(ctx, n)
}

// BrandDealCreated announces a newly created brand deal.
func (e *Emitter) BrandDealCreated(ctx context.Context, deal models.BrandDeal) {
	e.emit(ctx, models.Notification{
		Type:        models.NotifyBrandDealUpdated,
		Title:       "New Brand Deal",
		Message:     fmt.Sprintf("New brand deal with %s has been created.", deal.BrandName),
		RelatedID:   deal.ID,
		RelatedType: models.RelatedBrandDeal,
	})
}

// BrandDealStatusChanged announces a deal status transition.
func (e *Emitter) BrandDealStatusChanged(ctx context.Context, deal models.BrandDeal, previous string) {
	if deal.Status == previous {
		return
	}

	var msg string
	switch deal.Status {
	case models.DealConfirmed:
		msg = fmt.Sprintf("Brand deal with %s has been confirmed.", deal.BrandName)
	case models.DealCompleted:
		msg = fmt.Sprintf("Brand deal with %s has been completed.", deal.BrandName)
	case models.DealCancelled:
		msg = fmt.Sprintf("Brand deal with %s has been cancelled.", deal.BrandName)
	default:
		msg = fmt.Sprintf("Brand deal with %s is now %s.", deal.BrandName, deal.Status)
	}

	e.emit(ctx, models.Notification{
		Type:        models.NotifyBrandDealUpdated,
		Title:       "Brand Deal Update",
		Message:     msg,
		RelatedID:   deal.ID,
		RelatedType: models.RelatedBrandDeal,
	})
}

// ContentPostCreated announces a new content post, phrased by whether it
// is already scheduled.
func (e *Emitter) ContentPostCreated(ctx context.Context, post models.ContentPost) {
	n := models.Notification{
		RelatedID:   post.ID,
		RelatedType: models.RelatedContentPost,
	}
	if post.ScheduledAt != nil {
		n.Type = models.NotifyContentScheduled
		n.Title = "Content Scheduled"
		n.Message = fmt.Sprintf("%q has been scheduled for %s.", post.Title, post.ScheduledAt.Format("Jan 2, 2006"))
	} else {
		n.Type = models.NotifyContentUpdated
		n.Title = "Content Added"
		n.Message = fmt.Sprintf("%q has been added.", post.Title)
	}
	e.emit(ctx, n)
}

// ContentPostStatusChanged announces a post status transition.
func (e *Emitter) ContentPostStatusChanged(ctx context.Context, post models.ContentPost, previous string) {
	if post.Status == previous {
		return
	}

	n := models.Notification{
		RelatedID:   post.ID,
		RelatedType: models.RelatedContentPost,
	}
	switch post.Status {
	case models.PostScheduled:
		n.Type = models.NotifyContentScheduled
		n.Title = "Content Scheduled"
		if post.ScheduledAt != nil {
			n.Message = fmt.Sprintf("%q has been scheduled for %s.", post.Title, post.ScheduledAt.Format("Jan 2, 2006"))
		} else {
			n.Message = fmt.Sprintf("%q has been scheduled.", post.Title)
		}
	case models.PostPublished:
		n.Type = models.NotifyContentPublished
		n.Title = "Content Published"
		n.Message = fmt.Sprintf("%q has been published.", post.Title)
	default:
		n.Type = models.NotifyContentUpdated
		n.Title = "Content Update"
		n.Message = fmt.Sprintf("%q moved to %s.", post.Title, post.Status)
	}
	e.emit(ctx, n)
}

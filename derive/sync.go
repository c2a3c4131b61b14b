// ABOUTME: Derived-state rules linking brand deals and the profile to invoices
// ABOUTME: Materializes draft invoices from delivered deals and fans profile edits out
package derive

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/DouniaBN/aieve-creator-crm-sub000/invoices"
	"github.com/DouniaBN/aieve-creator-crm-sub000/models"
	"github.com/DouniaBN/aieve-creator-crm-sub000/store"
)

// Due dates default to this far out when the deal has no end date.
const defaultDueDays = 30

// Syncer applies the two cross-entity rules. Both run after the primary
// mutation has already succeeded; callers treat their errors as
// best-effort and must not roll back the primary action on failure.
type Syncer struct {
	store *store.Store
	gen   *invoices.Generator
	log   zerolog.Logger
	now   func() time.Time
}

func NewSyncer(s *store.Store, log zerolog.Logger) *Syncer {
	return &Syncer{
		store: s,
		gen:   invoices.NewGenerator(s),
		log:   log,
		now:   time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (sy *Syncer) SetClock(now func() time.Time) { sy.now = now }

// MaterializeInvoice ensures a deal that reached a deliverable status with
// a positive fee has exactly one invoice. The link is the invoice's
// source_brand_deal_id, so a second deal with the same brand and fee still
// gets its own invoice, and equal-valued unrelated invoices never block
// one. Returns the invoice and whether this call created it.
func (sy *Syncer) MaterializeInvoice(ctx context.Context, deal models.BrandDeal) (models.Invoice, bool, error) {
	if !models.DealDeliverable(deal.Status) || deal.Fee <= 0 {
		return models.Invoice{}, false, nil
	}

	existing, err := sy.store.Invoices.Find(ctx, map[string]any{"source_brand_deal_id": deal.ID})
	if err != nil {
		return models.Invoice{}, false, fmt.Errorf("failed to check for existing deal invoice: %w", err)
	}
	if len(existing) > 0 {
		return existing[0], false, nil
	}

	number, err := sy.gen.Next(ctx)
	if err != nil {
		return models.Invoice{}, false, err
	}

	now := sy.now()
	due := now.AddDate(0, 0, defaultDueDays)
	if deal.EndDate != nil {
		due = *deal.EndDate
	}

	service := deal.Deliverables
	if service == "" {
		service = fmt.Sprintf("Brand partnership with %s", deal.BrandName)
	}

	inv := models.Invoice{
		InvoiceNumber: number,
		IssueDate:     now,
		DueDate:       due,
		Status:        models.InvoiceDraft,
		ClientName:    deal.BrandName,
		ClientEmail:   deal.ContactEmail,
		LineItems: []models.LineItem{
			{Service: service, Quantity: 1, Rate: deal.Fee},
		},
		SourceBrandDealID: deal.ID,
	}
	inv.Recalculate()

	if profile, perr := sy.store.Profile(ctx); perr == nil {
		EnrichInvoice(&inv, profile)
	} else {
		sy.log.Warn().Err(perr).Msg("materializing invoice without profile enrichment")
	}

	created, err := sy.store.Invoices.Create(ctx, inv)
	if err != nil {
		return models.Invoice{}, false, fmt.Errorf("failed to materialize invoice for deal %s: %w", deal.ID, err)
	}

	sy.log.Info().Str("deal", deal.ID).Str("invoice_number", created.InvoiceNumber).Msg("materialized invoice from brand deal")
	return created, true, nil
}

// EnrichInvoice back-fills creator fields left unset on a new invoice from
// the current profile. Fields the caller already set are kept: this is
// fill-if-absent, unlike the overwrite policy of FanOutProfile, and the
// two must stay separate code paths.
func EnrichInvoice(inv *models.Invoice, profile models.UserProfile) {
	if inv.BusinessName == "" {
		inv.BusinessName = profile.BusinessName
	}
	if inv.BusinessEmail == "" {
		inv.BusinessEmail = profile.Email
	}
	if inv.BusinessPhone == "" {
		inv.BusinessPhone = profile.Phone
	}
	if inv.BusinessAddress == "" {
		inv.BusinessAddress = profile.BusinessAddress
	}
	if inv.Website == "" {
		inv.Website = profile.Website
	}
	if inv.TaxID == "" {
		inv.TaxID = profile.TaxID
	}
	if inv.Currency == "" {
		inv.Currency = profile.Currency
	}
}

// invoiceFieldFor maps a profile patch key to the invoice field it drives
// and the profile value to write. Profile fields with no invoice
// counterpart (display name, email, tax id) return false.
func invoiceFieldFor(profileKey string, profile models.UserProfile) (string, string, bool) {
	switch profileKey {
	case "business_name":
		return "business_name", profile.BusinessName, true
	case "phone":
		return "business_phone", profile.Phone, true
	case "business_address":
		return "business_address", profile.BusinessAddress, true
	case "website":
		return "website", profile.Website, true
	case "currency":
		return "currency", profile.Currency, true
	}
	return "", "", false
}

// FanOutProfile overwrites the creator-facing fields of every existing
// invoice with the profile values just written. Only the fields present
// in the profile patch are rewritten, but for those fields the overwrite
// is unconditional: invoices present the creator's current identity, not
// a point-in-time snapshot.
func (sy *Syncer) FanOutProfile(ctx context.Context, profile models.UserProfile, patch map[string]any) error {
	invPatch := map[string]any{}
	for profileKey := range patch {
		if invoiceKey, value, ok := invoiceFieldFor(profileKey, profile); ok {
			invPatch[invoiceKey] = value
		}
	}
	if len(invPatch) == 0 {
		return nil
	}

	invs, err := sy.store.Invoices.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to load invoices for profile fan-out: %w", err)
	}

	for _, inv := range invs {
		if _, err := sy.store.Invoices.Update(ctx, inv.ID, invPatch); err != nil {
			return fmt.Errorf("failed to rewrite invoice %s: %w", inv.ID, err)
		}
	}

	sy.log.Info().Int("invoices", len(invs)).Msg("fanned profile changes out to invoices")
	return nil
}

// ABOUTME: Tests for brand-deal invoice materialization and profile fan-out
// ABOUTME: Exercises idempotence, due-date defaults and the fill-vs-overwrite split
package derive

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DouniaBN/aieve-creator-crm-sub000/backend"
	"github.com/DouniaBN/aieve-creator-crm-sub000/models"
	"github.com/DouniaBN/aieve-creator-crm-sub000/store"
)

var testNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestSyncer(t *testing.T) (*Syncer, *store.Store) {
	t.Helper()
	s := store.New(backend.NewMemory(), "creator:alice", zerolog.Nop())
	sy := NewSyncer(s, zerolog.Nop())
	sy.SetClock(func() time.Time { return testNow })
	return sy, s
}

func createDeal(t *testing.T, s *store.Store, deal models.BrandDeal) models.BrandDeal {
	t.Helper()
	created, err := s.BrandDeals.Create(context.Background(), deal)
	require.NoError(t, err)
	return created
}

func TestMaterializeCompletedDeal(t *testing.T) {
	sy, s := newTestSyncer(t)
	ctx := context.Background()

	deal := createDeal(t, s, models.BrandDeal{
		BrandName:    "Acme",
		ContactEmail: "partnerships@acme.test",
		Deliverables: "2x Instagram posts",
		Fee:          500,
		Status:       models.DealCompleted,
	})

	inv, created, err := sy.MaterializeInvoice(ctx, deal)
	require.NoError(t, err)
	require.True(t, created)

	assert.Equal(t, "INV-001", inv.InvoiceNumber)
	assert.Equal(t, models.InvoiceDraft, inv.Status)
	assert.Equal(t, "Acme", inv.ClientName)
	assert.Equal(t, "partnerships@acme.test", inv.ClientEmail)
	assert.Equal(t, deal.ID, inv.SourceBrandDealID)
	require.Len(t, inv.LineItems, 1)
	assert.Equal(t, "2x Instagram posts", inv.LineItems[0].Service)
	assert.Equal(t, 500.0, inv.Total)

	// No end date on the deal: due 30 days out.
	assert.Equal(t, testNow.AddDate(0, 0, 30), inv.DueDate)
}

func TestMaterializeIsIdempotentPerDeal(t *testing.T) {
	sy, s := newTestSyncer(t)
	ctx := context.Background()

	deal := createDeal(t, s, models.BrandDeal{BrandName: "Acme", Fee: 500, Status: models.DealCompleted})

	first, created, err := sy.MaterializeInvoice(ctx, deal)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := sy.MaterializeInvoice(ctx, deal)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	invs, err := s.Invoices.Fetch(ctx)
	require.NoError(t, err)
	assert.Len(t, invs, 1)
}

func TestRepeatedDealWithEqualValueStillInvoiced(t *testing.T) {
	sy, s := newTestSyncer(t)
	ctx := context.Background()

	first := createDeal(t, s, models.BrandDeal{BrandName: "Acme", Fee: 500, Status: models.DealCompleted})
	second := createDeal(t, s, models.BrandDeal{BrandName: "Acme", Fee: 500, Status: models.DealCompleted})

	_, created, err := sy.MaterializeInvoice(ctx, first)
	require.NoError(t, err)
	require.True(t, created)

	inv, created, err := sy.MaterializeInvoice(ctx, second)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, second.ID, inv.SourceBrandDealID)
	assert.Equal(t, "INV-002", inv.InvoiceNumber)

	invs, err := s.Invoices.Fetch(ctx)
	require.NoError(t, err)
	assert.Len(t, invs, 2)
}

func TestMaterializeSkipsIneligibleDeals(t *testing.T) {
	sy, s := newTestSyncer(t)
	ctx := context.Background()

	negotiating := createDeal(t, s, models.BrandDeal{BrandName: "Acme", Fee: 500, Status: models.DealNegotiation})
	free := createDeal(t, s, models.BrandDeal{BrandName: "Gifted", Fee: 0, Status: models.DealCompleted})

	for _, deal := range []models.BrandDeal{negotiating, free} {
		_, created, err := sy.MaterializeInvoice(ctx, deal)
		require.NoError(t, err)
		assert.False(t, created)
	}

	invs, err := s.Invoices.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, invs)
}

func TestMaterializeUsesDealEndDate(t *testing.T) {
	sy, s := newTestSyncer(t)
	end := time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC)

	deal := createDeal(t, s, models.BrandDeal{
		BrandName: "Acme",
		Fee:       250,
		Status:    models.DealPosted,
		EndDate:   &end,
	})

	inv, created, err := sy.MaterializeInvoice(context.Background(), deal)
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, end, inv.DueDate)
}

func TestMaterializeEnrichesFromProfile(t *testing.T) {
	sy, s := newTestSyncer(t)
	ctx := context.Background()

	_, err := s.UpdateProfile(ctx, map[string]any{
		"business_name": "Alice Creative LLC",
		"phone":         "+1 555 0100",
		"currency":      "EUR",
	})
	require.NoError(t, err)

	deal := createDeal(t, s, models.BrandDeal{BrandName: "Acme", Fee: 500, Status: models.DealCompleted})
	inv, created, err := sy.MaterializeInvoice(ctx, deal)
	require.NoError(t, err)
	require.True(t, created)

	assert.Equal(t, "Alice Creative LLC", inv.BusinessName)
	assert.Equal(t, "+1 555 0100", inv.BusinessPhone)
	assert.Equal(t, "EUR", inv.Currency)
}

func TestEnrichInvoiceKeepsExplicitFields(t *testing.T) {
	profile := models.UserProfile{
		BusinessName: "Alice Creative LLC",
		Email:        "alice@example.test",
		Currency:     "EUR",
	}

	inv := models.Invoice{BusinessName: "Side Project Studio"}
	EnrichInvoice(&inv, profile)

	assert.Equal(t, "Side Project Studio", inv.BusinessName)
	assert.Equal(t, "alice@example.test", inv.BusinessEmail)
	assert.Equal(t, "EUR", inv.Currency)
}

func TestFanOutOverwritesExistingInvoices(t *testing.T) {
	sy, s := newTestSyncer(t)
	ctx := context.Background()

	for _, n := range []string{"INV-001", "INV-002"} {
		_, err := s.Invoices.Create(ctx, models.Invoice{
			InvoiceNumber: n,
			Status:        models.InvoiceSent,
			BusinessName:  "Old Name",
			Website:       "old.example.test",
		})
		require.NoError(t, err)
	}

	patch := map[string]any{"business_name": "Alice Creative LLC", "website": "alice.example.test"}
	profile, err := s.UpdateProfile(ctx, patch)
	require.NoError(t, err)

	require.NoError(t, sy.FanOutProfile(ctx, profile, patch))

	invs, err := s.Invoices.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, invs, 2)
	for _, inv := range invs {
		assert.Equal(t, "Alice Creative LLC", inv.BusinessName)
		assert.Equal(t, "alice.example.test", inv.Website)
		// Untouched fields survive the rewrite.
		assert.Equal(t, models.InvoiceSent, inv.Status)
	}
}

func TestFanOutIgnoresUnrelatedPatchKeys(t *testing.T) {
	sy, s := newTestSyncer(t)
	ctx := context.Background()

	_, err := s.Invoices.Create(ctx, models.Invoice{InvoiceNumber: "INV-001", BusinessName: "Old Name"})
	require.NoError(t, err)

	patch := map[string]any{"display_name": "Alice"}
	profile, err := s.UpdateProfile(ctx, patch)
	require.NoError(t, err)

	require.NoError(t, sy.FanOutProfile(ctx, profile, patch))

	invs, err := s.Invoices.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, "Old Name", invs[0].BusinessName)
}

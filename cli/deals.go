// ABOUTME: Brand deal CLI commands
// ABOUTME: Human-friendly commands for managing brand partnerships
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/DouniaBN/aieve-creator-crm-sub000/models"
	"github.com/DouniaBN/aieve-creator-crm-sub000/session"
)

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
	}
	return &t, nil
}

// AddDealCommand creates a new brand deal.
func AddDealCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("add-deal", flag.ExitOnError)
	brand := fs.String("brand", "", "Brand name (required)")
	contact := fs.String("contact", "", "Contact name")
	email := fs.String("email", "", "Contact email")
	deliverables := fs.String("deliverables", "", "Agreed deliverables")
	fee := fs.Float64("fee", 0, "Agreed fee")
	status := fs.String("status", models.DealNegotiation, "Status (negotiation, confirmed, content_in_review, posted, completed, cancelled)")
	start := fs.String("start", "", "Start date (YYYY-MM-DD)")
	end := fs.String("end", "", "End date (YYYY-MM-DD)")
	_ = fs.Parse(args)

	if *brand == "" {
		return fmt.Errorf("--brand is required")
	}

	startDate, err := parseDate(*start)
	if err != nil {
		return err
	}
	endDate, err := parseDate(*end)
	if err != nil {
		return err
	}

	deal, err := scope.CreateBrandDeal(ctx, models.BrandDeal{
		BrandName:    *brand,
		ContactName:  *contact,
		ContactEmail: *email,
		Deliverables: *deliverables,
		Fee:          *fee,
		Status:       *status,
		StartDate:    startDate,
		EndDate:      endDate,
	})
	if err != nil {
		return fmt.Errorf("failed to create brand deal: %w", err)
	}

	fmt.Printf("✓ Brand deal created: %s (ID: %s)\n", deal.BrandName, deal.ID)
	fmt.Printf("  Fee: %.2f\n", deal.Fee)
	fmt.Printf("  Status: %s\n", deal.Status)
	return nil
}

// ListDealsCommand lists brand deals, optionally filtered by status.
func ListDealsCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("list-deals", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status")
	_ = fs.Parse(args)

	var deals []models.BrandDeal
	var err error
	if *status != "" {
		deals, err = scope.Store.BrandDeals.Find(ctx, map[string]any{"status": *status})
	} else {
		deals, err = scope.Store.BrandDeals.Fetch(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list brand deals: %w", err)
	}

	if len(deals) == 0 {
		fmt.Println("No brand deals found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BRAND\tFEE\tSTATUS\tEND\tID")
	_, _ = fmt.Fprintln(w, "-----\t---\t------\t---\t--")
	for _, d := range deals {
		end := "-"
		if d.EndDate != nil {
			end = d.EndDate.Format("2006-01-02")
		}
		_, _ = fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\t%s\n", d.BrandName, d.Fee, d.Status, end, d.ID)
	}
	return w.Flush()
}

// UpdateDealCommand applies a partial update to a brand deal. Moving a
// paid deal to posted or completed materializes its draft invoice.
func UpdateDealCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("update-deal", flag.ExitOnError)
	id := fs.String("id", "", "Deal ID (required)")
	status := fs.String("status", "", "New status")
	fee := fs.Float64("fee", -1, "New fee")
	deliverables := fs.String("deliverables", "", "New deliverables")
	_ = fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	patch := map[string]any{}
	if *status != "" {
		patch["status"] = *status
	}
	if *fee >= 0 {
		patch["fee"] = *fee
	}
	if *deliverables != "" {
		patch["deliverables"] = *deliverables
	}
	if len(patch) == 0 {
		return fmt.Errorf("nothing to update")
	}

	deal, err := scope.UpdateBrandDeal(ctx, *id, patch)
	if err != nil {
		return fmt.Errorf("failed to update brand deal: %w", err)
	}

	fmt.Printf("✓ Brand deal updated: %s (%s)\n", deal.BrandName, deal.Status)
	return nil
}

// DeleteDealCommand removes a brand deal. Invoices and posts that
// reference it keep their copies; nothing cascades.
func DeleteDealCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("delete-deal", flag.ExitOnError)
	id := fs.String("id", "", "Deal ID (required)")
	_ = fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	if err := scope.DeleteBrandDeal(ctx, *id); err != nil {
		return fmt.Errorf("failed to delete brand deal: %w", err)
	}
	fmt.Println("✓ Brand deal deleted")
	return nil
}

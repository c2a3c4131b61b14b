// ABOUTME: Invoice CLI commands
// ABOUTME: Create, list, status transitions and deletion
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/DouniaBN/aieve-creator-crm-sub000/models"
	"github.com/DouniaBN/aieve-creator-crm-sub000/session"
)

// CreateInvoiceCommand creates an invoice. The number is allocated
// automatically unless one is supplied, and business fields are filled
// from the profile.
func CreateInvoiceCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("create-invoice", flag.ExitOnError)
	client := fs.String("client", "", "Client name (required)")
	email := fs.String("email", "", "Client email")
	number := fs.String("number", "", "Invoice number (default: next sequential)")
	service := fs.String("service", "", "Line item service (required)")
	qty := fs.Float64("qty", 1, "Line item quantity")
	rate := fs.Float64("rate", 0, "Line item rate (required)")
	discount := fs.Float64("discount", 0, "Discount rate in percent")
	tax := fs.Float64("tax", 0, "Tax rate in percent")
	due := fs.String("due", "", "Due date (YYYY-MM-DD, default: +30 days)")
	_ = fs.Parse(args)

	if *client == "" {
		return fmt.Errorf("--client is required")
	}
	if *service == "" || *rate <= 0 {
		return fmt.Errorf("--service and a positive --rate are required")
	}

	now := time.Now()
	dueDate := now.AddDate(0, 0, 30)
	if *due != "" {
		parsed, err := parseDate(*due)
		if err != nil {
			return err
		}
		dueDate = *parsed
	}

	inv, err := scope.CreateInvoice(ctx, models.Invoice{
		InvoiceNumber: *number,
		IssueDate:     now,
		DueDate:       dueDate,
		ClientName:    *client,
		ClientEmail:   *email,
		LineItems:     []models.LineItem{{Service: *service, Quantity: *qty, Rate: *rate}},
		DiscountRate:  *discount,
		TaxRate:       *tax,
	})
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	fmt.Printf("✓ Invoice created: %s (ID: %s)\n", inv.InvoiceNumber, inv.ID)
	fmt.Printf("  Client: %s\n", inv.ClientName)
	fmt.Printf("  Total: %.2f %s\n", inv.Total, inv.Currency)
	fmt.Printf("  Due: %s\n", inv.DueDate.Format("2006-01-02"))
	return nil
}

// ListInvoicesCommand lists invoices, optionally filtered by status.
func ListInvoicesCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("list-invoices", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status (draft, sent, paid, overdue)")
	asJSON := fs.Bool("json", false, "Print full records as JSON")
	_ = fs.Parse(args)

	var invs []models.Invoice
	var err error
	if *status != "" {
		invs, err = scope.Store.Invoices.Find(ctx, map[string]any{"status": *status})
	} else {
		invs, err = scope.Store.Invoices.Fetch(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list invoices: %w", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(invs)
	}

	if len(invs) == 0 {
		fmt.Println("No invoices found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NUMBER\tCLIENT\tTOTAL\tSTATUS\tDUE\tID")
	_, _ = fmt.Fprintln(w, "------\t------\t-----\t------\t---\t--")
	for _, inv := range invs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\n",
			inv.InvoiceNumber, inv.ClientName, inv.Total, inv.Status,
			inv.DueDate.Format("2006-01-02"), inv.ID)
	}
	return w.Flush()
}

// SetInvoiceStatusCommand transitions an invoice and emits the matching
// notification.
func SetInvoiceStatusCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("invoice-status", flag.ExitOnError)
	id := fs.String("id", "", "Invoice ID (required)")
	status := fs.String("status", "", "New status (draft, sent, paid, overdue) (required)")
	_ = fs.Parse(args)

	if *id == "" || *status == "" {
		return fmt.Errorf("--id and --status are required")
	}

	inv, err := scope.UpdateInvoice(ctx, *id, map[string]any{"status": *status})
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	fmt.Printf("✓ Invoice %s is now %s\n", inv.InvoiceNumber, inv.Status)
	return nil
}

// DeleteInvoiceCommand removes an invoice permanently.
func DeleteInvoiceCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("delete-invoice", flag.ExitOnError)
	id := fs.String("id", "", "Invoice ID (required)")
	_ = fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	if err := scope.DeleteInvoice(ctx, *id); err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	fmt.Println("✓ Invoice deleted")
	return nil
}

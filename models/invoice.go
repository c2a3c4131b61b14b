// ABOUTME: Invoice model and line item arithmetic
// ABOUTME: Recomputes per-line amounts and invoice aggregates deterministically
package models

import (
	"time"
)

// Invoice status constants.
const (
	InvoiceDraft   = "draft"
	InvoiceSent    = "sent"
	InvoicePaid    = "paid"
	InvoiceOverdue = "overdue"
)

type LineItem struct {
	Service     string  `json:"service"`
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

type Invoice struct {
	Meta
	InvoiceNumber string     `json:"invoice_number"`
	IssueDate     time.Time  `json:"issue_date"`
	DueDate       time.Time  `json:"due_date"`
	Currency      string     `json:"currency,omitempty"`
	Status        string     `json:"status"`

	ClientName    string `json:"client_name"`
	ClientEmail   string `json:"client_email,omitempty"`
	ClientAddress string `json:"client_address,omitempty"`

	// Creator-facing fields. These mirror the current UserProfile: empty
	// values are back-filled from the profile at creation time, and later
	// profile edits overwrite them on every existing invoice.
	BusinessName    string `json:"business_name,omitempty"`
	BusinessEmail   string `json:"business_email,omitempty"`
	BusinessPhone   string `json:"business_phone,omitempty"`
	BusinessAddress string `json:"business_address,omitempty"`
	Website         string `json:"website,omitempty"`
	TaxID           string `json:"tax_id,omitempty"`

	// Display toggles for the creator fields, independent of their values.
	ShowPhone   bool `json:"show_phone"`
	ShowTaxID   bool `json:"show_tax_id"`
	ShowAddress bool `json:"show_address"`

	LineItems      []LineItem `json:"line_items,omitempty"`
	DiscountRate   float64    `json:"discount_rate"`
	TaxRate        float64    `json:"tax_rate"`
	Subtotal       float64    `json:"subtotal"`
	DiscountAmount float64    `json:"discount_amount"`
	TaxAmount      float64    `json:"tax_amount"`
	Total          float64    `json:"total"`

	// Link to the brand deal this invoice was materialized from, when any.
	// Materialization is keyed on this link so a deal is invoiced at most once.
	SourceBrandDealID string `json:"source_brand_deal_id,omitempty"`
}

// Recalculate rewrites every line item amount and the invoice aggregates
// from quantity, rate, discount rate and tax rate. Running it again on
// unchanged inputs yields the same totals.
func (inv *Invoice) Recalculate() {
	subtotal := 0.0
	for i := range inv.LineItems {
		item := &inv.LineItems[i]
		item.Amount = item.Quantity * item.Rate
		subtotal += item.Amount
	}
	inv.Subtotal = subtotal
	inv.DiscountAmount = subtotal * inv.DiscountRate / 100
	inv.TaxAmount = (subtotal - inv.DiscountAmount) * inv.TaxRate / 100
	inv.Total = subtotal - inv.DiscountAmount + inv.TaxAmount
}

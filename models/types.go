// ABOUTME: Data models for creator CRM entities
// ABOUTME: Defines BrandDeal, Invoice, ContentPost, Project, Task, Notification and singleton records
package models

import (
	"time"
)

// Meta carries the fields every persisted row shares. The backend keys
// records by ID; UserID scopes every row to exactly one identity and
// CreatedAt drives the most-recent-first collection ordering.
type Meta struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Stamp fills ownership fields before a row is persisted. The record id is
// assigned separately by the store since the backend keys records by it.
func (m *Meta) Stamp(userID string, now time.Time) {
	m.UserID = userID
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
}

// Key returns the row's record id.
func (m *Meta) Key() string { return m.ID }

// SetKey records the backend-assigned record id.
func (m *Meta) SetKey(id string) { m.ID = id }

type Project struct {
	Meta
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
}

// Project status constants.
const (
	ProjectActive   = "active"
	ProjectArchived = "archived"
)

type BrandDeal struct {
	Meta
	BrandName    string     `json:"brand_name"`
	ContactName  string     `json:"contact_name,omitempty"`
	ContactEmail string     `json:"contact_email,omitempty"`
	Deliverables string     `json:"deliverables,omitempty"`
	Fee          float64    `json:"fee"`
	Status       string     `json:"status"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
}

// Brand deal status constants.
const (
	DealNegotiation = "negotiation"
	DealConfirmed   = "confirmed"
	DealInReview    = "content_in_review"
	DealPosted      = "posted"
	DealCompleted   = "completed"
	DealCancelled   = "cancelled"
)

// DealDeliverable reports whether a deal status means the work has been
// delivered, which is what makes the deal invoiceable.
func DealDeliverable(status string) bool {
	return status == DealPosted || status == DealCompleted
}

type ContentPost struct {
	Meta
	Title       string     `json:"title"`
	Platform    string     `json:"platform"`
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	ProjectID   string     `json:"project_id,omitempty"`
	BrandDealID string     `json:"brand_deal_id,omitempty"`
}

// Platform constants.
const (
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
	PlatformYouTube   = "youtube"
	PlatformTwitter   = "twitter"
	PlatformLinkedIn  = "linkedin"
	PlatformOther     = "other"
)

// Content post status constants.
const (
	PostIdea      = "idea"
	PostDraft     = "draft"
	PostScheduled = "scheduled"
	PostPublished = "published"
)

type Task struct {
	Meta
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
}

type Notification struct {
	Meta
	Type        string `json:"type"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Read        bool   `json:"read"`
	RelatedID   string `json:"related_id,omitempty"`
	RelatedType string `json:"related_type,omitempty"`
}

// Notification type constants.
const (
	NotifyInvoiceCreated   = "invoice_created"
	NotifyInvoiceSent      = "invoice_sent"
	NotifyInvoicePaid      = "invoice_paid"
	NotifyInvoiceOverdue   = "invoice_overdue"
	NotifyBrandDealUpdated = "brand_deal_updated"
	NotifyContentScheduled = "content_scheduled"
	NotifyContentPublished = "content_published"
	NotifyContentUpdated   = "content_updated"
)

// Related record type constants for Notification back-references.
const (
	RelatedInvoice     = "invoice"
	RelatedBrandDeal   = "brand_deal"
	RelatedContentPost = "content_post"
)

// UserProfile is a singleton-per-identity record holding the creator's
// display and business identity. Changes to the business fields fan out
// into existing invoices.
type UserProfile struct {
	Meta
	DisplayName     string `json:"display_name,omitempty"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	BusinessName    string `json:"business_name,omitempty"`
	BusinessAddress string `json:"business_address,omitempty"`
	Website         string `json:"website,omitempty"`
	TaxID           string `json:"tax_id,omitempty"`
	Currency        string `json:"currency,omitempty"`
}

// UserSettings is a singleton-per-identity record. When NotificationsEnabled
// is false no notification rows are created by any trigger.
type UserSettings struct {
	Meta
	NotificationsEnabled bool `json:"notifications_enabled"`
}

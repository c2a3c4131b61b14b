// ABOUTME: Profile, settings and notification CLI commands
// ABOUTME: Profile edits fan out into existing invoices
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/DouniaBN/aieve-creator-crm-sub000/session"
)

// ShowProfileCommand prints the current profile.
func ShowProfileCommand(ctx context.Context, scope *session.Scope) error {
	p, err := scope.Store.Profile(ctx)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Display name\t%s\n", p.DisplayName)
	_, _ = fmt.Fprintf(w, "Email\t%s\n", p.Email)
	_, _ = fmt.Fprintf(w, "Phone\t%s\n", p.Phone)
	_, _ = fmt.Fprintf(w, "Business\t%s\n", p.BusinessName)
	_, _ = fmt.Fprintf(w, "Address\t%s\n", p.BusinessAddress)
	_, _ = fmt.Fprintf(w, "Website\t%s\n", p.Website)
	_, _ = fmt.Fprintf(w, "Tax ID\t%s\n", p.TaxID)
	_, _ = fmt.Fprintf(w, "Currency\t%s\n", p.Currency)
	return w.Flush()
}

// UpdateProfileCommand patches profile fields. Business fields are
// rewritten onto every existing invoice.
func UpdateProfileCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("update-profile", flag.ExitOnError)
	display := fs.String("display-name", "", "Display name")
	phone := fs.String("phone", "", "Phone number")
	business := fs.String("business-name", "", "Business name")
	address := fs.String("business-address", "", "Business address")
	website := fs.String("website", "", "Website")
	taxID := fs.String("tax-id", "", "Tax ID")
	currency := fs.String("currency", "", "Preferred currency code")
	_ = fs.Parse(args)

	patch := map[string]any{}
	for key, value := range map[string]string{
		"display_name":     *display,
		"phone":            *phone,
		"business_name":    *business,
		"business_address": *address,
		"website":          *website,
		"tax_id":           *taxID,
		"currency":         *currency,
	} {
		if value != "" {
			patch[key] = value
		}
	}
	if len(patch) == 0 {
		return fmt.Errorf("nothing to update")
	}

	if _, err := scope.UpdateProfile(ctx, patch); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	fmt.Println("✓ Profile updated")
	return nil
}

// NotificationsCommand toggles the notifications setting.
func NotificationsCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("notifications", flag.ExitOnError)
	enable := fs.Bool("enable", false, "Enable notifications")
	disable := fs.Bool("disable", false, "Disable notifications")
	_ = fs.Parse(args)

	if *enable == *disable {
		settings, err := scope.Store.Settings(ctx)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		fmt.Printf("Notifications enabled: %v\n", settings.NotificationsEnabled)
		return nil
	}

	settings, err := scope.UpdateSettings(ctx, map[string]any{"notifications_enabled": *enable})
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	fmt.Printf("✓ Notifications enabled: %v\n", settings.NotificationsEnabled)
	return nil
}

// ListNotificationsCommand prints the recent notification history.
func ListNotificationsCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("list-notifications", flag.ExitOnError)
	unread := fs.Bool("unread", false, "Only unread notifications")
	_ = fs.Parse(args)

	rows, err := scope.Store.Notifications.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to list notifications: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	shown := 0
	for _, n := range rows {
		if *unread && n.Read {
			continue
		}
		mark := " "
		if !n.Read {
			mark = "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mark, n.CreatedAt.Format("2006-01-02 15:04"), n.Message, n.ID)
		shown++
	}
	if shown == 0 {
		fmt.Println("No notifications")
		return nil
	}
	return w.Flush()
}

// MarkReadCommand marks one or all notifications read.
func MarkReadCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("mark-read", flag.ExitOnError)
	id := fs.String("id", "", "Notification ID")
	all := fs.Bool("all", false, "Mark every notification read")
	_ = fs.Parse(args)

	switch {
	case *all:
		if err := scope.MarkAllNotificationsRead(ctx); err != nil {
			return fmt.Errorf("failed to mark notifications read: %w", err)
		}
		fmt.Println("✓ All notifications marked read")
	case *id != "":
		if err := scope.MarkNotificationRead(ctx, *id); err != nil {
			return fmt.Errorf("failed to mark notification read: %w", err)
		}
		fmt.Println("✓ Notification marked read")
	default:
		return fmt.Errorf("--id or --all is required")
	}
	return nil
}

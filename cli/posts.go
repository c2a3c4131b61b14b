// ABOUTME: Content post CLI commands
// ABOUTME: Planning and status tracking for platform content
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/DouniaBN/aieve-creator-crm-sub000/models"
	"github.com/DouniaBN/aieve-creator-crm-sub000/session"
)

// AddPostCommand creates a content post.
func AddPostCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("add-post", flag.ExitOnError)
	title := fs.String("title", "", "Post title (required)")
	platform := fs.String("platform", models.PlatformOther, "Platform (instagram, tiktok, youtube, twitter, linkedin, other)")
	status := fs.String("status", models.PostIdea, "Status (idea, draft, scheduled, published)")
	scheduled := fs.String("scheduled", "", "Scheduled date (YYYY-MM-DD)")
	project := fs.String("project", "", "Linked project ID")
	deal := fs.String("deal", "", "Linked brand deal ID")
	_ = fs.Parse(args)

	if *title == "" {
		return fmt.Errorf("--title is required")
	}

	scheduledAt, err := parseDate(*scheduled)
	if err != nil {
		return err
	}

	post, err := scope.CreateContentPost(ctx, models.ContentPost{
		Title:       *title,
		Platform:    *platform,
		Status:      *status,
		ScheduledAt: scheduledAt,
		ProjectID:   *project,
		BrandDealID: *deal,
	})
	if err != nil {
		return fmt.Errorf("failed to create content post: %w", err)
	}

	fmt.Printf("✓ Content post created: %s (ID: %s)\n", post.Title, post.ID)
	return nil
}

// ListPostsCommand lists content posts, optionally filtered.
func ListPostsCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("list-posts", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status")
	platform := fs.String("platform", "", "Filter by platform")
	_ = fs.Parse(args)

	filters := map[string]any{}
	if *status != "" {
		filters["status"] = *status
	}
	if *platform != "" {
		filters["platform"] = *platform
	}

	var posts []models.ContentPost
	var err error
	if len(filters) > 0 {
		posts, err = scope.Store.ContentPosts.Find(ctx, filters)
	} else {
		posts, err = scope.Store.ContentPosts.Fetch(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list content posts: %w", err)
	}

	if len(posts) == 0 {
		fmt.Println("No content posts found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TITLE\tPLATFORM\tSTATUS\tSCHEDULED\tID")
	_, _ = fmt.Fprintln(w, "-----\t--------\t------\t---------\t--")
	for _, p := range posts {
		scheduled := "-"
		if p.ScheduledAt != nil {
			scheduled = p.ScheduledAt.Format("2006-01-02")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Title, p.Platform, p.Status, scheduled, p.ID)
	}
	return w.Flush()
}

// UpdatePostCommand applies a partial update to a content post.
func UpdatePostCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("update-post", flag.ExitOnError)
	id := fs.String("id", "", "Post ID (required)")
	status := fs.String("status", "", "New status")
	scheduled := fs.String("scheduled", "", "Scheduled date (YYYY-MM-DD)")
	title := fs.String("title", "", "New title")
	_ = fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	patch := map[string]any{}
	if *status != "" {
		patch["status"] = *status
	}
	if *title != "" {
		patch["title"] = *title
	}
	if *scheduled != "" {
		scheduledAt, err := parseDate(*scheduled)
		if err != nil {
			return err
		}
		patch["scheduled_at"] = scheduledAt
	}
	if len(patch) == 0 {
		return fmt.Errorf("nothing to update")
	}

	post, err := scope.UpdateContentPost(ctx, *id, patch)
	if err != nil {
		return fmt.Errorf("failed to update content post: %w", err)
	}

	fmt.Printf("✓ Content post updated: %s (%s)\n", post.Title, post.Status)
	return nil
}

// DeletePostCommand removes a content post.
func DeletePostCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("delete-post", flag.ExitOnError)
	id := fs.String("id", "", "Post ID (required)")
	_ = fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	if err := scope.DeleteContentPost(ctx, *id); err != nil {
		return fmt.Errorf("failed to delete content post: %w", err)
	}
	fmt.Println("✓ Content post deleted")
	return nil
}

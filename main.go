// ABOUTME: Entry point for the creator CRM CLI
// ABOUTME: Routes commands and owns the backend connection and session lifecycle
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/DouniaBN/aieve-creator-crm-sub000/backend"
	"github.com/DouniaBN/aieve-creator-crm-sub000/cli"
	"github.com/DouniaBN/aieve-creator-crm-sub000/drafts"
	"github.com/DouniaBN/aieve-creator-crm-sub000/session"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	showVersion := flag.Bool("version", false, "Show version and exit")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("creatorcrm version %s\n", version)
		os.Exit(0)
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]
	ctx := context.Background()

	cfg, err := backend.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Drafts live locally and need no connection or session.
	switch command {
	case "save-draft", "show-draft", "clear-draft":
		store, err := drafts.Open(filepath.Join(xdg.DataHome, backend.AppName, "drafts"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open draft store")
		}
		defer store.Close()

		var cmdErr error
		switch command {
		case "save-draft":
			cmdErr = cli.SaveDraftCommand(store, commandArgs)
		case "show-draft":
			cmdErr = cli.ShowDraftCommand(store, commandArgs)
		case "clear-draft":
			cmdErr = cli.ClearDraftCommand(store, commandArgs)
		}
		if cmdErr != nil {
			log.Fatal().Err(cmdErr).Msg("command failed")
		}
		return
	}

	client, err := backend.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("endpoint", cfg.Endpoint).Msg("failed to connect to backend")
	}
	defer func() { _ = client.Close(ctx) }()

	manager := session.NewManager(client, log)
	defer manager.Close()

	switch command {
	case "signup":
		err = cli.SignupCommand(ctx, client, cfg, commandArgs)
	case "login":
		err = cli.LoginCommand(ctx, client, cfg, commandArgs)
	case "logout":
		err = cli.LogoutCommand(ctx, client, cfg)
	case "init":
		err = cli.InitCommand(ctx, client, commandArgs)
	default:
		scope, resumeErr := resume(ctx, client, cfg, manager)
		if resumeErr != nil {
			log.Fatal().Err(resumeErr).Msg("not signed in")
		}
		err = route(ctx, scope, command, commandArgs)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

// resume restores the stored session and returns the resulting scope.
func resume(ctx context.Context, client *backend.Client, cfg *backend.Config, manager *session.Manager) (*session.Scope, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: run 'creatorcrm login' first", backend.ErrNotSignedIn)
	}
	if err := client.Resume(ctx, cfg.Token); err != nil {
		return nil, fmt.Errorf("stored session expired, run 'creatorcrm login' again: %w", err)
	}

	scope, ok := manager.Current()
	if !ok {
		return nil, fmt.Errorf("session did not start")
	}
	return scope, nil
}

func route(ctx context.Context, scope *session.Scope, command string, args []string) error {
	switch command {
	// Brand deals
	case "add-deal":
		return cli.AddDealCommand(ctx, scope, args)
	case "list-deals":
		return cli.ListDealsCommand(ctx, scope, args)
	case "update-deal":
		return cli.UpdateDealCommand(ctx, scope, args)
	case "delete-deal":
		return cli.DeleteDealCommand(ctx, scope, args)

	// Invoices
	case "create-invoice":
		return cli.CreateInvoiceCommand(ctx, scope, args)
	case "list-invoices":
		return cli.ListInvoicesCommand(ctx, scope, args)
	case "invoice-status":
		return cli.SetInvoiceStatusCommand(ctx, scope, args)
	case "delete-invoice":
		return cli.DeleteInvoiceCommand(ctx, scope, args)

	// Content posts
	case "add-post":
		return cli.AddPostCommand(ctx, scope, args)
	case "list-posts":
		return cli.ListPostsCommand(ctx, scope, args)
	case "update-post":
		return cli.UpdatePostCommand(ctx, scope, args)
	case "delete-post":
		return cli.DeletePostCommand(ctx, scope, args)

	// Tasks and projects
	case "add-task":
		return cli.AddTaskCommand(ctx, scope, args)
	case "list-tasks":
		return cli.ListTasksCommand(ctx, scope)
	case "toggle-task":
		return cli.ToggleTaskCommand(ctx, scope, args)
	case "delete-task":
		return cli.DeleteTaskCommand(ctx, scope, args)
	case "add-project":
		return cli.AddProjectCommand(ctx, scope, args)
	case "list-projects":
		return cli.ListProjectsCommand(ctx, scope)
	case "archive-project":
		return cli.ArchiveProjectCommand(ctx, scope, args)

	// Profile, settings, notifications
	case "profile":
		return cli.ShowProfileCommand(ctx, scope)
	case "update-profile":
		return cli.UpdateProfileCommand(ctx, scope, args)
	case "notifications":
		return cli.NotificationsCommand(ctx, scope, args)
	case "list-notifications":
		return cli.ListNotificationsCommand(ctx, scope, args)
	case "mark-read":
		return cli.MarkReadCommand(ctx, scope, args)

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
		return nil
	}
}

func printUsage() {
	fmt.Printf(`creatorcrm v%s - CRM for content creators

USAGE:
  creatorcrm [global flags] <command> [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --verbose              Enable debug logging

ACCOUNT:
  signup                 Create an account (--email, --password)
  login                  Sign in (--email, --password)
  logout                 Sign out and forget the stored session
  init                   Define the remote schema (--user, --pass)

BRAND DEALS:
  add-deal               Create a brand deal (--brand, --fee, ...)
  list-deals             List brand deals (--status)
  update-deal            Update a brand deal (--id, --status, --fee)
  delete-deal            Delete a brand deal (--id)

INVOICES:
  create-invoice         Create an invoice (--client, --service, --rate, ...)
  list-invoices          List invoices (--status, --json)
  invoice-status         Change an invoice status (--id, --status)
  delete-invoice         Delete an invoice (--id)

CONTENT:
  add-post               Create a content post (--title, --platform, ...)
  list-posts             List content posts (--status, --platform)
  update-post            Update a content post (--id, --status, --scheduled)
  delete-post            Delete a content post (--id)

TASKS & PROJECTS:
  add-task <text>        Create a task
  list-tasks             List recent tasks
  toggle-task            Toggle completion (--id)
  delete-task            Delete a task (--id)
  add-project            Create a project (--name)
  list-projects          List projects
  archive-project        Archive a project (--id)

PROFILE & NOTIFICATIONS:
  profile                Show the profile
  update-profile         Update profile fields (fan out to invoices)
  notifications          Show or toggle notifications (--enable, --disable)
  list-notifications     List notification history (--unread)
  mark-read              Mark notifications read (--id or --all)

DRAFTS:
  save-draft             Save a local form draft (--form, --body)
  show-draft             Show the latest draft (--form)
  clear-draft            Remove a form's drafts (--form)

Connection settings come from %s/%s/%s and can be
overridden with CREATORCRM_ENDPOINT, CREATORCRM_NAMESPACE,
CREATORCRM_DATABASE and CREATORCRM_ACCESS.
`, version, xdg.DataHome, backend.AppName, backend.ConfigFileName)
}

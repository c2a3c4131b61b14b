// ABOUTME: Authentication and setup CLI commands
// ABOUTME: Sign-up, sign-in, sign-out and one-time schema definition
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/DouniaBN/aieve-creator-crm-sub000/backend"
)

// SignupCommand registers a new creator account and stores the session token.
func SignupCommand(ctx context.Context, client *backend.Client, cfg *backend.Config, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "", "Account password (required)")
	_ = fs.Parse(args)

	if *email == "" || *password == "" {
		return fmt.Errorf("--email and --password are required")
	}

	token, err := client.SignUp(ctx, *email, *password)
	if err != nil {
		return fmt.Errorf("failed to sign up: %w", err)
	}
	if err := cfg.SetToken(token); err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}

	fmt.Printf("✓ Account created: %s\n", *email)
	return nil
}

// LoginCommand signs in and stores the session token.
func LoginCommand(ctx context.Context, client *backend.Client, cfg *backend.Config, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Account email (required)")
	password := fs.String("password", "", "Account password (required)")
	_ = fs.Parse(args)

	if *email == "" || *password == "" {
		return fmt.Errorf("--email and --password are required")
	}

	token, err := client.SignIn(ctx, *email, *password)
	if err != nil {
		return fmt.Errorf("failed to sign in: %w", err)
	}
	if err := cfg.SetToken(token); err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}

	fmt.Printf("✓ Signed in as %s\n", *email)
	return nil
}

// LogoutCommand invalidates the session and forgets the stored token.
func LogoutCommand(ctx context.Context, client *backend.Client, cfg *backend.Config) error {
	if err := client.SignOut(ctx); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	if err := cfg.SetToken(""); err != nil {
		return fmt.Errorf("failed to forget session token: %w", err)
	}

	fmt.Println("✓ Signed out")
	return nil
}

// InitCommand defines the remote schema: tables, the record access method
// and the unique indexes. Requires root credentials, runs once per database.
func InitCommand(ctx context.Context, client *backend.Client, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	username := fs.String("user", "root", "Admin username")
	password := fs.String("pass", "", "Admin password (required)")
	_ = fs.Parse(args)

	if *password == "" {
		return fmt.Errorf("--pass is required")
	}

	if err := client.AdminSignIn(ctx, *username, *password); err != nil {
		return fmt.Errorf("failed to sign in as admin: %w", err)
	}
	if err := client.Define(ctx); err != nil {
		return fmt.Errorf("failed to define schema: %w", err)
	}

	fmt.Println("✓ Remote schema defined")
	return nil
}

// ABOUTME: Local form draft CLI commands
// ABOUTME: Save, show and clear offline drafts kept outside the remote store
package cli

import (
	"errors"
	"flag"
	"fmt"

	"github.com/DouniaBN/aieve-creator-crm-sub000/drafts"
)

// How many draft revisions to keep per form after a save.
const draftRevisionsKept = 10

// SaveDraftCommand stores a new revision of a form draft.
func SaveDraftCommand(store *drafts.Store, args []string) error {
	fs := flag.NewFlagSet("save-draft", flag.ExitOnError)
	form := fs.String("form", "", "Form name, e.g. invoice or brand_deal (required)")
	body := fs.String("body", "", "Draft payload (required)")
	_ = fs.Parse(args)

	if *form == "" || *body == "" {
		return fmt.Errorf("--form and --body are required")
	}

	rev, err := store.Save(*form, []byte(*body))
	if err != nil {
		return err
	}
	if err := store.Prune(*form, draftRevisionsKept); err != nil {
		return err
	}

	fmt.Printf("✓ Draft saved (revision %s)\n", rev)
	return nil
}

// ShowDraftCommand prints the latest draft for a form.
func ShowDraftCommand(store *drafts.Store, args []string) error {
	fs := flag.NewFlagSet("show-draft", flag.ExitOnError)
	form := fs.String("form", "", "Form name (required)")
	_ = fs.Parse(args)

	if *form == "" {
		return fmt.Errorf("--form is required")
	}

	blob, err := store.Latest(*form)
	if errors.Is(err, drafts.ErrNoDraft) {
		fmt.Printf("No draft saved for %s\n", *form)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println(string(blob))
	return nil
}

// ClearDraftCommand removes every revision of a form's draft.
func ClearDraftCommand(store *drafts.Store, args []string) error {
	fs := flag.NewFlagSet("clear-draft", flag.ExitOnError)
	form := fs.String("form", "", "Form name (required)")
	_ = fs.Parse(args)

	if *form == "" {
		return fmt.Errorf("--form is required")
	}

	if err := store.Clear(*form); err != nil {
		return err
	}
	fmt.Println("✓ Draft cleared")
	return nil
}

// ABOUTME: Sequential invoice number allocation per identity
// ABOUTME: Computes the next INV-### value that collides with no existing number
package invoices

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/DouniaBN/aieve-creator-crm-sub000/store"
)

// Canonical sequential numbers are INV- followed by one to three digits.
// Anything else (legacy timestamp-derived identifiers, externally assigned
// numbers) still blocks collisions but never advances the sequence.
var canonicalNumber = regexp.MustCompile(`^INV-(\d{1,3})$`)

// NextNumber returns the lowest unused sequential number above the highest
// canonical value in existing. The result is unique against existing at
// computation time only; true allocation happens at invoice-create time,
// backed by the per-identity unique index on invoice numbers.
func NextNumber(existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	highest := 0

	for _, n := range existing {
		taken[n] = struct{}{}
		if m := canonicalNumber.FindStringSubmatch(n); m != nil {
			v, err := strconv.Atoi(m[1])
			if err == nil && v > highest {
				highest = v
			}
		}
	}

	for candidate := highest + 1; ; candidate++ {
		number := fmt.Sprintf("INV-%03d", candidate)
		if _, used := taken[number]; !used {
			return number
		}
	}
}

// Generator allocates numbers against the identity's current invoices.
type Generator struct {
	store *store.Store
}

func NewGenerator(s *store.Store) *Generator {
	return &Generator{store: s}
}

// Next fetches the identity's invoices and returns the next free number.
func (g *Generator) Next(ctx context.Context) (string, error) {
	invs, err := g.store.Invoices.Fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load existing invoice numbers: %w", err)
	}

	numbers := make([]string, 0, len(invs))
	for _, inv := range invs {
		numbers = append(numbers, inv.InvoiceNumber)
	}
	return NextNumber(numbers), nil
}

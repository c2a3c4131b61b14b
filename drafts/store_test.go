// ABOUTME: Tests for local draft persistence
// ABOUTME: Uses a temporary on-disk BadgerDB per test
package drafts

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLatestReturnsNewestRevision(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Save("invoice", []byte(`{"client_name":"Acme"}`))
	require.NoError(t, err)
	_, err = s.Save("invoice", []byte(`{"client_name":"Acme","tax_rate":19}`))
	require.NoError(t, err)

	got, err := s.Latest("invoice")
	require.NoError(t, err)
	assert.JSONEq(t, `{"client_name":"Acme","tax_rate":19}`, string(got))
}

func TestLatestWithoutDraft(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Latest("invoice")
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestFormsAreIsolated(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Save("invoice", []byte("invoice draft"))
	require.NoError(t, err)
	_, err = s.Save("brand_deal", []byte("deal draft"))
	require.NoError(t, err)

	got, err := s.Latest("brand_deal")
	require.NoError(t, err)
	assert.Equal(t, "deal draft", string(got))

	n, err := s.Revisions("invoice")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPruneKeepsNewest(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		_, err := s.Save("invoice", []byte(fmt.Sprintf("rev %d", i)))
		require.NoError(t, err)
	}

	require.NoError(t, s.Prune("invoice", 2))

	n, err := s.Revisions("invoice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.Latest("invoice")
	require.NoError(t, err)
	assert.Equal(t, "rev 4", string(got))
}

func TestClear(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Save("invoice", []byte("draft"))
	require.NoError(t, err)
	require.NoError(t, s.Clear("invoice"))

	_, err = s.Latest("invoice")
	assert.ErrorIs(t, err, ErrNoDraft)

	n, err := s.Revisions("invoice")
	require.NoError(t, err)
	assert.Zero(t, n)
}

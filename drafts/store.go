// ABOUTME: Local draft persistence for partially filled forms
// ABOUTME: BadgerDB keyed by form name and a time-ordered ULID per revision
package drafts

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/oklog/ulid/v2"
)

// ErrNoDraft is returned when a form has no saved draft.
var ErrNoDraft = errors.New("drafts: no draft saved")

// Store keeps form drafts on the local disk so half-finished invoices and
// deals survive a crash or sign-out. Drafts never touch the remote store.
type Store struct {
	db      *badger.DB
	entropy *ulid.MonotonicEntropy
}

// Open creates or reopens the draft database at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open draft store: %w", err)
	}
	return &Store{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func formPrefix(form string) []byte {
	return []byte("draft/" + form + "/")
}

// Save stores a new revision of the form's draft and returns its revision
// id. ULIDs sort by creation time, so the latest revision has the highest
// key under the form's prefix.
func (s *Store) Save(form string, blob []byte) (string, error) {
	rev := ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
	key := append(formPrefix(form), rev...)

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, blob)
	})
	if err != nil {
		return "", fmt.Errorf("failed to save draft for %s: %w", form, err)
	}
	return rev, nil
}

// Latest returns the most recent draft revision for the form.
func (s *Store) Latest(form string) ([]byte, error) {
	var latest []byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = formPrefix(form)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			v, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			latest = v
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read drafts for %s: %w", form, err)
	}
	if latest == nil {
		return nil, ErrNoDraft
	}
	return latest, nil
}

// Revisions returns how many draft revisions the form has.
func (s *Store) Revisions(form string) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = formPrefix(form)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Prune deletes all but the newest keep revisions of the form's draft.
func (s *Store) Prune(form string, keep int) error {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = formPrefix(form)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to list drafts for %s: %w", form, err)
	}

	if keep < 0 {
		keep = 0
	}
	if len(keys) <= keep {
		return nil
	}

	stale := keys[:len(keys)-keep]
	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear removes every draft revision of the form.
func (s *Store) Clear(form string) error {
	return s.Prune(form, 0)
}

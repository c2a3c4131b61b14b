// ABOUTME: In-memory backend implementation of the API contract
// ABOUTME: Mirrors server-side ordering and uniqueness constraints for tests and offline use
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"
)

// Memory implements API against process-local state. It enforces the same
// constraints the provisioned schema defines: one profile/settings row per
// identity and unique invoice numbers per identity.
type Memory struct {
	mu       sync.Mutex
	tables   map[string][]*memRow
	seq      int64
	failures map[string]error
}

type memRow struct {
	id   string
	seq  int64
	data map[string]any
}

func NewMemory() *Memory {
	return &Memory{
		tables:   map[string][]*memRow{},
		failures: map[string]error{},
	}
}

// FailNext makes the next call of op ("insert", "merge", "remove", "list")
// against table return err. Used to exercise best-effort paths.
func (m *Memory) FailNext(op, table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op+":"+table] = err
}

func (m *Memory) takeFailure(op, table string) error {
	key := op + ":" + table
	if err, ok := m.failures[key]; ok {
		delete(m.failures, key)
		return err
	}
	return nil
}

// normalize round-trips v through JSON so stored rows, patches and filter
// values share one representation (numbers as float64, times as RFC3339).
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toRowMap(row any) (map[string]any, error) {
	v, err := normalize(row)
	if err != nil {
		return nil, fmt.Errorf("invalid row: %w", err)
	}
	data, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid row: expected object, got %T", v)
	}
	return data, nil
}

func rowCreatedAt(data map[string]any) time.Time {
	s, _ := data["created_at"].(string)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (m *Memory) Insert(_ context.Context, table, id string, row any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure("insert", table); err != nil {
		return err
	}

	data, err := toRowMap(row)
	if err != nil {
		return err
	}
	data["id"] = id

	if err := m.checkUnique(table, id, data); err != nil {
		return err
	}

	m.seq++
	m.tables[table] = append(m.tables[table], &memRow{id: id, seq: m.seq, data: data})
	return nil
}

// checkUnique mirrors the unique indexes defined on the remote store.
func (m *Memory) checkUnique(table, id string, data map[string]any) error {
	switch table {
	case TableUserProfile, TableUserSettings:
		for _, r := range m.tables[table] {
			if r.id != id && r.data["user_id"] == data["user_id"] {
				return fmt.Errorf("%w: duplicate %s row for identity", ErrConflict, table)
			}
		}
	case TableInvoices:
		for _, r := range m.tables[table] {
			if r.id != id && r.data["user_id"] == data["user_id"] &&
				r.data["invoice_number"] == data["invoice_number"] {
				return fmt.Errorf("%w: duplicate invoice number %v", ErrConflict, data["invoice_number"])
			}
		}
	}
	return nil
}

func (m *Memory) Merge(_ context.Context, table, id string, patch map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure("merge", table); err != nil {
		return err
	}

	normalized, err := normalize(patch)
	if err != nil {
		return fmt.Errorf("invalid patch: %w", err)
	}
	fields, _ := normalized.(map[string]any)

	for _, r := range m.tables[table] {
		if r.id == id {
			merged := map[string]any{}
			for k, v := range r.data {
				merged[k] = v
			}
			for k, v := range fields {
				merged[k] = v
			}
			if err := m.checkUnique(table, id, merged); err != nil {
				return err
			}
			r.data = merged
			return nil
		}
	}
	return nil
}

func (m *Memory) Remove(_ context.Context, table, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure("remove", table); err != nil {
		return err
	}

	rows := m.tables[table]
	for i, r := range rows {
		if r.id == id {
			m.tables[table] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *Memory) ListOwned(ctx context.Context, table, userID string, limit int, out any) error {
	return m.list(ctx, table, userID, nil, limit, out)
}

func (m *Memory) ListMatching(ctx context.Context, table, userID string, filters map[string]any, out any) error {
	return m.list(ctx, table, userID, filters, 0, out)
}

func (m *Memory) list(_ context.Context, table, userID string, filters map[string]any, limit int, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure("list", table); err != nil {
		return err
	}

	wanted := map[string]any{}
	for k, v := range filters {
		n, err := normalize(v)
		if err != nil {
			return fmt.Errorf("invalid filter %q: %w", k, err)
		}
		wanted[k] = n
	}

	var matched []*memRow
	for _, r := range m.tables[table] {
		if r.data["user_id"] != userID {
			continue
		}
		ok := true
		for k, v := range wanted {
			if !reflect.DeepEqual(r.data[k], v) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, r)
		}
	}

	// Most recent first; ties resolved by insertion order, newest first.
	sort.SliceStable(matched, func(i, j int) bool {
		ti, tj := rowCreatedAt(matched[i].data), rowCreatedAt(matched[j].data)
		if ti.Equal(tj) {
			return matched[i].seq > matched[j].seq
		}
		return ti.After(tj)
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	rows := make([]map[string]any, len(matched))
	for i, r := range matched {
		rows[i] = r.data
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

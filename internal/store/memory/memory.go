// Package memory implements store.Store in process memory. It backs tests and
// `tablefn serve --backend memory`.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/alfredjeanlab/tablefn/internal/store"
)

// Store is an in-memory store.Store. Tables are created on first use.
type Store struct {
	mu     sync.Mutex
	tables map[string]*Table
	keys   map[string]string
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// New returns an empty Store. keys maps table name to its primary key
// attribute; tables not listed default to "id".
func New(keys map[string]string) *Store {
	if keys == nil {
		keys = map[string]string{}
	}
	return &Store{tables: make(map[string]*Table), keys: keys}
}

// Table returns the named table, creating it if needed.
func (s *Store) Table(name string) store.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		key := s.keys[name]
		if key == "" {
			key = "id"
		}
		t = &Table{name: name, key: key, items: make(map[string]store.Item)}
		s.tables[name] = t
	}
	return t
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Table is a single in-memory table.
type Table struct {
	name string
	key  string

	mu    sync.RWMutex
	items map[string]store.Item
}

var _ store.Table = (*Table)(nil)

func (t *Table) Name() string { return t.name }

func (t *Table) Put(_ context.Context, item store.Item) error {
	pk, ok := item[t.key].(string)
	if !ok || pk == "" {
		return fmt.Errorf("put %s: missing key attribute %q", t.name, t.key)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items[pk] = store.Clone(item)
	return nil
}

func (t *Table) Get(_ context.Context, key store.Key) (store.Item, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	item, ok := t.items[key.Value]
	if !ok {
		return nil, store.ErrNotFound
	}
	return store.Clone(item), nil
}

func (t *Table) Update(_ context.Context, key store.Key, path string, value any) (store.Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	item, ok := t.items[key.Value]
	if !ok {
		return nil, store.ErrNotFound
	}

	parts := store.SplitPath(path)
	if parts[0] == t.key {
		return nil, fmt.Errorf("update %s: cannot update key attribute %q", t.name, t.key)
	}
	updated := store.Clone(item)
	cur := map[string]any(updated)
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("update %s: document path %q is not valid", t.name, path)
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = store.CloneValue(value)
	t.items[key.Value] = updated

	return store.Nest(path, store.CloneValue(value)), nil
}

func (t *Table) Delete(_ context.Context, key store.Key) (store.Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	item, ok := t.items[key.Value]
	if !ok {
		return nil, nil
	}
	delete(t.items, key.Value)
	return item, nil
}

func (t *Table) Scan(_ context.Context) ([]store.Item, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sorted(func(store.Item) bool { return true }), nil
}

func (t *Table) Query(_ context.Context, index store.Index, value string) ([]store.Item, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sorted(func(item store.Item) bool {
		v, ok := item[index.Attr].(string)
		return ok && v == value
	}), nil
}

// sorted returns clones of the matching items ordered by key. Caller holds mu.
func (t *Table) sorted(match func(store.Item) bool) []store.Item {
	keys := make([]string, 0, len(t.items))
	for k, item := range t.items {
		if match(item) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]store.Item, 0, len(keys))
	for _, k := range keys {
		out = append(out, store.Clone(t.items[k]))
	}
	return out
}

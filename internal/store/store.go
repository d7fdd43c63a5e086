// Package store defines the keyed table contract the request handlers run
// against. Adapters live in the dynamo, postgres, and memory subpackages.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// ErrNotFound is returned when a keyed lookup or conditional update finds no
// record.
var ErrNotFound = errors.New("store: item not found")

// Item is a schemaless record. Values are JSON-shaped: string, json.Number,
// bool, nil, map[string]any and []any.
type Item map[string]any

// Key identifies a record by its primary key attribute.
type Key struct {
	Attr  string
	Value string
}

// Index names a secondary index and the attribute it is keyed on.
type Index struct {
	Name string
	Attr string
}

// Table is a single keyed table. Every method issues exactly one call to the
// backing store.
type Table interface {
	// Name returns the table name.
	Name() string
	// Put inserts or overwrites the item by primary key.
	Put(ctx context.Context, item Item) error
	// Get returns the item or ErrNotFound.
	Get(ctx context.Context, key Key) (Item, error)
	// Update assigns value at the dotted attribute path on an existing item
	// and returns the updated attributes. Returns ErrNotFound when the item
	// does not exist.
	Update(ctx context.Context, key Key, path string, value any) (Item, error)
	// Delete removes the item and returns its prior value, or nil when there
	// was none.
	Delete(ctx context.Context, key Key) (Item, error)
	// Scan returns one page of items with no filter.
	Scan(ctx context.Context) ([]Item, error)
	// Query returns the items whose index attribute equals value.
	Query(ctx context.Context, index Index, value string) ([]Item, error)
}

// Store hands out table handles. A Store is created once per process and
// shared by all invocations.
type Store interface {
	Table(name string) Table
	Close() error
}

// SplitPath splits a dotted attribute path into its segments.
func SplitPath(path string) []string {
	return strings.Split(path, ".")
}

// Nest wraps value in nested maps following the dotted path, so
// Nest("activity.active", true) is {"activity": {"active": true}}.
func Nest(path string, value any) Item {
	parts := SplitPath(path)
	out := Item{}
	cur := map[string]any(out)
	for i, p := range parts {
		if i == len(parts)-1 {
			cur[p] = value
			break
		}
		next := map[string]any{}
		cur[p] = next
		cur = next
	}
	return out
}

// Lookup returns the value at the dotted path within item.
func Lookup(item Item, path string) (any, bool) {
	var cur any = map[string]any(item)
	for _, p := range SplitPath(path) {
		m, ok := cur.(map[string]any)
		if !ok {
			if it, isItem := cur.(Item); isItem {
				m = it
			} else {
				return nil, false
			}
		}
		v, ok := m[p]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// Clone returns a deep copy of item.
func Clone(item Item) Item {
	if item == nil {
		return nil
	}
	return Item(cloneMap(item))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue returns a deep copy of a JSON-shaped value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Item:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	default:
		return v
	}
}

// DecodeJSON decodes a single JSON value from data into v, keeping numbers
// as json.Number so integers beyond 2^53 survive a round trip. Trailing data
// after the value is an error.
func DecodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// Package export writes JSONL snapshots of tables and ships them to S3 or a
// local directory, once or on a schedule.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/tablefn/internal/store"
)

// Target is a table to snapshot and its primary key attribute.
type Target struct {
	Table string
	Key   string
}

// FileName returns the object name a snapshot of t is written under.
func (t Target) FileName() string { return t.Table + ".jsonl" }

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version   string    `json:"version"`
	Type      string    `json:"type"`
	Table     string    `json:"table"`
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	ItemCount int       `json:"item_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string     `json:"type"`
	Data store.Item `json:"data"`
}

// ExportJSONL writes one page of items from tbl as JSONL to w: a header
// line, then one line per item sorted by key.
func ExportJSONL(ctx context.Context, tbl store.Table, key string, w io.Writer) error {
	items, err := tbl.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan %s: %w", tbl.Name(), err)
	}

	sort.Slice(items, func(i, j int) bool {
		return fmt.Sprint(items[i][key]) < fmt.Sprint(items[j][key])
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:   "1",
		Type:      "header",
		Table:     tbl.Name(),
		Key:       key,
		Timestamp: time.Now().UTC(),
		ItemCount: len(items),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, it := range items {
		if err := enc.Encode(record{Type: "item", Data: it}); err != nil {
			return fmt.Errorf("encode item %v: %w", it[key], err)
		}
	}
	return nil
}

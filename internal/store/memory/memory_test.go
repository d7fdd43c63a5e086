package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/alfredjeanlab/tablefn/internal/store"
)

func newTestTable(t *testing.T) store.Table {
	t.Helper()
	return New(map[string]string{"notifications": "notificationID"}).Table("accounts")
}

func TestTable_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	tbl := newTestTable(t)

	in := store.Item{"id": "u1", "name": "Ada", "activity": map[string]any{"active": false}}
	if err := tbl.Put(ctx, in); err != nil {
		t.Fatalf("Put: %v", err)
	}
	// Mutating the caller's copy must not leak into the table.
	in["activity"].(map[string]any)["active"] = true

	got, err := tbl.Get(ctx, store.Key{Attr: "id", Value: "u1"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := store.Item{"id": "u1", "name": "Ada", "activity": map[string]any{"active": false}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get = %#v, want %#v", got, want)
	}
}

func TestTable_PutRequiresKey(t *testing.T) {
	tbl := newTestTable(t)
	if err := tbl.Put(context.Background(), store.Item{"name": "Ada"}); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestTable_CustomKeyAttribute(t *testing.T) {
	ctx := context.Background()
	tbl := New(map[string]string{"notifications": "notificationID"}).Table("notifications")
	if err := tbl.Put(ctx, store.Item{"notificationID": "n1"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := tbl.Get(ctx, store.Key{Attr: "notificationID", Value: "n1"}); err != nil {
		t.Fatalf("Get: %v", err)
	}
}

func TestTable_GetMissing(t *testing.T) {
	_, err := newTestTable(t).Get(context.Background(), store.Key{Attr: "id", Value: "nope"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTable_Update(t *testing.T) {
	ctx := context.Background()
	tbl := newTestTable(t)
	_ = tbl.Put(ctx, store.Item{"id": "u1", "name": "Ada", "activity": map[string]any{"active": false}})
	key := store.Key{Attr: "id", Value: "u1"}

	t.Run("TopLevel", func(t *testing.T) {
		got, err := tbl.Update(ctx, key, "name", "Grace")
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if !reflect.DeepEqual(got, store.Item{"name": "Grace"}) {
			t.Errorf("updated attributes = %#v", got)
		}
	})

	t.Run("Nested", func(t *testing.T) {
		got, err := tbl.Update(ctx, key, "activity.active", true)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		want := store.Item{"activity": map[string]any{"active": true}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("updated attributes = %#v, want %#v", got, want)
		}
	})

	t.Run("InvalidPath", func(t *testing.T) {
		if _, err := tbl.Update(ctx, key, "address.city", "Paris"); err == nil {
			t.Fatal("expected error for missing intermediate map")
		}
	})

	t.Run("KeyAttribute", func(t *testing.T) {
		if _, err := tbl.Update(ctx, key, "id", "u2"); err == nil {
			t.Fatal("expected error when updating the key attribute")
		}
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := tbl.Update(ctx, store.Key{Attr: "id", Value: "ghost"}, "name", "x")
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	got, _ := tbl.Get(ctx, key)
	want := store.Item{"id": "u1", "name": "Grace", "activity": map[string]any{"active": true}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("after updates = %#v, want %#v", got, want)
	}
}

func TestTable_Delete(t *testing.T) {
	ctx := context.Background()
	tbl := newTestTable(t)
	_ = tbl.Put(ctx, store.Item{"id": "u1", "name": "Ada"})
	key := store.Key{Attr: "id", Value: "u1"}

	old, err := tbl.Delete(ctx, key)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if old["name"] != "Ada" {
		t.Errorf("old item = %#v", old)
	}
	if _, err := tbl.Get(ctx, key); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get after delete: %v", err)
	}

	old, err = tbl.Delete(ctx, key)
	if err != nil || old != nil {
		t.Fatalf("second Delete = %#v, %v; want nil, nil", old, err)
	}
}

func TestTable_ScanAndQuery(t *testing.T) {
	ctx := context.Background()
	tbl := New(nil).Table("orders")
	_ = tbl.Put(ctx, store.Item{"id": "o2", "userId": "u1"})
	_ = tbl.Put(ctx, store.Item{"id": "o1", "userId": "u1"})
	_ = tbl.Put(ctx, store.Item{"id": "o3", "userId": "u2"})

	all, err := tbl.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(all) != 3 || all[0]["id"] != "o1" {
		t.Errorf("Scan = %v", all)
	}

	idx := store.Index{Name: "userId-index", Attr: "userId"}
	got, err := tbl.Query(ctx, idx, "u1")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 || got[0]["id"] != "o1" || got[1]["id"] != "o2" {
		t.Errorf("Query(u1) = %v", got)
	}

	none, err := tbl.Query(ctx, idx, "o1")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("Query by an order id should return an empty, non-nil slice, got %#v", none)
	}
}

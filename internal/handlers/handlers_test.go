package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"golang.org/x/crypto/bcrypt"

	"github.com/alfredjeanlab/tablefn/internal/credential"
	"github.com/alfredjeanlab/tablefn/internal/crud"
	"github.com/alfredjeanlab/tablefn/internal/store"
	"github.com/alfredjeanlab/tablefn/internal/store/memory"
)

// testEnv wires all three handlers to one in-memory store.
type testEnv struct {
	store *memory.Store
	deps  Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	hasher, err := credential.NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	st := memory.New(map[string]string{"notifications": "notificationID"})
	return &testEnv{
		store: st,
		deps: Deps{
			Store:  st,
			Tables: DefaultTables(),
			Hasher: hasher,
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
	}
}

func do(t *testing.T, h *crud.Handler, method, path, body string) (int, string) {
	t.Helper()
	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Path:       path,
		Body:       body,
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	return resp.StatusCode, resp.Body
}

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decoding %q: %v", body, err)
	}
	return out
}

func TestNew_UnknownDomain(t *testing.T) {
	env := newTestEnv(t)
	if New("invoices", env.deps) != nil {
		t.Error("New(unknown) should return nil")
	}
	if got := len(All(env.deps)); got != len(Domains) {
		t.Errorf("All() returned %d handlers", got)
	}
}

func TestRoutes(t *testing.T) {
	env := newTestEnv(t)
	for _, tc := range []struct {
		domain string
		want   []string
	}{
		{DomainAccounts, []string{
			"POST /accounts",
			"GET /account/{id}",
			"PATCH /account/login",
			"PATCH /account/{id}",
			"DELETE /account/{id}",
			"GET /accounts",
		}},
		{DomainNotifications, []string{
			"POST /notifications",
			"GET /notifications/{notificationID}",
		}},
		{DomainOrders, []string{
			"POST /orders",
			"GET /orders",
			"PATCH /orders/{ordersID}",
			"GET /orders/user/{id}",
		}},
	} {
		got := New(tc.domain, env.deps).Routes()
		if strings.Join(got, ",") != strings.Join(tc.want, ",") {
			t.Errorf("%s routes = %v, want %v", tc.domain, got, tc.want)
		}
	}
}

func TestUnmatchedPathEchoed(t *testing.T) {
	env := newTestEnv(t)
	for _, h := range All(env.deps) {
		status, body := do(t, h, http.MethodPut, "/nowhere", "")
		if status != http.StatusNotFound || body != `"/nowhere"` {
			t.Errorf("%s: got %d %s", h.Domain(), status, body)
		}
	}
}

func TestMissingFieldsNeverReachStore(t *testing.T) {
	env := newTestEnv(t)
	deps := env.deps
	deps.Store = brokenStore{}

	for _, tc := range []struct {
		domain, method, path, body string
	}{
		{DomainAccounts, "POST", "/accounts", `{"id":"u1"}`},
		{DomainAccounts, "POST", "/accounts", `{"name":"Ada"}`},
		{DomainAccounts, "PATCH", "/account/u1", `{"updateKey":"name"}`},
		{DomainAccounts, "PATCH", "/account/login", `{"email":"a@b.c"}`},
		{DomainOrders, "POST", "/orders", `{"total":3}`},
		{DomainOrders, "PATCH", "/orders/o1", `{"updateValue":"x"}`},
		{DomainNotifications, "POST", "/notifications", ``},
	} {
		status, body := do(t, New(tc.domain, deps), tc.method, tc.path, tc.body)
		if status != http.StatusBadRequest {
			t.Errorf("%s %s %s = %d %s, want 400", tc.method, tc.path, tc.body, status, body)
		}
	}
}

// brokenStore hands out tables that fail every call.
type brokenStore struct{}

func (brokenStore) Table(name string) store.Table { return brokenTable{name: name} }
func (brokenStore) Close() error                  { return nil }

type brokenTable struct{ name string }

var errBroken = errors.New("store unavailable")

func (b brokenTable) Name() string                           { return b.name }
func (b brokenTable) Put(context.Context, store.Item) error { return errBroken }
func (b brokenTable) Get(context.Context, store.Key) (store.Item, error) {
	return nil, errBroken
}
func (b brokenTable) Update(context.Context, store.Key, string, any) (store.Item, error) {
	return nil, errBroken
}
func (b brokenTable) Delete(context.Context, store.Key) (store.Item, error) {
	return nil, errBroken
}
func (b brokenTable) Scan(context.Context) ([]store.Item, error) { return nil, errBroken }
func (b brokenTable) Query(context.Context, store.Index, string) ([]store.Item, error) {
	return nil, errBroken
}

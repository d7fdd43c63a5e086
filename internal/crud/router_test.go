package crud

import (
	"context"
	"reflect"
	"testing"
)

func namedOp(name string) (Operation, *string) {
	var called string
	return func(context.Context, *Request) (Result, error) {
		called = name
		return Result{}, nil
	}, &called
}

func TestRouter_Match(t *testing.T) {
	login, loginCalled := namedOp("login")
	update, updateCalled := namedOp("update")
	get, getCalled := namedOp("get")
	byUser, byUserCalled := namedOp("byUser")

	r := NewRouter(
		Route{Method: "PATCH", Pattern: "/account/login", Op: login},
		Route{Method: "PATCH", Pattern: "/account/{id}", Op: update},
		Route{Method: "GET", Pattern: "/account/{id}", Op: get},
		Route{Method: "GET", Pattern: "/orders/user/{id}", Op: byUser},
	)

	for _, tc := range []struct {
		name      string
		method    string
		resource  string
		params    map[string]string
		wantOK    bool
		wantParam string
		called    *string
		wantOp    string
	}{
		{"LiteralBeforeParam", "PATCH", "/account/login", nil, true, "", loginCalled, "login"},
		{"ConcretePath", "PATCH", "/account/u1", nil, true, "u1", updateCalled, "update"},
		{"Template", "GET", "/account/{id}", map[string]string{"id": "u7"}, true, "u7", getCalled, "get"},
		{"TemplateMissingParam", "GET", "/account/{id}", nil, true, "", getCalled, "get"},
		{"Unescaped", "GET", "/account/a%20b", nil, true, "a b", getCalled, "get"},
		{"NestedConcrete", "GET", "/orders/user/u1", nil, true, "u1", byUserCalled, "byUser"},
		{"WrongMethod", "DELETE", "/account/u1", nil, false, "", nil, ""},
		{"LowercaseMethod", "get", "/account/u1", nil, false, "", nil, ""},
		{"TooShort", "GET", "/account", nil, false, "", nil, ""},
		{"TooLong", "GET", "/account/u1/extra", nil, false, "", nil, ""},
		{"EmptyParam", "GET", "/account/", nil, false, "", nil, ""},
		{"TrailingSlash", "PATCH", "/account/login/", nil, false, "", nil, ""},
		{"NoLeadingSlash", "GET", "account/u1", nil, false, "", nil, ""},
		{"LiteralMismatch", "GET", "/orders/users/u1", nil, false, "", nil, ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			op, param, ok := r.Match(tc.method, tc.resource, tc.params)
			if ok != tc.wantOK {
				t.Fatalf("Match ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if param != tc.wantParam {
				t.Errorf("param = %q, want %q", param, tc.wantParam)
			}
			if _, err := op(context.Background(), &Request{}); err != nil {
				t.Fatal(err)
			}
			if *tc.called != tc.wantOp {
				t.Errorf("matched %q, want %q", *tc.called, tc.wantOp)
			}
		})
	}
}

func TestRouter_Routes(t *testing.T) {
	op, _ := namedOp("x")
	r := NewRouter(
		Route{Method: "POST", Pattern: "/orders", Op: op},
		Route{Method: "GET", Pattern: "/orders/{id}", Op: op},
	)
	want := []string{"POST /orders", "GET /orders/{id}"}
	if got := r.Routes(); !reflect.DeepEqual(got, want) {
		t.Errorf("Routes() = %v, want %v", got, want)
	}
}

func TestNewRouter_InvalidPattern(t *testing.T) {
	op, _ := namedOp("x")
	for _, pattern := range []string{
		"orders",
		"/orders//x",
		"/a/{x}/{y}",
		"/a/{}",
		"/a/{x",
	} {
		t.Run(pattern, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("NewRouter(%q) did not panic", pattern)
				}
			}()
			NewRouter(Route{Method: "GET", Pattern: pattern, Op: op})
		})
	}
}

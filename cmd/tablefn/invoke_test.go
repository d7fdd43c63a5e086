package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/alfredjeanlab/tablefn/internal/ui"
)

func init() {
	ui.ForceNoColor()
}

func TestReadEvent(t *testing.T) {
	t.Run("Stdin", func(t *testing.T) {
		ev, err := readEvent(strings.NewReader(`{"httpMethod":"GET","path":"/orders","resource":"/orders"}`), "-")
		if err != nil {
			t.Fatalf("readEvent: %v", err)
		}
		if ev.HTTPMethod != "GET" || ev.Resource != "/orders" {
			t.Errorf("event = %+v", ev)
		}
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "event.json")
		if err := os.WriteFile(path, []byte(`{"httpMethod":"PATCH","path":"/account/login","body":"{}"}`), 0o644); err != nil {
			t.Fatal(err)
		}
		ev, err := readEvent(strings.NewReader(""), path)
		if err != nil {
			t.Fatalf("readEvent: %v", err)
		}
		if ev.Path != "/account/login" || ev.Body != "{}" {
			t.Errorf("event = %+v", ev)
		}
	})

	for name, input := range map[string]string{
		"Malformed": `{"httpMethod":`,
		"NoMethod":  `{"path":"/orders"}`,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := readEvent(strings.NewReader(input), "-"); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := readEvent(nil, filepath.Join(t.TempDir(), "nope.json")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}

func TestPrintResponse(t *testing.T) {
	resp := events.APIGatewayProxyResponse{StatusCode: 404, Body: `{"message":"Account not found"}`}

	var out, errw bytes.Buffer
	if err := printResponse(&out, &errw, resp, false); err != nil {
		t.Fatal(err)
	}
	if got := errw.String(); got != "404\n" {
		t.Errorf("status line = %q", got)
	}
	if got := out.String(); got != "{\n  \"message\": \"Account not found\"\n}\n" {
		t.Errorf("body = %q", got)
	}

	out.Reset()
	if err := printResponse(&out, &errw, events.APIGatewayProxyResponse{StatusCode: 200, Body: "not json"}, false); err != nil {
		t.Fatal(err)
	}
	if out.String() != "not json\n" {
		t.Errorf("non-JSON body = %q", out.String())
	}

	out.Reset()
	if err := printResponse(&out, &errw, resp, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"statusCode": 404`) {
		t.Errorf("raw output = %s", out.String())
	}
}

func TestDomainArg(t *testing.T) {
	if err := domainArg(invokeCmd, []string{"orders"}); err != nil {
		t.Errorf("orders: %v", err)
	}
	if err := domainArg(invokeCmd, []string{"invoices"}); err == nil {
		t.Error("expected error for unknown domain")
	}
	if err := domainArg(invokeCmd, nil); err == nil {
		t.Error("expected error for missing domain")
	}
}

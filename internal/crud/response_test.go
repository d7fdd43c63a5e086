package crud

import (
	"net/http"
	"testing"
)

func TestRespond(t *testing.T) {
	resp := Respond(http.StatusOK, map[string]any{"items": []any{}})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("Content-Type = %q", resp.Headers["Content-Type"])
	}
	if resp.Body != `{"items":[]}` {
		t.Errorf("Body = %s", resp.Body)
	}
}

func TestRespond_StringBody(t *testing.T) {
	resp := Respond(http.StatusNotFound, "/foo")
	if resp.Body != `"/foo"` {
		t.Errorf("Body = %s, want JSON string", resp.Body)
	}
}

func TestRespond_Unencodable(t *testing.T) {
	resp := Respond(http.StatusOK, map[string]any{"c": make(chan int)})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", resp.StatusCode)
	}
	if resp.Body != internalErrorBody {
		t.Errorf("Body = %s", resp.Body)
	}
}

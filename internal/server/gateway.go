// Package server exposes the domain handlers over plain HTTP the way API
// Gateway would invoke them, plus a gRPC health endpoint for local runs.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"

	"github.com/alfredjeanlab/tablefn/internal/idgen"
)

const (
	healthPath = "/healthz"

	// maxBodyBytes matches the API Gateway payload limit.
	maxBodyBytes = 10 << 20

	localStage = "local"
)

// EventHandler serves one gateway event. *crud.Handler satisfies it.
type EventHandler interface {
	Domain() string
	Matches(method, resource string) bool
	Handle(ctx context.Context, ev events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

// Gateway converts HTTP requests into gateway events and dispatches them to
// the first handler with a matching route.
type Gateway struct {
	handlers []EventHandler
	logger   *slog.Logger
}

// NewGateway returns a Gateway over handlers, tried in order.
func NewGateway(logger *slog.Logger, handlers ...EventHandler) *Gateway {
	return &Gateway{handlers: handlers, logger: logger}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ev, err := g.toEvent(w, r)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	for _, h := range g.handlers {
		if !h.Matches(ev.HTTPMethod, ev.Path) {
			continue
		}
		resp, err := h.Handle(r.Context(), ev)
		if err != nil {
			g.logger.Error("handler returned error", "domain", h.Domain(), "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeEventResponse(w, resp)
		return
	}
	writeJSON(w, http.StatusNotFound, ev.Path)
}

func (g *Gateway) toEvent(w http.ResponseWriter, r *http.Request) (events.APIGatewayProxyRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return events.APIGatewayProxyRequest{}, err
	}

	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID, _ = idgen.GenerateWithPrefix("req-")
	}

	ev := events.APIGatewayProxyRequest{
		HTTPMethod:                      r.Method,
		Path:                            r.URL.Path,
		Headers:                         map[string]string{},
		MultiValueHeaders:               map[string][]string(r.Header.Clone()),
		QueryStringParameters:           map[string]string{},
		MultiValueQueryStringParameters: map[string][]string(r.URL.Query()),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  requestID,
			Stage:      localStage,
			HTTPMethod: r.Method,
			Path:       r.URL.Path,
		},
	}
	for k, v := range r.Header {
		ev.Headers[k] = strings.Join(v, ",")
	}
	for k, v := range r.URL.Query() {
		ev.QueryStringParameters[k] = v[len(v)-1]
	}
	if utf8.Valid(body) {
		ev.Body = string(body)
	} else {
		ev.Body = base64.StdEncoding.EncodeToString(body)
		ev.IsBase64Encoded = true
	}
	return ev, nil
}

func writeEventResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	for k, vs := range resp.MultiValueHeaders {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(resp.Body)
		if err == nil {
			_, _ = w.Write(b)
		}
		return
	}
	_, _ = io.WriteString(w, resp.Body)
}

// NewHTTPHandler returns the local gateway with a health route, bearer auth
// when authToken is non-empty, and panic recovery.
func NewHTTPHandler(gw *Gateway, authToken string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+healthPath, handleHealth)
	mux.Handle("/", gw)
	return RecoveryMiddleware(logger, AuthMiddleware(authToken, mux))
}

// handleHealth handles GET /healthz.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Package crud implements the request dispatcher, the operation executors,
// and the response builder shared by every table-backed handler.
package crud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
)

// Handler serves gateway events for one domain.
type Handler struct {
	domain string
	router *Router
	logger *slog.Logger
}

// NewHandler returns a Handler dispatching over routes.
func NewHandler(domain string, logger *slog.Logger, routes ...Route) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		domain: domain,
		router: NewRouter(routes...),
		logger: logger.With("domain", domain),
	}
}

// Domain returns the domain name the handler was built for.
func (h *Handler) Domain() string { return h.domain }

// Routes lists the handler's routes in match order.
func (h *Handler) Routes() []string { return h.router.Routes() }

// Matches reports whether the handler has a route for method and resource.
func (h *Handler) Matches(method, resource string) bool {
	_, _, ok := h.router.Match(method, resource, nil)
	return ok
}

// Handle serves one gateway event. The returned error is always nil: every
// failure is expressed as a response.
func (h *Handler) Handle(ctx context.Context, ev events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, _ error) {
	start := time.Now()
	req := NewRequest(ev)
	if req.RequestID == "" {
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			req.RequestID = lc.AwsRequestID
		}
	}
	log := h.logger.With("method", req.Method, "path", req.Resource, "request_id", req.RequestID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic serving request", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			resp = Respond(http.StatusInternalServerError, errorBody{Error: "internal server error"})
		}
		log.Info("request", "status", resp.StatusCode, "duration", time.Since(start))
	}()

	op, param, ok := h.router.Match(req.Method, req.Resource, ev.PathParameters)
	if !ok {
		path := ev.Path
		if path == "" {
			path = req.Resource
		}
		return Respond(http.StatusNotFound, path), nil
	}
	req.Param = param

	res, err := op(ctx, req)
	if err != nil {
		status, body, logCause := errorResponse(err)
		if logCause {
			log.Error("operation failed", "status", status, "error", err)
		} else {
			log.Debug("request rejected", "status", status, "error", err)
		}
		return Respond(status, body), nil
	}
	return Respond(res.Status, res.Body), nil
}

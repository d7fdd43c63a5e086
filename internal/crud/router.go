package crud

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Operation executes one matched request.
type Operation func(ctx context.Context, req *Request) (Result, error)

// Result is a successful operation outcome.
type Result struct {
	Status int
	Body   any
}

// Route binds a method and a path pattern to an operation. A pattern has
// literal segments and at most one "{name}" parameter segment.
type Route struct {
	Method  string
	Pattern string
	Op      Operation
}

type compiledRoute struct {
	Route
	segments []string
	param    int // index of the parameter segment, or -1
	name     string
}

// Router selects an operation by method and resource path. Routes are tried
// in order and the first match wins.
type Router struct {
	routes []compiledRoute
}

// NewRouter compiles routes. It panics on a malformed pattern, since route
// tables are fixed at build time.
func NewRouter(routes ...Route) *Router {
	r := &Router{}
	for _, rt := range routes {
		c, err := compile(rt)
		if err != nil {
			panic(err)
		}
		r.routes = append(r.routes, c)
	}
	return r
}

func compile(rt Route) (compiledRoute, error) {
	if rt.Method == "" || rt.Op == nil {
		return compiledRoute{}, fmt.Errorf("route %q: method and operation are required", rt.Pattern)
	}
	if !strings.HasPrefix(rt.Pattern, "/") {
		return compiledRoute{}, fmt.Errorf("route %q: pattern must start with /", rt.Pattern)
	}
	c := compiledRoute{Route: rt, segments: splitSegments(rt.Pattern), param: -1}
	for i, seg := range c.segments {
		if seg == "" {
			return compiledRoute{}, fmt.Errorf("route %q: empty segment", rt.Pattern)
		}
		if !strings.HasPrefix(seg, "{") {
			continue
		}
		if !strings.HasSuffix(seg, "}") || len(seg) < 3 {
			return compiledRoute{}, fmt.Errorf("route %q: malformed parameter %q", rt.Pattern, seg)
		}
		if c.param >= 0 {
			return compiledRoute{}, fmt.Errorf("route %q: at most one parameter is allowed", rt.Pattern)
		}
		c.param = i
		c.name = seg[1 : len(seg)-1]
	}
	return c, nil
}

func splitSegments(path string) []string {
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}

// Match returns the operation bound to method and resource along with the
// positional parameter value. resource may be a template such as
// "/account/{id}", in which case the value is read from params, or a
// concrete path such as "/account/u1".
func (r *Router) Match(method, resource string, params map[string]string) (Operation, string, bool) {
	for _, rt := range r.routes {
		if rt.Method != method {
			continue
		}
		if rt.Pattern == resource {
			if rt.param < 0 {
				return rt.Op, "", true
			}
			return rt.Op, params[rt.name], true
		}
		if value, ok := rt.matchConcrete(resource); ok {
			return rt.Op, value, true
		}
	}
	return nil, "", false
}

func (rt compiledRoute) matchConcrete(path string) (string, bool) {
	if !strings.HasPrefix(path, "/") {
		return "", false
	}
	segs := splitSegments(path)
	if len(segs) != len(rt.segments) {
		return "", false
	}
	var value string
	for i, seg := range segs {
		if seg == "" {
			return "", false
		}
		if i == rt.param {
			v, err := url.PathUnescape(seg)
			if err != nil || v == "" {
				return "", false
			}
			value = v
			continue
		}
		if seg != rt.segments[i] {
			return "", false
		}
	}
	return value, true
}

// Routes returns the method and pattern of each route in match order.
func (r *Router) Routes() []string {
	out := make([]string, len(r.routes))
	for i, rt := range r.routes {
		out[i] = rt.Method + " " + rt.Pattern
	}
	return out
}

package crud

import (
	"bytes"
	"encoding/base64"

	"github.com/aws/aws-lambda-go/events"

	"github.com/alfredjeanlab/tablefn/internal/store"
)

// Request is a matched inbound request as seen by an operation.
type Request struct {
	Method    string
	Resource  string
	Param     string
	RequestID string

	body    []byte
	bodyErr error
}

// NewRequest extracts the routing fields and decoded body from a gateway event.
func NewRequest(ev events.APIGatewayProxyRequest) *Request {
	r := &Request{
		Method:    ev.HTTPMethod,
		Resource:  resourceOf(ev),
		RequestID: ev.RequestContext.RequestID,
		body:      []byte(ev.Body),
	}
	if ev.IsBase64Encoded && ev.Body != "" {
		b, err := base64.StdEncoding.DecodeString(ev.Body)
		if err != nil {
			r.body, r.bodyErr = nil, InputError(msgInvalidJSON)
		} else {
			r.body = b
		}
	}
	return r
}

// resourceOf returns the path the router matches against: the resource
// template when the gateway supplies one, otherwise the concrete path.
func resourceOf(ev events.APIGatewayProxyRequest) string {
	switch {
	case ev.RequestContext.ResourcePath != "":
		return ev.RequestContext.ResourcePath
	case ev.Resource != "":
		return ev.Resource
	default:
		return ev.Path
	}
}

const (
	msgInvalidJSON  = "invalid JSON body"
	msgBodyRequired = "request body is required"
	msgBodyObject   = "request body must be a JSON object"
)

// Object decodes the body as a JSON object.
func (r *Request) Object() (map[string]any, error) {
	if r.bodyErr != nil {
		return nil, r.bodyErr
	}
	if len(bytes.TrimSpace(r.body)) == 0 {
		return nil, InputError(msgBodyRequired)
	}
	var v any
	if err := store.DecodeJSON(r.body, &v); err != nil {
		return nil, InputError(msgInvalidJSON)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, InputError(msgBodyObject)
	}
	return obj, nil
}

package crud

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

const contentTypeJSON = "application/json"

// internalErrorBody is the fixed body for failures that cannot be described
// to the caller.
const internalErrorBody = `{"error":"internal server error"}`

// Respond wraps a status code and a JSON-serializable body into a gateway
// response. A body that cannot be encoded yields a 500.
func Respond(status int, body any) events.APIGatewayProxyResponse {
	data, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"Content-Type": contentTypeJSON},
			Body:       internalErrorBody,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": contentTypeJSON},
		Body:       string(data),
	}
}

// errorBody is the body of every error response except 404 record lookups.
type errorBody struct {
	Error string `json:"error"`
}

// messageBody is the body of a 404 record lookup.
type messageBody struct {
	Message string `json:"message"`
}

// Envelope is the body returned by mutating operations.
type Envelope struct {
	Operation         string         `json:"operation"`
	Message           string         `json:"message"`
	Item              map[string]any `json:"item,omitempty"`
	UpdatedAttributes map[string]any `json:"updatedAttributes,omitempty"`
	ID                string         `json:"id,omitempty"`
}

// deleteEnvelope always carries the item field, null when nothing was deleted.
type deleteEnvelope struct {
	Operation string         `json:"operation"`
	Message   string         `json:"message"`
	Item      map[string]any `json:"item"`
}

// Operation names used in envelopes.
const (
	OpSave   = "SAVE"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
	OpLogin  = "LOGIN"

	msgSuccess = "SUCCESS"
)

// Success returns the envelope for a successful operation.
func Success(op string) Envelope {
	return Envelope{Operation: op, Message: msgSuccess}
}

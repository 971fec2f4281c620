// Package httpx provides JSON response utilities for the admin API surface.
// The API always negotiates JSON regardless of request headers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope wraps a single message for error responses.
type Envelope struct {
	Message string `json:"message"`
}

// DataEnvelope wraps a resource payload.
type DataEnvelope struct {
	Data any `json:"data"`
}

// ListEnvelope wraps a collection payload with pagination metadata.
type ListEnvelope struct {
	Data any `json:"data"`
	Meta any `json:"meta,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Data sends a single resource wrapped in a data envelope.
func Data(w http.ResponseWriter, status int, resource any) {
	JSON(w, status, DataEnvelope{Data: resource})
}

// List sends a collection with pagination metadata.
func List(w http.ResponseWriter, status int, resources, meta any) {
	JSON(w, status, ListEnvelope{Data: resources, Meta: meta})
}

// Message sends a bare message envelope.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Message: message})
}

// NoContent sends an empty success response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

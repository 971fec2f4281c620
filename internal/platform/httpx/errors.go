package httpx

import (
	"errors"
	"net/http"
)

// Canonical message bodies. The exact wording is part of the API contract.
const (
	MsgUnauthenticated = "Unauthenticated."
	MsgForbidden       = "This action is unauthorized."
	MsgNotFound        = "Not found."
	MsgThrottled       = "Too many requests. Please retry in a minute."
	MsgValidation      = "The given data was invalid."
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError enumerates per-field failures for a 422 response.
type ValidationError struct {
	Fields map[string][]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "validation failed"
}

// NewValidationError builds a single-field validation failure.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

// Add appends a failure message for a field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

type validationEnvelope struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// Unauthenticated rejects a request that carries no recognized subject.
func Unauthenticated(w http.ResponseWriter) {
	Message(w, http.StatusUnauthorized, MsgUnauthenticated)
}

// Forbidden rejects a recognized subject that the evaluator denied.
func Forbidden(w http.ResponseWriter) {
	Message(w, http.StatusForbidden, MsgForbidden)
}

// RespondError maps domain errors to the API's JSON envelopes.
func RespondError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusUnprocessableEntity, validationEnvelope{
			Message: MsgValidation,
			Errors:  verr.Fields,
		})
	case errors.Is(err, ErrNotFound):
		Message(w, http.StatusNotFound, MsgNotFound)
	case errors.Is(err, ErrForbidden):
		Forbidden(w)
	case errors.Is(err, ErrUnauthenticated):
		Unauthenticated(w)
	default:
		Message(w, http.StatusInternalServerError, "Server error.")
	}
}

// Package httpapi holds the JSON envelope shared by every HTTP handler.
package httpapi

import (
	"encoding/json"
	"net/http"
)

// Machine-readable error codes returned to API clients.
const (
	CodeValidation      = "validation_error"
	CodeNotFound        = "not_found"
	CodeRenewalTooEarly = "renewal_too_early"
	CodeConflict        = "conflict"
	CodeUnauthorized    = "unauthorized"
	CodePaymentRequired = "payment_required"
	CodeInternal        = "internal_error"
)

// ErrorBody is the error payload for non-2xx responses.
type ErrorBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// WriteJSON serializes body with the given status. Encoding failures are
// ignored; the status line has already been sent.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteError writes the standard error envelope.
func WriteError(w http.ResponseWriter, status int, body ErrorBody) {
	WriteJSON(w, status, errorEnvelope{Error: body})
}

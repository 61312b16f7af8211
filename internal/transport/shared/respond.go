// Package shared holds response helpers common to all HTTP handlers.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "doctrail/pkg/domain-errors"
)

// ErrorResponse is the JSON body for every non-2xx response.
type ErrorResponse struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Fields  []dErrors.FieldError `json:"fields,omitempty"`
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error onto an HTTP status and JSON body.
// Validation errors carry their field details; anything that is not a
// DomainError becomes an opaque 500.
func WriteError(w http.ResponseWriter, err error) {
	var de *dErrors.DomainError
	if !errors.As(err, &de) {
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:    string(dErrors.CodeInternal),
			Message: "internal error",
		})
		return
	}
	WriteJSON(w, dErrors.ToHTTPStatus(de.Code), ErrorResponse{
		Code:    string(de.Code),
		Message: de.Message,
		Fields:  de.Fields,
	})
}

// Package domainerrors provides coded errors for the document lifecycle
// domain. Services return these so transport layers can translate them into
// responses without inspecting error strings, and so storage-layer detail
// never leaks past the orchestrator boundary.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeNotFound     Code = "not_found"
	// CodeLocked marks metadata mutations rejected because the document is
	// processed. Distinct from CodeValidation so callers can render a
	// different message.
	CodeLocked     Code = "locked"
	CodeConflict   Code = "conflict"
	CodeValidation Code = "validation_failed"
	CodeTimeout    Code = "timeout"
	CodeInternal   Code = "internal"
)

// FieldError describes a single field-level validation failure. Validation
// results are data, not exceptions: the orchestrator decides transaction
// fate from the non-emptiness of the list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DomainError carries a code, a caller-safe message, an optional wrapped
// cause, and optional field-level detail for validation failures.
type DomainError struct {
	Code    Code
	Message string
	Fields  []FieldError
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

func New(code Code, message string) error {
	return &DomainError{Code: code, Message: message}
}

func Wrap(err error, code Code, message string) error {
	return &DomainError{Code: code, Message: message, Err: err}
}

// NewValidation builds a CodeValidation error from field-level failures.
func NewValidation(fields []FieldError) error {
	return &DomainError{
		Code:    CodeValidation,
		Message: "one or more fields failed validation",
		Fields:  fields,
	}
}

// HasCode reports whether err or anything it wraps is a DomainError with the
// given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a readability alias used at handler call sites.
func Is(err error, code Code) bool { return HasCode(err, code) }

// FieldsOf extracts field-level detail from a validation error, or nil.
func FieldsOf(err error) []FieldError {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}

// ToHTTPStatus maps domain codes onto the status contract: not-found 404,
// locked/conflict 409, validation 422, everything unexpected 500.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeLocked, CodeConflict:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

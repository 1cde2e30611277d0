// internal/app/system/httpjson/httpjson.go
//
// Package httpjson writes API responses in the single envelope the frontend
// consumes. Errors always carry a machine-checkable kind alongside the
// human-readable message; validation errors enumerate every violated field.
package httpjson

import (
	"encoding/json"
	"net/http"
)

// Error kinds. One per branch of the error taxonomy.
const (
	KindValidation   = "validation"
	KindNotFound     = "not_found"
	KindConflict     = "conflict"
	KindForbidden    = "forbidden"
	KindUnauthorized = "unauthorized"
	KindDomain       = "domain"
	KindRateLimited  = "rate_limited"
	KindInternal     = "internal"
)

// ErrorBody is the error payload inside the envelope.
type ErrorBody struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// Write encodes v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes an error envelope with the given status and kind.
func Error(w http.ResponseWriter, status int, kind, message string) {
	Write(w, status, errorEnvelope{Error: ErrorBody{Kind: kind, Message: message}})
}

// ValidationError writes a 400 enumerating every violated field.
func ValidationError(w http.ResponseWriter, fields map[string]string) {
	Write(w, http.StatusBadRequest, errorEnvelope{Error: ErrorBody{
		Kind:    KindValidation,
		Message: "validation failed",
		Fields:  fields,
	}})
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, KindNotFound, message)
}

// Conflict writes a 409 for duplicate email/username/admission-number style
// failures.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, KindConflict, message)
}

// Forbidden writes a 403 for role or ownership mismatches.
func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, KindForbidden, message)
}

// Unauthorized writes a 401 for missing/invalid/expired tokens.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, KindUnauthorized, message)
}

// DomainError writes a 400 for invalid transitions and capacity/deadline
// violations.
func DomainError(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, KindDomain, message)
}

// TooManyRequests writes a 429 for throttled credential attempts.
func TooManyRequests(w http.ResponseWriter, message string) {
	Error(w, http.StatusTooManyRequests, KindRateLimited, message)
}

// Internal writes a 500 with a fixed message. The underlying error must be
// logged at the call site, never sent to the client.
func Internal(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, KindInternal, "internal server error")
}

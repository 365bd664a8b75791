package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable machine-readable category of a failure.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindInvalidTransition Kind = "invalid_transition"
	KindInvalidState      Kind = "invalid_state"
	KindConcurrent        Kind = "concurrent_modification"
	KindNoActiveOrder     Kind = "no_active_order"
	KindIncompleteBundle  Kind = "incomplete_bundle"
	KindExternalService   Kind = "external_service"
	KindNotFound          Kind = "not_found"
)

// Error carries a kind, a human-readable message, and optional detail fields.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	// MissingIDs lists bundle siblings absent from a packing call.
	MissingIDs []string `json:"missing_ids,omitempty"`
	cause      error
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Message }

func (e *Error) Unwrap() error { return e.cause }

// Retryable reports whether the caller may safely re-issue the same request.
func (e *Error) Retryable() bool {
	return e.Kind == KindConcurrent || e.Kind == KindExternalService
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransition(from, to string) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

func InvalidState(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func Concurrent(entity, id string) *Error {
	return &Error{Kind: KindConcurrent, Message: fmt.Sprintf("%s %s was modified concurrently, retry with fresh state", entity, id)}
}

func NoActiveOrder(productID string) *Error {
	return &Error{Kind: KindNoActiveOrder, Message: fmt.Sprintf("no active order exists for product %s", productID)}
}

func IncompleteBundle(bundleID string, missing []string) *Error {
	return &Error{
		Kind:       KindIncompleteBundle,
		Message:    fmt.Sprintf("bundle %s requires all siblings in the same packing call", bundleID),
		MissingIDs: missing,
	}
}

func External(op string, cause error) *Error {
	return &Error{Kind: KindExternalService, Message: fmt.Sprintf("%s failed: %v", op, cause), cause: cause}
}

func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// KindOf extracts the kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// WriteJSON writes err as the standard error envelope. Non-apperr errors
// are reported as kind "internal" with a 500 status.
func WriteJSON(w http.ResponseWriter, err error) {
	type body struct {
		Kind       Kind     `json:"kind"`
		Message    string   `json:"message"`
		Retryable  bool     `json:"retryable"`
		MissingIDs []string `json:"missing_ids,omitempty"`
	}
	b := body{Kind: "internal", Message: err.Error()}
	var e *Error
	if errors.As(err, &e) {
		b = body{Kind: e.Kind, Message: e.Message, Retryable: e.Retryable(), MissingIDs: e.MissingIDs}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(err))
	json.NewEncoder(w).Encode(map[string]body{"error": b})
}

// HTTPStatus maps an error to its transport status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInvalidTransition:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState, KindConcurrent, KindNoActiveOrder, KindIncompleteBundle:
		return http.StatusConflict
	case KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an operation failure so callers can react without parsing
// message text.
type Kind int

const (
	// KindInternal is the zero value; anything not carrying an *Error.
	KindInternal Kind = iota
	// KindValidation marks malformed input or an unmet precondition. No
	// state was mutated; the caller can correct the input and retry.
	KindValidation
	// KindConflict marks a transition attempted from a state that no longer
	// matches the caller's assumption. No state was mutated.
	KindConflict
	// KindCapacityExhausted marks an approval that found no free slot. It is
	// a resource condition, not a merit decision.
	KindCapacityExhausted
	// KindAuthorization marks a caller whose role is not in the transition's
	// allow-list.
	KindAuthorization
	// KindNotFound marks a missing aggregate.
	KindNotFound
)

// Error is the typed failure returned by the review orchestrator and its
// collaborators.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Validationf builds a validation error.
func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflictf builds a conflict error.
func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// CapacityExhausted builds the no-free-slot error for a scholarship.
func CapacityExhausted(scholarshipID uint) *Error {
	return &Error{
		Kind:    KindCapacityExhausted,
		Message: fmt.Sprintf("scholarship %d has no available slots", scholarshipID),
	}
}

// Authorizationf builds an authorization error. The message never describes
// internal state beyond "not permitted".
func Authorizationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a not-found error.
func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind of err, or KindInternal for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to the HTTP status handlers respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict, KindCapacityExhausted:
		return http.StatusConflict
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

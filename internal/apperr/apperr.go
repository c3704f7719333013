// Package apperr defines the machine-readable error kinds returned at every API boundary.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is a stable identifier the client can branch on without parsing messages.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotAFine            Kind = "not_a_fine"
	KindUpstream            Kind = "upstream"
	KindUpstreamRateLimited Kind = "upstream_rate_limited"
	KindUpstreamQuota       Kind = "upstream_quota"
	KindEntitlement         Kind = "entitlement"
	KindLimitReached        Kind = "limit_reached"
	KindPersistence         Kind = "persistence"
	KindNotFound            Kind = "not_found"
	KindUnauthorized        Kind = "unauthorized"
	KindConflict            Kind = "conflict"
)

// Error carries a Kind, a user-facing message and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error around err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindPersistence
// for anything unclassified so internals never leak to the caller.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return GenericMessage
}

// GenericMessage is shown for persistence and other internal failures.
const GenericMessage = "Ocorreu um erro inesperado. Tente novamente."

// HTTPStatus maps a kind to its response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindNotAFine:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindEntitlement, KindLimitReached:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstreamRateLimited:
		return http.StatusTooManyRequests
	case KindUpstreamQuota:
		return http.StatusPaymentRequired
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

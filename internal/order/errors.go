package order

import (
	"errors"
	"fmt"
)

// Kind classifies orchestrator errors so callers can tell terminal failures
// (not found, validation) from retryable or upstream ones.
type Kind string

const (
	KindNotFound    Kind = "NOT_FOUND"
	KindValidation  Kind = "VALIDATION"
	KindOutOfStock  Kind = "OUT_OF_STOCK"
	KindConflict    Kind = "CONFLICT"
	KindUnavailable Kind = "UPSTREAM_UNAVAILABLE"
)

// Error is the tagged error returned across the orchestrator boundary. It
// carries the kind plus the offending resource and identifier, so callers can
// render a precise cause without ever seeing a raw transport error.
type Error struct {
	Kind     Kind
	Resource string
	ID       string
	Msg      string
	cause    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	switch {
	case e.Resource != "" && e.ID != "":
		return fmt.Sprintf("%s: %s %s", msg, e.Resource, e.ID)
	case e.Resource != "":
		return fmt.Sprintf("%s: %s", msg, e.Resource)
	default:
		return msg
	}
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches against the exported sentinels: fields left zero on the target
// act as wildcards, so errors.Is(err, ErrNotFound) matches any not-found.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	if t.Resource != "" && t.Resource != e.Resource {
		return false
	}
	if t.ID != "" && t.ID != e.ID {
		return false
	}
	return true
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrOutOfStock      = &Error{Kind: KindOutOfStock}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrUnavailable     = &Error{Kind: KindUnavailable}
	ErrLicenseClaimed  = &Error{Kind: KindConflict, Resource: "license"}
	ErrVersionConflict = errors.New("order version conflict")
)

// NotFound reports that a referenced resource does not exist.
func NotFound(resource, id string) *Error {
	return &Error{Kind: KindNotFound, Resource: resource, ID: id, Msg: resource + " not found"}
}

// Validationf reports a malformed or semantically invalid request.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// OutOfStock reports that no license remains available for a game.
func OutOfStock(gameID string) *Error {
	return &Error{Kind: KindOutOfStock, Resource: "game", ID: gameID, Msg: "no license available"}
}

// Conflict reports optimistic-concurrency exhaustion on an order update.
func Conflict(orderID string) *Error {
	return &Error{Kind: KindConflict, Resource: "order", ID: orderID, Msg: "concurrent update conflict"}
}

// Unavailable reports that a peer service is unreachable or kept failing
// after retries. The cause stays wrapped for logs, never for responses.
func Unavailable(service string, cause error) *Error {
	return &Error{Kind: KindUnavailable, Resource: service, Msg: "upstream unavailable", cause: cause}
}

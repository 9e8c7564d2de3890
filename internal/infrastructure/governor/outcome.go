package governor

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the terminal failure class reported to callers
type Kind int

const (
	KindNone Kind = iota
	KindNotFound
	KindInvalidRequest
	KindAuthenticationFailed
	KindPermissionDenied
	KindRateLimited
	KindExchangeRejected
	KindServiceUnavailable
)

var kindNames = map[Kind]string{
	KindNone:                 "None",
	KindNotFound:             "NotFound",
	KindInvalidRequest:       "InvalidRequest",
	KindAuthenticationFailed: "AuthenticationFailed",
	KindPermissionDenied:     "PermissionDenied",
	KindRateLimited:          "RateLimited",
	KindExchangeRejected:     "ExchangeRejected",
	KindServiceUnavailable:   "ServiceUnavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// HTTPStatus maps a kind to the status code the REST boundary answers with
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNone:
		return http.StatusOK
	case KindNotFound, KindExchangeRejected:
		return http.StatusNotFound
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindAuthenticationFailed, KindPermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusServiceUnavailable
	}
}

// Outcome is the single result of one Execute call.
// A zero Kind means success; NotFound marks the "order not found" no-op,
// in which case Value is false.
type Outcome struct {
	Value    interface{}
	NotFound bool
	Kind     Kind
	Detail   string
	Cause    error
	Attempts int

	identity string
}

// OK reports whether the call succeeded (including the NotFound no-op)
func (o Outcome) OK() bool {
	return o.Kind == KindNone
}

// Err returns the terminal failure as an error, or nil on success
func (o Outcome) Err() error {
	if o.OK() {
		return nil
	}
	return &TerminalError{Kind: o.Kind, Identity: o.identity, Detail: o.Detail, Err: o.Cause}
}

// TerminalError is a failed governed call
type TerminalError struct {
	Kind     Kind
	Identity string
	Detail   string
	Err      error
}

func (e *TerminalError) Error() string {
	if e.Identity == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Identity, e.Detail)
}

func (e *TerminalError) Unwrap() error {
	return e.Err
}

// KindOf extracts the terminal kind from err. Errors that did not come from
// the governor are treated as ServiceUnavailable.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var terminal *TerminalError
	if errors.As(err, &terminal) {
		return terminal.Kind
	}
	return KindServiceUnavailable
}

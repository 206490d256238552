package ncm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingCredentials is returned before any network I/O when a facade is
// called without the credential set it requires.
var ErrMissingCredentials = errors.New("ncm: missing credentials")

// ErrVersionUnavailable is returned by Client.V2 and Client.V3 when the
// requested API generation was not configured.
var ErrVersionUnavailable = errors.New("ncm: API version not configured")

// ErrorKind classifies server-reported failures.
type ErrorKind int

// Error kinds produced by the response interpreter.
const (
	KindUnknown ErrorKind = iota
	KindBadRequest
	KindUnauthorized
	KindNotFound
	KindServerError
)

// String returns the log category of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindBadRequest:
		return "Bad Request"
	case KindUnauthorized:
		return "Unauthorized Access"
	case KindNotFound:
		return "Resource Not Found"
	case KindServerError:
		return "Server Error"
	default:
		return "Unknown Status"
	}
}

// APIError is a non-success HTTP status returned by NCM.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Label      string
	Body       string
}

// Error keeps the "ERROR: <code>: <body>" text automation scripts match on.
func (e *APIError) Error() string {
	return fmt.Sprintf("ERROR: %d: %s", e.StatusCode, e.Body)
}

// TransportError wraps connection-level failures (timeouts, refused
// connections, open circuit breaker).
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ncm: %s %s failed: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError reports caller mistakes detected before a request is sent.
type ValidationError struct {
	Op      string
	Invalid []string
	Reason  string
}

func (e *ValidationError) Error() string {
	switch {
	case len(e.Invalid) > 0 && e.Reason != "":
		return fmt.Sprintf("ncm: %s: %s; invalid parameters: %s", e.Op, e.Reason, strings.Join(e.Invalid, ", "))
	case len(e.Invalid) > 0:
		return fmt.Sprintf("ncm: %s: invalid parameters: %s", e.Op, strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("ncm: %s: %s", e.Op, e.Reason)
}

// NotFoundError is returned by name and id lookups that match nothing.
type NotFoundError struct {
	Resource string
	Field    string
	Value    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("No %s found with %s: %s", e.Resource, e.Field, e.Value)
}

// MethodNotSupportedError is returned by Operator.Do for unknown operations.
type MethodNotSupportedError struct {
	Method string
}

func (e *MethodNotSupportedError) Error() string {
	return fmt.Sprintf("ncm: method %q not supported", e.Method)
}

// IsNotFound reports whether err is a lookup miss or an HTTP 404.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindNotFound
}

// IsTransient reports whether err is a network failure a polling loop can
// ride out.
func IsTransient(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ValueOr returns v when err is nil and fallback otherwise.
//
//	routers := ncm.ValueOr(v2.GetRouters(ctx, nil))(nil)
func ValueOr[T any](v T, err error) func(fallback T) T {
	return func(fallback T) T {
		if err != nil {
			return fallback
		}
		return v
	}
}

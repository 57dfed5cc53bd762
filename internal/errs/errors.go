// Package errs provides the unified error type used across all of StoRi.
//
// Every layer (schema validation, request pipeline, streaming) wraps its
// native errors into *errs.Error before returning them to callers. Callers
// use the Is* predicates to handle errors without inspecting HTTP internals.
//
// Usage:
//
//	// In the pipeline — map a response:
//	return errs.FromStatus(resp.StatusCode, msg, "GET", url)
//
//	// In application code — check error kind:
//	if errs.IsNotFound(err) {
//	    // bucket or object does not exist
//	}
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrKind categorises an error without exposing wire-level details.
// Every failure a StoRi operation can produce maps to one of these kinds,
// giving callers a single consistent API.
type ErrKind int

const (
	ErrKindUnknown      ErrKind = iota
	ErrKindValidation           // input rejected before any request was built
	ErrKindNotFound             // no bucket or object with the given id/key
	ErrKindConflict             // resource already exists / concurrent change
	ErrKindUnauthorized         // missing or insufficient credentials
	ErrKindGenericHTTP          // any other non-2xx response
	ErrKindDecode               // success response with a malformed or mismatched body
	ErrKindTransport            // the HTTP transport failed before a response arrived
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindValidation:
		return "validation"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConflict:
		return "conflict"
	case ErrKindUnauthorized:
		return "unauthorized"
	case ErrKindGenericHTTP:
		return "generic_http"
	case ErrKindDecode:
		return "decode_error"
	case ErrKindTransport:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all StoRi operations.
// The pipeline produces it; callers inspect it via the Is* predicates below.
// It is immutable once created.
type Error struct {
	Kind    ErrKind
	Status  int    // HTTP status code, 0 when no response was received
	Message string // human-readable detail, service-provided when available
	Method  string // originating request method, empty for local failures
	URL     string // originating request URL, empty for local failures
	Cause   error  // underlying error, preserved for logging
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Method != "" {
		msg = fmt.Sprintf("%s (%s %s)", msg, e.Method, e.URL)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// FromStatus creates an *Error whose kind derives from the HTTP status code,
// carrying the originating request context.
func FromStatus(status int, msg, method, url string) *Error {
	return &Error{
		Kind:    KindForStatus(status),
		Status:  status,
		Message: msg,
		Method:  method,
		URL:     url,
	}
}

// KindForStatus maps a non-2xx HTTP status code to an ErrKind.
func KindForStatus(status int) ErrKind {
	switch status {
	case http.StatusNotFound:
		return ErrKindNotFound
	case http.StatusConflict:
		return ErrKindConflict
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrKindUnauthorized
	default:
		return ErrKindGenericHTTP
	}
}

// --- Predicates ---

// IsValidation reports whether err was produced by schema validation
// before any request was dispatched.
func IsValidation(err error) bool {
	return kindOf(err) == ErrKindValidation
}

// IsNotFound reports whether err represents a missing bucket or object.
func IsNotFound(err error) bool {
	return kindOf(err) == ErrKindNotFound
}

// IsConflict reports whether err represents a resource conflict
// (e.g. creating a bucket whose id already exists).
func IsConflict(err error) bool {
	return kindOf(err) == ErrKindConflict
}

// IsUnauthorized reports whether err is an authentication or
// authorization failure.
func IsUnauthorized(err error) bool {
	return kindOf(err) == ErrKindUnauthorized
}

// IsGenericHTTP reports whether err is a non-2xx response not covered
// by a more specific kind.
func IsGenericHTTP(err error) bool {
	return kindOf(err) == ErrKindGenericHTTP
}

// IsDecode reports whether err was caused by a success response whose body
// could not be decoded or did not match the expected entity.
func IsDecode(err error) bool {
	return kindOf(err) == ErrKindDecode
}

// IsTransport reports whether err came from the HTTP transport itself
// (connection refused, timeout, cancelled context, …).
func IsTransport(err error) bool {
	return kindOf(err) == ErrKindTransport
}

// kindOf extracts the ErrKind from any error in the chain.
func kindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}

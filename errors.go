package httprpc

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure categories. Every *ClientError and
// *ServerError matches the sentinel of its kind with errors.Is.
var (
	ErrSerialize             = errors.New("serialize")
	ErrDeserialize           = errors.New("deserialize")
	ErrBody                  = errors.New("body")
	ErrService               = errors.New("service")
	ErrOperation             = errors.New("operation")
	ErrUnexpectedStatus      = errors.New("unexpected status")
	ErrUnexpectedContentType = errors.New("unexpected content type")
	ErrInvalidRequest        = errors.New("invalid request")
)

// Sentinel errors for routing and request binding.
var (
	ErrNotFound      = errors.New("route not found")
	ErrRouteConflict = errors.New("route conflict")
	ErrUnavailable   = errors.New("sender unavailable")

	ErrBindPath   = errors.New("bind path")
	ErrBindQuery  = errors.New("bind query")
	ErrBindHeader = errors.New("bind header")
)

// ClientErrorKind is the closed set of client-side failure categories.
type ClientErrorKind int

// Client failure categories.
const (
	ClientSerialize ClientErrorKind = iota + 1
	ClientDeserialize
	ClientBody
	ClientService
	ClientOperation
	ClientUnexpectedStatus
	ClientUnexpectedContentType
)

func (k ClientErrorKind) String() string {
	switch k {
	case ClientSerialize:
		return "serialize"
	case ClientDeserialize:
		return "deserialize"
	case ClientBody:
		return "body"
	case ClientService:
		return "service"
	case ClientOperation:
		return "operation"
	case ClientUnexpectedStatus:
		return "unexpected status"
	case ClientUnexpectedContentType:
		return "unexpected content type"
	default:
		return fmt.Sprintf("ClientErrorKind(%d)", int(k))
	}
}

func (k ClientErrorKind) sentinel() error {
	switch k {
	case ClientSerialize:
		return ErrSerialize
	case ClientDeserialize:
		return ErrDeserialize
	case ClientBody:
		return ErrBody
	case ClientService:
		return ErrService
	case ClientOperation:
		return ErrOperation
	case ClientUnexpectedStatus:
		return ErrUnexpectedStatus
	case ClientUnexpectedContentType:
		return ErrUnexpectedContentType
	default:
		return nil
	}
}

// ClientError is returned by Operation.Call. Err is the cause; for
// ClientOperation it is the domain error itself.
type ClientError struct {
	Kind ClientErrorKind
	Err  error

	// Status is set for ClientUnexpectedStatus.
	Status int
	// ContentType is the received content type for ClientUnexpectedContentType;
	// empty when the header was missing.
	ContentType string
	// Parts is the response head, set whenever a response was received.
	Parts *ResponseParts
}

func (e *ClientError) Error() string {
	switch e.Kind {
	case ClientUnexpectedStatus:
		return fmt.Sprintf("unexpected status %d", e.Status)
	case ClientUnexpectedContentType:
		if e.ContentType == "" {
			return "unexpected content type: missing"
		}
		return fmt.Sprintf("unexpected content type %q", e.ContentType)
	}
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

// Unwrap returns the cause.
func (e *ClientError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *ClientError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func clientErr(kind ClientErrorKind, err error) *ClientError {
	return &ClientError{Kind: kind, Err: err}
}

// ServerErrorKind is the closed set of server-side failure categories.
type ServerErrorKind int

// Server failure categories.
const (
	ServerInvalidRequest ServerErrorKind = iota + 1
	ServerOperation
	ServerSerialize
	ServerDeserialize
	ServerBody
)

func (k ServerErrorKind) String() string {
	switch k {
	case ServerInvalidRequest:
		return "invalid request"
	case ServerOperation:
		return "operation"
	case ServerSerialize:
		return "serialize"
	case ServerDeserialize:
		return "deserialize"
	case ServerBody:
		return "body"
	default:
		return fmt.Sprintf("ServerErrorKind(%d)", int(k))
	}
}

func (k ServerErrorKind) sentinel() error {
	switch k {
	case ServerInvalidRequest:
		return ErrInvalidRequest
	case ServerOperation:
		return ErrOperation
	case ServerSerialize:
		return ErrSerialize
	case ServerDeserialize:
		return ErrDeserialize
	case ServerBody:
		return ErrBody
	default:
		return nil
	}
}

// ServerError is produced by the dispatcher. For ServerOperation, Err is the
// domain error returned by the handler, unaltered.
type ServerError struct {
	Kind      ServerErrorKind
	Operation string
	Err       error
}

func (e *ServerError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

// Unwrap returns the cause.
func (e *ServerError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *ServerError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// RouteConflictError reports a template that cannot be registered.
type RouteConflictError struct {
	Method   string
	Template string
	Reason   string
}

func (e *RouteConflictError) Error() string {
	return fmt.Sprintf("route conflict: %s %s: %s", e.Method, e.Template, e.Reason)
}

// Is matches ErrRouteConflict.
func (e *RouteConflictError) Is(target error) bool { return target == ErrRouteConflict }

// StatusCoder is implemented by errors that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// OperationErrorType is the problem type stamped on domain errors returned
// by a handler. Runtime rejections (unknown route, bad payload, oversize
// body, rate limit) are about:blank, so a client never mistakes them for a
// declared error that happens to share a status.
const OperationErrorType = "urn:httprpc:operation-error"

const problemTypeBlank = "about:blank"

// problemType is the problem type a domain error travels under: its own
// type when it is a typed *ProblemDetail, OperationErrorType otherwise.
func problemType(err error) string {
	var pd *ProblemDetail
	if errors.As(err, &pd) && pd.Type != "" && pd.Type != problemTypeBlank {
		return pd.Type
	}
	return OperationErrorType
}

// ProblemDetail is an RFC 9457 problem details response.
//
//nolint:errname // RFC 9457 standard name
type ProblemDetail struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Error returns the detail message (or title if detail is empty).
func (p *ProblemDetail) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}

// StatusCode returns the HTTP status code.
func (p *ProblemDetail) StatusCode() int { return p.Status }

// HTTPError is an error with an HTTP status code.
type HTTPError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Error returns the error message.
func (e *HTTPError) Error() string { return e.Message }

// StatusCode returns the HTTP status code.
func (e *HTTPError) StatusCode() int { return e.Status }

// Error returns an error with the given HTTP status code and message.
func Error(status int, message string) error {
	return &HTTPError{Status: status, Message: message}
}

// Errorf returns a formatted error with the given HTTP status code.
func Errorf(status int, format string, args ...any) error {
	return &HTTPError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// ErrorStatus extracts the HTTP status code from an error. Returns
// http.StatusInternalServerError if the error does not implement StatusCoder.
func ErrorStatus(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

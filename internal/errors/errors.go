// Package errors defines domain-level errors used throughout the application.
// These errors represent failures in discovery, translation, invocation and job
// management, and are mapped to stable error kinds at the protocol boundary and
// to HTTP status codes at the API boundary.
//
// NOTE: Important for developers
// When adding a new error here, you MUST consider how it should be handled when
// returned from tool invocations and API endpoints.
//
// Unmapped errors default to kind "internal" and HTTP 500 Internal Server Error.
//
// Don't forget to:
// 1. Add your error to Kind (this file)
// 2. Add your error to mapError (internal/daemon/api_server.go)
// 3. Add test cases to TestKind and TestMapError
package errors

import (
	"errors"
)

var (
	// ErrTransport indicates a network-level failure reaching an OGC server:
	// connection refused, DNS failure, or a per-request timeout.
	// Never retried by the transport itself; retry policy belongs to callers.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrTransport = errors.New("transport error")

	// ErrHTTP indicates the OGC server answered with a non-2xx status.
	// The wrapped error carries the status code and response body.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrHTTP = errors.New("http error")

	// ErrDecode indicates the OGC server returned a body that is not valid JSON
	// where JSON was negotiated.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrDecode = errors.New("decode error")

	// ErrDiscovery indicates a discovery cycle failed outright: the landing page
	// was unreachable or not an OGC API document. Missing optional facets
	// (conformance, collections, processes) are NOT discovery errors; they are
	// recorded as soft flags on the capability snapshot.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrDiscovery = errors.New("discovery failed")

	// ErrSchema indicates a structurally malformed schema document, e.g. a
	// process inputs section that is not a JSON object where one is mandated.
	// Unknown-but-well-formed constructs never raise this; they degrade to an
	// opaque parameter type during translation.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrSchema = errors.New("schema translation failed")

	// ErrValidation indicates caller-supplied arguments violate the operation's
	// parameter schema. Raised before any network call is made.
	// Recommended to map to HTTP 400 Bad Request.
	ErrValidation = errors.New("argument validation failed")

	// ErrInvocation indicates the backend rejected submitted inputs, e.g. an
	// unsupported geometry type. Backend-provided detail is preserved.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrInvocation = errors.New("invocation failed")

	// ErrTimeout indicates a poll budget was exhausted before the job reached a
	// terminal state. The job remains queryable in its last observed state.
	// Recommended to map to HTTP 504 Gateway Timeout.
	ErrTimeout = errors.New("timed out")

	// ErrJobFailed indicates the backend reported terminal failure for a job.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrJobFailed = errors.New("job failed")

	// ErrOperationNotFound indicates the requested operation does not exist in
	// the currently published operation set.
	// Recommended to map to HTTP 404 Not Found.
	ErrOperationNotFound = errors.New("operation not found")

	// ErrJobNotFound indicates the requested job is not tracked.
	// Recommended to map to HTTP 404 Not Found.
	ErrJobNotFound = errors.New("job not found")

	// ErrServerNotFound indicates the requested OGC server is not configured.
	// Recommended to map to HTTP 404 Not Found.
	ErrServerNotFound = errors.New("server not found")

	// ErrBadRequest indicates the client made a malformed request at the API
	// boundary (unreadable body, invalid JSON).
	// Recommended to map to HTTP 400 Bad Request.
	ErrBadRequest = errors.New("bad request")
)

// Kind returns the stable, wire-visible kind string for err, suitable for the
// {error: {kind, message}} result shape. Callers use the kind to decide whether
// to retry, re-discover, or report to the end user.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrJobFailed):
		return "job_failed"
	case errors.Is(err, ErrInvocation):
		return "invocation"
	case errors.Is(err, ErrDiscovery):
		return "discovery"
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrHTTP):
		return "http"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrOperationNotFound):
		return "operation_not_found"
	case errors.Is(err, ErrJobNotFound):
		return "job_not_found"
	case errors.Is(err, ErrServerNotFound):
		return "server_not_found"
	case errors.Is(err, ErrBadRequest):
		return "bad_request"
	default:
		return "internal"
	}
}

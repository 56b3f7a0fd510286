package invite

import (
	"errors"
	"fmt"
	"net/http"
)

// PermissionDenied is the fixed reply for callers failing the policy.
const PermissionDenied = "You don't have permission to manage invitations."

// ValidationError rejects input before any network call.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// AuthorizationError means the caller failed the allow/deny policy.
type AuthorizationError struct {
	Caller string
}

func (e *AuthorizationError) Error() string { return PermissionDenied }

// UpstreamError is a transport failure or a non-2xx provider reply. Status is
// 0 when no response was received.
type UpstreamError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: got %d from identity provider: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: got %d from identity provider: %s", e.Op, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// MalformedResponseError is a 2xx reply missing the fields we need.
type MalformedResponseError struct {
	Body string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("malformed identity provider response: %v", e.Err)
	}
	return fmt.Sprintf("malformed identity provider response: %v: %s", e.Err, e.Body)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// DeliveryError is a failure to hand the result to the caller.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver invitation: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Outcome labels err for metrics and logs.
func Outcome(err error) string {
	var (
		validation *ValidationError
		authz      *AuthorizationError
		upstream   *UpstreamError
		malformed  *MalformedResponseError
		delivery   *DeliveryError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &validation):
		return "invalid"
	case errors.As(err, &authz):
		return "denied"
	case errors.As(err, &upstream):
		return "upstream_error"
	case errors.As(err, &malformed):
		return "malformed"
	case errors.As(err, &delivery):
		return "delivery_error"
	default:
		return "error"
	}
}

// HTTPStatus maps err to the status the form endpoint answers with.
func HTTPStatus(err error) int {
	switch Outcome(err) {
	case "ok":
		return http.StatusOK
	case "invalid":
		return http.StatusBadRequest
	case "denied":
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

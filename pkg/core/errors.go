package core

import (
	"fmt"
)

// Error is the error type shared across the session core and the gateway.
type Error struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Param      string    `json:"param,omitempty"`
	Code       string    `json:"code,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	RetryAfter *int      `json:"retry_after,omitempty"`
	wrapped    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	ErrInvalidRequest ErrorType = "invalid_request_error"
	ErrAuthentication ErrorType = "authentication_error"
	ErrPermission     ErrorType = "permission_error"
	ErrNotFound       ErrorType = "not_found_error"
	ErrPrecondition   ErrorType = "precondition_error"
	ErrRateLimit      ErrorType = "rate_limit_error"
	ErrConnection     ErrorType = "connection_error"
	ErrUpstream       ErrorType = "upstream_error"
)

// NewInvalidRequestError creates an invalid request error.
func NewInvalidRequestError(message string) *Error {
	return &Error{
		Type:    ErrInvalidRequest,
		Message: message,
	}
}

// NewInvalidRequestErrorWithParam creates an invalid request error with a parameter.
func NewInvalidRequestErrorWithParam(message, param string) *Error {
	return &Error{
		Type:    ErrInvalidRequest,
		Message: message,
		Param:   param,
	}
}

// NewAuthenticationError creates an authentication error.
func NewAuthenticationError(message string) *Error {
	return &Error{
		Type:    ErrAuthentication,
		Message: message,
	}
}

// NewPermissionError creates a permission error.
func NewPermissionError(message string) *Error {
	return &Error{
		Type:    ErrPermission,
		Message: message,
	}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(message string) *Error {
	return &Error{
		Type:    ErrNotFound,
		Message: message,
	}
}

// NewPreconditionError reports an operation attempted from a state that does
// not allow it, such as connecting a session whose role is already live.
func NewPreconditionError(message string) *Error {
	return &Error{
		Type:    ErrPrecondition,
		Message: message,
	}
}

// NewRateLimitError creates a rate limit error.
func NewRateLimitError(message string, retryAfter int) *Error {
	return &Error{
		Type:       ErrRateLimit,
		Message:    message,
		RetryAfter: &retryAfter,
	}
}

// NewConnectionError wraps a transport failure on the peer link or the
// control channel.
func NewConnectionError(message string, underlying error) *Error {
	if underlying != nil {
		message = fmt.Sprintf("%s: %v", message, underlying)
	}
	return &Error{
		Type:    ErrConnection,
		Message: message,
		wrapped: underlying,
	}
}

// NewUpstreamError wraps a failure reported by the realtime provider.
func NewUpstreamError(message string, underlying error) *Error {
	if underlying != nil {
		message = fmt.Sprintf("%s: %v", message, underlying)
	}
	return &Error{
		Type:    ErrUpstream,
		Message: message,
		wrapped: underlying,
	}
}

// IsRetryable returns true if the error is retryable.
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrRateLimit, ErrConnection, ErrUpstream:
		return true
	default:
		return false
	}
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	return e.wrapped
}

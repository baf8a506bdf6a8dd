package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies gateway failures for boundary status mapping
type ErrorKind string

const (
	ErrorKindAuth       ErrorKind = "authentication"
	ErrorKindPermission ErrorKind = "permission"
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindNotFound   ErrorKind = "not_found"
	ErrorKindAdapter    ErrorKind = "adapter"
	ErrorKindInternal   ErrorKind = "internal"
)

// Sentinel causes for authentication failures. Both map to the same
// caller-visible error but are logged and alerted on separately.
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrProviderUnreachable = errors.New("identity provider unreachable")
)

// GatewayError carries an error kind alongside the underlying cause
type GatewayError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap exposes the cause for errors.Is / errors.As
func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// NewAuthError creates an authentication failure (maps to 401)
func NewAuthError(message string, cause error) *GatewayError {
	return &GatewayError{Kind: ErrorKindAuth, Message: message, Cause: cause}
}

// NewPermissionError creates an authorization failure (maps to 403)
func NewPermissionError(message string) *GatewayError {
	return &GatewayError{Kind: ErrorKindPermission, Message: message}
}

// NewValidationError creates a request validation failure (maps to 400)
func NewValidationError(message string) *GatewayError {
	return &GatewayError{Kind: ErrorKindValidation, Message: message}
}

// NewNotFoundError creates an unknown tool/resource failure (maps to 404)
func NewNotFoundError(message string) *GatewayError {
	return &GatewayError{Kind: ErrorKindNotFound, Message: message}
}

// NewAdapterError wraps a single-source backend failure. Adapter errors are
// always absorbed inside the aggregator and never surface to the caller.
func NewAdapterError(source string, cause error) *GatewayError {
	return &GatewayError{Kind: ErrorKindAdapter, Message: fmt.Sprintf("source %s failed", source), Cause: cause}
}

// NewInternalError creates an unexpected failure (maps to 500, details not leaked)
func NewInternalError(cause error) *GatewayError {
	return &GatewayError{Kind: ErrorKindInternal, Message: "internal server error", Cause: cause}
}

// KindOf extracts the ErrorKind from an error chain, defaulting to internal
func KindOf(err error) ErrorKind {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ErrorKindInternal
}

package errors

import (
	"errors"
	"fmt"
	"strings"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Details))
	for i, d := range e.Details {
		parts[i] = d.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, "; "))
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// BadRequestError reports a request the relay refuses before any business
// rule runs: missing caller headers, malformed host names, unparseable JSON.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return e.Message
}

func NewBadRequestError(message string) *BadRequestError {
	return &BadRequestError{Message: message}
}

func IsBadRequestError(err error) (*BadRequestError, bool) {
	var be *BadRequestError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

type AuthErrorKind string

const (
	AuthUnauthorized      AuthErrorKind = "unauthorized"
	AuthForbidden         AuthErrorKind = "forbidden"
	AuthServiceError      AuthErrorKind = "service_error"
	AuthMalformedResponse AuthErrorKind = "malformed_response"
)

// AuthError is returned by the identity exchange. Status carries the
// identity service's HTTP status when one was received.
type AuthError struct {
	Kind    AuthErrorKind
	Status  int
	Message string
	Missing []string
	Cause   error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

func NewAuthError(kind AuthErrorKind, status int, message string) *AuthError {
	return &AuthError{
		Kind:    kind,
		Status:  status,
		Message: message,
	}
}

func IsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// DownstreamUnreachableError means every forward attempt failed before a
// response was received.
type DownstreamUnreachableError struct {
	Attempts int
	Cause    error
}

func (e *DownstreamUnreachableError) Error() string {
	return fmt.Sprintf("downstream unreachable after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *DownstreamUnreachableError) Unwrap() error {
	return e.Cause
}

func NewDownstreamUnreachableError(attempts int, cause error) *DownstreamUnreachableError {
	return &DownstreamUnreachableError{
		Attempts: attempts,
		Cause:    cause,
	}
}

func IsDownstreamUnreachableError(err error) (*DownstreamUnreachableError, bool) {
	var de *DownstreamUnreachableError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}

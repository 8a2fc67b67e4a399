// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ValidationError is a malformed or missing required input. Surfaced to the
// caller as a 400 with no side effects.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// NoCapacityError means zero active lines, or every line at its daily cap.
// Batch operations surface this as a success-shaped empty result, not a failure.
type NoCapacityError struct {
	Message string
}

func (e *NoCapacityError) Error() string { return e.Message }

func NewNoCapacity(message string) error {
	return &NoCapacityError{Message: message}
}

func IsNoCapacity(err error) bool {
	var n *NoCapacityError
	return errors.As(err, &n)
}

// GatewayError is an external send/poll failure for a single contact.
// Recorded per contact; the batch continues.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func NewGateway(op string, err error) error {
	return &GatewayError{Op: op, Err: err}
}

func IsGateway(err error) bool {
	var g *GatewayError
	return errors.As(err, &g)
}

// NotFoundError is a sentinel for a missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func NewNotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

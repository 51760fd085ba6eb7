package domain

import (
	"fmt"
	"strings"
)

// Error types for consistent error handling across the engine. Only
// ErrValidation and ErrNotFound cross the engine boundary.

// FailureKind classifies one provider attempt that did not yield a record.
type FailureKind string

const (
	FailureTimeout           FailureKind = "timeout"
	FailureTransport         FailureKind = "transport_error"
	FailureNotFound          FailureKind = "not_found"
	FailureMalformedResponse FailureKind = "malformed_response"
)

// ProviderFailure is the per-attempt outcome of a failed adapter call. It is
// a value, never raised on its own; the resolver aggregates them.
type ProviderFailure struct {
	Source  string      `json:"source"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message,omitempty"`
}

func (f ProviderFailure) String() string {
	if f.Message == "" {
		return fmt.Sprintf("%s: %s", f.Source, f.Kind)
	}
	return fmt.Sprintf("%s: %s (%s)", f.Source, f.Kind, f.Message)
}

// ErrNotFound indicates every configured provider failed for an identifier.
type ErrNotFound struct {
	Resource string
	ID       string
	Failures []ProviderFailure
}

func (e *ErrNotFound) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.String()
	}
	return fmt.Sprintf("%s not found: %s [%s]", e.Resource, e.ID, strings.Join(parts, "; "))
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates a missing or invalid admin token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

package errors

import (
	"fmt"
)

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when authentication fails
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrConflict is returned when there's a conflict (e.g. a reused OAuth state)
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflict"
}

// ErrValidation is returned when validation fails
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrUpstream is returned when the commerce platform answers with a non-2xx status
type ErrUpstream struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *ErrUpstream) Error() string {
	return fmt.Sprintf("%s error: status %d: %s", e.Service, e.StatusCode, e.Message)
}

// NewValidation builds an ErrValidation for a single field
func NewValidation(field, reason string) *ErrValidation {
	return &ErrValidation{
		Message: fmt.Sprintf("%s %s", field, reason),
		Fields:  map[string]string{field: reason},
	}
}

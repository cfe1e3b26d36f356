package types

import (
	"errors"
	"fmt"
	"strings"
)

// Store lifecycle errors.
var (
	ErrStoreClosed    = errors.New("store is closed")
	ErrAlreadyOpen    = errors.New("store is already open")
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
)

// Entity operation errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrSequenceInUse = errors.New("sequence number is already in use")
)

// ValidationError reports every format or range rule an input violates, not
// just the first. It is always raised before any persistence attempt.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// NewValidationError returns a ValidationError when violations is non-empty,
// and nil otherwise. The nil return is typed as error so callers can propagate
// it directly.
func NewValidationError(violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

// NotFoundError reports a missing entity: a parent reference that does not
// exist at creation time, or a target that does not exist at update time.
// It satisfies errors.Is(err, ErrNotFound) while remaining distinguishable
// from a ValidationError.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Is makes NotFoundError match ErrNotFound for errors.Is chains.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

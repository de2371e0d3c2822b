// Package apperror defines the error taxonomy shared by all services.
// Handlers translate these sentinels into HTTP responses with errors.Is.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates an entity or reference is absent.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates an authenticated caller without sufficient
	// role or membership.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidArgument indicates malformed or missing required input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPrecondition indicates an operation attempted before a required
	// prior step, e.g. billing onboarding not yet completed.
	ErrPrecondition = errors.New("precondition failed")
	// ErrInternal indicates an unexpected failure from an external
	// collaborator or a partially completed multi-step sequence.
	ErrInternal = errors.New("internal error")
)

// Internal wraps a collaborator failure so that both the taxonomy sentinel
// and the original cause stay reachable through errors.Is/As.
func Internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

/*
errors.go - Centralized error types for the dispense engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages and the API layer wrap these with additional context.

ERROR CATEGORIES:
  1. Staleness/conflict errors - authoritative stock disagreed with the draft
  2. Duplicate errors - submission or audit replay detected
  3. Store errors - persistence-level failures

USAGE:
  Callers classify with errors.Is:

    if errors.Is(err, dispense.ErrInsufficientStock) {
        // surface per-line failure, remaining lines were not attempted
    }

SEE ALSO:
  - orchestrator.go: Produces these errors
  - store.go: Store contract referencing the duplicate sentinels
*/
package dispense

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientStock is returned when authoritative stock at submission
	// time is lower than a line's quantity. This is a hard stop: remaining
	// lines are not attempted.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrDuplicateSubmission is returned when a submission id has already
	// been processed. Expected behavior for network retries.
	ErrDuplicateSubmission = errors.New("duplicate submission")

	// ErrDuplicateIdempotencyKey is returned when an audit transaction with
	// the same idempotency key already exists.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrItemNotFound is returned when an item id has no authoritative
	// inventory row (e.g. the item was retired mid-flow).
	ErrItemNotFound = errors.New("item not found")

	// ErrBatchNotFound is returned when a batch touch targets a missing batch.
	ErrBatchNotFound = errors.New("inventory batch not found")

	// ErrDraftNotSubmittable is returned when a draft fails the submit gate.
	ErrDraftNotSubmittable = errors.New("draft not submittable")

	// ErrFlowNotFound is returned when no flow is registered under a name.
	ErrFlowNotFound = errors.New("flow not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError reports a stock shortage detected against the
// authoritative inventory row, not the cached catalog.
type InsufficientStockError struct {
	ItemID    ItemID
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.ItemID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// LineError attributes a submission failure to the line that caused it.
// Partial results collected before the failure remain visible to the caller.
type LineError struct {
	ItemID ItemID
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %s: %v", e.ItemID, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConflict returns true if the error reflects a staleness/conflict
// detected at submission time rather than a malformed request.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrDuplicateSubmission) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDraftNotSubmittable) ||
		errors.Is(err, ErrFlowNotFound) ||
		IsConflict(err)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrBatchNotFound)
}

/*
Package lifecycle drives guarded status transitions for tracked entities.

PURPOSE:
  Complaints, clearance requests, and summon cases are server-owned
  records with a finite status set. Which transition is legal from which
  current status is a per-kind allow-list; this package holds those
  tables and the controller that enforces them.

SERVER AUTHORITY:
  The controller NEVER computes a new status locally. It issues a guarded
  patch, invalidates cached queries, and leaves the in-memory entity
  untouched; displayed status changes only after the authoritative
  refetch.

SEE ALSO:
  - tables.go: The built-in guard tables
  - controller.go: CanTransition / PerformTransition
  - cache.go: The short-TTL query cache invalidated after mutations
*/
package lifecycle

import "errors"

// =============================================================================
// ENTITY KINDS AND STATUSES
// =============================================================================

type Kind string

const (
	KindComplaint Kind = "complaint"
	KindClearance Kind = "clearance"
	KindSummon    Kind = "summon"
)

type Status string

// Complaint statuses.
const (
	StatusPending   Status = "Pending"
	StatusAccepted  Status = "Accepted"
	StatusRejected  Status = "Rejected"
	StatusRaised    Status = "Raised"
	StatusCancelled Status = "Cancelled"
)

// Clearance statuses. Paid is reached only through receipt creation,
// never via a direct status patch.
const (
	StatusDeclined Status = "Declined"
	StatusPaid     Status = "Paid"
)

// Summon case statuses.
const (
	StatusFiled       Status = "Filed"
	StatusScheduled   Status = "Scheduled"
	StatusRescheduled Status = "Rescheduled"
	StatusSettled     Status = "Settled"
	StatusEscalated   Status = "Escalated"
)

// =============================================================================
// TRACKED ENTITY
// =============================================================================

// Tracked is the controller's view of a server-owned record.
// Store entity types implement this.
type Tracked interface {
	TrackedID() string
	TrackedKind() Kind
	TrackedStatus() Status
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrTransitionNotAllowed is returned when the guard table has no rule
	// for the requested transition.
	ErrTransitionNotAllowed = errors.New("transition not allowed")

	// ErrReasonRequired is returned locally, before any store call, when a
	// guarded transition demands a reason and none was supplied.
	ErrReasonRequired = errors.New("a reason is required for this transition")

	// ErrTransitionInFlight is returned when a transition for the same
	// entity is still being processed.
	ErrTransitionInFlight = errors.New("a transition for this entity is already in progress")

	// ErrEntityNotFound is returned by patchers for unknown entities.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrUnknownKind is returned when no guard table covers the kind.
	ErrUnknownKind = errors.New("no guard table for entity kind")
)

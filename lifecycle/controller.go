/*
controller.go - Guarded status-transition driver

PURPOSE:
  Drives the confirm -> optional-reason -> patch -> invalidate cycle for
  tracked entities. The controller is the only writer of entity status,
  and even it never writes locally: it patches through the store and
  relies on refetch for the new value.

NO OPTIMISTIC UPDATES:
  On success the passed entity is left untouched; displayed status must
  come from a refetch. On failure the store's error is surfaced verbatim
  and nothing needs rolling back precisely because nothing was
  optimistically applied.

PER-ENTITY MUTUAL EXCLUSION:
  One transition per entity at a time, tracked by an in-flight set keyed
  on the entity id. Unrelated entities proceed independently. This guards
  the double-click case only; true retry safety comes from the
  idempotency keys on the dispense side.
*/
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// EntityPatcher issues the authoritative status write.
type EntityPatcher interface {
	// PatchStatus sets an entity's status (and rejection reason, for
	// decline/reject variants). Returns ErrEntityNotFound for unknown ids.
	PatchStatus(ctx context.Context, kind Kind, id string, status Status, reason string) error
}

// Controller enforces guard tables over an EntityPatcher.
type Controller struct {
	Patcher EntityPatcher

	// Cache, when set, has the kind's list/detail keys invalidated after
	// every successful patch.
	Cache *QueryCache

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewController creates a controller over a patcher.
func NewController(patcher EntityPatcher, cache *QueryCache) *Controller {
	return &Controller{
		Patcher:  patcher,
		Cache:    cache,
		inFlight: make(map[string]bool),
	}
}

// CanTransition is a pure lookup against the entity kind's guard table.
func (c *Controller) CanTransition(e Tracked, target Status) bool {
	gt, ok := TableFor(e.TrackedKind())
	if !ok {
		return false
	}
	_, ok = gt.Find(e.TrackedStatus(), target)
	return ok
}

// Explain returns "" when the transition is allowed, otherwise a message
// explaining why the action is unavailable. Callers show this next to a
// disabled affordance instead of hiding the action.
func (c *Controller) Explain(e Tracked, target Status) string {
	gt, ok := TableFor(e.TrackedKind())
	if !ok {
		return fmt.Sprintf("no transitions are defined for %s records", e.TrackedKind())
	}
	if _, ok := gt.Find(e.TrackedStatus(), target); ok {
		return ""
	}
	if gt.IsTerminal(e.TrackedStatus()) {
		return fmt.Sprintf("a %s %s is final and cannot change status",
			e.TrackedStatus(), e.TrackedKind())
	}
	return fmt.Sprintf("a %s %s cannot move to %s",
		e.TrackedStatus(), e.TrackedKind(), target)
}

// TransitionError carries the user-facing explanation for a refused
// transition.
type TransitionError struct {
	Kind    Kind
	ID      string
	From    Status
	To      Status
	Message string
}

func (e *TransitionError) Error() string { return e.Message }

func (e *TransitionError) Unwrap() error { return ErrTransitionNotAllowed }

// PerformTransition validates the transition locally, issues the patch,
// and invalidates cached queries for the kind. The entity value is never
// mutated; callers refetch for the authoritative status.
func (c *Controller) PerformTransition(ctx context.Context, e Tracked, target Status, reason string) error {
	gt, ok := TableFor(e.TrackedKind())
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, e.TrackedKind())
	}

	rule, ok := gt.Find(e.TrackedStatus(), target)
	if !ok {
		return &TransitionError{
			Kind:    e.TrackedKind(),
			ID:      e.TrackedID(),
			From:    e.TrackedStatus(),
			To:      target,
			Message: c.Explain(e, target),
		}
	}

	// Reason-required guard resolves locally; the store is never called.
	if rule.RequiresReason && strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}

	key := string(e.TrackedKind()) + "/" + e.TrackedID()
	if !c.acquire(key) {
		return ErrTransitionInFlight
	}
	defer c.release(key)

	// Store errors surface verbatim; no local state to roll back.
	if err := c.Patcher.PatchStatus(ctx, e.TrackedKind(), e.TrackedID(), target, reason); err != nil {
		return err
	}

	if c.Cache != nil {
		c.Cache.Invalidate(ListKey(e.TrackedKind()), DetailKey(e.TrackedKind(), e.TrackedID()))
	}
	return nil
}

func (c *Controller) acquire(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight == nil {
		c.inFlight = make(map[string]bool)
	}
	if c.inFlight[key] {
		return false
	}
	c.inFlight[key] = true
	return true
}

func (c *Controller) release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, key)
}

// Processing reports whether a transition for the entity is in flight,
// so callers can disable the matching row control.
func (c *Controller) Processing(e Tracked) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight[string(e.TrackedKind())+"/"+e.TrackedID()]
}

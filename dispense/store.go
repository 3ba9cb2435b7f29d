/*
store.go - Persistence interfaces for the dispense engine

PURPOSE:
  Defines the boundary between the submission pipeline and the database.
  Different implementations back these with SQLite or in-memory storage.

KEY INTERFACES:
  InventoryStore: Authoritative stock reads and guarded deductions
  RecordStore:    Submissions, parent records, audit log, consumption rows
  TxStore:        Atomic multi-write support for per-line sequences

AUTHORITATIVE READS:
  GetItem returns the CURRENT inventory row, never a cached catalog view.
  The orchestrator re-reads per line so a later line observes the
  deductions earlier lines committed.

GUARDED DEDUCTION:
  DeductStock must refuse to drive availability negative even if the
  orchestrator's check raced a concurrent dispensation; implementations
  return ErrInsufficientStock in that case.

APPEND-ONLY AUDIT:
  Stock transactions are never updated or deleted. Every entry carries an
  idempotency key; replays are rejected with ErrDuplicateIdempotencyKey.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - dispense/store: in-memory store for tests/dev

SEE ALSO:
  - orchestrator.go: The only writer through these interfaces
*/
package dispense

import (
	"context"
	"time"
)

// =============================================================================
// INVENTORY STORE - Authoritative stock
// =============================================================================

type InventoryStore interface {
	// GetItem returns the authoritative inventory row for an item.
	// Returns ErrItemNotFound when the item does not exist.
	GetItem(ctx context.Context, id ItemID) (CatalogItem, error)

	// DeductStock atomically subtracts quantity from an item's availability
	// and stamps its modified time. Returns ErrInsufficientStock when the
	// deduction would drive availability negative.
	DeductStock(ctx context.Context, id ItemID, quantity int, at time.Time) error

	// TouchBatch updates the coarse last-modified timestamp of an
	// inventory batch. Returns ErrBatchNotFound for unknown batches.
	TouchBatch(ctx context.Context, batchID string, at time.Time) error
}

// =============================================================================
// RECORD STORE - Submissions, audit, consumption history
// =============================================================================

type RecordStore interface {
	// BeginSubmission registers a submission id before any stock is
	// touched. Returns ErrDuplicateSubmission on replay.
	BeginSubmission(ctx context.Context, sub Submission) error

	// CreateParentRecord persists the per-submission containing record.
	CreateParentRecord(ctx context.Context, rec ParentRecord) error

	// AppendStockTransaction appends an audit entry. Append-only; returns
	// ErrDuplicateIdempotencyKey when the key was already used.
	AppendStockTransaction(ctx context.Context, tx StockTransaction) error

	// CreateConsumptionRecord persists the final history record for a line.
	CreateConsumptionRecord(ctx context.Context, rec ConsumptionRecord) error

	// HasIdempotencyKey checks whether an audit idempotency key exists.
	HasIdempotencyKey(ctx context.Context, key string) (bool, error)
}

// Store combines the persistence concerns the orchestrator needs.
type Store interface {
	InventoryStore
	RecordStore
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with transaction support. The orchestrator runs
// each line's write sequence inside WithTx so a mid-sequence failure
// cannot leave stock deducted without its consumption record.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

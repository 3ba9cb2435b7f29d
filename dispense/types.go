/*
Package dispense provides the core request/dispensing engine.

PURPOSE:
  This package contains kind-agnostic types and algorithms for building,
  validating, and submitting multi-item dispensing requests. Whether the
  items are medicines, first-aid supplies, or any other stocked good, the
  same engine handles catalog filtering, draft assembly, preview, and the
  sequential submission pipeline.

KEY CONCEPTS IN THIS FILE (types.go):
  - CatalogItem: An available-for-selection view of one inventory row
  - DraftLine:   One row of a request being built (item, quantity, reason)
  - Draft:       The full in-progress request, assembled before submission
  - LineResult:  Per-line outcome of a submission

DESIGN PRINCIPLES:
  1. Immutability: Draft mutations return new values, never edit in place
  2. Server authority: catalog quantities are advisory; the orchestrator
     re-reads authoritative stock at submission time
  3. Type Safety: Strong typing for IDs prevents mixing item/subject IDs
  4. Auditability: Every stock movement carries an idempotency key

SEE ALSO:
  - catalog.go: Catalog loading, normalization, eligibility filter
  - draft.go: Draft reducer operations and the submit gate
  - orchestrator.go: The sequential submission pipeline
*/
package dispense

import (
	"fmt"
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ItemID string
type SubjectID string
type StaffID string
type SubmissionID string

// ItemKind identifies what category of stock is being dispensed.
// This is an interface so domain packages define their own concrete types.
// The dispense package has NO knowledge of specific item kinds.
//
// Domain packages implement this:
//
//	// In medicine/types.go
//	type Kind string
//	func (k Kind) KindID() string     { return string(k) }
//	func (k Kind) KindDomain() string { return "medicine" }
//	const KindMedicine Kind = "medicine"
type ItemKind interface {
	// KindID returns the unique identifier for this item kind.
	KindID() string

	// KindDomain returns which domain this kind belongs to.
	KindDomain() string
}

// =============================================================================
// CATALOG ITEM - Available-for-selection view of inventory
// =============================================================================

// CatalogItem is one dispensable inventory unit after normalization.
// Quantities are advisory at draft time; the authoritative count lives
// in the store and is re-read by the orchestrator.
type CatalogItem struct {
	ID         ItemID
	Kind       ItemKind
	Name       string
	Unit       string // normalized, e.g. raw "boxes" ingested as "pcs"
	Category   string
	Available  int
	Restricted bool       // e.g. prescription medicine
	Expiry     *time.Time // nil means the item does not expire
	BatchID    string     // "" when the item belongs to no batch
}

// EligibleAt reports whether the item may be offered for selection:
// positive availability and not expired as of the given day. Expiry is
// date-granular, so the comparison is between calendar dates in each
// value's own location - truncating the clock to UTC midnight would
// shift the day boundary for any non-UTC caller.
func (ci CatalogItem) EligibleAt(today time.Time) bool {
	if ci.Available <= 0 {
		return false
	}
	if ci.Expiry == nil {
		return true
	}
	return ci.Expiry.Format("2006-01-02") >= today.Format("2006-01-02")
}

// QuantityLabel renders a quantity in this item's unit, e.g. "2 pcs".
func (ci CatalogItem) QuantityLabel(qty int) string {
	return fmt.Sprintf("%d %s", qty, ci.Unit)
}

// =============================================================================
// DRAFT - A request being built
// =============================================================================

// DraftLine is one row of a request being built.
type DraftLine struct {
	ItemID   ItemID
	Quantity int
	Reason   string
}

// Draft is the full in-progress submission. It exists only in memory
// until submitted; every mutation returns a new Draft value so preview
// and submit-gate logic can read concurrently without coordination.
type Draft struct {
	SubmissionID SubmissionID // client-supplied request id; generated when empty
	Kind         ItemKind
	SubjectID    SubjectID // patient or case identifier
	StaffID      StaffID   // acting user
	Lines        []DraftLine
	Signature    string   // base64 image payload, required by some flows
	Attachments  []string // opaque media blobs, required for restricted items
}

// =============================================================================
// SUBMISSION RESULT - Outcome of one line's processing
// =============================================================================

// LineResult records the outcome of processing a single draft line.
// Results accumulate in submission order; a later failure never undoes
// successes already committed for prior lines.
type LineResult struct {
	ItemID  ItemID
	Success bool
	Record  *ConsumptionRecord // success payload
	Error   string             // failure message
}

// =============================================================================
// PERSISTED RECORDS
// =============================================================================

// Submission registers one composite submit. Its primary key doubles as
// the deduplication point: replaying a submission id is rejected before
// any stock is touched.
type Submission struct {
	ID        SubmissionID
	KindID    string
	SubjectID SubjectID
	StaffID   StaffID
	CreatedAt time.Time
}

// ParentRecord is the per-submission containing record some flows require
// (e.g. a patient record that consumption rows hang off).
type ParentRecord struct {
	ID           string
	SubmissionID SubmissionID
	SubjectID    SubjectID
	KindID       string
	CreatedAt    time.Time
}

// StockTransaction is an append-only audit entry for a stock movement.
type StockTransaction struct {
	ID             string
	ItemID         ItemID
	Action         string // e.g. "Dispensed"
	QuantityLabel  string // e.g. "2 pcs"
	StaffID        StaffID
	IdempotencyKey string
	CreatedAt      time.Time
}

// ConsumptionRecord is the final history record for one dispensed line.
type ConsumptionRecord struct {
	ID            string
	SubmissionID  SubmissionID
	ParentID      string // "" when the flow requires no parent record
	SubjectID     SubjectID
	ItemID        ItemID
	ItemName      string
	QuantityLabel string // "0 pcs" for recorded-but-not-dispensed lines
	Reason        string
	Signature     string
	StaffID       StaffID
	CreatedAt     time.Time
}

// ReasonPlaceholder is substituted when a line's reason is blank.
const ReasonPlaceholder = "No reason provided"

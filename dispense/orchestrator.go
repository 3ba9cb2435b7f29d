/*
orchestrator.go - The sequential multi-step submission pipeline

PURPOSE:
  Processes a confirmed draft line by line, performing the dependent
  write sequence per line and collecting a per-line result:

  ┌───────────────────────────────────────────────────────────────┐
  │                                                               │
  │  validate   ensure     re-read        deduct    audit + record│
  │  line   ──▶ parent ──▶ authoritative ──▶ stock ──▶ consumption│
  │             record     stock                                  │
  │                                                               │
  └───────────────────────────────────────────────────────────────┘

ORDERING:
  Processing is STRICTLY sequential in drafted order. This is a
  correctness requirement, not a simplification: the availability check
  for line N+1 must observe the deduction committed for line N when both
  draw from related stock.

FAILURE POLICY (two deliberately different severities):
  - Structurally malformed line (missing item id, negative quantity,
    zero quantity under a forbidding flow): failure result recorded for
    that line, batch CONTINUES.
  - Insufficient authoritative stock, or any store error mid-sequence:
    failure result recorded, batch ABORTS. Results already collected
    remain visible alongside the returned error.

ATOMICITY:
  Each line's steps run inside one store transaction, so a failure after
  deduction cannot strand inventory without its consumption record.

IDEMPOTENCY:
  The submission id is registered before any stock is touched; replaying
  it returns ErrDuplicateSubmission with no writes. Audit entries carry
  per-line keys derived from the submission id.

SEE ALSO:
  - draft.go: The submit gate callers check before invoking Submit
  - store.go: The persistence contract
*/
package dispense

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Orchestrator drives the submission pipeline against a transactional store.
type Orchestrator struct {
	Store TxStore

	// Now stamps records; defaults to time.Now.
	Now func() time.Time

	// NewID generates record ids; defaults to uuid.NewString.
	NewID func() string
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) newID() string {
	if o.NewID != nil {
		return o.NewID()
	}
	return uuid.NewString()
}

// Submit processes the draft's lines in order and returns one result per
// attempted line. When the returned error is non-nil the batch aborted:
// lines after the failing one were never attempted, and results already
// collected are returned for diagnostics.
func (o *Orchestrator) Submit(ctx context.Context, flow FlowConfig, draft Draft) ([]LineResult, error) {
	subID := draft.SubmissionID
	if subID == "" {
		subID = SubmissionID(o.newID())
	}

	// Register the submission first: a replayed id is rejected here,
	// before any stock is touched.
	err := o.Store.BeginSubmission(ctx, Submission{
		ID:        subID,
		KindID:    flow.Kind.KindID(),
		SubjectID: draft.SubjectID,
		StaffID:   draft.StaffID,
		CreatedAt: o.now(),
	})
	if err != nil {
		return nil, err
	}

	var results []LineResult
	parentID := ""

	for i, line := range draft.Lines {
		// Structural validation: record the failure and keep going.
		// A malformed single line must not sink the rest of the batch.
		if msg := o.structuralProblem(flow, line); msg != "" {
			results = append(results, LineResult{ItemID: line.ItemID, Error: msg})
			continue
		}

		if flow.RequiresParentRecord && parentID == "" {
			parentID = o.newID()
			err := o.Store.CreateParentRecord(ctx, ParentRecord{
				ID:           parentID,
				SubmissionID: subID,
				SubjectID:    draft.SubjectID,
				KindID:       flow.Kind.KindID(),
				CreatedAt:    o.now(),
			})
			if err != nil {
				lineErr := &LineError{ItemID: line.ItemID, Err: err}
				results = append(results, LineResult{ItemID: line.ItemID, Error: lineErr.Error()})
				return results, lineErr
			}
		}

		record, err := o.processLine(ctx, flow, draft, subID, parentID, i, line)
		if err != nil {
			// Conflict or store failure: abort, preserving partial results.
			lineErr := &LineError{ItemID: line.ItemID, Err: err}
			results = append(results, LineResult{ItemID: line.ItemID, Error: lineErr.Error()})
			return results, lineErr
		}
		results = append(results, LineResult{ItemID: line.ItemID, Success: true, Record: &record})
	}

	return results, nil
}

// structuralProblem reports why a line is malformed, or "" when it is fine.
func (o *Orchestrator) structuralProblem(flow FlowConfig, line DraftLine) string {
	if line.ItemID == "" {
		return "line is missing an item id"
	}
	if line.Quantity < 0 {
		return fmt.Sprintf("negative quantity %d for %s", line.Quantity, line.ItemID)
	}
	if line.Quantity == 0 && !flow.AllowZeroQuantity {
		return fmt.Sprintf("zero quantity not permitted for %s", line.ItemID)
	}
	return ""
}

// processLine runs one line's write sequence inside a store transaction.
func (o *Orchestrator) processLine(
	ctx context.Context,
	flow FlowConfig,
	draft Draft,
	subID SubmissionID,
	parentID string,
	index int,
	line DraftLine,
) (ConsumptionRecord, error) {
	var record ConsumptionRecord

	err := o.Store.WithTx(ctx, func(s Store) error {
		// Authoritative re-read. The cached catalog the draft was built
		// against may be stale; only the store row counts here.
		item, err := s.GetItem(ctx, line.ItemID)
		if err != nil {
			return err
		}

		now := o.now()
		reason := line.Reason
		if reason == "" {
			reason = ReasonPlaceholder
		}

		record = ConsumptionRecord{
			ID:            o.newID(),
			SubmissionID:  subID,
			ParentID:      parentID,
			SubjectID:     draft.SubjectID,
			ItemID:        line.ItemID,
			ItemName:      item.Name,
			QuantityLabel: item.QuantityLabel(line.Quantity),
			Reason:        reason,
			Signature:     draft.Signature,
			StaffID:       draft.StaffID,
			CreatedAt:     now,
		}

		// Zero-quantity line: recorded but not dispensed. No deduction,
		// no audit transaction.
		if line.Quantity == 0 {
			return s.CreateConsumptionRecord(ctx, record)
		}

		if item.Available < line.Quantity {
			return &InsufficientStockError{
				ItemID:    line.ItemID,
				Available: item.Available,
				Requested: line.Quantity,
			}
		}

		if err := s.DeductStock(ctx, line.ItemID, line.Quantity, now); err != nil {
			return err
		}

		if item.BatchID != "" {
			if err := s.TouchBatch(ctx, item.BatchID, now); err != nil {
				return err
			}
		}

		err = s.AppendStockTransaction(ctx, StockTransaction{
			ID:             o.newID(),
			ItemID:         line.ItemID,
			Action:         flow.ActionLabel,
			QuantityLabel:  item.QuantityLabel(line.Quantity),
			StaffID:        draft.StaffID,
			IdempotencyKey: fmt.Sprintf("%s-deduct-%d", subID, index),
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}

		return s.CreateConsumptionRecord(ctx, record)
	})
	if err != nil {
		return ConsumptionRecord{}, err
	}
	return record, nil
}

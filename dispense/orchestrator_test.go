package dispense_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civica/barangay-engine/dispense"
	"github.com/civica/barangay-engine/dispense/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newOrchestrator(mem *store.TxMemory) *dispense.Orchestrator {
	seq := 0
	return &dispense.Orchestrator{
		Store: mem,
		Now:   fixedClock(time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)),
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	}
}

func seedStock(mem *store.TxMemory) {
	mem.PutItem(dispense.CatalogItem{
		ID: "med-1", Kind: testKind, Name: "Paracetamol", Unit: "pcs",
		Available: 10, BatchID: "batch-1",
	})
	mem.PutItem(dispense.CatalogItem{
		ID: "med-2", Kind: testKind, Name: "Amoxicillin", Unit: "pcs",
		Available: 3,
	})
	mem.PutItem(dispense.CatalogItem{
		ID: "fa-1", Kind: testKind, Name: "Gauze", Unit: "pcs",
		Available: 50,
	})
}

func dispenseFlow() dispense.FlowConfig {
	return dispense.FlowConfig{
		Name:                 "dispense",
		Kind:                 testKind,
		AllowZeroQuantity:    true,
		RequiresParentRecord: true,
		ActionLabel:          "Dispensed",
	}
}

// =============================================================================
// HAPPY PATH
// =============================================================================

func TestSubmit_AllLinesSucceed(t *testing.T) {
	// GIVEN: A two-line draft with ample stock
	// WHEN: Submitting
	// THEN: Both lines succeed in draft order; stock is deducted; each line
	//       gets an audit entry keyed by submission id and line index

	mem := store.NewTxMemory()
	seedStock(mem)
	orch := newOrchestrator(mem)

	draft := dispense.Draft{
		SubmissionID: "sub-1",
		SubjectID:    "res-1",
		StaffID:      "staff-1",
		Lines: []dispense.DraftLine{
			{ItemID: "med-1", Quantity: 2, Reason: "fever"},
			{ItemID: "fa-1", Quantity: 5},
		},
	}

	results, err := orch.Submit(context.Background(), dispenseFlow(), draft)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, res := range results {
		assert.True(t, res.Success)
		require.NotNil(t, res.Record)
	}
	assert.Equal(t, "2 pcs", results[0].Record.QuantityLabel)
	assert.Equal(t, "5 pcs", results[1].Record.QuantityLabel)

	item, _ := mem.Item("med-1")
	assert.Equal(t, 8, item.Available)
	item, _ = mem.Item("fa-1")
	assert.Equal(t, 45, item.Available)

	txs := mem.StockTransactions()
	require.Len(t, txs, 2)
	assert.Equal(t, "sub-1-deduct-0", txs[0].IdempotencyKey)
	assert.Equal(t, "sub-1-deduct-1", txs[1].IdempotencyKey)
	assert.Equal(t, "Dispensed", txs[0].Action)
}

func TestSubmit_BlankReason_RecordedAsPlaceholder(t *testing.T) {
	mem := store.NewTxMemory()
	seedStock(mem)
	orch := newOrchestrator(mem)

	draft := dispense.Draft{
		SubmissionID: "sub-1",
		SubjectID:    "res-1",
		Lines:        []dispense.DraftLine{{ItemID: "med-1", Quantity: 1}},
	}

	_, err := orch.Submit(context.Background(), dispenseFlow(), draft)
	require.NoError(t, err)

	records := mem.ConsumptionRecords()
	require.Len(t, records, 1)
	assert.Equal(t, dispense.ReasonPlaceholder, records[0].Reason)
}

func TestSubmit_ParentRecordCreatedOncePerSubmission(t *testing.T) {
	// GIVEN: A flow requiring a parent record and a three-line draft
	// WHEN: Submitting
	// THEN: Exactly one parent record exists and every consumption record
	//       points at it

	mem := store.NewTxMemory()
	seedStock(mem)
	orch := newOrchestrator(mem)

	draft := dispense.Draft{
		SubmissionID: "sub-1",
		SubjectID:    "res-1",
		Lines: []dispense.DraftLine{
			{ItemID: "med-1", Quantity: 1},
			{ItemID: "med-2", Quantity: 1},
			{ItemID: "fa-1", Quantity: 1},
		},
	}

	_, err := orch.Submit(context.Background(), dispenseFlow(), draft)
	require.NoError(t, err)

	parents := mem.ParentRecords()
	require.Len(t, parents, 1)
	assert.Equal(t, dispense.SubmissionID("sub-1"), parents[0].SubmissionID)

	for _, rec := range mem.ConsumptionRecords() {
		assert.Equal(t, parents[0].ID, rec.ParentID)
	}
}

func TestSubmit_BatchedItem_TouchesBatch(t *testing.T) {
	mem := store.NewTxMemory()
	seedStock(mem)
	orch := newOrchestrator(mem)

	draft := dispense.Draft{
		SubmissionID: "sub-1",
		SubjectID:    "res-1",
		Lines:        []dispense.DraftLine{{ItemID: "med-1", Quantity: 1}},
	}

	_, err := orch.Submit(context.Background(), dispenseFlow(), draft)
	require.NoError(t, err)

	touched, ok := mem.BatchTouchedAt("batch-1")
	require.True(t, ok)
	assert.False(t, touched.IsZero(), "batch timestamp should be stamped")
}

// =============================================================================
// ZERO-QUANTITY LINES
// =============================================================================

func TestSubmit_ZeroQuantityLine_RecordedNotDispensed(t *testing.T) {
	// GIVEN: A zero-quantity line under a flow that allows them
	// WHEN: Submitting
	// THEN: A "0 pcs" consumption record exists, stock is untouched, and
	//       no audit transaction is written for that line

	mem := store.NewTxMemory()
	seedStock(mem)
	orch := newOrchestrator(mem)

	draft := dispense.Draft{
		SubmissionID: "sub-1",
		SubjectID:    "res-1",
		Lines:        []dispense.DraftLine{{ItemID: "fa-1", Quantity: 0, Reason: "assessed"}},
	}

	results, err := orch.Submit(context.Background(), dispenseFlow(), draft)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "0 pcs", results[0].Record.QuantityLabel)

	item, _ := mem.Item("fa-1")
	assert.Equal(t, 50, item.Available, "stock must be untouched")
	assert.Empty(t, mem.StockTransactions(), "no audit entry for a zero line")
	assert.Len(t, mem.ConsumptionRecords(), 1)
}

// =============================================================================
// FAILURE POLICY
// =============================================================================

func TestSubmit_StructurallyMalformedLine_RecordedAndSkipped(t *testing.T) {
	// GIVEN: A draft whose middle line is missing its item id
	// WHEN: Submitting
	// THEN: The bad line gets a failure result; every other line still runs

	mem := store.NewTxMemory()
	seedStock(mem)
	orch := newOrchestrator(mem)

	draft := dispense.Draft{
		SubmissionID: "sub-1",
		SubjectID:    "res-1",
		Lines: []dispense.DraftLine{
			{ItemID: "med-1", Quantity: 1},
			{ItemID: "", Quantity: 1},
			{ItemID: "fa-1", Quantity: 2},
		},
	}

	results, err := orch.Submit(context.Background(), dispenseFlow(), draft)
	require.NoError(t, err, "a malformed line must not sink the batch")
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Error)
	assert.True(t, results[2].Success)

	item, _ := mem.Item("fa-1")
	assert.Equal(t, 48, item.Available, "lines after the bad one still processed")
}

func TestSubmit_InsufficientStock_AbortsWithPartialResults(t *testing.T) {
	// GIVEN: Line 1 fits available stock, line 2 exceeds it, line 3 would fit
	// WHEN: Submitting
	// THEN: Line 1 commits; line 2 records a failure and aborts the batch;
	//       line 3 is never attempted

	mem := store.NewTxMemory()
	seedStock(mem)
	orch := newOrchestrator(mem)

	draft := dispense.Draft{
		SubmissionID: "sub-1",
		SubjectID:    "res-1",
		Lines: []dispense.DraftLine{
			{ItemID: "med-1", Quantity: 2},
			{ItemID: "med-2", Quantity: 99},
			{ItemID: "fa-1", Quantity: 1},
		},
	}

	results, err := orch.Submit(context.Background(), dispenseFlow(), draft)
	require.Error(t, err)
	assert.ErrorIs(t, err, dispense.ErrInsufficientStock)

	var insuff *dispense.InsufficientStockError
	require.ErrorAs(t, err, &insuff)
	assert.Equal(t, dispense.ItemID("med-2"), insuff.ItemID)
	assert.Equal(t, 3, insuff.Available)
	assert.Equal(t, 99, insuff.Requested)

	// Exactly two results: the committed line and the failed one.
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)

	item, _ := mem.Item("med-1")
	assert.Equal(t, 8, item.Available, "line 1's deduction stands")
	item, _ = mem.Item("med-2")
	assert.Equal(t, 3, item.Available, "failed line deducted nothing")
	item, _ = mem.Item("fa-1")
	assert.Equal(t, 50, item.Available, "line 3 never attempted")
}

func TestSubmit_FailureMidLine_RollsBackThatLine(t *testing.T) {
	// GIVEN: An audit idempotency key pre-claimed for line 0, so the line's
	//        write sequence fails AFTER the deduction step
	// WHEN: Submitting
	// THEN: The whole line rolls back: stock restored, no consumption
	//       record, batch aborted

	mem := store.NewTxMemory()
	seedStock(mem)
	orch := newOrchestrator(mem)

	require.NoError(t, mem.AppendStockTransaction(context.Background(), dispense.StockTransaction{
		ID:             "pre-claimed",
		ItemID:         "med-1",
		Action:         "Dispensed",
		QuantityLabel:  "1 pcs",
		IdempotencyKey: "sub-1-deduct-0",
		CreatedAt:      time.Now(),
	}))

	draft := dispense.Draft{
		SubmissionID: "sub-1",
		SubjectID:    "res-1",
		Lines:        []dispense.DraftLine{{ItemID: "med-1", Quantity: 2}},
	}

	results, err := orch.Submit(context.Background(), dispenseFlow(), draft)
	require.Error(t, err)
	assert.ErrorIs(t, err, dispense.ErrDuplicateIdempotencyKey)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)

	item, _ := mem.Item("med-1")
	assert.Equal(t, 10, item.Available, "deduction must roll back with the line")
	assert.Empty(t, mem.ConsumptionRecords())
}

// =============================================================================
// IDEMPOTENT SUBMISSION
// =============================================================================

func TestSubmit_ReplayedSubmissionID_RejectedWithoutWrites(t *testing.T) {
	// GIVEN: A completed submission
	// WHEN: Replaying the same submission id (e.g. a client retry)
	// THEN: ErrDuplicateSubmission, and stock shows exactly one application

	mem := store.NewTxMemory()
	seedStock(mem)
	orch := newOrchestrator(mem)

	draft := dispense.Draft{
		SubmissionID: "sub-1",
		SubjectID:    "res-1",
		Lines:        []dispense.DraftLine{{ItemID: "med-1", Quantity: 2}},
	}

	_, err := orch.Submit(context.Background(), dispenseFlow(), draft)
	require.NoError(t, err)

	results, err := orch.Submit(context.Background(), dispenseFlow(), draft)
	assert.ErrorIs(t, err, dispense.ErrDuplicateSubmission)
	assert.Empty(t, results)

	item, _ := mem.Item("med-1")
	assert.Equal(t, 8, item.Available, "the deduction applied exactly once")
	assert.Len(t, mem.StockTransactions(), 1)
}

func TestSubmit_EmptySubmissionID_Generated(t *testing.T) {
	mem := store.NewTxMemory()
	seedStock(mem)
	orch := newOrchestrator(mem)

	draft := dispense.Draft{
		SubjectID: "res-1",
		Lines:     []dispense.DraftLine{{ItemID: "med-1", Quantity: 1}},
	}

	_, err := orch.Submit(context.Background(), dispenseFlow(), draft)
	require.NoError(t, err)

	txs := mem.StockTransactions()
	require.Len(t, txs, 1)
	assert.NotEmpty(t, txs[0].IdempotencyKey)
}

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civica/barangay-engine/dispense"
	"github.com/civica/barangay-engine/dispense/store"
)

func seedItem(mem *store.TxMemory) {
	mem.PutItem(dispense.CatalogItem{
		ID: "med-1", Name: "Paracetamol", Unit: "pcs", Available: 10, BatchID: "b-1",
	})
}

func TestWithTx_ErrorRollsBackAllWrites(t *testing.T) {
	// GIVEN: A transaction that deducts stock and appends an audit entry
	// WHEN: The callback returns an error afterwards
	// THEN: Every write inside the transaction is undone

	mem := store.NewTxMemory()
	seedItem(mem)
	ctx := context.Background()

	boom := errors.New("downstream failure")
	err := mem.WithTx(ctx, func(s dispense.Store) error {
		if err := s.DeductStock(ctx, "med-1", 4, time.Now()); err != nil {
			return err
		}
		if err := s.AppendStockTransaction(ctx, dispense.StockTransaction{
			ID: "tx-1", ItemID: "med-1", Action: "Dispensed",
			QuantityLabel: "4 pcs", IdempotencyKey: "k-1", CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)

	item, _ := mem.Item("med-1")
	assert.Equal(t, 10, item.Available)
	assert.Empty(t, mem.StockTransactions())

	has, _ := mem.HasIdempotencyKey(ctx, "k-1")
	assert.False(t, has, "idempotency key must be released by rollback")
}

func TestWithTx_SuccessCommits(t *testing.T) {
	mem := store.NewTxMemory()
	seedItem(mem)
	ctx := context.Background()

	err := mem.WithTx(ctx, func(s dispense.Store) error {
		return s.DeductStock(ctx, "med-1", 3, time.Now())
	})
	require.NoError(t, err)

	item, _ := mem.Item("med-1")
	assert.Equal(t, 7, item.Available)
}

func TestDeductStock_GuardsAgainstNegative(t *testing.T) {
	mem := store.NewTxMemory()
	seedItem(mem)
	ctx := context.Background()

	err := mem.DeductStock(ctx, "med-1", 11, time.Now())
	assert.ErrorIs(t, err, dispense.ErrInsufficientStock)

	item, _ := mem.Item("med-1")
	assert.Equal(t, 10, item.Available)
}

func TestAppendStockTransaction_DuplicateKeyRejected(t *testing.T) {
	mem := store.NewTxMemory()
	ctx := context.Background()

	tx := dispense.StockTransaction{ID: "tx-1", ItemID: "med-1", IdempotencyKey: "k-1"}
	require.NoError(t, mem.AppendStockTransaction(ctx, tx))

	tx.ID = "tx-2"
	err := mem.AppendStockTransaction(ctx, tx)
	assert.ErrorIs(t, err, dispense.ErrDuplicateIdempotencyKey)
	assert.Len(t, mem.StockTransactions(), 1)
}

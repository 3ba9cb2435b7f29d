// Package store provides dispense.Store implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/civica/barangay-engine/dispense"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	items       map[dispense.ItemID]dispense.CatalogItem
	batches     map[string]time.Time
	submissions map[dispense.SubmissionID]dispense.Submission
	parents     []dispense.ParentRecord
	stockTxs    []dispense.StockTransaction
	records     []dispense.ConsumptionRecord
	idempotency map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		items:       make(map[dispense.ItemID]dispense.CatalogItem),
		batches:     make(map[string]time.Time),
		submissions: make(map[dispense.SubmissionID]dispense.Submission),
		idempotency: make(map[string]bool),
	}
}

// PutItem seeds or replaces an inventory row.
func (m *Memory) PutItem(item dispense.CatalogItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	if item.BatchID != "" {
		if _, ok := m.batches[item.BatchID]; !ok {
			m.batches[item.BatchID] = time.Time{}
		}
	}
}

// Item returns the current row for an item (test inspection helper).
func (m *Memory) Item(id dispense.ItemID) (dispense.CatalogItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[id]
	return it, ok
}

// BatchTouchedAt returns a batch's last-modified timestamp.
func (m *Memory) BatchTouchedAt(batchID string) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.batches[batchID]
	return t, ok
}

// StockTransactions returns all audit entries in append order.
func (m *Memory) StockTransactions() []dispense.StockTransaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]dispense.StockTransaction, len(m.stockTxs))
	copy(out, m.stockTxs)
	return out
}

// ConsumptionRecords returns all history rows in creation order.
func (m *Memory) ConsumptionRecords() []dispense.ConsumptionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]dispense.ConsumptionRecord, len(m.records))
	copy(out, m.records)
	return out
}

// ParentRecords returns all parent records in creation order.
func (m *Memory) ParentRecords() []dispense.ParentRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]dispense.ParentRecord, len(m.parents))
	copy(out, m.parents)
	return out
}

// =============================================================================
// INVENTORY STORE
// =============================================================================

func (m *Memory) GetItem(_ context.Context, id dispense.ItemID) (dispense.CatalogItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getItemLocked(id)
}

func (m *Memory) getItemLocked(id dispense.ItemID) (dispense.CatalogItem, error) {
	item, ok := m.items[id]
	if !ok {
		return dispense.CatalogItem{}, dispense.ErrItemNotFound
	}
	return item, nil
}

func (m *Memory) DeductStock(_ context.Context, id dispense.ItemID, quantity int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deductLocked(id, quantity)
}

func (m *Memory) deductLocked(id dispense.ItemID, quantity int) error {
	item, ok := m.items[id]
	if !ok {
		return dispense.ErrItemNotFound
	}
	if item.Available < quantity {
		return &dispense.InsufficientStockError{
			ItemID:    id,
			Available: item.Available,
			Requested: quantity,
		}
	}
	item.Available -= quantity
	m.items[id] = item
	return nil
}

func (m *Memory) TouchBatch(_ context.Context, batchID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.touchBatchLocked(batchID, at)
}

func (m *Memory) touchBatchLocked(batchID string, at time.Time) error {
	if _, ok := m.batches[batchID]; !ok {
		return dispense.ErrBatchNotFound
	}
	m.batches[batchID] = at
	return nil
}

// =============================================================================
// RECORD STORE
// =============================================================================

func (m *Memory) BeginSubmission(_ context.Context, sub dispense.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.submissions[sub.ID]; ok {
		return dispense.ErrDuplicateSubmission
	}
	m.submissions[sub.ID] = sub
	return nil
}

func (m *Memory) CreateParentRecord(_ context.Context, rec dispense.ParentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parents = append(m.parents, rec)
	return nil
}

func (m *Memory) AppendStockTransaction(_ context.Context, tx dispense.StockTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendStockTxLocked(tx)
}

func (m *Memory) appendStockTxLocked(tx dispense.StockTransaction) error {
	if tx.IdempotencyKey != "" && m.idempotency[tx.IdempotencyKey] {
		return dispense.ErrDuplicateIdempotencyKey
	}
	m.stockTxs = append(m.stockTxs, tx)
	if tx.IdempotencyKey != "" {
		m.idempotency[tx.IdempotencyKey] = true
	}
	return nil
}

func (m *Memory) CreateConsumptionRecord(_ context.Context, rec dispense.ConsumptionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *Memory) HasIdempotencyKey(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idempotency[key], nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For the memory store this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(dispense.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	view := &txMemoryView{parent: tm}
	if err := fn(view); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	items       map[dispense.ItemID]dispense.CatalogItem
	batches     map[string]time.Time
	submissions map[dispense.SubmissionID]dispense.Submission
	parents     []dispense.ParentRecord
	stockTxs    []dispense.StockTransaction
	records     []dispense.ConsumptionRecord
	idempotency map[string]bool
}

func (tm *TxMemory) snapshot() memorySnapshot {
	s := memorySnapshot{
		items:       make(map[dispense.ItemID]dispense.CatalogItem, len(tm.items)),
		batches:     make(map[string]time.Time, len(tm.batches)),
		submissions: make(map[dispense.SubmissionID]dispense.Submission, len(tm.submissions)),
		idempotency: make(map[string]bool, len(tm.idempotency)),
	}
	for k, v := range tm.items {
		s.items[k] = v
	}
	for k, v := range tm.batches {
		s.batches[k] = v
	}
	for k, v := range tm.submissions {
		s.submissions[k] = v
	}
	for k, v := range tm.idempotency {
		s.idempotency[k] = v
	}
	s.parents = append([]dispense.ParentRecord{}, tm.parents...)
	s.stockTxs = append([]dispense.StockTransaction{}, tm.stockTxs...)
	s.records = append([]dispense.ConsumptionRecord{}, tm.records...)
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.items = s.items
	tm.batches = s.batches
	tm.submissions = s.submissions
	tm.parents = s.parents
	tm.stockTxs = s.stockTxs
	tm.records = s.records
	tm.idempotency = s.idempotency
}

// txMemoryView performs writes directly against the locked parent.
type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) GetItem(_ context.Context, id dispense.ItemID) (dispense.CatalogItem, error) {
	return tv.parent.getItemLocked(id)
}

func (tv *txMemoryView) DeductStock(_ context.Context, id dispense.ItemID, quantity int, _ time.Time) error {
	return tv.parent.deductLocked(id, quantity)
}

func (tv *txMemoryView) TouchBatch(_ context.Context, batchID string, at time.Time) error {
	return tv.parent.touchBatchLocked(batchID, at)
}

func (tv *txMemoryView) BeginSubmission(_ context.Context, sub dispense.Submission) error {
	if _, ok := tv.parent.submissions[sub.ID]; ok {
		return dispense.ErrDuplicateSubmission
	}
	tv.parent.submissions[sub.ID] = sub
	return nil
}

func (tv *txMemoryView) CreateParentRecord(_ context.Context, rec dispense.ParentRecord) error {
	tv.parent.parents = append(tv.parent.parents, rec)
	return nil
}

func (tv *txMemoryView) AppendStockTransaction(_ context.Context, tx dispense.StockTransaction) error {
	return tv.parent.appendStockTxLocked(tx)
}

func (tv *txMemoryView) CreateConsumptionRecord(_ context.Context, rec dispense.ConsumptionRecord) error {
	tv.parent.records = append(tv.parent.records, rec)
	return nil
}

func (tv *txMemoryView) HasIdempotencyKey(_ context.Context, key string) (bool, error) {
	return tv.parent.idempotency[key], nil
}

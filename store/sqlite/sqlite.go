/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface the engine needs - inventory,
  submissions, audit log, tracked entities, receipts, rates - on one
  database handle. In production the same patterns apply to PostgreSQL;
  only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  dispense.TxStore:       Inventory + submission/audit/consumption writes
  dispense.StockSource:   Raw stock rows for catalog loading
  lifecycle.EntityPatcher: Guarded status writes for tracked entities
  treasurer.ReceiptStore: Receipts and the payment-driven transition
  treasurer.RateSource:   Service-charge rates

APPEND-ONLY AUDIT:
  stock_transactions has no UPDATE or DELETE path. Idempotency keys are
  UNIQUE; a replayed key surfaces as ErrDuplicateIdempotencyKey.

GUARDED DEDUCTION:
  Stock deduction happens as a single conditional UPDATE
  (quantity = quantity - ? WHERE quantity >= ?), so even a race that
  slipped past the orchestrator's check cannot drive stock negative.

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers
  don't block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/barangay.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - dispense/store.go: Interface definitions
  - dispense/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/civica/barangay-engine/dispense"
	"github.com/civica/barangay-engine/lifecycle"
	"github.com/civica/barangay-engine/treasurer"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Inventory (authoritative stock)
	CREATE TABLE IF NOT EXISTS inventory_items (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		unit TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		restricted BOOLEAN NOT NULL DEFAULT FALSE,
		expiry TEXT,
		batch_id TEXT,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_kind ON inventory_items(kind);
	CREATE INDEX IF NOT EXISTS idx_items_batch ON inventory_items(batch_id)
		WHERE batch_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS inventory_batches (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);

	-- Submissions (deduplication point for composite submits)
	CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		staff_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Parent records (one per submission for flows that require them)
	CREATE TABLE IF NOT EXISTS parent_records (
		id TEXT PRIMARY KEY,
		submission_id TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_parents_submission
		ON parent_records(submission_id);

	-- Stock movement audit (append-only)
	CREATE TABLE IF NOT EXISTS stock_transactions (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL,
		action TEXT NOT NULL,
		quantity_label TEXT NOT NULL,
		staff_id TEXT NOT NULL DEFAULT '',
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stock_tx_item ON stock_transactions(item_id);

	-- Consumption history
	CREATE TABLE IF NOT EXISTS consumption_records (
		id TEXT PRIMARY KEY,
		submission_id TEXT NOT NULL,
		parent_id TEXT NOT NULL DEFAULT '',
		subject_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		item_name TEXT NOT NULL,
		quantity_label TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		signature TEXT NOT NULL DEFAULT '',
		staff_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_consumption_subject
		ON consumption_records(subject_id);
	CREATE INDEX IF NOT EXISTS idx_consumption_submission
		ON consumption_records(submission_id);

	-- Tracked entities
	CREATE TABLE IF NOT EXISTS complaints (
		id TEXT PRIMARY KEY,
		complainant TEXT NOT NULL,
		accused TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'Pending',
		rejection_reason TEXT NOT NULL DEFAULT '',
		staff_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_complaints_status ON complaints(status);

	CREATE TABLE IF NOT EXISTS clearances (
		id TEXT PRIMARY KEY,
		resident TEXT NOT NULL,
		purpose TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'Pending',
		rejection_reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_clearances_status ON clearances(status);

	CREATE TABLE IF NOT EXISTS summons (
		id TEXT PRIMARY KEY,
		case_number TEXT NOT NULL,
		complainant TEXT NOT NULL,
		respondent TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Filed',
		reason TEXT NOT NULL DEFAULT '',
		hearing_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Receipts (sequential per series year)
	CREATE TABLE IF NOT EXISTS receipts (
		id TEXT PRIMARY KEY,
		number INTEGER NOT NULL,
		year INTEGER NOT NULL,
		clearance_id TEXT NOT NULL,
		payer TEXT NOT NULL,
		fee_kind TEXT NOT NULL,
		base_amount TEXT NOT NULL,
		charge_rate TEXT NOT NULL,
		charge TEXT NOT NULL,
		total TEXT NOT NULL,
		issued_by TEXT NOT NULL DEFAULT '',
		issued_at TEXT NOT NULL,
		UNIQUE(year, number)
	);

	CREATE TABLE IF NOT EXISTS service_charge_rates (
		fee_kind TEXT PRIMARY KEY,
		rate TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// =============================================================================
// STOCK SOURCE (dispense.StockSource interface)
// =============================================================================

// FetchStock returns raw inventory rows for a kind. Normalization and the
// eligibility filter happen in the catalog loader, not here.
func (s *Store) FetchStock(ctx context.Context, kind dispense.ItemKind) ([]dispense.RawStockRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, unit, category, quantity, restricted, expiry, batch_id
		FROM inventory_items
		WHERE kind = ?
		ORDER BY name ASC
	`, kind.KindID())
	if err != nil {
		return nil, fmt.Errorf("failed to query stock: %w", err)
	}
	defer rows.Close()

	var out []dispense.RawStockRow
	for rows.Next() {
		var (
			raw        dispense.RawStockRow
			quantity   int64
			restricted bool
			expiry     sql.NullString
			batchID    sql.NullString
		)
		if err := rows.Scan(&raw.ID, &raw.Name, &raw.Unit, &raw.Category,
			&quantity, &restricted, &expiry, &batchID); err != nil {
			return nil, fmt.Errorf("failed to scan stock row: %w", err)
		}
		raw.Quantity = json.Number(fmt.Sprintf("%d", quantity))
		raw.Restricted = restricted
		raw.Expiry = expiry.String
		raw.BatchID = batchID.String
		out = append(out, raw)
	}
	return out, rows.Err()
}

// =============================================================================
// INVENTORY STORE (dispense.InventoryStore interface)
// =============================================================================

// GetItem returns the authoritative inventory row for an item.
func (s *Store) GetItem(ctx context.Context, id dispense.ItemID) (dispense.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getItem(ctx, s.db, id)
}

func getItem(ctx context.Context, db dbtx, id dispense.ItemID) (dispense.CatalogItem, error) {
	var (
		item       dispense.CatalogItem
		kindID     string
		quantity   int64
		restricted bool
		expiry     sql.NullString
		batchID    sql.NullString
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, kind, name, unit, category, quantity, restricted, expiry, batch_id
		FROM inventory_items WHERE id = ?
	`, id).Scan(&item.ID, &kindID, &item.Name, &item.Unit, &item.Category,
		&quantity, &restricted, &expiry, &batchID)
	if err == sql.ErrNoRows {
		return dispense.CatalogItem{}, dispense.ErrItemNotFound
	}
	if err != nil {
		return dispense.CatalogItem{}, fmt.Errorf("failed to get item %s: %w", id, err)
	}

	item.Kind = dispense.GetOrCreateKind(kindID)
	item.Available = int(quantity)
	item.Restricted = restricted
	item.BatchID = batchID.String
	if expiry.Valid && expiry.String != "" {
		if t, err := time.Parse("2006-01-02", expiry.String); err == nil {
			item.Expiry = &t
		}
	}
	return item, nil
}

// DeductStock subtracts quantity as a single conditional update so a
// concurrent dispensation cannot drive stock negative.
func (s *Store) DeductStock(ctx context.Context, id dispense.ItemID, quantity int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deductStock(ctx, s.db, id, quantity, at)
}

func deductStock(ctx context.Context, db dbtx, id dispense.ItemID, quantity int, at time.Time) error {
	res, err := db.ExecContext(ctx, `
		UPDATE inventory_items
		SET quantity = quantity - ?, updated_at = ?
		WHERE id = ? AND quantity >= ?
	`, quantity, at.UTC().Format(time.RFC3339), id, quantity)
	if err != nil {
		return fmt.Errorf("failed to deduct stock for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		item, err := getItem(ctx, db, id)
		if err != nil {
			return err
		}
		return &dispense.InsufficientStockError{
			ItemID:    id,
			Available: item.Available,
			Requested: quantity,
		}
	}
	return nil
}

// TouchBatch stamps an inventory batch's coarse modified time.
func (s *Store) TouchBatch(ctx context.Context, batchID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return touchBatch(ctx, s.db, batchID, at)
}

func touchBatch(ctx context.Context, db dbtx, batchID string, at time.Time) error {
	res, err := db.ExecContext(ctx,
		`UPDATE inventory_batches SET updated_at = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339), batchID)
	if err != nil {
		return fmt.Errorf("failed to touch batch %s: %w", batchID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return dispense.ErrBatchNotFound
	}
	return nil
}

// =============================================================================
// RECORD STORE (dispense.RecordStore interface)
// =============================================================================

func (s *Store) BeginSubmission(ctx context.Context, sub dispense.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return beginSubmission(ctx, s.db, sub)
}

func beginSubmission(ctx context.Context, db dbtx, sub dispense.Submission) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO submissions (id, kind, subject_id, staff_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, sub.ID, sub.KindID, sub.SubjectID, sub.StaffID,
		sub.CreatedAt.UTC().Format(time.RFC3339))
	if isUniqueConstraintError(err) {
		return dispense.ErrDuplicateSubmission
	}
	if err != nil {
		return fmt.Errorf("failed to register submission: %w", err)
	}
	return nil
}

func (s *Store) CreateParentRecord(ctx context.Context, rec dispense.ParentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createParentRecord(ctx, s.db, rec)
}

func createParentRecord(ctx context.Context, db dbtx, rec dispense.ParentRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO parent_records (id, submission_id, subject_id, kind, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.SubmissionID, rec.SubjectID, rec.KindID,
		rec.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create parent record: %w", err)
	}
	return nil
}

func (s *Store) AppendStockTransaction(ctx context.Context, tx dispense.StockTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendStockTransaction(ctx, s.db, tx)
}

func appendStockTransaction(ctx context.Context, db dbtx, tx dispense.StockTransaction) error {
	var key any
	if tx.IdempotencyKey != "" {
		key = tx.IdempotencyKey
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO stock_transactions
		(id, item_id, action, quantity_label, staff_id, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, tx.ID, tx.ItemID, tx.Action, tx.QuantityLabel, tx.StaffID, key,
		tx.CreatedAt.UTC().Format(time.RFC3339))
	if isUniqueConstraintError(err) {
		return dispense.ErrDuplicateIdempotencyKey
	}
	if err != nil {
		return fmt.Errorf("failed to append stock transaction: %w", err)
	}
	return nil
}

func (s *Store) CreateConsumptionRecord(ctx context.Context, rec dispense.ConsumptionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createConsumptionRecord(ctx, s.db, rec)
}

func createConsumptionRecord(ctx context.Context, db dbtx, rec dispense.ConsumptionRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO consumption_records
		(id, submission_id, parent_id, subject_id, item_id, item_name,
		 quantity_label, reason, signature, staff_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.SubmissionID, rec.ParentID, rec.SubjectID, rec.ItemID,
		rec.ItemName, rec.QuantityLabel, rec.Reason, rec.Signature, rec.StaffID,
		rec.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create consumption record: %w", err)
	}
	return nil
}

func (s *Store) HasIdempotencyKey(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM stock_transactions WHERE idempotency_key = ?",
		key,
	).Scan(&count)
	return count > 0, err
}

// ConsumptionBySubject returns a subject's history rows, newest first.
func (s *Store) ConsumptionBySubject(ctx context.Context, subjectID dispense.SubjectID) ([]dispense.ConsumptionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, submission_id, parent_id, subject_id, item_id, item_name,
		       quantity_label, reason, signature, staff_id, created_at
		FROM consumption_records
		WHERE subject_id = ?
		ORDER BY created_at DESC
	`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query consumption records: %w", err)
	}
	defer rows.Close()

	var out []dispense.ConsumptionRecord
	for rows.Next() {
		var (
			rec       dispense.ConsumptionRecord
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.SubmissionID, &rec.ParentID,
			&rec.SubjectID, &rec.ItemID, &rec.ItemName, &rec.QuantityLabel,
			&rec.Reason, &rec.Signature, &rec.StaffID, &createdAt); err != nil {
			return nil, err
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (dispense.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(dispense.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetItem(ctx context.Context, id dispense.ItemID) (dispense.CatalogItem, error) {
	return getItem(ctx, ts.tx, id)
}

func (ts *txStore) DeductStock(ctx context.Context, id dispense.ItemID, quantity int, at time.Time) error {
	return deductStock(ctx, ts.tx, id, quantity, at)
}

func (ts *txStore) TouchBatch(ctx context.Context, batchID string, at time.Time) error {
	return touchBatch(ctx, ts.tx, batchID, at)
}

func (ts *txStore) BeginSubmission(ctx context.Context, sub dispense.Submission) error {
	return beginSubmission(ctx, ts.tx, sub)
}

func (ts *txStore) CreateParentRecord(ctx context.Context, rec dispense.ParentRecord) error {
	return createParentRecord(ctx, ts.tx, rec)
}

func (ts *txStore) AppendStockTransaction(ctx context.Context, tx dispense.StockTransaction) error {
	return appendStockTransaction(ctx, ts.tx, tx)
}

func (ts *txStore) CreateConsumptionRecord(ctx context.Context, rec dispense.ConsumptionRecord) error {
	return createConsumptionRecord(ctx, ts.tx, rec)
}

func (ts *txStore) HasIdempotencyKey(ctx context.Context, key string) (bool, error) {
	var count int
	err := ts.tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM stock_transactions WHERE idempotency_key = ?",
		key,
	).Scan(&count)
	return count > 0, err
}

// =============================================================================
// INVENTORY ADMIN
// =============================================================================

// ItemRecord is one inventory row for seeding and admin listings.
type ItemRecord struct {
	ID         string
	Kind       string
	Name       string
	Unit       string
	Category   string
	Quantity   int
	Restricted bool
	Expiry     string // "YYYY-MM-DD" or ""
	BatchID    string
}

// SaveItem inserts or replaces an inventory row.
func (s *Store) SaveItem(ctx context.Context, item ItemRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiry, batchID any
	if item.Expiry != "" {
		expiry = item.Expiry
	}
	if item.BatchID != "" {
		batchID = item.BatchID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO inventory_items
		(id, kind, name, unit, category, quantity, restricted, expiry, batch_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.Kind, item.Name, item.Unit, item.Category, item.Quantity,
		item.Restricted, expiry, batchID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

// SaveBatch inserts or replaces an inventory batch.
func (s *Store) SaveBatch(ctx context.Context, id, kind, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO inventory_batches (id, kind, label, updated_at)
		VALUES (?, ?, ?, ?)
	`, id, kind, label, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}
	return nil
}

// CountExpired returns how many rows of a kind are past expiry with stock
// remaining. Used by the expiry sweeper.
func (s *Store) CountExpired(ctx context.Context, kindID string, asOf time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM inventory_items
		WHERE kind = ? AND quantity > 0 AND expiry IS NOT NULL AND expiry < ?
	`, kindID, asOf.Format("2006-01-02")).Scan(&count)
	return count, err
}

// =============================================================================
// TRACKED ENTITIES (lifecycle.EntityPatcher and queries)
// =============================================================================

// Complaint is a blotter/complaint record.
type Complaint struct {
	ID              string
	Complainant     string
	Accused         string
	Description     string
	Status          lifecycle.Status
	RejectionReason string
	StaffID         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (c Complaint) TrackedID() string               { return c.ID }
func (c Complaint) TrackedKind() lifecycle.Kind     { return lifecycle.KindComplaint }
func (c Complaint) TrackedStatus() lifecycle.Status { return c.Status }

// Clearance is a treasurer clearance/permit request.
type Clearance struct {
	ID              string
	Resident        string
	Purpose         string
	Status          lifecycle.Status
	RejectionReason string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (c Clearance) TrackedID() string               { return c.ID }
func (c Clearance) TrackedKind() lifecycle.Kind     { return lifecycle.KindClearance }
func (c Clearance) TrackedStatus() lifecycle.Status { return c.Status }

// Summon is a mediation case record.
type Summon struct {
	ID          string
	CaseNumber  string
	Complainant string
	Respondent  string
	Status      lifecycle.Status
	Reason      string
	HearingAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s Summon) TrackedID() string               { return s.ID }
func (s Summon) TrackedKind() lifecycle.Kind     { return lifecycle.KindSummon }
func (s Summon) TrackedStatus() lifecycle.Status { return s.Status }

var entityTables = map[lifecycle.Kind]string{
	lifecycle.KindComplaint: "complaints",
	lifecycle.KindClearance: "clearances",
	lifecycle.KindSummon:    "summons",
}

// PatchStatus sets an entity's status and (for decline/reject variants)
// its rejection reason. Implements lifecycle.EntityPatcher.
func (s *Store) PatchStatus(ctx context.Context, kind lifecycle.Kind, id string, status lifecycle.Status, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := entityTables[kind]
	if !ok {
		return fmt.Errorf("%w: %s", lifecycle.ErrUnknownKind, kind)
	}

	reasonColumn := "rejection_reason"
	if kind == lifecycle.KindSummon {
		reasonColumn = "reason"
	}

	query := fmt.Sprintf(
		"UPDATE %s SET status = ?, %s = ?, updated_at = ? WHERE id = ?",
		table, reasonColumn)
	res, err := s.db.ExecContext(ctx, query,
		status, reason, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to patch %s status: %w", kind, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return lifecycle.ErrEntityNotFound
	}
	return nil
}

// SaveComplaint inserts or replaces a complaint.
func (s *Store) SaveComplaint(ctx context.Context, c Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	if c.Status == "" {
		c.Status = lifecycle.StatusPending
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO complaints
		(id, complainant, accused, description, status, rejection_reason, staff_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Complainant, c.Accused, c.Description, c.Status,
		c.RejectionReason, c.StaffID, now, now)
	if err != nil {
		return fmt.Errorf("failed to save complaint: %w", err)
	}
	return nil
}

// GetComplaint returns one complaint, or nil when absent.
func (s *Store) GetComplaint(ctx context.Context, id string) (*Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, complainant, accused, description, status, rejection_reason,
		       staff_id, created_at, updated_at
		FROM complaints WHERE id = ?
	`, id)
	c, err := scanComplaint(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListComplaints returns complaints, newest first.
func (s *Store) ListComplaints(ctx context.Context) ([]Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, complainant, accused, description, status, rejection_reason,
		       staff_id, created_at, updated_at
		FROM complaints ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	defer rows.Close()

	var out []Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(r rowScanner) (Complaint, error) {
	var (
		c                    Complaint
		createdAt, updatedAt string
	)
	err := r.Scan(&c.ID, &c.Complainant, &c.Accused, &c.Description, &c.Status,
		&c.RejectionReason, &c.StaffID, &createdAt, &updatedAt)
	if err != nil {
		return c, err
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return c, nil
}

// SaveClearance inserts or replaces a clearance request.
func (s *Store) SaveClearance(ctx context.Context, c Clearance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	if c.Status == "" {
		c.Status = lifecycle.StatusPending
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO clearances
		(id, resident, purpose, status, rejection_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Resident, c.Purpose, c.Status, c.RejectionReason, now, now)
	if err != nil {
		return fmt.Errorf("failed to save clearance: %w", err)
	}
	return nil
}

// GetClearance returns one clearance, or nil when absent.
func (s *Store) GetClearance(ctx context.Context, id string) (*Clearance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getClearance(ctx, s.db, id)
}

func getClearance(ctx context.Context, db dbtx, id string) (*Clearance, error) {
	var (
		c                    Clearance
		createdAt, updatedAt string
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, resident, purpose, status, rejection_reason, created_at, updated_at
		FROM clearances WHERE id = ?
	`, id).Scan(&c.ID, &c.Resident, &c.Purpose, &c.Status, &c.RejectionReason,
		&createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clearance %s: %w", id, err)
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &c, nil
}

// ListClearances returns clearance requests, newest first.
func (s *Store) ListClearances(ctx context.Context) ([]Clearance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, resident, purpose, status, rejection_reason, created_at, updated_at
		FROM clearances ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clearances: %w", err)
	}
	defer rows.Close()

	var out []Clearance
	for rows.Next() {
		var (
			c                    Clearance
			createdAt, updatedAt string
		)
		if err := rows.Scan(&c.ID, &c.Resident, &c.Purpose, &c.Status,
			&c.RejectionReason, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveSummon inserts or replaces a summon case.
func (s *Store) SaveSummon(ctx context.Context, sm Summon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	if sm.Status == "" {
		sm.Status = lifecycle.StatusFiled
	}
	var hearingAt any
	if sm.HearingAt != nil {
		hearingAt = sm.HearingAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO summons
		(id, case_number, complainant, respondent, status, reason, hearing_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sm.ID, sm.CaseNumber, sm.Complainant, sm.Respondent, sm.Status,
		sm.Reason, hearingAt, now, now)
	if err != nil {
		return fmt.Errorf("failed to save summon: %w", err)
	}
	return nil
}

// GetSummon returns one summon case, or nil when absent.
func (s *Store) GetSummon(ctx context.Context, id string) (*Summon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		sm                   Summon
		hearingAt            sql.NullString
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, case_number, complainant, respondent, status, reason,
		       hearing_at, created_at, updated_at
		FROM summons WHERE id = ?
	`, id).Scan(&sm.ID, &sm.CaseNumber, &sm.Complainant, &sm.Respondent,
		&sm.Status, &sm.Reason, &hearingAt, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summon %s: %w", id, err)
	}
	if hearingAt.Valid {
		if t, err := time.Parse(time.RFC3339, hearingAt.String); err == nil {
			sm.HearingAt = &t
		}
	}
	sm.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	sm.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &sm, nil
}

// ListSummons returns summon cases, newest first.
func (s *Store) ListSummons(ctx context.Context) ([]Summon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_number, complainant, respondent, status, reason,
		       hearing_at, created_at, updated_at
		FROM summons ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list summons: %w", err)
	}
	defer rows.Close()

	var out []Summon
	for rows.Next() {
		var (
			sm                   Summon
			hearingAt            sql.NullString
			createdAt, updatedAt string
		)
		if err := rows.Scan(&sm.ID, &sm.CaseNumber, &sm.Complainant,
			&sm.Respondent, &sm.Status, &sm.Reason, &hearingAt,
			&createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if hearingAt.Valid {
			if t, err := time.Parse(time.RFC3339, hearingAt.String); err == nil {
				sm.HearingAt = &t
			}
		}
		sm.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sm.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, sm)
	}
	return out, rows.Err()
}

// =============================================================================
// RECEIPTS AND RATES (treasurer interfaces)
// =============================================================================

// ServiceChargeRate implements treasurer.RateSource.
func (s *Store) ServiceChargeRate(ctx context.Context, feeKind string) (decimal.Decimal, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT rate FROM service_charge_rates WHERE fee_kind = ?", feeKind,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to load rate: %w", err)
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("malformed rate for %s: %w", feeKind, err)
	}
	return rate, true, nil
}

// SaveRate inserts or replaces a service-charge rate.
func (s *Store) SaveRate(ctx context.Context, feeKind string, rate decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO service_charge_rates (fee_kind, rate) VALUES (?, ?)",
		feeKind, rate.String())
	if err != nil {
		return fmt.Errorf("failed to save rate: %w", err)
	}
	return nil
}

// NextReceiptNumber returns the next number in the year's series.
func (s *Store) NextReceiptNumber(ctx context.Context, year int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nextReceiptNumber(ctx, s.db, year)
}

func nextReceiptNumber(ctx context.Context, db dbtx, year int) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(number), 0) + 1 FROM receipts WHERE year = ?", year,
	).Scan(&n)
	return n, err
}

// CreateReceipt persists a receipt.
func (s *Store) CreateReceipt(ctx context.Context, r treasurer.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createReceipt(ctx, s.db, r)
}

func createReceipt(ctx context.Context, db dbtx, r treasurer.Receipt) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO receipts
		(id, number, year, clearance_id, payer, fee_kind, base_amount,
		 charge_rate, charge, total, issued_by, issued_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Number, r.Year, r.ClearanceID, r.Payer, r.FeeKind,
		r.Base.String(), r.ChargeRate.String(), r.Charge.String(),
		r.Total.String(), r.IssuedBy, r.IssuedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	return nil
}

// MarkClearancePaid moves a Pending clearance to Paid.
func (s *Store) MarkClearancePaid(ctx context.Context, clearanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return markClearancePaid(ctx, s.db, clearanceID)
}

func markClearancePaid(ctx context.Context, db dbtx, clearanceID string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE clearances SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, lifecycle.StatusPaid, time.Now().UTC().Format(time.RFC3339),
		clearanceID, lifecycle.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark clearance paid: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return treasurer.ErrClearanceNotPayable
	}
	return nil
}

// WithReceiptTx executes fn within a database transaction.
func (s *Store) WithReceiptTx(ctx context.Context, fn func(treasurer.ReceiptStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&receiptTxStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type receiptTxStore struct {
	tx *sql.Tx
}

func (rs *receiptTxStore) NextReceiptNumber(ctx context.Context, year int) (int, error) {
	return nextReceiptNumber(ctx, rs.tx, year)
}

func (rs *receiptTxStore) CreateReceipt(ctx context.Context, r treasurer.Receipt) error {
	return createReceipt(ctx, rs.tx, r)
}

func (rs *receiptTxStore) MarkClearancePaid(ctx context.Context, clearanceID string) error {
	return markClearancePaid(ctx, rs.tx, clearanceID)
}

func (rs *receiptTxStore) WithReceiptTx(ctx context.Context, fn func(treasurer.ReceiptStore) error) error {
	// Already inside a transaction.
	return fn(rs)
}

// ListReceipts returns receipts, newest first.
func (s *Store) ListReceipts(ctx context.Context) ([]treasurer.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, number, year, clearance_id, payer, fee_kind, base_amount,
		       charge_rate, charge, total, issued_by, issued_at
		FROM receipts ORDER BY year DESC, number DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var out []treasurer.Receipt
	for rows.Next() {
		var (
			r                                   treasurer.Receipt
			base, rate, charge, total, issuedAt string
		)
		if err := rows.Scan(&r.ID, &r.Number, &r.Year, &r.ClearanceID, &r.Payer,
			&r.FeeKind, &base, &rate, &charge, &total, &r.IssuedBy, &issuedAt); err != nil {
			return nil, err
		}
		r.Base, _ = decimal.NewFromString(base)
		r.ChargeRate, _ = decimal.NewFromString(rate)
		r.Charge, _ = decimal.NewFromString(charge)
		r.Total, _ = decimal.NewFromString(total)
		r.IssuedAt, _ = time.Parse(time.RFC3339, issuedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

/*
catalog.go - Catalog loading, normalization, and the eligibility filter

PURPOSE:
  Transforms raw inventory rows into the filtered, available-for-selection
  Catalog the draft layer works against. All the loose-shape tolerance
  lives here, in one explicit normalization step per row - the rest of
  the engine only ever sees well-formed CatalogItems.

NORMALIZATION:
  - Units are normalized at ingestion ("boxes" -> "pcs")
  - Quantities may arrive as JSON numbers or numeric strings
  - Expiry dates are "YYYY-MM-DD" or absent

TOLERANCE POLICY:
  A malformed single row must not blank the whole catalog. Bad rows are
  logged and skipped; an empty or missing payload yields an empty catalog,
  not an error. Source (network/store) errors DO propagate - the caller
  surfaces them as a loading failure.

SEE ALSO:
  - types.go: CatalogItem and the eligibility invariant
  - orchestrator.go: Re-reads authoritative rows, bypassing the catalog
*/
package dispense

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
)

// =============================================================================
// RAW ROWS - The loose shape the stock source returns
// =============================================================================

// RawStockRow is one backend inventory row before normalization.
// Field shapes are deliberately loose; NormalizeRow is the single place
// that turns them into a well-formed CatalogItem or rejects them.
type RawStockRow struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Unit       string      `json:"unit"`
	Category   string      `json:"category"`
	Quantity   json.Number `json:"quantity"`
	Restricted bool        `json:"restricted"`
	Expiry     string      `json:"expiry"`   // "YYYY-MM-DD" or ""
	BatchID    string      `json:"batch_id"` // "" when not batched
}

// StockSource provides raw inventory rows for a kind.
type StockSource interface {
	FetchStock(ctx context.Context, kind ItemKind) ([]RawStockRow, error)
}

// =============================================================================
// CATALOG - Filtered selection view
// =============================================================================

// Catalog is the filtered, available-for-selection view of inventory.
// It is never mutated after construction; refetch to refresh.
type Catalog struct {
	items []CatalogItem
	byID  map[ItemID]int
}

// NewCatalog builds a catalog over the given items, preserving order.
func NewCatalog(items []CatalogItem) Catalog {
	byID := make(map[ItemID]int, len(items))
	for i, it := range items {
		byID[it.ID] = i
	}
	return Catalog{items: items, byID: byID}
}

// Items returns the catalog rows in ingestion order.
func (c Catalog) Items() []CatalogItem { return c.items }

// Len returns the number of selectable items.
func (c Catalog) Len() int { return len(c.items) }

// Lookup finds an item by id.
func (c Catalog) Lookup(id ItemID) (CatalogItem, bool) {
	i, ok := c.byID[id]
	if !ok {
		return CatalogItem{}, false
	}
	return c.items[i], true
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// NormalizeUnit maps raw backend units to display units.
// "boxes" arrives from legacy stock rows and is recorded as "pcs".
func NormalizeUnit(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	switch u {
	case "", "box", "boxes":
		return "pcs"
	default:
		return u
	}
}

// NormalizeRow converts a raw row into a CatalogItem, or reports why the
// row is unusable. It does NOT apply the eligibility filter; zero-stock
// rows normalize fine and are filtered by the loader.
func NormalizeRow(kind ItemKind, raw RawStockRow) (CatalogItem, error) {
	if strings.TrimSpace(raw.ID) == "" {
		return CatalogItem{}, fmt.Errorf("row missing id")
	}
	if strings.TrimSpace(raw.Name) == "" {
		return CatalogItem{}, fmt.Errorf("row %s missing name", raw.ID)
	}

	qty64, err := raw.Quantity.Int64()
	if err != nil {
		return CatalogItem{}, fmt.Errorf("row %s has non-integer quantity %q", raw.ID, raw.Quantity)
	}
	if qty64 < 0 {
		return CatalogItem{}, fmt.Errorf("row %s has negative quantity %d", raw.ID, qty64)
	}

	var expiry *time.Time
	if strings.TrimSpace(raw.Expiry) != "" {
		t, err := time.Parse("2006-01-02", raw.Expiry)
		if err != nil {
			return CatalogItem{}, fmt.Errorf("row %s has unparseable expiry %q", raw.ID, raw.Expiry)
		}
		expiry = &t
	}

	return CatalogItem{
		ID:         ItemID(raw.ID),
		Kind:       kind,
		Name:       raw.Name,
		Unit:       NormalizeUnit(raw.Unit),
		Category:   raw.Category,
		Available:  int(qty64),
		Restricted: raw.Restricted,
		Expiry:     expiry,
		BatchID:    raw.BatchID,
	}, nil
}

// =============================================================================
// CATALOG LOADER
// =============================================================================

// CatalogLoader fetches and normalizes the selectable catalog for a kind.
// Pure fetch + transform: it never mutates inventory.
type CatalogLoader struct {
	Source StockSource

	// Now is the eligibility clock; defaults to time.Now.
	Now func() time.Time

	// Logf records skipped rows; defaults to log.Printf.
	Logf func(format string, args ...any)
}

// Load returns the eligible catalog for a kind. Malformed rows are logged
// and skipped; only a source failure returns an error.
func (cl *CatalogLoader) Load(ctx context.Context, kind ItemKind) (Catalog, error) {
	rows, err := cl.Source.FetchStock(ctx, kind)
	if err != nil {
		return Catalog{}, fmt.Errorf("fetch %s stock: %w", kind.KindID(), err)
	}

	now := time.Now
	if cl.Now != nil {
		now = cl.Now
	}
	logf := log.Printf
	if cl.Logf != nil {
		logf = cl.Logf
	}

	today := now()
	items := make([]CatalogItem, 0, len(rows))
	for _, raw := range rows {
		item, err := NormalizeRow(kind, raw)
		if err != nil {
			logf("[catalog] skipping %s row: %v", kind.KindID(), err)
			continue
		}
		if !item.EligibleAt(today) {
			continue
		}
		items = append(items, item)
	}
	return NewCatalog(items), nil
}

/*
preview.go - Read-only summary projection for user confirmation

PURPOSE:
  Derives the preview a user confirms before submission: one display row
  per draft line joined to its catalog item, plus the total selected
  quantity. Pure function, no side effects.

STALENESS TOLERANCE:
  A draft line whose item vanished from a freshly refetched catalog
  (stock retired mid-flow) renders as "Unknown Item" rather than failing
  the whole preview. The submit gate, not the projector, is where that
  line gets rejected.
*/
package dispense

import "strings"

// SummaryRow is one display row of the confirmation preview.
type SummaryRow struct {
	ItemID   ItemID
	Name     string
	Quantity int
	Unit     string
	Reason   string // placeholder substituted when blank
	Known    bool   // false when the item is missing from the catalog
}

// Summary is the read-only view derived from a draft plus catalog.
type Summary struct {
	SubjectID     SubjectID
	Rows          []SummaryRow
	TotalQuantity int
}

// UnknownItemName is rendered for lines whose item left the catalog.
const UnknownItemName = "Unknown Item"

// Project joins each draft line to its catalog item, producing the
// confirmation view. Never errors: missing items degrade to UnknownItemName.
func Project(draft Draft, catalog Catalog) Summary {
	rows := make([]SummaryRow, 0, len(draft.Lines))
	total := 0

	for _, ln := range draft.Lines {
		reason := strings.TrimSpace(ln.Reason)
		if reason == "" {
			reason = ReasonPlaceholder
		}

		row := SummaryRow{
			ItemID:   ln.ItemID,
			Quantity: ln.Quantity,
			Reason:   reason,
		}
		if item, ok := catalog.Lookup(ln.ItemID); ok {
			row.Name = item.Name
			row.Unit = item.Unit
			row.Known = true
		} else {
			row.Name = UnknownItemName
			row.Unit = "pcs"
		}

		rows = append(rows, row)
		total += ln.Quantity
	}

	return Summary{
		SubjectID:     draft.SubjectID,
		Rows:          rows,
		TotalQuantity: total,
	}
}

/*
draft.go - Draft reducer operations and the submit gate

PURPOSE:
  The Draft is the in-memory request being built: an ordered list of
  {item, quantity, reason} lines plus subject, signature, and attachments.
  Every operation returns a NEW Draft value - pure reducer semantics -
  so the preview projector and the submit gate can read a draft while
  the UI continues editing it.

INVARIANTS:
  - ItemID is unique within a draft: re-selecting an item updates the
    existing line in place instead of appending a duplicate.
  - Quantities are only bounds-checked against the catalog the draft was
    built against; authoritative validation happens at submission.

SUBMIT GATE:
  CanSubmit is false while the subject is empty, no lines exist, any
  quantity is invalid, a zero-quantity line exists under a flow that
  forbids them, or a restricted item lacks attachment/signature support.
  GateCheck reports each unmet precondition so the caller can explain
  exactly why submission is unavailable instead of silently disabling it.

SEE ALSO:
  - preview.go: Read-only projection of a draft for confirmation
  - orchestrator.go: Consumes confirmed drafts
*/
package dispense

import "strings"

// =============================================================================
// REDUCER OPERATIONS
// =============================================================================

// SetLine upserts a line, preserving draft order for existing items.
// Under a flow that forbids zero quantities, setting quantity 0 removes
// the line; under a flow that allows them, the line is retained as a
// "considered but not dispensed" entry.
func (d Draft) SetLine(flow FlowConfig, itemID ItemID, quantity int, reason string) Draft {
	if quantity == 0 && !flow.AllowZeroQuantity {
		return d.RemoveLine(itemID)
	}

	lines := make([]DraftLine, len(d.Lines))
	copy(lines, d.Lines)

	for i, ln := range lines {
		if ln.ItemID == itemID {
			lines[i].Quantity = quantity
			lines[i].Reason = reason
			d.Lines = lines
			return d
		}
	}

	d.Lines = append(lines, DraftLine{ItemID: itemID, Quantity: quantity, Reason: reason})
	return d
}

// RemoveLine deletes the line for an item, if present.
func (d Draft) RemoveLine(itemID ItemID) Draft {
	lines := make([]DraftLine, 0, len(d.Lines))
	for _, ln := range d.Lines {
		if ln.ItemID != itemID {
			lines = append(lines, ln)
		}
	}
	d.Lines = lines
	return d
}

// Line returns the line for an item, if present.
func (d Draft) Line(itemID ItemID) (DraftLine, bool) {
	for _, ln := range d.Lines {
		if ln.ItemID == itemID {
			return ln, true
		}
	}
	return DraftLine{}, false
}

// TotalQuantity sums quantities across all lines.
func (d Draft) TotalQuantity() int {
	total := 0
	for _, ln := range d.Lines {
		total += ln.Quantity
	}
	return total
}

// HasInvalidQuantities reports whether any line's quantity is negative or
// exceeds the catalog's advisory availability. A line whose item is no
// longer in the catalog counts as invalid unless its quantity is zero.
func (d Draft) HasInvalidQuantities(catalog Catalog) bool {
	for _, ln := range d.Lines {
		if ln.Quantity < 0 {
			return true
		}
		item, ok := catalog.Lookup(ln.ItemID)
		if !ok {
			if ln.Quantity > 0 {
				return true
			}
			continue
		}
		if ln.Quantity > item.Available {
			return true
		}
	}
	return false
}

// =============================================================================
// SUBMIT GATE
// =============================================================================

// Gate violation codes. Each maps to one unmet submission precondition.
const (
	GateMissingSubject    = "missing_subject"
	GateEmptySelection    = "empty_selection"
	GateInvalidQuantity   = "invalid_quantity"
	GateZeroQuantity      = "zero_quantity"
	GateMissingSignature  = "missing_signature"
	GateMissingAttachment = "missing_attachment"
)

// GateViolation is one unmet submission precondition, with a message
// suitable for direct display.
type GateViolation struct {
	Code    string
	ItemID  ItemID // set for per-line violations
	Message string
}

// GateCheck returns every reason the draft cannot be submitted, in a
// stable order. An empty slice means the draft is submittable.
func (d Draft) GateCheck(catalog Catalog, flow FlowConfig) []GateViolation {
	var out []GateViolation

	if strings.TrimSpace(string(d.SubjectID)) == "" {
		out = append(out, GateViolation{
			Code:    GateMissingSubject,
			Message: "select a subject before submitting",
		})
	}
	if len(d.Lines) == 0 {
		out = append(out, GateViolation{
			Code:    GateEmptySelection,
			Message: "add at least one item to the request",
		})
	}

	restricted := false
	for _, ln := range d.Lines {
		if ln.Quantity < 0 {
			out = append(out, GateViolation{
				Code:    GateInvalidQuantity,
				ItemID:  ln.ItemID,
				Message: "quantity for " + string(ln.ItemID) + " is negative",
			})
			continue
		}
		if ln.Quantity == 0 && !flow.AllowZeroQuantity {
			out = append(out, GateViolation{
				Code:    GateZeroQuantity,
				ItemID:  ln.ItemID,
				Message: "zero-quantity lines are not permitted for this request type",
			})
			continue
		}

		item, ok := catalog.Lookup(ln.ItemID)
		if !ok {
			if ln.Quantity > 0 {
				out = append(out, GateViolation{
					Code:    GateInvalidQuantity,
					ItemID:  ln.ItemID,
					Message: string(ln.ItemID) + " is no longer available",
				})
			}
			continue
		}
		if ln.Quantity > item.Available {
			out = append(out, GateViolation{
				Code:    GateInvalidQuantity,
				ItemID:  ln.ItemID,
				Message: "quantity for " + item.Name + " exceeds available stock",
			})
		}
		if flow.NeedsAttachment(item) {
			restricted = true
		}
	}

	if restricted && len(d.Attachments) == 0 {
		out = append(out, GateViolation{
			Code:    GateMissingAttachment,
			Message: "a restricted item requires at least one supporting attachment",
		})
	}
	if (restricted || flow.RequiresSignature) && strings.TrimSpace(d.Signature) == "" {
		out = append(out, GateViolation{
			Code:    GateMissingSignature,
			Message: "a signature is required for this request",
		})
	}

	return out
}

// CanSubmit reports whether the draft passes every submission precondition.
func (d Draft) CanSubmit(catalog Catalog, flow FlowConfig) bool {
	return len(d.GateCheck(catalog, flow)) == 0
}

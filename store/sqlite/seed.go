/*
seed.go - Demo data for local development

PURPOSE:
  Populates an empty database with enough inventory, rates, and tracked
  entities to exercise every endpoint by hand: eligible and ineligible
  stock rows, a restricted medicine, pending entities in each lifecycle,
  and the clearance service-charge rate.

USAGE:
  ./server -db=":memory:" -seed
*/
package sqlite

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/civica/barangay-engine/lifecycle"
)

// SeedDemo loads demo data. Idempotent: rows are keyed, so re-seeding
// overwrites rather than duplicates.
func SeedDemo(ctx context.Context, store *Store) error {
	nextYear := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	lastMonth := time.Now().AddDate(0, -1, 0).Format("2006-01-02")

	items := []ItemRecord{
		{ID: "med-paracetamol", Kind: "medicine", Name: "Paracetamol 500mg", Unit: "pcs",
			Category: "analgesic", Quantity: 120, Expiry: nextYear, BatchID: "batch-2026-01"},
		{ID: "med-amoxicillin", Kind: "medicine", Name: "Amoxicillin 500mg", Unit: "pcs",
			Category: "antibiotic", Quantity: 40, Restricted: true, Expiry: nextYear, BatchID: "batch-2026-01"},
		{ID: "med-cough-syrup", Kind: "medicine", Name: "Lagundi Syrup 120ml", Unit: "pcs",
			Category: "cough", Quantity: 15, Expiry: nextYear},
		// Expired: eligible filter should hide this one.
		{ID: "med-expired", Kind: "medicine", Name: "Old Mefenamic Acid", Unit: "pcs",
			Category: "analgesic", Quantity: 30, Expiry: lastMonth},
		// Out of stock: also hidden.
		{ID: "med-empty", Kind: "medicine", Name: "Cetirizine 10mg", Unit: "pcs",
			Category: "antihistamine", Quantity: 0, Expiry: nextYear},

		{ID: "fa-bandage", Kind: "firstaid", Name: "Elastic Bandage", Unit: "pcs",
			Category: "dressing", Quantity: 50},
		{ID: "fa-gauze", Kind: "firstaid", Name: "Sterile Gauze Pad", Unit: "pcs",
			Category: "dressing", Quantity: 200},
		{ID: "fa-antiseptic", Kind: "firstaid", Name: "Povidone-Iodine 60ml", Unit: "pcs",
			Category: "antiseptic", Quantity: 25},
	}
	for _, it := range items {
		if err := store.SaveItem(ctx, it); err != nil {
			return err
		}
	}

	if err := store.SaveBatch(ctx, "batch-2026-01", "medicine", "January 2026 delivery"); err != nil {
		return err
	}

	complaints := []Complaint{
		{ID: "cmp-001", Complainant: "Rosa Delgado", Accused: "Unknown",
			Description: "Noise past curfew on Mabini St."},
		{ID: "cmp-002", Complainant: "Edgar Ramos", Accused: "J. Cruz",
			Description: "Boundary dispute over shared fence."},
	}
	for _, c := range complaints {
		if err := store.SaveComplaint(ctx, c); err != nil {
			return err
		}
	}

	clearances := []Clearance{
		{ID: "clr-001", Resident: "Maria Santos", Purpose: "Employment requirement"},
		{ID: "clr-002", Resident: "Jose Bautista", Purpose: "Business permit"},
	}
	for _, c := range clearances {
		if err := store.SaveClearance(ctx, c); err != nil {
			return err
		}
	}

	if err := store.SaveSummon(ctx, Summon{
		ID: "smn-001", CaseNumber: "2026-014",
		Complainant: "Edgar Ramos", Respondent: "J. Cruz",
		Status: lifecycle.StatusFiled,
	}); err != nil {
		return err
	}

	rates := map[string]decimal.Decimal{
		"clearance": decimal.NewFromFloat(0.02),
		"permit":    decimal.NewFromFloat(0.05),
	}
	for feeKind, rate := range rates {
		if err := store.SaveRate(ctx, feeKind, rate); err != nil {
			return err
		}
	}

	return nil
}

// Package medicine instantiates the dispense engine for medicine requests.
// Medicines are the strictest flow: a signature is always required, lines
// must carry a positive quantity, prescription items need a supporting
// attachment, and every dispensation hangs off a patient record.
package medicine

import "github.com/civica/barangay-engine/dispense"

// =============================================================================
// MEDICINE ITEM KIND
// =============================================================================

// Kind is the concrete item kind for the medicine domain.
// Implements dispense.ItemKind.
type Kind string

func (k Kind) KindID() string     { return string(k) }
func (k Kind) KindDomain() string { return "medicine" }

// Compile-time check that Kind implements dispense.ItemKind
var _ dispense.ItemKind = Kind("")

const KindMedicine Kind = "medicine"

// FlowName keys the medicine flow in the dispense registry.
const FlowName = "medicine"

func init() {
	dispense.RegisterKind(KindMedicine)
	dispense.RegisterFlow(Flow())
}

// Flow returns the medicine request flow configuration.
func Flow() dispense.FlowConfig {
	return dispense.FlowConfig{
		Name:                 FlowName,
		Kind:                 KindMedicine,
		AllowZeroQuantity:    false,
		RequiresSignature:    true,
		RequiresParentRecord: true,
		RequiresAttachmentIf: RequiresPrescription,
		ActionLabel:          "Dispensed",
	}
}

// RequiresPrescription reports whether an item needs a prescription
// attachment before it may be dispensed.
func RequiresPrescription(item dispense.CatalogItem) bool {
	return item.Restricted
}

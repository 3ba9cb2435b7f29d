/*
Package firstaid instantiates the dispense engine for first-aid requests.

TWO FLOWS, ONE IMPLEMENTATION:
  First-aid dispensing historically ran as two variants with different
  zero-quantity policies. The standard flow records a zero-quantity line
  as a "considered but not dispensed" entry; the strict flow rejects
  zeros the way medicine does. Both are intentional behaviors, kept as
  two configurations of the same pipeline rather than two copies of it.
*/
package firstaid

import "github.com/civica/barangay-engine/dispense"

// Kind is the concrete item kind for the first-aid domain.
// Implements dispense.ItemKind.
type Kind string

func (k Kind) KindID() string     { return string(k) }
func (k Kind) KindDomain() string { return "firstaid" }

var _ dispense.ItemKind = Kind("")

const KindFirstAid Kind = "firstaid"

// Flow names in the dispense registry.
const (
	FlowName       = "firstaid"
	StrictFlowName = "firstaid-strict"
)

func init() {
	dispense.RegisterKind(KindFirstAid)
	dispense.RegisterFlow(StandardFlow())
	dispense.RegisterFlow(StrictFlow())
}

// StandardFlow permits zero-quantity lines so a treatment can record
// supplies that were considered but not dispensed.
func StandardFlow() dispense.FlowConfig {
	return dispense.FlowConfig{
		Name:                 FlowName,
		Kind:                 KindFirstAid,
		AllowZeroQuantity:    true,
		RequiresSignature:    false,
		RequiresParentRecord: true,
		ActionLabel:          "Dispensed",
	}
}

// StrictFlow treats zero quantities as invalid and requires a signature,
// matching the medicine policy.
func StrictFlow() dispense.FlowConfig {
	return dispense.FlowConfig{
		Name:                 StrictFlowName,
		Kind:                 KindFirstAid,
		AllowZeroQuantity:    false,
		RequiresSignature:    true,
		RequiresParentRecord: true,
		ActionLabel:          "Dispensed",
	}
}

/*
flow.go - Per-request-type flow configuration

PURPOSE:
  The same draft/preview/submit pipeline is reused by every request type,
  but the types genuinely diverge on a few policies: whether a
  zero-quantity line may be recorded, whether a signature is required,
  and which items demand supporting attachments. Those divergences live
  here as configuration, implemented once and instantiated per kind -
  never as a second copy of the pipeline.

ZERO-QUANTITY DIVERGENCE:
  Some flows record a zero-quantity line as a "considered but not
  dispensed" entry; others treat zero as invalid. Both behaviors are
  intentional, so both are kept, selected by AllowZeroQuantity.

SEE ALSO:
  - medicine, firstaid: flow instantiations
  - factory: parses FlowConfig from JSON definitions
*/
package dispense

import "sync"

// FlowConfig parameterizes one request type over the shared pipeline.
type FlowConfig struct {
	// Name keys the flow registry and the API surface ("medicine",
	// "firstaid", "firstaid-strict").
	Name string

	Kind ItemKind

	// AllowZeroQuantity keeps zero-quantity lines as recorded-but-not-
	// dispensed entries. When false, SetLine drops zero lines and the
	// submit gate rejects any that remain.
	AllowZeroQuantity bool

	// RequiresSignature gates submission on a captured signature.
	RequiresSignature bool

	// RequiresParentRecord creates one containing record per submission
	// (e.g. a patient record) that consumption rows reference.
	RequiresParentRecord bool

	// RequiresAttachmentIf marks items whose selection demands at least
	// one supporting attachment (e.g. a prescription). Nil means never.
	RequiresAttachmentIf func(CatalogItem) bool

	// ActionLabel is the audit-transaction action recorded per deduction.
	ActionLabel string
}

// NeedsAttachment reports whether selecting the item requires an
// attachment under this flow. Nil-predicate safe.
func (fc FlowConfig) NeedsAttachment(item CatalogItem) bool {
	if fc.RequiresAttachmentIf == nil {
		return false
	}
	return fc.RequiresAttachmentIf(item)
}

// =============================================================================
// FLOW REGISTRY
// =============================================================================

var (
	flowRegistry = make(map[string]FlowConfig)
	flowMu       sync.RWMutex
)

// RegisterFlow adds a flow to the global registry, keyed by Name.
// Call from domain package init() functions; later registrations of the
// same name replace earlier ones.
func RegisterFlow(fc FlowConfig) {
	flowMu.Lock()
	defer flowMu.Unlock()
	flowRegistry[fc.Name] = fc
}

// LookupFlow finds a registered flow by name.
func LookupFlow(name string) (FlowConfig, bool) {
	flowMu.RLock()
	defer flowMu.RUnlock()
	fc, ok := flowRegistry[name]
	return fc, ok
}

// ListFlows returns all registered flows.
func ListFlows() []FlowConfig {
	flowMu.RLock()
	defer flowMu.RUnlock()
	result := make([]FlowConfig, 0, len(flowRegistry))
	for _, fc := range flowRegistry {
		result = append(result, fc)
	}
	return result
}

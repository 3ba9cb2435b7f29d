/*
Package factory provides JSON to Go flow conversion.

PURPOSE:
  Converts JSON flow definitions into dispense.FlowConfig values. This
  enables per-deployment flow tuning without code changes - an admin can
  adjust, say, whether first-aid requests need signatures, and the
  factory builds the proper config.

JSON SCHEMA:
  {
    "name": "firstaid",
    "kind": "firstaid",
    "allow_zero_quantity": true,
    "requires_signature": false,
    "requires_parent_record": true,
    "restricted_needs_attachment": false,
    "attachment_categories": ["prescription"],
    "action_label": "Dispensed"
  }

ATTACHMENT PREDICATE:
  restricted_needs_attachment gates on the item's restricted flag;
  attachment_categories additionally gates on category membership. Either
  condition demanding an attachment is sufficient.

USAGE:
  factory := NewFlowFactory()
  flow, err := factory.ParseFlow(jsonString)
  dispense.RegisterFlow(flow)

SEE ALSO:
  - dispense/flow.go: FlowConfig definition and registry
  - medicine, firstaid: Go-based flow configurations
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/civica/barangay-engine/dispense"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// FlowJSON is the JSON representation of a flow.
type FlowJSON struct {
	Name                      string   `json:"name"`
	Kind                      string   `json:"kind"`
	AllowZeroQuantity         bool     `json:"allow_zero_quantity"`
	RequiresSignature         bool     `json:"requires_signature"`
	RequiresParentRecord      bool     `json:"requires_parent_record"`
	RestrictedNeedsAttachment bool     `json:"restricted_needs_attachment"`
	AttachmentCategories      []string `json:"attachment_categories,omitempty"`
	ActionLabel               string   `json:"action_label,omitempty"`
}

// =============================================================================
// FLOW FACTORY
// =============================================================================

type FlowFactory struct{}

func NewFlowFactory() *FlowFactory {
	return &FlowFactory{}
}

// ParseFlow converts a single JSON flow definition into a FlowConfig.
func (f *FlowFactory) ParseFlow(jsonStr string) (dispense.FlowConfig, error) {
	var fj FlowJSON
	if err := json.Unmarshal([]byte(jsonStr), &fj); err != nil {
		return dispense.FlowConfig{}, fmt.Errorf("invalid flow JSON: %w", err)
	}
	return f.buildFlow(fj)
}

// ParseFlows converts a JSON array of flow definitions.
func (f *FlowFactory) ParseFlows(jsonStr string) ([]dispense.FlowConfig, error) {
	var raw []FlowJSON
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("invalid flows JSON: %w", err)
	}

	flows := make([]dispense.FlowConfig, 0, len(raw))
	for i, fj := range raw {
		fc, err := f.buildFlow(fj)
		if err != nil {
			return nil, fmt.Errorf("flow %d: %w", i, err)
		}
		flows = append(flows, fc)
	}
	return flows, nil
}

func (f *FlowFactory) buildFlow(fj FlowJSON) (dispense.FlowConfig, error) {
	if strings.TrimSpace(fj.Name) == "" {
		return dispense.FlowConfig{}, fmt.Errorf("flow is missing a name")
	}
	if strings.TrimSpace(fj.Kind) == "" {
		return dispense.FlowConfig{}, fmt.Errorf("flow %s is missing a kind", fj.Name)
	}

	actionLabel := fj.ActionLabel
	if actionLabel == "" {
		actionLabel = "Dispensed"
	}

	fc := dispense.FlowConfig{
		Name:                 fj.Name,
		Kind:                 dispense.GetOrCreateKind(fj.Kind),
		AllowZeroQuantity:    fj.AllowZeroQuantity,
		RequiresSignature:    fj.RequiresSignature,
		RequiresParentRecord: fj.RequiresParentRecord,
		ActionLabel:          actionLabel,
	}

	if fj.RestrictedNeedsAttachment || len(fj.AttachmentCategories) > 0 {
		categories := make(map[string]bool, len(fj.AttachmentCategories))
		for _, c := range fj.AttachmentCategories {
			categories[strings.ToLower(strings.TrimSpace(c))] = true
		}
		restricted := fj.RestrictedNeedsAttachment
		fc.RequiresAttachmentIf = func(item dispense.CatalogItem) bool {
			if restricted && item.Restricted {
				return true
			}
			return categories[strings.ToLower(item.Category)]
		}
	}

	return fc, nil
}

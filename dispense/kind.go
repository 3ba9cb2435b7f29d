/*
kind.go - Item kind registration and lookup

PURPOSE:
  Provides a registry for domain packages to register their item kinds.
  This enables deserialization from storage/JSON back to concrete types
  while keeping the dispense package domain-agnostic.

HOW IT WORKS:
  1. Domain packages define their ItemKind implementations
  2. Domain packages register them on init()
  3. Storage and the API use the registry to reconstruct types

USAGE:
  // In medicine/types.go
  func init() {
      dispense.RegisterKind(KindMedicine)
  }

  // In storage
  kind := dispense.GetOrCreateKind("medicine") // returns medicine.KindMedicine

SEE ALSO:
  - types.go: ItemKind interface definition
  - medicine, firstaid: concrete implementations
*/
package dispense

import (
	"fmt"
	"sync"
)

var (
	kindRegistry = make(map[string]ItemKind)
	kindMu       sync.RWMutex
)

// RegisterKind adds an item kind to the global registry.
// Call this from domain package init() functions.
func RegisterKind(k ItemKind) {
	kindMu.Lock()
	defer kindMu.Unlock()
	kindRegistry[k.KindID()] = k
}

// LookupKind finds a registered kind by ID. Returns nil if not found.
func LookupKind(id string) ItemKind {
	kindMu.RLock()
	defer kindMu.RUnlock()
	return kindRegistry[id]
}

// MustLookupKind finds a registered kind or panics.
// Use in tests or when you're certain the kind exists.
func MustLookupKind(id string) ItemKind {
	k := LookupKind(id)
	if k == nil {
		panic(fmt.Sprintf("item kind not registered: %s", id))
	}
	return k
}

// ListKinds returns all registered item kinds.
func ListKinds() []ItemKind {
	kindMu.RLock()
	defer kindMu.RUnlock()
	result := make([]ItemKind, 0, len(kindRegistry))
	for _, k := range kindRegistry {
		result = append(result, k)
	}
	return result
}

// StringKind is a simple string-based kind.
// Use only for testing or as a fallback when domain types aren't loaded.
type StringKind struct {
	ID     string
	Domain string
}

func (k StringKind) KindID() string     { return k.ID }
func (k StringKind) KindDomain() string { return k.Domain }

// GetOrCreateKind looks up a kind, or creates a StringKind fallback.
// Use this in deserialization when the domain might not be loaded.
func GetOrCreateKind(id string) ItemKind {
	if k := LookupKind(id); k != nil {
		return k
	}
	return StringKind{ID: id, Domain: "unknown"}
}

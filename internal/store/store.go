// Package store defines the narrow contract the reconciliation engine
// holds against a firewall rule store, plus an in-memory implementation
// for tests. There is deliberately no Delete operation anywhere in the
// contract: rules are disabled, never removed.
package store

import (
	"errors"

	"grimm.is/rime/internal/rule"
)

// ErrNotFound is returned by GetByID for unknown rule IDs.
var ErrNotFound = errors.New("rule not found")

// Partial is the cheap live-rule view used by fast mode: identity and
// enabled state only.
type Partial interface {
	ID() string
	Enabled() bool
}

// Live is the fully populated live-rule view.
type Live interface {
	Partial
	Attributes() rule.Rule
}

// Store is the firewall rule store the engine reconciles against.
// All calls block; the engine assumes it is the sole writer during a run.
type Store interface {
	// Enumerate returns the fully populated rules matching the filter.
	Enumerate(f Filter) ([]Live, error)
	// EnumerateStates returns the cheap identity+enabled view for the
	// same filter. Implementations should make this materially cheaper
	// than Enumerate where the backend allows it.
	EnumerateStates(f Filter) ([]Partial, error)
	// GetByID fetches one rule, ErrNotFound if absent.
	GetByID(id string) (Live, error)
	// Create adds a new rule. An empty ID means the store assigns one.
	Create(r rule.Rule) (Live, error)
	// SetAttribute patches a single attribute. Multi-valued attributes
	// arrive decomposed into their elements.
	SetAttribute(id string, attr rule.Attr, values []string) error
	// Rename changes a rule's display name. The store treats renames as
	// a distinct operation from attribute patches.
	Rename(id, displayName string) error
}

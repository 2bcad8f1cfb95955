package store

import (
	"strings"

	"grimm.is/rime/internal/rule"
)

// Filter constrains an enumeration. Empty fields are don't-cares.
// Name-like fields (DisplayName, Group, DisplayGroup) match by substring,
// or by glob when the value contains `*`; the enum-like fields match
// exactly.
type Filter struct {
	DisplayName  string
	Group        string
	DisplayGroup string
	Enabled      string
	Profile      string
	Direction    string
	Action       string
}

// IsZero reports whether the filter constrains nothing.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Matches applies the filter to a rule's attributes. Stores that filter
// natively (the Windows backend pushes the filter into the cmdlet call)
// don't use this; the in-memory store and tests do. DisplayGroup is
// matched against the rule's Group, the only group field the record
// model carries.
func (f Filter) Matches(r rule.Rule) bool {
	if !matchName(f.DisplayName, r.DisplayName) {
		return false
	}
	if !matchName(f.Group, r.Group) {
		return false
	}
	if !matchName(f.DisplayGroup, r.Group) {
		return false
	}
	if f.Enabled != "" && f.Enabled != r.Enabled {
		return false
	}
	if f.Profile != "" && f.Profile != r.Profile {
		return false
	}
	if f.Direction != "" && f.Direction != r.Direction {
		return false
	}
	if f.Action != "" && f.Action != r.Action {
		return false
	}
	return true
}

// matchName gives the name-like fields their substring-or-glob semantics.
func matchName(want, got string) bool {
	if want == "" {
		return true
	}
	if strings.Contains(want, "*") {
		return rule.Resolve(want).Match(got)
	}
	return strings.Contains(got, want)
}

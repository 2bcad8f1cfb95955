// Package snapshot models the desired-state collection: an ordered list
// of rule records headed by a synthetic Default Record that carries the
// schema version and the capture-time filter scope.
package snapshot

import (
	"errors"
	"strings"

	"grimm.is/rime/internal/rule"
)

var (
	// ErrEmpty means the snapshot contained no rows at all.
	ErrEmpty = errors.New("snapshot is empty")
	// ErrNoDefaultRecord means row 0 was not a recognizable Default Record.
	ErrNoDefaultRecord = errors.New("snapshot has no default record")
	// ErrUnsupportedVersion means the embedded schema version failed the
	// compatibility gate.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
	// ErrBadHeader means the header row did not list the expected columns.
	ErrBadHeader = errors.New("snapshot header mismatch")
)

// Scope is the filter that was active when the snapshot was captured,
// persisted on the Default Record. Empty fields mean unfiltered.
type Scope struct {
	DisplayName string
	Group       string
	Enabled     string
	Profile     string
	Direction   string
	Action      string
}

// Record is one desired rule: the raw attribute bag plus each field's
// value resolved once to Unset | Ignore | Literal | Pattern. Resolution
// happens at load; nothing downstream re-detects sentinels.
type Record struct {
	rule.Rule
	values map[rule.Attr]rule.Value
}

// NewRecord canonicalizes and resolves every field of a raw rule.
// Boolean spellings collapse to "True"/"False" and list values to their
// ", "-joined form, so literal comparisons line up with what stores
// render. Ignore tags and patterns pass through verbatim.
func NewRecord(r rule.Rule) Record {
	r.Enabled, _ = rule.NormalizeBool(r.Enabled)
	for _, a := range rule.Fields() {
		v := r.Get(a)
		if rule.IsList(a) && v != rule.IgnoreTag && !strings.Contains(v, "*") {
			r.Set(a, rule.NormalizeList(v))
		}
	}

	rec := Record{Rule: r, values: make(map[rule.Attr]rule.Value, len(rule.Fields()))}
	for _, a := range rule.Fields() {
		rec.values[a] = rule.Resolve(r.Get(a))
	}
	return rec
}

// Value returns the resolved desired value for one attribute.
func (rec Record) Value(a rule.Attr) rule.Value {
	return rec.values[a]
}

// IsExcluded reports whether the whole record is an operator exclusion
// (ignore tag in place of the ID). Excluded records are never matched
// against live rules in the update phase.
func (rec Record) IsExcluded() bool {
	return rec.ID == rule.IgnoreTag
}

// PatternAttrs lists the attributes holding wildcard patterns. A record
// used as a creation template must have none.
func (rec Record) PatternAttrs() []rule.Attr {
	var out []rule.Attr
	for _, a := range rule.Fields() {
		if rec.values[a].Kind == rule.Pattern {
			out = append(out, a)
		}
	}
	return out
}

// IgnoredAttrs lists the attributes holding the ignore tag, the ID aside.
func (rec Record) IgnoredAttrs() []rule.Attr {
	var out []rule.Attr
	for _, a := range rule.Fields() {
		if a == rule.AttrID {
			continue
		}
		if rec.values[a].Kind == rule.Ignore {
			out = append(out, a)
		}
	}
	return out
}

// Snapshot is a parsed desired-state collection. Version and Scope come
// from the Default Record; Records excludes it.
type Snapshot struct {
	Version SchemaVersion
	Scope   Scope
	Records []Record
}

// New builds a snapshot at the current schema version, resolving every
// rule. Used by capture and by tests.
func New(scope Scope, rules []rule.Rule) Snapshot {
	s := Snapshot{Version: CurrentVersion, Scope: scope}
	for _, r := range rules {
		s.Records = append(s.Records, NewRecord(r))
	}
	return s
}

// defaultRecord renders the synthetic first row.
func (s Snapshot) defaultRecord() rule.Rule {
	return rule.Rule{
		ID:          s.Version.Marker(),
		DisplayName: s.Scope.DisplayName,
		Group:       s.Scope.Group,
		Enabled:     s.Scope.Enabled,
		Profile:     s.Scope.Profile,
		Direction:   s.Scope.Direction,
		Action:      s.Scope.Action,
	}
}

// scopeFrom extracts the filter scope from a parsed Default Record row.
func scopeFrom(r rule.Rule) Scope {
	return Scope{
		DisplayName: r.DisplayName,
		Group:       r.Group,
		Enabled:     r.Enabled,
		Profile:     r.Profile,
		Direction:   r.Direction,
		Action:      r.Action,
	}
}

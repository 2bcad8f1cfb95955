// Package rule defines the firewall rule record model shared by the
// snapshot codec, the store implementations and the reconciliation engine.
package rule

import (
	"strconv"
	"strings"
)

// IgnoreTag is the reserved sentinel meaning "do not evaluate or touch
// this field". When it appears as a record's ID, the whole record is an
// operator-acknowledged exclusion rather than a real rule.
const IgnoreTag = "_ignore"

// Canonical boolean spellings used by the Enabled field.
const (
	True  = "True"
	False = "False"
)

// ListSeparator joins multi-valued attributes into their single-string form.
const ListSeparator = ", "

// Rule is one firewall rule as an attribute bag. All fields are strings;
// the multi-valued network fields hold their elements joined by ", ".
// Rules are value objects: constructed fresh on every read, never shared.
type Rule struct {
	ID            string
	DisplayName   string
	Group         string
	Program       string
	Enabled       string
	Profile       string
	Direction     string
	Action        string
	Protocol      string
	LocalAddress  string
	LocalPort     string
	RemoteAddress string
	RemotePort    string
	Description   string
}

// IsEnabled reports whether the rule's Enabled field parses as true.
// Unparsable values count as disabled.
func (r Rule) IsEnabled() bool {
	b, err := strconv.ParseBool(r.Enabled)
	return err == nil && b
}

// FormatBool renders a boolean in the canonical Enabled spelling.
func FormatBool(b bool) string {
	if b {
		return True
	}
	return False
}

// NormalizeBool canonicalizes any strconv.ParseBool spelling to
// "True"/"False". Values that do not parse are returned unchanged with
// ok=false (they may be an ignore tag or a pattern).
func NormalizeBool(s string) (string, bool) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return s, false
	}
	return FormatBool(b), true
}

// SplitList decomposes a multi-valued attribute string into its elements.
// A value without the separator comes back as a single-element list;
// the empty string comes back empty.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	if !strings.Contains(s, ",") {
		return []string{s}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinList is the inverse of SplitList.
func JoinList(vs []string) string {
	return strings.Join(vs, ListSeparator)
}

// NormalizeList rewrites a list value into its canonical ", "-joined
// spelling, so "80,443" compares equal to the form stores render.
func NormalizeList(s string) string {
	return JoinList(SplitList(s))
}

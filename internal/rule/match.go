package rule

// Constraints is an arbitrary subset of attribute equality requirements.
// Attributes not present are don't-cares.
type Constraints map[Attr]string

// MatchIndex returns the index of the first rule satisfying every
// constraint (case-sensitive exact string equality), or -1. Ties break by
// input order, so callers must supply a stable order. No side effects.
func MatchIndex(rules []Rule, want Constraints) int {
	for i := range rules {
		if satisfies(&rules[i], want) {
			return i
		}
	}
	return -1
}

// Match is MatchIndex returning the matched rule itself.
func Match(rules []Rule, want Constraints) (Rule, bool) {
	i := MatchIndex(rules, want)
	if i < 0 {
		return Rule{}, false
	}
	return rules[i], true
}

func satisfies(r *Rule, want Constraints) bool {
	for attr, v := range want {
		if r.Get(attr) != v {
			return false
		}
	}
	return true
}

// IgnoreTuple builds the constraint set that recognizes an
// operator-acknowledged exclusion of the given live rule: an ignore tag
// in place of the ID plus every other attribute matched exactly.
func IgnoreTuple(live Rule) Constraints {
	want := Constraints{AttrID: IgnoreTag}
	for _, a := range Fields() {
		if a == AttrID {
			continue
		}
		want[a] = live.Get(a)
	}
	return want
}

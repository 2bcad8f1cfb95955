package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"grimm.is/rime/internal/logging"
	"grimm.is/rime/internal/rule"
	"grimm.is/rime/internal/snapshot"
	"grimm.is/rime/internal/store"
)

// RunDiff compares a snapshot against the live firewall rules and prints
// a unified diff of what a sync would change.
func RunDiff(snapshotPath string) error {
	if snapshotPath == "" {
		cfg, err := loadConfig("")
		if err != nil {
			return err
		}
		snapshotPath = cfg.Snapshot
	}

	snap, err := snapshot.ReadFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	st := openStore(logging.WithComponent("winfw"))
	live, err := st.Enumerate(store.Filter{
		DisplayName: snap.Scope.DisplayName,
		Group:       snap.Scope.Group,
		Enabled:     snap.Scope.Enabled,
		Profile:     snap.Scope.Profile,
		Direction:   snap.Scope.Direction,
		Action:      snap.Scope.Action,
	})
	if err != nil {
		return fmt.Errorf("failed to enumerate live rules: %w", err)
	}

	liveAttrs := make([]rule.Rule, len(live))
	for i, lv := range live {
		liveAttrs[i] = lv.Attributes()
	}

	desired, rejected := projectSnapshot(snap, liveAttrs)

	desiredText := renderRules(desired)
	liveText := renderRules(sortedByID(liveAttrs))

	if desiredText == liveText {
		Printer.Println("No changes detected.")
		return nil
	}

	Printer.Println("Snapshot differs from live rules:")

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(liveText),
		B:        difflib.SplitLines(desiredText),
		FromFile: "live",
		ToFile:   "desired",
		Context:  3,
	}
	text, _ := difflib.GetUnifiedDiffString(diff)
	fmt.Print(text)

	if rejected > 0 {
		Printer.Printf("%d records hold wildcards and cannot be created\n", rejected)
	}

	return fmt.Errorf("snapshot differs")
}

// projectSnapshot applies the snapshot to the live rules without touching
// the store, yielding the rules as they would stand after a clean sync:
// orphans disabled (unless excluded by an ignore tuple), ignore-tagged
// fields left at their live value, literal fields taken from the record,
// a failed wildcard disabling its rule, and absent records created from
// their template. Records whose template holds wildcards cannot be
// created; they are counted instead of rendered.
func projectSnapshot(snap snapshot.Snapshot, liveAttrs []rule.Rule) (projected []rule.Rule, rejected int) {
	desired := make([]rule.Rule, len(snap.Records))
	for i, rec := range snap.Records {
		desired[i] = rec.Rule
	}

	for _, la := range liveAttrs {
		if rule.MatchIndex(desired, rule.Constraints{rule.AttrID: la.ID}) >= 0 {
			continue
		}
		out := la
		if rule.MatchIndex(desired, rule.IgnoreTuple(la)) < 0 && la.IsEnabled() {
			out.Enabled = rule.False
		}
		projected = append(projected, out)
	}

	byID := make(map[string]rule.Rule, len(liveAttrs))
	for _, la := range liveAttrs {
		byID[la.ID] = la
	}

	for _, rec := range snap.Records {
		if rec.IsExcluded() {
			continue
		}
		la, ok := byID[rec.ID]
		if !ok {
			if len(rec.PatternAttrs()) > 0 {
				rejected++
				continue
			}
			projected = append(projected, creationProjection(rec))
			continue
		}
		projected = append(projected, updateProjection(rec, la))
	}

	return sortedByID(projected), rejected
}

func creationProjection(rec snapshot.Record) rule.Rule {
	r := rule.Rule{ID: rec.ID}
	for _, info := range rule.Mutable() {
		if v := rec.Value(info.Attr); v.Kind == rule.Literal {
			info.Set(&r, v.Text)
		}
	}
	return r
}

func updateProjection(rec snapshot.Record, la rule.Rule) rule.Rule {
	out := la
	for _, info := range rule.Mutable() {
		v := rec.Value(info.Attr)
		if v.Kind == rule.Pattern && !v.Match(la.Get(info.Attr)) {
			// Containment: nothing but the enabled state changes.
			out.Enabled = rule.False
			return out
		}
	}
	for _, info := range rule.Mutable() {
		if v := rec.Value(info.Attr); v.Kind == rule.Literal {
			info.Set(&out, v.Text)
		}
	}
	return out
}

// renderRules renders rules as one block per rule, empty fields skipped,
// so the unified diff degrades to per-attribute hunks.
func renderRules(rules []rule.Rule) string {
	var b strings.Builder
	for _, r := range rules {
		fmt.Fprintf(&b, "rule %s\n", r.ID)
		for _, a := range rule.Fields() {
			if a == rule.AttrID {
				continue
			}
			if v := r.Get(a); v != "" {
				fmt.Fprintf(&b, "  %s = %s\n", a, v)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func sortedByID(rules []rule.Rule) []rule.Rule {
	out := make([]rule.Rule, len(rules))
	copy(out, rules)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

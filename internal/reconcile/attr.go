package reconcile

import (
	"fmt"

	"grimm.is/rime/internal/rule"
	"grimm.is/rime/internal/snapshot"
	"grimm.is/rime/internal/store"
)

// reconcileRule handles one matched desired/live pair. Wildcard patterns
// are verified first: a mismatch contains the rule (forced disable) and
// nothing else on it is touched, which keeps repeated runs from
// re-enabling a rule they are about to contain again. Only then are the
// concrete attributes written, in table order. A store failure fails the
// rule and skips its remaining attributes; the run continues with the
// next record. The only error returned is the ID-mismatch contract
// violation, which is run-fatal.
func (e *Engine) reconcileRule(rep *Report, rec snapshot.Record, lv store.Live) error {
	id := lv.ID()
	if rec.ID != id {
		return fmt.Errorf("%w: desired %q, live %q", ErrIDMismatch, rec.ID, id)
	}

	liveAttrs := lv.Attributes()

	for _, info := range rule.Mutable() {
		v := rec.Value(info.Attr)
		if v.Kind != rule.Pattern {
			continue
		}
		current := liveAttrs.Get(info.Attr)
		if v.Match(current) {
			e.log.Debug("pattern verified", "id", id, "attr", string(info.Attr), "pattern", v.Text)
			continue
		}
		e.contain(rep, id, liveAttrs, info.Attr, v.Text, current)
		return nil
	}

	wrote := 0
	for _, info := range rule.Mutable() {
		attr := info.Attr
		v := rec.Value(attr)
		current := liveAttrs.Get(attr)

		switch v.Kind {
		case rule.Unset, rule.Pattern:
			continue

		case rule.Ignore:
			e.log.Info("ignoring attribute", "id", id, "attr", string(attr), "live", current)
			rep.add(Action{
				Phase: 2, Kind: ActionIgnored, RuleID: id, DisplayName: liveAttrs.DisplayName,
				Attr: attr, Note: "ignore tag",
			})
			continue

		case rule.Literal:
			if v.Text == current {
				continue
			}
			a := Action{
				Phase: 2, Kind: ActionUpdated, RuleID: id, DisplayName: liveAttrs.DisplayName,
				Attr: attr, Before: current, After: v.Text,
			}
			if err := e.writeAttr(id, attr, v.Text); err != nil {
				a.Kind, a.Err = ActionFailed, err
				rep.add(a)
				rep.Failed++
				e.log.Error("attribute update failed", "id", id, "attr", string(attr), "error", err)
				return nil
			}
			e.log.Info("updated attribute", "id", id, "attr", string(attr), "from", current, "to", v.Text)
			rep.add(a)
			liveAttrs.Set(attr, v.Text)
			wrote++
		}
	}

	if wrote > 0 {
		rep.Updated++
	} else {
		e.log.Debug("rule unchanged", "id", id, "name", liveAttrs.DisplayName)
		rep.Unchanged++
	}
	return nil
}

// contain forces Enabled=False on a rule whose live value failed
// wildcard verification. A rule that is already disabled stays as it is;
// the warning repeats until the operator resolves the mismatch.
func (e *Engine) contain(rep *Report, id string, liveAttrs rule.Rule, attr rule.Attr, pattern, current string) {
	e.log.Warn("live value does not match pattern, disabling rule",
		"id", id, "attr", string(attr), "pattern", pattern, "live", current)

	if !liveAttrs.IsEnabled() {
		e.log.Debug("rule already disabled", "id", id)
		rep.Unchanged++
		return
	}

	a := Action{
		Phase: 2, Kind: ActionDisabled, RuleID: id, DisplayName: liveAttrs.DisplayName,
		Attr: rule.AttrEnabled, Before: liveAttrs.Enabled, After: rule.False,
		Note: fmt.Sprintf("%s does not match %q", attr, pattern),
	}
	if err := e.setAttr(id, rule.AttrEnabled, []string{rule.False}); err != nil {
		a.Kind, a.Err = ActionFailed, err
		rep.add(a)
		rep.Failed++
		e.log.Error("failed to disable rule", "id", id, "error", err)
		return
	}
	rep.add(a)
	rep.Disabled++
}

// reconcileEnabled is the fast-mode per-record path: Enabled only.
func (e *Engine) reconcileEnabled(rep *Report, rec snapshot.Record, p store.Partial) {
	id := p.ID()
	current := rule.FormatBool(p.Enabled())
	v := rec.Value(rule.AttrEnabled)

	switch v.Kind {
	case rule.Unset:
		rep.Unchanged++
		return

	case rule.Ignore:
		e.log.Info("ignoring attribute", "id", id, "attr", string(rule.AttrEnabled))
		rep.add(Action{
			Phase: 2, Kind: ActionIgnored, RuleID: id, DisplayName: rec.DisplayName,
			Attr: rule.AttrEnabled, Note: "ignore tag",
		})
		rep.Unchanged++
		return

	case rule.Pattern:
		if v.Match(current) {
			rep.Unchanged++
			return
		}
		e.contain(rep, id, rule.Rule{ID: id, DisplayName: rec.DisplayName, Enabled: current},
			rule.AttrEnabled, v.Text, current)
		return
	}

	if v.Text == current {
		rep.Unchanged++
		return
	}

	a := Action{
		Phase: 2, Kind: ActionUpdated, RuleID: id, DisplayName: rec.DisplayName,
		Attr: rule.AttrEnabled, Before: current, After: v.Text,
	}
	if err := e.setAttr(id, rule.AttrEnabled, []string{v.Text}); err != nil {
		a.Kind, a.Err = ActionFailed, err
		rep.add(a)
		rep.Failed++
		e.log.Error("attribute update failed", "id", id, "attr", string(rule.AttrEnabled), "error", err)
		return
	}
	e.log.Info("updated attribute", "id", id, "attr", string(rule.AttrEnabled), "from", current, "to", v.Text)
	rep.add(a)
	rep.Updated++
}

// writeAttr dispatches one attribute write to the store operation it
// needs: renames for DisplayName, a read-before-write for Group (the
// store's group write replaces the full record, so the rule must still
// be fetchable), list decomposition for the multi-valued attributes.
func (e *Engine) writeAttr(id string, attr rule.Attr, text string) error {
	if e.dryRun {
		return nil
	}
	switch {
	case attr == rule.AttrDisplayName:
		return e.store.Rename(id, text)
	case attr == rule.AttrGroup:
		if _, err := e.store.GetByID(id); err != nil {
			return fmt.Errorf("fetching rule for group update: %w", err)
		}
		return e.store.SetAttribute(id, attr, []string{text})
	case rule.IsList(attr):
		return e.store.SetAttribute(id, attr, rule.SplitList(text))
	default:
		return e.store.SetAttribute(id, attr, []string{text})
	}
}

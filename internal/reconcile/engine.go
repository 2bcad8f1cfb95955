// Package reconcile implements the two-phase synchronization engine:
// phase 1 disables live rules with no desired counterpart, phase 2
// creates or updates a live rule for every desired record. Nothing in
// this package ever deletes a rule.
package reconcile

import (
	"errors"
	"fmt"

	"grimm.is/rime/internal/clock"
	"grimm.is/rime/internal/logging"
	"grimm.is/rime/internal/rule"
	"grimm.is/rime/internal/snapshot"
	"grimm.is/rime/internal/store"
)

// ErrIDMismatch is an internal contract violation: the per-record update
// path received a desired record and a live rule with different IDs.
// This is never recoverable; the run aborts rather than guessing.
var ErrIDMismatch = errors.New("desired/live rule ID mismatch")

// Options configures an Engine.
type Options struct {
	// DryRun performs every comparison and records every decision but
	// suppresses all store writes.
	DryRun bool
	// Fast restricts phase 2 to the Enabled attribute, driven by the
	// store's cheap state enumeration.
	Fast   bool
	Logger *logging.Logger
	Clock  clock.Clock
}

// Engine reconciles a snapshot against a live rule store. It runs
// single-threaded and assumes it is the sole writer for the duration of
// a run.
type Engine struct {
	store  store.Store
	log    *logging.Logger
	clock  clock.Clock
	dryRun bool
	fast   bool
}

// New builds an engine over the given store.
func New(st store.Store, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logging.WithComponent("engine")
	}
	if opts.DryRun {
		log = log.WithFields(map[string]any{"dry_run": true})
	}
	ck := opts.Clock
	if ck == nil {
		ck = &clock.RealClock{}
	}
	return &Engine{
		store:  st,
		log:    log,
		clock:  ck,
		dryRun: opts.DryRun,
		fast:   opts.Fast,
	}
}

// Run executes one reconciliation. The returned error is fatal (gate
// failure, enumeration failure, contract violation); per-rule store
// failures are recorded in the report and do not stop the run. The
// report is returned even when the run aborts.
func (e *Engine) Run(snap snapshot.Snapshot) (*Report, error) {
	rep := &Report{DryRun: e.dryRun, Fast: e.fast, Started: e.clock.Now()}
	defer func() { rep.Finished = e.clock.Now() }()

	// The gate runs before any store access, even if the caller already
	// validated the snapshot at load time.
	if err := snapshot.CheckCompatibility(snap.Version); err != nil {
		return rep, err
	}

	scope := scopeFilter(snap.Scope)
	live, err := e.store.Enumerate(scope)
	if err != nil {
		return rep, fmt.Errorf("enumerating live rules: %w", err)
	}

	e.log.Info("starting reconciliation",
		"live_rules", len(live),
		"desired_records", len(snap.Records),
		"fast", e.fast)

	desired := make([]rule.Rule, len(snap.Records))
	for i, rec := range snap.Records {
		desired[i] = rec.Rule
	}
	liveAttrs := make([]rule.Rule, len(live))
	for i, lv := range live {
		liveAttrs[i] = lv.Attributes()
	}

	e.disableOrphans(rep, live, liveAttrs, desired)

	if e.fast {
		err = e.applyFast(rep, snap.Records, scope)
	} else {
		err = e.applyFull(rep, snap.Records, live, liveAttrs)
	}
	if err != nil {
		return rep, err
	}

	e.log.Info("reconciliation finished", "result", rep.Summary())
	return rep, nil
}

// disableOrphans is phase 1: every in-scope live rule with no desired
// counterpart by ID, and no ignore-tuple exclusion, is disabled. Never
// deleted.
func (e *Engine) disableOrphans(rep *Report, live []store.Live, liveAttrs, desired []rule.Rule) {
	for i, lv := range live {
		id := lv.ID()
		if rule.MatchIndex(desired, rule.Constraints{rule.AttrID: id}) >= 0 {
			continue // phase 2 owns it
		}
		attrs := liveAttrs[i]
		if rule.MatchIndex(desired, rule.IgnoreTuple(attrs)) >= 0 {
			e.log.Info("ignoring excluded live rule", "id", id, "name", attrs.DisplayName)
			rep.add(Action{Phase: 1, Kind: ActionIgnored, RuleID: id, DisplayName: attrs.DisplayName, Note: "operator exclusion"})
			rep.Ignored++
			continue
		}
		if !lv.Enabled() {
			e.log.Debug("orphan already disabled", "id", id, "name", attrs.DisplayName)
			continue
		}

		e.log.Warn("disabling orphan rule", "id", id, "name", attrs.DisplayName)
		a := Action{
			Phase: 1, Kind: ActionDisabled, RuleID: id, DisplayName: attrs.DisplayName,
			Attr: rule.AttrEnabled, Before: attrs.Enabled, After: rule.False, Note: "orphan",
		}
		if err := e.setAttr(id, rule.AttrEnabled, []string{rule.False}); err != nil {
			a.Kind, a.Err = ActionFailed, err
			rep.Failed++
			e.log.Error("failed to disable orphan", "id", id, "error", err)
		} else {
			rep.Disabled++
		}
		rep.add(a)
	}
}

// applyFull is phase 2: create or update every desired record, walking
// the full attribute table per matched rule.
func (e *Engine) applyFull(rep *Report, records []snapshot.Record, live []store.Live, liveAttrs []rule.Rule) error {
	for _, rec := range records {
		if rec.IsExcluded() {
			e.log.Info("skipping excluded record", "name", rec.DisplayName)
			rep.add(Action{Phase: 2, Kind: ActionIgnored, RuleID: rec.ID, DisplayName: rec.DisplayName, Note: "excluded record"})
			rep.Ignored++
			continue
		}
		idx := rule.MatchIndex(liveAttrs, rule.Constraints{rule.AttrID: rec.ID})
		if idx < 0 {
			e.create(rep, rec)
			continue
		}
		if err := e.reconcileRule(rep, rec, live[idx]); err != nil {
			return err
		}
	}
	return nil
}

// applyFast is phase 2 under fast mode: one cheap state enumeration,
// Enabled comparisons only. Records absent from the enumeration go down
// the normal creation path.
func (e *Engine) applyFast(rep *Report, records []snapshot.Record, scope store.Filter) error {
	states, err := e.store.EnumerateStates(scope)
	if err != nil {
		return fmt.Errorf("enumerating rule states: %w", err)
	}
	byID := make(map[string]store.Partial, len(states))
	for _, p := range states {
		byID[p.ID()] = p
	}

	for _, rec := range records {
		if rec.IsExcluded() {
			e.log.Info("skipping excluded record", "name", rec.DisplayName)
			rep.add(Action{Phase: 2, Kind: ActionIgnored, RuleID: rec.ID, DisplayName: rec.DisplayName, Note: "excluded record"})
			rep.Ignored++
			continue
		}
		p, ok := byID[rec.ID]
		if !ok {
			e.create(rep, rec)
			continue
		}
		e.reconcileEnabled(rep, rec, p)
	}
	return nil
}

// create validates a desired record as a creation template and builds a
// new live rule from it. Templates holding wildcard patterns carry no
// concrete value to create from, so they are rejected.
func (e *Engine) create(rep *Report, rec snapshot.Record) {
	if pats := rec.PatternAttrs(); len(pats) > 0 {
		e.log.Error("rejecting creation template with wildcard values",
			"id", rec.ID, "name", rec.DisplayName, "attrs", fmt.Sprint(pats))
		rep.add(Action{
			Phase: 2, Kind: ActionRejected, RuleID: rec.ID, DisplayName: rec.DisplayName,
			Note: fmt.Sprintf("wildcard in %v", pats),
		})
		rep.Rejected++
		return
	}

	e.log.Info("creating rule", "id", rec.ID, "name", rec.DisplayName)
	a := Action{Phase: 2, Kind: ActionCreated, RuleID: rec.ID, DisplayName: rec.DisplayName}
	if !e.dryRun {
		created, err := e.store.Create(creationTemplate(rec))
		if err != nil {
			a.Kind, a.Err = ActionFailed, err
			rep.Failed++
			e.log.Error("failed to create rule", "id", rec.ID, "name", rec.DisplayName, "error", err)
			rep.add(a)
			return
		}
		if a.RuleID == "" {
			a.RuleID = created.ID()
		}
	}
	rep.add(a)
	rep.Created++
}

// creationTemplate keeps only the concrete fields of a desired record.
// Ignore-tagged fields stay untouched on create just as they do on
// update, which here means left to the store's defaults.
func creationTemplate(rec snapshot.Record) rule.Rule {
	r := rule.Rule{ID: rec.ID}
	for _, info := range rule.Mutable() {
		if v := rec.Value(info.Attr); v.Kind == rule.Literal {
			info.Set(&r, v.Text)
		}
	}
	return r
}

// setAttr is the dry-run-aware store write.
func (e *Engine) setAttr(id string, attr rule.Attr, values []string) error {
	if e.dryRun {
		return nil
	}
	return e.store.SetAttribute(id, attr, values)
}

// scopeFilter converts the snapshot's capture scope into a store filter.
func scopeFilter(s snapshot.Scope) store.Filter {
	return store.Filter{
		DisplayName: s.DisplayName,
		Group:       s.Group,
		Enabled:     s.Enabled,
		Profile:     s.Profile,
		Direction:   s.Direction,
		Action:      s.Action,
	}
}

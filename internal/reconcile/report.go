package reconcile

import (
	"fmt"
	"time"

	"grimm.is/rime/internal/rule"
)

// ActionKind classifies one engine decision.
type ActionKind string

const (
	// ActionIgnored covers operator exclusions: an ignore-tag record, an
	// ignore-tag attribute, or a live rule matched by an ignore tuple.
	ActionIgnored ActionKind = "ignored"
	// ActionUpdated is one attribute write (renames included).
	ActionUpdated ActionKind = "updated"
	// ActionCreated is a new rule built from a desired record.
	ActionCreated ActionKind = "created"
	// ActionRejected is a creation template refused for holding wildcards.
	ActionRejected ActionKind = "rejected"
	// ActionDisabled is a forced Enabled=False: an orphan in phase 1, or
	// wildcard-mismatch containment in phase 2.
	ActionDisabled ActionKind = "disabled"
	// ActionFailed is a store mutation error; the run continues.
	ActionFailed ActionKind = "failed"
)

// Action is one decision, recorded in execution order. In dry-run mode
// the same actions are recorded; only the store calls are suppressed.
type Action struct {
	Phase       int
	Kind        ActionKind
	RuleID      string
	DisplayName string
	Attr        rule.Attr
	Before      string
	After       string
	Note        string
	Err         error
}

func (a Action) String() string {
	s := fmt.Sprintf("phase%d %s %s", a.Phase, a.Kind, a.RuleID)
	if a.Attr != "" {
		s += fmt.Sprintf(" %s: %q -> %q", a.Attr, a.Before, a.After)
	}
	if a.Note != "" {
		s += " (" + a.Note + ")"
	}
	if a.Err != nil {
		s += ": " + a.Err.Error()
	}
	return s
}

// Mutating reports whether the action is (or, under dry-run, would be) a
// store write.
func (a Action) Mutating() bool {
	switch a.Kind {
	case ActionUpdated, ActionCreated, ActionDisabled:
		return true
	}
	return false
}

// Report is the outcome of one reconciliation run.
type Report struct {
	DryRun   bool
	Fast     bool
	Started  time.Time
	Finished time.Time
	Actions  []Action

	// Record-level tallies. Disabled and Ignored also count phase 1
	// orphan handling.
	Disabled  int
	Ignored   int
	Updated   int
	Unchanged int
	Created   int
	Rejected  int
	Failed    int
}

func (r *Report) add(a Action) {
	r.Actions = append(r.Actions, a)
}

// Mutations counts the store writes the run performed, or would have
// performed under dry-run.
func (r *Report) Mutations() int {
	n := 0
	for _, a := range r.Actions {
		if a.Mutating() {
			n++
		}
	}
	return n
}

// Summary renders the one-line run outcome.
func (r *Report) Summary() string {
	s := fmt.Sprintf("%d updated, %d created, %d disabled, %d unchanged, %d ignored, %d rejected, %d failed",
		r.Updated, r.Created, r.Disabled, r.Unchanged, r.Ignored, r.Rejected, r.Failed)
	if r.DryRun {
		s += " (dry run)"
	}
	return s
}

// Duration is the wall-clock span of the run.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"grimm.is/rime/internal/rule"
)

func TestReportSummary(t *testing.T) {
	r := &Report{Updated: 2, Created: 1, Disabled: 3, Unchanged: 10, Failed: 1}
	assert.Equal(t, "2 updated, 1 created, 3 disabled, 10 unchanged, 0 ignored, 0 rejected, 1 failed", r.Summary())

	r.DryRun = true
	assert.Contains(t, r.Summary(), "(dry run)")
}

func TestReportMutations(t *testing.T) {
	r := &Report{Actions: []Action{
		{Kind: ActionUpdated},
		{Kind: ActionCreated},
		{Kind: ActionDisabled},
		{Kind: ActionIgnored},
		{Kind: ActionRejected},
		{Kind: ActionFailed},
	}}
	assert.Equal(t, 3, r.Mutations())
}

func TestReportDuration(t *testing.T) {
	start := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	r := &Report{Started: start, Finished: start.Add(1500 * time.Millisecond)}
	assert.Equal(t, 1500*time.Millisecond, r.Duration())
}

func TestActionString(t *testing.T) {
	a := Action{Phase: 2, Kind: ActionUpdated, RuleID: "r1", Attr: rule.AttrLocalPort, Before: "80", After: "80, 443"}
	assert.Equal(t, `phase2 updated r1 LocalPort: "80" -> "80, 443"`, a.String())

	a = Action{Phase: 1, Kind: ActionDisabled, RuleID: "r2", Attr: rule.AttrEnabled, Before: "True", After: "False", Note: "orphan"}
	assert.Equal(t, `phase1 disabled r2 Enabled: "True" -> "False" (orphan)`, a.String())

	a = Action{Phase: 2, Kind: ActionFailed, RuleID: "r3", Err: errors.New("boom")}
	assert.Equal(t, "phase2 failed r3: boom", a.String())
}

package journal

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/rime/internal/reconcile"
	"grimm.is/rime/internal/rule"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleReport(started time.Time) *reconcile.Report {
	return &reconcile.Report{
		Started:   started,
		Finished:  started.Add(3 * time.Second),
		Updated:   1,
		Created:   1,
		Disabled:  1,
		Unchanged: 2,
		Failed:    1,
		Actions: []reconcile.Action{
			{Phase: 1, Kind: reconcile.ActionDisabled, RuleID: "orphan-1", Attr: rule.AttrEnabled, Before: "True", After: "False", Note: "orphan"},
			{Phase: 2, Kind: reconcile.ActionUpdated, RuleID: "r1", DisplayName: "Web (TCP-In)", Attr: rule.AttrLocalPort, Before: "80", After: "80, 443"},
			{Phase: 2, Kind: reconcile.ActionCreated, RuleID: "r2"},
			{Phase: 2, Kind: reconcile.ActionFailed, RuleID: "r3", Attr: rule.AttrGroup, Err: errors.New("access denied")},
		},
	}
}

func TestRecordAndReadBack(t *testing.T) {
	j := newTestJournal(t)
	started := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	id, err := j.Record("/etc/rime/rules.csv", "2.0", sampleReport(started))
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err, "run IDs are uuids")

	runs, err := j.Runs(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	r := runs[0]
	assert.Equal(t, id, r.ID)
	assert.Equal(t, "/etc/rime/rules.csv", r.Snapshot)
	assert.Equal(t, "2.0", r.Version)
	assert.WithinDuration(t, started, r.Started, time.Second)
	assert.WithinDuration(t, started.Add(3*time.Second), r.Finished, time.Second)
	assert.Equal(t, 1, r.Updated)
	assert.Equal(t, 1, r.Created)
	assert.Equal(t, 1, r.Disabled)
	assert.Equal(t, 2, r.Unchanged)
	assert.Equal(t, 1, r.Failed)
	assert.False(t, r.DryRun)

	actions, err := j.Actions(id)
	require.NoError(t, err)
	require.Len(t, actions, 4)
	assert.Equal(t, 0, actions[0].Seq)
	assert.Equal(t, "disabled", actions[0].Kind)
	assert.Equal(t, "orphan-1", actions[0].RuleID)
	assert.Equal(t, "Enabled", actions[0].Attr)
	assert.Equal(t, "True", actions[0].Before)
	assert.Equal(t, "False", actions[0].After)
	assert.Equal(t, "orphan", actions[0].Note)
	assert.Equal(t, "Web (TCP-In)", actions[1].DisplayName)
	assert.Equal(t, "access denied", actions[3].Error)
}

func TestRunsNewestFirstAndLimited(t *testing.T) {
	j := newTestJournal(t)
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := j.Record("rules.csv", "2.0", sampleReport(base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	runs, err := j.Runs(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].Started.After(runs[1].Started))
}

func TestGet(t *testing.T) {
	j := newTestJournal(t)
	id, err := j.Record("rules.csv", "2.0", sampleReport(time.Now()))
	require.NoError(t, err)

	r, err := j.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, r.ID)
}

func TestGetUnknownRun(t *testing.T) {
	j := newTestJournal(t)
	_, err := j.Get("no-such-run")
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestDryRunFlagRoundTrips(t *testing.T) {
	j := newTestJournal(t)
	rep := sampleReport(time.Now())
	rep.DryRun = true
	rep.Fast = true
	id, err := j.Record("rules.csv", "2.0", rep)
	require.NoError(t, err)

	r, err := j.Get(id)
	require.NoError(t, err)
	assert.True(t, r.DryRun)
	assert.True(t, r.Fast)
	assert.Contains(t, r.Summary(), "(dry run)")
}

func TestPruneRemovesOldRunsWithActions(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), 30)
	require.NoError(t, err)
	defer j.Close()

	oldID, err := j.Record("rules.csv", "2.0", sampleReport(time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = j.Record("rules.csv", "2.0", sampleReport(time.Now()))
	require.NoError(t, err)

	removed, err := j.Prune()
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	count, err := j.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	actions, err := j.Actions(oldID)
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestSummary(t *testing.T) {
	r := Run{Updated: 2, Created: 1, Unchanged: 5}
	assert.Equal(t, "2 updated, 1 created, 0 disabled, 5 unchanged, 0 ignored, 0 rejected, 0 failed", r.Summary())
}

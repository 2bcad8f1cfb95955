package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchByID(t *testing.T) {
	rules := []Rule{
		{ID: "a", DisplayName: "Alpha"},
		{ID: "b", DisplayName: "Beta"},
	}

	got, ok := Match(rules, Constraints{AttrID: "b"})
	require.True(t, ok)
	assert.Equal(t, "Beta", got.DisplayName)

	_, ok = Match(rules, Constraints{AttrID: "c"})
	assert.False(t, ok)
}

func TestMatchConjunction(t *testing.T) {
	rules := []Rule{
		{ID: "a", Direction: "Inbound", Action: "Allow"},
		{ID: "b", Direction: "Inbound", Action: "Block"},
	}

	got, ok := Match(rules, Constraints{AttrDirection: "Inbound", AttrAction: "Block"})
	require.True(t, ok)
	assert.Equal(t, "b", got.ID)

	// All constraints must hold
	_, ok = Match(rules, Constraints{AttrDirection: "Outbound", AttrAction: "Block"})
	assert.False(t, ok)
}

func TestMatchFirstWins(t *testing.T) {
	rules := []Rule{
		{ID: "a", Group: "G"},
		{ID: "b", Group: "G"},
	}
	assert.Equal(t, 0, MatchIndex(rules, Constraints{AttrGroup: "G"}))
}

func TestMatchEmptyConstraints(t *testing.T) {
	rules := []Rule{{ID: "a"}, {ID: "b"}}
	// No constraints means everything matches; first wins.
	assert.Equal(t, 0, MatchIndex(rules, Constraints{}))

	assert.Equal(t, -1, MatchIndex(nil, Constraints{AttrID: "a"}))
}

func TestMatchIsExact(t *testing.T) {
	rules := []Rule{{ID: "a", DisplayName: "Remote Desktop"}}
	_, ok := Match(rules, Constraints{AttrDisplayName: "remote desktop"})
	assert.False(t, ok, "matching is case-sensitive")
	_, ok = Match(rules, Constraints{AttrDisplayName: "Remote"})
	assert.False(t, ok, "matching is whole-value, not substring")
}

func TestIgnoreTuple(t *testing.T) {
	live := Rule{
		ID:          "live-1",
		DisplayName: "Legacy Agent",
		Group:       "Legacy",
		Enabled:     "True",
		Direction:   "Inbound",
		Action:      "Allow",
		LocalPort:   "9000",
	}
	want := IgnoreTuple(live)

	assert.Equal(t, IgnoreTag, want[AttrID])
	assert.Equal(t, "Legacy Agent", want[AttrDisplayName])
	assert.Len(t, want, len(Fields()))

	// A desired record mirroring the live attributes under the ignore tag
	// is found; changing any attribute breaks the match.
	excluded := live
	excluded.ID = IgnoreTag
	desired := []Rule{{ID: "other"}, excluded}

	idx := MatchIndex(desired, want)
	require.Equal(t, 1, idx)

	live.LocalPort = "9001"
	idx = MatchIndex(desired, IgnoreTuple(live))
	assert.Equal(t, -1, idx)
}

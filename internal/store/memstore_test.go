package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/rime/internal/rule"
)

func TestMemStoreEnumerateOrder(t *testing.T) {
	s := NewMemStore(
		rule.Rule{ID: "b", Enabled: "True"},
		rule.Rule{ID: "a", Enabled: "False"},
		rule.Rule{ID: "c", Enabled: "True"},
	)

	live, err := s.Enumerate(Filter{})
	require.NoError(t, err)
	require.Len(t, live, 3)
	assert.Equal(t, "b", live[0].ID())
	assert.Equal(t, "a", live[1].ID())
	assert.Equal(t, "c", live[2].ID())

	enabled, err := s.Enumerate(Filter{Enabled: "True"})
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	assert.Equal(t, "b", enabled[0].ID())
	assert.Equal(t, "c", enabled[1].ID())
}

func TestMemStoreEnumerateStates(t *testing.T) {
	s := NewMemStore(
		rule.Rule{ID: "a", Enabled: "True"},
		rule.Rule{ID: "b", Enabled: "False"},
	)

	states, err := s.EnumerateStates(Filter{})
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.True(t, states[0].Enabled())
	assert.False(t, states[1].Enabled())
}

func TestMemStoreGetByID(t *testing.T) {
	s := NewMemStore(rule.Rule{ID: "a", DisplayName: "Alpha"})

	got, err := s.GetByID("a")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Attributes().DisplayName)

	_, err = s.GetByID("zzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreCreate(t *testing.T) {
	s := NewMemStore()

	created, err := s.Create(rule.Rule{ID: "r1", DisplayName: "New"})
	require.NoError(t, err)
	assert.Equal(t, "r1", created.ID())
	assert.Equal(t, 1, s.Count())

	// Empty ID gets a store-assigned one
	anon, err := s.Create(rule.Rule{DisplayName: "Anon"})
	require.NoError(t, err)
	assert.NotEmpty(t, anon.ID())

	// Duplicate IDs are rejected
	_, err = s.Create(rule.Rule{ID: "r1"})
	assert.Error(t, err)
	assert.Equal(t, 2, s.Count())

	ops := s.Ops()
	require.Len(t, ops, 2)
	assert.Equal(t, OpCreate, ops[0].Kind)
}

func TestMemStoreSetAttribute(t *testing.T) {
	s := NewMemStore(rule.Rule{ID: "a", LocalPort: "80"})

	require.NoError(t, s.SetAttribute("a", rule.AttrLocalPort, []string{"80", "443"}))
	got, ok := s.Rule("a")
	require.True(t, ok)
	assert.Equal(t, "80, 443", got.LocalPort)

	require.NoError(t, s.SetAttribute("a", rule.AttrEnabled, []string{"False"}))
	got, _ = s.Rule("a")
	assert.Equal(t, "False", got.Enabled)

	assert.ErrorIs(t, s.SetAttribute("nope", rule.AttrEnabled, []string{"True"}), ErrNotFound)
	assert.Error(t, s.SetAttribute("a", rule.AttrID, []string{"b"}), "ID is immutable")
	assert.Error(t, s.SetAttribute("a", rule.Attr("Bogus"), []string{"x"}))
}

func TestMemStoreRename(t *testing.T) {
	s := NewMemStore(rule.Rule{ID: "a", DisplayName: "Old"})

	require.NoError(t, s.Rename("a", "New"))
	got, _ := s.Rule("a")
	assert.Equal(t, "New", got.DisplayName)

	assert.ErrorIs(t, s.Rename("zzz", "X"), ErrNotFound)

	ops := s.Ops()
	require.Len(t, ops, 1)
	assert.Equal(t, OpRename, ops[0].Kind)
	assert.Equal(t, "rename a to New", ops[0].String())
}

func TestMemStoreFailureInjection(t *testing.T) {
	s := NewMemStore(rule.Rule{ID: "a", Enabled: "True"})
	boom := errors.New("transient os error")
	s.FailWith(OpSet, "a", boom)

	err := s.SetAttribute("a", rule.AttrEnabled, []string{"False"})
	assert.ErrorIs(t, err, boom)

	// The failed mutation must not apply or reach the log
	got, _ := s.Rule("a")
	assert.Equal(t, "True", got.Enabled)
	assert.Empty(t, s.Ops())

	// Failures are one-shot
	require.NoError(t, s.SetAttribute("a", rule.AttrEnabled, []string{"False"}))
}

func TestMemStoreSeedAssignsIDs(t *testing.T) {
	s := NewMemStore(rule.Rule{DisplayName: "NoID"})
	live, err := s.Enumerate(Filter{})
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.NotEmpty(t, live[0].ID())
	assert.Empty(t, s.Ops(), "seeding is not logged")
}

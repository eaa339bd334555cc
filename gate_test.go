package autoload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditions(t *testing.T) {
	var c Conditions
	assert.Equal(t, 0, c.Count())
	assert.Equal(t, "[]", c.String())

	c.Set(CondTargetPresent)
	c.Set(CondEnabled)
	assert.True(t, c.Has(CondTargetPresent))
	assert.False(t, c.Has(CondRegistryPopulated))
	assert.Equal(t, []Condition{CondRegistryPopulated, CondSettingsLoaded}, c.Missing())
	assert.Equal(t, "[target_present enabled]", c.String())

	assert.Equal(t, 2, c.Count())
	assert.False(t, c.ContainsAll(Conditions(condAll)))
}

func TestGateStates(t *testing.T) {
	target := newTarget()
	h := probe(t, target)
	store := NewStore()

	var current *Handle
	gate := NewGate(func() *Handle { return current }, store, DefaultMembers().Registry)

	v := gate.Evaluate()
	assert.Equal(t, TargetAbsent, v.State)
	assert.ErrorIs(t, v.Reason(), ErrTargetUnavailable)

	current = h
	v = gate.Evaluate()
	assert.Equal(t, RegistryEmpty, v.State)
	assert.ErrorIs(t, v.Reason(), ErrNotReady)

	store.Set(testSettings(t.TempDir()))
	v = gate.Evaluate()
	assert.ErrorIs(t, v.Reason(), ErrNotReady)
	assert.False(t, v.Ready())

	target.setup.standardProfiles = map[string]struct{}{"default": {}}
	v = gate.Evaluate()
	require.True(t, v.Ready())
	assert.Equal(t, RegistryPopulated, v.State)
	assert.Equal(t, []string{"default"}, v.Profiles)
	assert.NoError(t, v.Reason())

	// The registry is re-read on every call.
	target.setup.standardProfiles = nil
	v = gate.Evaluate()
	assert.Equal(t, RegistryEmpty, v.State)
}

func TestGateDisabled(t *testing.T) {
	h := probe(t, newTarget("default"))
	store := NewStore()
	s := testSettings(t.TempDir())
	s.EnableAutoloader = false
	store.Set(s)

	v := NewGate(func() *Handle { return h }, store, DefaultMembers().Registry).Evaluate()
	assert.ErrorIs(t, v.Reason(), ErrDisabled)
	assert.Equal(t, RegistryPopulated, v.State)
}

func TestGateUnreadableRegistry(t *testing.T) {
	h := probe(t, newTarget("default"))
	store := NewStore()
	store.Set(testSettings(t.TempDir()))

	v := NewGate(func() *Handle { return h }, store, "setup.missing").Evaluate()
	assert.Equal(t, RegistryEmpty, v.State)
	assert.ErrorIs(t, v.Reason(), ErrNotReady)
}

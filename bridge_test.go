package autoload

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, target any) *Handle {
	t.Helper()
	log, _ := newTestLogger()
	systems := NewSystems().WithLogger(log)
	systems.Register(Static("lostcities", target))
	h, err := systems.Probe("lostcities")
	require.NoError(t, err)
	require.True(t, h.Available())
	return h
}

func TestProbeUnavailable(t *testing.T) {
	log, buf := newTestLogger()
	systems := NewSystems().WithLogger(log)

	systems.Register(Static("value", lcTarget{}))
	systems.Register(Static("nil", (*lcTarget)(nil)))
	systems.Register(Static("int", new(int)))
	systems.Register(ProviderFunc{ID: "panics", Fn: func() any { panic("boom") }})
	systems.Register(ProviderFunc{ID: "empty"})

	for _, id := range []string{"missing", "value", "nil", "int", "panics", "empty"} {
		t.Run(id, func(t *testing.T) {
			h, err := systems.Probe(id)
			assert.Nil(t, h)
			assert.ErrorIs(t, err, ErrTargetUnavailable)
		})
	}
	assert.Contains(t, buf.String(), "target system not available")
	assert.False(t, systems.IsLoaded("empty"))
	assert.Equal(t, []string{"empty", "int", "nil", "panics", "value"}, systems.Names())
}

func TestHandleGetSet(t *testing.T) {
	target := newTarget("default", "tallbuildings")
	h := probe(t, target)

	got, err := GetAs[string](h, "cfg.profileFromClient")
	require.NoError(t, err)
	assert.Equal(t, "default", got)

	require.NoError(t, h.Set("cfg.profileFromClient", "tallbuildings"))
	assert.Equal(t, "tallbuildings", target.cfg.profileFromClient)

	// Reads are live, not cached.
	target.cfg.profileFromClient = "changed"
	got, err = GetAs[string](h, "cfg.profileFromClient")
	require.NoError(t, err)
	assert.Equal(t, "changed", got)

	// Integer writes convert across widths.
	require.NoError(t, h.Set("feature.globalDimensionInfoDirtyCounter", int64(7)))
	assert.Equal(t, 7, target.feature.globalDimensionInfoDirtyCounter)

	// nil stores the zero value.
	require.NoError(t, h.Set("cfg.jsonFromClient", nil))
	assert.Empty(t, target.cfg.jsonFromClient)
}

func TestHandleGetReturnsCopies(t *testing.T) {
	target := newTarget("default")
	target.cfg.dimensionsWithProfiles = []string{"a=default"}
	h := probe(t, target)

	list, err := GetAs[[]string](h, "cfg.dimensionsWithProfiles")
	require.NoError(t, err)
	list[0] = "mutated"
	assert.Equal(t, []string{"a=default"}, target.cfg.dimensionsWithProfiles)
}

func TestHandleErrors(t *testing.T) {
	h := probe(t, newTarget("default"))

	_, err := h.Get("cfg.missing")
	assert.ErrorIs(t, err, ErrAccess)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = GetAs[int](h, "cfg.profileFromClient")
	assert.ErrorIs(t, err, ErrAccess)
	assert.False(t, errors.Is(err, ErrUnsupported))

	err = h.Set("cfg.profileFromClient", 42)
	assert.ErrorIs(t, err, ErrAccess)

	_, err = h.Keys("cfg.profileFromClient")
	assert.ErrorIs(t, err, ErrAccess)

	var nilHandle *Handle
	_, err = nilHandle.Get("cfg.profileFromClient")
	assert.ErrorIs(t, err, ErrTargetUnavailable)
	assert.False(t, nilHandle.Available())
}

func TestHandleKeys(t *testing.T) {
	target := newTarget()
	h := probe(t, target)

	keys, err := h.Keys("setup.standardProfiles")
	require.NoError(t, err)
	assert.Empty(t, keys)

	target.setup.standardProfiles = map[string]struct{}{"tallbuildings": {}, "default": {}}
	keys, err = h.Keys("setup.standardProfiles")
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "tallbuildings"}, keys)
}

type hookTarget struct {
	cfg struct {
		name string
	}
	onReset func()
	failing func() error
}

func (t *hookTarget) Fail() error {
	return errors.New("refused")
}

func (t *hookTarget) Panic() {
	panic("hook panicked")
}

func TestHandleInvoke(t *testing.T) {
	target := newTarget("default")
	h := probe(t, target)

	require.NoError(t, h.Invoke("ResetProfileCache"))
	require.NoError(t, h.Invoke("ResetProfileCache,opt"))
	assert.Equal(t, 2, target.resets)

	err := h.Invoke("RefreshEverything")
	assert.ErrorIs(t, err, ErrUnsupported)

	err = h.Invoke("ResetProfileCache", "unexpected")
	assert.ErrorIs(t, err, ErrAccess)
}

func TestHandleInvokeHooks(t *testing.T) {
	calls := 0
	target := &hookTarget{onReset: func() { calls++ }}
	h := probe(t, target)

	require.NoError(t, h.Invoke("onReset"))
	assert.Equal(t, 1, calls)

	assert.ErrorIs(t, h.Invoke("failing"), ErrUnsupported)
	assert.ErrorIs(t, h.Invoke("Fail"), ErrAccess)
	assert.ErrorIs(t, h.Invoke("Panic"), ErrAccess)

	assert.True(t, h.Has("cfg.name"))
	assert.True(t, h.Has("Fail"))
	assert.False(t, h.Has("cfg.other"))
}

func TestSelector(t *testing.T) {
	tests := []struct {
		in   string
		want Selector
	}{
		{"cfg.profileFromClient", Selector{Path: "cfg.profileFromClient"}},
		{"ResetProfileCache,opt", Selector{Path: "ResetProfileCache", Optional: true}},
		{" feature.counter , opt ", Selector{Path: "feature.counter", Optional: true}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseSelector(tt.in)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "a.b,opt", Selector{Path: "a.b", Optional: true}.String())
}

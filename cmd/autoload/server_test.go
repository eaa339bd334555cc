package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/df-mc/dragonfly/server/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oriumgames/autoload"
	"github.com/oriumgames/autoload/internal/citygen"
)

func newTestHost(t *testing.T) (*host, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	log := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "survival_cities.json"),
		[]byte(`{"profile": "tallbuildings"}`), 0o644))

	s := autoload.DefaultSettings()
	s.ProfileDirectory = dir
	s.TargetConfigPath = ""
	store := autoload.NewStore().WithLogger(log)
	store.Set(s)

	sys := citygen.NewSystem(log)
	systems := autoload.NewSystems()
	systems.Register(autoload.Static(s.TargetSystem, sys))

	eng, sp := autoload.NewBuilder().
		Systems(systems).
		Settings(store).
		Logger(log).
		Metrics(prometheus.NewRegistry()).
		Init()
	return &host{store: store, system: sys, engine: eng, spawner: sp}, buf
}

func TestLevelGeneratorFiresLevelLoad(t *testing.T) {
	h, buf := newTestHost(t)
	gen := levelGenerator(h, nil, 1)

	// The registry is empty until the overworld generator is requested.
	h.engine.Trigger(autoload.Starting)
	assert.NotContains(t, buf.String(), "applied profile")

	g := gen(world.Overworld)
	require.IsType(t, &citygen.Generator{}, g)
	assert.Equal(t, autoload.Overworld, g.(*citygen.Generator).Dimension())
	assert.Contains(t, buf.String(), "trigger=LevelLoad")
	assert.Contains(t, buf.String(), "applied profile")
	assert.Equal(t, citygen.StandardProfiles()["tallbuildings"].MaxFloors,
		h.system.Profile(autoload.Overworld).MaxFloors)
}

func TestLevelGeneratorFallback(t *testing.T) {
	h, buf := newTestHost(t)

	called := 0
	fallback := func(world.Dimension) world.Generator {
		called++
		return world.NopGenerator{}
	}
	gen := levelGenerator(h, fallback, 1)

	assert.Equal(t, world.NopGenerator{}, gen(world.Nether))
	assert.Equal(t, 1, called)
	assert.Contains(t, buf.String(), "trigger=LevelLoad")

	assert.Equal(t, world.NopGenerator{}, levelGenerator(h, nil, 1)(world.End))
}

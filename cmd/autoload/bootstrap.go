package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/oriumgames/autoload"
	"github.com/oriumgames/autoload/internal/citygen"
)

// starterFiles are written to a newly created profile directory.
var starterFiles = map[string]string{
	"example_preset.json": `{
    "profile": "default",
    "description": "Default profile - cities are generated normally",
    "settings": {
        "cityChance": 0.02,
        "cityRadius": 128,
        "generateLighting": true,
        "ruinChance": 0.1
    }
}
`,
	"custom_dimension_example.json": `{
    "profile": "tallbuildings",
    "description": "Example for a custom dimension - set lost_city_dimension in the settings file",
    "settings": {
        "cityChance": 0.1,
        "cityRadius": 200,
        "generateLighting": true,
        "ruinChance": 0.05,
        "maxFloors": 20
    }
}
`,
}

// host holds what every command needs.
type host struct {
	store   *autoload.Store
	system  *citygen.System
	engine  *autoload.Engine
	spawner *autoload.Spawner
}

// setup loads settings, prepares the profile directory and registers the
// generator as the target system.
func setup(opts *rootOptions, log *slog.Logger) (*host, error) {
	store := autoload.NewStore().WithLogger(log)
	if err := store.Load(opts.Settings); err != nil {
		return nil, err
	}
	s, _ := store.Settings()

	if err := bootstrap(log, s.ProfileDirectory); err != nil {
		log.Error("autoload: failed to prepare profile directory", "dir", s.ProfileDirectory, "error", err)
	}

	sys := citygen.NewSystem(log)
	systems := autoload.NewSystems()
	systems.Register(autoload.Static(s.TargetSystem, sys))

	eng, sp := autoload.NewBuilder().
		Systems(systems).
		Settings(store).
		Logger(log).
		Metrics(prometheus.DefaultRegisterer).
		Init()

	return &host{store: store, system: sys, engine: eng, spawner: sp}, nil
}

// bootstrap creates dir with starter files when it does not exist yet.
func bootstrap(log *slog.Logger, dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	log.Info("autoload: created profile directory", "dir", dir)

	for _, name := range slices.Sorted(maps.Keys(starterFiles)) {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(starterFiles[name]), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Info("autoload: created example profile", "file", path)
	}
	return nil
}

// profileFiles returns the base names of the profile files in dir.
func profileFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	slices.Sort(names)
	return names, nil
}

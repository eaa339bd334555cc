package autoload

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Engine applies the configured profile to the target system.
// It is driven entirely by the host: every lifecycle trigger calls SyncOnce,
// and the engine never retries or blocks on its own.
//
// Concurrency:
// The host delivers triggers one at a time, so the engine holds no locks. It
// reads and then writes the target's profile slot within one call and assumes
// nothing else writes it in between.
type Engine struct {
	// systems is where the target is probed from
	systems *Systems

	// systemID is the identifier of the target system
	systemID string

	// target is the probed target, nil while absent
	target *Handle

	// store holds the local settings
	store *Store

	// members names the target members
	members Members

	// gate evaluates readiness on every attempt
	gate *Gate

	log     *slog.Logger
	metrics *Metrics

	// malformed remembers the last profile file that failed to parse, only to
	// keep repeated triggers from logging the same error at Error level.
	malformed fileStamp
}

// fileStamp identifies one version of a file.
type fileStamp struct {
	path string
	size int64
	mod  time.Time
}

// newEngine creates an engine and probes the target once.
func newEngine(systems *Systems, systemID string, store *Store, members Members, log *slog.Logger, metrics *Metrics) *Engine {
	e := &Engine{
		systems:  systems,
		systemID: systemID,
		store:    store,
		members:  members,
		log:      log,
		metrics:  metrics,
	}
	e.gate = NewGate(e.Target, store, members.Registry)
	e.Reprobe()
	return e
}

// Target returns the probed target handle, or nil when absent.
func (e *Engine) Target() *Handle {
	return e.target
}

// Reprobe probes the target system again and reports whether it is present.
// Until this succeeds the engine treats the target as absent.
func (e *Engine) Reprobe() bool {
	h, err := e.systems.Probe(e.systemID)
	if err != nil {
		e.target = nil
		return false
	}
	e.target = h
	e.log.Debug("autoload: target system found", "system", e.systemID, "members", h.Meta().Paths())
	return true
}

// Trigger runs a sync attempt on behalf of a lifecycle trigger.
func (e *Engine) Trigger(t Trigger) {
	if t == Login {
		e.log.Debug("autoload: login trigger is handled by the spawner")
		return
	}
	e.log.Info("autoload: lifecycle trigger", "trigger", t.String())
	e.SyncOnce()
}

// SyncOnce performs one idempotent sync attempt. All outcomes are logged;
// nothing is returned because callers do not branch on success.
func (e *Engine) SyncOnce() {
	err := e.sync()
	e.metrics.sync(outcomeOf(err))
}

// Profiles returns the profile names currently in the target registry.
func (e *Engine) Profiles() []string {
	if !e.target.Available() {
		e.log.Info("autoload: target system not available")
		return nil
	}
	keys, err := e.target.Keys(e.members.Registry)
	if err != nil {
		e.log.Error("autoload: failed to list target profiles", "error", err)
		return nil
	}
	e.log.Info("autoload: available target profiles", "available", keys)
	return keys
}

// sync is one attempt. Every return path has already been logged.
func (e *Engine) sync() error {
	log := e.log.With("attempt", uuid.NewString())

	verdict := e.gate.Evaluate()
	if err := verdict.Reason(); err != nil {
		switch {
		case errors.Is(err, ErrTargetUnavailable):
			log.Info("autoload: target system not available - cannot apply profile", "system", e.systemID)
		case errors.Is(err, ErrDisabled):
			log.Info("autoload: autoloader is disabled in settings")
		default:
			log.Info("autoload: not ready, will retry later",
				"state", verdict.State.String(),
				"conditions_met", verdict.Conditions.Count(),
				"reason", err)
		}
		return err
	}
	log.Debug("autoload: target ready", "profiles", len(verdict.Profiles))

	s := verdict.Settings
	desc, err := e.resolve(log, s)
	if err != nil {
		return err
	}

	if _, found := slices.BinarySearch(verdict.Profiles, desc.Profile); !found {
		log.Warn("autoload: profile not found in target registry",
			"profile", desc.Profile,
			"available", verdict.Profiles,
			"file", desc.Path)
		return fmt.Errorf("%w: %q", ErrProfileNotFound, desc.Profile)
	}

	if err := e.apply(log, desc); err != nil {
		log.Error("autoload: failed to apply profile", "profile", desc.Profile, "error", err)
		return err
	}

	e.invalidate(log)

	if err := e.applyDimension(log, s, desc.Profile); err != nil {
		log.Warn("autoload: failed to apply dimension configuration", "dimension", s.LostCityDimension, "error", err)
	}

	log.Info("autoload: applied profile", "profile", desc.Profile, "file", desc.Path)
	return nil
}

// resolve reads the configured profile file.
func (e *Engine) resolve(log *slog.Logger, s Settings) (Descriptor, error) {
	desc, err := Resolve(s.ProfileDirectory, s.ConfigFileName)
	switch {
	case err == nil:
		e.malformed = fileStamp{}
		log.Info("autoload: loaded profile file", "file", desc.Path, "profile", desc.Profile)
		if desc.Description != "" {
			log.Debug("autoload: profile description", "description", desc.Description)
		}
		return desc, nil

	case errors.Is(err, ErrConfigNotFound):
		log.Info("autoload: no profile configured - nothing will be applied", "reason", err)

	case errors.Is(err, ErrConfigParse):
		stamp := stampOf(ProfilePath(s.ProfileDirectory, s.ConfigFileName))
		if stamp == e.malformed {
			log.Debug("autoload: profile file still malformed", "file", stamp.path)
		} else {
			e.malformed = stamp
			log.Error("autoload: malformed profile file", "file", stamp.path, "error", err)
		}
	}
	return Descriptor{}, err
}

// stampOf stats path.
func stampOf(path string) fileStamp {
	stamp := fileStamp{path: path}
	if info, err := os.Stat(path); err == nil {
		stamp.size = info.Size()
		stamp.mod = info.ModTime()
	}
	return stamp
}

// apply writes the profile name and, if present, the settings blob. Both slots
// are read before anything is written, and a failed settings write restores
// the previous profile, so consumers never observe a profile without the
// settings that came with it.
func (e *Engine) apply(log *slog.Logger, desc Descriptor) error {
	h := e.target

	current, err := GetAs[string](h, e.members.Profile)
	if err != nil {
		return err
	}

	var currentSettings string
	if desc.HasSettings {
		if currentSettings, err = GetAs[string](h, e.members.Settings); err != nil {
			return err
		}
	}

	log.Info("autoload: changing target profile", "current", current, "profile", desc.Profile)
	if err := h.Set(e.members.Profile, desc.Profile); err != nil {
		return err
	}

	if desc.HasSettings {
		log.Debug("autoload: current custom settings", "settings", currentSettings)
		if err := h.Set(e.members.Settings, desc.Settings); err != nil {
			if rerr := h.Set(e.members.Profile, current); rerr != nil {
				log.Error("autoload: failed to restore previous profile", "profile", current, "error", rerr)
			}
			return err
		}
		log.Info("autoload: applied custom settings", "profile", desc.Profile, "settings", desc.Settings)
	}

	if got, err := GetAs[string](h, e.members.Profile); err == nil {
		log.Debug("autoload: profile change verification", "profile", got)
	}
	return nil
}

// invalidate runs the cache hooks and bumps the dirty counter. Failures here
// never undo the apply.
func (e *Engine) invalidate(log *slog.Logger) {
	var errs error

	for _, hook := range e.members.Invalidate {
		err := e.target.Invoke(hook)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrUnsupported) && parseSelector(hook).Optional {
			log.Debug("autoload: cache hook not present", "hook", hook)
			continue
		}
		errs = multierr.Append(errs, err)
	}

	if e.members.DirtyCounter != "" {
		err := bumpCounter(e.target, e.members.DirtyCounter)
		if err != nil && !(errors.Is(err, ErrUnsupported) && parseSelector(e.members.DirtyCounter).Optional) {
			errs = multierr.Append(errs, err)
		}
	}

	if errs != nil {
		log.Debug("autoload: could not refresh target caches", "error", errs)
	}
}

// bumpCounter increments an integer member by one.
func bumpCounter(h *Handle, name string) error {
	v, err := h.Get(name)
	if err != nil {
		return err
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() || !isInt(rv.Type()) {
		return fmt.Errorf("%w: %s is %T, not an integer", ErrAccess, name, v)
	}

	next := reflect.New(rv.Type()).Elem()
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		next.SetUint(rv.Uint() + 1)
	default:
		next.SetInt(rv.Int() + 1)
	}
	return h.Set(name, next.Interface())
}

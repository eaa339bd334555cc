package autoload

import (
	"fmt"
)

// Members names the target-system members the engine relies on. Each entry
// is a selector understood by Handle (dotted path, optional ",opt").
type Members struct {
	// Profile is the mutable string slot holding the current profile name.
	Profile string

	// Settings is the mutable string slot holding the custom settings JSON.
	Settings string

	// Registry is the read-only map from profile name to profile definition.
	Registry string

	// Invalidate lists zero-argument cache reset hooks, invoked in order.
	Invalidate []string

	// DirtyCounter is an int bumped after a write to force derived caches to
	// be rebuilt.
	DirtyCounter string

	// DimensionProfiles is the mutable list of "<dimension>=<profile>" entries.
	DimensionProfiles string
}

// DefaultMembers returns the member layout of the Lost Cities generator.
func DefaultMembers() Members {
	return Members{
		Profile:           "cfg.profileFromClient",
		Settings:          "cfg.jsonFromClient",
		Registry:          "setup.standardProfiles",
		Invalidate:        []string{"ResetProfileCache,opt"},
		DirtyCounter:      "feature.globalDimensionInfoDirtyCounter,opt",
		DimensionProfiles: "cfg.dimensionsWithProfiles,opt",
	}
}

// GateState is the target-side readiness state.
type GateState int

const (
	// TargetAbsent means the target was never probed successfully.
	TargetAbsent GateState = iota
	// RegistryEmpty means the target is present but has no profiles yet.
	RegistryEmpty
	// RegistryPopulated means the target is present and has profiles.
	RegistryPopulated
)

// String returns the string representation of the state.
func (s GateState) String() string {
	switch s {
	case TargetAbsent:
		return "TargetAbsent"
	case RegistryEmpty:
		return "RegistryEmpty"
	case RegistryPopulated:
		return "RegistryPopulated"
	default:
		return "Unknown"
	}
}

// Verdict is the outcome of one readiness evaluation.
type Verdict struct {
	State      GateState
	Conditions Conditions

	// Profiles is the sorted registry key set, when the target is present.
	Profiles []string

	// Settings is the local settings snapshot, when loaded.
	Settings Settings
}

// Ready reports whether a sync attempt may proceed.
func (v Verdict) Ready() bool {
	return v.Conditions.ContainsAll(Conditions(condAll))
}

// Reason returns nil when ready, otherwise the error kind for the first
// unsatisfied condition.
func (v Verdict) Reason() error {
	switch {
	case !v.Conditions.Has(CondTargetPresent):
		return ErrTargetUnavailable
	case !v.Conditions.Has(CondSettingsLoaded):
		return fmt.Errorf("%w: settings not loaded", ErrNotReady)
	case !v.Conditions.Has(CondEnabled):
		return ErrDisabled
	case !v.Conditions.Has(CondRegistryPopulated):
		return fmt.Errorf("%w: profile registry is empty", ErrNotReady)
	}
	return nil
}

// Gate answers whether a sync attempt is safe right now. It keeps no state
// between evaluations: the registry in particular may be empty on one call and
// populated on the next.
type Gate struct {
	target   func() *Handle
	store    *Store
	registry string
}

// NewGate creates a gate over the handle returned by target and the settings
// in store.
func NewGate(target func() *Handle, store *Store, registry string) *Gate {
	return &Gate{target: target, store: store, registry: registry}
}

// Evaluate re-reads every condition.
func (g *Gate) Evaluate() Verdict {
	var v Verdict

	if s, ok := g.store.Settings(); ok {
		v.Conditions.Set(CondSettingsLoaded)
		v.Settings = s
		if s.EnableAutoloader {
			v.Conditions.Set(CondEnabled)
		}
	}

	h := g.target()
	if !h.Available() {
		v.State = TargetAbsent
		return v
	}
	v.Conditions.Set(CondTargetPresent)
	v.State = RegistryEmpty

	// A registry that cannot be read yet counts as empty.
	keys, err := h.Keys(g.registry)
	if err == nil && len(keys) > 0 {
		v.Conditions.Set(CondRegistryPopulated)
		v.State = RegistryPopulated
		v.Profiles = keys
	}
	return v
}

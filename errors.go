package autoload

import "errors"

// Error kinds reported by the synchronisation engine and the placement resolver.
// None of them is ever surfaced to the host: public entry points log and return.
var (
	// ErrTargetUnavailable means the target system is not loaded or could not be
	// introspected. It is permanent until the bridge is probed again.
	ErrTargetUnavailable = errors.New("autoload: target system unavailable")

	// ErrNotReady means the target is present but its profile registry is still
	// empty, or local settings have not been loaded yet. Expected during startup.
	ErrNotReady = errors.New("autoload: target not ready")

	// ErrDisabled means the autoloader is switched off in the settings.
	ErrDisabled = errors.New("autoload: disabled")

	// ErrConfigNotFound means the profile directory or file does not exist.
	ErrConfigNotFound = errors.New("autoload: profile config not found")

	// ErrConfigParse means the profile file is not valid JSON or lacks "profile".
	ErrConfigParse = errors.New("autoload: profile config malformed")

	// ErrProfileNotFound means the requested profile is not in the target registry.
	ErrProfileNotFound = errors.New("autoload: profile not found in target registry")

	// ErrAccess means a bridge read or write failed.
	ErrAccess = errors.New("autoload: target access failed")

	// ErrUnsupported means an optional member or hook does not exist on the target.
	ErrUnsupported = errors.New("autoload: target member unsupported")

	// ErrPlacementParse means spawn coordinates or facing could not be parsed.
	ErrPlacementParse = errors.New("autoload: malformed placement")

	// ErrDimensionNotFound means the configured spawn dimension has no world.
	ErrDimensionNotFound = errors.New("autoload: dimension not found")
)

package autoload

// Trigger identifies the host lifecycle point that invoked the engine.
// No single trigger is guaranteed to observe the target system ready, so the
// host fires all of them and the engine converges on whichever comes first.
type Trigger int

const (
	// PreStart fires after configs are loaded and before the server is created.
	PreStart Trigger = iota

	// Starting fires once the server exists but before it accepts players.
	Starting

	// LevelLoad fires every time a world is created or loaded.
	LevelLoad

	// Login fires for every joining player. It drives the Spawner, not the engine.
	Login
)

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	switch t {
	case PreStart:
		return "PreStart"
	case Starting:
		return "Starting"
	case LevelLoad:
		return "LevelLoad"
	case Login:
		return "Login"
	default:
		return "Unknown"
	}
}

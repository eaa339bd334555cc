package autoload

import (
	"math/bits"
	"strings"
)

// Condition is a single readiness condition.
type Condition uint8

const (
	// CondTargetPresent is set when the target system has been probed.
	CondTargetPresent Condition = 1 << iota
	// CondRegistryPopulated is set when the target's profile registry is non-empty.
	CondRegistryPopulated
	// CondSettingsLoaded is set when local settings have been loaded.
	CondSettingsLoaded
	// CondEnabled is set when the autoloader is enabled in the settings.
	CondEnabled

	// condAll is every condition required for a sync attempt.
	condAll = CondTargetPresent | CondRegistryPopulated | CondSettingsLoaded | CondEnabled
)

// String returns the string representation of the condition.
func (c Condition) String() string {
	switch c {
	case CondTargetPresent:
		return "target_present"
	case CondRegistryPopulated:
		return "registry_populated"
	case CondSettingsLoaded:
		return "settings_loaded"
	case CondEnabled:
		return "enabled"
	default:
		return "unknown"
	}
}

// Conditions is a bit set of satisfied readiness conditions.
type Conditions uint8

// Set sets the condition.
func (m *Conditions) Set(c Condition) {
	*m |= Conditions(c)
}

// Has returns true if the condition is set.
func (m Conditions) Has(c Condition) bool {
	return m&Conditions(c) != 0
}

// ContainsAll returns true if all bits set in other are also set in m.
func (m Conditions) ContainsAll(other Conditions) bool {
	return m&other == other
}

// Missing returns the conditions required for a sync attempt that are not
// satisfied, in evaluation order.
func (m Conditions) Missing() []Condition {
	var out []Condition
	for c := CondTargetPresent; c <= CondEnabled; c <<= 1 {
		if !m.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Count returns the number of conditions set.
func (m Conditions) Count() int {
	return bits.OnesCount8(uint8(m))
}

// String lists the satisfied conditions.
func (m Conditions) String() string {
	var names []string
	for c := CondTargetPresent; c <= CondEnabled; c <<= 1 {
		if m.Has(c) {
			names = append(names, c.String())
		}
	}
	return "[" + strings.Join(names, " ") + "]"
}

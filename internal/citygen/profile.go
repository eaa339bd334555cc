package citygen

import (
	"encoding/json"
	"fmt"
)

// Profile controls how cities are generated.
type Profile struct {
	Description string `json:"description,omitempty"`

	// CityChance is the chance that a city cell contains a city.
	CityChance float64 `json:"cityChance"`

	// CityRadius is the radius of a city in blocks.
	CityRadius int `json:"cityRadius"`

	// MinFloors and MaxFloors bound building heights.
	MinFloors int `json:"minFloors"`
	MaxFloors int `json:"maxFloors"`

	// GenerateLighting places glowstone on roofs.
	GenerateLighting bool `json:"generateLighting"`

	// RuinChance is the chance that a building is ruined.
	RuinChance float64 `json:"ruinChance"`
}

// StandardProfiles returns the built-in profiles.
func StandardProfiles() map[string]Profile {
	return map[string]Profile{
		"default": {
			Description:      "Standard cities",
			CityChance:       0.02,
			CityRadius:       128,
			MinFloors:        1,
			MaxFloors:        6,
			GenerateLighting: true,
			RuinChance:       0.1,
		},
		"tallbuildings": {
			Description:      "Cities with very tall buildings",
			CityChance:       0.02,
			CityRadius:       128,
			MinFloors:        4,
			MaxFloors:        16,
			GenerateLighting: true,
			RuinChance:       0.05,
		},
		"rarecities": {
			Description: "Few cities far apart",
			CityChance:  0.005,
			CityRadius:  96,
			MinFloors:   1,
			MaxFloors:   4,
			RuinChance:  0.1,
		},
		"nocities": {
			Description: "Plain terrain without cities",
		},
	}
}

// withOverrides returns p with the fields present in raw replaced.
func (p Profile) withOverrides(raw string) (Profile, error) {
	if raw == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return p, fmt.Errorf("citygen: custom settings: %w", err)
	}
	return p.clamped(), nil
}

// clamped fixes values that would break generation.
func (p Profile) clamped() Profile {
	p.CityChance = min(max(p.CityChance, 0), 1)
	p.RuinChance = min(max(p.RuinChance, 0), 1)
	p.CityRadius = max(p.CityRadius, 16)
	p.MinFloors = max(p.MinFloors, 1)
	p.MaxFloors = max(p.MaxFloors, p.MinFloors)
	return p
}

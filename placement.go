package autoload

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// placementTolerance is the per-axis distance below which a player already
// counts as placed.
const placementTolerance = 1.0

// PlacementSpec is the resolved destination of a joining player.
type PlacementSpec struct {
	Dimension string

	// Coordinates is the destination. HasCoordinates is false when it came
	// from the fallback position.
	Coordinates    mgl64.Vec3
	HasCoordinates bool

	// Yaw is the internal rotation. HasFacing is false when it came from the
	// fallback rotation.
	Yaw       float64
	HasFacing bool
}

// Location is where a player currently is.
type Location struct {
	Dimension string
	Position  mgl64.Vec3
	Yaw       float64
}

// ParseCoordinates parses "x,y,z". Blank input is not valid here; callers
// check for it first.
func ParseCoordinates(s string) (mgl64.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("%w: coordinates %q need 3 components, got %d", ErrPlacementParse, s, len(parts))
	}

	var v mgl64.Vec3
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return mgl64.Vec3{}, fmt.Errorf("%w: coordinates %q: component %d is not a number", ErrPlacementParse, s, i)
		}
		v[i] = f
	}
	return v, nil
}

// ParseFacing parses a facing angle in degrees.
func ParseFacing(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: facing %q is not a number", ErrPlacementParse, s)
	}
	return f, nil
}

// YawFromDegrees converts a compass facing (0 north, 90 east) into the
// internal yaw, whose zero points south. The result is in [0, 360).
func YawFromDegrees(deg float64) float64 {
	yaw := math.Mod(deg-180, 360)
	if yaw < 0 {
		yaw += 360
	}
	// Tiny negatives round up to 360.
	if yaw >= 360 {
		yaw = 0
	}
	return yaw + 0 // no negative zero
}

// ShouldTransfer reports whether a player at current must be moved to spec.
// The move is skipped only for a player already in the target dimension and
// strictly within placementTolerance of configured coordinates on every axis.
func ShouldTransfer(spec PlacementSpec, current Location) bool {
	if spec.Dimension != current.Dimension || !spec.HasCoordinates {
		return true
	}
	for i := range 3 {
		if math.Abs(spec.Coordinates[i]-current.Position[i]) >= placementTolerance {
			return true
		}
	}
	return false
}

// resolvePlacement builds a placement from the configured strings. Malformed values
// are logged and replaced by the fallbacks; it never fails.
func resolvePlacement(log *slog.Logger, dim, coords, facing string, fallbackPos mgl64.Vec3, fallbackYaw float64) PlacementSpec {
	spec := PlacementSpec{
		Dimension:   dim,
		Coordinates: fallbackPos,
		Yaw:         fallbackYaw,
	}

	if strings.TrimSpace(coords) != "" {
		pos, err := ParseCoordinates(coords)
		if err != nil {
			log.Warn("autoload: invalid spawn coordinates, using world spawn", "coordinates", coords, "error", err)
		} else {
			spec.Coordinates = pos
			spec.HasCoordinates = true
		}
	}

	if strings.TrimSpace(facing) != "" {
		deg, err := ParseFacing(facing)
		if err != nil {
			log.Warn("autoload: invalid spawn facing, keeping current rotation", "facing", facing, "error", err)
		} else {
			spec.Yaw = YawFromDegrees(deg)
			spec.HasFacing = true
		}
	}
	return spec
}

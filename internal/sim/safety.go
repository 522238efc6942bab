package sim

import (
	"math"

	"ufo-autopilot/pkg/types"
)

// Touchdown is a projected ground contact.
type Touchdown struct {
	ETA     float64 // seconds until contact
	ImpactV float64 // best-case velocity at contact [km/h]
}

// PredictTouchdown projects the airframe onto the ground under its current
// sink rate and reports the contact within horizon seconds, if any.
// ImpactV assumes the drive starts braking immediately, so a hard contact
// here means no command can recover the vehicle anymore.
// Simple linear projection: heading, inclination and sink rate are assumed
// to stay as they are.
func PredictTouchdown(vh Vehicle, horizon float64) (Touchdown, bool) {
	if vh.Z <= 0 {
		return Touchdown{}, false
	}
	sink := types.KmhToMps(vh.V) * -math.Sin(vh.I*math.Pi/180)
	if sink <= 0 {
		return Touchdown{}, false
	}
	eta := vh.Z / sink
	if eta > horizon {
		return Touchdown{}, false
	}

	rampRate := ACCELERATION / STEP // [km/h per s]
	impact := math.Max(0, vh.V-rampRate*eta)
	return Touchdown{ETA: eta, ImpactV: impact}, true
}

// HardLanding reports whether a projected contact exceeds the survivable
// touchdown velocity.
func HardLanding(td Touchdown) bool {
	return td.ImpactV > LANDING_VMAX
}

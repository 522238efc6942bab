package sim

import (
	"math"

	"ufo-autopilot/pkg/types"
)

const (
	VMAX         = 15.0 // maximal velocity [km/h]
	ACCELERATION = 1.0  // velocity change per tick [km/h]
	STEP         = 0.1  // tick length [s]
	LANDING_VMAX = 1.0  // survivable touchdown velocity [km/h]
)

type Status int

const (
	GROUNDED Status = iota
	FLYING
	CRASHED
)

var StatusStringMap = map[Status]string{
	GROUNDED: "GROUNDED",
	FLYING:   "FLYING",
	CRASHED:  "CRASHED",
}

// Vehicle is the simulated airframe. Position is in meters, V in km/h,
// D is the heading in [0, 360) and I the inclination in [-90, 90], both
// in degrees. The drive ramps V toward TargetV by ACCELERATION per tick.
type Vehicle struct {
	X, Y, Z float64
	V       float64
	D       float64
	I       float64
	Dist    float64 // odometer [m]
	FTime   float64 // airborne time [s]
	TargetV float64
}

func NewVehicle() *Vehicle {
	vh := &Vehicle{}
	vh.Reset()
	return vh
}

// Reset puts the airframe back on the ground at the origin, pointed along
// +y and ready to climb.
func (vh *Vehicle) Reset() {
	*vh = Vehicle{D: 90, I: 90}
}

func (vh *Vehicle) Status() Status {
	switch {
	case vh.Z > 0:
		return FLYING
	case vh.Z < 0:
		return CRASHED
	}
	return GROUNDED
}

// Update advances the airframe by one tick of STEP seconds.
func (vh *Vehicle) Update() {
	if vh.Z > 0 {
		vh.FTime += STEP
	}

	if vh.Z >= 0 {
		// ramp the drive toward the request
		dv := vh.TargetV - vh.V
		if dv > ACCELERATION {
			dv = ACCELERATION
		} else if dv < -ACCELERATION {
			dv = -ACCELERATION
		}
		vh.V = math.Min(math.Max(vh.V+dv, 0), VMAX)

		vel := types.KmhToMps(vh.V)
		vh.Dist += vel * STEP

		// flight vector from heading and inclination
		polar := (90 - vh.I) / 180 * math.Pi
		azimuth := vh.D / 180 * math.Pi
		vh.X += vel * STEP * math.Sin(polar) * math.Cos(azimuth)
		vh.Y += vel * STEP * math.Sin(polar) * math.Sin(azimuth)
		vh.Z += vel * STEP * math.Cos(polar)
	}

	// touchdown: slow contact is a landing, fast contact a crash
	if vh.Z <= 0 && vh.V > 0 {
		if vh.V <= LANDING_VMAX {
			vh.Z = 0
		} else {
			vh.Z = -1
		}
		vh.V = 0
	}
}

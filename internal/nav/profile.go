package nav

import (
	"fmt"
	"math"
)

type Phase int

const (
	IDLE Phase = iota
	ACCELERATING
	CRUISING
	DECELERATING
	STOPPED
	ABORTED
)

var PhaseStringMap = map[Phase]string{
	IDLE:         "IDLE",
	ACCELERATING: "ACCELERATING",
	CRUISING:     "CRUISING",
	DECELERATING: "DECELERATING",
	STOPPED:      "STOPPED",
	ABORTED:      "ABORTED",
}

// ProfileConfig bounds one axis of an approach. Units are SI throughout:
// meters, meters per second, meters per second squared.
type ProfileConfig struct {
	MaxSpeed      float64
	MaxAccel      float64
	MaxDecel      float64
	CruiseMargin  float64
	StopTolerance float64
}

func (c ProfileConfig) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"max_speed", c.MaxSpeed},
		{"max_accel", c.MaxAccel},
		{"max_decel", c.MaxDecel},
		{"cruise_margin", c.CruiseMargin},
	}
	for _, p := range positive {
		if math.IsInf(p.v, 0) || !(p.v > 0) {
			return &ConfigError{Field: p.name, Reason: fmt.Sprintf("must be positive and finite, got %v", p.v)}
		}
	}
	if math.IsInf(c.StopTolerance, 0) || !(c.StopTolerance >= 0) {
		return &ConfigError{Field: "stop_tolerance", Reason: fmt.Sprintf("must be non-negative and finite, got %v", c.StopTolerance)}
	}
	if c.StopTolerance >= c.CruiseMargin {
		return &ConfigError{Field: "stop_tolerance", Reason: fmt.Sprintf("must be below cruise_margin, got %v >= %v", c.StopTolerance, c.CruiseMargin)}
	}
	return nil
}

// BrakingDistance returns the distance covered when braking from speed to
// rest at MaxDecel.
func (c ProfileConfig) BrakingDistance(speed float64) float64 {
	return speed * speed / (2 * c.MaxDecel)
}

// Compute maps the current remaining distance and measured speed to the
// speed to command over the next dt seconds, and the phase that decision
// belongs to. Decisions are checked in stop, brake, accelerate, cruise
// order; the first match wins. The returned command always lies in
// [0, MaxSpeed].
func (c ProfileConfig) Compute(remaining, speed, dt float64) (float64, Phase) {
	switch {
	case remaining <= c.StopTolerance:
		return 0, STOPPED
	case remaining <= c.BrakingDistance(speed)+c.CruiseMargin:
		return c.brakeCommand(remaining, speed, dt), DECELERATING
	case speed < c.MaxSpeed:
		return c.clamp(speed + c.MaxAccel*dt), ACCELERATING
	default:
		return c.MaxSpeed, CRUISING
	}
}

// brakeCommand tracks the braking curve that reaches zero exactly at the
// stop boundary. Rate of change is limited to MaxDecel downward and
// MaxAccel upward, so a vehicle that enters the braking window slower than
// the curve crawls up to it instead of stalling short of the target.
func (c ProfileConfig) brakeCommand(remaining, speed, dt float64) float64 {
	curve := math.Sqrt(2 * c.MaxDecel * math.Max(remaining-c.StopTolerance, 0))
	cmd := math.Max(speed-c.MaxDecel*dt, curve)
	cmd = math.Min(cmd, speed+c.MaxAccel*dt)
	return c.clamp(cmd)
}

func (c ProfileConfig) clamp(v float64) float64 {
	return math.Min(math.Max(v, 0), c.MaxSpeed)
}

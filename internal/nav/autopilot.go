// Package nav steers the vehicle onto a target with a trapezoidal speed
// profile: accelerate, cruise, brake along the curve that reaches zero at
// the stop boundary, stop. One AxisController runs per engaged axis; the
// Autopilot keeps them in lockstep with the simulation tick.
package nav

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"ufo-autopilot/pkg/types"
)

// Target names where an approach should end up. Nil fields leave the
// corresponding axis out of the approach. Pitch is the attitude held while
// the vertical axis is in motion; the controller levels it on arrival.
type Target struct {
	Position *types.Vec2
	Heading  *float64
	Altitude *float64
	Pitch    *float64
}

// Result is the terminal outcome of one approach.
type Result struct {
	ID        string
	Converged bool
	Axis      Axis        // first failing axis when aborted
	Reason    AbortReason // AbortNone when converged
	Err       error
	Ticks     uint64
	Elapsed   time.Duration
}

// AutopilotConfig carries the per-axis controller configs and the
// simulation tick length the profiles integrate over.
type AutopilotConfig struct {
	Horizontal   AxisConfig
	Vertical     AxisConfig
	TickDuration time.Duration
}

func (c AutopilotConfig) Validate() error {
	if err := c.Horizontal.Validate(); err != nil {
		return fmt.Errorf("horizontal: %w", err)
	}
	if err := c.Vertical.Validate(); err != nil {
		return fmt.Errorf("vertical: %w", err)
	}
	if c.TickDuration <= 0 {
		return &ConfigError{Field: "tick_duration", Reason: "must be positive"}
	}
	return nil
}

// DefaultConfig returns the stock tuning for the simulated vehicle: speed
// capped at the drive maximum, braking windows sized for the 1 km/h per
// tick drive ramp, 10 ms polling.
func DefaultConfig() AutopilotConfig {
	horizontal := AxisConfig{
		Profile: ProfileConfig{
			MaxSpeed:      types.KmhToMps(15),
			MaxAccel:      types.KmhToMps(10),
			MaxDecel:      types.KmhToMps(10),
			CruiseMargin:  4.0,
			StopTolerance: 0.05,
		},
		PollInterval:    10 * time.Millisecond,
		TickTimeout:     2 * time.Second,
		RetryBudget:     3,
		StallBudget:     100,
		HeadingDeadBand: 0.5,
	}
	vertical := horizontal
	vertical.Profile.MaxSpeed = types.KmhToMps(10)
	vertical.Profile.CruiseMargin = 2.0
	return AutopilotConfig{
		Horizontal:   horizontal,
		Vertical:     vertical,
		TickDuration: 100 * time.Millisecond,
	}
}

// Autopilot runs profiled approaches against one vehicle.
type Autopilot struct {
	vehicle Vehicle
	cfg     AutopilotConfig
}

func NewAutopilot(vehicle Vehicle, cfg AutopilotConfig) (*Autopilot, error) {
	if vehicle == nil {
		return nil, fmt.Errorf("%w: nil vehicle", ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Autopilot{vehicle: vehicle, cfg: cfg}, nil
}

// Approach drives the engaged axes until every one has stopped or any has
// aborted. Axes step in fixed order, horizontal before vertical, with one
// shared tick-wait per loop pass so both act on the same simulation tick.
// Caller mistakes (no axis engaged, non-finite targets, arming failures)
// come back as errors; runtime outcomes come back in the Result.
func (ap *Autopilot) Approach(ctx context.Context, tgt Target) (Result, error) {
	res := Result{ID: uuid.NewString()}
	if tgt.Position == nil && tgt.Heading != nil {
		return res, fmt.Errorf("%w: target heading without position", ErrInvalidInput)
	}
	if tgt.Altitude == nil && tgt.Pitch != nil {
		return res, fmt.Errorf("%w: motion pitch without altitude", ErrInvalidInput)
	}

	start := time.Now()
	startTick := ap.vehicle.TickCount()

	var ctrls []*AxisController
	if tgt.Position != nil {
		axc, err := NewAxisController(HORIZONTAL, ap.vehicle, ap.cfg.Horizontal)
		if err != nil {
			return res, err
		}
		if err := axc.Start(tgt); err != nil {
			return res, err
		}
		ctrls = append(ctrls, axc)
	}
	if tgt.Altitude != nil {
		axc, err := NewAxisController(VERTICAL, ap.vehicle, ap.cfg.Vertical)
		if err != nil {
			return res, err
		}
		if err := axc.Start(tgt); err != nil {
			return res, err
		}
		ctrls = append(ctrls, axc)
	}
	if len(ctrls) == 0 {
		return res, fmt.Errorf("%w: target engages no axis", ErrInvalidInput)
	}

	log.Debugf("approach %s: %d axes engaged", res.ID, len(ctrls))

	dt := ap.cfg.TickDuration.Seconds()
	if len(ctrls) == 1 {
		axc := ctrls[0]
		for !axc.Terminal() {
			axc.Tick(ctx, dt)
		}
	} else {
		ap.runInterleaved(ctx, ctrls, dt)
	}

	res.Elapsed = time.Since(start)
	res.Ticks = ap.vehicle.TickCount() - startTick
	for _, axc := range ctrls {
		if axc.Phase() == ABORTED {
			res.Axis = axc.Axis()
			res.Reason = axc.Reason()
			res.Err = axc.Err()
			log.Warnf("approach %s aborted on %s axis after %d ticks: %s (%v)",
				res.ID, AxisStringMap[res.Axis], res.Ticks, res.Reason, res.Err)
			return res, nil
		}
	}
	res.Converged = true
	log.Infof("approach %s converged after %d ticks in %s", res.ID, res.Ticks, res.Elapsed)
	return res, nil
}

// runInterleaved steps every live axis once per simulation tick, then waits
// for the tick to advance on the lead axis' wait parameters. Wait strikes
// propagate to every controller so a starving simulation aborts them all.
func (ap *Autopilot) runInterleaved(ctx context.Context, ctrls []*AxisController, dt float64) {
	lead := ctrls[0]
	for !allTerminal(ctrls) {
		for _, axc := range ctrls {
			axc.Step(dt)
		}
		if allTerminal(ctrls) {
			return
		}
		for {
			outcome := WaitUntil(ctx, lead.tickAdvanced, lead.cfg.PollInterval, lead.cfg.TickTimeout)
			advanced := false
			for _, axc := range ctrls {
				if axc.ApplyWait(outcome, ctx.Err()) {
					advanced = true
				}
			}
			if advanced || allTerminal(ctrls) {
				break
			}
		}
	}
}

func allTerminal(ctrls []*AxisController) bool {
	for _, axc := range ctrls {
		if !axc.Terminal() {
			return false
		}
	}
	return true
}

package nav

import (
	"context"
	"fmt"
	"math"
	"time"
)

// progressEpsilon is the minimum shrink in remaining that counts as
// forward progress for the stall guard.
const progressEpsilon = 1e-9

// AxisConfig parametrizes one AxisController.
type AxisConfig struct {
	Profile         ProfileConfig
	PollInterval    time.Duration // tick-wait poll cadence
	TickTimeout     time.Duration // wall-clock ceiling for one tick-wait
	RetryBudget     int           // consecutive tick-wait timeouts tolerated
	StallBudget     int           // consecutive no-progress ticks tolerated, 0 disables the guard
	HeadingDeadBand float64       // degrees, horizontal axis only
}

func (c AxisConfig) Validate() error {
	if err := c.Profile.Validate(); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return &ConfigError{Field: "poll_interval", Reason: "must be positive"}
	}
	if c.TickTimeout <= 0 {
		return &ConfigError{Field: "tick_timeout", Reason: "must be positive"}
	}
	if c.RetryBudget < 0 {
		return &ConfigError{Field: "retry_budget", Reason: "must not be negative"}
	}
	if c.StallBudget < 0 {
		return &ConfigError{Field: "stall_budget", Reason: "must not be negative"}
	}
	if !finite(c.HeadingDeadBand) || c.HeadingDeadBand < 0 {
		return &ConfigError{Field: "heading_dead_band", Reason: fmt.Sprintf("must be non-negative and finite, got %v", c.HeadingDeadBand)}
	}
	return nil
}

// AxisController drives one axis of an approach through the profile
// phases. It issues at most one speed command per simulation tick and is
// owned by a single goroutine.
type AxisController struct {
	axis    Axis
	vehicle Vehicle
	cfg     AxisConfig

	phase     Phase
	commanded float64
	lastTurn  TurnCommand

	targetHeading float64
	alignHeading  bool
	motionPitch   float64
	holdPitch     bool
	pitchApplied  bool

	lastRemaining float64
	haveRemaining bool
	stallTicks    int
	waitStrikes   int
	lastTick      uint64

	reason AbortReason
	err    error
}

func NewAxisController(axis Axis, vehicle Vehicle, cfg AxisConfig) (*AxisController, error) {
	if vehicle == nil {
		return nil, fmt.Errorf("%w: nil vehicle", ErrInvalidInput)
	}
	if _, ok := AxisStringMap[axis]; !ok {
		return nil, fmt.Errorf("%w: unknown axis %d", ErrInvalidInput, axis)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &AxisController{axis: axis, vehicle: vehicle, cfg: cfg, phase: IDLE}, nil
}

// Start arms the axis target on the vehicle and performs the initial
// profile evaluation. An axis whose remaining already sits inside the stop
// tolerance lands directly in STOPPED and never issues a motion command.
func (axc *AxisController) Start(tgt Target) error {
	if axc.phase != IDLE {
		return fmt.Errorf("%w: axis %s already started", ErrInvalidInput, AxisStringMap[axc.axis])
	}

	switch axc.axis {
	case HORIZONTAL:
		if tgt.Position == nil {
			return fmt.Errorf("%w: horizontal axis needs a target position", ErrInvalidInput)
		}
		if !finite(tgt.Position.X) || !finite(tgt.Position.Y) {
			return fmt.Errorf("%w: target position (%v, %v)", ErrInvalidInput, tgt.Position.X, tgt.Position.Y)
		}
		if err := axc.vehicle.SetTargetPosition(*tgt.Position); err != nil {
			return fmt.Errorf("%w: arming position target: %v", ErrAdapter, err)
		}
		if tgt.Heading != nil {
			if !finite(*tgt.Heading) {
				return fmt.Errorf("%w: target heading %v", ErrInvalidInput, *tgt.Heading)
			}
			axc.targetHeading = math.Mod(*tgt.Heading+360, 360)
			axc.alignHeading = true
		}
	case VERTICAL:
		if tgt.Altitude == nil {
			return fmt.Errorf("%w: vertical axis needs a target altitude", ErrInvalidInput)
		}
		if !finite(*tgt.Altitude) {
			return fmt.Errorf("%w: target altitude %v", ErrInvalidInput, *tgt.Altitude)
		}
		if err := axc.vehicle.SetTargetAltitude(*tgt.Altitude); err != nil {
			return fmt.Errorf("%w: arming altitude target: %v", ErrAdapter, err)
		}
		if tgt.Pitch != nil {
			if !finite(*tgt.Pitch) {
				return fmt.Errorf("%w: motion pitch %v", ErrInvalidInput, *tgt.Pitch)
			}
			axc.motionPitch = *tgt.Pitch
			axc.holdPitch = true
		}
	}

	remaining, speed, err := axc.readState()
	if err != nil {
		axc.fail(AbortAdapter, err)
		return err
	}
	_, axc.phase = axc.cfg.Profile.Compute(remaining, speed, 0)
	axc.lastRemaining = remaining
	axc.haveRemaining = true
	axc.lastTick = axc.vehicle.TickCount()
	return nil
}

// Step performs one read, compute, command cycle. Terminal phases return
// immediately without touching the vehicle.
func (axc *AxisController) Step(dt float64) Phase {
	if axc.Terminal() {
		return axc.phase
	}

	remaining, speed, err := axc.readState()
	if err != nil {
		axc.fail(AbortAdapter, err)
		return axc.phase
	}

	cmd, phase := axc.cfg.Profile.Compute(remaining, speed, dt)
	// Once braking, earlier phases are off the table even if the remaining
	// estimate wobbles; hold the braking rule instead.
	if axc.phase == DECELERATING && phase < DECELERATING {
		phase = DECELERATING
		cmd = axc.cfg.Profile.brakeCommand(remaining, speed, dt)
	}

	if phase != STOPPED && !axc.trackProgress(remaining) {
		return axc.phase
	}

	if phase != STOPPED {
		if axc.alignHeading && !axc.alignToHeading() {
			return axc.phase
		}
		if axc.holdPitch && !axc.pitchApplied {
			if err := axc.vehicle.SetPitch(axc.motionPitch); err != nil {
				axc.fail(AbortAdapter, fmt.Errorf("%w: pitch command: %v", ErrAdapter, err))
				return axc.phase
			}
			axc.pitchApplied = true
		}
	} else if axc.pitchApplied {
		// settle level before the final stop command
		if err := axc.vehicle.SetPitch(0); err != nil {
			axc.fail(AbortAdapter, fmt.Errorf("%w: levelling pitch: %v", ErrAdapter, err))
			return axc.phase
		}
		axc.pitchApplied = false
	}

	if err := axc.vehicle.SetThrottle(axc.axis, cmd); err != nil {
		axc.fail(AbortAdapter, fmt.Errorf("%w: throttle command: %v", ErrAdapter, err))
		return axc.phase
	}
	axc.commanded = cmd
	axc.phase = phase
	return axc.phase
}

// Tick runs one Step and then blocks until the simulation tick advances,
// tolerating up to RetryBudget wait timeouts before aborting. It is the
// single-axis drive loop body; multi-axis orchestration hoists the wait so
// every axis acts on the same tick.
func (axc *AxisController) Tick(ctx context.Context, dt float64) Phase {
	if axc.Terminal() {
		return axc.phase
	}
	axc.Step(dt)
	for !axc.Terminal() {
		outcome := WaitUntil(ctx, axc.tickAdvanced, axc.cfg.PollInterval, axc.cfg.TickTimeout)
		if axc.ApplyWait(outcome, ctx.Err()) {
			break
		}
	}
	return axc.phase
}

// ApplyWait folds a tick-wait outcome into the controller: SATISFIED
// advances the watermark and clears the strike count, TIMED_OUT consumes
// the retry budget, CANCELLED aborts. It reports whether the tick advanced
// and the caller may step again.
func (axc *AxisController) ApplyWait(outcome WaitOutcome, cause error) bool {
	switch outcome {
	case SATISFIED:
		axc.lastTick = axc.vehicle.TickCount()
		axc.waitStrikes = 0
		return true
	case TIMED_OUT:
		axc.waitStrikes++
		if axc.waitStrikes > axc.cfg.RetryBudget {
			axc.fail(AbortTimeout, fmt.Errorf("axis %s: simulation tick did not advance within %v after %d attempts",
				AxisStringMap[axc.axis], axc.cfg.TickTimeout, axc.waitStrikes))
		}
		return false
	default:
		if cause == nil {
			cause = context.Canceled
		}
		axc.fail(AbortCancelled, cause)
		return false
	}
}

func (axc *AxisController) tickAdvanced() bool {
	return axc.vehicle.TickCount() > axc.lastTick
}

func (axc *AxisController) readState() (remaining, speed float64, err error) {
	remaining, err = axc.vehicle.Remaining(axc.axis)
	if err == nil {
		speed, err = axc.vehicle.Speed(axc.axis)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("%w: reading %s state: %v", ErrAdapter, AxisStringMap[axc.axis], err)
	}
	if !finite(remaining) || !finite(speed) {
		return 0, 0, fmt.Errorf("%w: non-finite %s state remaining=%v speed=%v", ErrAdapter, AxisStringMap[axc.axis], remaining, speed)
	}
	return remaining, speed, nil
}

// trackProgress feeds the stall guard. A crashed or wedged vehicle keeps
// ticking while remaining freezes, and the tick-wait timeout never fires
// for that, so lack of progress carries its own budget.
func (axc *AxisController) trackProgress(remaining float64) bool {
	if axc.cfg.StallBudget <= 0 {
		axc.lastRemaining = remaining
		axc.haveRemaining = true
		return true
	}
	if axc.haveRemaining && remaining > axc.lastRemaining-progressEpsilon {
		axc.stallTicks++
		if axc.stallTicks > axc.cfg.StallBudget {
			axc.fail(AbortStalled, fmt.Errorf("axis %s: no progress over %d ticks, remaining %.3f",
				AxisStringMap[axc.axis], axc.stallTicks, remaining))
			return false
		}
	} else {
		axc.stallTicks = 0
	}
	axc.lastRemaining = remaining
	axc.haveRemaining = true
	return true
}

func (axc *AxisController) alignToHeading() bool {
	hdg, err := axc.vehicle.Heading()
	if err != nil {
		axc.fail(AbortAdapter, fmt.Errorf("%w: reading heading: %v", ErrAdapter, err))
		return false
	}
	turn, err := ShortestTurn(hdg, axc.targetHeading, axc.cfg.HeadingDeadBand)
	if err != nil {
		axc.fail(AbortAdapter, err)
		return false
	}
	axc.lastTurn = turn
	if turn == TurnNone {
		return true
	}
	if err := axc.vehicle.SetHeading(axc.targetHeading); err != nil {
		axc.fail(AbortAdapter, fmt.Errorf("%w: heading command: %v", ErrAdapter, err))
		return false
	}
	return true
}

// fail moves the axis to ABORTED. Apart from a best-effort zero throttle
// on non-adapter aborts, no further commands leave an aborted axis.
func (axc *AxisController) fail(reason AbortReason, err error) {
	if axc.Terminal() {
		return
	}
	axc.phase = ABORTED
	axc.reason = reason
	axc.err = err
	if reason != AbortAdapter {
		_ = axc.vehicle.SetThrottle(axc.axis, 0)
		axc.commanded = 0
	}
}

func (axc *AxisController) Axis() Axis { return axc.axis }

func (axc *AxisController) Phase() Phase { return axc.phase }

// Commanded is the last speed sent to the vehicle, m/s.
func (axc *AxisController) Commanded() float64 { return axc.commanded }

// LastTurn is the most recent heading alignment decision.
func (axc *AxisController) LastTurn() TurnCommand { return axc.lastTurn }

func (axc *AxisController) Reason() AbortReason { return axc.reason }

func (axc *AxisController) Err() error { return axc.err }

// Terminal reports whether the axis reached STOPPED or ABORTED.
func (axc *AxisController) Terminal() bool {
	return axc.phase == STOPPED || axc.phase == ABORTED
}

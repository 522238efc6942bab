// Package sim is the simulated vehicle the autopilot flies: a single
// airframe with one drive, steered by heading and inclination, advanced on
// its own tick goroutine. It adapts the airframe to the controller's
// per-axis view of the world.
package sim

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"ufo-autopilot/internal/nav"
	"ufo-autopilot/pkg/types"
)

var (
	ErrVehicleDown = errors.New("sim: vehicle is down")
	ErrNoTarget    = errors.New("sim: no target armed")
	ErrOutOfRange  = errors.New("sim: value out of range")
)

const (
	// attitude projections below this cannot serve an axis request
	projEpsilon = 1e-3
	// flight data is sampled into telemetry every this many ticks
	sampleTicks = 50
	// touchdown hazard lookahead [s]
	HAZARD_HORIZON = 5.0
)

// Sim owns the airframe, its tick goroutine and the armed approach
// targets. It implements nav.Vehicle; every call is serialized against the
// tick loop.
type Sim struct {
	mu      sync.Mutex
	vehicle *Vehicle
	speedup int
	ticks   uint64

	targetPos *types.Vec2
	targetAlt *float64
	req       [2]float64 // requested speed per axis [m/s]

	telemetry *Telemetry
	flight    types.FlightID
	hazard    bool

	running bool
	stop    chan struct{}
	done    chan struct{}
}

var _ nav.Vehicle = (*Sim)(nil)

func New() *Sim {
	return &Sim{vehicle: NewVehicle(), speedup: 1, flight: "UFO"}
}

// SetTelemetry attaches an event log. Pass nil to detach.
func (s *Sim) SetTelemetry(t *Telemetry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetry = t
}

// SetFlight names the flight the telemetry events belong to.
func (s *Sim) SetFlight(id types.FlightID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flight = id
}

// Start launches the tick goroutine pacing STEP/speedup wall seconds per
// tick. A speedup outside [1, 25] falls back to 1.
func (s *Sim) Start(speedup int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	if speedup < 1 || speedup > 25 {
		log.Warnf("sim: speedup has to be between 1 and 25, got %d", speedup)
		speedup = 1
	}
	s.speedup = speedup
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done, speedup)
}

// Terminate stops the tick goroutine and waits for it to exit.
func (s *Sim) Terminate() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
}

func (s *Sim) run(stop, done chan struct{}, speedup int) {
	defer close(done)
	ticker := time.NewTicker(time.Duration(float64(time.Second) * STEP / float64(speedup)))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Advance(1)
		}
	}
}

// Advance steps the simulation n ticks. The tick goroutine calls it once
// per tick; tests call it directly for deterministic stepping.
func (s *Sim) Advance(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		prev := s.vehicle.Status()
		s.vehicle.Update()
		s.ticks++
		s.observeLocked(prev)
	}
}

// observeLocked turns state transitions and hazards into telemetry.
func (s *Sim) observeLocked(prev Status) {
	cur := s.vehicle.Status()
	if cur != prev {
		switch cur {
		case FLYING:
			s.recordLocked("airborne", false)
		case GROUNDED:
			s.recordLocked(fmt.Sprintf("touched down, %.1f m flown", s.vehicle.Dist), false)
		case CRASHED:
			log.Errorf("sim: vehicle crashed at (%.1f, %.1f)", s.vehicle.X, s.vehicle.Y)
			s.recordLocked(fmt.Sprintf("crashed at (%.1f, %.1f)", s.vehicle.X, s.vehicle.Y), true)
		}
	}

	td, ok := PredictTouchdown(*s.vehicle, HAZARD_HORIZON)
	hazard := ok && HardLanding(td)
	if hazard && !s.hazard {
		log.Warnf("sim: hard landing predicted, contact in %.1f s at %.1f km/h", td.ETA, td.ImpactV)
		s.recordLocked(fmt.Sprintf("hard landing predicted, contact in %.1f s at %.1f km/h", td.ETA, td.ImpactV), true)
	}
	s.hazard = hazard

	if s.vehicle.Status() == FLYING && s.ticks%sampleTicks == 0 {
		s.recordLocked(FormatFlightData(*s.vehicle, 10), false)
	}
}

func (s *Sim) recordLocked(message string, urgent bool) {
	if s.telemetry == nil {
		return
	}
	s.telemetry.Record(s.flight, message, urgent)
}

// Snapshot returns a copy of the airframe state.
func (s *Sim) Snapshot() Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.vehicle
}

// Hazard reports whether a hard landing is currently predicted.
func (s *Sim) Hazard() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hazard
}

func (s *Sim) Speedup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speedup
}

// Reset puts the airframe back at the origin and drops the armed targets.
// The tick counter keeps running, it never goes backwards.
func (s *Sim) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicle.Reset()
	s.targetPos = nil
	s.targetAlt = nil
	s.req = [2]float64{}
	s.hazard = false
}

func (s *Sim) TickCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

func (s *Sim) Remaining(a nav.Axis) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.upLocked(); err != nil {
		return 0, err
	}
	switch a {
	case nav.HORIZONTAL:
		if s.targetPos == nil {
			return 0, fmt.Errorf("%w: horizontal", ErrNoTarget)
		}
		return s.targetPos.DistanceTo(types.NewVec2(s.vehicle.X, s.vehicle.Y)), nil
	case nav.VERTICAL:
		if s.targetAlt == nil {
			return 0, fmt.Errorf("%w: vertical", ErrNoTarget)
		}
		return math.Abs(*s.targetAlt - s.vehicle.Z), nil
	}
	return 0, fmt.Errorf("%w: axis %d", ErrOutOfRange, a)
}

func (s *Sim) Speed(a nav.Axis) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.upLocked(); err != nil {
		return 0, err
	}
	vel := types.KmhToMps(s.vehicle.V)
	switch a {
	case nav.HORIZONTAL:
		return vel * math.Cos(s.vehicle.I*math.Pi/180), nil
	case nav.VERTICAL:
		return vel * math.Abs(math.Sin(s.vehicle.I*math.Pi/180)), nil
	}
	return 0, fmt.Errorf("%w: axis %d", ErrOutOfRange, a)
}

func (s *Sim) Heading() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.upLocked(); err != nil {
		return 0, err
	}
	return s.vehicle.D, nil
}

func (s *Sim) SetTargetPosition(p types.Vec2) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.upLocked(); err != nil {
		return err
	}
	if !finite(p.X) || !finite(p.Y) {
		return fmt.Errorf("%w: position (%v, %v)", ErrOutOfRange, p.X, p.Y)
	}
	s.targetPos = &p
	return nil
}

func (s *Sim) SetTargetAltitude(alt float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.upLocked(); err != nil {
		return err
	}
	if !finite(alt) || alt < 0 {
		return fmt.Errorf("%w: altitude %v", ErrOutOfRange, alt)
	}
	s.targetAlt = &alt
	return nil
}

func (s *Sim) SetHeading(deg float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.upLocked(); err != nil {
		return err
	}
	if !finite(deg) || deg < 0 || deg >= 360 {
		return fmt.Errorf("%w: heading %v", ErrOutOfRange, deg)
	}
	s.vehicle.D = deg
	return nil
}

func (s *Sim) SetPitch(deg float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.upLocked(); err != nil {
		return err
	}
	if !finite(deg) || deg < -90 || deg > 90 {
		return fmt.Errorf("%w: pitch %v", ErrOutOfRange, deg)
	}
	s.vehicle.I = deg
	s.resolveDriveLocked()
	return nil
}

func (s *Sim) SetThrottle(a nav.Axis, speed float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.upLocked(); err != nil {
		return err
	}
	if a != nav.HORIZONTAL && a != nav.VERTICAL {
		return fmt.Errorf("%w: axis %d", ErrOutOfRange, a)
	}
	if !finite(speed) || speed < 0 {
		return fmt.Errorf("%w: speed %v", ErrOutOfRange, speed)
	}
	s.req[a] = speed
	s.resolveDriveLocked()
	return nil
}

// resolveDriveLocked maps the per-axis speed requests onto the single
// drive. Each servable axis needs drive speed req/projection; the drive
// runs at the largest of those, capped at VMAX. Requests orthogonal to the
// attitude are left unserved, the controller's stall guard owns that case.
func (s *Sim) resolveDriveLocked() {
	polar := s.vehicle.I * math.Pi / 180
	proj := [2]float64{math.Cos(polar), math.Abs(math.Sin(polar))}
	drive := 0.0
	for a, req := range s.req {
		if req <= 0 || proj[a] < projEpsilon {
			continue
		}
		drive = math.Max(drive, req/proj[a])
	}
	s.vehicle.TargetV = math.Min(types.MpsToKmh(drive), VMAX)
}

func (s *Sim) upLocked() error {
	if s.vehicle.Status() == CRASHED {
		return fmt.Errorf("%w: crashed at (%.1f, %.1f)", ErrVehicleDown, s.vehicle.X, s.vehicle.Y)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package mission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"ufo-autopilot/internal/flightdb"
	"ufo-autopilot/internal/nav"
	"ufo-autopilot/internal/sim"
	"ufo-autopilot/pkg/bearing"
	"ufo-autopilot/pkg/types"
)

// climb and sink attitude for the vertical legs [deg]
const (
	climbPitch = 90.0
	sinkPitch  = -90.0
)

// Executor flies plans leg by leg through one autopilot over the
// simulated vehicle.
type Executor struct {
	backend *sim.Sim
	ap      *nav.Autopilot
	db      *flightdb.DB
}

func NewExecutor(backend *sim.Sim, cfg nav.AutopilotConfig) (*Executor, error) {
	ap, err := nav.NewAutopilot(backend, cfg)
	if err != nil {
		return nil, err
	}
	return &Executor{backend: backend, ap: ap}, nil
}

// WithFlightDB records every completed flight to db. Pass nil to disable.
func (e *Executor) WithFlightDB(db *flightdb.DB) *Executor {
	e.db = db
	return e
}

// Report is the outcome of one flown plan.
type Report struct {
	ID        string
	Flight    types.FlightID
	Planned   float64 // planned path length [m]
	Actual    float64 // odometer distance actually flown [m]
	Converged bool
	FailedLeg LegKind // valid only when not converged
	Reason    nav.AbortReason
	Err       error
	Elapsed   time.Duration
}

// Fly executes the plan leg by leg. It stops at the first leg that
// aborts; the report carries that leg and its reason. Errors are caller
// or arming mistakes, runtime outcomes land in the report.
func (e *Executor) Fly(ctx context.Context, plan Plan) (Report, error) {
	rep := Report{ID: uuid.NewString(), Flight: plan.Flight, Converged: true}
	if len(plan.Legs) == 0 {
		return rep, fmt.Errorf("mission: plan %s has no legs", plan.Flight)
	}

	start := time.Now()
	snap := e.backend.Snapshot()
	origin := types.NewVec2(snap.X, snap.Y)
	startDist := snap.Dist
	rep.Planned = FlightDistance(origin, plan.Destination, plan.CruiseAltitude)
	e.backend.SetFlight(plan.Flight)

	log.Infof("flight %s: %d legs to (%.1f, %.1f) at %.1f m, %.2f m planned",
		plan.Flight, len(plan.Legs), plan.Destination.X, plan.Destination.Y,
		plan.CruiseAltitude, rep.Planned)

	for _, leg := range plan.Legs {
		tgt, err := e.legTarget(leg)
		if err != nil {
			return rep, err
		}
		res, err := e.ap.Approach(ctx, tgt)
		if err != nil {
			return rep, fmt.Errorf("mission: leg %s: %w", LegStringMap[leg.Kind], err)
		}
		if !res.Converged {
			rep.Converged = false
			rep.FailedLeg = leg.Kind
			rep.Reason = res.Reason
			rep.Err = res.Err
			log.Warnf("flight %s: leg %s aborted: %s", plan.Flight, LegStringMap[leg.Kind], res.Reason)
			break
		}
		log.Infof("flight %s: leg %s done in %d ticks", plan.Flight, LegStringMap[leg.Kind], res.Ticks)
	}

	end := e.backend.Snapshot()
	rep.Actual = end.Dist - startDist
	rep.Elapsed = time.Since(start)

	if e.db != nil {
		if err := e.db.RecordFlight(flightdb.Flight{
			ID:        rep.ID,
			Callsign:  string(plan.Flight),
			DestX:     plan.Destination.X,
			DestY:     plan.Destination.Y,
			CruiseAlt: plan.CruiseAltitude,
			PlannedM:  rep.Planned,
			ActualM:   rep.Actual,
			Converged: rep.Converged,
			Reason:    string(rep.Reason),
			Duration:  rep.Elapsed,
			StartedAt: start,
		}); err != nil {
			log.Errorf("flight %s: recording history: %v", plan.Flight, err)
		}
	}
	return rep, nil
}

// legTarget maps a leg onto an autopilot target. Cruise legs derive their
// heading from the current position with the series bearing calculator.
func (e *Executor) legTarget(leg Leg) (nav.Target, error) {
	switch leg.Kind {
	case TAKEOFF:
		alt := leg.Altitude
		pitch := climbPitch
		return nav.Target{Altitude: &alt, Pitch: &pitch}, nil
	case CRUISE:
		snap := e.backend.Snapshot()
		hdg, err := bearing.Between(types.NewVec2(snap.X, snap.Y), leg.Destination)
		if err != nil {
			return nav.Target{}, fmt.Errorf("mission: cruise heading: %w", err)
		}
		dst := leg.Destination
		return nav.Target{Position: &dst, Heading: &hdg}, nil
	case LAND:
		ground := 0.0
		pitch := sinkPitch
		return nav.Target{Altitude: &ground, Pitch: &pitch}, nil
	}
	return nav.Target{}, fmt.Errorf("mission: unknown leg kind %d", leg.Kind)
}

// Package mission plans and flies complete flights: climb to cruise
// altitude, cruise to the destination, land. The autopilot flies each leg;
// this package decides what the legs are.
package mission

import (
	"fmt"
	"math"

	"ufo-autopilot/pkg/types"
)

type LegKind int

const (
	TAKEOFF LegKind = iota
	CRUISE
	LAND
)

var LegStringMap = map[LegKind]string{
	TAKEOFF: "TAKEOFF",
	CRUISE:  "CRUISE",
	LAND:    "LAND",
}

// Leg is one phase of a flight. Altitude is set for TAKEOFF legs,
// Destination for CRUISE legs; LAND carries nothing, it always returns to
// ground level.
type Leg struct {
	Kind        LegKind
	Altitude    float64
	Destination types.Vec2
}

// Plan is an ordered list of legs under one callsign.
type Plan struct {
	Flight         types.FlightID
	Destination    types.Vec2
	CruiseAltitude float64
	Legs           []Leg
}

// PlanFlight builds the canonical plan to dst: takeoff to cruiseAlt,
// cruise to dst, land.
func PlanFlight(flight types.FlightID, dst types.Vec2, cruiseAlt float64) (Plan, error) {
	if math.IsNaN(dst.X) || math.IsInf(dst.X, 0) || math.IsNaN(dst.Y) || math.IsInf(dst.Y, 0) {
		return Plan{}, fmt.Errorf("mission: destination (%v, %v) is not finite", dst.X, dst.Y)
	}
	if !(cruiseAlt > 0) || math.IsInf(cruiseAlt, 0) {
		return Plan{}, fmt.Errorf("mission: cruise altitude must be positive and finite, got %v", cruiseAlt)
	}
	return Plan{
		Flight:         flight,
		Destination:    dst,
		CruiseAltitude: cruiseAlt,
		Legs: []Leg{
			{Kind: TAKEOFF, Altitude: cruiseAlt},
			{Kind: CRUISE, Destination: dst},
			{Kind: LAND},
		},
	}, nil
}

// FlightDistance is the planned path length from origin to dst at cruise
// altitude alt: the horizontal distance plus the climb and the descent.
func FlightDistance(origin, dst types.Vec2, alt float64) float64 {
	return origin.DistanceTo(dst) + 2*math.Abs(alt)
}

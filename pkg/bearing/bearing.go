// Package bearing computes the absolute angle of the line between two map
// points, measured counterclockwise from the +x axis in degrees [0, 360).
//
// The arctangent is evaluated from its Maclaurin series with reciprocal
// argument reduction; math.Atan and math.Atan2 are deliberately not used in
// this path, so the accuracy of the result is controlled entirely by the
// requested precision.
package bearing

import (
	"errors"
	"fmt"
	"math"

	"ufo-autopilot/pkg/types"
)

// DefaultPrecision is the series cutoff exponent: terms below 10^-6 are
// dropped.
const DefaultPrecision = 6

// ErrInvalidInput is returned for non-finite coordinates.
var ErrInvalidInput = errors.New("bearing: coordinate is not finite")

// Between returns the bearing from p1 to p2 at DefaultPrecision.
// 0 points along +x, 90 along +y, 180 along -x, 270 along -y.
// Identical points map to 0.
func Between(p1, p2 types.Vec2) (float64, error) {
	return BetweenPrec(p1, p2, DefaultPrecision)
}

// BetweenPrec is Between with an explicit precision: series terms smaller
// than 10^-precision are dropped.
func BetweenPrec(p1, p2 types.Vec2, precision int) (float64, error) {
	if precision <= 0 {
		return 0, fmt.Errorf("bearing: precision must be positive, got %d", precision)
	}
	for _, c := range [...]float64{p1.X, p1.Y, p2.X, p2.Y} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return 0, fmt.Errorf("%w: (%v,%v)->(%v,%v)", ErrInvalidInput, p1.X, p1.Y, p2.X, p2.Y)
		}
	}

	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	eps := math.Pow(10, -float64(precision))

	phi := FirstQuadrant(math.Abs(dx), math.Abs(dy), eps)

	// Fold the first-quadrant base angle out to the full circle from the
	// signs of the deltas: left half-plane pivots around 180, the fourth
	// quadrant wraps below 360.
	sx := dx >= 0
	sy := dy >= 0
	var base float64
	switch {
	case !sx:
		base = 180
	case !sy:
		base = 360
	}
	if sx != sy {
		phi = -phi
	}
	return math.Mod(base+phi, 360), nil
}

// FirstQuadrant returns the angle in degrees [0, 90] between the +x axis
// and the ray to (dx, dy), both deltas taken non-negative. dx == dy == 0
// maps to 0, a vertical ray to 90.
func FirstQuadrant(dx, dy, eps float64) float64 {
	if dx == 0 {
		if dy == 0 {
			return 0
		}
		return 90
	}
	return atan(dy/dx, eps) * 180 / math.Pi
}

// atan evaluates arctan(t) in radians. Arguments above 1 in magnitude are
// reduced through arctan(t) = pi/2 - arctan(1/t) so the series converges.
func atan(t, eps float64) float64 {
	if math.Abs(t) > 1 {
		if t > 0 {
			return math.Pi/2 - atanSeries(1/t, eps)
		}
		return -math.Pi/2 - atanSeries(1/t, eps)
	}
	return atanSeries(t, eps)
}

// atanSeries sums t - t^3/3 + t^5/5 - ... until the next term falls below
// eps. Successive terms follow the recurrence a_{k+1} = -a_k * t^2 *
// (2k+1)/(2k+3), which avoids recomputing powers. Terms decay like t^2, so
// |t| = 1 is the slowest case and needs on the order of 1/(2 eps) terms.
func atanSeries(t, eps float64) float64 {
	sum := 0.0
	term := t
	t2 := t * t
	for k := 0; math.Abs(term) > eps; k++ {
		sum += term
		term = -term * t2 * (2*float64(k) + 1) / (2*float64(k) + 3)
	}
	return sum
}

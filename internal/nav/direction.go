package nav

import (
	"fmt"
	"math"
)

// TurnCommand is a discrete steering direction: -1 turn toward smaller
// angles, 0 hold, +1 turn toward larger angles.
type TurnCommand int

const (
	TurnNegative TurnCommand = -1
	TurnNone     TurnCommand = 0
	TurnPositive TurnCommand = 1
)

// HeadingDelta returns the signed shortest rotation from current to target
// in degrees, folded into (-180, 180]. Exactly opposite headings resolve to
// +180, so the tie always turns positive.
func HeadingDelta(current, target float64) (float64, error) {
	if !finite(current) || !finite(target) {
		return 0, fmt.Errorf("%w: non-finite heading %v -> %v", ErrInvalidInput, current, target)
	}
	delta := math.Mod(target-current+180, 360)
	if delta < 0 {
		delta += 360
	}
	delta -= 180
	if delta == -180 {
		delta = 180
	}
	return delta, nil
}

// ShortestTurn reduces the rotation from current to target to a turn
// direction. Deltas within deadBand degrees of zero return TurnNone.
func ShortestTurn(current, target, deadBand float64) (TurnCommand, error) {
	if !finite(deadBand) || deadBand < 0 {
		return TurnNone, fmt.Errorf("%w: dead band %v", ErrInvalidInput, deadBand)
	}
	delta, err := HeadingDelta(current, target)
	if err != nil {
		return TurnNone, err
	}
	return Sector(delta, deadBand), nil
}

// Sector maps a signed offset to a turn direction with a dead band. It is
// the non-angular sibling of ShortestTurn, used to pick climb against sink.
// Non-finite offsets map to TurnNone.
func Sector(delta, deadBand float64) TurnCommand {
	switch {
	case !finite(delta) || math.Abs(delta) <= deadBand:
		return TurnNone
	case delta > 0:
		return TurnPositive
	default:
		return TurnNegative
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

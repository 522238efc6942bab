package nav

import "ufo-autopilot/pkg/types"

type Axis int

const (
	HORIZONTAL Axis = iota
	VERTICAL
)

var AxisStringMap = map[Axis]string{
	HORIZONTAL: "HORIZONTAL",
	VERTICAL:   "VERTICAL",
}

// StateSource reports the vehicle state the controller steers by.
// Remaining and Speed are per axis, in meters and meters per second.
type StateSource interface {
	Remaining(a Axis) (float64, error)
	Speed(a Axis) (float64, error)
	Heading() (float64, error)
}

// CommandSink accepts steering commands. SetTargetPosition and
// SetTargetAltitude arm what Remaining is measured against.
type CommandSink interface {
	SetTargetPosition(p types.Vec2) error
	SetTargetAltitude(alt float64) error
	SetHeading(deg float64) error
	SetPitch(deg float64) error
	SetThrottle(a Axis, speed float64) error
}

// TickSource exposes the simulation tick watermark. The controller issues
// at most one command per axis between two watermark advances.
type TickSource interface {
	TickCount() uint64
}

// Vehicle is the full capability set an approach needs.
type Vehicle interface {
	StateSource
	CommandSink
	TickSource
}

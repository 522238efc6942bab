package types

import "math"

// FlightID identifies one commanded flight from launch to touchdown.
type FlightID string

type Vec2 struct {
	X float64
	Y float64
}

func NewVec2(x, y float64) Vec2 {
	return Vec2{x, y}
}

func (v1 Vec2) DistanceTo(v2 Vec2) float64 {
	dx := v1.X - v2.X
	dy := v1.Y - v2.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Destination is a named point on the map the vehicle can be sent to.
type Destination struct {
	Name     string
	Position Vec2
}

// The vehicle reports speeds in km/h, the controller works in m/s.
const mpsPerKmh = 1.0 / 3.6

func KmhToMps(v float64) float64 { return v * mpsPerKmh }

func MpsToKmh(v float64) float64 { return v / mpsPerKmh }

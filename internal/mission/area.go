package mission

import (
	"fmt"
	"sort"
	"strings"

	"ufo-autopilot/pkg/types"
)

// Area is the rectangular patch of map the vehicle operates in, with the
// named destinations a flight can be sent to.
type Area struct {
	Min, Max     types.Vec2
	destinations map[string]types.Destination
}

// NewArea returns the default operating area with its stock destinations.
func NewArea() *Area {
	a := &Area{
		Min:          types.NewVec2(-500, -500),
		Max:          types.NewVec2(500, 500),
		destinations: make(map[string]types.Destination),
	}

	// keep the stock list in-area; AddDestination validates that
	for _, d := range []types.Destination{
		{Name: "ALPHA", Position: types.NewVec2(120, 80)},
		{Name: "BRAVO", Position: types.NewVec2(-200, 150)},
		{Name: "DELTA", Position: types.NewVec2(300, -220)},
		{Name: "ECHO", Position: types.NewVec2(-90, -340)},
		{Name: "HOTEL", Position: types.NewVec2(420, 390)},
	} {
		if err := a.AddDestination(d.Name, d.Position); err != nil {
			panic(err)
		}
	}
	return a
}

// Contains reports whether p lies inside the area bounds.
func (a *Area) Contains(p types.Vec2) bool {
	return p.X >= a.Min.X && p.X <= a.Max.X && p.Y >= a.Min.Y && p.Y <= a.Max.Y
}

// AddDestination registers a named point. Names are case-insensitive and
// stored upper-case; points outside the area are rejected.
func (a *Area) AddDestination(name string, pos types.Vec2) error {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("mission: destination name is empty")
	}
	if !a.Contains(pos) {
		return fmt.Errorf("mission: destination %s (%v, %v) is outside the area", name, pos.X, pos.Y)
	}
	a.destinations[name] = types.Destination{Name: name, Position: pos}
	return nil
}

// Lookup resolves a destination name, case-insensitively.
func (a *Area) Lookup(name string) (types.Destination, bool) {
	d, ok := a.destinations[strings.ToUpper(strings.TrimSpace(name))]
	return d, ok
}

// Destinations returns all named destinations sorted by name.
func (a *Area) Destinations() []types.Destination {
	out := make([]types.Destination, 0, len(a.destinations))
	for _, d := range a.destinations {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

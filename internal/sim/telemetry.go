package sim

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"ufo-autopilot/pkg/types"
)

type Event struct {
	Timestamp time.Time
	Flight    types.FlightID
	Message   string
	Urgent    bool
}

// Telemetry is a bounded in-memory event log. Urgent events mark crashes
// and predicted hazards; the view highlights them.
type Telemetry struct {
	mu       sync.Mutex
	events   []Event
	max      int
	recorder *FlightRecorder
}

func NewTelemetry(max int) *Telemetry {
	if max <= 0 {
		max = 50
	}
	return &Telemetry{max: max}
}

// WithRecorder mirrors every event to a persistent recorder.
func (t *Telemetry) WithRecorder(r *FlightRecorder) *Telemetry {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recorder = r
	return t
}

func (t *Telemetry) Record(flight types.FlightID, message string, urgent bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ev := Event{
		Timestamp: time.Now(),
		Flight:    flight,
		Message:   message,
		Urgent:    urgent,
	}
	t.events = append(t.events, ev)
	if len(t.events) > t.max {
		t.events = t.events[len(t.events)-t.max:]
	}
	if t.recorder != nil {
		t.recorder.Write(ev)
	}
}

// Events returns a copy of the log, oldest first.
func (t *Telemetry) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.events)
}

// FormatFlightData renders one fixed-width flight data line: airborne time
// and position, w characters per coordinate.
func FormatFlightData(vh Vehicle, w int) string {
	return fmt.Sprintf("%5.1f s: %*.1f %*.1f %*.1f", vh.FTime, w, vh.X, w, vh.Y, w, vh.Z)
}

// FlightRecorder persists telemetry lines to a size-rotated file.
type FlightRecorder struct {
	out *lumberjack.Logger
}

func NewFlightRecorder(path string) *FlightRecorder {
	return &FlightRecorder{out: &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
	}}
}

func (r *FlightRecorder) Write(ev Event) {
	mark := " "
	if ev.Urgent {
		mark = "!"
	}
	fmt.Fprintf(r.out, "%s %s%s %s\n", ev.Timestamp.Format(time.RFC3339), ev.Flight, mark, ev.Message)
}

func (r *FlightRecorder) Close() error {
	return r.out.Close()
}

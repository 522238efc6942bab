package nav

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports a non-finite or out-of-range caller value.
	ErrInvalidInput = errors.New("nav: invalid input")
	// ErrAdapter reports a vehicle backend failure.
	ErrAdapter = errors.New("nav: adapter failure")
)

// ConfigError is returned when a configuration value is rejected at
// construction time.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("nav: config %s: %s", e.Field, e.Reason)
}

// AbortReason tags why an approach or axis gave up.
type AbortReason string

const (
	AbortNone      AbortReason = ""
	AbortAdapter   AbortReason = "adapter_error"
	AbortTimeout   AbortReason = "timeout"
	AbortStalled   AbortReason = "stalled"
	AbortCancelled AbortReason = "cancelled"
)

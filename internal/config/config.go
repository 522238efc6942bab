// Package config loads the flight tuning file. Every field is optional;
// a partial JSON file overrides just the values it names and the rest keep
// the stock defaults, so the same file works for a single tweak or a full
// retune.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ufo-autopilot/internal/nav"
	"ufo-autopilot/pkg/types"
)

// Config is the root of the tuning file.
type Config struct {
	// Simulation pacing and the default cruise altitude for flights that
	// do not name one.
	Speedup        *int     `json:"speedup,omitempty"`
	CruiseAltitude *float64 `json:"cruise_altitude,omitempty"`

	// Per-axis profile tuning.
	Horizontal *AxisTuning `json:"horizontal,omitempty"`
	Vertical   *AxisTuning `json:"vertical,omitempty"`

	// Controller wait and abort budgets, shared by both axes.
	PollInterval    *string  `json:"poll_interval,omitempty"` // duration string like "10ms"
	TickTimeout     *string  `json:"tick_timeout,omitempty"`  // duration string like "2s"
	RetryBudget     *int     `json:"retry_budget,omitempty"`
	StallBudget     *int     `json:"stall_budget,omitempty"`
	HeadingDeadBand *float64 `json:"heading_dead_band,omitempty"` // degrees

	// Telemetry ring size for the view overlay.
	TelemetryLimit *int `json:"telemetry_limit,omitempty"`
}

// AxisTuning overrides one axis of the approach profile. Speeds are in
// km/h to match the vehicle's own units; distances in meters.
type AxisTuning struct {
	MaxSpeedKmh   *float64 `json:"max_speed_kmh,omitempty"`
	MaxAccelKmh   *float64 `json:"max_accel_kmh,omitempty"`
	MaxDecelKmh   *float64 `json:"max_decel_kmh,omitempty"`
	CruiseMargin  *float64 `json:"cruise_margin,omitempty"`
	StopTolerance *float64 `json:"stop_tolerance,omitempty"`
}

// Default returns an empty config; every getter falls back to the stock
// value.
func Default() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file. Fields omitted from the file keep
// their defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects values the controller would refuse at construction,
// so a bad file fails at load time rather than at launch.
func (c *Config) Validate() error {
	if c.Speedup != nil && (*c.Speedup < 1 || *c.Speedup > 25) {
		return fmt.Errorf("speedup must be between 1 and 25, got %d", *c.Speedup)
	}
	if c.CruiseAltitude != nil && *c.CruiseAltitude <= 0 {
		return fmt.Errorf("cruise_altitude must be positive, got %f", *c.CruiseAltitude)
	}
	if c.PollInterval != nil && *c.PollInterval != "" {
		if _, err := time.ParseDuration(*c.PollInterval); err != nil {
			return fmt.Errorf("invalid poll_interval '%s': %w", *c.PollInterval, err)
		}
	}
	if c.TickTimeout != nil && *c.TickTimeout != "" {
		if _, err := time.ParseDuration(*c.TickTimeout); err != nil {
			return fmt.Errorf("invalid tick_timeout '%s': %w", *c.TickTimeout, err)
		}
	}
	if c.TelemetryLimit != nil && *c.TelemetryLimit <= 0 {
		return fmt.Errorf("telemetry_limit must be positive, got %d", *c.TelemetryLimit)
	}

	// The profile bounds have their own validation; run it here so the
	// error carries the field name.
	return c.Autopilot().Validate()
}

// Autopilot assembles the controller configuration from the stock
// defaults plus whatever this file overrides.
func (c *Config) Autopilot() nav.AutopilotConfig {
	cfg := nav.DefaultConfig()
	applyAxis(&cfg.Horizontal, c.Horizontal)
	applyAxis(&cfg.Vertical, c.Vertical)

	for _, ax := range []*nav.AxisConfig{&cfg.Horizontal, &cfg.Vertical} {
		ax.PollInterval = c.GetPollInterval()
		ax.TickTimeout = c.GetTickTimeout()
		if c.RetryBudget != nil {
			ax.RetryBudget = *c.RetryBudget
		}
		if c.StallBudget != nil {
			ax.StallBudget = *c.StallBudget
		}
		if c.HeadingDeadBand != nil {
			ax.HeadingDeadBand = *c.HeadingDeadBand
		}
	}
	return cfg
}

func applyAxis(dst *nav.AxisConfig, t *AxisTuning) {
	if t == nil {
		return
	}
	if t.MaxSpeedKmh != nil {
		dst.Profile.MaxSpeed = types.KmhToMps(*t.MaxSpeedKmh)
	}
	if t.MaxAccelKmh != nil {
		dst.Profile.MaxAccel = types.KmhToMps(*t.MaxAccelKmh)
	}
	if t.MaxDecelKmh != nil {
		dst.Profile.MaxDecel = types.KmhToMps(*t.MaxDecelKmh)
	}
	if t.CruiseMargin != nil {
		dst.Profile.CruiseMargin = *t.CruiseMargin
	}
	if t.StopTolerance != nil {
		dst.Profile.StopTolerance = *t.StopTolerance
	}
}

// GetSpeedup returns the speedup value or the default.
func (c *Config) GetSpeedup() int {
	if c.Speedup == nil {
		return 5
	}
	return *c.Speedup
}

// GetCruiseAltitude returns the cruise_altitude value or the default.
func (c *Config) GetCruiseAltitude() float64 {
	if c.CruiseAltitude == nil {
		return 10.0
	}
	return *c.CruiseAltitude
}

// GetPollInterval parses and returns the poll_interval as a time.Duration.
func (c *Config) GetPollInterval() time.Duration {
	if c.PollInterval == nil || *c.PollInterval == "" {
		return 10 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.PollInterval)
	if err != nil {
		return 10 * time.Millisecond
	}
	return d
}

// GetTickTimeout parses and returns the tick_timeout as a time.Duration.
func (c *Config) GetTickTimeout() time.Duration {
	if c.TickTimeout == nil || *c.TickTimeout == "" {
		return 2 * time.Second
	}
	d, err := time.ParseDuration(*c.TickTimeout)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// GetTelemetryLimit returns the telemetry_limit value or the default.
func (c *Config) GetTelemetryLimit() int {
	if c.TelemetryLimit == nil {
		return 50
	}
	return *c.TelemetryLimit
}

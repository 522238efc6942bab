package nav

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile() ProfileConfig {
	return ProfileConfig{
		MaxSpeed:      10,
		MaxAccel:      2,
		MaxDecel:      4,
		CruiseMargin:  1,
		StopTolerance: 0.1,
	}
}

func TestProfileConfigValidate(t *testing.T) {
	t.Run("accepts sane config", func(t *testing.T) {
		assert.NoError(t, validProfile().Validate())
	})

	t.Run("accepts zero stop tolerance", func(t *testing.T) {
		cfg := validProfile()
		cfg.StopTolerance = 0
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects bad values", func(t *testing.T) {
		mutations := map[string]func(*ProfileConfig){
			"zero max_speed":          func(c *ProfileConfig) { c.MaxSpeed = 0 },
			"negative max_accel":      func(c *ProfileConfig) { c.MaxAccel = -1 },
			"nan max_decel":           func(c *ProfileConfig) { c.MaxDecel = math.NaN() },
			"inf max_speed":           func(c *ProfileConfig) { c.MaxSpeed = math.Inf(1) },
			"zero cruise_margin":      func(c *ProfileConfig) { c.CruiseMargin = 0 },
			"negative stop_tolerance": func(c *ProfileConfig) { c.StopTolerance = -0.1 },
			"stop above margin":       func(c *ProfileConfig) { c.StopTolerance = 2; c.CruiseMargin = 1 },
		}
		for name, mutate := range mutations {
			t.Run(name, func(t *testing.T) {
				cfg := validProfile()
				mutate(&cfg)
				err := cfg.Validate()
				require.Error(t, err)
				var cfgErr *ConfigError
				assert.ErrorAs(t, err, &cfgErr)
			})
		}
	})
}

func TestComputeStopsFirst(t *testing.T) {
	cfg := validProfile()
	const dt = 0.1

	tests := []struct {
		name      string
		remaining float64
		speed     float64
	}{
		{"inside tolerance", 0.05, 0},
		{"exactly at tolerance", cfg.StopTolerance, 3},
		{"overshoot", -0.3, 1},
		{"still fast", 0.02, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, phase := cfg.Compute(tt.remaining, tt.speed, dt)
			assert.Equal(t, STOPPED, phase)
			assert.Zero(t, cmd)
		})
	}

	t.Run("stopped is idempotent", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			cmd, phase := cfg.Compute(0.05, 0, dt)
			assert.Equal(t, STOPPED, phase)
			assert.Zero(t, cmd)
		}
	})
}

func TestComputePhaseSelection(t *testing.T) {
	cfg := validProfile()
	const dt = 0.1

	t.Run("far and slow accelerates", func(t *testing.T) {
		cmd, phase := cfg.Compute(100, 3, dt)
		assert.Equal(t, ACCELERATING, phase)
		assert.InDelta(t, 3+cfg.MaxAccel*dt, cmd, 1e-12)
	})

	t.Run("far at max speed cruises", func(t *testing.T) {
		cmd, phase := cfg.Compute(100, cfg.MaxSpeed, dt)
		assert.Equal(t, CRUISING, phase)
		assert.Equal(t, cfg.MaxSpeed, cmd)
	})

	t.Run("external overspeed is clamped, not amplified", func(t *testing.T) {
		cmd, phase := cfg.Compute(100, 13, dt)
		assert.Equal(t, CRUISING, phase)
		assert.Equal(t, cfg.MaxSpeed, cmd)
	})

	t.Run("braking window entered at brake distance plus margin", func(t *testing.T) {
		speed := cfg.MaxSpeed
		boundary := cfg.BrakingDistance(speed) + cfg.CruiseMargin
		cmd, phase := cfg.Compute(boundary, speed, dt)
		assert.Equal(t, DECELERATING, phase)
		assert.LessOrEqual(t, cmd, cfg.MaxSpeed)

		_, phase = cfg.Compute(boundary+0.001, speed, dt)
		assert.Equal(t, CRUISING, phase)
	})

	t.Run("braking never drops faster than max_decel", func(t *testing.T) {
		speed := 8.0
		cmd, phase := cfg.Compute(2.0, speed, dt)
		assert.Equal(t, DECELERATING, phase)
		assert.GreaterOrEqual(t, cmd, speed-cfg.MaxDecel*dt-1e-12)
	})
}

// A vehicle can enter the braking window slower than the braking curve,
// in the extreme at zero speed just outside the stop tolerance. The policy
// has to command speed back up, accel-limited, instead of freezing there.
func TestComputeRecoversFromZeroSpeedNearTarget(t *testing.T) {
	cfg := validProfile()
	const dt = 0.1

	cmd, phase := cfg.Compute(cfg.StopTolerance+0.01, 0, dt)
	assert.Equal(t, DECELERATING, phase)
	assert.Greater(t, cmd, 0.0, "zero command here would stall short of the target")
	assert.LessOrEqual(t, cmd, cfg.MaxAccel*dt+1e-12)

	remaining := cfg.StopTolerance + 0.01
	speed := 0.0
	for i := 0; i < 1000; i++ {
		cmd, phase = cfg.Compute(remaining, speed, dt)
		if phase == STOPPED {
			break
		}
		speed = cmd
		remaining -= speed * dt
	}
	assert.Equal(t, STOPPED, phase, "closed loop must reach STOPPED")
}

// Closed-loop run of the canonical scenario: 100 m out, max speed 10,
// accel 2, decel 4, stop tolerance 0.1, cruise margin 1. Perfect speed
// tracking, Euler integration.
func TestComputeScenarioTrapezoid(t *testing.T) {
	cfg := validProfile()
	const dt = 0.05

	remaining := 100.0
	speed := 0.0
	var phases []Phase
	var commands []float64

	for i := 0; i < 100000; i++ {
		cmd, phase := cfg.Compute(remaining, speed, dt)
		phases = append(phases, phase)
		commands = append(commands, cmd)
		if phase == STOPPED {
			break
		}
		speed = cmd
		remaining -= speed * dt
	}

	last := phases[len(phases)-1]
	require.Equal(t, STOPPED, last, "must converge in bounded ticks")
	assert.LessOrEqual(t, remaining, cfg.StopTolerance)

	seen := map[Phase]bool{}
	for _, p := range phases {
		seen[p] = true
	}
	assert.True(t, seen[ACCELERATING], "scenario is long enough to accelerate")
	assert.True(t, seen[CRUISING], "scenario is long enough to cruise at max speed")
	assert.True(t, seen[DECELERATING])

	for i := 1; i < len(phases); i++ {
		assert.GreaterOrEqual(t, phases[i], phases[i-1],
			"phase regressed at step %d: %s -> %s", i, PhaseStringMap[phases[i-1]], PhaseStringMap[phases[i]])
	}

	for i, cmd := range commands {
		assert.GreaterOrEqual(t, cmd, 0.0, "step %d", i)
		assert.LessOrEqual(t, cmd, cfg.MaxSpeed, "step %d", i)
		if i > 0 {
			assert.LessOrEqual(t, cmd, commands[i-1]+cfg.MaxAccel*dt+1e-9, "accel bound broken at step %d", i)
			assert.GreaterOrEqual(t, cmd, commands[i-1]-cfg.MaxDecel*dt-1e-9, "decel bound broken at step %d", i)
		}
	}

	// once the commanded speed starts coming down inside the braking
	// window it must keep coming down
	descending := false
	for i := 1; i < len(commands); i++ {
		if phases[i] != DECELERATING {
			continue
		}
		if commands[i] < commands[i-1]-1e-9 {
			descending = true
		} else if descending {
			assert.LessOrEqual(t, commands[i], commands[i-1]+1e-9, "braking command rose again at step %d", i)
		}
	}
}

func TestBrakingDistance(t *testing.T) {
	cfg := validProfile()
	assert.InDelta(t, 12.5, cfg.BrakingDistance(10), 1e-12)
	assert.Zero(t, cfg.BrakingDistance(0))
}

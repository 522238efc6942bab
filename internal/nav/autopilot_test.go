package nav

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufo-autopilot/pkg/types"
)

func autopilotTestConfig() AutopilotConfig {
	return AutopilotConfig{
		Horizontal:   testAxisConfig(),
		Vertical:     testAxisConfig(),
		TickDuration: 50 * time.Millisecond,
	}
}

func TestNewAutopilotValidation(t *testing.T) {
	_, err := NewAutopilot(nil, autopilotTestConfig())
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad := autopilotTestConfig()
	bad.TickDuration = 0
	_, err = NewAutopilot(newFakeVehicle(), bad)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	bad = autopilotTestConfig()
	bad.Vertical.Profile.MaxDecel = 0
	_, err = NewAutopilot(newFakeVehicle(), bad)
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, types.KmhToMps(15), cfg.Horizontal.Profile.MaxSpeed, 1e-9)
	assert.InDelta(t, types.KmhToMps(10), cfg.Vertical.Profile.MaxSpeed, 1e-9)
	assert.Equal(t, 100*time.Millisecond, cfg.TickDuration)
	assert.Greater(t, cfg.Horizontal.Profile.CruiseMargin, cfg.Vertical.Profile.CruiseMargin)
}

func TestApproachTargetValidation(t *testing.T) {
	ap, err := NewAutopilot(newFakeVehicle(), autopilotTestConfig())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("no axis engaged", func(t *testing.T) {
		_, err := ap.Approach(ctx, Target{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("heading without position", func(t *testing.T) {
		hdg := 90.0
		_, err := ap.Approach(ctx, Target{Heading: &hdg})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("pitch without altitude", func(t *testing.T) {
		pitch := 90.0
		_, err := ap.Approach(ctx, Target{Pitch: &pitch})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("non-finite altitude", func(t *testing.T) {
		alt := math.NaN()
		_, err := ap.Approach(ctx, Target{Altitude: &alt})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestApproachConvergesBothAxes(t *testing.T) {
	f := newFakeVehicle()
	f.autoTick = true
	f.remaining[HORIZONTAL] = 50
	f.remaining[VERTICAL] = 10
	f.heading = 350

	ap, err := NewAutopilot(f, autopilotTestConfig())
	require.NoError(t, err)

	pos := types.NewVec2(50, 0)
	hdg := 10.0
	alt := 10.0
	pitch := 90.0
	res, err := ap.Approach(context.Background(), Target{Position: &pos, Heading: &hdg, Altitude: &alt, Pitch: &pitch})
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.Equal(t, AbortNone, res.Reason)
	assert.NoError(t, uuid.Validate(res.ID))
	assert.Greater(t, res.Ticks, uint64(0))

	assert.LessOrEqual(t, f.remaining[HORIZONTAL], testAxisConfig().Profile.StopTolerance)
	assert.LessOrEqual(t, f.remaining[VERTICAL], testAxisConfig().Profile.StopTolerance)

	throttles := f.opsOf("throttle")
	require.GreaterOrEqual(t, len(throttles), 2)
	assert.Equal(t, HORIZONTAL, throttles[0].axis, "horizontal axis steps first")
	assert.Equal(t, VERTICAL, throttles[1].axis)

	pitchOps := f.opsOf("pitch")
	require.Len(t, pitchOps, 2)
	assert.Equal(t, 90.0, pitchOps[0].value)
	assert.Zero(t, pitchOps[1].value)

	headings := f.opsOf("heading")
	require.NotEmpty(t, headings)
	assert.Equal(t, 10.0, headings[0].value)
}

func TestApproachSingleVerticalAxis(t *testing.T) {
	f := newFakeVehicle()
	f.autoTick = true
	f.remaining[VERTICAL] = 25

	ap, err := NewAutopilot(f, autopilotTestConfig())
	require.NoError(t, err)

	alt := 25.0
	res, err := ap.Approach(context.Background(), Target{Altitude: &alt})
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.Empty(t, f.opsOf("heading"))
	for _, op := range f.opsOf("throttle") {
		assert.Equal(t, VERTICAL, op.axis)
	}
}

func TestApproachAdapterErrorMidFlight(t *testing.T) {
	f := newFakeVehicle()
	f.autoTick = true
	f.remaining[VERTICAL] = 100
	f.stateErrTick = 20
	f.armedErr = assert.AnError

	ap, err := NewAutopilot(f, autopilotTestConfig())
	require.NoError(t, err)

	alt := 100.0
	res, err := ap.Approach(context.Background(), Target{Altitude: &alt})
	require.NoError(t, err, "mid-flight failures surface in the result, not as call errors")

	assert.False(t, res.Converged)
	assert.Equal(t, VERTICAL, res.Axis)
	assert.Equal(t, AbortAdapter, res.Reason)
	assert.ErrorIs(t, res.Err, ErrAdapter)
}

func TestApproachCancellation(t *testing.T) {
	f := newFakeVehicle()
	f.remaining[VERTICAL] = 30

	ap, err := NewAutopilot(f, autopilotTestConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	alt := 30.0
	res, err := ap.Approach(ctx, Target{Altitude: &alt})
	require.NoError(t, err)

	assert.False(t, res.Converged)
	assert.Equal(t, AbortCancelled, res.Reason)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestApproachSimulationStarvation(t *testing.T) {
	f := newFakeVehicle()
	f.remaining[VERTICAL] = 30

	cfg := autopilotTestConfig()
	cfg.Vertical.PollInterval = time.Millisecond
	cfg.Vertical.TickTimeout = 5 * time.Millisecond
	cfg.Vertical.RetryBudget = 1

	ap, err := NewAutopilot(f, cfg)
	require.NoError(t, err)

	alt := 30.0
	res, err := ap.Approach(context.Background(), Target{Altitude: &alt})
	require.NoError(t, err)

	assert.False(t, res.Converged)
	assert.Equal(t, VERTICAL, res.Axis)
	assert.Equal(t, AbortTimeout, res.Reason)
}

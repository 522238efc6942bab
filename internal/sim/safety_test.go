package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictTouchdown(t *testing.T) {
	cases := []struct {
		name    string
		vh      Vehicle
		contact bool
		hard    bool
	}{
		{"grounded", Vehicle{}, false, false},
		{"climbing", Vehicle{Z: 5, V: 10, TargetV: 10, I: 90}, false, false},
		{"level flight", Vehicle{Z: 5, V: 10, TargetV: 10, I: 0}, false, false},
		{"contact beyond horizon", Vehicle{Z: 100, V: 10, TargetV: 10, I: -90}, false, false},
		{"recoverable descent", Vehicle{Z: 5, V: 10, TargetV: 10, I: -90}, true, false},
		{"unrecoverable plunge", Vehicle{Z: 0.3, V: 15, TargetV: 15, I: -90}, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			td, ok := PredictTouchdown(tc.vh, HAZARD_HORIZON)
			assert.Equal(t, tc.contact, ok)
			assert.Equal(t, tc.hard, ok && HardLanding(td))
		})
	}
}

func TestPredictTouchdownNumbers(t *testing.T) {
	// sinking at 10 km/h from 5 m: contact in 5 / (10/3.6) = 1.8 s, and
	// full braking strips 18 km/h over that window
	td, ok := PredictTouchdown(Vehicle{Z: 5, V: 10, TargetV: 10, I: -90}, HAZARD_HORIZON)
	require.True(t, ok)
	assert.InDelta(t, 1.8, td.ETA, 1e-9)
	assert.Zero(t, td.ImpactV)

	td, ok = PredictTouchdown(Vehicle{Z: 0.3, V: 15, TargetV: 15, I: -90}, HAZARD_HORIZON)
	require.True(t, ok)
	assert.InDelta(t, 0.072, td.ETA, 1e-9)
	assert.InDelta(t, 15-10*0.072, td.ImpactV, 1e-9)
}

func TestHardLandingThreshold(t *testing.T) {
	assert.False(t, HardLanding(Touchdown{ImpactV: LANDING_VMAX}))
	assert.True(t, HardLanding(Touchdown{ImpactV: LANDING_VMAX + 0.01}))
}

func TestShallowDescentProjectsAlongSink(t *testing.T) {
	// 30 degrees down at 10 km/h sinks at half the drive speed
	vh := Vehicle{Z: 2, V: 10, TargetV: 10, I: -30}
	td, ok := PredictTouchdown(vh, HAZARD_HORIZON)
	require.True(t, ok)
	assert.InDelta(t, 2/(10/3.6*0.5), td.ETA, 1e-9)
	assert.False(t, HardLanding(td))
}

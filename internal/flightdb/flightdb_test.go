package flightdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlightRoundTrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "flights.db"))
	require.NoError(t, err)
	defer db.Close()

	want := Flight{
		ID:        uuid.NewString(),
		Callsign:  "UFO-1",
		DestX:     30,
		DestY:     40,
		CruiseAlt: 10,
		PlannedM:  70,
		ActualM:   70.42,
		Converged: true,
		Duration:  3210 * time.Millisecond,
		StartedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.RecordFlight(want))

	got, err := db.Recent(10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("flight row mismatch (-want +got):\n%s", diff)
	}
}

func TestRecentOrdersAndLimits(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.RecordFlight(Flight{
			ID:        uuid.NewString(),
			Callsign:  "UFO-1",
			Reason:    "stalled",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := db.Recent(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].StartedAt.After(got[1].StartedAt), "newest first")
	assert.Equal(t, "stalled", got[0].Reason)
}

func TestDuplicateFlightIDRejected(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	f := Flight{ID: "fixed", StartedAt: time.Now()}
	require.NoError(t, db.RecordFlight(f))
	assert.Error(t, db.RecordFlight(f))
}

package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eastern(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("timezone database unavailable")
	}
	return loc
}

func sampleIndex() *Index {
	return Rebuild(
		[]Trip{{ID: "T1", RouteID: "R1", ServiceID: "WK", DirectionID: "0"}},
		[]StopTime{
			{TripID: "T1", StopID: "S1", StopSequence: "1", Arrival: hm(8, 0), Departure: hm(8, 0)},
			{TripID: "T1", StopID: "S2", StopSequence: "2", Arrival: hm(8, 30), Departure: hm(8, 35)},
		},
	)
}

func TestMerge(t *testing.T) {
	loc := eastern(t)
	index := sampleIndex()

	t.Run("epoch times convert to local time of day", func(t *testing.T) {
		departure := time.Date(2024, 1, 1, 13, 4, 0, 0, time.UTC) // 08:04 EST
		arrival := time.Date(2024, 1, 1, 13, 2, 0, 0, time.UTC)
		overlay, stats := Merge(index, []TripUpdate{{
			TripID: "T1",
			StopTimeUpdates: []StopTimeUpdate{
				{StopSequence: "1", ArrivalTime: &arrival, DepartureTime: &departure},
			},
		}}, loc)

		assert.Equal(t, MergeStats{Matched: 1}, stats)
		actual, ok := overlay[StopKey{TripID: "T1", StopSequence: "1"}]
		require.True(t, ok)
		require.NotNil(t, actual.Departure)
		require.NotNil(t, actual.Arrival)
		assert.Equal(t, hm(8, 4), *actual.Departure)
		assert.Equal(t, hm(8, 2), *actual.Arrival)

		scheduled, _ := index.StopTime(StopKey{TripID: "T1", StopSequence: "1"})
		assert.Equal(t, hm(8, 0), scheduled.Departure)
	})

	t.Run("delay only events are applied to the scheduled time", func(t *testing.T) {
		delay := 3 * time.Minute
		overlay, _ := Merge(index, []TripUpdate{{
			TripID:          "T1",
			StopTimeUpdates: []StopTimeUpdate{{StopSequence: "2", DepartureDelay: &delay}},
		}}, loc)

		actual := overlay[StopKey{TripID: "T1", StopSequence: "2"}]
		assert.Nil(t, actual.Arrival)
		require.NotNil(t, actual.Departure)
		assert.Equal(t, hm(8, 38), *actual.Departure)
	})

	t.Run("unknown trip is ignored", func(t *testing.T) {
		departure := time.Now()
		overlay, stats := Merge(index, []TripUpdate{{
			TripID:          "UNKNOWN",
			StopTimeUpdates: []StopTimeUpdate{{StopSequence: "1", DepartureTime: &departure}},
		}}, loc)

		assert.Empty(t, overlay)
		assert.Equal(t, MergeStats{Unmatched: 1}, stats)
	})

	t.Run("unknown stop sequence is ignored", func(t *testing.T) {
		departure := time.Now()
		overlay, stats := Merge(index, []TripUpdate{{
			TripID:          "T1",
			StopTimeUpdates: []StopTimeUpdate{{StopSequence: "01", DepartureTime: &departure}},
		}}, loc)

		assert.Empty(t, overlay)
		assert.Equal(t, 1, stats.Unmatched)
	})

	t.Run("empty update list produces an empty overlay", func(t *testing.T) {
		overlay, stats := Merge(index, nil, loc)
		assert.Empty(t, overlay)
		assert.Equal(t, MergeStats{}, stats)
		assert.Equal(t, 2, index.StopTimeCount())
	})

	t.Run("nil index matches nothing", func(t *testing.T) {
		departure := time.Now()
		overlay, stats := Merge(nil, []TripUpdate{{
			TripID:          "T1",
			StopTimeUpdates: []StopTimeUpdate{{StopSequence: "1", DepartureTime: &departure}},
		}}, loc)
		assert.Empty(t, overlay)
		assert.Equal(t, 1, stats.Unmatched)
	})
}

func TestMergeResetsPreviousOverlay(t *testing.T) {
	loc := eastern(t)
	index := sampleIndex()
	departure := time.Date(2024, 1, 1, 13, 4, 0, 0, time.UTC)

	snapshot := &Snapshot{Location: loc, Index: index}
	first, _ := Merge(index, []TripUpdate{{
		TripID:          "T1",
		StopTimeUpdates: []StopTimeUpdate{{StopSequence: "1", DepartureTime: &departure}},
	}}, loc)
	snapshot = snapshot.WithOverlay(first, time.Now())
	require.Len(t, snapshot.Overlay, 1)

	second, _ := Merge(index, nil, loc)
	snapshot = snapshot.WithOverlay(second, time.Now())
	assert.Empty(t, snapshot.Overlay)
	assert.Len(t, first, 1, "earlier overlay is left untouched")
}

func TestTimeOfDay(t *testing.T) {
	loc := eastern(t)

	assert.Equal(t, hm(8, 0), TimeOfDay(time.Date(2024, 3, 10, 8, 0, 0, 0, loc)), "DST start day")
	assert.Equal(t, time.Duration(0), TimeOfDay(time.Date(2024, 1, 1, 0, 0, 0, 0, loc)))
	assert.Equal(t, hm(23, 59)+59*time.Second, TimeOfDay(time.Date(2024, 1, 1, 23, 59, 59, 0, loc)))
}

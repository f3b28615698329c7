package schedule

import (
	"time"
)

// TripUpdate is a decoded GTFS-realtime trip update reduced to what the merge needs.
type TripUpdate struct {
	TripID          string
	StopTimeUpdates []StopTimeUpdate
}

// StopTimeUpdate carries the predicted or observed times for one stop of a trip.
type StopTimeUpdate struct {
	StopSequence   string
	ArrivalTime    *time.Time
	DepartureTime  *time.Time
	ArrivalDelay   *time.Duration
	DepartureDelay *time.Duration
}

// Actual holds realtime time-of-day values for one stop time. Nil means no data.
type Actual struct {
	Arrival   *time.Duration
	Departure *time.Duration
}

// Overlay maps stop times to their realtime actuals. Entries absent from the
// overlay have no realtime data.
type Overlay map[StopKey]Actual

// MergeStats counts how many stop time updates found a stop time in the index.
type MergeStats struct {
	Matched   int
	Unmatched int
}

// Merge builds a new overlay from updates against index. Any previous overlay is
// discarded by the caller, so stale actuals never survive a refresh.
// Updates for trips or sequences the index does not know are skipped.
func Merge(index *Index, updates []TripUpdate, loc *time.Location) (Overlay, MergeStats) {
	overlay := Overlay{}
	var stats MergeStats

	if index == nil {
		for _, update := range updates {
			stats.Unmatched += len(update.StopTimeUpdates)
		}
		return overlay, stats
	}

	for _, update := range updates {
		for _, stu := range update.StopTimeUpdates {
			key := StopKey{TripID: update.TripID, StopSequence: stu.StopSequence}
			stopTime, ok := index.StopTime(key)
			if !ok {
				stats.Unmatched++
				continue
			}
			stats.Matched++

			overlay[key] = Actual{
				Arrival:   actualTimeOfDay(stu.ArrivalTime, stu.ArrivalDelay, stopTime.Arrival, loc),
				Departure: actualTimeOfDay(stu.DepartureTime, stu.DepartureDelay, stopTime.Departure, loc),
			}
		}
	}

	return overlay, stats
}

func actualTimeOfDay(at *time.Time, delay *time.Duration, scheduled time.Duration, loc *time.Location) *time.Duration {
	if at != nil && !at.IsZero() {
		tod := TimeOfDay(at.In(loc))
		return &tod
	}
	if delay != nil {
		tod := scheduled + *delay
		return &tod
	}
	return nil
}

// TimeOfDay returns the wall clock offset of t from its local midnight.
// It reads the wall clock fields, so DST transition days still map 08:00 to 8h.
func TimeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

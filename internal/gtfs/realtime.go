package gtfs

import (
	"context"
	"strconv"

	"github.com/jamespfennell/gtfs"

	"ferryboard/internal/schedule"
)

func loadRealtimeData(ctx context.Context, source string, headers map[string]string) (*gtfs.Realtime, error) {
	b, err := rawGtfsData(ctx, source, headers)
	if err != nil {
		return nil, err
	}

	realtime, err := gtfs.ParseRealtime(b, &gtfs.ParseRealtimeOptions{})
	if err != nil {
		return nil, &SourceParseError{Source: source, Err: err}
	}
	return realtime, nil
}

// loadTripUpdates fetches the configured trip updates feed.
func loadTripUpdates(ctx context.Context, config Config) ([]schedule.TripUpdate, error) {
	realtime, err := loadRealtimeData(ctx, config.TripUpdatesURL, config.realtimeHeaders())
	if err != nil {
		return nil, err
	}
	return tripUpdatesFromRealtime(realtime), nil
}

// tripUpdatesFromRealtime keeps the stop time updates that can be matched by
// stop sequence. Sequences are rendered in decimal, the form static feeds use.
func tripUpdatesFromRealtime(realtime *gtfs.Realtime) []schedule.TripUpdate {
	if realtime == nil {
		return nil
	}

	updates := make([]schedule.TripUpdate, 0, len(realtime.Trips))
	for _, trip := range realtime.Trips {
		if trip.ID.ID == "" || len(trip.StopTimeUpdates) == 0 {
			continue
		}

		update := schedule.TripUpdate{TripID: trip.ID.ID}
		for _, stu := range trip.StopTimeUpdates {
			if stu.StopSequence == nil {
				continue
			}
			converted := schedule.StopTimeUpdate{
				StopSequence: strconv.FormatUint(uint64(*stu.StopSequence), 10),
			}
			if stu.Arrival != nil {
				converted.ArrivalTime = stu.Arrival.Time
				converted.ArrivalDelay = stu.Arrival.Delay
			}
			if stu.Departure != nil {
				converted.DepartureTime = stu.Departure.Time
				converted.DepartureDelay = stu.Departure.Delay
			}
			update.StopTimeUpdates = append(update.StopTimeUpdates, converted)
		}

		if len(update.StopTimeUpdates) > 0 {
			updates = append(updates, update)
		}
	}
	return updates
}

package schedule

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
)

// Snapshot is one consistent view of the schedule: resolved service days, the
// index and its realtime overlay. Published snapshots are never mutated.
type Snapshot struct {
	Location            *time.Location
	Services            ServiceDays
	Index               *Index
	Overlay             Overlay
	StaticRefreshedAt   time.Time
	RealtimeRefreshedAt time.Time
}

// WithOverlay returns a copy of the snapshot carrying overlay.
func (snapshot *Snapshot) WithOverlay(overlay Overlay, refreshedAt time.Time) *Snapshot {
	next := *snapshot
	next.Overlay = overlay
	next.RealtimeRefreshedAt = refreshedAt
	return &next
}

// Target names a route, direction and stop to compute departures for.
type Target struct {
	Name        string
	RouteID     string
	DirectionID string
	StopID      string
}

// Occurrence is a stop time resolved against a calendar date. It is a value copy
// and shares nothing with the index.
type Occurrence struct {
	TripID             string
	StopID             string
	StopSequence       string
	Date               civil.Date
	ScheduledArrival   time.Duration
	ScheduledDeparture time.Duration
	ActualArrival      *time.Duration
	ActualDeparture    *time.Duration
}

// serviceDayStart returns the GTFS service day origin, noon minus 12h, for date in loc.
func serviceDayStart(date civil.Date, loc *time.Location) time.Time {
	return time.Date(date.Year, date.Month, date.Day, 12, 0, 0, 0, loc).Add(-12 * time.Hour)
}

// DepartureAt returns the scheduled departure as an absolute time.
func (o Occurrence) DepartureAt(loc *time.Location) time.Time {
	return serviceDayStart(o.Date, loc).Add(o.ScheduledDeparture)
}

// ArrivalAt returns the scheduled arrival as an absolute time.
func (o Occurrence) ArrivalAt(loc *time.Location) time.Time {
	return serviceDayStart(o.Date, loc).Add(o.ScheduledArrival)
}

// ExpectedDepartureAt prefers the realtime departure over the scheduled one.
func (o Occurrence) ExpectedDepartureAt(loc *time.Location) time.Time {
	if o.ActualDeparture == nil {
		return o.DepartureAt(loc)
	}
	return serviceDayStart(o.Date, loc).Add(nearestOffset(*o.ActualDeparture, o.ScheduledDeparture))
}

// ExpectedArrivalAt prefers the realtime arrival over the scheduled one.
func (o Occurrence) ExpectedArrivalAt(loc *time.Location) time.Time {
	if o.ActualArrival == nil {
		return o.ArrivalAt(loc)
	}
	return serviceDayStart(o.Date, loc).Add(nearestOffset(*o.ActualArrival, o.ScheduledArrival))
}

// nearestOffset shifts a realtime time of day by whole days so it lies within
// 12 hours of the scheduled offset. Scheduled offsets may exceed 24h.
func nearestOffset(actual, scheduled time.Duration) time.Duration {
	const day = 24 * time.Hour
	diff := scheduled - actual + 12*time.Hour
	days := diff / day
	if diff < 0 && diff%day != 0 {
		days--
	}
	return actual + days*day
}

// DueIn returns whole minutes from now until the scheduled departure.
func (o Occurrence) DueIn(now time.Time) int {
	return int(o.DepartureAt(now.Location()).Sub(now).Minutes())
}

// RemainingStops lists the stop's departures still ahead of now today, plus
// tomorrow's departures later than now's time of day, in (date, departure) order.
// Filtering compares scheduled departures, never realtime ones.
func RemainingStops(snapshot *Snapshot, target Target, now time.Time) []Occurrence {
	occurrences := []Occurrence{}
	if snapshot == nil || snapshot.Index == nil {
		return occurrences
	}

	loc := snapshot.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	today := civil.DateOf(local)
	tomorrow := today.AddDays(1)
	nowTOD := TimeOfDay(local)

	services := snapshot.Services
	index := snapshot.Index

	for _, trip := range index.trips {
		if trip.RouteID != target.RouteID || trip.DirectionID != target.DirectionID {
			continue
		}
		index.eachStopTime(trip.ID, func(stopTime StopTime) {
			if stopTime.StopID != target.StopID || stopTime.Departure <= nowTOD {
				return
			}
			if services.Today != "" && trip.ServiceID == services.Today {
				occurrences = append(occurrences, snapshot.occurrence(stopTime, today))
			}
			if services.Tomorrow != "" && trip.ServiceID == services.Tomorrow {
				occurrences = append(occurrences, snapshot.occurrence(stopTime, tomorrow))
			}
		})
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		a, b := occurrences[i], occurrences[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		return a.ScheduledDeparture < b.ScheduledDeparture
	})

	return occurrences
}

// TripOccurrences resolves every stop time of a trip against date, in stop sequence order.
func TripOccurrences(snapshot *Snapshot, tripID string, date civil.Date) []Occurrence {
	if snapshot == nil || snapshot.Index == nil {
		return nil
	}
	stopTimes := snapshot.Index.StopTimes(tripID)
	out := make([]Occurrence, 0, len(stopTimes))
	for _, stopTime := range stopTimes {
		out = append(out, snapshot.occurrence(stopTime, date))
	}
	return out
}

func (snapshot *Snapshot) occurrence(stopTime StopTime, date civil.Date) Occurrence {
	o := Occurrence{
		TripID:             stopTime.TripID,
		StopID:             stopTime.StopID,
		StopSequence:       stopTime.StopSequence,
		Date:               date,
		ScheduledArrival:   stopTime.Arrival,
		ScheduledDeparture: stopTime.Departure,
	}
	if actual, ok := snapshot.Overlay[StopKey{TripID: stopTime.TripID, StopSequence: stopTime.StopSequence}]; ok {
		o.ActualArrival = copyDuration(actual.Arrival)
		o.ActualDeparture = copyDuration(actual.Departure)
	}
	return o
}

func copyDuration(d *time.Duration) *time.Duration {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

package schedule

import (
	"sort"
	"time"
)

// Trip corresponds to a single row in trips.txt.
type Trip struct {
	ID          string
	RouteID     string
	ServiceID   string
	DirectionID string
}

// StopTime corresponds to a single row in stop_times.txt.
// Arrival and Departure are offsets from local midnight of the service day and may exceed 24h.
type StopTime struct {
	TripID       string
	StopID       string
	StopSequence string
	Arrival      time.Duration
	Departure    time.Duration
}

// StopKey addresses one stop time within the index.
type StopKey struct {
	TripID       string
	StopSequence string
}

type tripStops struct {
	order []string
	bySeq map[string]StopTime
}

// Index groups trips and their stop times. It is never mutated after Rebuild returns.
type Index struct {
	trips     []Trip
	tripByID  map[string]int
	stops     map[string]*tripStops
	stopCount int
}

// Rebuild builds a fresh index from trip and stop time records.
// Duplicate trip ids and duplicate (trip, stop sequence) pairs keep the last record
// in the position of the first.
func Rebuild(trips []Trip, stopTimes []StopTime) *Index {
	index := &Index{
		trips:    make([]Trip, 0, len(trips)),
		tripByID: make(map[string]int, len(trips)),
		stops:    make(map[string]*tripStops),
	}

	for _, trip := range trips {
		if i, ok := index.tripByID[trip.ID]; ok {
			index.trips[i] = trip
			continue
		}
		index.tripByID[trip.ID] = len(index.trips)
		index.trips = append(index.trips, trip)
	}

	for _, stopTime := range stopTimes {
		entries, ok := index.stops[stopTime.TripID]
		if !ok {
			entries = &tripStops{bySeq: make(map[string]StopTime)}
			index.stops[stopTime.TripID] = entries
		}
		if _, exists := entries.bySeq[stopTime.StopSequence]; !exists {
			entries.order = append(entries.order, stopTime.StopSequence)
			index.stopCount++
		}
		entries.bySeq[stopTime.StopSequence] = stopTime
	}

	return index
}

// Trip looks up a trip by id.
func (index *Index) Trip(id string) (Trip, bool) {
	if index == nil {
		return Trip{}, false
	}
	i, ok := index.tripByID[id]
	if !ok {
		return Trip{}, false
	}
	return index.trips[i], true
}

// Trips returns the indexed trips in load order.
func (index *Index) Trips() []Trip {
	if index == nil {
		return nil
	}
	out := make([]Trip, len(index.trips))
	copy(out, index.trips)
	return out
}

// StopTime looks up a single stop time.
func (index *Index) StopTime(key StopKey) (StopTime, bool) {
	if index == nil {
		return StopTime{}, false
	}
	entries, ok := index.stops[key.TripID]
	if !ok {
		return StopTime{}, false
	}
	stopTime, ok := entries.bySeq[key.StopSequence]
	return stopTime, ok
}

// StopTimes returns a trip's stop times ordered by stop sequence compared as strings.
// Sequences are labels, so "10" sorts before "9" unless the feed zero-pads them.
func (index *Index) StopTimes(tripID string) []StopTime {
	if index == nil {
		return nil
	}
	entries, ok := index.stops[tripID]
	if !ok {
		return nil
	}
	sequences := make([]string, len(entries.order))
	copy(sequences, entries.order)
	sort.Strings(sequences)

	out := make([]StopTime, 0, len(sequences))
	for _, seq := range sequences {
		out = append(out, entries.bySeq[seq])
	}
	return out
}

// eachStopTime visits a trip's stop times in load order.
func (index *Index) eachStopTime(tripID string, fn func(StopTime)) {
	entries, ok := index.stops[tripID]
	if !ok {
		return
	}
	for _, seq := range entries.order {
		fn(entries.bySeq[seq])
	}
}

// TripCount returns the number of distinct trips.
func (index *Index) TripCount() int {
	if index == nil {
		return 0
	}
	return len(index.trips)
}

// StopTimeCount returns the number of distinct (trip, stop sequence) entries.
func (index *Index) StopTimeCount() int {
	if index == nil {
		return 0
	}
	return index.stopCount
}

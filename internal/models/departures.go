package models

import (
	"time"

	"cloud.google.com/go/civil"

	"ferryboard/internal/schedule"
)

// Departure is one upcoming departure of a trip from a stop. Times are epoch
// milliseconds; predicted times are 0 when no realtime data is available.
type Departure struct {
	TripID                 string `json:"tripId"`
	StopID                 string `json:"stopId"`
	StopSequence           string `json:"stopSequence"`
	ServiceDate            string `json:"serviceDate"`
	ScheduledArrivalTime   int64  `json:"scheduledArrivalTime"`
	ScheduledDepartureTime int64  `json:"scheduledDepartureTime"`
	PredictedArrivalTime   int64  `json:"predictedArrivalTime"`
	PredictedDepartureTime int64  `json:"predictedDepartureTime"`
	Predicted              bool   `json:"predicted"`
	MinutesUntilDeparture  int    `json:"minutesUntilDeparture"`
}

func NewDeparture(o schedule.Occurrence, loc *time.Location, now time.Time) Departure {
	d := Departure{
		TripID:                 o.TripID,
		StopID:                 o.StopID,
		StopSequence:           o.StopSequence,
		ServiceDate:            o.Date.String(),
		ScheduledArrivalTime:   o.ArrivalAt(loc).UnixMilli(),
		ScheduledDepartureTime: o.DepartureAt(loc).UnixMilli(),
		MinutesUntilDeparture:  o.DueIn(now.In(loc)),
	}
	// Realtime updates describe the current service day only.
	if o.Date != civil.DateOf(now.In(loc)) {
		return d
	}
	if o.ActualArrival != nil {
		d.Predicted = true
		d.PredictedArrivalTime = o.ExpectedArrivalAt(loc).UnixMilli()
	}
	if o.ActualDeparture != nil {
		d.Predicted = true
		d.PredictedDepartureTime = o.ExpectedDepartureAt(loc).UnixMilli()
	}
	return d
}

// DepartureBoard lists a target's remaining departures. State is the number of
// minutes until the first departure, or null when nothing departs.
type DepartureBoard struct {
	Name        string      `json:"name,omitempty"`
	RouteID     string      `json:"routeId"`
	DirectionID string      `json:"directionId"`
	StopID      string      `json:"stopId"`
	GeneratedAt int64       `json:"generatedAt"`
	State       *int        `json:"state"`
	Departures  []Departure `json:"departures"`
}

func NewDepartureBoard(target schedule.Target, occurrences []schedule.Occurrence, loc *time.Location, now time.Time) DepartureBoard {
	board := DepartureBoard{
		Name:        target.Name,
		RouteID:     target.RouteID,
		DirectionID: target.DirectionID,
		StopID:      target.StopID,
		GeneratedAt: now.UnixMilli(),
		Departures:  make([]Departure, 0, len(occurrences)),
	}
	for _, o := range occurrences {
		board.Departures = append(board.Departures, NewDeparture(o, loc, now))
	}
	if len(board.Departures) > 0 {
		state := board.Departures[0].MinutesUntilDeparture
		board.State = &state
	}
	return board
}

// TripSchedule is every stop of one trip on a service date.
type TripSchedule struct {
	TripID      string      `json:"tripId"`
	RouteID     string      `json:"routeId"`
	DirectionID string      `json:"directionId"`
	ServiceID   string      `json:"serviceId"`
	ServiceDate string      `json:"serviceDate"`
	StopTimes   []Departure `json:"stopTimes"`
}

func NewTripSchedule(trip schedule.Trip, date civil.Date, occurrences []schedule.Occurrence, loc *time.Location, now time.Time) TripSchedule {
	tripSchedule := TripSchedule{
		TripID:      trip.ID,
		RouteID:     trip.RouteID,
		DirectionID: trip.DirectionID,
		ServiceID:   trip.ServiceID,
		ServiceDate: date.String(),
		StopTimes:   make([]Departure, 0, len(occurrences)),
	}
	for _, o := range occurrences {
		tripSchedule.StopTimes = append(tripSchedule.StopTimes, NewDeparture(o, loc, now))
	}
	return tripSchedule
}

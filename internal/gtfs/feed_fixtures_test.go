package gtfs

import (
	"archive/zip"
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	rt "github.com/jamespfennell/gtfs/proto"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

// ferryFiles is a small weekday ferry service starting Monday 2024-01-01.
// T1 and T2 run route R1 outbound from S1 to S2; T3 runs back.
func ferryFiles() map[string][]string {
	return map[string][]string{
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"WK,1,1,1,1,1,0,0,20240101,20241231",
			"WE,0,0,0,0,0,1,1,20240101,20241231",
		},
		"calendar_dates.txt": {
			"service_id,date,exception_type",
			"WE,20240101,1",
			"WK,20240101,2",
		},
		"trips.txt": {
			"route_id,service_id,trip_id,direction_id",
			"R1,WK,T1,0",
			"R1,WK,T2,0",
			"R1,WK,T3,1",
			"R1,WE,T4,0",
		},
		"stop_times.txt": {
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"T1,08:00:00,08:00:00,S1,1",
			"T1,08:30:00,08:30:00,S2,2",
			"T2,17:15:00,17:15:00,S1,1",
			"T2,,,MID,2",
			"T2,25:10:00,25:10:00,S2,3",
			"T3,09:00:00,09:00:00,S2,1",
			"T3,09:30:00,09:30:00,S1,2",
			"T4,10:00:00,10:00:00,S1,1",
		},
	}
}

func buildZip(t *testing.T, files map[string][]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, lines := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(strings.Join(lines, "\n") + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

type rtStopUpdate struct {
	StopID         string
	StopSequence   uint32
	ArrivalTime    time.Time
	DepartureTime  time.Time
	DepartureDelay *int32
}

type rtTripUpdate struct {
	TripID      string
	StopUpdates []rtStopUpdate
}

// buildTripUpdatesFeed encodes a GTFS-realtime FeedMessage holding the given trip updates.
func buildTripUpdatesFeed(t *testing.T, tripUpdates []rtTripUpdate) []byte {
	t.Helper()

	entities := make([]*rt.FeedEntity, 0, len(tripUpdates))
	for _, tripUpdate := range tripUpdates {
		stopTimeUpdates := make([]*rt.TripUpdate_StopTimeUpdate, 0, len(tripUpdate.StopUpdates))
		for _, stopUpdate := range tripUpdate.StopUpdates {
			stu := &rt.TripUpdate_StopTimeUpdate{
				StopSequence: proto.Uint32(stopUpdate.StopSequence),
				StopId:       proto.String(stopUpdate.StopID),
			}
			if !stopUpdate.ArrivalTime.IsZero() {
				stu.Arrival = &rt.TripUpdate_StopTimeEvent{Time: proto.Int64(stopUpdate.ArrivalTime.Unix())}
			}
			if !stopUpdate.DepartureTime.IsZero() || stopUpdate.DepartureDelay != nil {
				stu.Departure = &rt.TripUpdate_StopTimeEvent{Delay: stopUpdate.DepartureDelay}
				if !stopUpdate.DepartureTime.IsZero() {
					stu.Departure.Time = proto.Int64(stopUpdate.DepartureTime.Unix())
				}
			}
			stopTimeUpdates = append(stopTimeUpdates, stu)
		}

		entities = append(entities, &rt.FeedEntity{
			Id: proto.String(tripUpdate.TripID),
			TripUpdate: &rt.TripUpdate{
				Trip:           &rt.TripDescriptor{TripId: proto.String(tripUpdate.TripID)},
				StopTimeUpdate: stopTimeUpdates,
			},
		})
	}

	incrementality := rt.FeedHeader_FULL_DATASET
	feed := &rt.FeedMessage{
		Header: &rt.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Incrementality:      &incrementality,
			Timestamp:           proto.Uint64(uint64(time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC).Unix())),
		},
		Entity: entities,
	}

	data, err := proto.Marshal(feed)
	require.NoError(t, err)
	return data
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

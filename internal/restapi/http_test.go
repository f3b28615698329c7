package restapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"

	"ferryboard/internal/app"
	"ferryboard/internal/appconf"
	"ferryboard/internal/gtfs"
	"ferryboard/internal/logging"
	"ferryboard/internal/metrics"
	"ferryboard/internal/models"
	"ferryboard/internal/schedule"
)

// tuesday is 2024-01-02 07:00 UTC, a regular weekday.
var tuesday = time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC)

func testFeed() *gtfs.StaticFeed {
	return &gtfs.StaticFeed{
		Rules: []schedule.CalendarRule{{
			ServiceID: "WK",
			StartDate: civil.Date{Year: 2024, Month: time.January, Day: 1},
			EndDate:   civil.Date{Year: 2024, Month: time.December, Day: 31},
			Weekdays:  [7]bool{true, true, true, true, true, false, false},
		}},
		Trips: []schedule.Trip{
			{ID: "T1", RouteID: "R1", ServiceID: "WK", DirectionID: "0"},
			{ID: "T2", RouteID: "R1", ServiceID: "WK", DirectionID: "0"},
			{ID: "T3", RouteID: "R1", ServiceID: "WK", DirectionID: "1"},
		},
		StopTimes: []schedule.StopTime{
			{TripID: "T1", StopID: "S1", StopSequence: "1", Arrival: 8 * time.Hour, Departure: 8 * time.Hour},
			{TripID: "T1", StopID: "S2", StopSequence: "2", Arrival: 8*time.Hour + 30*time.Minute, Departure: 8*time.Hour + 30*time.Minute},
			{TripID: "T2", StopID: "S1", StopSequence: "1", Arrival: 17*time.Hour + 15*time.Minute, Departure: 17*time.Hour + 15*time.Minute},
			{TripID: "T2", StopID: "S2", StopSequence: "2", Arrival: 25*time.Hour + 10*time.Minute, Departure: 25*time.Hour + 10*time.Minute},
			{TripID: "T3", StopID: "S2", StopSequence: "1", Arrival: 9 * time.Hour, Departure: 9 * time.Hour},
			{TripID: "T3", StopID: "S1", StopSequence: "2", Arrival: 9*time.Hour + 30*time.Minute, Departure: 9*time.Hour + 30*time.Minute},
		},
	}
}

// testTripUpdates delays T1's departure from S1 by five minutes.
func testTripUpdates() []schedule.TripUpdate {
	departure := time.Date(2024, 1, 2, 8, 5, 0, 0, time.UTC)
	return []schedule.TripUpdate{{
		TripID: "T1",
		StopTimeUpdates: []schedule.StopTimeUpdate{
			{StopSequence: "1", DepartureTime: &departure},
		},
	}}
}

// createTestApi creates a RestAPI backed by a mock GTFS manager frozen at tuesday.
func createTestApi(t *testing.T) *RestAPI {
	t.Helper()

	appConfig := &appconf.Config{
		Env:            appconf.EnvFlagToEnvironment("test"),
		ApiKeys:        []string{"TEST"},
		Timezone:       "UTC",
		MetricsEnabled: true,
		Departures: []appconf.Departure{
			{Name: "downtown", RouteID: "R1", DirectionID: "0", StopID: "S1"},
			{Name: "island", RouteID: "R1", DirectionID: "1", StopID: "S2"},
			{Name: "Ferry to Seattle", RouteID: "R1", DirectionID: "0", StopID: "S1"},
		},
	}
	gtfsConfig := gtfs.Config{Location: time.UTC}
	collector := metrics.NewCollector(time.Hour, time.Minute)
	logger := slog.New(slog.DiscardHandler)

	manager, _, err := gtfs.NewMockManager(context.Background(), gtfsConfig, testFeed(), testTripUpdates(),
		gtfs.WithClock(func() time.Time { return tuesday }),
		gtfs.WithMetrics(collector),
		gtfs.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(manager.Shutdown)

	return NewRestAPI(&app.Application{
		Config:      appConfig,
		GtfsConfig:  gtfsConfig,
		Logger:      logger,
		GtfsManager: manager,
		Metrics:     collector,
	})
}

// serveAndRetrieveEndpoint sets up a test server, makes a request to the specified endpoint, and returns the response
// and decoded model.
func serveAndRetrieveEndpoint(t *testing.T, endpoint string) (*RestAPI, *http.Response, models.ResponseModel) {
	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, endpoint)
	return api, resp, model
}

func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	server := httptest.NewServer(api.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + endpoint)
	require.NoError(t, err)
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "test")),
		"http_response_body")

	var response models.ResponseModel
	err = json.NewDecoder(resp.Body).Decode(&response)
	require.NoError(t, err)

	return resp, response
}

// entryOf returns the "entry" object of a decoded response.
func entryOf(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "expected data object, got %T", model.Data)
	entry, ok := data["entry"].(map[string]interface{})
	require.True(t, ok, "expected entry object, got %T", data["entry"])
	return entry
}

func newTestServer(t *testing.T, api *RestAPI) string {
	t.Helper()
	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)
	return server.URL
}

func decodeFieldErrors(t *testing.T, resp *http.Response) map[string][]string {
	t.Helper()
	var body struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.FieldErrors
}

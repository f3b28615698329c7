package restapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTripHandler(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/trips/T2?key=TEST")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	entry := entryOf(t, model)
	assert.Equal(t, "T2", entry["tripId"])
	assert.Equal(t, "WK", entry["serviceId"])
	assert.Equal(t, "2024-01-02", entry["serviceDate"])

	stopTimes := entry["stopTimes"].([]interface{})
	require.Len(t, stopTimes, 2)
	last := stopTimes[1].(map[string]interface{})
	assert.Equal(t, "S2", last["stopId"])
	// 25:10 on the 2nd is 01:10 on the 3rd.
	assert.Equal(t, float64(1704244200000), last["scheduledArrivalTime"])
}

func TestTripHandlerWithDate(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/trips/T1.json?key=TEST&date=2024-01-03")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	entry := entryOf(t, model)
	assert.Equal(t, "T1", entry["tripId"])
	assert.Equal(t, "2024-01-03", entry["serviceDate"])

	first := entry["stopTimes"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, false, first["predicted"])
	assert.Equal(t, float64(0), first["predictedDepartureTime"])
}

func TestTripHandlerToday(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/trips/T1?key=TEST")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := entryOf(t, model)["stopTimes"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, true, first["predicted"])
	assert.Equal(t, float64(time.Date(2024, 1, 2, 8, 5, 0, 0, time.UTC).UnixMilli()), first["predictedDepartureTime"])
}

func TestTripHandlerErrors(t *testing.T) {
	api := createTestApi(t)

	resp, _ := serveApiAndRetrieveEndpoint(t, api, "/api/trips/T404?key=TEST")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = serveApiAndRetrieveEndpoint(t, api, "/api/trips/T1?key=TEST&date=01/03/2024")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = serveApiAndRetrieveEndpoint(t, api, "/api/trips/bad%22id?key=TEST")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Spaces are legal in GTFS trip IDs.
	resp, _ = serveApiAndRetrieveEndpoint(t, api, "/api/trips/Night%20Boat?key=TEST")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

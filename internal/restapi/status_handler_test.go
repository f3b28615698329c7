package restapi

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusHandler(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/status?key=TEST")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	entry := entryOf(t, model)
	assert.Equal(t, true, entry["realtimeEnabled"])
	assert.Equal(t, false, entry["realtimeStale"])
	assert.Equal(t, "2024-01-02", entry["serviceDate"])
	assert.Equal(t, "WK", entry["todayServiceId"])
	assert.Equal(t, float64(3), entry["trips"])
	assert.Equal(t, float64(6), entry["stopTimes"])
	assert.Equal(t, float64(1), entry["realtimeEntries"])
	assert.Equal(t, float64(tuesday.UnixMilli()), entry["lastStaticRefresh"])
}

func TestCurrentTimeHandler(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/current-time?key=TEST")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	entry := entryOf(t, model)
	assert.Equal(t, float64(tuesday.UnixMilli()), entry["time"])
	assert.Equal(t, "2024-01-02T07:00:00Z", entry["readableTime"])
	assert.Equal(t, "UTC", entry["timeZone"])
}

func TestMetricsEndpoint(t *testing.T) {
	api := createTestApi(t)
	url := newTestServer(t, api)

	resp, err := http.Get(url + "/api/departures/downtown?key=TEST")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	resp, err = http.Get(url + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ferryboard_departure_queries_total{target="downtown"} 1`)
	assert.Contains(t, string(body), "ferryboard_http_requests_total")
}

func TestMetricsEndpointDisabled(t *testing.T) {
	api := createTestApi(t)
	api.Config.MetricsEnabled = false

	resp, err := http.Get(newTestServer(t, api) + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

package models

import (
	"time"

	"ferryboard/internal/gtfs"
)

// RefreshStatus reports schedule freshness. Refresh times are epoch
// milliseconds, 0 when the source has never loaded.
type RefreshStatus struct {
	StaticSource        string `json:"staticSource"`
	RealtimeEnabled     bool   `json:"realtimeEnabled"`
	RealtimeStale       bool   `json:"realtimeStale"`
	LastStaticRefresh   int64  `json:"lastStaticRefresh"`
	LastRealtimeRefresh int64  `json:"lastRealtimeRefresh"`
	LastStaticError     string `json:"lastStaticError,omitempty"`
	LastRealtimeError   string `json:"lastRealtimeError,omitempty"`
	ServiceDate         string `json:"serviceDate"`
	TodayServiceID      string `json:"todayServiceId"`
	TomorrowServiceID   string `json:"tomorrowServiceId"`
	Trips               int    `json:"trips"`
	StopTimes           int    `json:"stopTimes"`
	RealtimeEntries     int    `json:"realtimeEntries"`
}

func NewRefreshStatus(status gtfs.Status) RefreshStatus {
	return RefreshStatus{
		StaticSource:        status.StaticSource,
		RealtimeEnabled:     status.RealtimeEnabled,
		RealtimeStale:       status.RealtimeStale,
		LastStaticRefresh:   epochMillis(status.LastStaticRefresh),
		LastRealtimeRefresh: epochMillis(status.LastRealtimeRefresh),
		LastStaticError:     status.LastStaticError,
		LastRealtimeError:   status.LastRealtimeError,
		ServiceDate:         status.ServiceDate,
		TodayServiceID:      status.TodayServiceID,
		TomorrowServiceID:   status.TomorrowServiceID,
		Trips:               status.Trips,
		StopTimes:           status.StopTimes,
		RealtimeEntries:     status.RealtimeEntries,
	}
}

func epochMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

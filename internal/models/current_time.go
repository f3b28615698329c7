package models

import "time"

// CurrentTimeModel Current time specific model
type CurrentTimeModel struct {
	ReadableTime string `json:"readableTime"`
	Time         int64  `json:"time"`
	TimeZone     string `json:"timeZone"`
}

// CurrentTimeData Combined data structure for current time endpoint
type CurrentTimeData struct {
	Entry CurrentTimeModel `json:"entry"`
}

// NewCurrentTimeData creates a CurrentTimeData structure based on a provided Time
// rendered in the schedule timezone.
func NewCurrentTimeData(t time.Time, loc *time.Location) CurrentTimeData {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)

	return CurrentTimeData{
		Entry: CurrentTimeModel{
			ReadableTime: local.Format(time.RFC3339),
			Time:         t.UnixNano() / int64(time.Millisecond),
			TimeZone:     loc.String(),
		},
	}
}

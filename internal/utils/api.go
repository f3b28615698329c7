package utils

import (
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
)

// ParseTimeParameter parses an optional "time" query value. It accepts epoch
// milliseconds or RFC 3339. An empty value yields now.
func ParseTimeParameter(timeParam string, now time.Time) (time.Time, map[string][]string) {
	if timeParam == "" {
		return now, nil
	}

	if epochMillis, err := strconv.ParseInt(timeParam, 10, 64); err == nil {
		return time.UnixMilli(epochMillis), nil
	}

	if parsed, err := time.Parse(time.RFC3339, timeParam); err == nil {
		return parsed, nil
	}

	return time.Time{}, map[string][]string{
		"time": {fmt.Sprintf("Invalid field value for field %q.", "time")},
	}
}

// ParseDateParameter parses an optional "date" query value in YYYY-MM-DD form.
// An empty value yields the date of now in loc.
func ParseDateParameter(dateParam string, now time.Time, loc *time.Location) (civil.Date, map[string][]string) {
	if dateParam == "" {
		return civil.DateOf(now.In(loc)), nil
	}

	if err := ValidateDate(dateParam); err != nil {
		return civil.Date{}, map[string][]string{"date": {err.Error()}}
	}

	d, err := civil.ParseDate(dateParam)
	if err != nil {
		return civil.Date{}, map[string][]string{"date": {err.Error()}}
	}
	return d, nil
}

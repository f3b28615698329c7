package gtfs

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gocarina/gocsv"

	"ferryboard/internal/logging"
	"ferryboard/internal/schedule"
)

const (
	calendarFile      = "calendar.txt"
	calendarDatesFile = "calendar_dates.txt"
	tripsFile         = "trips.txt"
	stopTimesFile     = "stop_times.txt"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StaticFeed holds the records of one static GTFS archive that the schedule needs.
type StaticFeed struct {
	Rules      []schedule.CalendarRule
	Exceptions []schedule.CalendarException
	Trips      []schedule.Trip
	StopTimes  []schedule.StopTime
}

type calendarRow struct {
	ServiceID string `csv:"service_id"`
	Monday    string `csv:"monday"`
	Tuesday   string `csv:"tuesday"`
	Wednesday string `csv:"wednesday"`
	Thursday  string `csv:"thursday"`
	Friday    string `csv:"friday"`
	Saturday  string `csv:"saturday"`
	Sunday    string `csv:"sunday"`
	StartDate string `csv:"start_date"`
	EndDate   string `csv:"end_date"`
}

type calendarDateRow struct {
	ServiceID     string `csv:"service_id"`
	Date          string `csv:"date"`
	ExceptionType string `csv:"exception_type"`
}

type tripRow struct {
	RouteID     string `csv:"route_id"`
	ServiceID   string `csv:"service_id"`
	TripID      string `csv:"trip_id"`
	DirectionID string `csv:"direction_id"`
}

type stopTimeRow struct {
	TripID        string `csv:"trip_id"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
	StopID        string `csv:"stop_id"`
	StopSequence  string `csv:"stop_sequence"`
}

func isLocalSource(source string) bool {
	return !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://")
}

func rawGtfsData(ctx context.Context, source string, headers map[string]string) ([]byte, error) {
	if isLocalSource(source) {
		b, err := os.ReadFile(source)
		if err != nil {
			return nil, &SourceFetchError{Source: source, Err: fmt.Errorf("error reading local GTFS file: %w", err)}
		}
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, &SourceFetchError{Source: source, Err: err}
	}
	for key, value := range headers {
		req.Header.Add(key, value)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, &SourceFetchError{Source: source, Err: fmt.Errorf("error downloading GTFS data: %w", err)}
	}
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "gtfs_downloader")),
		"http_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, &SourceFetchError{Source: source, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SourceFetchError{Source: source, Err: fmt.Errorf("error reading GTFS data: %w", err)}
	}
	return b, nil
}

// loadStaticFeed fetches and parses the static archive at source.
func loadStaticFeed(ctx context.Context, source string) (*StaticFeed, error) {
	b, err := rawGtfsData(ctx, source, nil)
	if err != nil {
		return nil, err
	}

	feed, err := ParseStaticFeed(b)
	if err != nil {
		var parseErr *SourceParseError
		if errors.As(err, &parseErr) {
			parseErr.Source = source
		}
		return nil, err
	}
	return feed, nil
}

// ParseStaticFeed decodes the calendar, calendar date, trip and stop time tables of a
// GTFS zip. Either the whole archive parses or an error is returned.
func ParseStaticFeed(content []byte) (*StaticFeed, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, &SourceParseError{Err: fmt.Errorf("opening zip: %w", err)}
	}

	files := map[string]*zip.File{}
	for _, file := range reader.File {
		files[path.Base(file.Name)] = file
	}

	for _, required := range []string{tripsFile, stopTimesFile} {
		if files[required] == nil {
			return nil, &SourceParseError{File: required, Err: errors.New("missing required file")}
		}
	}
	if files[calendarFile] == nil && files[calendarDatesFile] == nil {
		return nil, &SourceParseError{File: calendarFile, Err: errors.New("neither calendar.txt nor calendar_dates.txt present")}
	}

	feed := &StaticFeed{}

	var calendars []calendarRow
	if err := decodeTable(files[calendarFile], &calendars); err != nil {
		return nil, &SourceParseError{File: calendarFile, Err: err}
	}
	for i, row := range calendars {
		rule, err := row.toRule()
		if err != nil {
			return nil, &SourceParseError{File: calendarFile, Err: fmt.Errorf("row %d: %w", i+1, err)}
		}
		feed.Rules = append(feed.Rules, rule)
	}

	var calendarDates []calendarDateRow
	if err := decodeTable(files[calendarDatesFile], &calendarDates); err != nil {
		return nil, &SourceParseError{File: calendarDatesFile, Err: err}
	}
	for i, row := range calendarDates {
		exception, err := row.toException()
		if err != nil {
			return nil, &SourceParseError{File: calendarDatesFile, Err: fmt.Errorf("row %d: %w", i+1, err)}
		}
		feed.Exceptions = append(feed.Exceptions, exception)
	}

	var trips []tripRow
	if err := decodeTable(files[tripsFile], &trips); err != nil {
		return nil, &SourceParseError{File: tripsFile, Err: err}
	}
	for i, row := range trips {
		if row.TripID == "" || row.RouteID == "" || row.ServiceID == "" {
			return nil, &SourceParseError{File: tripsFile, Err: fmt.Errorf("row %d: trip_id, route_id and service_id are required", i+1)}
		}
		feed.Trips = append(feed.Trips, schedule.Trip{
			ID:          row.TripID,
			RouteID:     row.RouteID,
			ServiceID:   row.ServiceID,
			DirectionID: row.DirectionID,
		})
	}

	var stopTimes []stopTimeRow
	if err := decodeTable(files[stopTimesFile], &stopTimes); err != nil {
		return nil, &SourceParseError{File: stopTimesFile, Err: err}
	}
	for i, row := range stopTimes {
		stopTime, ok, err := row.toStopTime()
		if err != nil {
			return nil, &SourceParseError{File: stopTimesFile, Err: fmt.Errorf("row %d: %w", i+1, err)}
		}
		if ok {
			feed.StopTimes = append(feed.StopTimes, stopTime)
		}
	}

	return feed, nil
}

// decodeTable unmarshals a CSV table into out. A nil file leaves out empty.
func decodeTable(file *zip.File, out interface{}) (err error) {
	if file == nil {
		return nil
	}
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer logging.HandleDeferredError(&err, rc.Close,
		slog.Default().With(slog.String("component", "gtfs_static_parser")),
		"close "+file.Name)

	b, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	b = bytes.TrimPrefix(b, utf8BOM)
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}

	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return gocsv.UnmarshalCSV(r, out)
}

func (row calendarRow) toRule() (schedule.CalendarRule, error) {
	if row.ServiceID == "" {
		return schedule.CalendarRule{}, errors.New("service_id is required")
	}
	start, err := parseDate(row.StartDate)
	if err != nil {
		return schedule.CalendarRule{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := parseDate(row.EndDate)
	if err != nil {
		return schedule.CalendarRule{}, fmt.Errorf("end_date: %w", err)
	}
	if end.Before(start) {
		return schedule.CalendarRule{}, fmt.Errorf("end_date %s before start_date %s", end, start)
	}

	return schedule.CalendarRule{
		ServiceID: row.ServiceID,
		StartDate: start,
		EndDate:   end,
		Weekdays: [7]bool{
			row.Monday == "1",
			row.Tuesday == "1",
			row.Wednesday == "1",
			row.Thursday == "1",
			row.Friday == "1",
			row.Saturday == "1",
			row.Sunday == "1",
		},
	}, nil
}

func (row calendarDateRow) toException() (schedule.CalendarException, error) {
	if row.ServiceID == "" {
		return schedule.CalendarException{}, errors.New("service_id is required")
	}
	d, err := parseDate(row.Date)
	if err != nil {
		return schedule.CalendarException{}, fmt.Errorf("date: %w", err)
	}

	var exceptionType schedule.ExceptionType
	switch strings.TrimSpace(row.ExceptionType) {
	case "1":
		exceptionType = schedule.ExceptionAdded
	case "2":
		exceptionType = schedule.ExceptionRemoved
	default:
		return schedule.CalendarException{}, fmt.Errorf("invalid exception_type %q", row.ExceptionType)
	}

	return schedule.CalendarException{Date: d, ServiceID: row.ServiceID, Type: exceptionType}, nil
}

// toStopTime converts a row. Rows with neither an arrival nor a departure time are
// untimed stops and are skipped with ok=false.
func (row stopTimeRow) toStopTime() (schedule.StopTime, bool, error) {
	if row.TripID == "" || row.StopSequence == "" {
		return schedule.StopTime{}, false, errors.New("trip_id and stop_sequence are required")
	}

	arrivalText, departureText := strings.TrimSpace(row.ArrivalTime), strings.TrimSpace(row.DepartureTime)
	if arrivalText == "" && departureText == "" {
		return schedule.StopTime{}, false, nil
	}
	if arrivalText == "" {
		arrivalText = departureText
	}
	if departureText == "" {
		departureText = arrivalText
	}

	arrival, err := parseClock(arrivalText)
	if err != nil {
		return schedule.StopTime{}, false, fmt.Errorf("arrival_time: %w", err)
	}
	departure, err := parseClock(departureText)
	if err != nil {
		return schedule.StopTime{}, false, fmt.Errorf("departure_time: %w", err)
	}

	return schedule.StopTime{
		TripID:       row.TripID,
		StopID:       row.StopID,
		StopSequence: row.StopSequence,
		Arrival:      arrival,
		Departure:    departure,
	}, true, nil
}

// parseDate accepts both the GTFS YYYYMMDD form and YYYY-MM-DD.
func parseDate(value string) (civil.Date, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return civil.DateOf(t), nil
		}
	}
	return civil.Date{}, fmt.Errorf("invalid date %q", value)
}

// parseClock parses H:MM or H:MM:SS into an offset from midnight. Hours past 23 are
// allowed for trips that run after midnight.
func parseClock(value string) (time.Duration, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q", value)
	}

	var fields [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid time %q", value)
		}
		fields[i] = n
	}
	if fields[1] > 59 || fields[2] > 59 {
		return 0, fmt.Errorf("invalid time %q", value)
	}

	return time.Duration(fields[0])*time.Hour +
		time.Duration(fields[1])*time.Minute +
		time.Duration(fields[2])*time.Second, nil
}

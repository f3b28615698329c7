// Package schedule resolves service calendars, indexes stop times and answers
// departure queries against an immutable snapshot of a GTFS schedule with its
// realtime overlay. It performs no I/O.
package schedule

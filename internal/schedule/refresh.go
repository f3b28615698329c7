package schedule

import "time"

// RefreshTracker remembers when each source was last refreshed successfully.
// The static and realtime timers are independent of each other. It is not
// safe for concurrent use; the owner serialises access.
type RefreshTracker struct {
	lastStatic   time.Time
	lastRealtime time.Time
}

// StaticDue reports whether more than interval has elapsed since the last static refresh.
func (tracker *RefreshTracker) StaticDue(now time.Time, interval time.Duration) bool {
	return due(tracker.lastStatic, now, interval)
}

// RealtimeDue reports whether more than interval has elapsed since the last realtime refresh.
func (tracker *RefreshTracker) RealtimeDue(now time.Time, interval time.Duration) bool {
	return due(tracker.lastRealtime, now, interval)
}

// MarkStatic records a successful static refresh at now.
func (tracker *RefreshTracker) MarkStatic(now time.Time) {
	tracker.lastStatic = now
}

// MarkRealtime records a successful realtime refresh at now.
func (tracker *RefreshTracker) MarkRealtime(now time.Time) {
	tracker.lastRealtime = now
}

// LastStatic returns the last successful static refresh, or the zero time.
func (tracker *RefreshTracker) LastStatic() time.Time {
	return tracker.lastStatic
}

// LastRealtime returns the last successful realtime refresh, or the zero time.
func (tracker *RefreshTracker) LastRealtime() time.Time {
	return tracker.lastRealtime
}

func due(last, now time.Time, interval time.Duration) bool {
	if last.IsZero() {
		return true
	}
	return now.Sub(last) > interval
}

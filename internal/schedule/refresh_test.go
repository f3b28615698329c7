package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshTracker(t *testing.T) {
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	var tracker RefreshTracker

	assert.True(t, tracker.StaticDue(start, time.Hour), "never refreshed")
	assert.True(t, tracker.RealtimeDue(start, time.Minute), "never refreshed")

	tracker.MarkStatic(start)
	tracker.MarkRealtime(start)

	assert.False(t, tracker.StaticDue(start.Add(time.Hour), time.Hour), "elapsed must exceed the interval")
	assert.True(t, tracker.StaticDue(start.Add(time.Hour+time.Second), time.Hour))
	assert.True(t, tracker.RealtimeDue(start.Add(61*time.Second), time.Minute))

	t.Run("timers are independent", func(t *testing.T) {
		later := start.Add(2 * time.Minute)
		tracker.MarkRealtime(later)
		assert.Equal(t, start, tracker.LastStatic())
		assert.Equal(t, later, tracker.LastRealtime())
		assert.False(t, tracker.RealtimeDue(later, time.Minute))
		assert.False(t, tracker.StaticDue(later, time.Hour))
	})
}

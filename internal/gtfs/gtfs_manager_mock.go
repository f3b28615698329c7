package gtfs

import (
	"context"
	"sync"

	"ferryboard/internal/schedule"
)

const mockTripUpdatesURL = "mock://trip-updates"

// MockFeeds is an in-memory static and realtime source for a Manager.
type MockFeeds struct {
	mu      sync.Mutex
	static  *StaticFeed
	updates []schedule.TripUpdate
}

func (f *MockFeeds) loadStatic(context.Context, string) (*StaticFeed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.static, nil
}

func (f *MockFeeds) loadRealtime(context.Context, Config) ([]schedule.TripUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates, nil
}

// MockSetStatic replaces the feed returned by the next static refresh.
func (f *MockFeeds) MockSetStatic(feed *StaticFeed) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.static = feed
}

// MockSetTripUpdates replaces the updates returned by the next realtime refresh.
func (f *MockFeeds) MockSetTripUpdates(updates []schedule.TripUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = updates
}

// NewMockManager builds and loads a Manager that serves feed and updates without
// touching the network or the filesystem. Realtime is enabled when updates is non-nil.
func NewMockManager(ctx context.Context, config Config, feed *StaticFeed, updates []schedule.TripUpdate, opts ...ManagerOption) (*Manager, *MockFeeds, error) {
	feeds := &MockFeeds{static: feed, updates: updates}
	if updates != nil && config.TripUpdatesURL == "" {
		config.TripUpdatesURL = mockTripUpdatesURL
	}

	opts = append([]ManagerOption{
		WithStaticLoader(feeds.loadStatic),
		WithRealtimeLoader(feeds.loadRealtime),
	}, opts...)

	manager, err := InitGTFSManager(ctx, config, opts...)
	if err != nil {
		return nil, nil, err
	}
	return manager, feeds, nil
}

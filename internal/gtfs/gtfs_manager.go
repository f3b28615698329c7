package gtfs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"ferryboard/internal/logging"
	"ferryboard/internal/schedule"
)

const (
	sourceStatic   = "static"
	sourceRealtime = "realtime"
)

// StaticLoader fetches and parses a static archive.
type StaticLoader func(ctx context.Context, source string) (*StaticFeed, error)

// RealtimeLoader fetches and decodes the trip updates feed.
type RealtimeLoader func(ctx context.Context, config Config) ([]schedule.TripUpdate, error)

// MetricsRecorder receives refresh and query measurements.
type MetricsRecorder interface {
	ObserveRefresh(source string, err error, duration time.Duration)
	SetIndexSize(trips, stopTimes int)
	ObserveMerge(overlayEntries int, stats schedule.MergeStats)
	ObserveQuery(target string, results int)
}

type noopRecorder struct{}

func (noopRecorder) ObserveRefresh(string, error, time.Duration) {}
func (noopRecorder) SetIndexSize(int, int)                       {}
func (noopRecorder) ObserveMerge(int, schedule.MergeStats)       {}
func (noopRecorder) ObserveQuery(string, int)                    {}

// RefreshHook is called by the background loop after a tick refreshed any source.
type RefreshHook func(ctx context.Context, snapshot *schedule.Snapshot)

// Manager owns the schedule snapshot for one static source and its optional realtime
// feed. Queries read a published snapshot; refreshes build a new one and swap it in.
type Manager struct {
	config       Config
	logger       *slog.Logger
	metrics      MetricsRecorder
	loadStatic   StaticLoader
	loadRealtime RealtimeLoader
	clock        func() time.Time
	hooks        []RefreshHook

	mu              sync.RWMutex // guards every field below up to the refresh mutexes
	snapshot        *schedule.Snapshot
	lastUpdates     []schedule.TripUpdate
	tracker         schedule.RefreshTracker
	lastStaticErr   error
	lastRealtimeErr error

	staticRefreshMu   sync.Mutex
	realtimeRefreshMu sync.Mutex

	shutdownChan chan struct{}
	wg           sync.WaitGroup
	startOnce    sync.Once
	shutdownOnce sync.Once
}

type ManagerOption func(*Manager)

func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

func WithMetrics(recorder MetricsRecorder) ManagerOption {
	return func(m *Manager) { m.metrics = recorder }
}

func WithStaticLoader(loader StaticLoader) ManagerOption {
	return func(m *Manager) { m.loadStatic = loader }
}

func WithRealtimeLoader(loader RealtimeLoader) ManagerOption {
	return func(m *Manager) { m.loadRealtime = loader }
}

func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) { m.clock = clock }
}

func WithRefreshHook(hook RefreshHook) ManagerOption {
	return func(m *Manager) { m.hooks = append(m.hooks, hook) }
}

// NewManager creates a Manager with no data loaded.
func NewManager(config Config, opts ...ManagerOption) *Manager {
	manager := &Manager{
		config:       config.withDefaults(),
		logger:       slog.Default(),
		metrics:      noopRecorder{},
		loadStatic:   loadStaticFeed,
		loadRealtime: loadTripUpdates,
		clock:        time.Now,
		shutdownChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(manager)
	}
	return manager
}

// InitGTFSManager creates a Manager and performs the initial static and realtime loads.
// A failed static load is returned as an error; a failed realtime load only leaves
// the realtime overlay empty.
func InitGTFSManager(ctx context.Context, config Config, opts ...ManagerOption) (*Manager, error) {
	manager := NewManager(config, opts...)

	if err := manager.RefreshStatic(ctx); err != nil {
		return nil, err
	}

	if manager.config.realTimeDataEnabled() {
		if err := manager.RefreshRealtime(ctx); err != nil {
			manager.logger.Warn("realtime data unavailable, using scheduled times",
				slog.String("component", "gtfs_manager"),
				slog.String("error", err.Error()))
		}
	}

	return manager, nil
}

// Snapshot returns the currently published snapshot. It is never mutated.
func (manager *Manager) Snapshot() *schedule.Snapshot {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.snapshot
}

// RemainingStops answers a departure query against the published snapshot.
func (manager *Manager) RemainingStops(target schedule.Target, now time.Time) []schedule.Occurrence {
	occurrences := schedule.RemainingStops(manager.Snapshot(), target, now)
	manager.metrics.ObserveQuery(target.Name, len(occurrences))
	return occurrences
}

// Location is the timezone all schedule times are interpreted in.
func (manager *Manager) Location() *time.Location {
	return manager.config.location()
}

// Now reads the manager's clock in the schedule timezone.
func (manager *Manager) Now() time.Time {
	return manager.clock().In(manager.Location())
}

// RefreshStatic reloads the static archive, resolves today's and tomorrow's service
// and replaces the index. On failure the published snapshot is left untouched.
func (manager *Manager) RefreshStatic(ctx context.Context) error {
	manager.staticRefreshMu.Lock()
	defer manager.staticRefreshMu.Unlock()

	started := manager.clock()
	logger := logging.FromContextOr(ctx, manager.logger).With(slog.String("component", "gtfs_static"))

	feed, err := manager.loadStatic(ctx, manager.config.StaticURL)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		manager.mu.Lock()
		manager.lastStaticErr = err
		manager.mu.Unlock()
		manager.metrics.ObserveRefresh(sourceStatic, err, manager.clock().Sub(started))
		logging.LogError(logger, "static GTFS refresh failed", err,
			slog.String("source", manager.config.StaticURL))
		return err
	}

	if feed == nil {
		feed = &StaticFeed{}
	}

	loc := manager.config.location()
	index := schedule.Rebuild(feed.Trips, feed.StopTimes)
	services := schedule.ResolveServiceDays(feed.Rules, feed.Exceptions, started.In(loc))

	manager.mu.Lock()
	next := &schedule.Snapshot{
		Location:          loc,
		Services:          services,
		Index:             index,
		StaticRefreshedAt: started,
	}
	var overlayEntries int
	var stats schedule.MergeStats
	if manager.snapshot != nil {
		// Carry the latest realtime batch onto the new index.
		next.Overlay, stats = schedule.Merge(index, manager.lastUpdates, loc)
		next.RealtimeRefreshedAt = manager.snapshot.RealtimeRefreshedAt
		overlayEntries = len(next.Overlay)
	}
	manager.snapshot = next
	manager.tracker.MarkStatic(started)
	manager.lastStaticErr = nil
	manager.mu.Unlock()

	manager.metrics.SetIndexSize(index.TripCount(), index.StopTimeCount())
	manager.metrics.ObserveMerge(overlayEntries, stats)
	manager.metrics.ObserveRefresh(sourceStatic, nil, manager.clock().Sub(started))

	if manager.config.Verbose {
		logging.LogOperation(logger, "static_gtfs_updated",
			slog.String("source", manager.config.StaticURL),
			slog.Int("trips", index.TripCount()),
			slog.Int("stop_times", index.StopTimeCount()),
			slog.String("today_service_id", services.Today),
			slog.String("tomorrow_service_id", services.Tomorrow))
	}
	return nil
}

// RefreshRealtime reloads the trip updates feed and replaces the realtime overlay.
// It is a no-op when no realtime source is configured.
func (manager *Manager) RefreshRealtime(ctx context.Context) error {
	if !manager.config.realTimeDataEnabled() {
		return nil
	}

	manager.realtimeRefreshMu.Lock()
	defer manager.realtimeRefreshMu.Unlock()

	started := manager.clock()
	logger := logging.FromContextOr(ctx, manager.logger).With(slog.String("component", "gtfs_realtime"))

	updates, err := manager.loadRealtime(ctx, manager.config)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		manager.mu.Lock()
		manager.lastRealtimeErr = err
		manager.mu.Unlock()
		manager.metrics.ObserveRefresh(sourceRealtime, err, manager.clock().Sub(started))
		logging.LogError(logger, "Error loading GTFS-RT trip updates data", err,
			slog.String("url", manager.config.TripUpdatesURL))
		return err
	}

	manager.mu.Lock()
	var overlay schedule.Overlay
	var stats schedule.MergeStats
	if manager.snapshot != nil {
		overlay, stats = schedule.Merge(manager.snapshot.Index, updates, manager.config.location())
		manager.snapshot = manager.snapshot.WithOverlay(overlay, started)
	}
	manager.lastUpdates = updates
	manager.tracker.MarkRealtime(started)
	manager.lastRealtimeErr = nil
	manager.mu.Unlock()

	manager.metrics.ObserveMerge(len(overlay), stats)
	manager.metrics.ObserveRefresh(sourceRealtime, nil, manager.clock().Sub(started))

	if manager.config.Verbose {
		logging.LogOperation(logger, "realtime_gtfs_updated",
			slog.Int("matched", stats.Matched),
			slog.Int("unmatched", stats.Unmatched))
	}
	return nil
}

// MaybeRefresh runs whichever refreshes are due at now. Due refreshes run
// concurrently and independently: a failure in one never affects the other's timer.
// It reports whether anything was refreshed along with any refresh errors.
func (manager *Manager) MaybeRefresh(ctx context.Context, now time.Time) (bool, error) {
	manager.mu.RLock()
	staticDue := manager.tracker.StaticDue(now, manager.config.StaticRefreshInterval)
	realtimeDue := manager.config.realTimeDataEnabled() &&
		manager.tracker.RealtimeDue(now, manager.config.RealtimeRefreshInterval)
	manager.mu.RUnlock()

	var staticErr, realtimeErr error
	var wg conc.WaitGroup
	if staticDue {
		wg.Go(func() { staticErr = manager.RefreshStatic(ctx) })
	}
	if realtimeDue {
		wg.Go(func() { realtimeErr = manager.RefreshRealtime(ctx) })
	}
	wg.Wait()

	refreshed := (staticDue && staticErr == nil) || (realtimeDue && realtimeErr == nil)
	return refreshed, errors.Join(staticErr, realtimeErr)
}

// Start launches the background refresh loop. Calling it more than once has no effect.
func (manager *Manager) Start() {
	manager.startOnce.Do(func() {
		manager.wg.Add(1)
		go manager.refreshPeriodically()
	})
}

func (manager *Manager) refreshPeriodically() {
	defer manager.wg.Done()

	logger := manager.logger.With(slog.String("component", "gtfs_refresh_scheduler"))

	ticker := time.NewTicker(manager.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			ctx = logging.WithLogger(ctx, logger)

			refreshed, err := manager.MaybeRefresh(ctx, manager.clock())
			if err != nil {
				// Already logged per source; the previous snapshot stays in effect.
				logger.Debug("refresh tick finished with errors", slog.String("error", err.Error()))
			}
			if refreshed {
				snapshot := manager.Snapshot()
				for _, hook := range manager.hooks {
					hook(ctx, snapshot)
				}
			}
			cancel()
		case <-manager.shutdownChan:
			logging.LogOperation(logger, "shutting_down_refresh_scheduler")
			return
		}
	}
}

// Shutdown gracefully stops the background loop.
func (manager *Manager) Shutdown() {
	manager.shutdownOnce.Do(func() {
		close(manager.shutdownChan)
		manager.wg.Wait()
	})
}

// Status describes the freshness of both sources.
type Status struct {
	StaticSource        string
	RealtimeEnabled     bool
	RealtimeStale       bool
	LastStaticRefresh   time.Time
	LastRealtimeRefresh time.Time
	LastStaticError     string
	LastRealtimeError   string
	ServiceDate         string
	TodayServiceID      string
	TomorrowServiceID   string
	Trips               int
	StopTimes           int
	RealtimeEntries     int
}

func (manager *Manager) Status() Status {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	status := Status{
		StaticSource:        manager.config.StaticURL,
		RealtimeEnabled:     manager.config.realTimeDataEnabled(),
		LastStaticRefresh:   manager.tracker.LastStatic(),
		LastRealtimeRefresh: manager.tracker.LastRealtime(),
		LastStaticError:     errorText(manager.lastStaticErr),
		LastRealtimeError:   errorText(manager.lastRealtimeErr),
	}
	status.RealtimeStale = status.RealtimeEnabled &&
		(manager.lastRealtimeErr != nil || status.LastRealtimeRefresh.IsZero())

	if snapshot := manager.snapshot; snapshot != nil {
		status.ServiceDate = snapshot.Services.Date.String()
		status.TodayServiceID = snapshot.Services.Today
		status.TomorrowServiceID = snapshot.Services.Tomorrow
		status.Trips = snapshot.Index.TripCount()
		status.StopTimes = snapshot.Index.StopTimeCount()
		status.RealtimeEntries = len(snapshot.Overlay)
	}
	return status
}

// LogStatistics writes a summary of the loaded schedule.
func (manager *Manager) LogStatistics() {
	status := manager.Status()
	logger := manager.logger.With(slog.String("component", "gtfs_manager"))
	logging.LogOperation(logger, "gtfs_statistics",
		slog.String("source", status.StaticSource),
		slog.Bool("local_file", isLocalSource(status.StaticSource)),
		slog.Time("last_updated", status.LastStaticRefresh),
		slog.Int("trips", status.Trips),
		slog.Int("stop_times", status.StopTimes),
		slog.String("today_service_id", status.TodayServiceID),
		slog.String("tomorrow_service_id", status.TomorrowServiceID))
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

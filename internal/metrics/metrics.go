package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ferryboard/internal/schedule"
)

// Collector holds every ferryboard metric on a private registry.
type Collector struct {
	reg *prometheus.Registry

	Refreshes       *prometheus.CounterVec   // source, result
	RefreshDuration *prometheus.HistogramVec // source
	LastSuccess     *prometheus.GaugeVec     // source

	IndexedTrips     prometheus.Gauge
	IndexedStopTimes prometheus.Gauge
	OverlayEntries   prometheus.Gauge

	RealtimeMatched   prometheus.Counter
	RealtimeUnmatched prometheus.Counter

	Queries      *prometheus.CounterVec // target
	QueryResults prometheus.Histogram
	HTTPRequests *prometheus.CounterVec // method, status
	HTTPDuration prometheus.Histogram

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	StaticInterval   prometheus.Gauge // seconds
	RealtimeInterval prometheus.Gauge // seconds
}

func NewCollector(staticInterval, realtimeInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ferryboard_refreshes_total",
			Help: "Schedule source refreshes by source and result.",
		}, []string{"source", "result"}),
		RefreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ferryboard_refresh_duration_seconds",
			Help:    "Time to fetch, parse and publish a schedule source.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"source"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ferryboard_last_successful_refresh_timestamp_seconds",
			Help: "Unix time of the last successful refresh per source.",
		}, []string{"source"}),
		IndexedTrips: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ferryboard_indexed_trips",
			Help: "Trips in the published schedule index.",
		}),
		IndexedStopTimes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ferryboard_indexed_stop_times",
			Help: "Stop times in the published schedule index.",
		}),
		OverlayEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ferryboard_realtime_overlay_entries",
			Help: "Stop times carrying realtime actuals.",
		}),
		RealtimeMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ferryboard_realtime_updates_matched_total",
			Help: "Realtime stop time updates applied to a scheduled stop.",
		}),
		RealtimeUnmatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ferryboard_realtime_updates_unmatched_total",
			Help: "Realtime stop time updates with no scheduled stop.",
		}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ferryboard_departure_queries_total",
			Help: "Departure queries by target.",
		}, []string{"target"}),
		QueryResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ferryboard_departure_query_results",
			Help:    "Departures returned per query.",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ferryboard_http_requests_total",
			Help: "HTTP requests by method and status.",
		}, []string{"method", "status"}),
		HTTPDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ferryboard_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ferryboard_nats_published_total",
			Help: "Total NATS board messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ferryboard_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ferryboard_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ferryboard_publish_duration_seconds",
			Help:    "Duration to marshal and publish a board message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		StaticInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ferryboard_static_refresh_interval_seconds",
			Help: "Static schedule refresh interval in seconds.",
		}),
		RealtimeInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ferryboard_realtime_refresh_interval_seconds",
			Help: "Realtime refresh interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.Refreshes, c.RefreshDuration, c.LastSuccess,
		c.IndexedTrips, c.IndexedStopTimes, c.OverlayEntries,
		c.RealtimeMatched, c.RealtimeUnmatched,
		c.Queries, c.QueryResults, c.HTTPRequests, c.HTTPDuration,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.StaticInterval, c.RealtimeInterval,
	)

	c.StaticInterval.Set(staticInterval.Seconds())
	c.RealtimeInterval.Set(realtimeInterval.Seconds())

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Registry exposes the private registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) ObserveRefresh(source string, err error, duration time.Duration) {
	result := "success"
	if err != nil {
		result = "error"
	} else {
		c.LastSuccess.WithLabelValues(source).SetToCurrentTime()
	}
	c.Refreshes.WithLabelValues(source, result).Inc()
	c.RefreshDuration.WithLabelValues(source).Observe(duration.Seconds())
}

func (c *Collector) SetIndexSize(trips, stopTimes int) {
	c.IndexedTrips.Set(float64(trips))
	c.IndexedStopTimes.Set(float64(stopTimes))
}

func (c *Collector) ObserveMerge(overlayEntries int, stats schedule.MergeStats) {
	c.OverlayEntries.Set(float64(overlayEntries))
	c.RealtimeMatched.Add(float64(stats.Matched))
	c.RealtimeUnmatched.Add(float64(stats.Unmatched))
}

func (c *Collector) ObserveQuery(target string, results int) {
	if target == "" {
		target = "adhoc"
	}
	c.Queries.WithLabelValues(target).Inc()
	c.QueryResults.Observe(float64(results))
}

func (c *Collector) ObserveHTTPRequest(method string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.HTTPDuration.Observe(duration.Seconds())
}

func (c *Collector) NATSPublishedInc()              { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc()             { c.NATSPublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }

func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}

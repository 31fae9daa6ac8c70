package prometheus

import (
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup outcomes.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	// CacheLookups counts cache reads of the link repository by key family and outcome.
	CacheLookups = promauto.NewCounterVec(prom.CounterOpts{
		Namespace: "shorturl",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Link cache lookups partitioned by key family and outcome.",
	}, []string{"family", "result"})

	// CacheWriteFailures counts cache writes and evictions that failed.
	CacheWriteFailures = promauto.NewCounterVec(prom.CounterOpts{
		Namespace: "shorturl",
		Subsystem: "cache",
		Name:      "write_failures_total",
		Help:      "Link cache set/delete calls that returned an error.",
	}, []string{"op"})

	// HTTPRequests measures handled requests.
	HTTPRequests = promauto.NewHistogramVec(prom.HistogramOpts{
		Namespace: "shorturl",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method, route and status.",
		Buckets:   prom.DefBuckets,
	}, []string{"method", "route", "status"})

	// ExpiredLinks reports how many stored links carry a past expiry.
	ExpiredLinks = promauto.NewGauge(prom.GaugeOpts{
		Namespace: "shorturl",
		Name:      "expired_links",
		Help:      "Stored links whose expiresAt lies in the past.",
	})

	// LinkEvents counts lifecycle events by type and publish outcome.
	LinkEvents = promauto.NewCounterVec(prom.CounterOpts{
		Namespace: "shorturl",
		Name:      "link_events_total",
		Help:      "Link lifecycle events by type and outcome.",
	}, []string{"type", "outcome"})
)

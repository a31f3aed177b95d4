// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pelotero"

// BookingsCreated counts created bookings by initial status.
var BookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "bookings",
	Name:      "created_total",
	Help:      "Bookings created, by initial status.",
}, []string{"status"})

// BookingTransitions counts status changes. canonical is "false" for moves
// outside the lifecycle machine that were applied anyway.
var BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "bookings",
	Name:      "transitions_total",
	Help:      "Booking status transitions, by target status.",
}, []string{"to", "canonical"})

var BookingsArchived = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "bookings",
	Name:      "archived_total",
	Help:      "Bookings archived, by archive command.",
}, []string{"scope"})

var MovementsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "movements",
	Name:      "written_total",
	Help:      "Movement writes, by operation and type.",
}, []string{"op", "type"})

var StatsResets = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "stats",
	Name:      "resets_total",
	Help:      "Exclude-all-from-stats commands run.",
})

var DashboardDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "stats",
	Name:      "dashboard_seconds",
	Help:      "Time to compute the dashboard aggregates.",
	Buckets:   prometheus.DefBuckets,
})

var ChangesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "events",
	Name:      "published_total",
	Help:      "Change messages published, by entity and result.",
}, []string{"entity", "result"})

var MirrorProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "worker",
	Name:      "mirrored_total",
	Help:      "Change messages mirrored to the spreadsheet, by entity and result.",
}, []string{"entity", "result"})

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests, by route pattern, method and status code.",
}, []string{"route", "method", "code"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_seconds",
	Help:      "HTTP request latency, by route pattern.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})

var LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "auth",
	Name:      "login_attempts_total",
	Help:      "Login attempts, by result.",
}, []string{"result"})

var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the per-IP rate limiter.",
})

// SuspiciousRequests counts requests matching a probe pattern. They are
// logged, not blocked.
var SuspiciousRequests = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "suspicious_requests_total",
	Help:      "Requests that matched a known probe or scanner pattern.",
})

var CacheEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "cache",
	Name:      "entries",
	Help:      "Entries held after the last sweep, by cache.",
}, []string{"cache"})

// CacheEvictions counts entries dropped at capacity before they expired.
// For the session denylist each one re-enables a logged out token.
var CacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "cache",
	Name:      "live_evictions_total",
	Help:      "Unexpired entries evicted at capacity, by cache.",
}, []string{"cache"})

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveHTTP records one finished request.
func ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

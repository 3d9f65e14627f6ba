package metrics

import (
	"net/http"
	"strconv"
	"time"

	"tickerboard/internal/application"
	"tickerboard/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickerboard",
			Subsystem: "refresh",
			Name:      "total",
			Help:      "Source refreshes by outcome (fetched, cached, failed).",
		},
		[]string{"source", "outcome"},
	)

	refreshDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tickerboard",
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "Duration of source refreshes including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"source"},
	)

	records = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tickerboard",
			Subsystem: "cache",
			Name:      "records",
			Help:      "Ranked records held for a source.",
		},
		[]string{"source"},
	)

	snapshots = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tickerboard",
			Subsystem: "cache",
			Name:      "snapshots",
			Help:      "Snapshots held in a source's history.",
		},
		[]string{"source"},
	)

	upstreamAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickerboard",
			Subsystem: "upstream",
			Name:      "attempts_total",
			Help:      "Outbound exchange requests by host and result class.",
		},
		[]string{"host", "result"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickerboard",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tickerboard",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"method", "route"},
	)
)

func init() {
	Registry.MustRegister(
		refreshTotal,
		refreshDuration,
		records,
		snapshots,
		upstreamAttempts,
		httpRequests,
		httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveUpstream counts one outbound attempt. result is "ok", "retryable"
// or "terminal".
func ObserveUpstream(host, result string) {
	upstreamAttempts.WithLabelValues(host, result).Inc()
}

// Observer feeds refresh outcomes from the application layer into Prometheus.
type Observer struct{}

var _ application.RefreshObserver = Observer{}

func (Observer) ObserveRefresh(src domain.SourceID, outcome string, took time.Duration) {
	refreshTotal.WithLabelValues(string(src), outcome).Inc()
	if outcome != application.OutcomeCached {
		refreshDuration.WithLabelValues(string(src)).Observe(took.Seconds())
	}
}

func (Observer) ObserveState(src domain.SourceID, n, snaps int) {
	records.WithLabelValues(string(src)).Set(float64(n))
	snapshots.WithLabelValues(string(src)).Set(float64(snaps))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// InstrumentHandler records request counts and latency per chi route pattern.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

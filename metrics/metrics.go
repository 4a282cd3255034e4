package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "explorer",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "explorer",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})

	// Discoveries counts finished discovery cycles. tier is "0" when every
	// tier came back empty.
	Discoveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "explorer",
		Subsystem: "discovery",
		Name:      "results_total",
		Help:      "Finished discoveries by category and winning tier",
	}, []string{"category", "tier"})

	TierAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "explorer",
		Subsystem: "discovery",
		Name:      "tier_attempts_total",
		Help:      "Tier attempts by outcome (qualified, empty, provider_error)",
	}, []string{"tier", "outcome"})

	ProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "explorer",
		Subsystem: "provider",
		Name:      "errors_total",
		Help:      "Failed place-search provider calls by query mode",
	}, []string{"mode"})

	DroppedCandidates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "explorer",
		Subsystem: "discovery",
		Name:      "dropped_candidates_total",
		Help:      "Provider candidates dropped for missing coordinates",
	})

	StaleCommits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "explorer",
		Subsystem: "session",
		Name:      "stale_commits_total",
		Help:      "Discovery results discarded because a newer request superseded them",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "explorer",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Discovery result cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "explorer",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Discovery result cache misses",
	})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per route template.
func Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

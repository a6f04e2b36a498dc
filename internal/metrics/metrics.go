package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vestry",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	syncPushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vestry",
			Name:      "sync_pushes_total",
			Help:      "Task upserts pushed to the remote store, by result.",
		},
		[]string{"result"},
	)

	syncDeletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vestry",
			Name:      "sync_deletions_total",
			Help:      "Queued deletions applied to the remote store, by result.",
		},
		[]string{"result"},
	)

	hydrations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vestry",
			Name:      "sync_hydrations_total",
			Help:      "Completed hydration cycles.",
		},
	)

	hydratedTasks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vestry",
			Name:      "sync_hydrated_tasks_total",
			Help:      "Tasks pulled from the remote store during hydration.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, syncPushes, syncDeletions, hydrations, hydratedTasks)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncPush records a push attempt outcome ("ok" or "error").
func IncPush(result string) {
	syncPushes.WithLabelValues(result).Inc()
}

// IncDeletion records a remote deletion outcome ("ok" or "error").
func IncDeletion(result string) {
	syncDeletions.WithLabelValues(result).Inc()
}

// IncHydration records a completed hydration cycle of n tasks.
func IncHydration(n int) {
	hydrations.Inc()
	hydratedTasks.Add(float64(n))
}

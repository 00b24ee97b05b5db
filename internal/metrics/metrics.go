// Package metrics holds the Prometheus instrumentation for the bot. The
// collectors live on the default registry and are served by the ops
// listener's /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	actions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telestack_actions_total",
		Help: "Control actions handled by the bot, by action and outcome.",
	}, []string{"action", "outcome"})

	cloudRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "telestack_cloud_request_seconds",
		Help:    "Latency of compute API round trips.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	machines = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "telestack_machines",
		Help: "Machines visible through the allow-list, by display state.",
	}, []string{"state"})
)

// RecordAction counts one handled bot action.
func RecordAction(action, outcome string) {
	actions.WithLabelValues(action, outcome).Inc()
}

// ObserveCloudRequest records one compute API round trip. It matches the
// compute.Observer signature.
func ObserveCloudRequest(operation string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	cloudRequests.WithLabelValues(operation, outcome).Observe(d.Seconds())
}

// SetMachineStates refreshes the per-state machine gauges from a listing.
func SetMachineStates(active, shutoff, other int) {
	machines.WithLabelValues("active").Set(float64(active))
	machines.WithLabelValues("shutoff").Set(float64(shutoff))
	machines.WithLabelValues("other").Set(float64(other))
}

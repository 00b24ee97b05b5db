// Package ops serves the operational HTTP surface: liveness, readiness and
// Prometheus metrics. No business endpoints live here; the bot's only
// operator-facing interface is Telegram.
package ops

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Readiness flips to ready once Telegram and cloud authentication have both
// succeeded at startup.
type Readiness struct {
	ready atomic.Bool
}

// Set marks the process ready.
func (r *Readiness) Set() { r.ready.Store(true) }

// Ready reports whether the process is ready.
func (r *Readiness) Ready() bool { return r.ready.Load() }

// Router builds the ops HTTP router.
func Router(readiness *Readiness) http.Handler {
	r := chi.NewRouter()

	r.Use(httprate.Limit(100, time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if readiness == nil || !readiness.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Method("GET", "/metrics", promhttp.Handler())

	return r
}

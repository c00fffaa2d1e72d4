// Package metrics exposes prometheus collectors for rerun activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Rerun struct {
	Triggered prometheus.Counter
	Succeeded prometheus.Counter
	Failed    prometheus.Counter
	Polls     prometheus.Counter
	InFlight  prometheus.Gauge
}

func NewRerun(reg prometheus.Registerer) *Rerun {
	factory := promauto.With(reg)
	return &Rerun{
		Triggered: factory.NewCounter(prometheus.CounterOpts{
			Name: "qadash_reruns_triggered_total",
			Help: "Rerun sessions started.",
		}),
		Succeeded: factory.NewCounter(prometheus.CounterOpts{
			Name: "qadash_reruns_succeeded_total",
			Help: "Rerun sessions that reached a finished build.",
		}),
		Failed: factory.NewCounter(prometheus.CounterOpts{
			Name: "qadash_reruns_failed_total",
			Help: "Rerun sessions that ended in error, timeout or cancellation.",
		}),
		Polls: factory.NewCounter(prometheus.CounterOpts{
			Name: "qadash_rerun_polls_total",
			Help: "Queue-resolution and build-progress polls performed.",
		}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "qadash_reruns_in_flight",
			Help: "Rerun sessions currently running.",
		}),
	}
}

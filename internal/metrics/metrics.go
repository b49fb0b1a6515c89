package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doridoridoriand/pingtray/internal/state"
	"github.com/doridoridoriand/pingtray/internal/targets"
)

const namespace = "pingtray"

// Overall gauge values.
const (
	overallInitializing = 0
	overallAllUp        = 1
	overallSomeDown     = 2
)

// Recorder exports published snapshots as Prometheus metrics. It implements
// the scheduler's Observer hooks.
type Recorder struct {
	registry *prometheus.Registry

	targetUp      *prometheus.GaugeVec
	targetLatency *prometheus.GaugeVec
	overall       prometheus.Gauge
	targetsTotal  prometheus.Gauge
	targetsDown   prometheus.Gauge
	cycles        prometheus.Counter
	cycleDuration prometheus.Histogram
	infraErrors   *prometheus.CounterVec
}

// NewRecorder registers all collectors on a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		targetUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "target_up",
			Help:      "1 if the target was reachable in the last completed cycle.",
		}, []string{"address", "label"}),
		targetLatency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "target_latency_seconds",
			Help:      "Round-trip latency measured for reachable targets in the last cycle.",
		}, []string{"address", "label"}),
		overall: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overall_status",
			Help:      "0 initializing, 1 all up, 2 some down.",
		}),
		targetsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "targets_total",
			Help:      "Number of targets probed in the last cycle.",
		}),
		targetsDown: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "targets_down",
			Help:      "Number of unreachable targets in the last cycle.",
		}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Completed probe cycles.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a probe cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		infraErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_infra_errors_total",
			Help:      "Probes that could not be run at all.",
		}, []string{"address"}),
	}
	r.registry.MustRegister(
		r.targetUp,
		r.targetLatency,
		r.overall,
		r.targetsTotal,
		r.targetsDown,
		r.cycles,
		r.cycleDuration,
		r.infraErrors,
		collectors.NewGoCollector(),
	)
	return r
}

// OnCycle replaces per-target series with the snapshot's targets so removed
// targets disappear.
func (r *Recorder) OnCycle(snap state.Snapshot) {
	r.targetUp.Reset()
	r.targetLatency.Reset()
	for _, entry := range snap.Entries() {
		labels := prometheus.Labels{"address": entry.Target.Key(), "label": entry.Target.Label}
		up := 0.0
		if entry.Outcome.Reachable {
			up = 1
		}
		r.targetUp.With(labels).Set(up)
		if entry.Outcome.HasLatency() {
			r.targetLatency.With(labels).Set(entry.Outcome.Latency.Seconds())
		}
	}

	r.overall.Set(overallValue(snap.Overall))
	r.targetsTotal.Set(float64(len(snap.Targets)))
	r.targetsDown.Set(float64(snap.Down()))
	r.cycles.Inc()
	r.cycleDuration.Observe(snap.Duration.Seconds())
}

// OnInfraError counts a probe that could not be run.
func (r *Recorder) OnInfraError(target targets.Target, err error) {
	r.infraErrors.WithLabelValues(target.Key()).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func overallValue(o state.Overall) float64 {
	switch o {
	case state.AllUp:
		return overallAllUp
	case state.SomeDown:
		return overallSomeDown
	default:
		return overallInitializing
	}
}

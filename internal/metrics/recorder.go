// Package metrics exports ensemble progress as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/delaysim/internal/sim"
)

// Recorder counts finished runs and their cost. It implements sim.Observer.
type Recorder struct {
	runs     *prometheus.CounterVec
	steps    prometheus.Counter
	duration prometheus.Histogram
	final    *prometheus.GaugeVec
}

// NewRecorder registers the run metrics of model with reg.
func NewRecorder(reg prometheus.Registerer, model string) *Recorder {
	f := promauto.With(reg)
	labels := prometheus.Labels{"model": model}
	return &Recorder{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "delaysim_runs_total",
			Help:        "Finished trajectories by outcome",
			ConstLabels: labels,
		}, []string{"status"}),
		steps: f.NewCounter(prometheus.CounterOpts{
			Name:        "delaysim_steps_total",
			Help:        "Integration steps taken over all runs",
			ConstLabels: labels,
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:        "delaysim_run_duration_seconds",
			Help:        "Wall time of one trajectory",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		final: f.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "delaysim_last_final_state",
			Help:        "Final state of the most recently finished run",
			ConstLabels: labels,
		}, []string{"component"}),
	}
}

var componentLabels = []string{"x0", "x1", "x2", "x3", "x4", "x5", "x6", "x7"}

func (r *Recorder) OnRun(res sim.RunResult) {
	r.duration.Observe(res.Elapsed.Seconds())
	if res.Err != nil {
		r.runs.WithLabelValues("failed").Inc()
		return
	}
	r.runs.WithLabelValues("ok").Inc()
	r.steps.Add(float64(res.Stats.Steps))
	for c, v := range res.Final {
		if c >= len(componentLabels) {
			break
		}
		r.final.WithLabelValues(componentLabels[c]).Set(v)
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

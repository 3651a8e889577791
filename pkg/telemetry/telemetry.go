// Package telemetry はPrometheusのコレクタで最適化とクラスタリングの進行を記録します。
//
// Recorder は自前のレジストリを持ち、HTTPサーバーは起動しません。
// CLIは実行後に WriteText でテキスト形式のスナップショットを出力します。
// nil の *Recorder は何も記録しないので、呼び出し側は nil チェック不要です。
package telemetry

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/YuminosukeSato/numlearn/pkg/errors"
)

const namespace = "numlearn"

// Recorder holds the collectors for descent, SGD and k-means runs.
type Recorder struct {
	registry *prometheus.Registry

	descentIterations *prometheus.CounterVec
	descentRuns       *prometheus.CounterVec
	descentLoss       *prometheus.GaugeVec

	sgdBatches prometheus.Counter
	sgdSamples prometheus.Counter
	sgdRate    prometheus.Gauge

	kmeansIterations prometheus.Counter
	kmeansRuns       *prometheus.CounterVec
	kmeansMovement   prometheus.Gauge

	iterationsToStop *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		descentIterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "descent_iterations_total",
			Help:      "Gradient descent iterations performed.",
		}, []string{"objective"}),
		descentRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "descent_runs_total",
			Help:      "Finished gradient descent runs by outcome.",
		}, []string{"objective", "converged"}),
		descentLoss: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "descent_loss",
			Help:      "Loss after the most recent descent iteration.",
		}, []string{"objective"}),
		sgdBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sgd_batches_total",
			Help:      "Batches applied by SGD sessions.",
		}),
		sgdSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sgd_samples_total",
			Help:      "Data points seen by SGD sessions.",
		}),
		sgdRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sgd_effective_learning_rate",
			Help:      "Effective learning rate used by the most recent SGD batch.",
		}),
		kmeansIterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kmeans_iterations_total",
			Help:      "K-means assign/update iterations performed.",
		}),
		kmeansRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kmeans_runs_total",
			Help:      "Finished k-means runs by terminal state.",
		}, []string{"state"}),
		kmeansMovement: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "kmeans_movement",
			Help:      "Summed L1 movement of the means in the most recent iteration.",
		}),
		iterationsToStop: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "iterations_to_stop",
			Help:      "Iterations until a run stopped.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"algorithm"}),
	}
	r.registry.MustRegister(
		r.descentIterations, r.descentRuns, r.descentLoss,
		r.sgdBatches, r.sgdSamples, r.sgdRate,
		r.kmeansIterations, r.kmeansRuns, r.kmeansMovement,
		r.iterationsToStop,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// DescentIteration records one gradient descent iteration.
func (r *Recorder) DescentIteration(objective string, loss float64) {
	if r == nil {
		return
	}
	r.descentIterations.WithLabelValues(objective).Inc()
	r.descentLoss.WithLabelValues(objective).Set(loss)
}

// DescentFinished records the end of a gradient descent run.
func (r *Recorder) DescentFinished(objective string, iterations int, converged bool) {
	if r == nil {
		return
	}
	r.descentRuns.WithLabelValues(objective, strconv.FormatBool(converged)).Inc()
	r.iterationsToStop.WithLabelValues("gradient_descent").Observe(float64(iterations))
}

// SGDBatch records one applied SGD batch.
func (r *Recorder) SGDBatch(size int, rate float64) {
	if r == nil {
		return
	}
	r.sgdBatches.Inc()
	r.sgdSamples.Add(float64(size))
	r.sgdRate.Set(rate)
}

// KMeansIteration records one k-means iteration.
func (r *Recorder) KMeansIteration(movement float64) {
	if r == nil {
		return
	}
	r.kmeansIterations.Inc()
	r.kmeansMovement.Set(movement)
}

// KMeansFinished records the end of a k-means run.
func (r *Recorder) KMeansFinished(iterations int, state string) {
	if r == nil {
		return
	}
	r.kmeansRuns.WithLabelValues(state).Inc()
	r.iterationsToStop.WithLabelValues("kmeans").Observe(float64(iterations))
}

// Snapshot returns the current value of every sample keyed by metric name
// and sorted label pairs, e.g. `numlearn_kmeans_runs_total{state="converged"}`.
// Histograms contribute their sample count.
func (r *Recorder) Snapshot() (map[string]float64, error) {
	if r == nil {
		return nil, nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return nil, errors.Wrap(err, "telemetry: gather")
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			out[sampleKey(mf.GetName(), m.GetLabel())] = sampleValue(mf.GetType(), m)
		}
	}
	return out, nil
}

func sampleKey(name string, labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return name
	}
	parts := make([]string, len(labels))
	for i, lp := range labels {
		parts[i] = fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue())
	}
	return name + "{" + strings.Join(parts, ",") + "}"
}

func sampleValue(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM:
		return float64(m.GetHistogram().GetSampleCount())
	default:
		return m.GetUntyped().GetValue()
	}
}

// WriteText writes every collected metric family in the Prometheus text
// exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	if r == nil {
		return nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "telemetry: gather")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, "telemetry: write")
		}
	}
	return nil
}

package telemetry

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderDescent(t *testing.T) {
	r := NewRecorder()
	r.DescentIteration("Parabola", 2.5)
	r.DescentIteration("Parabola", 0.5)
	r.DescentFinished("Parabola", 2, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.descentIterations.WithLabelValues("Parabola")))
	assert.Equal(t, 0.5, testutil.ToFloat64(r.descentLoss.WithLabelValues("Parabola")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.descentRuns.WithLabelValues("Parabola", "true")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.iterationsToStop))
}

func TestRecorderSGD(t *testing.T) {
	r := NewRecorder()
	r.SGDBatch(10, 1)
	r.SGDBatch(5, 1.4142135623730951)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.sgdBatches))
	assert.Equal(t, 15.0, testutil.ToFloat64(r.sgdSamples))
	assert.InDelta(t, 1.4142135623730951, testutil.ToFloat64(r.sgdRate), 1e-12)
}

func TestRecorderKMeans(t *testing.T) {
	r := NewRecorder()
	for _, m := range []float64{3.2, 0.4, 0.0005} {
		r.KMeansIteration(m)
	}
	r.KMeansFinished(3, "converged")

	assert.Equal(t, 3.0, testutil.ToFloat64(r.kmeansIterations))
	assert.Equal(t, 0.0005, testutil.ToFloat64(r.kmeansMovement))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.kmeansRuns.WithLabelValues("converged")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.DescentIteration("Parabola", 1)
		r.DescentFinished("Parabola", 1, false)
		r.SGDBatch(1, 1)
		r.KMeansIteration(1)
		r.KMeansFinished(1, "converged")
	})
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteText(&bytes.Buffer{}))
}

func TestWriteText(t *testing.T) {
	r := NewRecorder()
	r.DescentIteration("LinearRegression", 0.25)
	r.KMeansIteration(1.5)

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, `numlearn_descent_iterations_total{objective="LinearRegression"} 1`)
	assert.Contains(t, out, "numlearn_kmeans_iterations_total 1")
	assert.Contains(t, out, "# TYPE numlearn_kmeans_movement gauge")
}

func TestSnapshot(t *testing.T) {
	r := NewRecorder()
	r.DescentIteration("Parabola", 0.5)
	r.DescentFinished("Parabola", 1, true)
	r.KMeansFinished(4, "max_iterations_reached")

	snap, err := r.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1.0, snap[`numlearn_descent_iterations_total{objective="Parabola"}`])
	assert.Equal(t, 0.5, snap[`numlearn_descent_loss{objective="Parabola"}`])
	assert.Equal(t, 1.0, snap[`numlearn_descent_runs_total{converged="true",objective="Parabola"}`])
	assert.Equal(t, 1.0, snap[`numlearn_kmeans_runs_total{state="max_iterations_reached"}`])
	assert.Equal(t, 1.0, snap[`numlearn_iterations_to_stop{algorithm="kmeans"}`])
	assert.Equal(t, 0.0, snap["numlearn_sgd_batches_total"])

	var nilRecorder *Recorder
	snap, err = nilRecorder.Snapshot()
	assert.NoError(t, err)
	assert.Nil(t, snap)
}

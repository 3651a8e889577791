package linear

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numlearn/core/model"
	"github.com/YuminosukeSato/numlearn/pkg/errors"
	"github.com/YuminosukeSato/numlearn/pkg/log"
	"github.com/YuminosukeSato/numlearn/pkg/telemetry"
)

func TestRegression_Basic(t *testing.T) {
	// y = 2x + 1
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{3, 5, 7, 9})

	lr := NewRegression(
		WithLearningRate(0.1),
		WithMinImprovement(1e-12),
		WithMaxIterations(20000),
	)
	require.NoError(t, lr.Fit(X, y))
	require.True(t, lr.IsFitted())
	assert.True(t, lr.Converged())

	require.Len(t, lr.Weights(), 1)
	assert.InDelta(t, 2.0, lr.Weights()[0], 1e-3)
	assert.InDelta(t, 1.0, lr.Intercept(), 1e-3)
	assert.Less(t, lr.Loss(), 1e-6)
	assert.Greater(t, lr.Iterations(), 1)

	pred, err := lr.Predict(mat.NewDense(2, 1, []float64{5, 6}))
	require.NoError(t, err)
	rows, cols := pred.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 1, cols)
	assert.InDelta(t, 11.0, pred.At(0, 0), 1e-2)
	assert.InDelta(t, 13.0, pred.At(1, 0), 1e-2)

	score, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-4)

	single, err := lr.PredictFeatures([]float64{10})
	require.NoError(t, err)
	assert.InDelta(t, 21.0, single, 1e-2)
}

func TestRegression_NoIntercept(t *testing.T) {
	// y = 2x
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	lr := NewRegression(
		WithFitIntercept(false),
		WithLearningRate(0.1),
		WithMinImprovement(1e-12),
		WithMaxIterations(1000),
	)
	require.NoError(t, lr.Fit(X, y))
	assert.InDelta(t, 2.0, lr.Weights()[0], 1e-4)
	assert.Equal(t, 0.0, lr.Intercept())
}

func TestRegression_FitData(t *testing.T) {
	data := []model.Datum{
		model.NewDatum([]float64{1, 0}, 1),
		model.NewDatum([]float64{0, 1}, 2),
		model.NewDatum([]float64{1, 1}, 3),
		model.NewDatum([]float64{2, 1}, 4),
	}
	lr := NewRegression(
		WithFitIntercept(false),
		WithLearningRate(0.1),
		WithMinImprovement(1e-14),
		WithMaxIterations(20000),
	)
	require.NoError(t, lr.FitData(data))

	// y = x1 + 2·x2 は厳密に成り立つ
	w := lr.Weights()
	require.Len(t, w, 2)
	assert.InDelta(t, 1.0, w[0], 1e-3)
	assert.InDelta(t, 2.0, w[1], 1e-3)
}

func TestRegression_Errors(t *testing.T) {
	t.Run("not fitted", func(t *testing.T) {
		lr := NewRegression()
		_, err := lr.Predict(mat.NewDense(1, 1, []float64{1}))
		var nf *errors.NotFittedError
		assert.True(t, errors.As(err, &nf))
		assert.Nil(t, lr.Weights())

		_, err = lr.Score(mat.NewDense(1, 1, []float64{1}), mat.NewDense(1, 1, []float64{1}))
		assert.True(t, errors.As(err, &nf))
	})

	t.Run("empty data", func(t *testing.T) {
		lr := NewRegression()
		err := lr.FitData(nil)
		assert.True(t, errors.Is(err, errors.ErrEmptyData))
	})

	t.Run("row mismatch", func(t *testing.T) {
		lr := NewRegression()
		err := lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(2, 1, []float64{1, 2}))
		var dimErr *errors.DimensionError
		assert.True(t, errors.As(err, &dimErr))
	})

	t.Run("y is not a column", func(t *testing.T) {
		lr := NewRegression()
		err := lr.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
		assert.Error(t, err)
	})

	t.Run("non integer label", func(t *testing.T) {
		lr := NewRegression()
		err := lr.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{1, 2.5}))
		var valErr *errors.ValueError
		assert.True(t, errors.As(err, &valErr))
		assert.False(t, lr.IsFitted())
	})

	t.Run("diverging learning rate", func(t *testing.T) {
		lr := NewRegression(WithLearningRate(10), WithMaxIterations(2000))
		data := make([]model.Datum, 5)
		for i := range data {
			x := float64(i + 1)
			data[i] = model.NewDatum([]float64{x}, 2*int(x)+1)
		}
		err := lr.FitData(data)
		var numErr *errors.NumericalInstabilityError
		assert.True(t, errors.As(err, &numErr))
		assert.False(t, lr.IsFitted())
	})

	t.Run("ragged features", func(t *testing.T) {
		lr := NewRegression()
		err := lr.FitData([]model.Datum{
			model.NewDatum([]float64{1, 2}, 1),
			model.NewDatum([]float64{1}, 1),
		})
		var dimErr *errors.DimensionError
		assert.True(t, errors.As(err, &dimErr))
	})

	t.Run("predict feature mismatch", func(t *testing.T) {
		lr := NewRegression(WithMaxIterations(5))
		require.NoError(t, lr.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{1, 2})))
		_, err := lr.Predict(mat.NewDense(1, 2, []float64{1, 2}))
		var dimErr *errors.DimensionError
		assert.True(t, errors.As(err, &dimErr))
	})

	t.Run("invalid learning rate", func(t *testing.T) {
		lr := NewRegression(WithLearningRate(math.NaN()))
		err := lr.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{1, 2}))
		assert.Error(t, err)
	})
}

func TestRegression_LoggingAndMetrics(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	rec := telemetry.NewRecorder()

	lr := NewRegression(WithMaxIterations(3), WithLogger(logger), WithRecorder(rec))
	require.NoError(t, lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(3, 1, []float64{2, 4, 6})))

	assert.True(t, logger.ContainsMessage("descent finished"))
	assert.Equal(t, 3, lr.Iterations())

	var buf bytes.Buffer
	require.NoError(t, rec.WriteText(&buf))
	assert.Contains(t, buf.String(), `numlearn_descent_iterations_total{objective="LinearRegression"} 3`)
}

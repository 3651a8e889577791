package optimize

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/numlearn/core/model"
	"github.com/YuminosukeSato/numlearn/dataset"
	"github.com/YuminosukeSato/numlearn/objective"
	"github.com/YuminosukeSato/numlearn/pkg/errors"
	"github.com/YuminosukeSato/numlearn/pkg/log"
	"github.com/YuminosukeSato/numlearn/pkg/telemetry"
)

func TestUpdateWeights(t *testing.T) {
	tests := []struct {
		name string
		w, g []float64
		rate float64
		want []float64
	}{
		{"single", []float64{1}, []float64{-0.25}, 2, []float64{1.5}},
		{"pair", []float64{1, 3}, []float64{-0.25, 0.25}, 2, []float64{1.5, 2.5}},
		{"zero rate", []float64{4, 5}, []float64{1, 1}, 0, []float64{4, 5}},
		{"empty", []float64{}, []float64{}, 1, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UpdateWeights(tt.w, tt.g, tt.rate)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(tt.w))
		})
	}
}

func TestUpdateWeightsDoesNotMutate(t *testing.T) {
	w := []float64{1, 3}
	g := []float64{-0.25, 0.25}
	UpdateWeights(w, g, 2)
	assert.Equal(t, []float64{1, 3}, w)
	assert.Equal(t, []float64{-0.25, 0.25}, g)
}

func TestUpdateWeightsMismatchPanics(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		var dimErr *errors.DimensionError
		assert.True(t, errors.As(err, &dimErr))
	}()
	UpdateWeights([]float64{1, 2}, []float64{1}, 1)
}

func TestGradientDescentParabola(t *testing.T) {
	initial := []float64{3, 7}
	res, err := GradientDescent(nil, initial, objective.Parabola{},
		WithLearningRate(0.1),
		WithMinImprovement(0.001),
		WithMaxIterations(100),
	)
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.InDelta(t, 1.0, res.Weights[0], 0.1)
	assert.InDelta(t, 2.0, res.Weights[1], 0.1)
	assert.Less(t, res.Loss, 0.01)
	assert.Less(t, res.LossDelta, 0.001)
	assert.Equal(t, []float64{3, 7}, initial, "initial weights must not be mutated")
}

func TestGradientDescentMatchesManualLoop(t *testing.T) {
	// 3 iterations with the deltas never below min, done by hand
	w := []float64{3, 7}
	for i := 0; i < 3; i++ {
		w = UpdateWeights(w, objective.Parabola{}.Gradient(nil, w), 0.1)
	}

	res, err := GradientDescent(nil, []float64{3, 7}, objective.Parabola{},
		WithLearningRate(0.1), WithMinImprovement(0), WithMaxIterations(3))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Iterations)
	assert.False(t, res.Converged)
	assert.InDeltaSlice(t, w, res.Weights, 1e-12)
	assert.InDelta(t, objective.Parabola{}.Loss(nil, w), res.Loss, 1e-12)
}

func TestGradientDescentStopsAtFirstSmallDelta(t *testing.T) {
	// starting at the minimum the first loss equals the initial prev loss of 0
	res, err := GradientDescent(nil, []float64{1, 2}, objective.Parabola{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Iterations)
	assert.True(t, res.Converged)
	assert.Equal(t, 0.0, res.LossDelta)
	assert.Equal(t, []float64{1, 2}, res.Weights)
}

func TestGradientDescentZeroIterations(t *testing.T) {
	res, err := GradientDescent(nil, []float64{3, 1}, objective.Parabola{}, WithMaxIterations(0))
	require.NoError(t, err)

	assert.Equal(t, 0, res.Iterations)
	assert.Equal(t, []float64{3, 1}, res.Weights)
	assert.Equal(t, 2.5, res.Loss)
}

func TestGradientDescentZeroIterationsReported(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	testLogger, _ := log.NewTestLogger(log.LevelDebug)
	rec := telemetry.NewRecorder()
	res, err := GradientDescent(nil, []float64{3, 1}, objective.Parabola{},
		WithMaxIterations(0), WithLogger(testLogger), WithRecorder(rec))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Iterations)
	assert.False(t, res.Converged)

	finished := testLogger.EntriesWithMessage("descent finished")
	require.Len(t, finished, 1)
	assert.Empty(t, testLogger.EntriesWithMessage("descent step"))

	snap, err := rec.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1.0, snap[`numlearn_descent_runs_total{converged="false",objective="Parabola"}`])
	assert.Empty(t, warnings)
}

func TestGradientDescentValidation(t *testing.T) {
	tests := []struct {
		name  string
		opt   Option
		param string
	}{
		{"negative iterations", WithMaxIterations(-1), "max_iterations"},
		{"negative min improvement", WithMinImprovement(-0.1), "min_improvement"},
		{"nan learning rate", WithLearningRate(math.NaN()), "learning_rate"},
		{"inf learning rate", WithLearningRate(math.Inf(1)), "learning_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GradientDescent(nil, []float64{0, 0}, objective.Parabola{}, tt.opt)
			var valErr *errors.ValidationError
			require.True(t, errors.As(err, &valErr), "got %v", err)
			assert.Equal(t, tt.param, valErr.ParamName)
		})
	}
}

func TestGradientDescentDimensionMismatchRecovered(t *testing.T) {
	bad := model.Funcs{
		LossFn:     func(_ []model.Datum, w []float64) float64 { return 0 },
		GradientFn: func(_ []model.Datum, w []float64) []float64 { return []float64{1} },
	}
	_, err := GradientDescent(nil, []float64{1, 2}, bad)
	require.Error(t, err)

	var panicErr *errors.PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "optimize.GradientDescent", panicErr.Operation)

	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestGradientDescentWarnsOnCap(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	res, err := GradientDescent(nil, []float64{300, 700}, objective.Parabola{},
		WithLearningRate(0.001), WithMaxIterations(5))
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Equal(t, 5, res.Iterations)

	require.Len(t, warnings, 1)
	var cw *errors.ConvergenceWarning
	require.True(t, errors.As(warnings[0], &cw))
	assert.Equal(t, 5, cw.Iterations)
}

func TestGradientDescentLinearRegression(t *testing.T) {
	// y = 1 for x = (1, 1), y = 0 for x = (1, 0): exact fit is w = (0, 1)
	data := []model.Datum{
		{Features: []float64{1, 1}, Label: 1},
		{Features: []float64{1, 0}, Label: 0},
	}
	res, err := GradientDescent(data, []float64{0, 0}, objective.LinearRegression{},
		WithLearningRate(0.5), WithMinImprovement(1e-12), WithMaxIterations(5000))
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.InDelta(t, 0.0, res.Weights[0], 1e-3)
	assert.InDelta(t, 1.0, res.Weights[1], 1e-3)
}

func TestGradientDescentCoinBias(t *testing.T) {
	// squared error on the bias feature drives w toward the empirical head rate
	data := dataset.CoinFlips(0.7743, 500, 11)
	heads := 0
	for _, d := range data {
		heads += d.Label
	}
	res, err := GradientDescent(data, []float64{0.5}, objective.LinearRegression{},
		WithLearningRate(0.5), WithMinImprovement(1e-12), WithMaxIterations(1000))
	require.NoError(t, err)
	assert.InDelta(t, float64(heads)/500, res.Weights[0], 1e-4)
}

func TestGradientDescentLogging(t *testing.T) {
	testLogger, _ := log.NewTestLogger(log.LevelDebug)

	res, err := GradientDescent(nil, []float64{3, 7}, objective.Parabola{},
		WithLearningRate(0.1), WithLogger(testLogger))
	require.NoError(t, err)

	steps := testLogger.EntriesWithMessage("descent step")
	assert.Len(t, steps, res.Iterations)
	assert.True(t, testLogger.ContainsField(log.ModelNameKey, "Parabola"))
	assert.True(t, testLogger.ContainsField(log.OperationKey, log.OperationDescend))
	assert.True(t, testLogger.ContainsField(log.ConvergedKey, true))

	finished := testLogger.EntriesWithMessage("descent finished")
	require.Len(t, finished, 1)
	assert.NotEmpty(t, finished[0][log.EstimatorIDKey])
}

func TestGradientDescentRecorder(t *testing.T) {
	rec := telemetry.NewRecorder()
	res, err := GradientDescent(nil, []float64{3, 7}, objective.Parabola{},
		WithLearningRate(0.1), WithRecorder(rec))
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(rec.Registry(), "numlearn_descent_iterations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expected := float64(res.Iterations)
	mfs, err := rec.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "numlearn_descent_iterations_total" {
			assert.Equal(t, expected, mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
}

func TestDescend(t *testing.T) {
	p := objective.Parabola{}
	w, loss, delta, err := Descend(nil, []float64{3, 7}, p.Loss, p.Gradient, 0.1, 0.001, 100)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, w[0], 0.1)
	assert.InDelta(t, 2.0, w[1], 0.1)
	assert.Less(t, loss, 0.01)
	assert.Less(t, delta, 0.001)

	_, _, _, err = Descend(nil, []float64{3, 7}, p.Loss, p.Gradient, 0.1, 0.001, -1)
	assert.Error(t, err)
}

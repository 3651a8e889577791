// Package optimize はバッチ勾配降下法と確率的勾配降下法(SGD)のセッションを提供します。
package optimize

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/numlearn/core/model"
	"github.com/YuminosukeSato/numlearn/pkg/errors"
	"github.com/YuminosukeSato/numlearn/pkg/log"
)

// Result は勾配降下法の実行結果です。
type Result struct {
	// Weights は最終的な重みです。初期重みとは別のスライスです。
	Weights []float64
	// Loss は Weights における損失です。
	Loss float64
	// LossDelta は最後のイテレーションでの |前回の損失 − 今回の損失| です。
	LossDelta float64
	// Iterations は実行したイテレーション数です。
	Iterations int
	// Converged は LossDelta が MinImprovement を下回って停止したかどうかです。
	Converged bool
}

// UpdateWeights は w_i − g_i·rate からなる新しいスライスを返します。
// 引数は変更しません。len(w) != len(g) の場合は DimensionError でpanicします。
func UpdateWeights(w, g []float64, rate float64) []float64 {
	if len(w) != len(g) {
		panic(errors.NewDimensionError("UpdateWeights", len(w), len(g), 1))
	}
	out := make([]float64, len(w))
	for i := range w {
		out[i] = w[i] - g[i]*rate
	}
	return out
}

// GradientDescent は obj の損失を一定の学習率で最小化します。
//
// 前回の損失は 0 から始まり、各イテレーションで勾配を計算して新しい重みを作り、
// 新しい損失との差 |prev − new| が MinImprovement 未満になった最初の時点で
// 停止します。上限回数に達した場合はその時点の状態を返し、
// ConvergenceWarning を errors.Warn で通知します(エラーではありません)。
//
// initial は変更されません。重みと勾配の長さが合わない場合のpanicは
// *errors.PanicError として返されます。
func GradientDescent(data []model.Datum, initial []float64, obj model.Objective, opts ...Option) (res Result, err error) {
	defer errors.Recover(&err, "optimize.GradientDescent")

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}

	name := model.NameOf(obj)
	logger := cfg.logger
	if logger == nil {
		logger = log.GetLogger()
	}
	logger = logger.With(
		log.ComponentKey, "optimize",
		log.ModelNameKey, name,
		log.EstimatorIDKey, uuid.NewString(),
	)
	debug := logger.Enabled(context.Background(), log.LevelDebug)
	start := time.Now()

	weights := make([]float64, len(initial))
	copy(weights, initial)
	// maxIterations == 0 なら初期重みの損失だけを返す
	res = Result{Weights: weights, Loss: obj.Loss(data, weights)}

	prevLoss := 0.0
	for i := 1; i <= cfg.maxIterations; i++ {
		grad := obj.Gradient(data, weights)
		weights = UpdateWeights(weights, grad, cfg.learningRate)
		loss := obj.Loss(data, weights)
		delta := math.Abs(prevLoss - loss)

		res = Result{Weights: weights, Loss: loss, LossDelta: delta, Iterations: i}
		cfg.recorder.DescentIteration(name, loss)

		if debug {
			logger.Debug("descent step",
				log.IterationKey, i,
				log.LossKey, loss,
				log.LossDeltaKey, delta,
			)
			if errors.CheckScalar("loss", loss, i) != nil {
				logger.Debug("non-finite loss", log.IterationKey, i, log.LossKey, loss)
			}
		}

		if delta < cfg.minImprovement {
			res.Converged = true
			break
		}
		prevLoss = loss
	}

	cfg.recorder.DescentFinished(name, res.Iterations, res.Converged)
	if !res.Converged && res.Iterations > 0 {
		errors.Warn(errors.NewConvergenceWarning("GradientDescent", res.Iterations,
			"loss delta still above min improvement"))
	}
	logger.Info("descent finished",
		log.OperationKey, log.OperationDescend,
		log.IterationKey, res.Iterations,
		log.LossKey, res.Loss,
		log.ConvergedKey, res.Converged,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

// Descend は関数の組を目的関数として GradientDescent を実行し、
// 最終的な重み・損失・損失の差を返します。
func Descend(
	data []model.Datum,
	initial []float64,
	loss model.LossFunc,
	gradient model.GradientFunc,
	learningRate, minImprovement float64,
	maxIterations int,
) ([]float64, float64, float64, error) {
	res, err := GradientDescent(data, initial,
		model.Funcs{LossFn: loss, GradientFn: gradient},
		WithLearningRate(learningRate),
		WithMinImprovement(minImprovement),
		WithMaxIterations(maxIterations),
	)
	if err != nil {
		return nil, 0, 0, err
	}
	return res.Weights, res.Loss, res.LossDelta, nil
}

func (c config) validate() error {
	if err := errors.CheckFinite("learning_rate", c.learningRate); err != nil {
		return err
	}
	if c.minImprovement < 0 || math.IsNaN(c.minImprovement) {
		return errors.NewValidationError("min_improvement", "must be non-negative", c.minImprovement)
	}
	if c.maxIterations < 0 {
		return errors.NewValidationError("max_iterations", "must be non-negative", c.maxIterations)
	}
	return nil
}

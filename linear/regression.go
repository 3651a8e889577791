// Package linear は勾配降下法で学習する線形回帰モデルを提供します。
package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numlearn/core/model"
	"github.com/YuminosukeSato/numlearn/core/parallel"
	"github.com/YuminosukeSato/numlearn/metrics"
	"github.com/YuminosukeSato/numlearn/objective"
	"github.com/YuminosukeSato/numlearn/optimize"
	"github.com/YuminosukeSato/numlearn/pkg/errors"
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

var _ model.Regressor = (*Regression)(nil)

// Regression は objective.LinearRegression をバッチ勾配降下法で最小化する線形回帰モデル
type Regression struct {
	state  *model.StateManager
	cfg    config
	result optimize.Result
}

// NewRegression は新しい線形回帰モデルを作成する
func NewRegression(opts ...Option) *Regression {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Regression{state: model.NewStateManager(), cfg: cfg}
}

// Fit は X (n×d) と y (n×1) でモデルを学習させる。
// y の値は整数でなければならない。
func (lr *Regression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("Regression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("Regression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("Regression.Fit", "y must be a column vector")
	}

	data := make([]model.Datum, r)
	err := parallel.Run(r, func(start, end int) error {
		for i := start; i < end; i++ {
			label := y.At(i, 0)
			if label != math.Trunc(label) {
				return errors.NewValueError("Regression.Fit", "labels must be integers")
			}
			features := make([]float64, c)
			for j := range features {
				features[j] = X.At(i, j)
			}
			data[i] = model.Datum{Features: features, Label: int(label)}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return lr.FitData(data)
}

// FitData はデータ点の列でモデルを学習させる。全ての点の特徴量数は同じでなければならない。
func (lr *Regression) FitData(data []model.Datum) error {
	if len(data) == 0 {
		return errors.NewModelError("Regression.FitData", "empty data", errors.ErrEmptyData)
	}
	nFeatures := len(data[0].Features)
	if nFeatures == 0 {
		return errors.NewValueError("Regression.FitData", "data points have no features")
	}
	for i, d := range data {
		if len(d.Features) != nFeatures {
			return errors.Wrapf(errors.NewDimensionError("Regression.FitData", nFeatures, len(d.Features), 1), "data point %d", i)
		}
	}

	train := withBias(data, lr.cfg.fitIntercept)
	initial := make([]float64, len(train[0].Features))

	res, err := optimize.GradientDescent(train, initial, objective.LinearRegression{}, lr.cfg.descentOptions()...)
	if err != nil {
		return err
	}
	// 学習率が大きすぎると重みが発散する
	if err := errors.CheckNumericalStability("Regression.FitData", res.Weights, res.Iterations); err != nil {
		return err
	}

	lr.state.Reset()
	lr.result = res
	lr.state.SetDimensions(nFeatures, len(data))
	lr.state.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行い、n×1 行列を返す
func (lr *Regression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("Regression", "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := lr.state.RequireFeatures("Regression.Predict", c); err != nil {
		return nil, err
	}

	coef, intercept := lr.Weights(), lr.Intercept()
	predictions := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			pred := intercept
			for j := 0; j < c; j++ {
				pred += X.At(i, j) * coef[j]
			}
			predictions.Set(i, 0, pred)
		}
	})
	return predictions, nil
}

// PredictFeatures は1サンプル分の予測値を返す
func (lr *Regression) PredictFeatures(features []float64) (float64, error) {
	if len(features) == 0 {
		nFeatures, _ := lr.state.GetDimensions()
		return 0, errors.NewDimensionError("Regression.PredictFeatures", nFeatures, 0, 1)
	}
	pred, err := lr.Predict(mat.NewDense(1, len(features), append([]float64(nil), features...)))
	if err != nil {
		return 0, err
	}
	return pred.At(0, 0), nil
}

// Score はモデルの決定係数（R²）を計算する
func (lr *Regression) Score(X, y mat.Matrix) (float64, error) {
	if err := lr.state.RequireFitted("Regression", "Score"); err != nil {
		return 0, err
	}
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(metrics.ColumnVec(y), metrics.ColumnVec(yPred))
}

// Weights は学習された係数を返す（切片は含まない）
func (lr *Regression) Weights() []float64 {
	if !lr.state.IsFitted() {
		return nil
	}
	w := lr.result.Weights
	if lr.cfg.fitIntercept {
		w = w[1:]
	}
	return append([]float64(nil), w...)
}

// Intercept は学習された切片を返す。WithFitIntercept(false) の場合は 0。
func (lr *Regression) Intercept() float64 {
	if !lr.state.IsFitted() || !lr.cfg.fitIntercept {
		return 0
	}
	return lr.result.Weights[0]
}

// Loss は学習後の訓練損失を返す
func (lr *Regression) Loss() float64 {
	return lr.result.Loss
}

// Iterations は学習に要したイテレーション数を返す
func (lr *Regression) Iterations() int {
	return lr.result.Iterations
}

// Converged は損失の改善量が閾値を下回って停止したかどうかを返す
func (lr *Regression) Converged() bool {
	return lr.result.Converged
}

// IsFitted returns whether the model has been fitted
func (lr *Regression) IsFitted() bool {
	return lr.state.IsFitted()
}

// withBias は必要なら各データ点の先頭に 1.0 を追加したコピーを返す
func withBias(data []model.Datum, fitIntercept bool) []model.Datum {
	if !fitIntercept {
		return data
	}
	out := make([]model.Datum, len(data))
	for i, d := range data {
		features := make([]float64, len(d.Features)+1)
		features[0] = 1.0
		copy(features[1:], d.Features)
		out[i] = model.Datum{Features: features, Label: d.Label}
	}
	return out
}

// Package preprocessing は特徴量のスケーリングを提供します。
// 勾配降下法は特徴量のスケールに敏感なので、学習前の標準化に使います。
package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numlearn/core/model"
	"github.com/YuminosukeSato/numlearn/core/parallel"
	"github.com/YuminosukeSato/numlearn/core/vecmath"
	"github.com/YuminosukeSato/numlearn/pkg/errors"
)

// 標準偏差がこれ未満の列はスケーリングしない
const minScale = 1e-8

var (
	_ model.Transformer = (*StandardScaler)(nil)
	_ model.Transformer = (*MinMaxScaler)(nil)
)

// column は X の j 列目をコピーして返す
func column(X mat.Matrix, j int) []float64 {
	r, _ := X.Dims()
	col := make([]float64, r)
	for i := range col {
		col[i] = X.At(i, j)
	}
	return col
}

// StandardScaler はデータを平均0、標準偏差1に変換する
type StandardScaler struct {
	state *model.StateManager

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差（母標準偏差）
	Scale []float64

	// WithMean は平均を引くかどうか
	WithMean bool

	// WithStd は標準偏差で割るかどうか
	WithStd bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(X)
//	XScaled, err := scaler.Transform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は訓練データから列ごとの平均と標準偏差を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	mean := make([]float64, c)
	scale := make([]float64, c)
	// 列ごとに独立なので並列に計算する
	parallel.Parallelize(c, func(start, end int) {
		for j := start; j < end; j++ {
			col := column(X, j)
			if s.WithMean {
				mean[j] = vecmath.Mean(col)
			}
			scale[j] = 1.0
			if s.WithStd {
				if sd := vecmath.StdDev(col); sd >= minScale {
					scale[j] = sd
				}
			}
		}
	})

	s.Mean, s.Scale = mean, scale
	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

// FitData はデータ点の特徴量で Fit する
func (s *StandardScaler) FitData(data []model.Datum) error {
	X, err := featureMatrix("StandardScaler.FitData", data)
	if err != nil {
		return err
	}
	return s.Fit(X)
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("StandardScaler", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.state.RequireFeatures("StandardScaler.Transform", c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return result, nil
}

// TransformData はラベルを保ったまま特徴量を標準化したコピーを返す
func (s *StandardScaler) TransformData(data []model.Datum) ([]model.Datum, error) {
	if err := s.state.RequireFitted("StandardScaler", "TransformData"); err != nil {
		return nil, err
	}
	out := make([]model.Datum, len(data))
	for i, d := range data {
		if err := s.state.RequireFeatures("StandardScaler.TransformData", len(d.Features)); err != nil {
			return nil, errors.Wrapf(err, "data point %d", i)
		}
		features := make([]float64, len(d.Features))
		for j, v := range d.Features {
			features[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[i] = model.Datum{Features: features, Label: d.Label}
	}
	return out, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("StandardScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.state.RequireFeatures("StandardScaler.InverseTransform", c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return result, nil
}

// IsFitted returns whether the scaler has been fitted
func (s *StandardScaler) IsFitted() bool {
	return s.state.IsFitted()
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	nFeatures, _ := s.state.GetDimensions()
	if !s.state.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, nFeatures)
}

// MinMaxScaler は各特徴量を指定範囲（デフォルト[0,1]）に線形変換する
type MinMaxScaler struct {
	state *model.StateManager

	// FeatureRange は変換後の範囲 [min, max]
	FeatureRange [2]float64

	// DataMin, DataMax は各特徴量の最小値・最大値
	DataMin []float64
	DataMax []float64

	// Scale と Min は X_scaled = X*Scale + Min の係数
	Scale []float64
	Min   []float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		state:        model.NewStateManager(),
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit は訓練データから最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	lo, hi := m.FeatureRange[0], m.FeatureRange[1]
	if lo >= hi {
		return errors.NewValidationError("feature_range", "min must be less than max", m.FeatureRange)
	}

	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)
	m.Min = make([]float64, c)
	parallel.Parallelize(c, func(start, end int) {
		for j := start; j < end; j++ {
			col := column(X, j)
			m.DataMin[j], m.DataMax[j] = floats.Min(col), floats.Max(col)
			span := m.DataMax[j] - m.DataMin[j]
			if span < minScale {
				// 定数列は範囲の下限に写す
				m.Scale[j] = 1.0
				m.Min[j] = lo - m.DataMin[j]
				continue
			}
			m.Scale[j] = (hi - lo) / span
			m.Min[j] = lo - m.DataMin[j]*m.Scale[j]
		}
	})

	m.state.SetDimensions(c, r)
	m.state.SetFitted()
	return nil
}

// FitData はデータ点の特徴量から最小値・最大値を計算する
func (m *MinMaxScaler) FitData(data []model.Datum) error {
	X, err := featureMatrix("MinMaxScaler.FitData", data)
	if err != nil {
		return err
	}
	return m.Fit(X)
}

// TransformData はラベルを保ったまま特徴量をスケーリングしたコピーを返す
func (m *MinMaxScaler) TransformData(data []model.Datum) ([]model.Datum, error) {
	if err := m.state.RequireFitted("MinMaxScaler", "TransformData"); err != nil {
		return nil, err
	}
	out := make([]model.Datum, len(data))
	for i, d := range data {
		if err := m.state.RequireFeatures("MinMaxScaler.TransformData", len(d.Features)); err != nil {
			return nil, errors.Wrapf(err, "data point %d", i)
		}
		features := make([]float64, len(d.Features))
		for j, v := range d.Features {
			features[j] = v*m.Scale[j] + m.Min[j]
		}
		out[i] = model.Datum{Features: features, Label: d.Label}
	}
	return out, nil
}

// Transform は学習済みの統計情報を使ってデータをスケーリングする
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MinMaxScaler", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := m.state.RequireFeatures("MinMaxScaler.Transform", c); err != nil {
		return nil, err
	}
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*m.Scale[j] + m.Min[j]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MinMaxScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := m.state.RequireFeatures("MinMaxScaler.InverseTransform", c); err != nil {
		return nil, err
	}
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - m.Min[j]) / m.Scale[j]
	}, X)
	return result, nil
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	return fmt.Sprintf("MinMaxScaler(feature_range=[%g, %g])", m.FeatureRange[0], m.FeatureRange[1])
}

// featureMatrix はデータ点の特徴量を n×d 行列にまとめる
func featureMatrix(op string, data []model.Datum) (*mat.Dense, error) {
	if len(data) == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	c := len(data[0].Features)
	if c == 0 {
		return nil, errors.NewValueError(op, "data points have no features")
	}
	X := mat.NewDense(len(data), c, nil)
	for i, d := range data {
		if len(d.Features) != c {
			return nil, errors.Wrapf(errors.NewDimensionError(op, c, len(d.Features), 1), "data point %d", i)
		}
		X.SetRow(i, d.Features)
	}
	return X, nil
}

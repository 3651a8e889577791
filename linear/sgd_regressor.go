package linear

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numlearn/core/model"
	"github.com/YuminosukeSato/numlearn/objective"
	"github.com/YuminosukeSato/numlearn/optimize"
	"github.com/YuminosukeSato/numlearn/pkg/errors"
)

var _ model.IncrementalLearner = (*SGDRegressor)(nil)

// SGDRegressor はミニバッチごとに optimize.SGD で重みを更新する線形回帰モデル。
// 学習率は optimize.SGD と同じく呼び出し回数とともに増加する。
type SGDRegressor struct {
	state     *model.StateManager
	cfg       config
	nFeatures int
	session   *optimize.SGD
}

// NewSGDRegressor は nFeatures 個の特徴量を持つ回帰器を重み 0 で作成する。
// WithLearningRate, WithFitIntercept, WithLogger, WithRecorder が参照される。
func NewSGDRegressor(nFeatures int, opts ...Option) *SGDRegressor {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	size := nFeatures
	if cfg.fitIntercept {
		size++
	}
	sessionOpts := []optimize.Option{optimize.WithRecorder(cfg.recorder)}
	if cfg.logger != nil {
		sessionOpts = append(sessionOpts, optimize.WithLogger(cfg.logger))
	}
	return &SGDRegressor{
		state:     model.NewStateManager(),
		cfg:       cfg,
		nFeatures: nFeatures,
		session:   optimize.NewSGD(objective.LinearRegression{}.Gradient, make([]float64, size), cfg.learningRate, sessionOpts...),
	}
}

// PartialFit は1バッチ分だけ重みを更新する
func (s *SGDRegressor) PartialFit(batch []model.Datum) error {
	if len(batch) == 0 {
		return errors.NewModelError("SGDRegressor.PartialFit", "empty batch", errors.ErrEmptyData)
	}
	for i, d := range batch {
		if len(d.Features) != s.nFeatures {
			return errors.Wrapf(errors.NewDimensionError("SGDRegressor.PartialFit", s.nFeatures, len(d.Features), 1), "data point %d", i)
		}
	}
	if err := s.session.TryApply(withBias(batch, s.cfg.fitIntercept)); err != nil {
		return err
	}
	s.state.SetDimensions(s.nFeatures, s.session.Calls())
	s.state.SetFitted()
	return nil
}

// FitStream はチャネルから届くバッチで PartialFit を繰り返す。
// チャネルが閉じられると nil、ctx がキャンセルされると ctx.Err() を返す。
// エラーで戻った後はチャネルを読まないので、送信側は ctx で止めること。
func (s *SGDRegressor) FitStream(ctx context.Context, batches <-chan []model.Datum) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-batches:
			if !ok {
				return nil
			}
			if err := s.PartialFit(batch); err != nil {
				return err
			}
		}
	}
}

// NIterations は処理したバッチ数を返す
func (s *SGDRegressor) NIterations() int {
	return s.session.Calls()
}

// EffectiveRate は次のバッチで使われる学習率を返す
func (s *SGDRegressor) EffectiveRate() float64 {
	return s.session.EffectiveRate()
}

// Weights は現在の係数を返す（切片は含まない）
func (s *SGDRegressor) Weights() []float64 {
	w := s.session.Weights()
	if s.cfg.fitIntercept && len(w) > 0 {
		return w[1:]
	}
	return w
}

// Intercept は現在の切片を返す
func (s *SGDRegressor) Intercept() float64 {
	w := s.session.Weights()
	if !s.cfg.fitIntercept || len(w) == 0 {
		return 0
	}
	return w[0]
}

// Predict は X の各行に対する予測を n×1 行列で返す
func (s *SGDRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("SGDRegressor", "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.state.RequireFeatures("SGDRegressor.Predict", c); err != nil {
		return nil, err
	}
	coef, intercept := s.Weights(), s.Intercept()
	// Close 後は重みが空になる
	if len(coef) != c {
		return nil, errors.ErrSessionClosed
	}
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * coef[j]
		}
		predictions.Set(i, 0, pred)
	}
	return predictions, nil
}

// PredictFeatures は1サンプル分の予測値を返す
func (s *SGDRegressor) PredictFeatures(features []float64) (float64, error) {
	if len(features) == 0 {
		nFeatures, _ := s.state.GetDimensions()
		return 0, errors.NewDimensionError("SGDRegressor.PredictFeatures", nFeatures, 0, 1)
	}
	pred, err := s.Predict(mat.NewDense(1, len(features), append([]float64(nil), features...)))
	if err != nil {
		return 0, err
	}
	return pred.At(0, 0), nil
}

// Close はセッションを終了する。以降の PartialFit はエラーになる。
func (s *SGDRegressor) Close() {
	s.session.Close()
}

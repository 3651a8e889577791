package optimize

import (
	"context"
	"math"
	"sync"

	"github.com/YuminosukeSato/numlearn/core/model"
	"github.com/YuminosukeSato/numlearn/pkg/errors"
	"github.com/YuminosukeSato/numlearn/pkg/log"
	"github.com/YuminosukeSato/numlearn/pkg/telemetry"
)

// SGD は確率的勾配降下法のセッションです。
//
// セッションは呼び出し側の重みスライスを保持し、Apply のたびにその場で更新します。
// 呼び出し側は自分が持つ参照(または Weights のコピー)で結果を確認します。
//
// 実効学習率は rate·sqrt(n) で、n は 1 から始まり Apply のたびに 1 増えます。
// つまり学習率は呼び出し回数とともに増加します(一般的なSGDの減衰スケジュール
// とは逆です)。この挙動は意図的に維持しています。
//
// セッションは単一の所有者が使う前提ですが、内部状態はミューテックスで保護されます。
type SGD struct {
	mu       sync.Mutex
	gradient model.GradientFunc
	weights  []float64
	rate     float64
	n        float64
	calls    int
	closed   bool
	logger   log.Logger
	recorder *telemetry.Recorder
}

// NewSGD は gradient と初期学習率 rate で weights を更新するセッションを作成します。
// オプションのうち WithLogger と WithRecorder のみが参照されます。
func NewSGD(gradient model.GradientFunc, weights []float64, rate float64, opts ...Option) *SGD {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = log.GetLogger()
	}
	return &SGD{
		gradient: gradient,
		weights:  weights,
		rate:     rate,
		n:        1.0,
		logger:   logger.With(log.ComponentKey, "sgd"),
		recorder: cfg.recorder,
	}
}

// Apply は1バッチ分の勾配で重みを更新します。
// Close 後に呼び出すとpanicします。勾配の長さが重みと異なる場合もpanicします。
func (s *SGD) Apply(batch []model.Datum) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		panic(errors.ErrSessionClosed)
	}

	rate := s.rate * math.Sqrt(s.n)
	grad := s.gradient(batch, s.weights)
	if len(grad) != len(s.weights) {
		panic(errors.NewDimensionError("SGD.Apply", len(s.weights), len(grad), 1))
	}
	for i := range s.weights {
		s.weights[i] -= grad[i] * rate
	}
	s.n += 1.0
	s.calls++

	s.recorder.SGDBatch(len(batch), rate)
	if s.logger.Enabled(context.Background(), log.LevelDebug) {
		s.logger.Debug("sgd batch applied",
			log.IterationKey, s.calls,
			log.BatchSizeKey, len(batch),
			log.LearningRateKey, rate,
		)
	}
}

// TryApply は Apply と同じですが、panicをエラーとして返します。
func (s *SGD) TryApply(batch []model.Datum) (err error) {
	defer errors.Recover(&err, "optimize.SGD.Apply")
	s.Apply(batch)
	return nil
}

// Calls は Apply が成功した回数を返します。
func (s *SGD) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// EffectiveRate は次の Apply で使われる学習率を返します。
func (s *SGD) EffectiveRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate * math.Sqrt(s.n)
}

// Weights は現在の重みのコピーを返します。Close 後は空です。
func (s *SGD) Weights() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float64, len(s.weights))
	copy(out, s.weights)
	return out
}

// Close はセッションを終了し、重みスライスへの参照を手放します。
// 複数回呼んでも安全です。
func (s *SGD) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.weights = nil
	}
}

package cluster

import (
	"github.com/YuminosukeSato/numlearn/core/model"
	"github.com/YuminosukeSato/numlearn/pkg/log"
	"github.com/YuminosukeSato/numlearn/pkg/telemetry"
)

// 既定のハイパーパラメータ
const (
	DefaultK             = 3
	DefaultTau           = 1e-3
	DefaultMaxIterations = 100
)

// EmptyClusterPolicy は平均の再計算で点が割り当てられなかったクラスタの扱いです。
type EmptyClusterPolicy int

const (
	// EmptyKeepNaN は空クラスタの平均を NaN にします。NaN の平均には以後どの点も
	// 割り当てられず、移動量も NaN になるため、実行は上限回数まで続きます。
	EmptyKeepNaN EmptyClusterPolicy = iota
	// EmptyFreeze は空クラスタの平均を前回の値のまま保持します。
	EmptyFreeze
)

func (p EmptyClusterPolicy) String() string {
	switch p {
	case EmptyKeepNaN:
		return "nan"
	case EmptyFreeze:
		return "freeze"
	default:
		return "unknown"
	}
}

// Option はKMeansの設定オプション
type Option func(*KMeans)

// WithK はクラスタ数を設定
func WithK(k int) Option {
	return func(km *KMeans) {
		km.k = k
	}
}

// WithTau は収束判定の閾値(平均の移動量の合計)を設定
func WithTau(tau float64) Option {
	return func(km *KMeans) {
		km.tau = tau
	}
}

// WithMaxIterations は最大イテレーション数を設定
func WithMaxIterations(n int) Option {
	return func(km *KMeans) {
		km.maxIter = n
	}
}

// WithSeed は初期化に使う乱数シードを設定。未設定の場合は実行ごとに異なる。
func WithSeed(seed uint64) Option {
	return func(km *KMeans) {
		km.seed = seed
		km.seeded = true
	}
}

// WithInitialMeans は乱数による初期化の代わりに初期平均を指定。
// 指定した場合、クラスタ数は len(means) になる。
func WithInitialMeans(means []model.Point) Option {
	return func(km *KMeans) {
		km.initMeans = append([]model.Point(nil), means...)
	}
}

// WithEmptyClusterPolicy は空クラスタの扱いを設定
func WithEmptyClusterPolicy(p EmptyClusterPolicy) Option {
	return func(km *KMeans) {
		km.emptyPolicy = p
	}
}

// WithLogger はロガーを設定。既定は log.GetLogger()。
func WithLogger(logger log.Logger) Option {
	return func(km *KMeans) {
		km.logger = logger
	}
}

// WithRecorder はPrometheusのコレクタに記録するRecorderを設定
func WithRecorder(r *telemetry.Recorder) Option {
	return func(km *KMeans) {
		km.recorder = r
	}
}

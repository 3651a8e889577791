package linear

import (
	"github.com/YuminosukeSato/numlearn/optimize"
	"github.com/YuminosukeSato/numlearn/pkg/log"
	"github.com/YuminosukeSato/numlearn/pkg/telemetry"
)

type config struct {
	learningRate   float64
	minImprovement float64
	maxIterations  int
	fitIntercept   bool
	logger         log.Logger
	recorder       *telemetry.Recorder
}

func defaultConfig() config {
	return config{
		learningRate:   optimize.DefaultLearningRate,
		minImprovement: optimize.DefaultMinImprovement,
		maxIterations:  optimize.DefaultMaxIterations,
		fitIntercept:   true,
	}
}

// descentOptions は optimize パッケージへ渡すオプションに変換する
func (c config) descentOptions() []optimize.Option {
	opts := []optimize.Option{
		optimize.WithLearningRate(c.learningRate),
		optimize.WithMinImprovement(c.minImprovement),
		optimize.WithMaxIterations(c.maxIterations),
		optimize.WithRecorder(c.recorder),
	}
	if c.logger != nil {
		opts = append(opts, optimize.WithLogger(c.logger))
	}
	return opts
}

// Option is a function that configures Regression and SGDRegressor
type Option func(*config)

// WithFitIntercept sets whether to calculate the intercept.
// 有効な場合、各サンプルの先頭に定数 1.0 の特徴量を追加する。
func WithFitIntercept(fit bool) Option {
	return func(c *config) {
		c.fitIntercept = fit
	}
}

// WithLearningRate sets the learning rate
func WithLearningRate(rate float64) Option {
	return func(c *config) {
		c.learningRate = rate
	}
}

// WithMinImprovement sets the loss delta at which fitting stops
func WithMinImprovement(min float64) Option {
	return func(c *config) {
		c.minImprovement = min
	}
}

// WithMaxIterations sets the maximum number of descent iterations
func WithMaxIterations(n int) Option {
	return func(c *config) {
		c.maxIterations = n
	}
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithRecorder sets the Prometheus recorder
func WithRecorder(r *telemetry.Recorder) Option {
	return func(c *config) {
		c.recorder = r
	}
}

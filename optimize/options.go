package optimize

import (
	"github.com/YuminosukeSato/numlearn/pkg/log"
	"github.com/YuminosukeSato/numlearn/pkg/telemetry"
)

// 既定のハイパーパラメータ
const (
	DefaultLearningRate   = 0.01
	DefaultMinImprovement = 1e-3
	DefaultMaxIterations  = 100
)

type config struct {
	learningRate   float64
	minImprovement float64
	maxIterations  int
	logger         log.Logger
	recorder       *telemetry.Recorder
}

func defaultConfig() config {
	return config{
		learningRate:   DefaultLearningRate,
		minImprovement: DefaultMinImprovement,
		maxIterations:  DefaultMaxIterations,
	}
}

// Option は GradientDescent と SGD の設定を変更します。
type Option func(*config)

// WithLearningRate sets the (base) learning rate.
func WithLearningRate(rate float64) Option {
	return func(c *config) {
		c.learningRate = rate
	}
}

// WithMinImprovement sets the loss delta below which descent stops.
func WithMinImprovement(min float64) Option {
	return func(c *config) {
		c.minImprovement = min
	}
}

// WithMaxIterations sets the iteration cap.
func WithMaxIterations(n int) Option {
	return func(c *config) {
		c.maxIterations = n
	}
}

// WithLogger sets the logger. Defaults to log.GetLogger().
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithRecorder records iterations into Prometheus collectors.
func WithRecorder(r *telemetry.Recorder) Option {
	return func(c *config) {
		c.recorder = r
	}
}

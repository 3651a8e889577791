package main

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/numlearn/cluster"
	"github.com/YuminosukeSato/numlearn/core/model"
	"github.com/YuminosukeSato/numlearn/dataset"
	"github.com/YuminosukeSato/numlearn/objective"
	"github.com/YuminosukeSato/numlearn/optimize"
	"github.com/YuminosukeSato/numlearn/pkg/errors"
	"github.com/YuminosukeSato/numlearn/preprocessing"
)

// Config は実験設定ファイル (--config) の内容です。
// ファイルの値はフラグの既定値になり、明示したフラグが優先されます。
type Config struct {
	LogLevel string        `yaml:"log_level"`
	Metrics  bool          `yaml:"metrics"`
	Descent  DescentConfig `yaml:"descent"`
	Regress  RegressConfig `yaml:"regress"`
	SGD      SGDConfig     `yaml:"sgd"`
	Coin     CoinConfig    `yaml:"coin"`
	KMeans   KMeansConfig  `yaml:"kmeans"`
	Stats    DataConfig    `yaml:"stats"`
}

// DescentConfig は descent サブコマンドの設定です。
type DescentConfig struct {
	DataConfig     `yaml:",inline"`
	Objective      string    `yaml:"objective"`
	Start          []float64 `yaml:"start"`
	LearningRate   float64   `yaml:"learning_rate"`
	MinImprovement float64   `yaml:"min_improvement"`
	MaxIterations  int       `yaml:"max_iterations"`
}

// DataConfig はCSVデータセットの場所です。Header を指定した場合、Data は
// ヘッダー行のないデータ本体として読み込まれます。
type DataConfig struct {
	Data   string `yaml:"data"`
	Header string `yaml:"header"`
}

// RegressConfig は regress サブコマンドの設定です。
type RegressConfig struct {
	DataConfig     `yaml:",inline"`
	LearningRate   float64 `yaml:"learning_rate"`
	MinImprovement float64 `yaml:"min_improvement"`
	MaxIterations  int     `yaml:"max_iterations"`
	FitIntercept   bool    `yaml:"fit_intercept"`
	Scale          bool    `yaml:"scale"`
	Scaler         string  `yaml:"scaler"`
	Threshold      float64 `yaml:"threshold"`
}

// SGDConfig は sgd サブコマンドの設定です。
type SGDConfig struct {
	DataConfig   `yaml:",inline"`
	LearningRate float64 `yaml:"learning_rate"`
	BatchSize    int     `yaml:"batch_size"`
	Epochs       int     `yaml:"epochs"`
	FitIntercept bool    `yaml:"fit_intercept"`
	Scale        bool    `yaml:"scale"`
	Scaler       string  `yaml:"scaler"`
}

// CoinConfig は coin サブコマンドの設定です。
type CoinConfig struct {
	P         float64   `yaml:"p"`
	Flips     int       `yaml:"flips"`
	Seed      uint64    `yaml:"seed"`
	ChunkSize int       `yaml:"chunk_size"`
	Biases    []float64 `yaml:"biases"`
}

// KMeansConfig は kmeans サブコマンドの設定です。
type KMeansConfig struct {
	DataConfig    `yaml:",inline"`
	K             int     `yaml:"k"`
	Tau           float64 `yaml:"tau"`
	MaxIterations int     `yaml:"max_iterations"`
	Seed          uint64  `yaml:"seed"`
	PerCenter     int     `yaml:"per_center"`
	SeedX         uint64  `yaml:"seed_x"`
	SeedY         uint64  `yaml:"seed_y"`
	Empty         string  `yaml:"empty"`
}

// DefaultConfig は設定ファイルがない場合の値を返します。
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Descent: DescentConfig{
			Objective:      "parabola",
			Start:          []float64{3, 4},
			LearningRate:   optimize.DefaultLearningRate,
			MinImprovement: optimize.DefaultMinImprovement,
			MaxIterations:  optimize.DefaultMaxIterations,
		},
		Regress: RegressConfig{
			LearningRate:   optimize.DefaultLearningRate,
			MinImprovement: optimize.DefaultMinImprovement,
			MaxIterations:  optimize.DefaultMaxIterations,
			FitIntercept:   true,
			Scale:          true,
			Scaler:         "standard",
			Threshold:      0.5,
		},
		SGD: SGDConfig{
			LearningRate: 0.001,
			BatchSize:    10,
			Epochs:       1,
			FitIntercept: true,
			Scale:        true,
			Scaler:       "standard",
		},
		Coin: CoinConfig{
			P:         0.7743,
			Flips:     200,
			Seed:      42,
			ChunkSize: objective.DefaultChunkSize,
			Biases:    []float64{0.01, 0.2, 0.5, 0.7743, 0.9},
		},
		KMeans: KMeansConfig{
			K:             cluster.DefaultK,
			Tau:           cluster.DefaultTau,
			MaxIterations: cluster.DefaultMaxIterations,
			PerCenter:     dataset.DefaultPerCenter,
			SeedX:         dataset.DefaultSeedX,
			SeedY:         dataset.DefaultSeedY,
			Empty:         cluster.EmptyKeepNaN.String(),
		},
	}
}

// LoadConfig は既定値の上に YAML ファイルの内容を重ねて返します。
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// configPath は引数から --config の値を探します。フラグの既定値を
// 設定ファイルから決めるため、本来の解析より先に呼ばれます。
func configPath(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// floatList はカンマ区切りの数値リストを受け取る flag.Value です。
type floatList struct {
	values *[]float64
}

func (f floatList) String() string {
	if f.values == nil {
		return ""
	}
	parts := make([]string, len(*f.values))
	for i, v := range *f.values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (f floatList) Set(s string) error {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid number %q", part)
		}
		out = append(out, v)
	}
	*f.values = out
	return nil
}

// parseEmptyPolicy は "nan" または "freeze" を EmptyClusterPolicy に変換します。
func parseEmptyPolicy(s string) (cluster.EmptyClusterPolicy, error) {
	switch strings.ToLower(s) {
	case cluster.EmptyKeepNaN.String(), "":
		return cluster.EmptyKeepNaN, nil
	case cluster.EmptyFreeze.String():
		return cluster.EmptyFreeze, nil
	default:
		return cluster.EmptyKeepNaN, errors.NewValidationError("empty", "must be nan or freeze", s)
	}
}

// dataScaler は特徴量のスケーリング方法です。
type dataScaler interface {
	FitData(data []model.Datum) error
	TransformData(data []model.Datum) ([]model.Datum, error)
}

func parseScaler(s string) (dataScaler, error) {
	switch strings.ToLower(s) {
	case "standard", "":
		return preprocessing.NewStandardScalerDefault(), nil
	case "minmax":
		return preprocessing.NewMinMaxScalerDefault(), nil
	default:
		return nil, errors.NewValidationError("scaler", "must be standard or minmax", s)
	}
}

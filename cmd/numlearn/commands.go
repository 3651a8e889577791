package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"sort"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/numlearn/cluster"
	"github.com/YuminosukeSato/numlearn/core/model"
	"github.com/YuminosukeSato/numlearn/core/vecmath"
	"github.com/YuminosukeSato/numlearn/dataset"
	"github.com/YuminosukeSato/numlearn/linear"
	"github.com/YuminosukeSato/numlearn/metrics"
	"github.com/YuminosukeSato/numlearn/objective"
	"github.com/YuminosukeSato/numlearn/optimize"
	"github.com/YuminosukeSato/numlearn/pkg/errors"
	"github.com/YuminosukeSato/numlearn/pkg/log"
)

func dataFlags(fs *flag.FlagSet, dc *DataConfig) {
	fs.StringVar(&dc.Data, "data", dc.Data, "CSV dataset with a 'label' column")
	fs.StringVar(&dc.Header, "header", dc.Header, "separate header file; -data then has no header line")
}

// loadTable は DataConfig に従ってデータセットを読み込みます。
func loadTable(dc DataConfig) (*dataset.Table, error) {
	if dc.Data == "" {
		return nil, errors.NewValidationError("data", "a dataset path is required", dc.Data)
	}
	var (
		table *dataset.Table
		err   error
	)
	if dc.Header != "" {
		table, err = dataset.LoadSplit(dc.Header, dc.Data)
	} else {
		table, err = dataset.LoadFile(dc.Data)
	}
	if err != nil {
		return nil, err
	}
	if len(table.Data) == 0 || len(table.Names) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "%s", dc.Data)
	}
	return table, nil
}

// scaleTable は kind ("standard" / "minmax") で特徴量をスケーリングしたテーブルを返します。
func scaleTable(table *dataset.Table, kind string) (*dataset.Table, error) {
	scaler, err := parseScaler(kind)
	if err != nil {
		return nil, err
	}
	if err := scaler.FitData(table.Data); err != nil {
		return nil, err
	}
	data, err := scaler.TransformData(table.Data)
	if err != nil {
		return nil, err
	}
	return &dataset.Table{Names: table.Names, Data: data}, nil
}

func labels(data []model.Datum) []int {
	out := make([]int, len(data))
	for i, d := range data {
		out[i] = d.Label
	}
	return out
}

// descent

func descentFlags(fs *flag.FlagSet, cfg *Config) {
	c := &cfg.Descent
	fs.StringVar(&c.Objective, "objective", c.Objective, "objective to minimise: parabola or linear")
	fs.Var(floatList{&c.Start}, "start", "comma-separated initial weights")
	fs.Float64Var(&c.LearningRate, "learning-rate", c.LearningRate, "learning rate")
	fs.Float64Var(&c.MinImprovement, "min-improvement", c.MinImprovement, "stop when the loss changes by less than this")
	fs.IntVar(&c.MaxIterations, "max-iterations", c.MaxIterations, "iteration cap")
	dataFlags(fs, &c.DataConfig)
}

func runDescent(e *env) error {
	c := e.cfg.Descent

	var (
		obj     model.Objective
		data    []model.Datum
		initial = c.Start
	)
	switch c.Objective {
	case "parabola":
		obj = objective.Parabola{}
		if len(initial) != 2 {
			return errors.NewValidationError("start", "parabola needs exactly two initial weights", c.Start)
		}
	case "linear":
		table, err := loadTable(c.DataConfig)
		if err != nil {
			return err
		}
		obj, data = objective.LinearRegression{}, table.Data
		if len(initial) != len(table.Names) {
			e.logger.Debug("start weights do not match the features, using zeros",
				log.FeaturesKey, len(table.Names))
			initial = make([]float64, len(table.Names))
		}
	default:
		return errors.NewValidationError("objective", "must be parabola or linear", c.Objective)
	}

	res, err := optimize.GradientDescent(data, initial, obj,
		optimize.WithLearningRate(c.LearningRate),
		optimize.WithMinImprovement(c.MinImprovement),
		optimize.WithMaxIterations(c.MaxIterations),
		optimize.WithRecorder(e.recorder),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "objective:  %s\n", model.NameOf(obj))
	fmt.Fprintf(e.out, "weights:    %v\n", res.Weights)
	fmt.Fprintf(e.out, "loss:       %g\n", res.Loss)
	fmt.Fprintf(e.out, "loss delta: %g\n", res.LossDelta)
	fmt.Fprintf(e.out, "iterations: %d\n", res.Iterations)
	fmt.Fprintf(e.out, "converged:  %t\n", res.Converged)
	return nil
}

// regress

func regressFlags(fs *flag.FlagSet, cfg *Config) {
	c := &cfg.Regress
	dataFlags(fs, &c.DataConfig)
	fs.Float64Var(&c.LearningRate, "learning-rate", c.LearningRate, "learning rate")
	fs.Float64Var(&c.MinImprovement, "min-improvement", c.MinImprovement, "stop when the loss changes by less than this")
	fs.IntVar(&c.MaxIterations, "max-iterations", c.MaxIterations, "iteration cap")
	fs.BoolVar(&c.FitIntercept, "fit-intercept", c.FitIntercept, "add a constant bias feature")
	fs.BoolVar(&c.Scale, "scale", c.Scale, "scale features before fitting")
	fs.StringVar(&c.Scaler, "scaler", c.Scaler, "feature scaling when -scale is set: standard or minmax")
	fs.Float64Var(&c.Threshold, "threshold", c.Threshold, "prediction threshold for the 0/1 accuracy")
}

func runRegress(e *env) error {
	c := e.cfg.Regress
	table, err := loadTable(c.DataConfig)
	if err != nil {
		return err
	}
	if c.Scale {
		if table, err = scaleTable(table, c.Scaler); err != nil {
			return err
		}
	}

	reg := linear.NewRegression(
		linear.WithLearningRate(c.LearningRate),
		linear.WithMinImprovement(c.MinImprovement),
		linear.WithMaxIterations(c.MaxIterations),
		linear.WithFitIntercept(c.FitIntercept),
		linear.WithRecorder(e.recorder),
	)
	if err := reg.FitData(table.Data); err != nil {
		return err
	}

	X, y := table.Matrix()
	pred, err := reg.Predict(X)
	if err != nil {
		return err
	}
	yPred := metrics.ColumnVec(pred)

	fmt.Fprintf(e.out, "samples:    %d\n", len(table.Data))
	fmt.Fprintf(e.out, "iterations: %d\n", reg.Iterations())
	fmt.Fprintf(e.out, "converged:  %t\n", reg.Converged())
	fmt.Fprintf(e.out, "loss:       %g\n", reg.Loss())
	if mse, err := metrics.MSE(y, yPred); err == nil {
		fmt.Fprintf(e.out, "mse:        %g\n", mse)
	}
	if rmse, err := metrics.RMSE(y, yPred); err == nil {
		fmt.Fprintf(e.out, "rmse:       %g\n", rmse)
	}
	if mae, err := metrics.MAE(y, yPred); err == nil {
		fmt.Fprintf(e.out, "mae:        %g\n", mae)
	}
	// y の分散が0のとき r2 と explained variance は出力しない
	if r2, err := metrics.R2Score(y, yPred); err == nil {
		fmt.Fprintf(e.out, "r2:         %g\n", r2)
		e.logger.Info("regression fitted", log.R2ScoreKey, r2, log.SamplesKey, len(table.Data))
	}
	if ev, err := metrics.ExplainedVarianceScore(y, yPred); err == nil {
		fmt.Fprintf(e.out, "explained:  %g\n", ev)
	}
	acc, err := metrics.Accuracy(labels(table.Data), metrics.Threshold(yPred.RawVector().Data, c.Threshold))
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "accuracy:   %g (threshold %g)\n", acc, c.Threshold)

	fmt.Fprintln(e.out)
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	if c.FitIntercept {
		fmt.Fprintf(tw, "intercept\t%g\n", reg.Intercept())
	}
	for i, w := range reg.Weights() {
		fmt.Fprintf(tw, "%s\t%g\n", table.Names[i], w)
	}
	return tw.Flush()
}

// sgd

func sgdFlags(fs *flag.FlagSet, cfg *Config) {
	c := &cfg.SGD
	dataFlags(fs, &c.DataConfig)
	fs.Float64Var(&c.LearningRate, "learning-rate", c.LearningRate, "base learning rate; the effective rate is rate*sqrt(n)")
	fs.IntVar(&c.BatchSize, "batch-size", c.BatchSize, "samples per batch")
	fs.IntVar(&c.Epochs, "epochs", c.Epochs, "passes over the dataset")
	fs.BoolVar(&c.FitIntercept, "fit-intercept", c.FitIntercept, "add a constant bias feature")
	fs.BoolVar(&c.Scale, "scale", c.Scale, "scale features before training")
	fs.StringVar(&c.Scaler, "scaler", c.Scaler, "feature scaling when -scale is set: standard or minmax")
}

func runSGD(e *env) error {
	c := e.cfg.SGD
	if c.BatchSize <= 0 {
		return errors.NewValidationError("batch_size", "must be positive", c.BatchSize)
	}
	if c.Epochs <= 0 {
		return errors.NewValidationError("epochs", "must be positive", c.Epochs)
	}
	table, err := loadTable(c.DataConfig)
	if err != nil {
		return err
	}
	if c.Scale {
		if table, err = scaleTable(table, c.Scaler); err != nil {
			return err
		}
	}

	reg := linear.NewSGDRegressor(len(table.Names),
		linear.WithLearningRate(c.LearningRate),
		linear.WithFitIntercept(c.FitIntercept),
		linear.WithRecorder(e.recorder),
	)
	defer reg.Close()

	for epoch := 0; epoch < c.Epochs; epoch++ {
		if err := fitEpoch(e.ctx, reg, table.Data, c.BatchSize); err != nil {
			return errors.Wrapf(err, "epoch %d", epoch)
		}
	}

	X, y := table.Matrix()
	pred, err := reg.Predict(X)
	if err != nil {
		return err
	}
	mse, err := metrics.MSEMatrix(y, pred)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "batches:        %d\n", reg.NIterations())
	fmt.Fprintf(e.out, "next rate:      %g\n", reg.EffectiveRate())
	fmt.Fprintf(e.out, "mse:            %g\n", mse)
	if c.FitIntercept {
		fmt.Fprintf(e.out, "intercept:      %g\n", reg.Intercept())
	}
	fmt.Fprintf(e.out, "weights:        %v\n", reg.Weights())
	return nil
}

// fitEpoch は data を1周分ストリームで学習させる。
// 途中で失敗しても送信側のゴルーチンは cancel で終了する。
func fitEpoch(ctx context.Context, reg *linear.SGDRegressor, data []model.Datum, size int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	return reg.FitStream(ctx, dataset.Batches(ctx, data, size))
}

// coin

func coinFlags(fs *flag.FlagSet, cfg *Config) {
	c := &cfg.Coin
	fs.Float64Var(&c.P, "p", c.P, "probability of heads")
	fs.IntVar(&c.Flips, "flips", c.Flips, "number of flips")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "random seed")
	fs.IntVar(&c.ChunkSize, "chunk-size", c.ChunkSize, "flips per likelihood product")
	fs.Var(floatList{&c.Biases}, "biases", "comma-separated candidate biases to evaluate")
}

func runCoin(e *env) error {
	c := e.cfg.Coin
	if c.P < 0 || c.P > 1 || math.IsNaN(c.P) {
		return errors.NewValidationError("p", "must be in [0, 1]", c.P)
	}
	if len(c.Biases) == 0 {
		return errors.NewValidationError("biases", "at least one bias is required", c.Biases)
	}

	data := dataset.CoinFlips(c.P, c.Flips, c.Seed)
	heads := 0
	for _, d := range data {
		heads += d.Label
	}
	obj := objective.Binomial{ChunkSize: c.ChunkSize}

	fmt.Fprintf(e.out, "flips: %d, heads: %d\n\n", len(data), heads)
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "bias\tloss")
	best, bestLoss := math.NaN(), math.Inf(1)
	for _, b := range c.Biases {
		loss := obj.Loss(data, []float64{b})
		fmt.Fprintf(tw, "%g\t%g\n", b, loss)
		if loss < bestLoss {
			best, bestLoss = b, loss
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if math.IsNaN(best) {
		fmt.Fprintln(e.out, "\nno candidate bias has a finite loss")
		return nil
	}
	fmt.Fprintf(e.out, "\nbest bias: %g (loss %g)\n", best, bestLoss)
	return nil
}

// kmeans

func kmeansFlags(fs *flag.FlagSet, cfg *Config) {
	c := &cfg.KMeans
	dataFlags(fs, &c.DataConfig)
	fs.IntVar(&c.K, "k", c.K, "number of clusters")
	fs.Float64Var(&c.Tau, "tau", c.Tau, "stop when the summed mean movement is below this")
	fs.IntVar(&c.MaxIterations, "max-iterations", c.MaxIterations, "iteration cap")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "initialization seed; 0 draws a fresh seed")
	fs.IntVar(&c.PerCenter, "per-center", c.PerCenter, "generated points per blob center when -data is empty")
	fs.Uint64Var(&c.SeedX, "seed-x", c.SeedX, "seed of the generated x coordinates")
	fs.Uint64Var(&c.SeedY, "seed-y", c.SeedY, "seed of the generated y coordinates")
	fs.StringVar(&c.Empty, "empty", c.Empty, "empty cluster policy: nan or freeze")
}

func runKMeans(e *env) error {
	c := e.cfg.KMeans
	policy, err := parseEmptyPolicy(c.Empty)
	if err != nil {
		return err
	}

	var points []model.Point
	if c.Data != "" {
		table, err := loadTable(c.DataConfig)
		if err != nil {
			return err
		}
		if len(table.Names) < 2 {
			return errors.NewDimensionError("kmeans", 2, len(table.Names), 1)
		}
		points = make([]model.Point, len(table.Data))
		for i, d := range table.Data {
			points[i] = model.Point{d.Features[0], d.Features[1]}
		}
	} else {
		points = dataset.Blobs(dataset.DefaultCenters, c.PerCenter, c.SeedX, c.SeedY)
	}

	opts := []cluster.Option{
		cluster.WithK(c.K),
		cluster.WithTau(c.Tau),
		cluster.WithMaxIterations(c.MaxIterations),
		cluster.WithEmptyClusterPolicy(policy),
		cluster.WithRecorder(e.recorder),
	}
	if c.Seed != 0 {
		opts = append(opts, cluster.WithSeed(c.Seed))
	}
	km := cluster.NewKMeans(opts...)
	res, err := km.Fit(points)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "points:     %d\n", len(points))
	fmt.Fprintf(e.out, "state:      %s\n", res.State)
	fmt.Fprintf(e.out, "iterations: %d\n", res.Iterations())
	if n := len(res.Movements); n > 0 {
		fmt.Fprintf(e.out, "movement:   %g\n", res.Movements[n-1])
	}
	fmt.Fprintf(e.out, "inertia:    %g\n\n", km.Inertia())

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "cluster\tx\ty\tpoints")
	for i, cl := range res.Clusters {
		fmt.Fprintf(tw, "%d\t%.4f\t%.4f\t%d\n", i, cl.Mean.X(), cl.Mean.Y(), len(cl.Points))
	}
	return tw.Flush()
}

// stats

func statsFlags(fs *flag.FlagSet, cfg *Config) {
	dataFlags(fs, &cfg.Stats)
}

func runStats(e *env) error {
	table, err := loadTable(e.cfg.Stats)
	if err != nil {
		return err
	}
	X, _ := table.Matrix()

	fmt.Fprintf(e.out, "samples: %d, features: %d\n\n", len(table.Data), len(table.Names))
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "feature\tmean\tstd\tmin\tmax\tnorm")
	col := make([]float64, len(table.Data))
	for j, name := range table.Names {
		mat.Col(col, j, X)
		fmt.Fprintf(tw, "%s\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n", name,
			vecmath.Mean(col), vecmath.StdDev(col), floats.Min(col), floats.Max(col), vecmath.Norm(col))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	counts := make(map[int]int)
	for _, d := range table.Data {
		counts[d.Label]++
	}
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	fmt.Fprintln(e.out)
	for _, k := range keys {
		fmt.Fprintf(e.out, "label %d: %d\n", k, counts[k])
	}
	return nil
}

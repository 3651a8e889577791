// Package cluster は2次元の点群に対するk-meansクラスタリングを提供します。
//
// 割り当てには二乗ユークリッド距離、収束判定には平均の移動量(L1距離の
// クラスタ合計)を使います。2つの距離は意図的に異なります。
package cluster

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/numlearn/core/model"
	"github.com/YuminosukeSato/numlearn/core/vecmath"
	"github.com/YuminosukeSato/numlearn/pkg/errors"
	"github.com/YuminosukeSato/numlearn/pkg/log"
	"github.com/YuminosukeSato/numlearn/pkg/telemetry"
)

// State はk-meansの実行状態です。
type State int

const (
	Initializing State = iota
	Iterating
	Converged
	MaxIterationsReached
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Iterating:
		return "iterating"
	case Converged:
		return "converged"
	case MaxIterationsReached:
		return "max_iterations_reached"
	default:
		return "unknown"
	}
}

// Cluster はクラスタの平均と、最後のイテレーションで割り当てられた点です。
type Cluster struct {
	Mean   model.Point
	Points []model.Point
}

// Result はk-meansの実行結果です。
type Result struct {
	Clusters []Cluster
	// Movements はイテレーションごとの平均の移動量です。
	Movements []float64
	State     State
}

// Iterations は実行したイテレーション数です。
func (r *Result) Iterations() int {
	return len(r.Movements)
}

// Counts はクラスタごとの点の数です。
func (r *Result) Counts() []int {
	counts := make([]int, len(r.Clusters))
	for i, c := range r.Clusters {
		counts[i] = len(c.Points)
	}
	return counts
}

// KMeans はk-meansクラスタリングの推定器です。
type KMeans struct {
	state *model.StateManager

	// ハイパーパラメータ
	k           int
	tau         float64
	maxIter     int
	seed        uint64
	seeded      bool
	initMeans   []model.Point
	emptyPolicy EmptyClusterPolicy

	logger   log.Logger
	recorder *telemetry.Recorder

	// 学習結果
	mu      sync.RWMutex
	means   []model.Point
	labels  []int
	inertia float64
}

// NewKMeans は新しいKMeansを作成
func NewKMeans(options ...Option) *KMeans {
	km := &KMeans{
		state:   model.NewStateManager(),
		k:       DefaultK,
		tau:     DefaultTau,
		maxIter: DefaultMaxIterations,
	}
	for _, opt := range options {
		opt(km)
	}
	if km.initMeans != nil {
		km.k = len(km.initMeans)
	}
	return km
}

// Fit は点群をk個のクラスタに分割します。
// 上限回数に達した場合は State が MaxIterationsReached の結果を返し、
// ConvergenceWarning を errors.Warn で通知します(エラーではありません)。
func (km *KMeans) Fit(points []model.Point) (*Result, error) {
	if err := km.validate(len(points)); err != nil {
		return nil, err
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	logger := km.logger
	if logger == nil {
		logger = log.GetLogger()
	}
	logger = logger.With(
		log.ComponentKey, "cluster",
		log.ModelNameKey, "KMeans",
		log.EstimatorIDKey, uuid.NewString(),
	)
	debug := logger.Enabled(context.Background(), log.LevelDebug)
	start := time.Now()

	res := &Result{State: Initializing}
	means := km.initialize(points)

	res.State = Iterating
	assignment := make([]int, len(points))
	for iter := 1; iter <= km.maxIter; iter++ {
		assign(points, means, assignment)
		newMeans := km.recomputeMeans(points, means, assignment, iter)

		movement := 0.0
		for c := range means {
			movement += vecmath.ManhattanDistance(means[c][:], newMeans[c][:])
		}
		means = newMeans
		res.Movements = append(res.Movements, movement)
		km.recorder.KMeansIteration(movement)

		if debug {
			logger.Debug("kmeans iteration",
				log.IterationKey, iter,
				log.MovementKey, movement,
			)
		}
		if movement < km.tau {
			res.State = Converged
			break
		}
	}
	if res.State != Converged {
		res.State = MaxIterationsReached
		errors.Warn(errors.NewConvergenceWarning("KMeans", res.Iterations(),
			"mean movement still above tau"))
	}

	res.Clusters = make([]Cluster, len(means))
	for c := range means {
		res.Clusters[c].Mean = means[c]
	}
	inertia := 0.0
	for i, p := range points {
		c := assignment[i]
		res.Clusters[c].Points = append(res.Clusters[c].Points, p)
		inertia += vecmath.SquaredDistance(p[:], means[c][:])
	}

	km.means = means
	km.labels = assignment
	km.inertia = inertia
	km.state.SetDimensions(2, len(points))
	km.state.SetFitted()

	km.recorder.KMeansFinished(res.Iterations(), res.State.String())
	logger.Info("kmeans finished",
		log.OperationKey, log.OperationCluster,
		log.ClustersKey, len(means),
		log.SamplesKey, len(points),
		log.IterationKey, res.Iterations(),
		log.StateKey, res.State.String(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (km *KMeans) validate(n int) error {
	if km.k <= 0 {
		return errors.NewValidationError("k", "must be positive", km.k)
	}
	if n == 0 {
		return errors.NewValidationError("points", "must not be empty", n)
	}
	if km.k > n {
		return errors.NewValidationError("k", "must not exceed the number of points", km.k)
	}
	if km.tau < 0 || math.IsNaN(km.tau) {
		return errors.NewValidationError("tau", "must be non-negative", km.tau)
	}
	if km.maxIter <= 0 {
		return errors.NewValidationError("max_iterations", "must be positive", km.maxIter)
	}
	return nil
}

// initialize は各座標の値の集合から独立に(復元抽出で)サンプリングしてk個の平均を作る。
// 同じクラスタの2つの成分が同じ点から来るとは限らない。
func (km *KMeans) initialize(points []model.Point) []model.Point {
	if km.initMeans != nil {
		return append([]model.Point(nil), km.initMeans...)
	}
	var rng *rand.Rand
	if km.seeded {
		rng = rand.New(rand.NewPCG(km.seed, km.seed))
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	means := make([]model.Point, km.k)
	for c := range means {
		means[c] = model.Point{
			points[rng.IntN(len(points))][0],
			points[rng.IntN(len(points))][1],
		}
	}
	return means
}

// assign は各点を二乗距離が最小の平均に割り当てる。同距離なら先のクラスタ。
// NaN の平均にはどの点も割り当てられない。
func assign(points []model.Point, means []model.Point, assignment []int) {
	for i, p := range points {
		best := math.Inf(1)
		bestIdx := 0
		for c, m := range means {
			if d := vecmath.SquaredDistance(p[:], m[:]); d < best {
				best = d
				bestIdx = c
			}
		}
		assignment[i] = bestIdx
	}
}

func (km *KMeans) recomputeMeans(points []model.Point, old []model.Point, assignment []int, iter int) []model.Point {
	sums := make([]model.Point, len(old))
	counts := make([]int, len(old))
	for i, p := range points {
		c := assignment[i]
		sums[c][0] += p[0]
		sums[c][1] += p[1]
		counts[c]++
	}

	means := make([]model.Point, len(old))
	for c := range means {
		if counts[c] == 0 {
			if km.emptyPolicy == EmptyFreeze {
				means[c] = old[c]
			} else {
				means[c] = model.Point{math.NaN(), math.NaN()}
			}
			errors.Warn(errors.NewEmptyClusterWarning(c, iter, km.emptyPolicy.String()))
			continue
		}
		n := float64(counts[c])
		means[c] = model.Point{sums[c][0] / n, sums[c][1] / n}
	}
	return means
}

// Predict は学習済みの平均のうち最も近いクラスタの番号を返します。
func (km *KMeans) Predict(p model.Point) (int, error) {
	km.mu.RLock()
	defer km.mu.RUnlock()
	if err := km.state.RequireFitted("KMeans", "Predict"); err != nil {
		return 0, err
	}
	out := make([]int, 1)
	assign([]model.Point{p}, km.means, out)
	return out[0], nil
}

// Means は学習済みの平均のコピーを返します。
func (km *KMeans) Means() []model.Point {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return append([]model.Point(nil), km.means...)
}

// Labels は学習データの各点が属するクラスタ番号を返します。
func (km *KMeans) Labels() []int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return append([]int(nil), km.labels...)
}

// Inertia は各点と所属クラスタの平均との二乗距離の合計です。
func (km *KMeans) Inertia() float64 {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.inertia
}

// IsFitted はモデルが学習済みかどうかを返す
func (km *KMeans) IsFitted() bool {
	return km.state.IsFitted()
}

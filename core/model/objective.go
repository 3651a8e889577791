package model

// LossFunc はデータと重みから損失(小さいほど良い)を計算する関数です。
type LossFunc func(data []Datum, weights []float64) float64

// GradientFunc はデータと重みから損失の勾配を計算する関数です。
// 戻り値の長さは weights と同じでなければなりません。
type GradientFunc func(data []Datum, weights []float64) []float64

// LossOnly は損失だけを評価できるモデルです。
// 勾配を持たないモデル(二項分布モデルなど)はこれだけを実装します。
type LossOnly interface {
	Loss(data []Datum, weights []float64) float64
}

// Objective は勾配降下法で最適化できる目的関数です。
type Objective interface {
	LossOnly
	Gradient(data []Datum, weights []float64) []float64
}

// Named はログ出力用の名前を持つモデルです。
type Named interface {
	Name() string
}

// Funcs は関数の組を Objective として扱うアダプタです。
//
//	obj := model.Funcs{
//	    Label:      "quadratic",
//	    LossFn:     func(_ []model.Datum, w []float64) float64 { return w[0] * w[0] },
//	    GradientFn: func(_ []model.Datum, w []float64) []float64 { return []float64{2 * w[0]} },
//	}
type Funcs struct {
	Label      string
	LossFn     LossFunc
	GradientFn GradientFunc
}

// Loss implements Objective.
func (f Funcs) Loss(data []Datum, weights []float64) float64 {
	return f.LossFn(data, weights)
}

// Gradient implements Objective.
func (f Funcs) Gradient(data []Datum, weights []float64) []float64 {
	return f.GradientFn(data, weights)
}

// Name implements Named.
func (f Funcs) Name() string {
	if f.Label == "" {
		return "Funcs"
	}
	return f.Label
}

// NameOf はモデルの名前を返します。Named を実装していなければ "unnamed" です。
func NameOf(v any) string {
	if n, ok := v.(Named); ok {
		return n.Name()
	}
	return "unnamed"
}

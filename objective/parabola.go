// Package objective は勾配降下法で最適化する目的関数モデルを提供します。
//
// 各モデルは model.Objective (損失と勾配) または model.LossOnly (損失のみ)
// を実装し、データセットと重みベクトルを受け取る同じシグネチャを持ちます。
package objective

import "github.com/YuminosukeSato/numlearn/core/model"

// Parabola はデータを使わない2次元の放物面 ½((w0−1)² + (w1−2)²) です。
// 最小値は w = (1, 2) で 0 になります。重みは2要素を前提とします。
type Parabola struct{}

// Name implements model.Named.
func (Parabola) Name() string { return "Parabola" }

// Loss implements model.Objective. data は参照しません。
func (Parabola) Loss(_ []model.Datum, w []float64) float64 {
	d0 := w[0] - 1
	d1 := w[1] - 2
	return 0.5 * (d0*d0 + d1*d1)
}

// Gradient implements model.Objective. 戻り値は (w0−1, w1−2) です。
func (Parabola) Gradient(_ []model.Datum, w []float64) []float64 {
	return []float64{w[0] - 1, w[1] - 2}
}

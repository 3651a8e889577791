// Package vecmath はベクトル演算の基本関数を提供します。
//
// 全ての関数は純粋関数で、引数のスライスを変更しません。
// 長さの異なるベクトル同士の演算はプログラミングエラーとしてpanicします
// (切り詰めは行いません)。
package vecmath

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Dot は内積 Σ a_i·b_i を返します。len(a) != len(b) の場合はpanicします。
func Dot(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// Norm はユークリッドノルム(L2)を返します。
func Norm(v []float64) float64 {
	return floats.Norm(v, 2)
}

// Mean は算術平均を返します。空のベクトルに対してはNaNを返します。
func Mean(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.Mean(v, nil)
}

// Variance は母分散 (1/n)·Σ(x_i − mean)² を返します。
// Besselの補正は行いません。空のベクトルに対してはNaNを返します。
func Variance(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	_, variance := stat.PopMeanVariance(v, nil)
	return variance
}

// StdDev は母標準偏差 sqrt(Variance(v)) を返します。
func StdDev(v []float64) float64 {
	return math.Sqrt(Variance(v))
}

// SquaredDistance はユークリッド距離の二乗を返します。
func SquaredDistance(a, b []float64) float64 {
	mustSameLength(a, b)
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// ManhattanDistance はL1距離 Σ|a_i − b_i| を返します。
func ManhattanDistance(a, b []float64) float64 {
	mustSameLength(a, b)
	return floats.Distance(a, b, 1)
}

func mustSameLength(a, b []float64) {
	if len(a) != len(b) {
		panic("vecmath: slice lengths do not match")
	}
}

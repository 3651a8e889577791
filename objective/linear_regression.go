package objective

import (
	"github.com/YuminosukeSato/numlearn/core/model"
	"github.com/YuminosukeSato/numlearn/core/vecmath"
)

// LinearRegression は二乗誤差による線形回帰モデルです。
// 予測値は特徴量と重みの内積で、ラベルを実数として扱います。
type LinearRegression struct{}

// Name implements model.Named.
func (LinearRegression) Name() string { return "LinearRegression" }

// Predict は Dot(d.Features, w) を返します。
func (LinearRegression) Predict(d model.Datum, w []float64) float64 {
	return vecmath.Dot(d.Features, w)
}

// Loss は ½(p − y)² のデータ平均を返します。空データでは 0 です。
func (m LinearRegression) Loss(data []model.Datum, w []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, d := range data {
		r := m.Predict(d, w) - float64(d.Label)
		sum += 0.5 * r * r
	}
	return sum / float64(len(data))
}

// Gradient は Loss の勾配 (1/n)·Σ x_j·(p − y) を返します。
// 長さは常に len(w) で、空データではゼロベクトルです。
func (m LinearRegression) Gradient(data []model.Datum, w []float64) []float64 {
	grad := make([]float64, len(w))
	if len(data) == 0 {
		return grad
	}
	for _, d := range data {
		r := m.Predict(d, w) - float64(d.Label)
		for j, x := range d.Features {
			grad[j] += x * r
		}
	}
	n := float64(len(data))
	for j := range grad {
		grad[j] /= n
	}
	return grad
}

// Package model はデータ型(Datum, Point)と、目的関数・推定器が満たすべき
// インターフェースを定義します。
package model

// Datum は教師あり学習の1サンプルです。
// 生成後は変更しません。消費側は読み取り専用として扱います。
type Datum struct {
	Features []float64
	Label    int
}

// NewDatum は features をコピーしてDatumを作成します。
func NewDatum(features []float64, label int) Datum {
	f := make([]float64, len(features))
	copy(f, features)
	return Datum{Features: f, Label: label}
}

// Point は2次元の座標です。値型なので不変です。
type Point [2]float64

// X はx座標を返します。
func (p Point) X() float64 { return p[0] }

// Y はy座標を返します。
func (p Point) Y() float64 { return p[1] }

package dataset

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/numlearn/core/model"
)

// DefaultCenters はブロブ点群の既定の中心です。
var DefaultCenters = []model.Point{
	{-4, 4},
	{-4, -4},
	{4, 4},
	{4, -4},
	{0, 0},
}

const (
	// DefaultPerCenter は中心ごとの既定の点数です。
	DefaultPerCenter = 100
	// DefaultSeedX, DefaultSeedY はx座標・y座標それぞれの乱数ストリームの既定シードです。
	DefaultSeedX uint64 = 1
	DefaultSeedY uint64 = 2
)

func newSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed)
}

// CoinFlips はバイアス p のコインを n 回投げたデータを返します。
// 各データの特徴量はバイアス項 [1.0] のみで、u < p (u は [0,1) の一様乱数)
// のときラベルが1になります。同じシードからは同じデータが得られます。
func CoinFlips(p float64, n int, seed uint64) []model.Datum {
	if n <= 0 {
		return nil
	}
	rng := rand.New(newSource(seed))
	data := make([]model.Datum, n)
	for i := range data {
		label := 0
		if rng.Float64() < p {
			label = 1
		}
		data[i] = model.Datum{Features: []float64{1.0}, Label: label}
	}
	return data
}

// Blobs は各中心 c の周りに perCenter 個の点を [c−1, c+1] の一様分布で生成します。
// x座標とy座標は独立した2つの乱数ストリーム(seedX, seedY)から引きます。
// 点は centers の順にまとめて並びます。
func Blobs(centers []model.Point, perCenter int, seedX, seedY uint64) []model.Point {
	if perCenter <= 0 {
		return nil
	}
	srcX := newSource(seedX)
	srcY := newSource(seedY)

	points := make([]model.Point, 0, len(centers)*perCenter)
	for _, c := range centers {
		ux := distuv.Uniform{Min: c[0] - 1, Max: c[0] + 1, Src: srcX}
		uy := distuv.Uniform{Min: c[1] - 1, Max: c[1] + 1, Src: srcY}
		for i := 0; i < perCenter; i++ {
			points = append(points, model.Point{ux.Rand(), uy.Rand()})
		}
	}
	return points
}

// DefaultBlobs は既定の5つの中心それぞれに100点、合計500点を返します。
func DefaultBlobs() []model.Point {
	return Blobs(DefaultCenters, DefaultPerCenter, DefaultSeedX, DefaultSeedY)
}

package objective

import (
	"math"

	"github.com/YuminosukeSato/numlearn/core/model"
)

// DefaultChunkSize は尤度の積を取るチャンクの既定サイズです。
const DefaultChunkSize = 100

// Binomial はコイン投げ(ベルヌーイ試行)の負の対数尤度モデルです。
// weights[0] を表が出る確率(バイアス)として扱い、特徴量は参照しません。
//
// 尤度を全データで掛け合わせると0にアンダーフローするため、ChunkSize 件ごとの
// 積を合計してから −ln を取ります:
//
//	loss = −ln( Σ_chunk Π_{d∈chunk} (bias if label == 1 else 1 − bias) )
//
// 合計が0になった場合(例えば bias = 1.0 で裏のデータがある場合)は +Inf です。
// これはエラーではなく正当な値です。空データも合計0なので +Inf になります。
//
// 勾配は定義していないため model.LossOnly のみを実装します。
type Binomial struct {
	// ChunkSize が0以下の場合は DefaultChunkSize を使います。
	ChunkSize int
}

// Name implements model.Named.
func (Binomial) Name() string { return "Binomial" }

// Loss implements model.LossOnly.
func (b Binomial) Loss(data []model.Datum, w []float64) float64 {
	size := b.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	bias := w[0]

	var sum float64
	for start := 0; start < len(data); start += size {
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		product := 1.0
		for _, d := range data[start:end] {
			if d.Label == 1 {
				product *= bias
			} else {
				product *= 1 - bias
			}
		}
		sum += product
	}
	return -math.Log(sum)
}

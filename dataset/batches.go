package dataset

import (
	"context"

	"github.com/YuminosukeSato/numlearn/core/model"
)

// Batches は data を size 件ずつのミニバッチとして順に送るチャネルを返します。
// 最後のバッチは size 未満になることがあります。全て送り終えるか ctx が
// キャンセルされるとチャネルは閉じられます。バッチは data の部分スライスです。
//
// 送信側のゴルーチンは受信されるまでブロックします。途中で読むのをやめる
// 呼び出し側は ctx をキャンセルしてください。
func Batches(ctx context.Context, data []model.Datum, size int) <-chan []model.Datum {
	out := make(chan []model.Datum)
	if size <= 0 {
		size = len(data)
	}

	go func() {
		defer close(out)
		for start := 0; start < len(data); start += size {
			if ctx.Err() != nil {
				return
			}
			end := min(start+size, len(data))
			select {
			case out <- data[start:end]:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

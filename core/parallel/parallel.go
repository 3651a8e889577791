// Package parallel はデータのコピーや列ごとの統計量など、結果が分割方法に
// 依存しない処理をCPUコア数に応じて分割実行します。学習ループ自体は逐次実行です。
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Run divides items into contiguous ranges, one per CPU core at most, and
// runs fn on each range concurrently. The first error returned by any range
// is returned after all ranges finish.
func Run(items int, fn func(start, end int) error) error {
	if items <= 0 {
		return nil
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}
	// ceiling division
	chunkSize := (items + numWorkers - 1) / numWorkers

	var g errgroup.Group
	g.SetLimit(numWorkers)
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		s, e := start, end
		g.Go(func() error {
			return fn(s, e)
		})
	}
	return g.Wait()
}

// Parallelize is Run for functions that cannot fail.
func Parallelize(items int, fn func(start, end int)) {
	_ = Run(items, func(start, end int) error {
		fn(start, end)
		return nil
	})
}

// ParallelizeWithThreshold runs fn(0, items) sequentially when items does
// not exceed threshold, and in parallel otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

package compute

import (
	"runtime"
	"sync"

	"github.com/chewxy/math32"
)

const minChunk = 32

// parallelFor splits [0, n) into contiguous chunks and runs fn on each chunk
// in its own goroutine.
func parallelFor(n, workers int, fn func(start, end int)) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

func sqrt(x float32) float32 { return math32.Sqrt(x) }

// Package parallel provides the row fan-out used by the matrix kernels.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled bool // Whether parallel execution is enabled.
	Workers int  // Number of worker goroutines to use.
	// MinWork is the number of scalar operations below which a loop runs
	// sequentially. Goroutine startup dominates on small matrices.
	MinWork int
}

// DefaultConfig returns defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled: n > 1,
		Workers: n,
		MinWork: 1 << 14,
	}
}

// Default is the configuration used by package matrix.
var Default = DefaultConfig()

// For executes f(i) for i in [0, n). cost is the approximate number of
// scalar operations f performs per index; the loop is split across workers
// only when n*cost reaches cfg.MinWork.
//
// f must only write state owned by index i.
func For(n, cost int, cfg Config, f func(i int)) {
	if n <= 0 {
		return
	}
	if !cfg.Enabled || cfg.Workers < 2 || n < 2 || n*max(cost, 1) < cfg.MinWork {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	workers := min(cfg.Workers, n)
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Result pairs one input with what processing it produced. Script files are
// independent of each other, so results carry per-file errors instead of
// failing the batch.
type Result[T any, R any] struct {
	Input  T
	Output R
	Err    error
}

// ProcessFunc handles a single input.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool fans inputs out over a fixed number of goroutines. The decompilation
// pipeline keeps no state across files, so file-level parallelism needs no
// shared locking.
type Pool[T any, R any] struct {
	workers int
	process ProcessFunc[T, R]
}

// NewPool creates a pool with the given concurrency.
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{workers: workers, process: fn}
}

// Execute runs all inputs through the pool, honoring context cancellation.
// Results are positionally aligned with inputs.
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Result[T, R] {
	results := make([]Result[T, R], len(inputs))
	indexCh := make(chan int, len(inputs))

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case idx, ok := <-indexCh:
					if !ok {
						return
					}
					out, err := p.process(ctx, inputs[idx])
					results[idx] = Result[T, R]{Input: inputs[idx], Output: out, Err: err}
					if err != nil {
						log.Error().Err(err).Int("index", idx).Msg("Task failed")
					}
				}
			}
		}()
	}

	for i := range inputs {
		select {
		case <-ctx.Done():
		case indexCh <- i:
		}
	}
	close(indexCh)

	wg.Wait()
	return results
}

// Package pipeline runs many sources through a processor with a bounded
// worker pool.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"call-insights-go/internal/logger"
	"call-insights-go/internal/types"
)

type Handler interface {
	Process(ctx context.Context, src types.Source) types.Outcome
}

type Runner struct {
	RunID   string
	Workers int
	Handler Handler
	Log     *logger.Logger
}

func NewRunner(runID string, workers int, h Handler, log *logger.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{RunID: runID, Workers: workers, Handler: h, Log: log.Component("pipeline")}
}

// Run processes every source and returns once all workers are done. A
// failing source never stops the run. When ctx is cancelled no further
// sources are dispatched and the remaining ones are reported as failed.
func (r *Runner) Run(ctx context.Context, srcs []types.Source) Summary {
	start := time.Now()
	outcomes := make([]types.Outcome, len(srcs))

	type job struct {
		idx int
		src types.Source
	}
	type result struct {
		idx int
		out types.Outcome
	}

	jobs := make(chan job)
	results := make(chan result, len(srcs))
	dispatched := make([]bool, len(srcs))

	var wg sync.WaitGroup
	for i := 0; i < r.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := range jobs {
				r.Log.WithSource(j.src).WithField("worker", workerID).Debug("processing source")
				results <- result{idx: j.idx, out: r.Handler.Process(ctx, j.src)}
			}
		}(i)
	}

	go func() {
		defer close(jobs)
		for i, src := range srcs {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- job{idx: i, src: src}:
				dispatched[i] = true
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Single reader; no locking needed on the summary.
	var done int
	for res := range results {
		outcomes[res.idx] = res.out
		done++
		if done%25 == 0 {
			r.Log.WithField("done", done).WithField("total", len(srcs)).Info("progress")
		}
	}

	// results is closed only after the dispatcher closed jobs, so reading
	// dispatched here is ordered after every write.
	for i, src := range srcs {
		if !dispatched[i] {
			err := fmt.Errorf("not processed: %w", context.Cause(ctx))
			outcomes[i] = types.Outcome{Source: src, Status: types.StatusFailed, Err: err, Error: err.Error()}
		}
	}

	sum := Summarize(r.RunID, outcomes)
	sum.Duration = time.Since(start)
	r.Log.WithField("run_id", r.RunID).
		WithField("total", sum.Total).
		WithField("succeeded", sum.Counts[types.StatusSuccess]).
		WithField("failed", sum.Failed()).
		WithField("duration_ms", sum.Duration.Milliseconds()).
		Info("run finished")
	return sum
}

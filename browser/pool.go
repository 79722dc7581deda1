package browser

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxWorkers bounds concurrent browser sessions so a single
// machine is not overwhelmed by Chrome instances.
const DefaultMaxWorkers = 3

// DefaultStagger is the delay between consecutive task starts, keeping
// browser startups from spiking resource usage all at once.
const DefaultStagger = 5 * time.Second

// Task is a named unit of browser work. Run returns the extracted
// fields, keyed by column name.
type Task struct {
	Name string
	Run  func(ctx context.Context) (map[string]string, error)
}

// Result pairs a task name with its outcome.
type Result struct {
	Name    string
	Fields  map[string]string
	Err     error
	Elapsed time.Duration
}

// Field returns the named field, or "N/A" when the task failed or did
// not extract it.
func (r Result) Field(name string) string {
	if v, ok := r.Fields[name]; ok && v != "" {
		return v
	}
	return "N/A"
}

// Pool runs browser tasks concurrently with a worker cap and staggered
// starts.
type Pool struct {
	maxWorkers int
	stagger    time.Duration
	logger     *slog.Logger
}

// NewPool creates a pool. Non-positive maxWorkers gets the default cap;
// a negative stagger gets the default delay.
func NewPool(maxWorkers int, stagger time.Duration, logger *slog.Logger) *Pool {
	if maxWorkers <= 0 || maxWorkers > DefaultMaxWorkers {
		maxWorkers = DefaultMaxWorkers
	}
	if stagger < 0 {
		stagger = DefaultStagger
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{maxWorkers: maxWorkers, stagger: stagger, logger: logger}
}

// Run executes all tasks and returns one result per task, in task
// order. Individual task failures do not abort the batch: the failed
// entry carries the error and its fields read as "N/A".
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxWorkers)

	var mu sync.Mutex
	for i, task := range tasks {
		i, task := i, task
		delay := time.Duration(i) * p.stagger

		g.Go(func() error {
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-gctx.Done():
					mu.Lock()
					results[i] = Result{Name: task.Name, Err: gctx.Err()}
					mu.Unlock()
					return nil
				}
			}

			p.logger.Info("starting task", "task", task.Name)
			start := time.Now()
			fields, err := task.Run(gctx)
			elapsed := time.Since(start)
			if err != nil {
				p.logger.Error("task failed", "task", task.Name, "err", err)
			}

			mu.Lock()
			results[i] = Result{Name: task.Name, Fields: fields, Err: err, Elapsed: elapsed}
			mu.Unlock()
			return nil
		})
	}

	// Task errors are captured per result, never returned.
	_ = g.Wait()
	return results
}

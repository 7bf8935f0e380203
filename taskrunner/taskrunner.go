package taskrunner

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Davincible/rx-utils/asyncfn"
)

// Task represents a single asynchronous task.
type Task struct {
	Run  func(ctx context.Context) error
	Name string
}

// Runner is responsible for running tasks concurrently.
type Runner struct {
	limit int
	run   asyncfn.Func[Task, struct{}]
}

// NewRunner creates a Runner that runs at most limit tasks at once.
// A limit below 1 is treated as 1.
func NewRunner(limit int) *Runner {
	if limit < 1 {
		limit = 1
	}

	return &Runner{
		limit: limit,
		run: asyncfn.Limiting(func(ctx context.Context, task Task) (struct{}, error) {
			return struct{}{}, task.Run(ctx)
		}, limit),
	}
}

// RunTasks executes every task and returns the errors of the failed ones,
// each prefixed with the task name. Tasks still waiting for a slot when ctx
// is done report ctx's error.
func (r *Runner) RunTasks(ctx context.Context, tasks []Task) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	wg.Add(len(tasks))

	for _, task := range tasks {
		go func() {
			defer wg.Done()

			if _, err := r.run(ctx, task); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", task.Name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	return errs
}

// RunGroup executes the tasks until the first failure. The first error
// cancels the context passed to the remaining tasks and is returned.
func (r *Runner) RunGroup(ctx context.Context, tasks []Task) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)

	for _, task := range tasks {
		g.Go(func() error {
			if err := task.Run(ctx); err != nil {
				return fmt.Errorf("%s: %w", task.Name, err)
			}
			return nil
		})
	}

	return g.Wait()
}

package renderer

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// TileTask represents a tile rendering task for the worker pool
type TileTask struct {
	Tile       *Tile
	PassNumber int
}

// WorkerPool runs tile tasks with bounded parallelism
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a worker pool with the specified number of workers
// (0 = use CPU count)
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{numWorkers: numWorkers}
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// Run executes work for every task and waits for all of them. The first
// error cancels the context passed to the remaining tasks and is returned.
// A panicking task is reported as an error.
func (wp *WorkerPool) Run(ctx context.Context, tasks []TileTask, work func(context.Context, TileTask) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(wp.numWorkers)

	for _, task := range tasks {
		task := task
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.Errorf("tile %d pass %d panicked: %v", task.Tile.ID, task.PassNumber, r)
				}
			}()
			if err := ctx.Err(); err != nil {
				return err
			}
			return work(ctx, task)
		})
	}

	return g.Wait()
}

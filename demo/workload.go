package demo

import (
	"errors"
	"time"

	"github.com/curtisnewbie/taskq/util/async"
	"github.com/curtisnewbie/taskq/util/errs"
)

// Synthetic workload for the demo app.
type Workload struct {
	Tasks     int           // number of tasks.
	TaskDelay time.Duration // time each task sleeps.
	FailEvery int           // every n-th task fails, 0 means no task fails.
}

type Summary struct {
	Succeeded int
	Failed    int
	Rejected  int
	Took      time.Duration
}

// Submit the tasks to the queue and await all of them.
func (w Workload) Run(q *async.TaskQueue) Summary {
	start := time.Now()
	af := async.NewAwaitFutures[int](q)
	for i := 1; i <= w.Tasks; i++ {
		n := i
		af.SubmitAsync(func() (int, error) {
			if w.TaskDelay > 0 {
				time.Sleep(w.TaskDelay)
			}
			if w.FailEvery > 0 && n%w.FailEvery == 0 {
				return n, errs.NewErrf("demo task %d failed", n)
			}
			return n, nil
		})
	}

	var s Summary
	for _, r := range af.AwaitResultAll() {
		switch {
		case r.Err == nil:
			s.Succeeded++
		case errors.Is(r.Err, errs.ErrQueueFull):
			s.Rejected++
		default:
			s.Failed++
		}
	}
	s.Took = time.Since(start)
	return s
}

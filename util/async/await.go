package async

// Outcome of a settled Future.
type Result[T any] struct {
	Value T
	Err   error
}

// AwaitFutures represent tasks that are submitted to the queue together and whose results are awaited together.
//
// AwaitFutures should only be used once for the same group of tasks, it's not thread-safe.
//
// Use [NewAwaitFutures] to create one.
type AwaitFutures[T any] struct {
	q       *TaskQueue
	futures []Future[T]
}

// Create new AwaitFutures for a group of tasks.
//
// *TaskQueue is optional, provide nil to run each task on its own goroutine.
func NewAwaitFutures[T any](q *TaskQueue) *AwaitFutures[T] {
	return &AwaitFutures[T]{
		q:       q,
		futures: make([]Future[T], 0, 2),
	}
}

// Submit task to AwaitFutures.
func (a *AwaitFutures[T]) SubmitAsync(task func() (T, error)) {
	if a.q != nil {
		a.futures = append(a.futures, Submit(a.q, task))
	} else {
		a.futures = append(a.futures, Run(task))
	}
}

// Await all tasks, Futures are returned in submission order.
func (a *AwaitFutures[T]) Await() []Future[T] {
	for _, f := range a.futures {
		<-f.Done()
	}
	return a.futures
}

// Await all tasks and return the first error found in submission order.
func (a *AwaitFutures[T]) AwaitAnyErr() error {
	for _, f := range a.Await() {
		if _, err := f.Get(); err != nil {
			return err
		}
	}
	return nil
}

// Await all tasks and return their results, or the first error found in submission order.
func (a *AwaitFutures[T]) AwaitResultAnyErr() ([]T, error) {
	fut := a.Await()
	res := make([]T, 0, len(fut))
	for _, f := range fut {
		v, err := f.Get()
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}

// Await all tasks and return every outcome.
func (a *AwaitFutures[T]) AwaitResultAll() []Result[T] {
	fut := a.Await()
	res := make([]Result[T], 0, len(fut))
	for _, f := range fut {
		v, err := f.Get()
		res = append(res, Result[T]{Value: v, Err: err})
	}
	return res
}

// Create func that submits tasks to the given queue.
func NewSubmitAsyncFunc[T any](q *TaskQueue) func(task func() (T, error)) Future[T] {
	return func(task func() (T, error)) Future[T] {
		return Submit(q, task)
	}
}

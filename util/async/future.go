package async

import (
	"runtime/debug"
	"sync"
	"time"

	"github.com/curtisnewbie/taskq/util/errs"
	"github.com/curtisnewbie/taskq/util/utillog"
)

var (
	_ Future[any] = (*future[any])(nil)
	_ Future[any] = (*completedFuture[any])(nil)
)

var (
	// Returned by [Future.TimedGet] when timeout exceeded.
	ErrGetTimeout = errs.ErrFutureGetTimeout
)

// Result of a asynchronous task, similar to Future in Java and Promise in Javascript.
//
// A Future is settled exactly once, with the task's value or the task's error.
type Future[T any] interface {

	// Get result without timeout.
	Get() (T, error)

	// Get result with timeout (in milliseconds), returns ErrGetTimeout if timeout exceeded.
	TimedGet(timeout int) (T, error)

	// Channel that is closed once the Future is settled.
	Done() <-chan struct{}

	// Then callback to be invoked when the Future is completed.
	//
	// If the Future is already completed, the callback is invoked immediately by the caller,
	// otherwise it's invoked by the goroutine that completes the task. Panics in the callback
	// are recovered and logged.
	//
	// Then callback should only be set once for every Future.
	Then(tf func(T, error))

	// Same as Then but only the error is passed to the callback.
	ThenErr(tf func(error))
}

// Outcome of a wrapped task, filled in by the wrapper even if the task never returns.
type taskOutcome struct {
	settle func() // settles the task's Future.
	err    error
}

// Wraps a task; runs the task and fills in the outcome.
//
// The Future is settled separately so that the runner can finish its bookkeeping before
// the result becomes observable.
type taskWrapper func(out *taskOutcome)

// Create Future, once the future is created, it starts running on a new goroutine.
func Run[T any](task func() (T, error)) Future[T] {
	fut, wrp := buildFuture(task)
	go func() {
		var out taskOutcome
		defer func() { out.settle() }() // settled even if the task calls runtime.Goexit.
		wrp(&out)
	}()
	return fut
}

// Create Future, the task is executed by one of the runners of the queue.
//
// Submit never blocks. If the task is nil or rejected by the queue (see [WithMaxPending]),
// the returned Future is already completed with the error.
func Submit[T any](q *TaskQueue, task func() (T, error)) Future[T] {
	if task == nil {
		var t T
		return NewCompletedFuture(t, errs.ErrIllegalArgument.WithInternalMsg("task must not be nil"))
	}
	fut, wrp := buildFuture(task)
	if err := q.enqueue(wrp); err != nil {
		var t T
		return NewCompletedFuture(t, err)
	}
	return fut
}

func NewCompletedFuture[T any](t T, err error) Future[T] {
	return &completedFuture[T]{res: t, err: err}
}

type future[T any] struct {
	res  T
	err  error
	done *SignalOnce

	// syncs between Then() and the task completion; res and err are written before done is notified.
	thenMu sync.Mutex
	then   func(T, error)
}

func (f *future[T]) Then(tf func(T, error)) {
	if tf == nil {
		panic("Future.Then callback cannot be nil")
	}
	safeThen := func(t T, err error) {
		defer recoverPanic()
		tf(t, err)
	}

	f.thenMu.Lock()
	if f.done.Closed() {
		f.thenMu.Unlock()
		safeThen(f.res, f.err)
		return
	}
	f.then = safeThen
	f.thenMu.Unlock()
}

func (f *future[T]) ThenErr(tf func(error)) {
	f.Then(func(t T, err error) { tf(err) })
}

func (f *future[T]) Done() <-chan struct{} {
	return f.done.Done()
}

// Get from Future indefinitively
func (f *future[T]) Get() (T, error) {
	f.done.Wait()
	return f.res, f.err
}

// Get from Future with timeout (in milliseconds)
func (f *future[T]) TimedGet(timeout int) (T, error) {
	if f.done.TimedWait(time.Duration(timeout) * time.Millisecond) {
		var t T
		return t, ErrGetTimeout.WithInternalMsg("waited %vms", timeout)
	}
	return f.res, f.err
}

func (f *future[T]) complete(t T, err error) {
	f.thenMu.Lock()
	f.res = t
	f.err = err
	f.done.Notify()
	then := f.then
	f.thenMu.Unlock()

	if then != nil {
		then(t, err)
	}
}

func buildFuture[T any](task func() (T, error)) (*future[T], taskWrapper) {
	fut := &future[T]{done: NewSignalOnce()}
	wrp := func(out *taskOutcome) {
		var t T
		var err error
		returned := false
		defer func() {
			if v := recover(); v != nil {
				utillog.ErrorLog("Task panic recovered, %v\n%v", v, string(debug.Stack()))
				err = errs.PanicErr(v)
			} else if !returned {
				err = errs.ErrTaskPanic.WithInternalMsg("task exited without returning, e.g., runtime.Goexit")
			}
			res, rerr := t, err
			out.err = rerr
			out.settle = func() { fut.complete(res, rerr) }
		}()
		t, err = task()
		returned = true
	}
	return fut, wrp
}

type completedFuture[T any] struct {
	res T
	err error
}

var closedCh = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

func (f *completedFuture[T]) Get() (T, error) {
	return f.res, f.err
}

func (f *completedFuture[T]) TimedGet(timeout int) (T, error) {
	return f.res, f.err
}

func (f *completedFuture[T]) Done() <-chan struct{} {
	return closedCh
}

func (f *completedFuture[T]) Then(tf func(T, error)) {
	if tf == nil {
		panic("Future.Then callback cannot be nil")
	}
	defer recoverPanic()
	tf(f.res, f.err)
}

func (f *completedFuture[T]) ThenErr(tf func(error)) {
	f.Then(func(t T, err error) { tf(err) })
}

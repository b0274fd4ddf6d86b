package async

import (
	"runtime"
	"time"
)

const (
	defaultQueueName = "default"
)

// Logger used by [TaskQueue], *logrus.Entry and *logrus.Logger both satisfy it.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// Observer of task lifecycle events in a [TaskQueue], e.g., for metrics.
//
// Callbacks are invoked synchronously by submitters and runners, they should return quickly.
type Observer interface {
	TaskSubmitted(queue string)
	TaskRejected(queue string)
	TaskStarted(queue string, waited time.Duration)
	TaskFinished(queue string, took time.Duration, err error)
}

type TaskQueueOption func(o *taskQueueOptions)

type taskQueueOptions struct {
	name       string
	maxPending int
	logger     Logger
	observers  []Observer
}

// Name of the queue, it's included in logs and passed to [Observer].
func WithQueueName(name string) TaskQueueOption {
	return func(o *taskQueueOptions) {
		o.name = name
	}
}

// Cap the number of pending tasks that are waiting for a free runner.
//
// Once the cap is reached, new tasks are rejected, i.e., [Submit] returns a completed Future with [errs.ErrQueueFull].
// By default (n == 0) the pending queue is unbounded. A negative n is an invalid configuration.
func WithMaxPending(n int) TaskQueueOption {
	return func(o *taskQueueOptions) {
		o.maxPending = n
	}
}

func WithLogger(l Logger) TaskQueueOption {
	return func(o *taskQueueOptions) {
		o.logger = l
	}
}

// Add observer of task lifecycle events, may be used multiple times.
func WithObserver(ob Observer) TaskQueueOption {
	return func(o *taskQueueOptions) {
		if ob != nil {
			o.observers = append(o.observers, ob)
		}
	}
}

func MaxProcs() int {
	return runtime.GOMAXPROCS(0)
}

// Return multi * GOMAXPROCS or min whichever is greater.
func CalcPoolSize(multi int, min int) int {
	if min < 1 {
		min = 1
	}
	n := multi * MaxProcs()
	if n < min {
		return min
	}
	return n
}

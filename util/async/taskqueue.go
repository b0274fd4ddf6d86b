package async

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/curtisnewbie/taskq/util/errs"
	"github.com/curtisnewbie/taskq/util/queue"
	"github.com/sirupsen/logrus"
)

// Bounded-concurrency task queue.
//
// Use [NewTaskQueue] to create one, and [Submit] (or [TaskQueue.Run], [TaskQueue.Go]) to submit tasks.
//
// TaskQueue starts exactly N runners (goroutines) on creation. Runners keep fetching and executing tasks
// in submission order, at most N tasks are executed at the same time. Runners live as long as the process,
// a failed or panicking task never stops a runner. A runner whose goroutine is terminated by the task
// (runtime.Goexit) is replaced by a new one.
//
// Internally, TaskQueue maintains two FIFO queues guarded by one mutex: tasks that are waiting for a runner,
// and runners that are parked waiting for a task. At most one of them is non-empty at any time. A submitted
// task is either handed to the oldest parked runner directly or appended to the pending queue; a runner that
// asks for work either takes the oldest pending task or parks itself.
type TaskQueue struct {
	name        string
	concurrency int
	maxPending  int

	mu      sync.Mutex
	pending *queue.Queue[*queuedTask]
	waiting *queue.Queue[chan *queuedTask] // each parked runner owns a channel with capacity of 1.

	running   atomic.Int32
	submitted atomic.Int64
	rejected  atomic.Int64
	started   atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64

	log       Logger
	observers []Observer
}

type queuedTask struct {
	run        taskWrapper
	enqueuedAt time.Time
	notified   chan struct{} // closed once TaskSubmitted is reported, nil without observers.
}

// Snapshot of a TaskQueue.
type Stats struct {
	Name           string `json:"name"`
	Concurrency    int    `json:"concurrency"`
	MaxPending     int    `json:"maxPending"`
	Pending        int    `json:"pending"`
	WaitingRunners int    `json:"waitingRunners"`
	Running        int    `json:"running"`
	Submitted      int64  `json:"submitted"`
	Rejected       int64  `json:"rejected"`
	Started        int64  `json:"started"`
	Succeeded      int64  `json:"succeeded"`
	Failed         int64  `json:"failed"`
}

// Create TaskQueue that runs at most concurrency tasks at the same time.
//
// Returns error matching [errs.ErrInvalidConfiguration] if concurrency is not positive or the options are
// invalid, in which case no runner is started.
func NewTaskQueue(concurrency int, opts ...TaskQueueOption) (*TaskQueue, error) {
	if concurrency < 1 {
		return nil, errs.ErrInvalidConfiguration.WithInternalMsg("concurrency must be positive, got %d", concurrency)
	}

	o := &taskQueueOptions{name: defaultQueueName}
	for _, op := range opts {
		op(o)
	}
	if o.maxPending < 0 {
		return nil, errs.ErrInvalidConfiguration.WithInternalMsg("max pending must not be negative, got %d", o.maxPending)
	}
	if o.logger == nil {
		o.logger = logrus.WithFields(logrus.Fields{"component": "taskqueue", "queue": o.name})
	}

	q := &TaskQueue{
		name:        o.name,
		concurrency: concurrency,
		maxPending:  o.maxPending,
		pending:     queue.New[*queuedTask](),
		waiting:     queue.New[chan *queuedTask](),
		log:         o.logger,
		observers:   o.observers,
	}
	for i := 0; i < concurrency; i++ {
		go q.runner(i)
	}
	q.log.Debugf("TaskQueue '%v' created, concurrency: %d, maxPending: %d", q.name, concurrency, q.maxPending)
	return q, nil
}

func (q *TaskQueue) Name() string {
	return q.name
}

func (q *TaskQueue) Concurrency() int {
	return q.concurrency
}

// Submit task, see [Submit].
func (q *TaskQueue) Run(f func() error) Future[struct{}] {
	if f == nil {
		return NewCompletedFuture(struct{}{}, errs.ErrIllegalArgument.WithInternalMsg("task must not be nil"))
	}
	return Submit(q, func() (struct{}, error) { return struct{}{}, f() })
}

// Submit task and forget about it.
//
// Returns error if the task is nil or rejected.
func (q *TaskQueue) Go(f func()) error {
	if f == nil {
		return errs.ErrIllegalArgument.WithInternalMsg("task must not be nil")
	}
	_, wrp := buildFuture(func() (struct{}, error) {
		f()
		return struct{}{}, nil
	})
	return q.enqueue(wrp)
}

func (q *TaskQueue) Stats() Stats {
	q.mu.Lock()
	pending := q.pending.Len()
	waiting := q.waiting.Len()
	q.mu.Unlock()

	return Stats{
		Name:           q.name,
		Concurrency:    q.concurrency,
		MaxPending:     q.maxPending,
		Pending:        pending,
		WaitingRunners: waiting,
		Running:        int(q.running.Load()),
		Submitted:      q.submitted.Load(),
		Rejected:       q.rejected.Load(),
		Started:        q.started.Load(),
		Succeeded:      q.succeeded.Load(),
		Failed:         q.failed.Load(),
	}
}

// Hand the task to the oldest parked runner, or append it to the pending queue.
func (q *TaskQueue) enqueue(wrp taskWrapper) error {
	qt := &queuedTask{run: wrp, enqueuedAt: time.Now()}
	if len(q.observers) > 0 {
		qt.notified = make(chan struct{})
	}

	q.mu.Lock()
	runner, parked := q.waiting.PopFront()
	if !parked {
		if q.maxPending > 0 && q.pending.Len() >= q.maxPending {
			q.mu.Unlock()
			q.rejected.Add(1)
			q.observe(func(ob Observer) { ob.TaskRejected(q.name) })
			q.log.Debugf("TaskQueue '%v' is full, task rejected", q.name)
			return errs.ErrQueueFull.WithInternalMsg("queue '%v' reached max pending tasks: %d", q.name, q.maxPending)
		}
		q.pending.PushBack(qt)
	}
	q.submitted.Add(1)
	q.mu.Unlock()

	q.observe(func(ob Observer) { ob.TaskSubmitted(q.name) })
	if qt.notified != nil {
		close(qt.notified)
	}

	if parked {
		runner <- qt // never blocks, the channel is owned by exactly one parked runner.
	}
	return nil
}

// Take the oldest pending task, or park until a task is handed over.
func (q *TaskQueue) fetch() *queuedTask {
	q.mu.Lock()
	if qt, ok := q.pending.PopFront(); ok {
		q.mu.Unlock()
		return qt
	}
	ch := make(chan *queuedTask, 1)
	q.waiting.PushBack(ch)
	q.mu.Unlock()

	return <-ch
}

func (q *TaskQueue) runner(id int) {
	q.log.Debugf("TaskQueue '%v' runner-%d started", q.name, id)
	for {
		q.execute(id, q.fetch())
	}
}

func (q *TaskQueue) execute(id int, qt *queuedTask) {
	q.running.Add(1)
	q.started.Add(1)
	waited := time.Since(qt.enqueuedAt)
	if qt.notified != nil {
		<-qt.notified // TaskSubmitted is always reported before TaskStarted.
	}
	q.observe(func(ob Observer) { ob.TaskStarted(q.name, waited) })

	var out taskOutcome
	start := time.Now()
	returned := false
	defer func() {
		if returned {
			return
		}
		// runtime.Goexit is terminating this runner
		q.finish(id, waited, time.Since(start), &out)
		q.log.Errorf("TaskQueue '%v' runner-%d exited abnormally, starting a new runner", q.name, id)
		go q.runner(id)
	}()
	qt.run(&out)
	returned = true

	q.finish(id, waited, time.Since(start), &out)
}

func (q *TaskQueue) finish(id int, waited time.Duration, took time.Duration, out *taskOutcome) {
	q.running.Add(-1)
	err := out.err
	if err != nil {
		q.failed.Add(1)
		q.log.Errorf("TaskQueue '%v' runner-%d task failed, waited: %v, took: %v, %v", q.name, id, waited, took, err)
	} else {
		q.succeeded.Add(1)
		q.log.Debugf("TaskQueue '%v' runner-%d task completed, waited: %v, took: %v", q.name, id, waited, took)
	}
	q.observe(func(ob Observer) { ob.TaskFinished(q.name, took, err) })

	out.settle()
}

// Notify each observer, a panicking observer does not affect the others.
func (q *TaskQueue) observe(f func(ob Observer)) {
	for _, ob := range q.observers {
		PanicSafeRun(func() { f(ob) })
	}
}

package metrics

import (
	"time"

	"github.com/curtisnewbie/taskq/util/async"
	"github.com/curtisnewbie/taskq/util/errs"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "taskq"

	MetricTasksSubmitted     = "tasks_submitted_total"
	MetricTasksRejected      = "tasks_rejected_total"
	MetricTasksFinished      = "tasks_finished_total"
	MetricTaskWaitSeconds    = "task_wait_seconds"
	MetricTaskRunSeconds     = "task_run_seconds"
	MetricQueuePending       = "queue_pending_tasks"
	MetricQueueRunning       = "queue_running_tasks"
	MetricQueueWaitingRunner = "queue_waiting_runners"
	MetricQueueConcurrency   = "queue_concurrency"

	labelQueue  = "queue"
	labelResult = "result"

	resultSuccess = "success"
	resultFailure = "failure"
)

var _ async.Observer = (*QueueMetrics)(nil)

// Prometheus collectors for TaskQueue, it's an [async.Observer].
//
// Use [NewQueueMetrics] to create one, and register it with [async.WithObserver].
type QueueMetrics struct {
	submitted *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	finished  *prometheus.CounterVec
	waitTime  *prometheus.HistogramVec
	runTime   *prometheus.HistogramVec
}

// Create QueueMetrics and register the collectors to reg.
func NewQueueMetrics(reg prometheus.Registerer) (*QueueMetrics, error) {
	m := &QueueMetrics{
		submitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      MetricTasksSubmitted,
				Help:      "Number of tasks accepted by the queue.",
			},
			[]string{labelQueue},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      MetricTasksRejected,
				Help:      "Number of tasks rejected because the queue is full.",
			},
			[]string{labelQueue},
		),
		finished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      MetricTasksFinished,
				Help:      "Number of tasks finished, by result.",
			},
			[]string{labelQueue, labelResult},
		),
		waitTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      MetricTaskWaitSeconds,
				Help:      "Time tasks spent waiting for a runner.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{labelQueue},
		),
		runTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      MetricTaskRunSeconds,
				Help:      "Time tasks spent running.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{labelQueue},
		),
	}
	for _, c := range []prometheus.Collector{m.submitted, m.rejected, m.finished, m.waitTime, m.runTime} {
		if err := reg.Register(c); err != nil {
			return nil, errs.WrapErrf(err, "failed to register task queue metrics")
		}
	}
	return m, nil
}

func (m *QueueMetrics) TaskSubmitted(queue string) {
	m.submitted.WithLabelValues(queue).Inc()
}

func (m *QueueMetrics) TaskRejected(queue string) {
	m.rejected.WithLabelValues(queue).Inc()
}

func (m *QueueMetrics) TaskStarted(queue string, waited time.Duration) {
	m.waitTime.WithLabelValues(queue).Observe(waited.Seconds())
}

func (m *QueueMetrics) TaskFinished(queue string, took time.Duration, err error) {
	m.runTime.WithLabelValues(queue).Observe(took.Seconds())
	if err != nil {
		m.finished.WithLabelValues(queue, resultFailure).Inc()
	} else {
		m.finished.WithLabelValues(queue, resultSuccess).Inc()
	}
}

// Register gauges that read the queue's [async.Stats] on every scrape.
func WatchQueue(reg prometheus.Registerer, q *async.TaskQueue) error {
	gauge := func(name string, help string, f func(st async.Stats) int) prometheus.Collector {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace:   Namespace,
				Name:        name,
				Help:        help,
				ConstLabels: prometheus.Labels{labelQueue: q.Name()},
			},
			func() float64 { return float64(f(q.Stats())) },
		)
	}
	collectors := []prometheus.Collector{
		gauge(MetricQueuePending, "Number of tasks waiting for a runner.", func(st async.Stats) int { return st.Pending }),
		gauge(MetricQueueRunning, "Number of tasks being executed.", func(st async.Stats) int { return st.Running }),
		gauge(MetricQueueWaitingRunner, "Number of runners waiting for a task.", func(st async.Stats) int { return st.WaitingRunners }),
		gauge(MetricQueueConcurrency, "Number of runners.", func(st async.Stats) int { return st.Concurrency }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return errs.WrapErrf(err, "failed to register gauges for queue '%v'", q.Name())
		}
	}
	return nil
}

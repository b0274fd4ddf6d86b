package metrics

import (
	"github.com/curtisnewbie/taskq/logging"
	"github.com/curtisnewbie/taskq/task"
	"github.com/curtisnewbie/taskq/util/async"
)

const (
	StatsLogJobName = "QueueStatsLogJob"
)

// Schedule job that logs the queue's stats periodically, cron expression includes second, e.g., '0/30 * * * * *'.
func ScheduleStatsLogJob(sched *task.Scheduler, cron string, q *async.TaskQueue) error {
	return sched.ScheduleCron(task.Job{
		Name:            StatsLogJobName,
		Cron:            cron,
		CronWithSeconds: true,
		Run: func() error {
			LogStats(q.Stats())
			return nil
		},
	})
}

func LogStats(st async.Stats) {
	logging.Infof("TaskQueue '%v' stats, concurrency: %d, running: %d, pending: %d, waiting runners: %d, submitted: %d, rejected: %d, succeeded: %d, failed: %d",
		st.Name, st.Concurrency, st.Running, st.Pending, st.WaitingRunners, st.Submitted, st.Rejected, st.Succeeded, st.Failed)
}

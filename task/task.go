package task

import (
	"time"

	"github.com/curtisnewbie/taskq/util/errs"
	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

type Job struct {
	Name            string       // name of the job.
	Cron            string       // cron expr.
	CronWithSeconds bool         // whether cron expr contains the second field.
	Run             func() error // actual job execution logic.
	LogJobExec      bool         // whether job execution should be logged, error msg is always logged and is not affected by this option.
}

// Cron scheduler for periodic jobs, e.g., the queue stats log job and the log rotation job.
//
// Use [NewScheduler] to create one. Jobs can be scheduled before or after the scheduler is started.
type Scheduler struct {
	s   *gocron.Scheduler
	log *logrus.Entry
}

// Create new Scheduler at local time.
func NewScheduler() *Scheduler {
	s := gocron.NewScheduler(time.Local)
	return &Scheduler{s: s, log: logrus.WithField("component", "scheduler")}
}

// Add a cron job to scheduler, if CronWithSeconds is true, the cron expression includes second, e.g., '*/1 * * * * *'
//
// This func doesn't start the scheduler.
func (s *Scheduler) ScheduleCron(job Job) error {
	if job.Run == nil {
		return errs.ErrIllegalArgument.WithInternalMsg("job '%v' has no Run func", job.Name)
	}

	wrappedJob := func() {
		if job.LogJobExec {
			s.log.Infof("Running job '%s'", job.Name)
		}

		start := time.Now()
		errRun := job.Run()
		took := time.Since(start)
		if errRun == nil {
			if job.LogJobExec {
				s.log.Infof("Job '%s' finished, took: %s", job.Name, took)
			}
		} else {
			s.log.Errorf("Job '%s' failed, took: %s, %v", job.Name, took, errRun)
		}
	}

	var err error
	if job.CronWithSeconds {
		_, err = s.s.CronWithSeconds(job.Cron).Tag(job.Name).Do(wrappedJob)
	} else {
		_, err = s.s.Cron(job.Cron).Tag(job.Name).Do(wrappedJob)
	}
	if err != nil {
		return errs.ErrInvalidConfiguration.Wrapf(err, "failed to schedule cron job '%v', cron: %v, withSeconds: %v", job.Name, job.Cron, job.CronWithSeconds)
	}
	s.log.Debugf("Job '%v' scheduled, cron: %v", job.Name, job.Cron)
	return nil
}

// Next run of the job.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	jobs, err := s.s.FindJobsByTag(name)
	if err != nil || len(jobs) < 1 {
		return time.Time{}, false
	}
	return jobs[0].NextRun(), true
}

// Number of scheduled jobs
func (s *Scheduler) Len() int {
	return s.s.Len()
}

// Start scheduler asynchronously
func (s *Scheduler) StartAsync() {
	s.s.StartAsync()
	s.log.Infof("Cron Scheduler started, jobs: %d", s.s.Len())
}

// Stop scheduler
func (s *Scheduler) Stop() {
	if s.s.IsRunning() {
		s.s.Stop()
	}
}

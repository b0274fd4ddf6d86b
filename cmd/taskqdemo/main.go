package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/curtisnewbie/taskq/config"
	"github.com/curtisnewbie/taskq/demo"
	"github.com/curtisnewbie/taskq/logging"
	"github.com/curtisnewbie/taskq/metrics"
	"github.com/curtisnewbie/taskq/server"
	"github.com/curtisnewbie/taskq/task"
	"github.com/curtisnewbie/taskq/util/async"
	"github.com/curtisnewbie/taskq/util/errs"
	"github.com/curtisnewbie/taskq/version"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	if err := run(os.Args); err != nil {
		logging.Errorf("taskqdemo exited, %v", errs.ErrorStackTrace(err))
		os.Exit(1)
	}
}

func run(args []string) error {
	conf := config.NewAppConfig()
	conf.DefaultReadConfig(args)

	sched := task.NewScheduler()
	if err := logging.ConfigureLogging(conf, sched); err != nil {
		return err
	}
	logging.Infof("Starting %v, version: %v", conf.GetPropStr(config.PropAppName), version.Version)

	// container-aware GOMAXPROCS, it's used to calculate the default concurrency.
	if _, err := maxprocs.Set(maxprocs.Logger(logging.Infof)); err != nil {
		logging.Warnf("Failed to set GOMAXPROCS, %v", err)
	}

	qc, err := conf.TaskQueueConf()
	if err != nil {
		return err
	}

	opts := qc.Options()
	opts = append(opts, async.WithLogger(logging.WithFields(map[string]any{"queue": qc.Name})))
	if conf.GetPropBool(config.PropMetricsEnabled) {
		m, err := metrics.NewQueueMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}
		opts = append(opts, async.WithObserver(m))
	}

	q, err := async.NewTaskQueue(qc.Concurrency, opts...)
	if err != nil {
		return err
	}
	if conf.GetPropBool(config.PropMetricsEnabled) {
		if err := metrics.WatchQueue(prometheus.DefaultRegisterer, q); err != nil {
			return err
		}
	}
	logging.Infof("TaskQueue '%v' created, concurrency: %d, maxPending: %d", qc.Name, qc.Concurrency, qc.MaxPending)

	if conf.GetPropBool(config.PropMetricsStatsLogEnabled) {
		if err := metrics.ScheduleStatsLogJob(sched, conf.GetPropStr(config.PropMetricsStatsLogCron), q); err != nil {
			return err
		}
	}
	if sched.Len() > 0 {
		sched.StartAsync()
		defer sched.Stop()
	}

	var srv *server.Server
	if conf.GetPropBool(config.PropServerEnabled) {
		srv = server.NewServer(conf, q, prometheus.DefaultGatherer)
		if err := srv.Start(); err != nil {
			return err
		}
		defer srv.Shutdown()
	}

	w := demo.Workload{
		Tasks:     conf.GetPropInt(config.PropDemoTasks),
		TaskDelay: conf.GetPropDur(config.PropDemoTaskDelayMs, time.Millisecond),
		FailEvery: conf.GetPropInt(config.PropDemoFailEvery),
	}
	s := w.Run(q)
	logging.Infof("Demo workload finished, tasks: %d, succeeded: %d, failed: %d, rejected: %d, took: %v",
		w.Tasks, s.Succeeded, s.Failed, s.Rejected, s.Took)
	metrics.LogStats(q.Stats())

	if srv == nil {
		return nil
	}

	// wait for Interrupt or SIGTERM, and shutdown gracefully
	quit := make(chan os.Signal, 2)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	logging.Infof("Serving on %v, waiting for SIGINT or SIGTERM", srv.Addr())
	<-quit
	return nil
}

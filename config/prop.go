package config

// Common Configuration
const (

	// name of the application | taskq
	PropAppName = "app.name"
)

// TaskQueue Configuration
const (

	// name of the task queue, included in logs and metric labels | default
	PropTaskQueueName = "taskqueue.name"

	// number of runners, 0 means it's calculated based on GOMAXPROCS | 0
	PropTaskQueueConcurrency = "taskqueue.concurrency"

	// runners per cpu, only used when taskqueue.concurrency is 0 | 2
	PropTaskQueueConcurrencyPerCpu = "taskqueue.concurrency-per-cpu"

	// max number of tasks waiting for a runner, 0 means unbounded | 0
	PropTaskQueueMaxPending = "taskqueue.max-pending"
)

// Web Server Configuration
const (

	// enable http server | true
	PropServerEnabled = "server.enabled"

	// http server host | 127.0.0.1
	PropServerHost = "server.host"

	// http server port | 8080
	PropServerPort = "server.port"

	// health check url | /health
	PropHealthCheckUrl = "server.health-check-url"

	// queue stats url | /queue/stats
	PropQueueStatsUrl = "server.queue-stats-url"

	// time wait (in second) before http server shutdown | 30
	PropServerGracefulShutdownTimeSec = "server.gracefulShutdownTimeSec"
)

// Metrics Configuration
const (

	// enable metrics collection using prometheus | true
	PropMetricsEnabled = "metrics.enabled"

	// route used to expose collected metrics | /metrics
	PropMetricsRoute = "metrics.route"

	// enable job that logs queue stats periodically | false
	PropMetricsStatsLogEnabled = "metrics.stats-log.enabled"

	// cron expression (with seconds) for queue stats log job | 0/30 * * * * *
	PropMetricsStatsLogCron = "metrics.stats-log.cron"
)

// Logging Configuration
const (

	// log level | info
	PropLoggingLevel = "logging.level"

	// path to rolling log file
	PropLoggingRollingFile = "logging.rolling.file"

	// logs are written to log file only | false
	PropLoggingRollingFileOnly = "logging.file.log-file-only"

	// max age of log files in days, 0 means files are retained forever | 0
	PropLoggingRollingFileMaxAge = "logging.file.max-age"

	// max size of each log file (in mb) | 50
	PropLoggingRollingFileMaxSize = "logging.file.max-size"

	// max number of backup log files | 10
	PropLoggingRollingFileMaxBackups = "logging.file.max-backups"

	// rotate log file at every day 00:00 (local) | true
	PropLoggingRollingFileRotateDaily = "logging.file.rotate-daily"
)

// Demo Workload Configuration
const (

	// number of tasks submitted by the demo workload | 100
	PropDemoTasks = "demo.tasks"

	// time each demo task sleeps (in milliseconds) | 50
	PropDemoTaskDelayMs = "demo.task-delay-ms"

	// every n-th demo task fails, 0 means no task fails | 0
	PropDemoFailEvery = "demo.fail-every"
)

func init() {
	SetDefProp(PropAppName, "taskq")
	SetDefProp(PropTaskQueueName, "default")
	SetDefProp(PropTaskQueueConcurrency, 0)
	SetDefProp(PropTaskQueueConcurrencyPerCpu, 2)
	SetDefProp(PropTaskQueueMaxPending, 0)
	SetDefProp(PropServerEnabled, true)
	SetDefProp(PropServerHost, "127.0.0.1")
	SetDefProp(PropServerPort, 8080)
	SetDefProp(PropHealthCheckUrl, "/health")
	SetDefProp(PropQueueStatsUrl, "/queue/stats")
	SetDefProp(PropServerGracefulShutdownTimeSec, 30)
	SetDefProp(PropMetricsEnabled, true)
	SetDefProp(PropMetricsRoute, "/metrics")
	SetDefProp(PropMetricsStatsLogEnabled, false)
	SetDefProp(PropMetricsStatsLogCron, "0/30 * * * * *")
	SetDefProp(PropLoggingLevel, "info")
	SetDefProp(PropLoggingRollingFileOnly, false)
	SetDefProp(PropLoggingRollingFileMaxAge, 0)
	SetDefProp(PropLoggingRollingFileMaxSize, 50)
	SetDefProp(PropLoggingRollingFileMaxBackups, 10)
	SetDefProp(PropLoggingRollingFileRotateDaily, true)
	SetDefProp(PropDemoTasks, 100)
	SetDefProp(PropDemoTaskDelayMs, 50)
	SetDefProp(PropDemoFailEvery, 0)
}

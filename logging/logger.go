package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/curtisnewbie/taskq/config"
	"github.com/curtisnewbie/taskq/task"
	"github.com/curtisnewbie/taskq/util/errs"
	"github.com/curtisnewbie/taskq/util/utillog"
	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

const (
	callerField = "caller"
)

func init() {
	logrus.SetReportCaller(false) // caller is set manually, see Debugf, Infof, etc.
	logrus.SetFormatter(CustomFormatter())

	utillog.DebugLog = Debugf
	utillog.ErrorLog = Errorf
}

const (
	fnWidth    = 30
	levelWidth = 5
)

var (
	logBufPool = sync.Pool{
		New: func() any {
			return &bytes.Buffer{}
		},
	}
)

// Fixed-width text formatter, extra fields are appended after the message in key order.
type CTFormatter struct {
}

func (c *CTFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var fn string
	if caller, ok := entry.Data[callerField].(string); ok {
		fn = caller
	}

	levelstr := toLevelStr(entry.Level)

	b := logBufPool.Get().(*bytes.Buffer)
	defer putLogBuf(b)

	b.WriteString(entry.Time.Format("2006-01-02 15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(levelstr)

	if len(levelstr) < levelWidth {
		b.WriteString(strings.Repeat(" ", levelWidth-len(levelstr)))
	}

	b.WriteString(" ")
	b.WriteString(fn)

	if len(fn) < fnWidth {
		b.WriteString(strings.Repeat(" ", fnWidth-len(fn)))
	}

	b.WriteString(" : ")
	b.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			if k != callerField {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteByte(' ')
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(toStr(entry.Data[k]))
		}
	}
	b.WriteByte('\n')

	// the buffer is reused, the returned bytes must be copied.
	out := make([]byte, b.Len())
	copy(out, b.Bytes())
	return out, nil
}

func putLogBuf(b *bytes.Buffer) {
	b.Reset()
	logBufPool.Put(b)
}

func toStr(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case error:
		return s.Error()
	default:
		return strings.TrimSpace(strings.ReplaceAll(fmt.Sprint(v), "\n", " "))
	}
}

type NewRollingLogFileParam struct {
	Filename   string // filename
	MaxSize    int    // max file size in mb
	MaxAge     int    // max age in day
	MaxBackups int    // max number of files
}

// Create rolling file based logger
func BuildRollingLogFileWriter(p NewRollingLogFileParam) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   p.Filename,
		MaxSize:    p.MaxSize,    // megabytes
		MaxAge:     p.MaxAge,     // days
		MaxBackups: p.MaxBackups, // num of files
		LocalTime:  true,
		Compress:   false,
	}
}

func toLevelStr(level logrus.Level) string {
	switch level {
	case logrus.TraceLevel:
		return "TRACE"
	case logrus.DebugLevel:
		return "DEBUG"
	case logrus.InfoLevel:
		return "INFO"
	case logrus.WarnLevel:
		return "WARN"
	case logrus.ErrorLevel:
		return "ERROR"
	case logrus.FatalLevel:
		return "FATAL"
	case logrus.PanicLevel:
		return "PANIC"
	}
	return "UNKNOWN"
}

// Get custom formatter logrus
func CustomFormatter() logrus.Formatter {
	return &CTFormatter{}
}

// Check whether current log level is DEBUG
func IsDebugLevel() bool {
	return logrus.GetLevel() == logrus.DebugLevel
}

// Parse log level
func ParseLogLevel(logLevel string) (logrus.Level, bool) {
	logLevel = strings.ToUpper(strings.TrimSpace(logLevel))
	switch logLevel {
	case "INFO":
		return logrus.InfoLevel, true
	case "DEBUG":
		return logrus.DebugLevel, true
	case "WARN":
		return logrus.WarnLevel, true
	case "ERROR":
		return logrus.ErrorLevel, true
	case "TRACE":
		return logrus.TraceLevel, true
	case "FATAL":
		return logrus.FatalLevel, true
	case "PANIC":
		return logrus.PanicLevel, true
	}
	return logrus.InfoLevel, false
}

func SetLogLevel(level string) {
	ll, ok := ParseLogLevel(level)
	if !ok {
		return
	}
	logrus.SetLevel(ll)
}

func Debugf(format string, args ...interface{}) {
	if !logrus.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	logrus.WithField(callerField, getCallerFn()).Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	if !logrus.IsLevelEnabled(logrus.InfoLevel) {
		return
	}
	logrus.WithField(callerField, getCallerFn()).Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	if !logrus.IsLevelEnabled(logrus.WarnLevel) {
		return
	}
	logrus.WithField(callerField, getCallerFn()).Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	if !logrus.IsLevelEnabled(logrus.ErrorLevel) {
		return
	}
	logrus.WithField(callerField, getCallerFn()).Errorf(format, args...)
}

// Logger with the given fields, e.g., for [async.WithLogger].
func WithFields(fields map[string]any) *logrus.Entry {
	return logrus.WithFields(logrus.Fields(fields))
}

var callerUintptrPool = sync.Pool{
	New: func() any {
		p := make([]uintptr, 4)
		return &p
	},
}

func getCallerFn() string {
	pcs := callerUintptrPool.Get().(*[]uintptr)
	defer putCallerUintptrPool(pcs)

	depth := runtime.Callers(3, *pcs)
	if depth < 1 {
		return ""
	}
	f, _ := runtime.CallersFrames((*pcs)[:depth]).Next()
	return getShortFnName(f.Function)
}

func putCallerUintptrPool(pcs *[]uintptr) {
	clear(*pcs)
	callerUintptrPool.Put(pcs)
}

func getShortFnName(fn string) string {
	j := strings.LastIndexByte(fn, '/')
	if j < 0 {
		return fn
	}
	return fn[j+1:]
}

// Configure logging level and output target based on loaded configuration.
//
// If rolling log file is configured and logging.file.rotate-daily is true, a job rotating the log file at 00:00:00
// is scheduled using sched, sched may be nil if daily rotation is not needed.
func ConfigureLogging(conf *config.AppConfig, sched *task.Scheduler) error {
	var out io.Writer = os.Stdout

	if conf.HasProp(config.PropLoggingRollingFile) {
		logFile := conf.GetPropStr(config.PropLoggingRollingFile)
		log := BuildRollingLogFileWriter(NewRollingLogFileParam{
			Filename:   logFile,
			MaxSize:    conf.GetPropInt(config.PropLoggingRollingFileMaxSize), // megabytes
			MaxAge:     conf.GetPropInt(config.PropLoggingRollingFileMaxAge),  // days
			MaxBackups: conf.GetPropInt(config.PropLoggingRollingFileMaxBackups),
		})
		if conf.GetPropBool(config.PropLoggingRollingFileOnly) {
			out = log
		} else {
			out = io.MultiWriter(os.Stdout, log)
		}

		if sched != nil && conf.GetPropBool(config.PropLoggingRollingFileRotateDaily) {
			if err := sched.ScheduleCron(task.Job{
				Name:            "RotateLogJob",
				Cron:            "0 0 0 * * *",
				CronWithSeconds: true,
				Run:             log.Rotate,
			}); err != nil {
				return errs.WrapErrf(err, "failed to register RotateLogJob")
			}
		}
	}

	logrus.SetOutput(out)

	lv := conf.GetPropStr(config.PropLoggingLevel)
	level, ok := ParseLogLevel(lv)
	if !ok {
		return errs.ErrInvalidConfiguration.WithInternalMsg("invalid log level '%v'", lv)
	}
	logrus.SetLevel(level)
	return nil
}

package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/curtisnewbie/taskq/config"
	"github.com/curtisnewbie/taskq/task"
	"github.com/curtisnewbie/taskq/util/errs"
	"github.com/sirupsen/logrus"
)

func resetLogrus(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetOutput(os.Stdout)
		logrus.SetLevel(logrus.InfoLevel)
	})
}

func TestFormatter(t *testing.T) {
	resetLogrus(t)
	var buf bytes.Buffer
	logrus.SetOutput(&buf)
	logrus.SetLevel(logrus.DebugLevel)

	Infof("test message %d", 1)
	determineIdealMethodName()
	WithFields(map[string]any{"queue": "q1", "component": "taskqueue"}).Errorf("with fields")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, actual: %q", buf.String())
	}
	t.Logf("\n%s", buf.String())

	if !strings.Contains(lines[0], "INFO ") || !strings.Contains(lines[0], "logging.TestFormatter") || !strings.HasSuffix(lines[0], ": test message 1") {
		t.Fatalf("unexpected line: %v", lines[0])
	}
	if !strings.Contains(lines[1], "DEBUG") || !strings.Contains(lines[1], "logging.determineIdealMethodName") {
		t.Fatalf("unexpected line: %v", lines[1])
	}
	if !strings.HasSuffix(lines[2], "with fields component=taskqueue queue=q1") {
		t.Fatalf("unexpected line: %v", lines[2])
	}
}

func determineIdealMethodName() {
	Debugf("Whispering")
}

func TestParseLogLevel(t *testing.T) {
	for s, exp := range map[string]logrus.Level{
		"info":   logrus.InfoLevel,
		"DEBUG":  logrus.DebugLevel,
		" warn ": logrus.WarnLevel,
		"Error":  logrus.ErrorLevel,
		"trace":  logrus.TraceLevel,
	} {
		l, ok := ParseLogLevel(s)
		if !ok || l != exp {
			t.Fatalf("%q, expected %v, actual: %v, %v", s, exp, l, ok)
		}
	}
	if _, ok := ParseLogLevel("verbose"); ok {
		t.Fatal("verbose is not a valid level")
	}
}

func TestConfigureLogging(t *testing.T) {
	resetLogrus(t)
	f := filepath.Join(t.TempDir(), "taskq.log")

	conf := config.NewAppConfig()
	conf.SetProp(config.PropLoggingLevel, "debug")
	conf.SetProp(config.PropLoggingRollingFile, f)
	conf.SetProp(config.PropLoggingRollingFileOnly, true)

	sched := task.NewScheduler()
	if err := ConfigureLogging(conf, sched); err != nil {
		t.Fatal(err)
	}
	if !IsDebugLevel() {
		t.Fatal("should be debug level")
	}
	if sched.Len() != 1 {
		t.Fatalf("RotateLogJob should be scheduled, jobs: %v", sched.Len())
	}

	Infof("written to file")
	b, err := os.ReadFile(f)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "written to file") {
		t.Fatalf("log file content: %q", string(b))
	}
}

func TestConfigureLoggingInvalidLevel(t *testing.T) {
	resetLogrus(t)
	conf := config.NewAppConfig()
	conf.SetProp(config.PropLoggingLevel, "verbose")
	err := ConfigureLogging(conf, nil)
	if !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Fatalf("should be ErrInvalidConfiguration, %v", err)
	}
}

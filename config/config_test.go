package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/curtisnewbie/taskq/util/async"
	"github.com/curtisnewbie/taskq/util/errs"
)

func TestGuessConfigFilePath(t *testing.T) {
	args := []string{"configFile=abc.yml", "--someflag"}
	if p := GuessConfigFilePath(args); p != "abc.yml" {
		t.Errorf("Expected abc.yml, but got: %v", p)
	}

	if p := GuessConfigFilePath([]string{"--someflag"}); p != "conf.yml" {
		t.Errorf("Expected conf.yml, but got: %v", p)
	}
}

func TestArgKeyVal(t *testing.T) {
	m := ArgKeyVal([]string{"a=1", "b = 2", "a=3", "noeq"})
	if len(m) != 2 {
		t.Fatalf("expected 2 keys, actual: %v", m)
	}
	if v := m["a"]; len(v) != 2 || v[0] != "1" || v[1] != "3" {
		t.Fatalf("unexpected a: %v", v)
	}
	if v := m["b"]; len(v) != 1 || v[0] != "2" {
		t.Fatalf("unexpected b: %v", v)
	}
}

func TestDefaultProps(t *testing.T) {
	a := NewAppConfig()
	if v := a.GetPropStr(PropTaskQueueName); v != "default" {
		t.Fatalf("unexpected queue name: %v", v)
	}
	if v := a.GetPropInt(PropServerPort); v != 8080 {
		t.Fatalf("unexpected server port: %v", v)
	}
	if !a.GetPropBool(PropMetricsEnabled) {
		t.Fatal("metrics should be enabled by default")
	}
	if a.HasProp(PropLoggingRollingFile) {
		t.Fatal("rolling file should not be set by default")
	}
}

func TestLoadConfigFromStr(t *testing.T) {
	a := NewAppConfig()
	err := a.LoadConfigFromStr(`
app:
  name: "worker"
taskqueue:
  name: "${app.name}-queue"
  concurrency: 3
  max-pending: 10
`)
	if err != nil {
		t.Fatal(err)
	}
	c, err := a.TaskQueueConf()
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "worker-queue" || c.Concurrency != 3 || c.MaxPending != 10 {
		t.Fatalf("unexpected conf: %+v", c)
	}
	if len(c.Options()) != 2 {
		t.Fatal("expected 2 options")
	}

	a.OverwriteConf([]string{"taskqueue.concurrency=5"})
	c, err = a.TaskQueueConf()
	if err != nil {
		t.Fatal(err)
	}
	if c.Concurrency != 5 {
		t.Fatalf("cli arg should override config file, %+v", c)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "conf.yml")
	if err := os.WriteFile(f, []byte("logging:\n  level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}
	a := NewAppConfig()
	a.DefaultReadConfig([]string{"configFile=" + f, "server.port=9090"})
	if v := a.GetPropStr(PropLoggingLevel); v != "debug" {
		t.Fatalf("unexpected level: %v", v)
	}
	if v := a.GetPropInt(PropServerPort); v != 9090 {
		t.Fatalf("unexpected port: %v", v)
	}

	if err := a.LoadConfigFromFile(filepath.Join(t.TempDir(), "missing.yml")); !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Fatalf("missing file should return ErrInvalidConfiguration, %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(bad, []byte("logging: [level\n"), 0644); err != nil {
		t.Fatal(err)
	}
	err := a.LoadConfigFromFile(bad)
	if !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Fatalf("malformed file should return ErrInvalidConfiguration, %v", err)
	}
	var me *errs.Err
	if !errors.As(err, &me) || me.InternalMsg() == "" {
		t.Fatalf("should be *errs.Err with internal msg, %v", err)
	}
}

func TestTaskQueueConfAutoConcurrency(t *testing.T) {
	a := NewAppConfig()
	a.SetProp(PropTaskQueueConcurrencyPerCpu, 3)
	c, err := a.TaskQueueConf()
	if err != nil {
		t.Fatal(err)
	}
	if exp := async.CalcPoolSize(3, 1); c.Concurrency != exp {
		t.Fatalf("expected %v, actual: %v", exp, c.Concurrency)
	}
}

func TestTaskQueueConfInvalid(t *testing.T) {
	cases := []struct {
		prop string
		val  any
	}{
		{PropTaskQueueConcurrency, "abc"},
		{PropTaskQueueConcurrency, -1},
		{PropTaskQueueMaxPending, "-2"},
		{PropTaskQueueMaxPending, "many"},
		{PropTaskQueueName, " "},
	}
	for _, c := range cases {
		a := NewAppConfig()
		a.SetProp(c.prop, c.val)
		_, err := a.TaskQueueConf()
		if err == nil {
			t.Fatalf("%v=%v should be invalid", c.prop, c.val)
		}
		if !errors.Is(err, errs.ErrInvalidConfiguration) {
			t.Fatalf("should be ErrInvalidConfiguration, %v", err)
		}
		t.Log(err)
	}
}

package server

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/curtisnewbie/taskq/config"
	"github.com/curtisnewbie/taskq/metrics"
	"github.com/curtisnewbie/taskq/util/async"
	"github.com/curtisnewbie/taskq/util/errs"
	"github.com/curtisnewbie/taskq/util/json"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type statsResp struct {
	ErrorCode string      `json:"errorCode"`
	Error     bool        `json:"error"`
	Data      async.Stats `json:"data"`
}

func newTestServer(t *testing.T, conf *config.AppConfig) (*Server, *async.TaskQueue) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewQueueMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}
	q, err := async.NewTaskQueue(2, async.WithQueueName("web"), async.WithObserver(m))
	if err != nil {
		t.Fatal(err)
	}
	if err := metrics.WatchQueue(reg, q); err != nil {
		t.Fatal(err)
	}
	return NewServer(conf, q, reg), q
}

func get(t *testing.T, s *Server, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, url, nil)
	s.Engine().ServeHTTP(w, r)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, config.NewAppConfig())
	w := get(t, s, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %v", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"UP"`) {
		t.Fatalf("unexpected body: %v", w.Body.String())
	}

	s.Shutdown()
	w = get(t, s, "/health")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %v", w.Code)
	}
	if !strings.Contains(w.Body.String(), errs.ErrCodeServerShuttingDown) {
		t.Fatalf("unexpected body: %v", w.Body.String())
	}
}

func TestQueueStats(t *testing.T) {
	s, q := newTestServer(t, config.NewAppConfig())
	if _, err := q.Run(func() error { return nil }).Get(); err != nil {
		t.Fatal(err)
	}
	if _, err := q.Run(func() error { return errors.New("failed") }).Get(); err == nil {
		t.Fatal("should fail")
	}

	w := get(t, s, "/queue/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %v", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("unexpected content type: %v", ct)
	}
	resp, err := json.ParseJsonAs[statsResp](w.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	st := resp.Data
	if resp.Error || st.Name != "web" || st.Concurrency != 2 || st.Submitted != 2 || st.Succeeded != 1 || st.Failed != 1 {
		t.Fatalf("unexpected resp: %+v", resp)
	}
}

func TestMetricsRoute(t *testing.T) {
	s, q := newTestServer(t, config.NewAppConfig())
	q.Run(func() error { return nil }).Get()

	w := get(t, s, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %v", w.Code)
	}
	body := w.Body.String()
	for _, name := range []string{metrics.MetricTasksSubmitted, metrics.MetricQueuePending, metrics.MetricQueueWaitingRunner} {
		if !strings.Contains(body, metrics.Namespace+"_"+name) {
			t.Fatalf("%v not found in:\n%v", name, body)
		}
	}
	if !strings.Contains(body, `queue="web"`) {
		t.Fatalf("queue label not found in:\n%v", body)
	}

	conf := config.NewAppConfig()
	conf.SetProp(config.PropMetricsEnabled, false)
	s, _ = newTestServer(t, conf)
	if w := get(t, s, "/metrics"); w.Code != http.StatusNotFound {
		t.Fatalf("metrics route should not be registered, status: %v", w.Code)
	}
}

func TestRecovery(t *testing.T) {
	s, _ := newTestServer(t, config.NewAppConfig())
	s.Engine().GET("/panic", func(c *gin.Context) { panic("oops") })

	w := get(t, s, "/panic")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %v", w.Code)
	}
	if !strings.Contains(w.Body.String(), errs.ErrCodeTaskPanic) {
		t.Fatalf("unexpected body: %v", w.Body.String())
	}

	s.Engine().GET("/panic-err", func(c *gin.Context) { panic(errors.New("boom")) })
	w = get(t, s, "/panic-err")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %v", w.Code)
	}
	if !strings.Contains(w.Body.String(), errs.ErrCodeTaskPanic) {
		t.Fatalf("unexpected body: %v", w.Body.String())
	}
}

func TestStartAndShutdown(t *testing.T) {
	conf := config.NewAppConfig()
	conf.SetProp(config.PropServerPort, 0)
	conf.SetProp(config.PropServerGracefulShutdownTimeSec, 1)
	s, _ := newTestServer(t, conf)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %v, %s", resp.StatusCode, b)
	}

	s.Shutdown()
	if !s.IsShuttingDown() {
		t.Fatal("should be shutting down")
	}
	if _, err := http.Get("http://" + s.Addr() + "/health"); err == nil {
		t.Fatal("server should be closed")
	}
}

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/curtisnewbie/taskq/config"
	"github.com/curtisnewbie/taskq/logging"
	"github.com/curtisnewbie/taskq/metrics"
	"github.com/curtisnewbie/taskq/util/async"
	"github.com/curtisnewbie/taskq/util/errs"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Http server exposing health check, prometheus metrics and the stats of a TaskQueue.
//
// Use [NewServer] to create one.
type Server struct {
	conf     *config.AppConfig
	q        *async.TaskQueue
	gatherer prometheus.Gatherer
	engine   *gin.Engine

	mu           sync.RWMutex
	srv          *http.Server
	addr         string
	shuttingDown bool
}

// Create Server for the queue, metrics are gathered using gatherer, e.g., prometheus.DefaultGatherer.
//
// Routes are registered based on the props in conf, see config.PropServer* and config.PropMetrics*.
func NewServer(conf *config.AppConfig, q *async.TaskQueue, gatherer prometheus.Gatherer) *Server {
	if logging.IsDebugLevel() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{conf: conf, q: q, gatherer: gatherer}
	engine := gin.New()
	engine.Use(PerfMiddleware())
	engine.Use(gin.CustomRecovery(DefaultRecovery))

	hcUrl := conf.GetPropStr(config.PropHealthCheckUrl)
	engine.GET(hcUrl, s.health)
	PerfLogExclPath(hcUrl)

	engine.GET(conf.GetPropStr(config.PropQueueStatsUrl), s.queueStats)

	if conf.GetPropBool(config.PropMetricsEnabled) {
		route := conf.GetPropStr(config.PropMetricsRoute)
		engine.GET(route, gin.WrapH(metrics.PrometheusHandlerFor(gatherer)))
		PerfLogExclPath(route)
	}

	s.engine = engine
	return s
}

// The underlying gin engine, it's a http.Handler.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	if s.IsShuttingDown() {
		DispatchJson(c, http.StatusServiceUnavailable, WrapResp(nil, errs.ErrServerShuttingDown))
		return
	}
	HandleResult(c, "UP", nil)
}

func (s *Server) queueStats(c *gin.Context) {
	HandleResult(c, s.q.Stats(), nil)
}

// Start listening on server.host:server.port, requests are served on a new goroutine.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.conf.GetPropStr(config.PropServerHost), s.conf.GetPropStr(config.PropServerPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errs.WrapErrf(err, "failed to listen on %v", addr)
	}

	srv := &http.Server{Handler: s.engine}
	s.mu.Lock()
	s.srv = srv
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	go func() {
		logging.Infof("Listening and serving HTTP on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logging.Errorf("HttpServer Serve: %s", err)
		}
	}()
	return nil
}

// Address the server is listening on.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// check if the server is shutting down
func (s *Server) IsShuttingDown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shuttingDown
}

/*
Shutdown server gracefully

This func looks for following prop:

	server.gracefulShutdownTimeSec
*/
func (s *Server) Shutdown() {
	s.mu.Lock()
	s.shuttingDown = true
	srv := s.srv
	s.mu.Unlock()

	if srv == nil {
		return
	}
	logging.Infof("Shutting down server gracefully")

	timeout := s.conf.GetPropInt(config.PropServerGracefulShutdownTimeSec)
	if timeout <= 0 {
		timeout = 5
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Errorf("HttpServer Shutdown: %v", err)
	}
	logging.Infof("HttpServer exited")
}

package server

import (
	"sync"
	"time"

	"github.com/curtisnewbie/taskq/logging"
	"github.com/gin-gonic/gin"
)

var (
	perfLogExcluded   = map[string]struct{}{}
	perfLogExcludedMu sync.RWMutex
)

// Perf Middleware that calculates how much time each request takes
func PerfMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !logging.IsDebugLevel() || isPerfLogExcluded(ctx.Request.URL.Path) {
			ctx.Next()
			return
		}

		start := time.Now()
		ctx.Next() // continue the handler chain
		logging.Debugf("%-6v %-60v %d [%s]", ctx.Request.Method, ctx.Request.RequestURI, ctx.Writer.Status(), time.Since(start))
	}
}

// Ask PerfMiddleware to stop measuring perf of provided path
func PerfLogExclPath(path string) {
	perfLogExcludedMu.Lock()
	defer perfLogExcludedMu.Unlock()
	perfLogExcluded[path] = struct{}{}
}

func isPerfLogExcluded(path string) bool {
	perfLogExcludedMu.RLock()
	defer perfLogExcludedMu.RUnlock()
	_, ok := perfLogExcluded[path]
	return ok
}

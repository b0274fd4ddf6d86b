package utillog

import "github.com/sirupsen/logrus"

// Logging hooks for util packages that should not depend on a configured logger.
//
// Both are routed to logrus by default; tests may replace them, e.g., with t.Logf.
var (
	DebugLog func(pat string, args ...any) = func(pat string, args ...any) {
		logrus.Debugf(pat, args...)
	}
	ErrorLog func(pat string, args ...any) = func(pat string, args ...any) {
		logrus.Errorf(pat, args...)
	}
)

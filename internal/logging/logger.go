// Package logging holds the process-wide *zap.Logger used by cutticket.
package logging

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// logger holds the package-level logger instance.
// Defaults to nil, which causes Logger() to return a no-op logger.
var logger atomic.Pointer[zap.Logger]

// SetLogger configures the package-level logger.
// Pass nil to disable logging (a no-op logger is used).
//
// SetLogger is safe for concurrent use.
//
// Example enabling debug output:
//
//	l, _ := zap.NewDevelopment()
//	logging.SetLogger(l)
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// Logger returns the package-level logger, or a no-op logger if none was set.
//
// Logger is safe for concurrent use.
func Logger() *zap.Logger {
	l := logger.Load()
	if l == nil {
		l = zap.NewNop()
		logger.Store(l)
	}
	return l
}

// Named returns a child of the package-level logger for a component.
func Named(component string) *zap.Logger {
	return Logger().Named(component)
}

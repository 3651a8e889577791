// Package log provides a structured logging interface for numlearn's
// optimisation and clustering loops.
//
// The Logger interface is slog-compatible in shape so that the backing
// implementation can be swapped; the default implementation is built on
// zerolog (see NewZerologLogger). Until SetupLogger or SetLogger is called the
// package-level logger discards everything, so library code can log
// unconditionally.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ModelNameKey, "Parabola",
//	    log.EstimatorIDKey, runID,
//	)
//	logger.Debug("descent step",
//	    log.IterationKey, 3,
//	    log.LossKey, 0.42,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. The With method returns a child
// logger carrying pre-populated fields, which is how a run id or model name
// is attached once per fit.
type Logger interface {
	// Debug logs a debug-level message. Per-iteration progress of descent
	// and k-means is logged at this level.
	Debug(msg string, fields ...any)

	// Info logs an info-level message, e.g. a finished fit.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message.
	Warn(msg string, fields ...any)

	// Error logs an error-level message. If the first field is an error
	// (odd number of fields), it is attached as the record's error.
	//
	//   logger.Error("load failed", err, log.OperationKey, log.OperationLoad)
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	// Hot loops check it before assembling fields.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates named loggers; used to hand a component-scoped
// logger to each subsystem.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger with a component identifier.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for loggers created by this provider.
	SetLevel(level Level)
}

// Package logging provides the logging interface and default implementations for levelkv.
//
// Design: four-level interface (Error, Warn, Info, Debug). The binding logs
// lifecycle events only (library staging, database open/close, leaked handles
// reclaimed on close); hot-path calls such as Get and Put never log.
// Users can wrap their own structured loggers; NewZapLogger adapts zap.
//
// Log format: YYYY/MM/DD HH:MM:SS LEVEL [component] message
//
// Example: 2026/10/16 18:45:13 INFO [loader] staged libleveldb.so
//
// Component namespace prefixes are used for filtering:
//   - [loader]: native library staging and loading
//   - [db]: database lifecycle
//   - [iter]: iterator lifecycle
//   - [batch]: write batch replay
//   - [cmp]: comparator callbacks
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"reflect"
	"sync/atomic"
)

// Level represents the logging level.
type Level int32

const (
	// LevelError logs only errors.
	LevelError Level = iota
	// LevelWarn logs warnings and errors.
	LevelWarn
	// LevelInfo logs info, warnings, and errors.
	LevelInfo
	// LevelDebug logs everything including debug messages.
	LevelDebug
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// Logger defines the interface for binding logging.
//
// Implementations must be safe for concurrent use: databases opened on
// different goroutines share the process-wide loader logger.
type Logger interface {
	// Errorf logs a formatted error message.
	Errorf(format string, args ...any)

	// Warnf logs a formatted warning message.
	Warnf(format string, args ...any)

	// Infof logs a formatted informational message.
	Infof(format string, args ...any)

	// Debugf logs a formatted debug message.
	Debugf(format string, args ...any)
}

// DefaultLogger writes leveled lines through a stdlib log.Logger.
// It is safe for concurrent use.
type DefaultLogger struct {
	logger *log.Logger
	level  atomic.Int32
}

// NewDefaultLogger creates a logger writing to stderr at the given level.
func NewDefaultLogger(level Level) *DefaultLogger {
	return NewLogger(os.Stderr, level)
}

// NewLogger creates a logger writing to w at the given level.
func NewLogger(w io.Writer, level Level) *DefaultLogger {
	l := &DefaultLogger{logger: log.New(w, "", log.LstdFlags)}
	l.level.Store(int32(level))
	return l
}

// Level returns the logging level.
func (l *DefaultLogger) Level() Level {
	return Level(l.level.Load())
}

// SetLevel changes the logging level.
func (l *DefaultLogger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *DefaultLogger) output(level Level, msg string) {
	if l.Level() >= level {
		_ = l.logger.Output(3, level.String()+" "+msg)
	}
}

// Error logs an error message.
func (l *DefaultLogger) Error(msg string) { l.output(LevelError, msg) }

// Errorf logs a formatted error message.
func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.output(LevelError, fmt.Sprintf(format, args...))
}

// Warn logs a warning message.
func (l *DefaultLogger) Warn(msg string) { l.output(LevelWarn, msg) }

// Warnf logs a formatted warning message.
func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.output(LevelWarn, fmt.Sprintf(format, args...))
}

// Info logs an informational message.
func (l *DefaultLogger) Info(msg string) { l.output(LevelInfo, msg) }

// Infof logs a formatted informational message.
func (l *DefaultLogger) Infof(format string, args ...any) {
	l.output(LevelInfo, fmt.Sprintf(format, args...))
}

// Debug logs a debug message.
func (l *DefaultLogger) Debug(msg string) { l.output(LevelDebug, msg) }

// Debugf logs a formatted debug message.
func (l *DefaultLogger) Debugf(format string, args ...any) {
	l.output(LevelDebug, fmt.Sprintf(format, args...))
}

// Namespace prefixes for log messages.
const (
	// NSLoader is the namespace for native library staging and loading.
	NSLoader = "[loader] "
	// NSDB is the namespace for database lifecycle events.
	NSDB = "[db] "
	// NSIter is the namespace for iterator lifecycle events.
	NSIter = "[iter] "
	// NSBatch is the namespace for write batch replay.
	NSBatch = "[batch] "
	// NSCmp is the namespace for comparator callbacks.
	NSCmp = "[cmp] "
)

// IsNil returns true if the logger is nil or a typed-nil.
// A typed-nil occurs when a nil pointer is assigned to an interface:
//
//	var l *MyLogger = nil
//	opts.Logger = l  // Interface is not nil, but underlying pointer is
//
// Calling methods on a typed-nil panics, so this function detects both cases.
func IsNil(l Logger) bool {
	if l == nil {
		return true
	}
	v := reflect.ValueOf(l)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// OrDefault returns l if it is usable, otherwise a WARN-level stderr logger.
func OrDefault(l Logger) Logger {
	if IsNil(l) {
		return NewDefaultLogger(LevelWarn)
	}
	return l
}

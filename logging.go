// Copyright 2025 The zsock Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zsock

import (
	"io"
	"log"
	"os"
)

// LogLevel represents logging verbosity.
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarn:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// Logger provides leveled logging for sockets. Per-peer failures
// (dropped broadcast messages, malformed control frames, handshake
// rejections) are logged, never surfaced as socket errors.
type Logger struct {
	logger *log.Logger
	level  LogLevel
}

// NewLogger creates a Logger writing to stderr at the given level.
func NewLogger(level LogLevel) *Logger {
	return NewLoggerWithWriter(os.Stderr, level)
}

// NewLoggerWithWriter creates a Logger with a custom writer and level.
func NewLoggerWithWriter(w io.Writer, level LogLevel) *Logger {
	return &Logger{
		logger: log.New(w, "zsock: ", log.LstdFlags),
		level:  level,
	}
}

// SetLevel sets the minimum logging level.
func (l *Logger) SetLevel(level LogLevel) { l.level = level }

// IsEnabled checks if a log level is enabled.
func (l *Logger) IsEnabled(level LogLevel) bool { return level <= l.level }

// Error logs at error level.
func (l *Logger) Error(format string, args ...interface{}) {
	if l.IsEnabled(LogLevelError) {
		l.logger.Printf("[ERROR] "+format, args...)
	}
}

// Warn logs at warning level.
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.IsEnabled(LogLevelWarn) {
		l.logger.Printf("[WARN] "+format, args...)
	}
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...interface{}) {
	if l.IsEnabled(LogLevelInfo) {
		l.logger.Printf("[INFO] "+format, args...)
	}
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.IsEnabled(LogLevelDebug) {
		l.logger.Printf("[DEBUG] "+format, args...)
	}
}

var (
	// DevNullLogger discards all output.
	DevNullLogger = NewLoggerWithWriter(io.Discard, LogLevelError)

	// DefaultLogger logs warnings and errors to stderr.
	DefaultLogger = NewLogger(LogLevelWarn)
)

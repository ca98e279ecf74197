// MCL - Mission Clone
// Copyright (C) 2025 blubskye
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Source code: https://github.com/blubskye/mission_clone

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents the logging level
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

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
	case LevelTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a Level
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info", "":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "trace":
		return LevelTrace, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}

// sink is the state shared by a logger and all of its children
type sink struct {
	mu            sync.Mutex
	level         Level
	console       io.Writer
	output        io.Writer
	logFile       *os.File
	showTimestamp bool
	showCaller    bool
}

// Logger writes leveled, prefixed lines. Loggers derived with With share
// level and output with their parent.
type Logger struct {
	sink   *sink
	prefix string
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Default returns the default logger instance
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New(os.Stderr)
	})
	return defaultLogger
}

// New creates a logger writing to w at info level
func New(w io.Writer) *Logger {
	return &Logger{
		sink: &sink{
			level:         LevelInfo,
			console:       w,
			output:        w,
			showTimestamp: true,
		},
	}
}

// With returns a child logger whose messages carry an extra prefix segment
func (l *Logger) With(prefix string) *Logger {
	p := prefix
	if l.prefix != "" {
		p = l.prefix + "/" + prefix
	}
	return &Logger{sink: l.sink, prefix: p}
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// SetLevelFromString sets the logging level from a string
func (l *Logger) SetLevelFromString(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.SetLevel(lvl)
	return nil
}

// Enabled reports whether messages at level would be written
func (l *Logger) Enabled(level Level) bool {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return level <= l.sink.level
}

// SetOutput sets the console writer. An open log file keeps receiving a copy.
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.console = w
	if l.sink.logFile != nil {
		l.sink.output = io.MultiWriter(w, l.sink.logFile)
		return
	}
	l.sink.output = w
}

// SetLogFile mirrors output to a file in addition to the console writer
func (l *Logger) SetLogFile(path string) error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if l.sink.logFile != nil {
		l.sink.logFile.Close()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.sink.logFile = f
	l.sink.output = io.MultiWriter(l.sink.console, f)
	return nil
}

// EnableTimestamp enables/disables timestamps in log output
func (l *Logger) EnableTimestamp(enable bool) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.showTimestamp = enable
}

// EnableCaller enables/disables caller information in log output
func (l *Logger) EnableCaller(enable bool) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.showCaller = enable
}

// Close closes the log file, if any
func (l *Logger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if l.sink.logFile != nil {
		err := l.sink.logFile.Close()
		l.sink.logFile = nil
		l.sink.output = l.sink.console
		return err
	}
	return nil
}

func (l *Logger) log(level Level, format string, args ...any) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	if level > s.level {
		return
	}

	var b strings.Builder

	if s.showTimestamp {
		b.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
		b.WriteString(" ")
	}

	b.WriteString("[")
	b.WriteString(level.String())
	b.WriteString("] ")

	if l.prefix != "" {
		b.WriteString("[")
		b.WriteString(l.prefix)
		b.WriteString("] ")
	}

	if s.showCaller {
		if _, file, line, ok := runtime.Caller(2); ok {
			fmt.Fprintf(&b, "%s:%d ", filepath.Base(file), line)
		}
	}

	if len(args) > 0 {
		fmt.Fprintf(&b, format, args...)
	} else {
		b.WriteString(format)
	}
	b.WriteString("\n")

	fmt.Fprint(s.output, b.String())
}

// Error logs an error message
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

// Trace logs a trace message
func (l *Logger) Trace(format string, args ...any) {
	l.log(LevelTrace, format, args...)
}

// Package-level convenience functions using the default logger

// SetLevelFromString sets the default logger level from a string
func SetLevelFromString(level string) error {
	return Default().SetLevelFromString(level)
}

// SetLogFile sets a log file for the default logger
func SetLogFile(path string) error {
	return Default().SetLogFile(path)
}

// With returns a child of the default logger
func With(prefix string) *Logger {
	return Default().With(prefix)
}

// Error logs an error using the default logger
func Error(format string, args ...any) {
	Default().log(LevelError, format, args...)
}

// Warn logs a warning using the default logger
func Warn(format string, args ...any) {
	Default().log(LevelWarn, format, args...)
}

// Info logs info using the default logger
func Info(format string, args ...any) {
	Default().log(LevelInfo, format, args...)
}

// Debug logs debug using the default logger
func Debug(format string, args ...any) {
	Default().log(LevelDebug, format, args...)
}

// Trace logs trace using the default logger
func Trace(format string, args ...any) {
	Default().log(LevelTrace, format, args...)
}

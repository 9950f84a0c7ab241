package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// Level is the logging level.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

var levelNames = map[Level]string{
	Debug: "DEBUG",
	Info:  "INFO",
	Warn:  "WARN",
	Error: "ERROR",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return "INFO"
}

// Options configures the process logger.
type Options struct {
	Enabled bool
	Level   string
	File    string
	Console bool
}

// Logger is a leveled wrapper over the standard logger.
type Logger struct {
	level  Level
	logger *log.Logger
	closer io.Closer
	now    func() time.Time
}

var current atomic.Pointer[Logger]

// Init installs the process logger. Until Init is called nothing is logged.
func Init(opts Options) error {
	if !opts.Enabled {
		swap(nil)
		return nil
	}

	var writers []io.Writer
	var closer io.Closer
	if opts.File != "" {
		dir := filepath.Dir(opts.File)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, f)
		closer = f
	}
	if opts.Console || len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	l := New(io.MultiWriter(writers...), ParseLevel(opts.Level))
	l.closer = closer
	swap(l)
	return nil
}

// New builds a logger writing to w. Used directly by tests.
func New(w io.Writer, level Level) *Logger {
	return &Logger{level: level, logger: log.New(w, "", 0), now: time.Now}
}

// Use installs l as the process logger and returns a restore func.
func Use(l *Logger) func() {
	prev := current.Swap(l)
	return func() { current.Store(prev) }
}

// Close flushes and closes the log file, if any.
func Close() error {
	return swap(nil)
}

func swap(l *Logger) error {
	prev := current.Swap(l)
	if prev != nil && prev.closer != nil {
		return prev.closer.Close()
	}
	return nil
}

// ParseLevel maps a config string to a Level, defaulting to Info.
func ParseLevel(levelStr string) Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func (l *Logger) printf(level Level, format string, args ...interface{}) {
	if l == nil || level < l.level {
		return
	}
	ts := l.now().Format("2006-01-02 15:04:05")
	l.logger.Printf("[%s] [%s] %s", ts, level, fmt.Sprintf(format, args...))
}

// Enabled reports whether a message at level would be written.
func Enabled(level Level) bool {
	l := current.Load()
	return l != nil && level >= l.level
}

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) {
	current.Load().printf(Debug, format, args...)
}

// Infof logs an info message.
func Infof(format string, args ...interface{}) {
	current.Load().printf(Info, format, args...)
}

// Warnf logs a warning.
func Warnf(format string, args ...interface{}) {
	current.Load().printf(Warn, format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	current.Load().printf(Error, format, args...)
}

package logger

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/q191201771/naza/pkg/nazalog"
)

// Level represents logging level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns string representation of Level
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

// ParseLevel maps a config string to a Level. Unknown names fall back to LevelInfo.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "warn", "WARN", "warning":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is the interface for logging
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	SetLevel(level Level)
}

// DefaultLogger writes through a nazalog backend. The backend is opened
// once and passes everything; the level is filtered here, so changing it
// never reopens the log file.
type DefaultLogger struct {
	mu       sync.RWMutex
	level    Level
	filename string
	backend  nazalog.Logger
}

// NewDefaultLogger creates a logger writing to stdout
func NewDefaultLogger(level Level) *DefaultLogger {
	return NewFileLogger(level, "")
}

// NewFileLogger creates a logger that also appends to filename when it is not empty
func NewFileLogger(level Level, filename string) *DefaultLogger {
	return &DefaultLogger{
		level:    level,
		filename: filename,
		backend:  newBackend(filename),
	}
}

func newBackend(filename string) nazalog.Logger {
	backend, err := nazalog.New(func(option *nazalog.Option) {
		option.Level = nazalog.LevelDebug
		option.Filename = filename
		option.IsToStdout = true
	})
	if err != nil {
		// nazalog only fails when the file cannot be opened
		backend, _ = nazalog.New(func(option *nazalog.Option) {
			option.Level = nazalog.LevelDebug
			option.IsToStdout = true
		})
	}
	return backend
}

// Filename returns the file the logger appends to, empty for stdout only
func (l *DefaultLogger) Filename() string {
	return l.filename
}

func (l *DefaultLogger) get() (Level, nazalog.Logger) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level, l.backend
}

// Debug logs debug message
func (l *DefaultLogger) Debug(format string, args ...interface{}) {
	if level, b := l.get(); level <= LevelDebug {
		b.Debugf(format, args...)
	}
}

// Info logs info message
func (l *DefaultLogger) Info(format string, args ...interface{}) {
	if level, b := l.get(); level <= LevelInfo {
		b.Infof(format, args...)
	}
}

// Warn logs warning message
func (l *DefaultLogger) Warn(format string, args ...interface{}) {
	if level, b := l.get(); level <= LevelWarn {
		b.Warnf(format, args...)
	}
}

// Error logs error message
func (l *DefaultLogger) Error(format string, args ...interface{}) {
	if level, b := l.get(); level <= LevelError {
		b.Errorf(format, args...)
	}
}

// SetLevel sets the logging level
func (l *DefaultLogger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Level returns the current logging level
func (l *DefaultLogger) Level() Level {
	level, _ := l.get()
	return level
}

// NoOpLogger is a logger that doesn't log anything
type NoOpLogger struct{}

// NewNoOpLogger creates a logger that doesn't log
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// Debug does nothing
func (l *NoOpLogger) Debug(format string, args ...interface{}) {}

// Info does nothing
func (l *NoOpLogger) Info(format string, args ...interface{}) {}

// Warn does nothing
func (l *NoOpLogger) Warn(format string, args ...interface{}) {}

// Error does nothing
func (l *NoOpLogger) Error(format string, args ...interface{}) {}

// SetLevel does nothing
func (l *NoOpLogger) SetLevel(level Level) {}

// Global default logger
var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = NewDefaultLogger(LevelInfo)
	frameDebug    atomic.Bool
)

// SetDefault sets the default logger
func SetDefault(logger Logger) {
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}

// GetDefault returns the default logger
func GetDefault() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetFrameDebug toggles hex dumps of every processed frame
func SetFrameDebug(enable bool) {
	frameDebug.Store(enable)
}

// FrameDebug reports whether frame hex dumps are enabled
func FrameDebug() bool {
	return frameDebug.Load()
}

// Helper functions using default logger

// Debug logs debug message using default logger
func Debug(format string, args ...interface{}) {
	GetDefault().Debug(format, args...)
}

// Info logs info message using default logger
func Info(format string, args ...interface{}) {
	GetDefault().Info(format, args...)
}

// Warn logs warning message using default logger
func Warn(format string, args ...interface{}) {
	GetDefault().Warn(format, args...)
}

// Error logs error message using default logger
func Error(format string, args ...interface{}) {
	GetDefault().Error(format, args...)
}

// Logf is a generic logging function
func Logf(level Level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	switch level {
	case LevelDebug:
		Debug("%s", msg)
	case LevelInfo:
		Info("%s", msg)
	case LevelWarn:
		Warn("%s", msg)
	case LevelError:
		Error("%s", msg)
	}
}

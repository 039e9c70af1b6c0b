package dvbci

import (
	"avaneesh/dvbci-go/pkg/internal/logger"
)

// LogLevel represents logging level
type LogLevel int

const (
	// LevelDebug shows all log messages (most verbose)
	LevelDebug LogLevel = iota
	// LevelInfo shows info, warn, and error messages (default)
	LevelInfo
	// LevelWarn shows warn and error messages
	LevelWarn
	// LevelError shows only error messages
	LevelError
)

// ParseLogLevel maps a configuration value to a LogLevel
func ParseLogLevel(s string) LogLevel {
	return LogLevel(logger.ParseLevel(s))
}

// SetLogLevel sets the global logging level. The current logger is kept
// when it supports levels, so its output file stays open.
func SetLogLevel(level LogLevel) {
	if l, ok := logger.GetDefault().(*logger.DefaultLogger); ok {
		l.SetLevel(logger.Level(level))
		return
	}
	logger.SetDefault(logger.NewDefaultLogger(logger.Level(level)))
}

// SetLogFile sets the global logging level and also appends log output to
// filename. A new logger is only created when filename changes.
func SetLogFile(level LogLevel, filename string) {
	if l, ok := logger.GetDefault().(*logger.DefaultLogger); ok && l.Filename() == filename {
		l.SetLevel(logger.Level(level))
		return
	}
	logger.SetDefault(logger.NewFileLogger(logger.Level(level), filename))
}

// EnableFrameDebug enables or disables hex dumps of every processed frame
func EnableFrameDebug(enable bool) {
	logger.SetFrameDebug(enable)
}

// Logger returns the global logger
func Logger() logger.Logger {
	return logger.GetDefault()
}

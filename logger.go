package askdocs

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// LogLevel represents the severity of a log message. Higher values are more
// verbose.
type LogLevel int

const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// Logger is the structured logging interface used across the package.
// Key-value pairs follow the message.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	SetLevel(level LogLevel)
}

// DefaultLogger writes leveled messages to stderr via the standard library.
type DefaultLogger struct {
	logger *log.Logger
	level  LogLevel
}

// NewLogger creates a DefaultLogger writing to os.Stderr at the given level.
func NewLogger(level LogLevel) Logger {
	return &DefaultLogger{
		logger: log.New(os.Stderr, "", log.LstdFlags),
		level:  level,
	}
}

func (l *DefaultLogger) SetLevel(level LogLevel) { l.level = level }

func (l *DefaultLogger) log(level LogLevel, msg string, keysAndValues ...interface{}) {
	if level <= l.level {
		l.logger.Printf("%s: %s %v", level, msg, keysAndValues)
	}
}

func (l *DefaultLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(LogLevelDebug, msg, keysAndValues...)
}

func (l *DefaultLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log(LogLevelInfo, msg, keysAndValues...)
}

func (l *DefaultLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(LogLevelWarn, msg, keysAndValues...)
}

func (l *DefaultLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log(LogLevelError, msg, keysAndValues...)
}

func (l LogLevel) String() string {
	return [...]string{"OFF", "ERROR", "WARN", "INFO", "DEBUG"}[l]
}

// ParseLogLevel converts a configuration string into a LogLevel.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(s) {
	case "OFF":
		return LogLevelOff, nil
	case "ERROR":
		return LogLevelError, nil
	case "WARN":
		return LogLevelWarn, nil
	case "INFO":
		return LogLevelInfo, nil
	case "DEBUG":
		return LogLevelDebug, nil
	default:
		return LogLevelOff, fmt.Errorf("invalid log level: %s", s)
	}
}

// GlobalLogger is the package-level logger used when no Logger is injected.
var GlobalLogger Logger = NewLogger(LogLevelInfo)

// SetLogLevel adjusts the verbosity of the package-level logger.
func SetLogLevel(level LogLevel) {
	GlobalLogger.SetLevel(level)
}

// Debug logs a debug message on the package-level logger.
func Debug(msg string, keysAndValues ...interface{}) {
	GlobalLogger.Debug(msg, keysAndValues...)
}

// Info logs an info message on the package-level logger.
func Info(msg string, keysAndValues ...interface{}) {
	GlobalLogger.Info(msg, keysAndValues...)
}

// Warn logs a warning message on the package-level logger.
func Warn(msg string, keysAndValues ...interface{}) {
	GlobalLogger.Warn(msg, keysAndValues...)
}

// Error logs an error message on the package-level logger.
func Error(msg string, keysAndValues ...interface{}) {
	GlobalLogger.Error(msg, keysAndValues...)
}

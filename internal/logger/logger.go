// Package logger provides leveled logging with support for debug, info, warn, and error levels.
// It keeps a small printf-style facade over a shared logrus logger so callers never
// deal with logrus directly.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// Global logger instance. Usable before Init with logrus defaults.
	defaultLogger = logrus.New()
)

// Init initializes the default logger with the specified level and format
func Init(level string, format string) {
	l, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		l = logrus.InfoLevel
	}
	defaultLogger.SetLevel(l)
	defaultLogger.SetOutput(os.Stderr)

	if strings.ToLower(format) == "text" {
		defaultLogger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000000",
		})
	} else {
		defaultLogger.SetFormatter(&logrus.JSONFormatter{})
	}
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
}

// WithField returns an entry carrying a structured field.
func WithField(key string, value interface{}) *logrus.Entry {
	return defaultLogger.WithField(key, value)
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	defaultLogger.Debugf(format, args...)
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	defaultLogger.Infof(format, args...)
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	defaultLogger.Warnf(format, args...)
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	defaultLogger.Errorf(format, args...)
}

// Fatal logs a message at FatalLevel and exits
func Fatal(format string, args ...interface{}) {
	defaultLogger.Fatalf(format, args...)
}

// Package util provides helper functions for logging events
package util

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger. Components derive scoped entries with For.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stdout)
	Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// SetupLogger sets the level and formatter. Unknown levels fall back to info.
// LOG_FORMAT=json switches to the JSON formatter.
func SetupLogger(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)
	if os.Getenv("LOG_FORMAT") == "json" {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	}
}

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return Logger.WithField("component", component)
}

// Success logs an info line marked as a successful transition.
func Success(e *logrus.Entry, msg string, args ...any) {
	e.WithField("status", "success").Info(fmt.Sprintf(msg, args...))
}

// Info prints general system information messages.
func Info(msg string, args ...any) {
	Logger.Infof(msg, args...)
}

// Error prints error messages.
func Error(msg string, args ...any) {
	Logger.Errorf(msg, args...)
}

// Package logging provides centralized logging functionality using logrus.
// It configures structured logging for the long-running exporter (JSON to
// stdout and a file) and for one-shot commands (text to stderr).
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

var currentTime = time.Now()
var version = currentTime.Format("2006-01-02T15:04:05")

// programName is used as a field in all log entries for identification
var programName = "ncm_client-" + version

// LogInfo logs an informational message with the programName field.
func LogInfo(msg string) {
	log.WithFields(log.Fields{"job": programName}).Info(msg)
}

// LogError logs the provided error message with the programName field.
// This function should be used to log recoverable errors that do not terminate the program.
func LogError(msg string) {
	log.WithFields(log.Fields{"job": programName}).Error(msg)
}

// Component returns an entry tagged with the job and component fields.
// It is handed to the NCM client through ncm.WithLogger.
func Component(name string) *log.Entry {
	return log.WithFields(log.Fields{"job": programName, "component": name})
}

// PrepareLogs initializes the logging system with the specified log file.
// It configures logging to write to both stdout and the log file with JSON formatting.
//
// Returns an error if the log file cannot be opened or created.
func PrepareLogs(logName string) error {
	logFile, err := os.OpenFile(logName, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	mw := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(mw)
	log.SetFormatter(&log.JSONFormatter{})
	return nil
}

// PrepareConsoleLogs routes logs to w for one-shot commands, whose stdout
// carries the command result. jsonFormat selects the JSON formatter.
func PrepareConsoleLogs(w io.Writer, jsonFormat bool) {
	log.SetOutput(w)
	if jsonFormat {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
}

// SetDebug switches the standard logger to debug level when enabled.
func SetDebug(enabled bool) {
	if enabled {
		log.SetLevel(log.DebugLevel)
		log.Debug("Debug mode enabled")
	}
}

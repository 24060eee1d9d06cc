// Package logging provides the leveled file loggers used across the
// registration and service layers, plus a handful of debug-only
// diagnostics for behavior the spec calls out as intentional but worth
// a breadcrumb (e.g. sha1 outbound substitution).
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

var (
	InfoLogger    *log.Logger
	ErrorLogger   *log.Logger
	WarningLogger *log.Logger
	DebugLogger   *log.Logger
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
)

// LogConfig mirrors config.Config.Logging; kept as its own type so this
// package has no import-time dependency on config.
type LogConfig struct {
	LogDir     string
	MaxSize    int64
	MaxBackups int
	LogLevel   LogLevel
}

// InitLogging opens (or creates) today's log file and wires the four
// leveled loggers to it. Safe to call again after rotateLog swaps the
// file out from under it.
func InitLogging(config *LogConfig) error {
	if config == nil {
		config = &LogConfig{
			LogDir:     "logs",
			MaxSize:    10 * 1024 * 1024,
			MaxBackups: 5,
			LogLevel:   INFO,
		}
	}

	if err := os.MkdirAll(config.LogDir, 0755); err != nil {
		return fmt.Errorf("logging: failed to create log directory: %w", err)
	}

	logFile := filepath.Join(config.LogDir, fmt.Sprintf("mfa-core_%s.log", time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("logging: failed to open log file: %w", err)
	}

	flags := log.Ldate | log.Ltime | log.LUTC
	DebugLogger = log.New(file, "DEBUG: ", flags)
	InfoLogger = log.New(file, "INFO: ", flags)
	WarningLogger = log.New(file, "WARNING: ", flags)
	ErrorLogger = log.New(file, "ERROR: ", flags)

	go monitorLogSize(config, logFile)

	return nil
}

func monitorLogSize(config *LogConfig, logFile string) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if info, err := os.Stat(logFile); err == nil {
			if info.Size() > config.MaxSize {
				rotateLog(config, logFile)
				return
			}
		}
	}
}

func rotateLog(config *LogConfig, logFile string) {
	for i := config.MaxBackups - 1; i > 0; i-- {
		oldFile := fmt.Sprintf("%s.%d", logFile, i)
		newFile := fmt.Sprintf("%s.%d", logFile, i+1)
		os.Rename(oldFile, newFile)
	}
	os.Rename(logFile, logFile+".1")
	InitLogging(config)
}

// Log formats and writes a message at level, tagging it with the
// caller's file:line.
func Log(level LogLevel, format string, v ...interface{}) {
	_, file, line, _ := runtime.Caller(1)
	message := fmt.Sprintf("%s:%d: %s", filepath.Base(file), line, fmt.Sprintf(format, v...))

	var logger *log.Logger
	switch level {
	case DEBUG:
		logger = DebugLogger
	case INFO:
		logger = InfoLogger
	case WARNING:
		logger = WarningLogger
	case ERROR:
		logger = ErrorLogger
	}
	if logger != nil {
		logger.Output(2, message)
	}
}

// DebugSHA1Substitution logs, at DEBUG level only, that an outbound
// SigningAlgorithm canonicalization silently substituted its default
// non-sha1 spelling because the server advertised sha1 (spec §9 Open
// Question: the substitution is intentional and must not be treated as
// a bug, but it is worth a breadcrumb when it fires).
func DebugSHA1Substitution(variant, substituted string) {
	if DebugLogger == nil {
		return
	}
	Log(DEBUG, "sha1 outbound substitution fired: variant=%s substituted=%s", variant, substituted)
}

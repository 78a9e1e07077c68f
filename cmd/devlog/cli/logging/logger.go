// Package logging provides structured logging for the devlog tooling using
// slog.
//
// Hook-spawned sync runs must stay silent on the terminal, so logs go to a
// JSON file under the devlog directory; when the file cannot be opened the
// logger falls back to stderr. Log level comes from the DEVLOG_LOG_LEVEL
// environment variable, then the repository settings, then "info".
package logging

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogLevelEnvVar is the environment variable that controls log level.
const LogLevelEnvVar = "DEVLOG_LOG_LEVEL"

// LogFileName is the log file created inside the logs directory.
const LogFileName = "devlog.log"

var (
	logger       *slog.Logger
	logFile      *os.File
	logBufWriter *bufio.Writer

	// mu protects logger, logFile and logBufWriter.
	mu sync.RWMutex
)

// Init initializes the logger, writing JSON logs to logsDir/devlog.log.
// levelStr is the configured level; the environment variable wins over it.
// If the log file cannot be created, falls back to stderr.
func Init(logsDir, levelStr string) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()

	if env := os.Getenv(LogLevelEnvVar); env != "" {
		levelStr = env
	}
	level := parseLogLevel(levelStr)
	if levelStr != "" && !isValidLogLevel(levelStr) {
		fmt.Fprintf(os.Stderr, "[devlog] Warning: invalid log level %q, defaulting to INFO\n", levelStr)
	}

	if err := os.MkdirAll(logsDir, 0o750); err != nil {
		logger = createLogger(os.Stderr, level)
		return nil
	}

	f, err := os.OpenFile(filepath.Join(logsDir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // path built from constants
	if err != nil {
		logger = createLogger(os.Stderr, level)
		return nil
	}

	logFile = f
	logBufWriter = bufio.NewWriterSize(f, 8192)
	logger = createLogger(logBufWriter, level)

	return nil
}

// Close flushes and closes the log file if one is open.
// Safe to call multiple times.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
}

func closeLocked() {
	if logBufWriter != nil {
		_ = logBufWriter.Flush()
		logBufWriter = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	logger = nil
}

// getLogger returns the current logger, or a default stderr logger if not
// initialized.
func getLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()

	if logger == nil {
		return slog.Default()
	}
	return logger
}

// Debug logs at debug level.
func Debug(msg string, args ...any) { getLogger().Debug(msg, args...) }

// Info logs at info level.
func Info(msg string, args ...any) { getLogger().Info(msg, args...) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { getLogger().Warn(msg, args...) }

// Error logs at error level.
func Error(msg string, args ...any) { getLogger().Error(msg, args...) }

func createLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isValidLogLevel(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
		return true
	default:
		return false
	}
}

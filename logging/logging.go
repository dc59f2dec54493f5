package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	logger   *slog.Logger
	levelVar = new(slog.LevelVar)
	output   io.Writer = os.Stderr
	logFile  *os.File
	runID    = uuid.NewString()
	mu       sync.Mutex
	isSetup  bool
)

func init() {
	rebuild()
}

// rebuild recreates the package logger from the current output and level.
// Callers must hold mu, except during init.
func rebuild() {
	var w io.Writer = output
	if logFile != nil {
		w = io.MultiWriter(output, logFile)
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar})
	logger = slog.New(handler).With(slog.String("run_id", runID))
}

// ParseLevel maps a level name to a slog level. Unknown names return false.
func ParseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// SetLevel changes the minimum level written by the logger
func SetLevel(level slog.Level) {
	levelVar.Set(level)
}

// SetOutput redirects console output (stderr by default)
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	output = w
	rebuild()
}

// SetupLogger additionally writes every log record to the given file
func SetupLogger(logFilePath string) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	rebuild()

	logger.Info("log started", slog.String("file", logFilePath), slog.String("at", time.Now().Format(time.RFC3339)))

	isSetup = true
	return nil
}

// CloseLogger closes the log file
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logger.Info("log closed", slog.String("at", time.Now().Format(time.RFC3339)))
		logFile.Close()
		logFile = nil
		isSetup = false
		rebuild()
	}
}

// Logger returns the structured logger for callers that want attributes
func Logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// RunID identifies this process in log output
func RunID() string {
	return runID
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	Logger().Info(fmt.Sprintf(format, args...))
}

// DebugLog logs a message if debug level is enabled
func DebugLog(format string, args ...interface{}) {
	Logger().Debug(fmt.Sprintf(format, args...))
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	Logger().Error(fmt.Sprintf(format, args...))
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	Logger().Warn(fmt.Sprintf(format, args...))
}

// LogImageProcessed logs the outcome of hashing one image
func LogImageProcessed(path string, success bool, errMsg string) {
	if success {
		Logger().Debug("hashed", slog.String("path", path))
		return
	}
	Logger().Warn("skipped image", slog.String("path", path), slog.String("error", errMsg))
}

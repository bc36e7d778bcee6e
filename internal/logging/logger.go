// Package logging provides structured logging for the attribution engine
// using slog, carrying component/base-commit/agent context automatically
// (spec §5, "Shared resources" and §7 error-kind reporting).
//
// Usage:
//
//	if err := logging.Init(); err != nil { /* falls back to stderr */ }
//	defer logging.Close()
//	ctx = logging.WithComponent(ctx, "reconcile")
//	logging.Info(ctx, "post-commit reconciled", slog.String("commit", sha))
package logging

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/entireio/gitauthor/internal/paths"
)

// LogLevelEnvVar controls the log level.
const LogLevelEnvVar = "GITAUTHOR_LOG_LEVEL"

// LogsDir is the directory where log files are stored, relative to repo root.
const LogsDir = ".gitauthor/logs"

var (
	mu           sync.RWMutex
	logger       *slog.Logger
	logFile      *os.File
	logBufWriter *bufio.Writer
)

// Init opens the engine's log file at .gitauthor/logs/engine.log, falling
// back to stderr if the repository root can't be resolved or the file can't
// be opened. Log level is controlled by GITAUTHOR_LOG_LEVEL.
func Init() error {
	mu.Lock()
	defer mu.Unlock()

	if logBufWriter != nil {
		_ = logBufWriter.Flush()
		logBufWriter = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	level := parseLogLevel(os.Getenv(LogLevelEnvVar))

	repoRoot, err := paths.RepoRoot()
	if err != nil {
		repoRoot = "."
	}

	logsPath := filepath.Join(repoRoot, LogsDir)
	if err := os.MkdirAll(logsPath, 0o750); err != nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	}

	f, err := os.OpenFile(filepath.Join(logsPath, "engine.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	}

	logFile = f
	logBufWriter = bufio.NewWriterSize(f, 8192)
	logger = slog.New(slog.NewJSONHandler(logBufWriter, &slog.HandlerOptions{Level: level}))
	return nil
}

// Close flushes and closes the log file, if one is open. Safe to call
// multiple times.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logBufWriter != nil {
		_ = logBufWriter.Flush()
		logBufWriter = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func getLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs at DEBUG level with context values automatically extracted.
func Debug(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelDebug, msg, attrs...) }

// Info logs at INFO level with context values automatically extracted.
func Info(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelInfo, msg, attrs...) }

// Warn logs at WARN level with context values automatically extracted.
func Warn(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelWarn, msg, attrs...) }

// Error logs at ERROR level with context values automatically extracted.
func Error(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelError, msg, attrs...) }

func log(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	l := getLogger()

	var allAttrs []any
	if c := componentFromContext(ctx); c != "" {
		allAttrs = append(allAttrs, slog.String("component", c))
	}
	if b := baseCommitFromContext(ctx); b != "" {
		allAttrs = append(allAttrs, slog.String("base_commit", b))
	}
	if a := agentFromContext(ctx); a != "" {
		allAttrs = append(allAttrs, slog.String("agent", a))
	}
	allAttrs = append(allAttrs, attrs...)

	l.Log(nil, level, msg, allAttrs...) //nolint:staticcheck // context values already extracted as attributes
}

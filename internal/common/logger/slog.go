package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// SetupLoggerWithWriter builds a text slog.Logger writing to w. verboseMode forces
// DEBUG regardless of logLevel. The interactive menu owns stdout, so callers pass
// stderr here.
func SetupLoggerWithWriter(w io.Writer, verboseMode bool, logLevel string) *slog.Logger {
	level := ParseLogLevel(logLevel)
	if verboseMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ParseLogLevel maps DEBUG, INFO, WARN (or WARNING) and ERROR to slog levels,
// case-insensitively. Anything else is INFO.
func ParseLogLevel(levelStr string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
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

func logAt(l *slog.Logger, level slog.Level, msg string, args []any) {
	if l == nil {
		return
	}
	l.Log(context.Background(), level, msg, args...)
}

// LogDebug, LogInfo, LogWarn and LogError are no-ops on a nil logger.
func LogDebug(l *slog.Logger, msg string, args ...any) { logAt(l, slog.LevelDebug, msg, args) }

func LogInfo(l *slog.Logger, msg string, args ...any) { logAt(l, slog.LevelInfo, msg, args) }

func LogWarn(l *slog.Logger, msg string, args ...any) { logAt(l, slog.LevelWarn, msg, args) }

func LogError(l *slog.Logger, msg string, args ...any) { logAt(l, slog.LevelError, msg, args) }

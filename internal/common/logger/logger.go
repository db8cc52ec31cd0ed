package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogFormat selects the on-disk format of the audit log.
type LogFormat string

const (
	FormatCSV  LogFormat = "csv"
	FormatJSON LogFormat = "json"
	FormatNone LogFormat = "none"
)

// Logger records one row per operation performed by a tool.
// Implementations prepend a timestamp to every row.
type Logger interface {
	WriteHeader(columns []string) error
	WriteRow(row []string) error
	ShouldWriteHeader() (bool, error)
	Path() string
	Close() error
}

// ParseLogFormat converts a user supplied format name into a LogFormat.
// An empty string selects CSV.
func ParseLogFormat(s string) (LogFormat, error) {
	switch LogFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON, "jsonl":
		return FormatJSON, nil
	case FormatNone, "off":
		return FormatNone, nil
	default:
		return "", fmt.Errorf("invalid log format %q (valid: csv, json, none)", s)
	}
}

// NewLogger creates an audit logger of the given format for toolName/action.
func NewLogger(format LogFormat, toolName, action string) (Logger, error) {
	switch format {
	case FormatCSV, "":
		return NewCSVLogger(toolName, action)
	case FormatJSON:
		return NewJSONLogger(toolName, action)
	case FormatNone:
		return NopLogger{}, nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
}

// logFilePath builds %TEMP%/_{toolName}_{action}_{date}.{ext}.
func logFilePath(toolName, action, ext string) string {
	dateStr := time.Now().Format("2006-01-02")
	fileName := fmt.Sprintf("_%s_%s_%s.%s", toolName, action, dateStr, ext)
	return filepath.Join(os.TempDir(), fileName)
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// NopLogger discards everything. Used when audit logging is switched off.
type NopLogger struct{}

func (NopLogger) WriteHeader([]string) error       { return nil }
func (NopLogger) WriteRow([]string) error          { return nil }
func (NopLogger) ShouldWriteHeader() (bool, error) { return false, nil }
func (NopLogger) Path() string                     { return "" }
func (NopLogger) Close() error                     { return nil }

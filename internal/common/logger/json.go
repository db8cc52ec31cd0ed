package logger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// JSONLogger writes audit rows as JSON Lines, one object per row keyed by the
// header columns plus a "timestamp" field.
type JSONLogger struct {
	file       *os.File
	buf        *bufio.Writer
	columns    []string
	toolName   string
	action     string
	rowCount   int
	flushEvery int
}

// NewJSONLogger creates a new JSONL logger for the specified tool and action.
// Filename pattern: %TEMP%\_{toolName}_{action}_{date}.jsonl
func NewJSONLogger(toolName, action string) (*JSONLogger, error) {
	file, err := openAppend(logFilePath(toolName, action, "jsonl"))
	if err != nil {
		return nil, fmt.Errorf("could not create JSON log file: %w", err)
	}

	return &JSONLogger{
		file:       file,
		buf:        bufio.NewWriter(file),
		toolName:   toolName,
		action:     action,
		flushEvery: 10,
	}, nil
}

// WriteHeader records the column names used as keys for subsequent rows.
// Nothing is written to the file.
func (l *JSONLogger) WriteHeader(columns []string) error {
	l.columns = append([]string(nil), columns...)
	return nil
}

// WriteRow encodes row as a JSON object keyed by the header columns.
func (l *JSONLogger) WriteRow(row []string) error {
	if len(l.columns) == 0 {
		return fmt.Errorf("JSON logger has no header; call WriteHeader first")
	}
	if len(row) != len(l.columns) {
		return fmt.Errorf("row has %d values but header has %d columns", len(row), len(l.columns))
	}

	obj := make(map[string]string, len(row)+1)
	obj["timestamp"] = time.Now().Format(time.RFC3339)
	for i, col := range l.columns {
		obj[col] = row[i]
	}

	line, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to encode JSON row: %w", err)
	}
	if _, err := l.buf.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write JSON row: %w", err)
	}

	l.rowCount++
	if l.rowCount%l.flushEvery == 0 {
		if err := l.buf.Flush(); err != nil {
			return fmt.Errorf("failed to flush JSON log: %w", err)
		}
	}
	return nil
}

// ShouldWriteHeader reports whether the file is still empty. JSON rows carry their
// own keys, so callers use this only to decide whether to print a banner.
func (l *JSONLogger) ShouldWriteHeader() (bool, error) {
	fileInfo, err := l.file.Stat()
	if err != nil {
		return false, fmt.Errorf("could not stat JSON log file: %w", err)
	}
	return fileInfo.Size() == 0 && l.buf.Buffered() == 0, nil
}

// Path returns the location of the JSONL file.
func (l *JSONLogger) Path() string {
	return l.file.Name()
}

// Close flushes buffered rows and closes the file.
func (l *JSONLogger) Close() error {
	if l.file == nil {
		return nil
	}
	if err := l.buf.Flush(); err != nil {
		return fmt.Errorf("error flushing JSON log on close: %w", err)
	}
	return l.file.Close()
}

package logger

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"
)

const (
	csvFlushRows     = 10
	csvFlushInterval = 5 * time.Second
)

// CSVLogger appends audit rows to _{tool}_{action}_{date}.csv in the temp dir.
// Every row is prefixed with a Timestamp column.
type CSVLogger struct {
	file      *os.File
	w         *csv.Writer
	pending   int
	lastFlush time.Time
}

// NewCSVLogger opens (or creates) today's CSV file for toolName and action.
func NewCSVLogger(toolName, action string) (*CSVLogger, error) {
	file, err := openAppend(logFilePath(toolName, action, "csv"))
	if err != nil {
		return nil, fmt.Errorf("could not create CSV log file: %w", err)
	}
	return &CSVLogger{file: file, w: csv.NewWriter(file), lastFlush: time.Now()}, nil
}

// WriteHeader writes Timestamp followed by columns and flushes immediately.
func (l *CSVLogger) WriteHeader(columns []string) error {
	if err := l.w.Write(append([]string{"Timestamp"}, columns...)); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	return l.flush()
}

// WriteRow buffers one row. The buffer is flushed every 10 rows or when the last
// flush is older than five seconds.
func (l *CSVLogger) WriteRow(row []string) error {
	record := append([]string{time.Now().Format("2006-01-02 15:04:05")}, row...)
	if err := l.w.Write(record); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	l.pending++
	if l.pending >= csvFlushRows || time.Since(l.lastFlush) > csvFlushInterval {
		return l.flush()
	}
	return nil
}

func (l *CSVLogger) flush() error {
	l.w.Flush()
	l.pending = 0
	l.lastFlush = time.Now()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// ShouldWriteHeader reports whether the file is still empty.
func (l *CSVLogger) ShouldWriteHeader() (bool, error) {
	info, err := l.file.Stat()
	if err != nil {
		return false, fmt.Errorf("could not stat CSV file: %w", err)
	}
	return info.Size() == 0, nil
}

func (l *CSVLogger) Path() string { return l.file.Name() }

// Close flushes pending rows and closes the file.
func (l *CSVLogger) Close() error {
	if err := l.flush(); err != nil {
		return err
	}
	return l.file.Close()
}

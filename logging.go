package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"hfprop/config"
)

const logTimestampLayout = "2006/01/02 15:04:05"

// logWriter is the output of the command logger. Every complete line is
// stamped and written to the console and, when logging.file is set, to a
// size-rotated file. A trailing partial line waits for its newline or for
// Close, which runs once when the command exits.
type logWriter struct {
	mu      sync.Mutex
	console io.Writer
	file    *lumberjack.Logger
	pending []byte
	// fileErr is the first failed file write; Close reports it.
	fileErr error
	closed  bool
	now     func() time.Time
}

// Purpose: Wire logging based on config.
// Key aspects: Returns a console-only writer alongside the error when the
// log file cannot be prepared.
// Upstream: app.setup.
// Downstream: newLogFile.
func setupLogging(cfg config.LoggingConfig, console io.Writer) (*logWriter, error) {
	w := &logWriter{console: console, now: time.Now}
	if strings.TrimSpace(cfg.File) == "" {
		return w, nil
	}
	file, err := newLogFile(cfg)
	if err != nil {
		return w, err
	}
	w.file = file
	return w, nil
}

// newLogFile prepares the rotated log file. Nothing is opened until the
// first line is written.
func newLogFile(cfg config.LoggingConfig) (*lumberjack.Logger, error) {
	path := strings.TrimSpace(cfg.File)
	if path == "" {
		return nil, errors.New("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for %q: %w", path, err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}, nil
}

func (w *logWriter) Write(p []byte) (int, error) {
	if w == nil {
		return len(p), nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, os.ErrClosed
	}
	w.pending = append(w.pending, p...)
	for {
		idx := bytes.IndexByte(w.pending, '\n')
		if idx < 0 {
			break
		}
		w.emit(w.pending[:idx])
		w.pending = w.pending[idx+1:]
	}
	if len(w.pending) == 0 {
		w.pending = nil
	}
	return len(p), nil
}

// emit writes one line to every sink. The caller holds mu.
func (w *logWriter) emit(line []byte) {
	stamped := formatLogTimestamp(w.now()) + " " + string(bytes.TrimRight(line, "\r")) + "\n"
	if w.console != nil {
		_, _ = io.WriteString(w.console, stamped)
	}
	if w.file != nil && w.fileErr == nil {
		if _, err := io.WriteString(w.file, stamped); err != nil {
			w.fileErr = fmt.Errorf("write log file: %w", err)
			if w.console != nil {
				fmt.Fprintf(w.console, "Logging: %v\n", w.fileErr)
			}
		}
	}
}

// Close flushes a pending partial line and closes the log file. Later
// writes fail with os.ErrClosed.
func (w *logWriter) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if len(w.pending) > 0 {
		w.emit(w.pending)
		w.pending = nil
	}
	err := w.fileErr
	if w.file != nil {
		if cerr := w.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func formatLogTimestamp(now time.Time) string {
	return now.UTC().Format(logTimestampLayout)
}

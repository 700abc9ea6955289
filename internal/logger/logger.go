package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger writes leveled, printf-style messages to the console and,
// optionally, to a log file. It is constructed once in main and passed
// down to every component as an explicit dependency; there is no
// package-level logger.
type Logger struct {
	Debugging bool

	mu      sync.Mutex
	console io.Writer
	errOut  io.Writer
	file    *os.File
	hasBar  bool
}

// New creates a Logger. When debug is true, debug messages are also
// printed to the console; otherwise they only reach the log file.
func New(debug bool) *Logger {
	return &Logger{
		Debugging: debug,
		console:   os.Stdout,
		errOut:    os.Stderr,
	}
}

// SetFileLog opens path for appending and mirrors all messages to it.
// The file records debug output regardless of the console level.
func (l *Logger) SetFileLog(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	l.file = f
	return nil
}

// SetProgressBar tells the logger whether a progress bar currently owns
// the terminal; while it does, non-error console output is suppressed.
func (l *Logger) SetProgressBar(active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hasBar = active
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Info logs a plain informational message. Info lines double as
// user-facing output, so they carry no level prefix.
func (l *Logger) Info(format string, args ...interface{}) {
	l.write("INFO", l.console, format, args...)
}

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write("WARN", l.console, format, args...)
}

// Error logs an error message to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.write("ERROR", l.errOut, format, args...)
}

// Debug logs a detailed message. Shown on the console only in debug
// mode; always written to the log file when one is configured.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.Debugging {
		l.fileOnly("DEBUG", format, args...)
		return
	}
	l.write("DEBUG", l.console, format, args...)
}

func (l *Logger) write(level string, out io.Writer, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var msg string
	if level == "INFO" {
		msg = fmt.Sprintf(format+"\n", args...)
	} else {
		msg = fmt.Sprintf("["+level+"] "+format+"\n", args...)
	}

	if level == "ERROR" || l.Debugging || !l.hasBar {
		fmt.Fprint(out, msg)
	}
	if l.file != nil {
		l.file.WriteString(msg)
	}
}

func (l *Logger) fileOnly(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		l.file.WriteString(fmt.Sprintf("["+level+"] "+format+"\n", args...))
	}
}

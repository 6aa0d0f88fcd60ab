// Package logger provides leveled printf-style logging with an optional
// file sink. When a progress bar owns the terminal, stdout output is
// suppressed while the file sink keeps receiving everything.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type level string

const (
	levelDebug level = "DEBUG"
	levelInfo  level = "INFO"
	levelWarn  level = "WARN"
	levelError level = "ERROR"
)

// Logger writes leveled messages to stdout/stderr and optionally a file.
type Logger struct {
	Verbose bool

	mu      sync.Mutex
	out     io.Writer
	errOut  io.Writer
	fileLog *os.File
	hasBar  bool
}

// New creates a Logger. Verbose enables Debug output on the terminal.
func New(verbose bool) *Logger {
	return &Logger{
		Verbose: verbose,
		out:     os.Stdout,
		errOut:  os.Stderr,
	}
}

// SetOutput redirects terminal output, used by tests.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
	l.errOut = w
}

// SetFileLog enables logging to a file in addition to the terminal.
func (l *Logger) SetFileLog(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	l.fileLog = f
	return nil
}

// SetProgressBar tells the logger whether a progress bar owns the terminal.
func (l *Logger) SetProgressBar(active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hasBar = active
}

// Close closes the file sink if open.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileLog != nil {
		return l.fileLog.Close()
	}
	return nil
}

// Info logs informational messages without a level prefix.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(levelInfo, format, args...)
}

// Debug logs detailed messages. They reach the terminal only in verbose
// mode but always reach the file sink when one is configured.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.Verbose {
		l.log(levelDebug, format, args...)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fileLog != nil {
		fmt.Fprintf(l.fileLog, "[DEBUG] "+format+"\n", args...)
	}
}

// Warn logs warning messages.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(levelWarn, format, args...)
}

// Error logs error messages to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf("["+string(levelError)+"] "+format+"\n", args...)
	fmt.Fprint(l.errOut, msg)
	if l.fileLog != nil {
		l.fileLog.WriteString(msg)
	}
}

func (l *Logger) log(lv level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var msg string
	if lv == levelInfo {
		msg = fmt.Sprintf(format+"\n", args...)
	} else {
		msg = fmt.Sprintf("["+string(lv)+"] "+format+"\n", args...)
	}

	if l.Verbose || !l.hasBar {
		fmt.Fprint(l.out, msg)
	}
	if l.fileLog != nil {
		l.fileLog.WriteString(msg)
	}
}

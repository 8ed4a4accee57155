package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents log severity.
type Level int

const (
	LevelError Level = iota
	LevelInfo
	LevelDebug
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// Logger provides thread-safe logging with configurable outputs.
type Logger struct {
	mu      sync.Mutex
	level   Level
	writers []io.Writer
	file    *os.File
}

// Options configures the logger.
type Options struct {
	LogFile string
	Verbose bool
	// Quiet keeps output off stderr, for when a full-screen UI owns the terminal
	Quiet bool
}

// New creates a logger writing to stderr unless opts.Quiet is set, and to
// opts.LogFile when one is given. Debug messages need opts.Verbose.
func New(opts Options) (*Logger, error) {
	l := &Logger{level: LevelInfo}
	if opts.Verbose {
		l.level = LevelDebug
	}

	if !opts.Quiet {
		l.writers = append(l.writers, os.Stderr)
	}

	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.file = f
		l.writers = append(l.writers, f)
	}

	return l, nil
}

// NewWriter creates a logger writing to w at the given level.
func NewWriter(w io.Writer, level Level) *Logger {
	return &Logger{level: level, writers: []io.Writer{w}}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{level: LevelError}
}

func (l *Logger) log(lvl Level, format string, args ...any) {
	if l == nil || lvl > l.level {
		return
	}

	now := time.Now()
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("[%s] %s: %s\n",
		now.Format("2006/01/02 15:04:05.000"),
		lvl.String(),
		msg,
	)

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, w := range l.writers {
		_, _ = io.WriteString(w, line)
	}
}

// Error logs at ERROR level.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

package source

import "time"

// LogLevel represents a log severity level
type LogLevel int

const (
	LevelUnknown LogLevel = iota
	LevelTrace
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l LogLevel) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Line represents a single line with optional metadata
type Line struct {
	Content       string
	Level         LogLevel
	OriginalIndex int // line number in the session's cached lines

	// Day is the calendar day the line was classified into
	Day time.Time
	// TimestampLen is the length of the day's timestamp prefix, clamped to the line
	TimestampLen int
	// New marks lines appended after the initial load
	New bool
	// Filters lists the named filters matching this line
	Filters []*Filter
}

// LineProvider is the core abstraction for accessing lines
// The viewport only interacts with this interface
type LineProvider interface {
	// LineCount returns total number of lines
	LineCount() int

	// GetLine returns line at index (0-based)
	GetLine(index int) (*Line, error)

	// GetLines returns a range of lines efficiently
	GetLines(start, count int) ([]*Line, error)
}

package source

import (
	"unicode/utf8"

	"github.com/TimelordUK/logview/internal/days"
)

// LevelDetectFunc detects log level from content
type LevelDetectFunc func(content string) LogLevel

// SnapshotSource provides the lines of one session snapshot
type SnapshotSource struct {
	path    string
	lines   []string
	days    []days.Day
	initial int
	detect  LevelDetectFunc
}

// NewSnapshotSource creates a source over lines grouped into dayList. Lines
// at or after initial are marked new.
func NewSnapshotSource(path string, lines []string, dayList []days.Day, initial int, detect LevelDetectFunc) *SnapshotSource {
	return &SnapshotSource{
		path:    path,
		lines:   lines,
		days:    dayList,
		initial: initial,
		detect:  detect,
	}
}

// Update replaces the content with a newer snapshot of the same session
func (s *SnapshotSource) Update(lines []string, dayList []days.Day, initial int) {
	s.lines = lines
	s.days = dayList
	s.initial = initial
}

// Path returns the file path
func (s *SnapshotSource) Path() string {
	return s.path
}

// Lines returns the raw lines. The slice must not be modified.
func (s *SnapshotSource) Lines() []string {
	return s.lines
}

// Days returns the day buckets
func (s *SnapshotSource) Days() []days.Day {
	return s.days
}

// LineCount returns total number of lines
func (s *SnapshotSource) LineCount() int {
	return len(s.lines)
}

// GetLine returns line at index
func (s *SnapshotSource) GetLine(idx int) (*Line, error) {
	if idx < 0 || idx >= len(s.lines) {
		return nil, nil
	}

	line := &Line{
		Content:       s.lines[idx],
		Level:         LevelUnknown,
		OriginalIndex: idx,
		New:           idx >= s.initial,
	}
	if s.detect != nil {
		line.Level = s.detect(line.Content)
	}
	if d := days.Find(s.days, idx); d >= 0 {
		line.Day = s.days[d].Date
		line.TimestampLen = PrefixLen(line.Content, s.days[d].TimestampLen)
	}
	return line, nil
}

// GetLines returns a range of lines
func (s *SnapshotSource) GetLines(start, count int) ([]*Line, error) {
	start = max(start, 0)
	end := min(start+count, len(s.lines))

	var lines []*Line
	for i := start; i < end; i++ {
		line, _ := s.GetLine(i)
		lines = append(lines, line)
	}
	return lines, nil
}

// PrefixLen clamps n to the length of content and backs it off to the start
// of a character, so content[:n] never splits a UTF-8 sequence
func PrefixLen(content string, n int) int {
	n = min(max(n, 0), len(content))
	for n > 0 && n < len(content) && !utf8.RuneStart(content[n]) {
		n--
	}
	return n
}

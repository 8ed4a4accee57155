package logformat

import (
	"regexp"
	"strings"
	"time"
)

// Stamp is a timestamp recognized at the start of a log line
type Stamp struct {
	Time time.Time
	Len  int // bytes of the line covered by the timestamp
}

// Date returns the calendar day of the stamp, at midnight in the stamp's location
func (s Stamp) Date() time.Time {
	return DateOf(s.Time)
}

// DateOf truncates t to midnight in its own location
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// TimestampParser detects and parses leading timestamps from log lines
type TimestampParser struct {
	patterns []timestampPattern
	now      func() time.Time
}

type timestampPattern struct {
	regex   *regexp.Regexp
	layouts []string
}

const layoutSyslog = "Jan 2 15:04:05"

// NewTimestampParser creates a parser with common timestamp formats.
// Every pattern is anchored at the start of the line.
func NewTimestampParser() *TimestampParser {
	return &TimestampParser{
		now: time.Now,
		patterns: []timestampPattern{
			// Date only
			// 2024-01-15
			{
				regex:   regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\b`),
				layouts: []string{"2006-01-02"},
			},
			// Common log format, with or without milliseconds
			// 2024-01-15 10:30:45.123
			{
				regex:   regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?:[.,]\d{1,9})?)`),
				layouts: []string{"2006-01-02 15:04:05"},
			},
			// Bracket format common in many loggers
			// [2024-01-15 10:30:45.123]
			{
				regex:   regexp.MustCompile(`^\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?:\.\d{1,9})?)\]`),
				layouts: []string{"2006-01-02 15:04:05"},
			},
			// Syslog format, day padded with a space or not
			// Jan 15 10:30:45
			// Jan  5 10:30:45
			{
				regex:   regexp.MustCompile(`^([A-Z][a-z]{2} {1,2}\d{1,2} \d{2}:\d{2}:\d{2})`),
				layouts: []string{layoutSyslog},
			},
			// ISO 8601 / RFC 3339 variants
			// 2024-01-15T10:30:45.123Z
			// 2024-01-15T10:30:45+00:00
			{
				regex:   regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d{1,9})?(?:Z|[+-]\d{2}:\d{2})?)`),
				layouts: []string{time.RFC3339, "2006-01-02T15:04:05"},
			},
		},
	}
}

// SetClock replaces the clock used to complete year-less timestamps
func (p *TimestampParser) SetClock(now func() time.Time) {
	p.now = now
}

// ParsePrefix parses the timestamp at the start of line.
// All patterns are tried; the longest recognized prefix wins and earlier
// patterns win ties.
func (p *TimestampParser) ParsePrefix(line string) (Stamp, bool) {
	var best Stamp
	found := false

	for _, pattern := range p.patterns {
		loc := pattern.regex.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}

		// Prefix length covers the whole timestamp, including any brackets,
		// but not the separator some patterns consume after it
		end := loc[3]
		if strings.HasPrefix(line, "[") && end < len(line) && line[end] == ']' {
			end++
		}
		if found && end <= best.Len {
			continue
		}

		t, ok := p.parse(line[loc[2]:loc[3]], pattern.layouts)
		if !ok {
			continue
		}
		best = Stamp{Time: t, Len: end}
		found = true
	}

	return best, found
}

// ParseDay returns the calendar day of the leading timestamp and the length
// of the timestamp prefix
func (p *TimestampParser) ParseDay(line string) (time.Time, int, bool) {
	stamp, ok := p.ParsePrefix(line)
	if !ok {
		return time.Time{}, 0, false
	}
	return stamp.Date(), stamp.Len, true
}

func (p *TimestampParser) parse(value string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		switch layout {
		case layoutSyslog:
			// Collapse the padding space before single digit days
			t, err := time.ParseInLocation(layout, strings.Join(strings.Fields(value), " "), time.Local)
			if err != nil {
				return time.Time{}, false
			}
			// Syslog carries no year, use the current one. Feb 29 goes to
			// the latest leap year instead of rolling over into March.
			year := p.now().Year()
			for !validDay(year, t.Month(), t.Day()) {
				year--
			}
			return time.Date(year, t.Month(), t.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, time.Local), true

		default:
			// Fractional seconds are accepted by Parse even when the layout omits them
			t, err := time.ParseInLocation(layout, value, time.Local)
			if err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func validDay(year int, month time.Month, day int) bool {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Day() == day
}

// FormatDay formats a calendar day for display in day lists and headers
func FormatDay(t time.Time) string {
	return t.Format("Mon Jan 2 2006")
}

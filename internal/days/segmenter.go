// Package days groups log lines into calendar-day buckets.
//
// Buckets are formed strictly in encounter order: a log whose clock jumps
// back and forth produces one bucket per contiguous run, so the same date may
// appear more than once. Buckets always cover their lines contiguously:
// days[i].LastLine+1 == days[i+1].FirstLine.
package days

import (
	"sort"
	"time"
)

// Day is a contiguous run of lines classified as one calendar day
type Day struct {
	Date         time.Time // midnight of the day
	FirstLine    int       // inclusive, 0-based
	LastLine     int       // inclusive, 0-based
	TimestampLen int       // bytes of the timestamp prefix on the day's lines
}

// Lines returns the number of lines in the day
func (d Day) Lines() int {
	return d.LastLine - d.FirstLine + 1
}

// Contains reports whether line falls inside the day
func (d Day) Contains(line int) bool {
	return line >= d.FirstLine && line <= d.LastLine
}

// ParseFunc extracts the calendar day of a line's leading timestamp and the
// length of that timestamp. ok is false when the line carries no timestamp.
type ParseFunc func(line string) (date time.Time, prefixLen int, ok bool)

// Segmenter classifies lines into days
type Segmenter struct {
	parse    ParseFunc
	fallback time.Time
}

// NewSegmenter returns a segmenter using parse for timestamps. Undated lines
// with no dated line before them are assigned the fallback date.
func NewSegmenter(parse ParseFunc, fallback time.Time) *Segmenter {
	return &Segmenter{parse: parse, fallback: truncate(fallback)}
}

// Result is the outcome of segmenting one batch of lines
type Result struct {
	// Extended is a copy of the last existing day grown to cover the leading
	// lines of the batch, nil when the batch started a new day
	Extended *Day
	// Fresh holds the days opened by the batch, in encounter order
	Fresh []Day
}

// Segment classifies lines, whose first element has index base, continuing
// from last (the final existing day, or nil when there is none)
func (s *Segmenter) Segment(lines []string, base int, last *Day) Result {
	var res Result
	var cur *Day
	extending := false

	if last != nil {
		ext := *last
		cur = &ext
		extending = true
	}

	flush := func() {
		if cur == nil {
			return
		}
		if extending {
			if cur.LastLine != last.LastLine {
				res.Extended = cur
			}
			extending = false
			return
		}
		res.Fresh = append(res.Fresh, *cur)
	}

	for i, line := range lines {
		idx := base + i

		date, prefixLen, ok := s.parse(line)
		switch {
		case ok:
			date = truncate(date)
		case cur != nil:
			// Continuation line: stays with the previous line
			cur.LastLine = idx
			continue
		default:
			date, prefixLen = s.fallback, 0
		}

		if cur != nil && sameDay(cur.Date, date) {
			cur.LastLine = idx
			continue
		}

		flush()
		cur = &Day{Date: date, FirstLine: idx, LastLine: idx, TimestampLen: prefixLen}
	}
	flush()

	return res
}

// Merge applies a segmentation result to existing, which is modified in place
// when its last day is extended. It returns the updated days and the index of
// the first day that changed.
func Merge(existing []Day, res Result) ([]Day, int) {
	first := len(existing)
	if res.Extended != nil && len(existing) > 0 {
		first = len(existing) - 1
		existing[first] = *res.Extended
	}
	return append(existing, res.Fresh...), first
}

// Find returns the index of the day containing line, or -1
func Find(days []Day, line int) int {
	i := sort.Search(len(days), func(i int) bool { return days[i].LastLine >= line })
	if i < len(days) && days[i].Contains(line) {
		return i
	}
	return -1
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

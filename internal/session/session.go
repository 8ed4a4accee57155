// Package session keeps the live state of open log files.
//
// A Manager owns every Session and mutates them from a single loop
// goroutine. Reads of appended content run concurrently, but their results
// are applied on the loop, and only when they belong to the session's latest
// read request. Change notifications that arrive while a read is in flight
// are collapsed into one follow-up read.
package session

import (
	"path/filepath"
	"slices"
	"time"

	"github.com/TimelordUK/logview/internal/days"
	"github.com/TimelordUK/logview/internal/index"
	logio "github.com/TimelordUK/logview/internal/io"
	"github.com/TimelordUK/logview/internal/textenc"
)

// ID identifies an open session. IDs are assigned in open order starting at 1;
// zero means no session.
type ID int

// State is the read state of a session
type State int

const (
	Idle State = iota
	Reading
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Reading:
		return "reading"
	default:
		return "unknown"
	}
}

// Session is the state of one open log file. It is only touched by the
// manager's loop.
type Session struct {
	id       ID
	path     string
	name     string
	openedAt time.Time
	updated  time.Time // last successful read
	modTime  time.Time // file modification time at the last read

	tracker   *index.Tracker
	segmenter *days.Segmenter
	lines     []string
	days      []days.Day
	initial   int  // lines present after the first successful read
	loaded    bool // a read has succeeded
	reported  bool // the outcome of the first read was delivered

	state   State
	gen     uint64 // current read request
	cancel  func()
	pending bool // a change arrived while reading
	unseen  int  // lines appended while not active
}

func newSession(id ID, path string, openedAt time.Time, parse days.ParseFunc) *Session {
	return &Session{
		id:        id,
		path:      path,
		name:      filepath.Base(path),
		openedAt:  openedAt,
		tracker:   index.NewTracker(),
		segmenter: days.NewSegmenter(parse, openedAt),
	}
}

// apply folds a completed read into the session and describes the change
func (s *Session) apply(chunk logio.Chunk, dec *textenc.Decoder, now time.Time) (LinesEvent, int) {
	ev := LinesEvent{ID: s.id, Path: s.path, Initial: !s.reported}

	if chunk.Truncated {
		s.tracker.Reset()
		s.lines = nil
		s.days = nil
		s.unseen = 0
		ev.Reset = true
		ev.Truncated = true
	}

	raw := s.tracker.Consume(chunk.Data)
	fresh := make([]string, len(raw))
	recovered := 0
	for i, b := range raw {
		var ok bool
		fresh[i], ok = dec.String(b)
		if ok {
			recovered++
		}
	}

	base := len(s.lines)
	s.lines = append(s.lines, fresh...)

	var last *days.Day
	if n := len(s.days); n > 0 {
		d := s.days[n-1]
		last = &d
	}
	var first int
	s.days, first = days.Merge(s.days, s.segmenter.Segment(fresh, base, last))

	ev.FirstLine = base
	ev.Lines = fresh
	ev.FirstDay = first
	ev.Days = slices.Clone(s.days[first:])

	s.updated = now
	s.modTime = chunk.ModTime
	if !s.loaded || chunk.Truncated {
		s.loaded = true
		s.initial = len(s.lines)
	}

	return ev, recovered
}

// Info summarizes a session
type Info struct {
	ID       ID
	Path     string
	Name     string
	State    State
	Offset   int64 // bytes consumed, partial trailing line included
	Lines    int
	Days     int
	Unseen   int // lines appended while another session was active
	Loaded   bool
	OpenedAt time.Time
	Updated  time.Time
	ModTime  time.Time
}

func (s *Session) info() Info {
	return Info{
		ID:       s.id,
		Path:     s.path,
		Name:     s.name,
		State:    s.state,
		Offset:   s.tracker.Offset(),
		Lines:    len(s.lines),
		Days:     len(s.days),
		Unseen:   s.unseen,
		Loaded:   s.loaded,
		OpenedAt: s.openedAt,
		Updated:  s.updated,
		ModTime:  s.modTime,
	}
}

// Snapshot is a read-only view of a session at one point in time
type Snapshot struct {
	Info
	Lines []string
	Days  []days.Day
	// LineOffsets holds the byte offset of each line start
	LineOffsets []int64
	// InitialLines is the number of lines loaded by the first read; later
	// lines are new
	InitialLines int
}

// Lines are append-only and replaced wholesale on truncation, so the
// snapshot can share them. Days are copied since the last one may grow.
func (s *Session) snapshot() Snapshot {
	n := len(s.lines)
	return Snapshot{
		Info:         s.info(),
		Lines:        s.lines[:n:n],
		Days:         slices.Clone(s.days),
		LineOffsets:  s.tracker.Starts(),
		InitialLines: s.initial,
	}
}

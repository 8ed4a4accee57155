package session

import "github.com/TimelordUK/logview/internal/days"

// LinesEvent describes the outcome of one applied read
type LinesEvent struct {
	ID   ID
	Path string

	// FirstLine is the index of Lines[0] in the session's cached lines
	FirstLine int
	Lines     []string

	// FirstDay is the index of Days[0] in the session's day list. Days holds
	// every day the read touched: the extended last day, if any, followed by
	// the days it opened.
	FirstDay int
	Days     []days.Day

	// Reset means the session's lines and days were replaced rather than appended to
	Reset bool
	// Truncated means the file shrank and was read again from the start
	Truncated bool
	// Initial marks the outcome of the first read after open
	Initial bool

	// Err is a *ReadError when the read failed; the session is then unchanged
	Err error
}

// Listener receives session events. Methods run on the manager's loop and
// must not call back into the manager synchronously.
type Listener interface {
	LinesReady(ev LinesEvent)
	ActiveChanged(active, previous ID)
	OpenFailed(errs OpenErrors)
	Closed(id ID)
}

// NopListener ignores every event
type NopListener struct{}

func (NopListener) LinesReady(LinesEvent) {}

func (NopListener) ActiveChanged(ID, ID) {}

func (NopListener) OpenFailed(OpenErrors) {}

func (NopListener) Closed(ID) {}

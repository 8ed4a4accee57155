package consolidate

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/TimelordUK/logview/internal/logging"
	"github.com/TimelordUK/logview/internal/session"
	"github.com/TimelordUK/logview/pkg/logformat"
)

// Writer merges the lines of every open session into a single output
// stream. It is a session.Listener: lines are written as read results
// arrive, with a header each time a new day starts.
type Writer struct {
	out     io.Writer
	log     *logging.Logger
	prefix  bool // Add "[source:line] " prefix to each line
	headers bool // Write a header when a day starts

	mu      sync.Mutex
	headed  map[session.ID]int // first line of the last day given a header
	loaded  int                // sessions whose first read completed
	changed chan struct{}      // closed and replaced whenever loaded grows
	err     error
}

// NewWriter creates a writer on out
func NewWriter(out io.Writer, log *logging.Logger) *Writer {
	return &Writer{
		out:     out,
		log:     log,
		headers: true,
		headed:  make(map[session.ID]int),
		changed: make(chan struct{}),
	}
}

// SetPrefix adds a "[source:line] " prefix to each line
func (w *Writer) SetPrefix(prefix bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prefix = prefix
}

// SetHeaders turns day headers on or off
func (w *Writer) SetHeaders(headers bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.headers = headers
}

// LinesReady writes the lines of a read result
func (w *Writer) LinesReady(ev session.LinesEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ev.Initial {
		w.loaded++
		close(w.changed)
		w.changed = make(chan struct{})
	}
	if ev.Err != nil {
		w.log.Error("%v", ev.Err)
		return
	}
	if ev.Reset {
		delete(w.headed, ev.ID)
		if ev.Truncated {
			w.log.Info("%s was truncated, printing it again", ev.Path)
		}
	}

	name := filepath.Base(ev.Path)
	day := 0
	for i, line := range ev.Lines {
		n := ev.FirstLine + i
		for day < len(ev.Days) && ev.Days[day].LastLine < n {
			day++
		}
		if w.headers && day < len(ev.Days) && ev.Days[day].FirstLine == n {
			if first, ok := w.headed[ev.ID]; !ok || first != n {
				w.headed[ev.ID] = n
				w.writef("--- %s (%s) ---\n", logformat.FormatDay(ev.Days[day].Date), name)
			}
		}

		if w.prefix {
			w.writef("[%s:%d] ", name, n+1) // 1-based line numbers
		}
		w.writef("%s\n", line)
	}
}

func (w *Writer) writef(format string, args ...any) {
	if w.err != nil {
		return
	}
	if _, err := fmt.Fprintf(w.out, format, args...); err != nil {
		w.err = fmt.Errorf("write output: %w", err)
	}
}

// ActiveChanged is ignored; every session is printed
func (w *Writer) ActiveChanged(session.ID, session.ID) {}

// OpenFailed logs each log that could not be opened
func (w *Writer) OpenFailed(errs session.OpenErrors) {
	for _, err := range errs {
		w.log.Error("%v", err)
	}
}

// Closed forgets a session
func (w *Writer) Closed(id session.ID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.headed, id)
}

// Err returns the first error writing the output
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// WaitLoaded blocks until n sessions have completed their first read
func (w *Writer) WaitLoaded(ctx context.Context, n int) error {
	for {
		w.mu.Lock()
		loaded, changed := w.loaded, w.changed
		w.mu.Unlock()

		if loaded >= n {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

package consolidate

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/TimelordUK/logview/internal/days"
	"github.com/TimelordUK/logview/internal/logging"
	"github.com/TimelordUK/logview/internal/session"
)

var (
	jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	jan2 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local)
)

func TestWriter_DayHeadersAndPrefix(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, logging.Nop())
	w.SetPrefix(true)

	w.LinesReady(session.LinesEvent{
		ID:      1,
		Path:    "/var/log/app.log",
		Initial: true,
		Lines:   []string{"2024-01-01 a", "2024-01-01 b"},
		Days:    []days.Day{{Date: jan1, FirstLine: 0, LastLine: 1}},
	})
	// Appended lines extend jan1 and open jan2
	w.LinesReady(session.LinesEvent{
		ID:        1,
		Path:      "/var/log/app.log",
		FirstLine: 2,
		Lines:     []string{"2024-01-01 c", "2024-01-02 d"},
		FirstDay:  0,
		Days: []days.Day{
			{Date: jan1, FirstLine: 0, LastLine: 2},
			{Date: jan2, FirstLine: 3, LastLine: 3},
		},
	})

	want := strings.Join([]string{
		"--- Mon Jan 1 2024 (app.log) ---",
		"[app.log:1] 2024-01-01 a",
		"[app.log:2] 2024-01-01 b",
		"[app.log:3] 2024-01-01 c",
		"--- Tue Jan 2 2024 (app.log) ---",
		"[app.log:4] 2024-01-02 d",
		"",
	}, "\n")
	if out.String() != want {
		t.Fatalf("output =\n%s\nwant\n%s", out.String(), want)
	}
}

func TestWriter_ResetRepeatsHeader(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, logging.Nop())

	ev := session.LinesEvent{
		ID:      1,
		Path:    "app.log",
		Initial: true,
		Lines:   []string{"x"},
		Days:    []days.Day{{Date: jan1}},
	}
	w.LinesReady(ev)
	ev.Initial = false
	ev.Reset = true
	ev.Truncated = true
	w.LinesReady(ev)

	if n := strings.Count(out.String(), "--- Mon Jan 1 2024"); n != 2 {
		t.Fatalf("headers = %d, want 2 in\n%s", n, out.String())
	}
}

func TestWriter_ReadErrorWritesNothing(t *testing.T) {
	var out, logs bytes.Buffer
	w := NewWriter(&out, logging.NewWriter(&logs, logging.LevelError))

	w.LinesReady(session.LinesEvent{
		ID:      1,
		Path:    "app.log",
		Initial: true,
		Err:     &session.ReadError{Path: "app.log", Err: errors.New("boom")},
	})

	if out.Len() != 0 {
		t.Fatalf("output = %q, want nothing", out.String())
	}
	if !strings.Contains(logs.String(), "boom") {
		t.Fatalf("log = %q, want the read error", logs.String())
	}
	// A failed first read still counts as loaded
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.WaitLoaded(ctx, 1); err != nil {
		t.Fatalf("WaitLoaded returned error: %v", err)
	}
}

func TestWriter_WaitLoaded(t *testing.T) {
	w := NewWriter(&bytes.Buffer{}, logging.Nop())

	done := make(chan error, 1)
	go func() { done <- w.WaitLoaded(context.Background(), 2) }()

	w.LinesReady(session.LinesEvent{ID: 1, Path: "a", Initial: true})
	select {
	case <-done:
		t.Fatal("WaitLoaded returned after one of two sessions loaded")
	case <-time.After(20 * time.Millisecond):
	}

	w.LinesReady(session.LinesEvent{ID: 2, Path: "b", Initial: true})
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WaitLoaded returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WaitLoaded did not return")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.WaitLoaded(ctx, 3); !errors.Is(err, context.Canceled) {
		t.Fatalf("WaitLoaded = %v, want context.Canceled", err)
	}
}

package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/TimelordUK/logview/internal/config"
	"github.com/TimelordUK/logview/internal/days"
	"github.com/TimelordUK/logview/internal/export"
	"github.com/TimelordUK/logview/internal/session"
	"github.com/TimelordUK/logview/internal/source"
)

var (
	jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	jan2 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local)
)

type fakeSessions struct {
	snaps  map[session.ID]session.Snapshot
	order  []session.ID
	active session.ID
	reads  []session.ID
	closed []session.ID
}

func (f *fakeSessions) Snapshot(id session.ID) (session.Snapshot, bool) {
	s, ok := f.snaps[id]
	return s, ok
}

func (f *fakeSessions) List() []session.Info {
	var infos []session.Info
	for _, id := range f.order {
		infos = append(infos, f.snaps[id].Info)
	}
	return infos
}

func (f *fakeSessions) Active() session.ID { return f.active }

func (f *fakeSessions) SetActive(id session.ID) error {
	f.active = id
	return nil
}

func (f *fakeSessions) Close(id session.ID) error {
	f.closed = append(f.closed, id)
	return nil
}

func (f *fakeSessions) RequestRead(id session.ID) error {
	f.reads = append(f.reads, id)
	return nil
}

func snapshot(id session.ID, path string, lines []string, dayList []days.Day) session.Snapshot {
	return session.Snapshot{
		Info: session.Info{
			ID:    id,
			Path:  path,
			Name:  path[strings.LastIndex(path, "/")+1:],
			Lines: len(lines),
			Days:  len(dayList),
		},
		Lines:        lines,
		Days:         dayList,
		InitialLines: len(lines),
	}
}

func newTestModel(t *testing.T) (*Model, *fakeSessions) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Display.AutoScroll = false
	cfg.Filters = []config.FilterConfig{{Name: "disk", Regex: "disk", Foreground: "214"}}
	filters, err := source.CompileFilters(cfg.Filters)
	if err != nil {
		t.Fatalf("CompileFilters: %v", err)
	}

	fake := &fakeSessions{snaps: make(map[session.ID]session.Snapshot)}
	m := New(Options{
		Context:  context.Background(),
		Sessions: fake,
		Events:   NewEvents(),
		Config:   cfg,
		Filters:  filters,
		Exporter: export.NewExporter(t.TempDir()),
	})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return m, fake
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func appLines() ([]string, []days.Day) {
	lines := []string{
		"2024-01-01 INFO boot",
		"2024-01-01 WARN disk almost full",
		"2024-01-02 ERROR disk full",
		"2024-01-02 INFO retry",
	}
	dayList := []days.Day{
		{Date: jan1, FirstLine: 0, LastLine: 1, TimestampLen: 10},
		{Date: jan2, FirstLine: 2, LastLine: 3, TimestampLen: 10},
	}
	return lines, dayList
}

func TestEvents_QueueDoesNotBlock(t *testing.T) {
	e := NewEvents()
	for i := 0; i < 100; i++ {
		e.LinesReady(session.LinesEvent{ID: 1})
	}
	e.Closed(1)

	msg := e.wait(context.Background())()
	batch, ok := msg.(eventsMsg)
	if !ok || len(batch) != 101 {
		t.Fatalf("wait = %T with %d messages, want 101", msg, len(batch))
	}
	if _, ok := batch[100].(closedMsg); !ok {
		t.Fatalf("last message = %T, want closedMsg", batch[100])
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if msg := e.wait(ctx)(); msg != nil {
		t.Fatalf("wait on a cancelled context = %v, want nil", msg)
	}
}

func TestModel_EventsCreateAndUpdatePanes(t *testing.T) {
	m, fake := newTestModel(t)
	lines, dayList := appLines()
	fake.snaps[1] = snapshot(1, "/var/log/app.log", lines[:2], dayList[:1])
	fake.order = []session.ID{1}
	fake.active = 1

	m.Update(eventsMsg{
		linesMsg{ID: 1, Path: "/var/log/app.log", Initial: true},
		activeMsg{active: 1},
	})

	p := m.panes[1]
	if p == nil {
		t.Fatal("no pane created for session 1")
	}
	if p.filtered.LineCount() != 2 || m.cfg.Logs.Active != "/var/log/app.log" {
		t.Fatalf("lines = %d, active = %q", p.filtered.LineCount(), m.cfg.Logs.Active)
	}

	fake.snaps[1] = snapshot(1, "/var/log/app.log", lines, dayList)
	m.Update(eventsMsg{linesMsg{ID: 1, Path: "/var/log/app.log", FirstLine: 2}})
	if p.filtered.LineCount() != 4 || len(p.source.Days()) != 2 {
		t.Fatalf("after append: lines = %d, days = %d", p.filtered.LineCount(), len(p.source.Days()))
	}

	if !strings.Contains(m.View(), "app.log") {
		t.Fatal("View does not show the log name")
	}

	m.Update(eventsMsg{closedMsg(1)})
	if _, ok := m.panes[1]; ok {
		t.Fatal("pane kept after the session closed")
	}
}

func TestModel_DaySelectionAndFilters(t *testing.T) {
	m, fake := newTestModel(t)
	lines, dayList := appLines()
	fake.snaps[1] = snapshot(1, "/var/log/app.log", lines, dayList)
	fake.order = []session.ID{1}
	fake.active = 1
	m.Update(eventsMsg{linesMsg{ID: 1}, activeMsg{active: 1}})
	p := m.panes[1]

	// Focus the day list and pick the second day
	m.Update(press("tab"))
	m.Update(press("tab"))
	m.Update(press("j"))
	m.Update(press("enter"))
	if p.filtered.LineCount() != 2 || p.filtered.OriginalLineNumber(0) != 2 {
		t.Fatalf("day filter shows %d lines from %d", p.filtered.LineCount(), p.filtered.OriginalLineNumber(0))
	}

	m.Update(press("esc"))
	if p.filtered.SelectedDay() != nil || p.filtered.LineCount() != 4 {
		t.Fatal("esc should clear the selected day")
	}

	// Back to the log, enable the disk filter in matches-only mode
	m.Update(press("tab"))
	m.Update(press("1"))
	m.Update(press("m"))
	if p.filtered.LineCount() != 2 {
		t.Fatalf("matches only shows %d lines, want 2", p.filtered.LineCount())
	}
	m.Update(press("2"))
	if !strings.Contains(m.status, "no filter 2") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestModel_SearchDebounceAndNavigation(t *testing.T) {
	m, fake := newTestModel(t)
	lines, dayList := appLines()
	fake.snaps[1] = snapshot(1, "/var/log/app.log", lines, dayList)
	fake.order = []session.ID{1}
	fake.active = 1
	m.Update(eventsMsg{linesMsg{ID: 1}, activeMsg{active: 1}})
	p := m.panes[1]

	m.Update(press("/"))
	if m.mode != ModeSearch {
		t.Fatal("search key did not enter search mode")
	}
	for _, r := range "disk" {
		m.Update(press(string(r)))
	}
	if p.finder.Count() != 0 {
		t.Fatal("search ran before the debounce fired")
	}

	// Only the latest debounce tick runs the search
	m.Update(searchTickMsg(m.searchSeq - 1))
	if p.finder.Count() != 0 {
		t.Fatal("stale debounce tick ran the search")
	}
	m.Update(searchTickMsg(m.searchSeq))
	if p.finder.Count() != 2 {
		t.Fatalf("matches = %d, want 2", p.finder.Count())
	}

	m.Update(press("enter"))
	if m.mode != ModeNormal {
		t.Fatal("enter did not leave search mode")
	}
	first, _ := p.finder.Current()
	m.Update(press("n"))
	second, _ := p.finder.Current()
	m.Update(press("n"))
	wrapped, _ := p.finder.Current()
	if first.Line != 1 || second.Line != 2 || wrapped.Line != 1 {
		t.Fatalf("match walk = %d, %d, %d; want 1, 2, 1", first.Line, second.Line, wrapped.Line)
	}
}

func TestModel_ReloadCloseAndExport(t *testing.T) {
	m, fake := newTestModel(t)
	lines, dayList := appLines()
	fake.snaps[1] = snapshot(1, "/var/log/app.log", lines, dayList)
	fake.order = []session.ID{1}
	fake.active = 1
	m.cfg.StoreLog("/var/log/app.log")
	m.Update(eventsMsg{linesMsg{ID: 1}, activeMsg{active: 1}})

	m.Update(press("r"))
	if len(fake.reads) != 1 || fake.reads[0] != 1 {
		t.Fatalf("reads = %v, want [1]", fake.reads)
	}

	m.Update(press("e"))
	if !strings.Contains(m.status, "exported 4 lines") {
		t.Fatalf("status = %q", m.status)
	}

	m.panes[1].selectDay(1)
	m.Update(press("e"))
	if !strings.Contains(m.status, "exported 2 lines") || !strings.Contains(m.status, "2024-01-02.log") {
		t.Fatalf("day export status = %q", m.status)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlW})
	if len(fake.closed) != 1 || len(m.cfg.Logs.Stored) != 0 {
		t.Fatalf("closed = %v, stored = %v", fake.closed, m.cfg.Logs.Stored)
	}
}

func TestModel_OpenFailuresShowInStatus(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(eventsMsg{openFailedMsg{&session.OpenError{Path: "/nope", Err: context.Canceled}}})
	if !strings.Contains(m.status, "/nope") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestModel_MinLevelCycle(t *testing.T) {
	m, fake := newTestModel(t)
	lines, dayList := appLines()
	fake.snaps[1] = snapshot(1, "/var/log/app.log", lines, dayList)
	fake.order = []session.ID{1}
	fake.active = 1
	m.Update(eventsMsg{linesMsg{ID: 1}, activeMsg{active: 1}})
	p := m.panes[1]

	for _, want := range []int{4, 2, 1, 4} {
		m.Update(press("L"))
		if got := p.filtered.LineCount(); got != want {
			t.Fatalf("min level %s shows %d lines, want %d", p.filtered.MinLevel(), got, want)
		}
	}
	if p.filtered.MinLevel() != source.LevelUnknown {
		t.Fatalf("min level = %s after a full cycle", p.filtered.MinLevel())
	}
}

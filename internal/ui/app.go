package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/TimelordUK/logview/internal/config"
	"github.com/TimelordUK/logview/internal/export"
	"github.com/TimelordUK/logview/internal/logging"
	"github.com/TimelordUK/logview/internal/session"
	"github.com/TimelordUK/logview/internal/source"
)

// Sessions is the part of the session manager the UI drives
type Sessions interface {
	Snapshot(id session.ID) (session.Snapshot, bool)
	List() []session.Info
	Active() session.ID
	SetActive(id session.ID) error
	Close(id session.ID) error
	RequestRead(id session.ID) error
}

// Options configure the UI runtime.
type Options struct {
	Context  context.Context
	Sessions Sessions
	Events   *Events
	Config   *config.Config
	Filters  []*source.Filter
	Exporter *export.Exporter
	Logger   *logging.Logger
}

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
)

// Focus is the part of the screen receiving navigation keys
type Focus int

const (
	FocusLog Focus = iota
	FocusLogs
	FocusDays
)

const headerTick = time.Second

// Model is the main application model
type Model struct {
	ctx      context.Context
	sessions Sessions
	events   *Events
	cfg      *config.Config
	filters  []*source.Filter
	exporter *export.Exporter
	log      *logging.Logger
	keys     keyMap
	theme    theme

	panes  map[session.ID]*Pane
	infos  []session.Info
	active session.ID

	mode        Mode
	focus       Focus
	logCursor   int
	searchInput textinput.Model
	searchSeq   int

	width  int
	height int
	status string
	now    time.Time
}

// New creates the application model
func New(opts Options) *Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	exporter := opts.Exporter
	if exporter == nil {
		exporter = export.NewExporter("")
	}

	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.CharLimit = 256

	return &Model{
		ctx:         ctx,
		sessions:    opts.Sessions,
		events:      opts.Events,
		cfg:         opts.Config,
		filters:     opts.Filters,
		exporter:    exporter,
		log:         log,
		keys:        newKeyMap(opts.Config.Keybindings),
		theme:       newTheme(opts.Config.Theme),
		panes:       make(map[session.ID]*Pane),
		searchInput: ti,
		width:       80,
		height:      24,
		now:         time.Now(),
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	m.refreshInfos()
	m.active = m.sessions.Active()
	for _, info := range m.infos {
		m.loadPane(info.ID, false)
	}
	return tea.Batch(m.events.wait(m.ctx), tickCmd())
}

type tickMsg time.Time

type searchTickMsg int

func tickCmd() tea.Cmd {
	return tea.Tick(headerTick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case eventsMsg:
		m.handleEvents(msg)
		return m, m.events.wait(m.ctx)

	case tickMsg:
		m.now = time.Time(msg)
		return m, tickCmd()

	case searchTickMsg:
		if int(msg) == m.searchSeq && m.mode == ModeSearch {
			m.runSearch(m.searchInput.Value())
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleEvents(msgs eventsMsg) {
	touched := make(map[session.ID]bool)
	reset := make(map[session.ID]bool)

	for _, msg := range msgs {
		switch msg := msg.(type) {
		case linesMsg:
			if msg.Err != nil {
				m.status = msg.Err.Error()
				continue
			}
			touched[msg.ID] = true
			reset[msg.ID] = reset[msg.ID] || msg.Reset
			if msg.Truncated {
				m.status = fmt.Sprintf("%s was truncated and reloaded", msg.Path)
			}

		case activeMsg:
			m.active = msg.active

		case openFailedMsg:
			m.status = session.OpenErrors(msg).Error()

		case closedMsg:
			delete(m.panes, session.ID(msg))
			delete(touched, session.ID(msg))
		}
	}

	for id := range touched {
		m.loadPane(id, reset[id])
	}
	m.refreshInfos()
	m.syncActive()
}

// loadPane creates or refreshes the pane of id from a new snapshot
func (m *Model) loadPane(id session.ID, reset bool) {
	snap, ok := m.sessions.Snapshot(id)
	if !ok {
		return
	}
	if p, ok := m.panes[id]; ok {
		p.update(snap, reset)
		return
	}
	p := newPane(snap, m.cfg, m.filters)
	m.panes[id] = p
	m.layoutPane(p)
}

func (m *Model) refreshInfos() {
	m.infos = m.sessions.List()
	m.logCursor = min(m.logCursor, max(len(m.infos)-1, 0))
}

// syncActive moves the log cursor to the active log and remembers it
func (m *Model) syncActive() {
	for i, info := range m.infos {
		if info.ID == m.active {
			m.logCursor = i
			m.cfg.Logs.Active = info.Path
			return
		}
	}
}

func (m *Model) activePane() *Pane {
	return m.panes[m.active]
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == ModeSearch {
		return m.handleSearchKey(msg)
	}

	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.SwitchFocus):
		m.focus = (m.focus + 1) % 3
		return m, nil

	case key.Matches(msg, m.keys.CloseLog):
		m.closeActive()
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		if m.active != 0 {
			if err := m.sessions.RequestRead(m.active); err != nil {
				m.status = err.Error()
			}
		}
		return m, nil
	}

	switch m.focus {
	case FocusLogs:
		m.handleLogsKey(msg)
		return m, nil
	case FocusDays:
		m.handleDaysKey(msg)
		return m, nil
	}
	return m.handleLogKey(msg)
}

func (m *Model) handleLogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.activePane()
	if p == nil {
		return m, nil
	}
	vp := p.viewport

	switch {
	case key.Matches(msg, m.keys.Down):
		vp.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		vp.ScrollUp(1)
	case key.Matches(msg, m.keys.PageDown):
		vp.PageDown()
	case key.Matches(msg, m.keys.PageUp):
		vp.PageUp()
	case key.Matches(msg, m.keys.Top):
		vp.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		vp.GotoBottom()

	case key.Matches(msg, m.keys.Follow):
		vp.SetFollowing(!vp.Following())

	case key.Matches(msg, m.keys.Search):
		m.mode = ModeSearch
		m.searchInput.SetValue(p.finder.Term())
		m.searchInput.CursorEnd()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.NextMatch):
		p.nextMatch()
	case key.Matches(msg, m.keys.PrevMatch):
		p.prevMatch()

	case key.Matches(msg, m.keys.ClearDay):
		if p.filtered.SelectedDay() != nil {
			p.clearDay()
		} else if p.finder.Term() != "" {
			m.runSearch("")
		}

	case key.Matches(msg, m.keys.MatchesOnly):
		p.toggleMatchesOnly()

	case key.Matches(msg, m.keys.MinLevel):
		p.cycleMinLevel()

	case key.Matches(msg, m.keys.Export):
		m.exportView(p)

	default:
		if i := m.keys.filterIndex(msg); i >= 0 {
			if !p.toggleFilter(i) {
				m.status = fmt.Sprintf("no filter %d", i+1)
			}
		}
	}
	return m, nil
}

func (m *Model) handleLogsKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.logCursor = min(m.logCursor+1, max(len(m.infos)-1, 0))
	case key.Matches(msg, m.keys.Up):
		m.logCursor = max(m.logCursor-1, 0)
	case key.Matches(msg, m.keys.Select):
		if m.logCursor < len(m.infos) {
			id := m.infos[m.logCursor].ID
			if err := m.sessions.SetActive(id); err != nil {
				m.status = err.Error()
				return
			}
			// Unseen counts are cleared on activation
			m.refreshInfos()
		}
	}
}

func (m *Model) handleDaysKey(msg tea.KeyMsg) {
	p := m.activePane()
	if p == nil {
		return
	}
	n := len(p.source.Days())

	switch {
	case key.Matches(msg, m.keys.Down):
		p.dayCursor = min(p.dayCursor+1, max(n-1, 0))
	case key.Matches(msg, m.keys.Up):
		p.dayCursor = max(p.dayCursor-1, 0)
	case key.Matches(msg, m.keys.Select):
		p.selectDay(p.dayCursor)
	case key.Matches(msg, m.keys.ClearDay):
		p.clearDay()
	}
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.runSearch(m.searchInput.Value())
		m.mode = ModeNormal
		m.searchInput.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.mode = ModeNormal
		m.searchInput.Blur()
		return m, nil

	case key.Matches(msg, m.keys.SearchMode):
		if p := m.activePane(); p != nil {
			if err := p.cycleSearchMode(); err != nil {
				m.status = err.Error()
			}
		}
		return m, m.debounce()
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() == before {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.debounce())
}

// debounce schedules a search once typing pauses
func (m *Model) debounce() tea.Cmd {
	m.searchSeq++
	seq := m.searchSeq
	delay := time.Duration(m.cfg.Search.DebounceMs) * time.Millisecond
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return searchTickMsg(seq)
	})
}

func (m *Model) runSearch(term string) {
	p := m.activePane()
	if p == nil {
		return
	}
	if err := p.search(term); err != nil {
		m.status = err.Error()
		return
	}
	if term != "" && p.finder.Count() == 0 {
		m.status = fmt.Sprintf("no matches for %q", term)
	}
}

func (m *Model) closeActive() {
	if m.active == 0 {
		return
	}
	p := m.activePane()
	if err := m.sessions.Close(m.active); err != nil {
		m.status = err.Error()
		return
	}
	if p != nil {
		m.cfg.ForgetLog(p.info.Path)
	}
}

// exportView writes what the pane shows: a whole day, the filtered lines, or
// the whole log
func (m *Model) exportView(p *Pane) {
	var info *export.Info
	var err error
	day := p.filtered.SelectedDay()
	switch {
	case day != nil && p.filtered.LineCount() == day.Lines():
		info, err = m.exporter.Day(p.source, p.info.Path, *day)
	case p.filtered.IsFiltered():
		info, err = m.exporter.Filtered(p.filtered, p.info.Path)
	default:
		info, err = m.exporter.Range(p.source, p.info.Path, 0, p.source.LineCount())
	}
	if err != nil {
		m.status = fmt.Sprintf("export failed: %v", err)
		m.log.Error("export %s: %v", p.info.Path, err)
		return
	}
	m.status = fmt.Sprintf("exported %d lines to %s", info.Lines, info.OutputPath)
	m.log.Info("exported %d lines of %s to %s", info.Lines, info.SourcePath, info.OutputPath)
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}

package ui

import (
	"github.com/TimelordUK/logview/internal/config"
	"github.com/TimelordUK/logview/internal/days"
	"github.com/TimelordUK/logview/internal/render"
	"github.com/TimelordUK/logview/internal/search"
	"github.com/TimelordUK/logview/internal/session"
	"github.com/TimelordUK/logview/internal/source"
	"github.com/TimelordUK/logview/internal/view"
	"github.com/TimelordUK/logview/pkg/logformat"
)

// Pane is the view state of one open log
type Pane struct {
	info     session.Info
	source   *source.SnapshotSource
	filtered *source.FilteredProvider
	viewport *view.Viewport
	finder   *search.Finder
	styler   *render.LogRenderer // nil when the file is syntax highlighted

	// Day list cursor
	dayCursor int
}

// newPane creates a pane for a snapshot
func newPane(snap session.Snapshot, cfg *config.Config, filters []*source.Filter) *Pane {
	detector := logformat.NewLevelDetector(&cfg.LogLevels)
	src := source.NewSnapshotSource(snap.Path, snap.Lines, snap.Days, snap.InitialLines, detector.Detect)
	filtered := source.NewFilteredProvider(src, detector.Detect)
	filtered.SetFilters(filters)

	p := &Pane{
		info:     snap.Info,
		source:   src,
		filtered: filtered,
		viewport: view.NewViewport(80, 24),
		finder:   search.NewFinder(search.ParseMode(cfg.Search.Mode)),
	}

	p.viewport.SetShowLineNumbers(cfg.Display.ShowLineNumbers)
	p.viewport.SetLineNumberColor(cfg.Theme.LineNumbers)
	if render.IsSyntaxHighlightable(snap.Path) {
		p.viewport.SetRenderer(render.NewSyntaxRenderer(snap.Path))
	} else {
		p.styler = render.NewLogRenderer(cfg)
		p.viewport.SetRenderer(p.styler)
	}
	p.viewport.SetProvider(filtered)
	p.viewport.SetFollowing(cfg.Display.AutoScroll)
	return p
}

// update applies a newer snapshot of the session. reset means the lines
// were replaced rather than appended to.
func (p *Pane) update(snap session.Snapshot, reset bool) {
	p.info = snap.Info
	p.source.Update(snap.Lines, snap.Days, snap.InitialLines)

	if reset {
		p.filtered.SelectDay(nil)
		p.dayCursor = 0
		p.refilter()
		return
	}

	// The selected day may have grown
	if sel := p.filtered.SelectedDay(); sel != nil {
		if i := p.findDay(*sel); i >= 0 && snap.Days[i].LastLine != sel.LastLine {
			p.filtered.SelectDay(&snap.Days[i])
			p.refilter()
			return
		}
	}
	p.dayCursor = min(p.dayCursor, max(len(snap.Days)-1, 0))
	p.finder.Extend(p.filtered)
	p.viewport.Refresh()
}

func (p *Pane) findDay(d days.Day) int {
	for i, day := range p.source.Days() {
		if day.FirstLine == d.FirstLine && day.Date.Equal(d.Date) {
			return i
		}
	}
	return -1
}

// refilter rebuilds the filtered view and the search results, keeping the
// top line in place when possible
func (p *Pane) refilter() {
	top := p.filtered.OriginalLineNumber(p.viewport.CurrentLine())
	p.filtered.MarkDirty()
	if term := p.finder.Term(); term != "" {
		_ = p.finder.Search(p.filtered, term)
	}

	if p.viewport.Following() || top < 0 {
		p.viewport.Refresh()
		return
	}
	if i := p.filtered.FilteredIndex(top); i >= 0 {
		p.viewport.GotoLine(i)
	} else {
		p.viewport.GotoBottom()
	}
}

// selectDay shows only the lines of the i-th day
func (p *Pane) selectDay(i int) {
	dayList := p.source.Days()
	if i < 0 || i >= len(dayList) {
		return
	}
	p.dayCursor = i
	p.filtered.SelectDay(&dayList[i])
	p.refilter()
	p.viewport.GotoTop()
}

// clearDay shows all days again
func (p *Pane) clearDay() {
	if p.filtered.SelectedDay() == nil {
		return
	}
	p.filtered.SelectDay(nil)
	p.refilter()
}

// toggleFilter toggles the i-th named filter
func (p *Pane) toggleFilter(i int) bool {
	if !p.filtered.ToggleNamedFilter(i) {
		return false
	}
	p.refilter()
	return true
}

// toggleMatchesOnly flips "show matches only"
func (p *Pane) toggleMatchesOnly() {
	p.filtered.SetMatchesOnly(!p.filtered.MatchesOnly())
	p.refilter()
}

// minLevels is the cycle of minimum levels; LevelUnknown shows every line
var minLevels = []source.LogLevel{source.LevelUnknown, source.LevelInfo, source.LevelWarn, source.LevelError}

// cycleMinLevel hides lines below the next minimum level
func (p *Pane) cycleMinLevel() source.LogLevel {
	next := minLevels[0]
	for i, l := range minLevels {
		if l == p.filtered.MinLevel() {
			next = minLevels[(i+1)%len(minLevels)]
		}
	}
	if next == source.LevelUnknown {
		p.filtered.ClearFilter()
	} else {
		p.filtered.SetLevelAndAbove(next)
	}
	p.refilter()
	return next
}

// search runs term over the visible lines and jumps to the first match at
// or below the top line
func (p *Pane) search(term string) error {
	if err := p.finder.Search(p.filtered, term); err != nil {
		return err
	}
	p.setHighlight()
	if term == "" {
		p.viewport.ClearHighlight()
		return nil
	}
	p.jump(p.finder.Next(p.viewport.CurrentLine() - 1))
	return nil
}

func (p *Pane) setHighlight() {
	if p.styler == nil {
		return
	}
	if p.finder.Term() == "" {
		p.styler.SetHighlight(nil)
		return
	}
	p.styler.SetHighlight(p.finder.Ranges)
}

// nextMatch jumps to the next search result, wrapping around
func (p *Pane) nextMatch() {
	p.jump(p.finder.Next(p.cursorLine()))
}

// prevMatch jumps to the previous search result, wrapping around
func (p *Pane) prevMatch() {
	p.jump(p.finder.Prev(p.cursorLine()))
}

// cursorLine is the current match when it is on screen, else the top line
func (p *Pane) cursorLine() int {
	top := p.viewport.CurrentLine()
	if m, ok := p.finder.Current(); ok && m.Line >= top && m.Line < top+p.viewport.Height() {
		return m.Line
	}
	return top
}

func (p *Pane) jump(m search.Match, ok bool) {
	if !ok {
		p.viewport.ClearHighlight()
		return
	}
	p.viewport.ShowLine(m.Line)
	p.viewport.SetHighlightedLine(p.filtered.OriginalLineNumber(m.Line))
}

// cycleSearchMode switches to the next match mode and reruns the search
func (p *Pane) cycleSearchMode() error {
	term := p.finder.Term()
	p.finder.SetMode(p.finder.Mode().Next())
	return p.search(term)
}

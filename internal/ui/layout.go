package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/TimelordUK/logview/internal/config"
	"github.com/TimelordUK/logview/internal/source"
	"github.com/TimelordUK/logview/pkg/logformat"
)

type theme struct {
	header   lipgloss.Style
	status   lipgloss.Style
	help     lipgloss.Style
	sidebar  lipgloss.Style
	title    lipgloss.Style
	selected lipgloss.Style
	cursor   lipgloss.Style
	unseen   lipgloss.Style
}

func newTheme(cfg config.ThemeConfig) theme {
	return theme{
		header: lipgloss.NewStyle().Bold(true),
		status: lipgloss.NewStyle().
			Background(lipgloss.Color(cfg.StatusBar)).
			Foreground(lipgloss.Color(cfg.StatusBarText)),
		help: lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.LineNumbers)),
		sidebar: lipgloss.NewStyle().
			Foreground(lipgloss.Color(cfg.Sidebar)).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(lipgloss.Color(cfg.LineNumbers)),
		title:    lipgloss.NewStyle().Bold(true).Underline(true),
		selected: lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Selected)),
		cursor:   lipgloss.NewStyle().Reverse(true),
		unseen:   lipgloss.NewStyle().Bold(true),
	}
}

// Rows taken by the header, status bar and help line
const chromeRows = 3

func (m *Model) sidebarWidth() int {
	w := m.cfg.Display.SidebarWidth
	if w <= 0 || w > m.width/2 {
		w = m.width / 3
	}
	return w
}

func (m *Model) layout() {
	for _, p := range m.panes {
		m.layoutPane(p)
	}
}

func (m *Model) layoutPane(p *Pane) {
	// The sidebar border takes one column
	p.viewport.SetSize(max(m.width-m.sidebarWidth()-1, 1), max(m.height-chromeRows, 1))
}

// View implements tea.Model
func (m *Model) View() string {
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderLog(),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), main)

	return lipgloss.JoinVertical(lipgloss.Left,
		body,
		m.renderStatus(),
		m.renderHelp(),
	)
}

func (m *Model) renderLog() string {
	p := m.activePane()
	if p == nil {
		rows := max(m.height-chromeRows, 1)
		return strings.Repeat("\n", rows-1)
	}
	return p.viewport.Render()
}

func (m *Model) renderHeader() string {
	p := m.activePane()
	if p == nil {
		return m.theme.header.Render("no log open")
	}

	parts := []string{p.info.Name}
	if day := p.filtered.SelectedDay(); day != nil {
		parts = append(parts, logformat.FormatDay(day.Date))
	}
	parts = append(parts, humanize.Bytes(uint64(p.info.Offset)))
	if !p.info.Updated.IsZero() {
		parts = append(parts, "updated "+humanize.RelTime(p.info.Updated, m.now, "ago", "from now"))
	}
	return m.theme.header.Render(truncate(strings.Join(parts, " · "), m.width-m.sidebarWidth()-1))
}

func (m *Model) renderSidebar() string {
	width := m.sidebarWidth()
	rows := max(m.height-chromeRows+1, 1) // sidebar runs beside the header too
	var lines []string

	lines = append(lines, m.sectionTitle("Logs", FocusLogs))
	for i, info := range m.infos {
		name := info.Name
		if info.Unseen > 0 {
			name = m.theme.unseen.Render(fmt.Sprintf("%s (+%s)", name, humanize.Comma(int64(info.Unseen))))
		}
		lines = append(lines, m.sidebarRow(name, info.ID == m.active, i == m.logCursor && m.focus == FocusLogs, width))
	}

	lines = append(lines, "", m.sectionTitle("Days", FocusDays))
	if p := m.activePane(); p != nil {
		sel := p.filtered.SelectedDay()
		for i, day := range p.source.Days() {
			text := fmt.Sprintf("%s %s", logformat.FormatDay(day.Date), humanize.Comma(int64(day.Lines())))
			selected := sel != nil && sel.FirstLine == day.FirstLine
			lines = append(lines, m.sidebarRow(text, selected, i == p.dayCursor && m.focus == FocusDays, width))
		}
	}

	if len(lines) > rows {
		lines = lines[:rows]
	}
	for len(lines) < rows {
		lines = append(lines, "")
	}
	return m.theme.sidebar.Width(width).Render(strings.Join(lines, "\n"))
}

func (m *Model) sectionTitle(title string, focus Focus) string {
	if m.focus == focus {
		title = "▸ " + title
	}
	return m.theme.title.Render(title)
}

func (m *Model) sidebarRow(text string, selected, cursor bool, width int) string {
	text = truncate(text, width-1)
	switch {
	case cursor:
		return m.theme.cursor.Render(text)
	case selected:
		return m.theme.selected.Render(text)
	default:
		return text
	}
}

func (m *Model) renderStatus() string {
	style := m.theme.status.Width(m.width)
	if m.mode == ModeSearch {
		mode := "exact"
		if p := m.activePane(); p != nil {
			mode = p.finder.Mode().String()
		}
		return style.Render(fmt.Sprintf("/%s [%s]", m.searchInput.View(), mode))
	}

	p := m.activePane()
	if p == nil {
		return style.Render(" " + m.status)
	}

	status := fmt.Sprintf(" L%s/%s  %.0f%%",
		humanize.Comma(int64(p.viewport.CurrentLine()+1)),
		humanize.Comma(int64(p.filtered.LineCount())),
		p.viewport.PercentScrolled())
	if term := p.finder.Term(); term != "" {
		status += fmt.Sprintf("  [%d/%d %s %q]", p.finder.Position(), p.finder.Count(), p.finder.Mode(), term)
	}
	if p.viewport.Following() {
		status += "  FOLLOW"
	}
	if lvl := p.filtered.MinLevel(); lvl != source.LevelUnknown {
		status += "  " + lvl.String() + "+"
	}
	if flags := m.filterFlags(p); flags != "" {
		status += "  " + flags
	}
	if m.status != "" {
		status += "  " + m.status
	}
	return style.Render(truncate(status, m.width))
}

// filterFlags lists the enabled named filters
func (m *Model) filterFlags(p *Pane) string {
	var names []string
	for i, f := range p.filtered.Filters() {
		if p.filtered.FilterEnabled(i) {
			names = append(names, fmt.Sprintf("%d:%s", i+1, f.Name))
		}
	}
	if len(names) == 0 {
		return ""
	}
	flags := "filters " + strings.Join(names, ",")
	if p.filtered.MatchesOnly() {
		flags += " (matches only)"
	}
	return flags
}

func (m *Model) renderHelp() string {
	help := "tab:focus  enter:select  /:search  n/N:next/prev  1-9:filters  m:matches  L:level  F:follow  e:export  r:reload  ctrl+w:close  q:quit"
	return m.theme.help.Render(truncate(help, m.width))
}

// truncate cuts s to at most width cells
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

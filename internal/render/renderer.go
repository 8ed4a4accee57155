package render

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/TimelordUK/logview/internal/config"
	"github.com/TimelordUK/logview/internal/search"
	"github.com/TimelordUK/logview/internal/source"
	"github.com/TimelordUK/logview/pkg/logformat"
)

// Renderer applies styling to lines
type Renderer interface {
	Render(line *source.Line) string
}

// HighlightFunc returns the spans of content to mark as search matches
type HighlightFunc func(content string) []search.Range

// LogRenderer styles a log line: level color, filter colors, a gray
// timestamp prefix, bold for lines appended after the initial load and
// highlighted search matches
type LogRenderer struct {
	detector  *logformat.LevelDetector
	levels    map[source.LogLevel]lipgloss.Style
	timestamp lipgloss.Color
	match     lipgloss.Style
	filters   map[*source.Filter]lipgloss.Style
	highlight HighlightFunc
	tabs      string
}

// NewLogRenderer creates a renderer from config
func NewLogRenderer(cfg *config.Config) *LogRenderer {
	levels := map[source.LogLevel]lipgloss.Style{
		source.LevelUnknown: lipgloss.NewStyle(),
		source.LevelTrace:   lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Levels.Trace)),
		source.LevelDebug:   lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Levels.Debug)),
		source.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Levels.Info)),
		source.LevelWarn:    lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Levels.Warn)),
		source.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Levels.Error)),
		source.LevelFatal:   lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Theme.Levels.Fatal)),
	}

	tabWidth := cfg.Display.TabWidth
	if tabWidth <= 0 {
		tabWidth = 4
	}

	return &LogRenderer{
		detector:  logformat.NewLevelDetector(&cfg.LogLevels),
		levels:    levels,
		timestamp: lipgloss.Color(cfg.Theme.Timestamp),
		match: lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color(cfg.Theme.SearchMatch)),
		filters: make(map[*source.Filter]lipgloss.Style),
		tabs:    strings.Repeat(" ", tabWidth),
	}
}

// SetHighlight sets the search highlighter; nil disables highlighting
func (r *LogRenderer) SetHighlight(fn HighlightFunc) {
	r.highlight = fn
}

// Render applies styling to a line
func (r *LogRenderer) Render(line *source.Line) string {
	base := r.baseStyle(line)

	var ranges []search.Range
	if r.highlight != nil {
		ranges = r.highlight(line.Content)
	}

	var b strings.Builder
	tsLen := source.PrefixLen(line.Content, line.TimestampLen)
	for _, seg := range segments(len(line.Content), tsLen, ranges) {
		style := base
		if seg.timestamp {
			style = style.Foreground(r.timestamp)
		}
		if seg.match {
			style = r.match.Bold(line.New)
		}
		text := strings.ReplaceAll(line.Content[seg.start:seg.end], "\t", r.tabs)
		b.WriteString(style.Render(text))
	}
	return b.String()
}

func (r *LogRenderer) baseStyle(line *source.Line) lipgloss.Style {
	level := line.Level
	if level == source.LevelUnknown {
		level = r.detector.Detect(line.Content)
	}
	style := r.levels[level]

	// The first matching filter with colors wins
	for _, f := range line.Filters {
		if f.Foreground == "" && f.Background == "" {
			continue
		}
		style = r.filterStyle(f)
		break
	}
	return style.Bold(line.New)
}

func (r *LogRenderer) filterStyle(f *source.Filter) lipgloss.Style {
	if style, ok := r.filters[f]; ok {
		return style
	}
	style := lipgloss.NewStyle()
	if f.Foreground != "" {
		style = style.Foreground(lipgloss.Color(f.Foreground))
	}
	if f.Background != "" {
		style = style.Background(lipgloss.Color(f.Background))
	}
	r.filters[f] = style
	return style
}

type segment struct {
	start, end int
	timestamp  bool
	match      bool
}

// segments splits [0, n) at the timestamp prefix and at every match
// boundary, so each piece takes a single style
func segments(n, tsLen int, ranges []search.Range) []segment {
	if n == 0 {
		return nil
	}
	tsLen = min(max(tsLen, 0), n)

	cuts := []int{0, n}
	if tsLen > 0 {
		cuts = append(cuts, tsLen)
	}
	var matches []search.Range
	for _, rg := range ranges {
		start, end := max(rg.Start, 0), min(rg.End, n)
		if start >= end {
			continue
		}
		matches = append(matches, search.Range{Start: start, End: end})
		cuts = append(cuts, start, end)
	}
	sort.Ints(cuts)

	var segs []segment
	for i := 1; i < len(cuts); i++ {
		start, end := cuts[i-1], cuts[i]
		if start == end {
			continue
		}
		seg := segment{start: start, end: end, timestamp: start < tsLen}
		for _, m := range matches {
			if start >= m.Start && start < m.End {
				seg.match = true
				break
			}
		}
		segs = append(segs, seg)
	}
	return segs
}

// PlainRenderer renders without styling
type PlainRenderer struct{}

// NewPlainRenderer creates a plain renderer
func NewPlainRenderer() *PlainRenderer {
	return &PlainRenderer{}
}

// Render returns the line content as-is
func (r *PlainRenderer) Render(line *source.Line) string {
	return line.Content
}

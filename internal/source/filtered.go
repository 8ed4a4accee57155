package source

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/TimelordUK/logview/internal/config"
	"github.com/TimelordUK/logview/internal/days"
)

// Filter is a named regular expression with display colors
type Filter struct {
	Name       string
	Regex      *regexp.Regexp
	Foreground string
	Background string
	// Invisible hides matching lines instead of coloring them
	Invisible bool
}

// CompileFilters builds filters from their configuration
func CompileFilters(cfgs []config.FilterConfig) ([]*Filter, error) {
	filters := make([]*Filter, 0, len(cfgs))
	for _, cfg := range cfgs {
		re, err := regexp.Compile(cfg.Regex)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", cfg.Name, err)
		}
		filters = append(filters, &Filter{
			Name:       cfg.Name,
			Regex:      re,
			Foreground: cfg.Foreground,
			Background: cfg.Background,
			Invisible:  cfg.Invisible,
		})
	}
	return filters, nil
}

// FilteredProvider wraps a LineProvider and hides lines by log level, text,
// named filters and selected day
type FilteredProvider struct {
	source   LineProvider
	detector LevelDetectFunc

	// Level filter: if set, only show lines with these levels
	levelFilter map[LogLevel]bool

	// Text filter: case-insensitive substring match
	textFilter string

	// Named filters; only enabled ones apply
	filters     []*Filter
	enabled     map[*Filter]bool
	matchesOnly bool

	// Day filter: only lines inside the day are shown
	day *days.Day

	// Cached filtered indices (original line numbers that pass filter)
	filteredIndices []int
	scanned         int // source lines already examined
	dirty           bool
}

// NewFilteredProvider creates a filtered provider
func NewFilteredProvider(source LineProvider, detector LevelDetectFunc) *FilteredProvider {
	return &FilteredProvider{
		source:      source,
		detector:    detector,
		levelFilter: make(map[LogLevel]bool),
		enabled:     make(map[*Filter]bool),
		dirty:       true,
	}
}

// SetLevelFilter sets which levels to show (empty = show all)
func (f *FilteredProvider) SetLevelFilter(levels map[LogLevel]bool) {
	f.levelFilter = levels
	f.dirty = true
}

var levelOrder = []LogLevel{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal}

// SetLevelAndAbove sets filter to show this level and all higher severity
func (f *FilteredProvider) SetLevelAndAbove(level LogLevel) {
	f.levelFilter = make(map[LogLevel]bool)
	for _, l := range levelOrder {
		if l >= level {
			f.levelFilter[l] = true
		}
	}
	f.dirty = true
}

// ClearFilter removes all level filters
func (f *FilteredProvider) ClearFilter() {
	f.levelFilter = make(map[LogLevel]bool)
	f.dirty = true
}

// SetTextFilter sets the text substring filter
func (f *FilteredProvider) SetTextFilter(text string) {
	f.textFilter = strings.ToLower(text)
	f.dirty = true
}

// SetFilters replaces the named filters. All start disabled.
func (f *FilteredProvider) SetFilters(filters []*Filter) {
	f.filters = filters
	f.enabled = make(map[*Filter]bool)
	f.dirty = true
}

// Filters returns the named filters in configuration order
func (f *FilteredProvider) Filters() []*Filter {
	return f.filters
}

// ToggleNamedFilter enables or disables the i-th named filter
func (f *FilteredProvider) ToggleNamedFilter(i int) bool {
	if i < 0 || i >= len(f.filters) {
		return false
	}
	filter := f.filters[i]
	if f.enabled[filter] {
		delete(f.enabled, filter)
	} else {
		f.enabled[filter] = true
	}
	f.dirty = true
	return true
}

// FilterEnabled reports whether the i-th named filter applies
func (f *FilteredProvider) FilterEnabled(i int) bool {
	return i >= 0 && i < len(f.filters) && f.enabled[f.filters[i]]
}

// SetMatchesOnly hides lines that no enabled filter matches
func (f *FilteredProvider) SetMatchesOnly(on bool) {
	f.matchesOnly = on
	f.dirty = true
}

// MatchesOnly reports whether only filter matches are shown
func (f *FilteredProvider) MatchesOnly() bool {
	return f.matchesOnly
}

// SelectDay hides every line outside day; nil shows all days
func (f *FilteredProvider) SelectDay(day *days.Day) {
	if day != nil {
		d := *day
		day = &d
	}
	f.day = day
	f.dirty = true
}

// SelectedDay returns the selected day, or nil
func (f *FilteredProvider) SelectedDay() *days.Day {
	return f.day
}

// MarkDirty marks the filter index as needing rebuild
func (f *FilteredProvider) MarkDirty() {
	f.dirty = true
}

// IsFiltered returns true if any filter is active
func (f *FilteredProvider) IsFiltered() bool {
	return len(f.levelFilter) > 0 || f.textFilter != "" || len(f.enabled) > 0 || f.day != nil
}

// MinLevel returns the lowest level shown, or LevelUnknown when levels are
// not filtered
func (f *FilteredProvider) MinLevel() LogLevel {
	for _, l := range levelOrder {
		if f.levelFilter[l] {
			return l
		}
	}
	return LevelUnknown
}

// matching returns the enabled filters that match content, in order
func (f *FilteredProvider) matching(content string) []*Filter {
	var matched []*Filter
	for _, filter := range f.filters {
		if f.enabled[filter] && filter.Regex.MatchString(content) {
			matched = append(matched, filter)
		}
	}
	return matched
}

func (f *FilteredProvider) visible(line *Line) bool {
	if f.day != nil && !f.day.Contains(line.OriginalIndex) {
		return false
	}

	if f.textFilter != "" && !strings.Contains(strings.ToLower(line.Content), f.textFilter) {
		return false
	}

	if len(f.levelFilter) > 0 {
		// Detect level if not already set
		level := line.Level
		if level == LevelUnknown && f.detector != nil {
			level = f.detector(line.Content)
		}
		if !f.levelFilter[level] {
			return false
		}
	}

	if len(f.enabled) > 0 {
		visibleMatch := false
		for _, filter := range f.matching(line.Content) {
			if filter.Invisible {
				return false
			}
			visibleMatch = true
		}
		if f.matchesOnly && !visibleMatch {
			return false
		}
	}
	return true
}

// rebuildIndex rebuilds the filtered index if dirty, or extends it over lines
// appended since the last scan
func (f *FilteredProvider) rebuildIndex() {
	if f.dirty {
		f.filteredIndices = nil
		f.scanned = 0
		f.dirty = false
	}
	if !f.IsFiltered() {
		return
	}

	total := f.source.LineCount()
	if total < f.scanned {
		// Source shrank, start over
		f.filteredIndices = nil
		f.scanned = 0
	}
	for i := f.scanned; i < total; i++ {
		line, err := f.source.GetLine(i)
		if err != nil || line == nil {
			continue
		}
		if f.visible(line) {
			f.filteredIndices = append(f.filteredIndices, i)
		}
	}
	f.scanned = total
}

// LineCount returns total number of filtered lines
func (f *FilteredProvider) LineCount() int {
	f.rebuildIndex()

	if !f.IsFiltered() {
		return f.source.LineCount()
	}
	return len(f.filteredIndices)
}

// GetLine returns line at filtered index, annotated with matching filters
func (f *FilteredProvider) GetLine(index int) (*Line, error) {
	f.rebuildIndex()

	originalIndex := index
	if f.IsFiltered() {
		if index < 0 || index >= len(f.filteredIndices) {
			return nil, nil
		}
		originalIndex = f.filteredIndices[index]
	}

	line, err := f.source.GetLine(originalIndex)
	if err != nil || line == nil {
		return line, err
	}
	line.OriginalIndex = originalIndex
	line.Filters = f.matching(line.Content)
	return line, nil
}

// GetLines returns a range of filtered lines
func (f *FilteredProvider) GetLines(start, count int) ([]*Line, error) {
	var lines []*Line
	for i := max(start, 0); i < start+count && i < f.LineCount(); i++ {
		line, err := f.GetLine(i)
		if err != nil {
			return lines, err
		}
		if line != nil {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// OriginalLineNumber returns the original line number for a filtered index
func (f *FilteredProvider) OriginalLineNumber(filteredIndex int) int {
	f.rebuildIndex()

	if !f.IsFiltered() {
		return filteredIndex
	}
	if filteredIndex < 0 || filteredIndex >= len(f.filteredIndices) {
		return -1
	}
	return f.filteredIndices[filteredIndex]
}

// FilteredIndex returns the filtered index of the first visible line at or
// after original, or -1 when there is none
func (f *FilteredProvider) FilteredIndex(original int) int {
	f.rebuildIndex()

	if !f.IsFiltered() {
		if original < 0 || original >= f.source.LineCount() {
			return -1
		}
		return original
	}
	i := sort.SearchInts(f.filteredIndices, original)
	if i >= len(f.filteredIndices) {
		return -1
	}
	return i
}

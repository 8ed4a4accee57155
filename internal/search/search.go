package search

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"github.com/TimelordUK/logview/internal/source"
)

// Mode selects how a term is matched against lines
type Mode int

const (
	Exact Mode = iota
	Regex
	Fuzzy
)

// ParseMode maps a config value to a Mode, defaulting to Exact
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "regex":
		return Regex
	case "fuzzy":
		return Fuzzy
	default:
		return Exact
	}
}

func (m Mode) String() string {
	switch m {
	case Regex:
		return "regex"
	case Fuzzy:
		return "fuzzy"
	default:
		return "exact"
	}
}

// Next cycles exact, regex and fuzzy
func (m Mode) Next() Mode {
	return (m + 1) % 3
}

// Range is a matched byte span [Start, End) of a line
type Range struct {
	Start, End int
}

// Match is a line of the searched provider and where the term matched it
type Match struct {
	Line   int
	Ranges []Range
}

// Finder searches a line provider and walks the results. All modes ignore
// case.
type Finder struct {
	mode    Mode
	term    string
	re      *regexp.Regexp
	matches []Match
	current int // -1 before the first jump
	scanned int // provider lines already searched
}

// NewFinder creates an empty finder
func NewFinder(mode Mode) *Finder {
	return &Finder{mode: mode, current: -1}
}

// Mode returns the match mode
func (f *Finder) Mode() Mode {
	return f.mode
}

// SetMode changes the match mode. Results are dropped.
func (f *Finder) SetMode(mode Mode) {
	f.mode = mode
	f.Clear()
}

// Term returns the active search term
func (f *Finder) Term() string {
	return f.term
}

// Clear drops the term and the results
func (f *Finder) Clear() {
	f.term = ""
	f.re = nil
	f.matches = nil
	f.current = -1
	f.scanned = 0
}

// Search runs term over every line of p, replacing previous results. An
// empty term clears the finder.
func (f *Finder) Search(p source.LineProvider, term string) error {
	mode := f.mode
	f.Clear()
	if term == "" {
		return nil
	}

	expr := regexp.QuoteMeta(term)
	if mode == Regex {
		expr = term
	}
	if mode != Fuzzy {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return fmt.Errorf("search %q: %w", term, err)
		}
		f.re = re
	}
	f.term = term

	if mode == Fuzzy {
		f.matches = f.fuzzy(p, 0)
		f.scanned = p.LineCount()
		return nil
	}
	f.Extend(p)
	return nil
}

// Extend searches lines appended to p since the last scan
func (f *Finder) Extend(p source.LineProvider) {
	if f.term == "" {
		return
	}
	total := p.LineCount()
	if total < f.scanned {
		f.matches = nil
		f.current = -1
		f.scanned = 0
	}
	if f.mode == Fuzzy {
		f.matches = append(f.matches, f.fuzzy(p, f.scanned)...)
		f.scanned = total
		return
	}

	for i := f.scanned; i < total; i++ {
		line, err := p.GetLine(i)
		if err != nil || line == nil {
			continue
		}
		if ranges := f.Ranges(line.Content); len(ranges) > 0 {
			f.matches = append(f.matches, Match{Line: i, Ranges: ranges})
		}
	}
	f.scanned = total
}

// lineSource adapts provider lines to fuzzy.Source
type lineSource []*source.Line

func (s lineSource) String(i int) string { return s[i].Content }

func (s lineSource) Len() int { return len(s) }

// fuzzy matches lines [from, LineCount) and returns them in line order
func (f *Finder) fuzzy(p source.LineProvider, from int) []Match {
	lines, err := p.GetLines(from, p.LineCount()-from)
	if err != nil || len(lines) == 0 {
		return nil
	}

	found := fuzzy.FindFrom(f.term, lineSource(lines))
	matches := make([]Match, 0, len(found))
	for _, m := range found {
		matches = append(matches, Match{Line: from + m.Index, Ranges: runs(m.Str, m.MatchedIndexes)})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Line < matches[j].Line })
	return matches
}

// runs collapses the sorted byte offsets of matched runes into ranges
func runs(s string, idx []int) []Range {
	var ranges []Range
	for _, i := range idx {
		if i < 0 || i >= len(s) {
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		if n := len(ranges); n > 0 && ranges[n-1].End == i {
			ranges[n-1].End += size
			continue
		}
		ranges = append(ranges, Range{Start: i, End: i + size})
	}
	return ranges
}

// Ranges returns where the current term matches content
func (f *Finder) Ranges(content string) []Range {
	switch {
	case f.term == "":
		return nil

	case f.mode == Fuzzy:
		found := fuzzy.Find(f.term, []string{content})
		if len(found) == 0 {
			return nil
		}
		return runs(content, found[0].MatchedIndexes)

	default:
		var ranges []Range
		for _, loc := range f.re.FindAllStringIndex(content, -1) {
			if loc[1] > loc[0] {
				ranges = append(ranges, Range{Start: loc[0], End: loc[1]})
			}
		}
		return ranges
	}
}

// Count returns the number of matching lines
func (f *Finder) Count() int {
	return len(f.matches)
}

// Matches returns the matching lines in order
func (f *Finder) Matches() []Match {
	return f.matches
}

// Current returns the match last jumped to
func (f *Finder) Current() (Match, bool) {
	if f.current < 0 || f.current >= len(f.matches) {
		return Match{}, false
	}
	return f.matches[f.current], true
}

// Position returns the 1-based position of the current match, or 0
func (f *Finder) Position() int {
	if _, ok := f.Current(); !ok {
		return 0
	}
	return f.current + 1
}

// Next moves to the first match after line, wrapping to the first match
func (f *Finder) Next(line int) (Match, bool) {
	if len(f.matches) == 0 {
		return Match{}, false
	}
	i := sort.Search(len(f.matches), func(i int) bool { return f.matches[i].Line > line })
	if i == len(f.matches) {
		i = 0
	}
	f.current = i
	return f.matches[i], true
}

// Prev moves to the last match before line, wrapping to the last match
func (f *Finder) Prev(line int) (Match, bool) {
	if len(f.matches) == 0 {
		return Match{}, false
	}
	i := sort.Search(len(f.matches), func(i int) bool { return f.matches[i].Line >= line }) - 1
	if i < 0 {
		i = len(f.matches) - 1
	}
	f.current = i
	return f.matches[i], true
}

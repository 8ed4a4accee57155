package render

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/TimelordUK/logview/internal/config"
	"github.com/TimelordUK/logview/internal/search"
	"github.com/TimelordUK/logview/internal/source"
)

func TestSegments(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		tsLen  int
		ranges []search.Range
		want   []segment
	}{
		{
			name: "plain",
			n:    5,
			want: []segment{{start: 0, end: 5}},
		},
		{
			name:  "timestamp prefix",
			n:     20,
			tsLen: 10,
			want: []segment{
				{start: 0, end: 10, timestamp: true},
				{start: 10, end: 20},
			},
		},
		{
			name:   "match overlapping the timestamp",
			n:      20,
			tsLen:  10,
			ranges: []search.Range{{Start: 8, End: 12}},
			want: []segment{
				{start: 0, end: 8, timestamp: true},
				{start: 8, end: 10, timestamp: true, match: true},
				{start: 10, end: 12, match: true},
				{start: 12, end: 20},
			},
		},
		{
			name:   "out of range spans are clamped",
			n:      4,
			tsLen:  9,
			ranges: []search.Range{{Start: 2, End: 99}, {Start: 3, End: 3}},
			want: []segment{
				{start: 0, end: 2, timestamp: true},
				{start: 2, end: 4, timestamp: true, match: true},
			},
		},
		{
			name: "empty line",
			n:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := segments(tt.n, tt.tsLen, tt.ranges)
			if len(got) != len(tt.want) {
				t.Fatalf("segments = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("segment %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLogRenderer_KeepsText(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Display.TabWidth = 2
	r := NewLogRenderer(cfg)
	r.SetHighlight(func(string) []search.Range { return []search.Range{{Start: 11, End: 16}} })

	filter := &source.Filter{Name: "disk", Foreground: "214"}
	line := &source.Line{
		Content:      "2024-01-02 ERROR\tdisk full",
		TimestampLen: 10,
		New:          true,
		Filters:      []*source.Filter{filter},
	}

	out := r.Render(line)
	for _, part := range []string{"2024-01-02", "ERROR", "disk full"} {
		if !strings.Contains(out, part) {
			t.Fatalf("Render = %q, missing %q", out, part)
		}
	}
	if strings.Contains(out, "\t") {
		t.Fatalf("Render = %q, tabs should be expanded", out)
	}
	if _, ok := r.filters[filter]; !ok {
		t.Fatal("filter style should be cached")
	}
}

func TestLogRenderer_TimestampPrefixKeepsUTF8(t *testing.T) {
	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.TrueColor)
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })

	r := NewLogRenderer(config.DefaultConfig())
	line := &source.Line{Content: "  ééééééééééé fin", TimestampLen: 15}

	out := r.Render(line)
	if !utf8.ValidString(out) {
		t.Fatalf("Render = %q, not valid UTF-8", out)
	}
	if !strings.Contains(out, "\x1b[") {
		t.Fatalf("Render = %q, want colored output", out)
	}
	if !strings.Contains(out, "é fin") {
		t.Fatalf("Render = %q, lost the text after the prefix", out)
	}
}

func TestIsSyntaxHighlightable(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"/var/log/app.json", true},
		{"events.YAML", true},
		{"/var/log/syslog", false},
		{"auth.log", false},
	}
	for _, tt := range tests {
		if got := IsSyntaxHighlightable(tt.name); got != tt.want {
			t.Errorf("IsSyntaxHighlightable(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSyntaxRenderer_PicksLexer(t *testing.T) {
	r := NewSyntaxRenderer("events.json")
	if r.Lexer() != "JSON" {
		t.Fatalf("Lexer = %q, want JSON", r.Lexer())
	}
	if got := r.Render(&source.Line{}); got != "" {
		t.Fatalf("Render(empty) = %q", got)
	}
}

package render

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"

	"github.com/TimelordUK/logview/internal/source"
)

// SyntaxRenderer highlights structured log files (JSON lines, YAML, XML) by
// file type
type SyntaxRenderer struct {
	lexerName   string
	syntaxTheme string
	bold        lipgloss.Style
}

// NewSyntaxRenderer creates a syntax highlighting renderer for the given filename
func NewSyntaxRenderer(filename string) *SyntaxRenderer {
	lexerName := "plaintext"
	if lexer := lexers.Match(filename); lexer != nil {
		lexerName = lexer.Config().Name
	}

	return &SyntaxRenderer{
		lexerName:   lexerName,
		syntaxTheme: "monokai",
		bold:        lipgloss.NewStyle().Bold(true),
	}
}

// Lexer returns the chroma lexer name in use
func (r *SyntaxRenderer) Lexer() string {
	return r.lexerName
}

// Render applies syntax highlighting to a line
func (r *SyntaxRenderer) Render(line *source.Line) string {
	if line.Content == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, line.Content, r.lexerName, "terminal16m", r.syntaxTheme); err != nil {
		return line.Content
	}

	// quick.Highlight may terminate the output with a newline
	highlighted := strings.NewReplacer("\n", "", "\r", "").Replace(buf.String())
	if line.New {
		return r.bold.Render(highlighted)
	}
	return highlighted
}

// IsSyntaxHighlightable reports whether a log file holds a structured format
// worth highlighting
func IsSyntaxHighlightable(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))

	syntaxExts := map[string]bool{
		".json": true, ".jsonl": true, ".ndjson": true,
		".yaml": true, ".yml": true, ".xml": true, ".toml": true,
	}
	return syntaxExts[ext]
}

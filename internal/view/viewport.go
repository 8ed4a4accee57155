package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/TimelordUK/logview/internal/render"
	"github.com/TimelordUK/logview/internal/source"
)

// Viewport manages the visible portion of content
// It knows nothing about log formats, filters, or file sources
// It only knows how to display lines from a LineProvider
type Viewport struct {
	provider source.LineProvider
	renderer render.Renderer

	// Dimensions
	width  int
	height int

	// Scroll position
	scrollOffset int

	// Styling
	lineNumberStyle lipgloss.Style
	highlightStyle  lipgloss.Style
	clip            lipgloss.Style

	// Options
	showLineNumbers bool
	following       bool

	// Highlighted line (original index, -1 for none)
	highlightedLine int
}

// NewViewport creates a new viewport
func NewViewport(width, height int) *Viewport {
	return &Viewport{
		width:           width,
		height:          height,
		showLineNumbers: true,
		lineNumberStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		highlightStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		renderer:        render.NewPlainRenderer(),
		highlightedLine: -1,
	}
}

// SetLineNumberColor sets the color of the line number gutter
func (v *Viewport) SetLineNumberColor(color string) {
	v.lineNumberStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// SetHighlightedLine sets which original line index to highlight (-1 for none)
func (v *Viewport) SetHighlightedLine(originalIndex int) {
	v.highlightedLine = originalIndex
}

// ClearHighlight removes any line highlight
func (v *Viewport) ClearHighlight() {
	v.highlightedLine = -1
}

// SetRenderer sets the line renderer
func (v *Viewport) SetRenderer(r render.Renderer) {
	v.renderer = r
}

// SetProvider sets the line provider
func (v *Viewport) SetProvider(provider source.LineProvider) {
	v.provider = provider
	v.scrollOffset = 0
	v.Refresh()
}

// SetSize updates viewport dimensions
func (v *Viewport) SetSize(width, height int) {
	v.width = width
	v.height = max(height, 1)
	v.Refresh()
}

// Height returns the number of visible lines
func (v *Viewport) Height() int {
	return v.height
}

// SetFollowing keeps the last line in view as the provider grows
func (v *Viewport) SetFollowing(following bool) {
	v.following = following
	if following {
		v.GotoBottom()
	}
}

// Following reports whether the viewport sticks to the bottom
func (v *Viewport) Following() bool {
	return v.following
}

// Refresh re-applies the scroll bounds after the provider changed, moving to
// the bottom when following
func (v *Viewport) Refresh() {
	if v.following {
		v.GotoBottom()
		return
	}
	v.clampScroll()
}

// ScrollDown scrolls down by n lines
func (v *Viewport) ScrollDown(n int) {
	v.scrollOffset += n
	v.clampScroll()
}

// ScrollUp scrolls up by n lines. Scrolling up stops following.
func (v *Viewport) ScrollUp(n int) {
	v.scrollOffset -= n
	v.following = false
	v.clampScroll()
}

// PageDown scrolls down by one page
func (v *Viewport) PageDown() {
	v.ScrollDown(v.height - 1)
}

// PageUp scrolls up by one page
func (v *Viewport) PageUp() {
	v.ScrollUp(v.height - 1)
}

// GotoTop scrolls to the beginning
func (v *Viewport) GotoTop() {
	v.scrollOffset = 0
	v.following = false
}

// GotoBottom scrolls to the end
func (v *Viewport) GotoBottom() {
	if v.provider == nil {
		return
	}
	v.scrollOffset = v.provider.LineCount() - v.height
	v.clampScroll()
}

// GotoLine scrolls so that line is the top line
func (v *Viewport) GotoLine(line int) {
	v.scrollOffset = line
	v.following = false
	v.clampScroll()
}

// ShowLine scrolls only as far as needed to bring line into view
func (v *Viewport) ShowLine(line int) {
	switch {
	case line < v.scrollOffset:
		v.GotoLine(line)
	case line >= v.scrollOffset+v.height:
		v.GotoLine(line - v.height + 1)
	}
}

// CurrentLine returns the current top line number
func (v *Viewport) CurrentLine() int {
	return v.scrollOffset
}

// AtBottom reports whether the last line is visible
func (v *Viewport) AtBottom() bool {
	return v.provider == nil || v.scrollOffset+v.height >= v.provider.LineCount()
}

// clampScroll ensures scroll offset is within valid bounds
func (v *Viewport) clampScroll() {
	if v.provider == nil {
		v.scrollOffset = 0
		return
	}

	maxScroll := max(v.provider.LineCount()-v.height, 0)
	v.scrollOffset = min(max(v.scrollOffset, 0), maxScroll)
}

// Render returns the viewport content as a string
func (v *Viewport) Render() string {
	if v.provider == nil {
		return ""
	}

	lines, err := v.provider.GetLines(v.scrollOffset, v.height)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	var builder strings.Builder
	lastLine := 0
	if n := len(lines); n > 0 {
		lastLine = lines[n-1].OriginalIndex + 1
	}
	lineNumWidth := len(strconv.Itoa(max(lastLine, v.provider.LineCount())))

	availableWidth := v.width
	if v.showLineNumbers {
		availableWidth -= lineNumWidth + 1
	}
	clip := v.clip.MaxWidth(max(availableWidth, 1))

	for i, line := range lines {
		if i > 0 {
			builder.WriteString("\n")
		}

		isHighlighted := v.highlightedLine >= 0 && line.OriginalIndex == v.highlightedLine

		if v.showLineNumbers {
			numStr := fmt.Sprintf("%*d ", lineNumWidth, line.OriginalIndex+1)
			if isHighlighted {
				builder.WriteString(v.highlightStyle.Render(numStr))
			} else {
				builder.WriteString(v.lineNumberStyle.Render(numStr))
			}
		}

		builder.WriteString(clip.Render(v.renderer.Render(line)))
	}

	// Pad with empty lines if needed
	for i := len(lines); i < v.height; i++ {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(v.lineNumberStyle.Render("~"))
	}

	return builder.String()
}

// PercentScrolled returns how far through the file we are
func (v *Viewport) PercentScrolled() float64 {
	if v.provider == nil || v.provider.LineCount() == 0 {
		return 0
	}

	total := v.provider.LineCount()
	if total <= v.height {
		return 100
	}

	return float64(v.scrollOffset) / float64(total-v.height) * 100
}

// SetShowLineNumbers toggles line numbers
func (v *Viewport) SetShowLineNumbers(show bool) {
	v.showLineNumbers = show
}

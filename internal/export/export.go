package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/TimelordUK/logview/internal/days"
	"github.com/TimelordUK/logview/internal/source"
)

// Info describes a written export
type Info struct {
	SourcePath string // Log the lines came from
	OutputPath string
	StartLine  int // First exported line (0-based, inclusive)
	EndLine    int // Last exported line (0-based, exclusive)
	Lines      int // Lines written
}

// Exporter writes portions of a log to files
type Exporter struct {
	dir string
}

// NewExporter creates an exporter writing into dir, or the temp dir when
// dir is empty
func NewExporter(dir string) *Exporter {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Exporter{dir: dir}
}

// Dir returns the output directory
func (e *Exporter) Dir() string {
	return e.dir
}

// Range writes lines [startLine, endLine) of src
func (e *Exporter) Range(src source.LineProvider, sourcePath string, startLine, endLine int) (*Info, error) {
	startLine = max(startLine, 0)
	endLine = min(endLine, src.LineCount())
	if startLine >= endLine {
		return nil, fmt.Errorf("invalid range: %d-%d", startLine, endLine)
	}

	name := fmt.Sprintf("logview-%s-%d-%d.log", filepath.Base(sourcePath), startLine+1, endLine)
	info := &Info{SourcePath: sourcePath, StartLine: startLine, EndLine: endLine}
	if err := e.write(name, info, src, startLine, endLine); err != nil {
		return nil, err
	}
	return info, nil
}

// Day writes the lines of one day bucket of src
func (e *Exporter) Day(src source.LineProvider, sourcePath string, day days.Day) (*Info, error) {
	startLine, endLine := day.FirstLine, min(day.LastLine+1, src.LineCount())
	if startLine >= endLine {
		return nil, fmt.Errorf("day %s has no lines", day.Date.Format("2006-01-02"))
	}

	name := fmt.Sprintf("logview-%s-%s.log", filepath.Base(sourcePath), day.Date.Format("2006-01-02"))
	info := &Info{SourcePath: sourcePath, StartLine: startLine, EndLine: endLine}
	if err := e.write(name, info, src, startLine, endLine); err != nil {
		return nil, err
	}
	return info, nil
}

// Filtered writes the lines currently visible through filtered
func (e *Exporter) Filtered(filtered *source.FilteredProvider, sourcePath string) (*Info, error) {
	count := filtered.LineCount()
	if count == 0 {
		return nil, fmt.Errorf("no lines pass the current filter")
	}

	name := fmt.Sprintf("logview-%s-filtered.log", filepath.Base(sourcePath))
	info := &Info{
		SourcePath: sourcePath,
		StartLine:  filtered.OriginalLineNumber(0),
		EndLine:    filtered.OriginalLineNumber(count-1) + 1,
	}
	if err := e.write(name, info, filtered, 0, count); err != nil {
		return nil, err
	}
	return info, nil
}

// write copies lines [start, end) of src to name in the output directory.
// A partial file is removed on failure.
func (e *Exporter) write(name string, info *Info, src source.LineProvider, start, end int) (err error) {
	path := filepath.Join(e.dir, name)
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close export file: %w", cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	w := bufio.NewWriter(out)
	for i := start; i < end; i++ {
		line, err := src.GetLine(i)
		if err != nil {
			return fmt.Errorf("read line %d: %w", i, err)
		}
		if line == nil {
			continue
		}
		if _, err := w.WriteString(line.Content); err != nil {
			return fmt.Errorf("write line %d: %w", i, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
		info.Lines++
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush export file: %w", err)
	}

	info.OutputPath = path
	return nil
}

// Remove deletes an export's file
func (e *Exporter) Remove(info *Info) error {
	if info == nil || info.OutputPath == "" {
		return nil
	}
	return os.Remove(info.OutputPath)
}

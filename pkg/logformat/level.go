package logformat

import (
	"strings"

	"github.com/TimelordUK/logview/internal/config"
	"github.com/TimelordUK/logview/internal/source"
)

// severityOrder lists levels most severe first; the first match wins
var severityOrder = []source.LogLevel{
	source.LevelFatal,
	source.LevelError,
	source.LevelWarn,
	source.LevelInfo,
	source.LevelDebug,
	source.LevelTrace,
}

// LevelDetector detects log levels from line content
type LevelDetector struct {
	patterns map[source.LogLevel][]string
}

// NewLevelDetector creates a detector from config
func NewLevelDetector(cfg *config.LogLevelConfig) *LevelDetector {
	return &LevelDetector{
		patterns: map[source.LogLevel][]string{
			source.LevelTrace: cfg.TracePatterns,
			source.LevelDebug: cfg.DebugPatterns,
			source.LevelInfo:  cfg.InfoPatterns,
			source.LevelWarn:  cfg.WarnPatterns,
			source.LevelError: cfg.ErrorPatterns,
			source.LevelFatal: cfg.FatalPatterns,
		},
	}
}

// Detect returns the log level for a line
func (d *LevelDetector) Detect(content string) source.LogLevel {
	for _, level := range severityOrder {
		for _, pattern := range d.patterns[level] {
			if strings.Contains(content, pattern) {
				return level
			}
		}
	}
	return source.LevelUnknown
}

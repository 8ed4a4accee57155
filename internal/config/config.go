package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Theme       ThemeConfig      `toml:"theme"`
	LogLevels   LogLevelConfig   `toml:"log_levels"`
	Keybindings KeybindingConfig `toml:"keybindings"`
	Display     DisplayConfig    `toml:"display"`
	Search      SearchConfig     `toml:"search"`
	Watch       WatchConfig      `toml:"watch"`
	Filters     []FilterConfig   `toml:"filters"`
	Logs        LogsConfig       `toml:"logs"`
}

// ThemeConfig defines color schemes
type ThemeConfig struct {
	Name          string         `toml:"name"`
	LineNumbers   string         `toml:"line_numbers"`
	StatusBar     string         `toml:"status_bar"`
	StatusBarText string         `toml:"status_bar_text"`
	SearchMatch   string         `toml:"search_match"`
	Timestamp     string         `toml:"timestamp"`
	Sidebar       string         `toml:"sidebar"`
	Selected      string         `toml:"selected"`
	Levels        LogLevelColors `toml:"levels"`
}

// LogLevelColors defines colors for each log level
type LogLevelColors struct {
	Trace string `toml:"trace"`
	Debug string `toml:"debug"`
	Info  string `toml:"info"`
	Warn  string `toml:"warn"`
	Error string `toml:"error"`
	Fatal string `toml:"fatal"`
}

// LogLevelConfig defines log level detection patterns
type LogLevelConfig struct {
	TracePatterns []string `toml:"trace_patterns"`
	DebugPatterns []string `toml:"debug_patterns"`
	InfoPatterns  []string `toml:"info_patterns"`
	WarnPatterns  []string `toml:"warn_patterns"`
	ErrorPatterns []string `toml:"error_patterns"`
	FatalPatterns []string `toml:"fatal_patterns"`
}

// KeybindingConfig allows customizing keybindings
type KeybindingConfig struct {
	Quit         []string `toml:"quit"`
	ScrollUp     []string `toml:"scroll_up"`
	ScrollDown   []string `toml:"scroll_down"`
	PageUp       []string `toml:"page_up"`
	PageDown     []string `toml:"page_down"`
	Top          []string `toml:"top"`
	Bottom       []string `toml:"bottom"`
	Search       []string `toml:"search"`
	NextMatch    []string `toml:"next_match"`
	PrevMatch    []string `toml:"prev_match"`
	SwitchFocus  []string `toml:"switch_focus"`
	Select       []string `toml:"select"`
	ClearDay     []string `toml:"clear_day"`
	MatchesOnly  []string `toml:"matches_only"`
	Follow       []string `toml:"follow"`
	CloseLog     []string `toml:"close_log"`
	Export       []string `toml:"export"`
	Reload       []string `toml:"reload"`
	MinLevel     []string `toml:"min_level"`
	ToggleFilter []string `toml:"toggle_filter"`
}

// DisplayConfig holds display options
type DisplayConfig struct {
	ShowLineNumbers bool `toml:"show_line_numbers"`
	TabWidth        int  `toml:"tab_width"`
	WrapLines       bool `toml:"wrap_lines"`
	AutoScroll      bool `toml:"auto_scroll"`
	SidebarWidth    int  `toml:"sidebar_width"`
}

// SearchConfig controls the search bar
type SearchConfig struct {
	Mode       string `toml:"mode"` // exact, regex or fuzzy
	DebounceMs int    `toml:"debounce_ms"`
}

// WatchConfig controls how file changes are noticed
type WatchConfig struct {
	// PollMs adds a periodic re-read on top of filesystem notifications; zero disables it
	PollMs int `toml:"poll_ms"`
}

// FilterConfig is a named regex filter with display colors
type FilterConfig struct {
	Name       string `toml:"name"`
	Regex      string `toml:"regex"`
	Foreground string `toml:"foreground"`
	Background string `toml:"background"`
	Invisible  bool   `toml:"invisible"`
}

// LogsConfig remembers the logs opened in previous runs
type LogsConfig struct {
	Stored []string `toml:"stored"`
	Active string   `toml:"active"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Theme: ThemeConfig{
			Name:          "subtle",
			LineNumbers:   "240", // Dark gray
			StatusBar:     "236", // Darker gray background
			StatusBarText: "252", // Light gray text
			SearchMatch:   "226", // Yellow
			Timestamp:     "245", // Gray
			Sidebar:       "250",
			Selected:      "39",
			Levels: LogLevelColors{
				Trace: "240", // Dark gray
				Debug: "244", // Medium gray
				Info:  "250", // Light gray (default)
				Warn:  "214", // Orange
				Error: "167", // Soft red
				Fatal: "196", // Bright red
			},
		},
		LogLevels: LogLevelConfig{
			TracePatterns: []string{"[TRC]", "[TRACE]", "TRACE", "TRC"},
			DebugPatterns: []string{"[DBG]", "[DEBUG]", "DEBUG", "DBG"},
			InfoPatterns:  []string{"[INF]", "[INFO]", "INFO", "INF"},
			WarnPatterns:  []string{"[WRN]", "[WARN]", "[WARNING]", "WARN", "WRN", "WARNING"},
			ErrorPatterns: []string{"[ERR]", "[ERROR]", "ERROR", "ERR"},
			FatalPatterns: []string{"[FTL]", "[FATAL]", "FATAL", "FTL", "[CRIT]", "CRITICAL"},
		},
		Keybindings: KeybindingConfig{
			Quit:         []string{"q", "ctrl+c"},
			ScrollUp:     []string{"k", "up"},
			ScrollDown:   []string{"j", "down"},
			PageUp:       []string{"b", "pgup", "ctrl+u"},
			PageDown:     []string{"f", "pgdown", "ctrl+d", " "},
			Top:          []string{"g", "home"},
			Bottom:       []string{"G", "end"},
			Search:       []string{"/", "ctrl+f"},
			NextMatch:    []string{"n"},
			PrevMatch:    []string{"N"},
			SwitchFocus:  []string{"tab"},
			Select:       []string{"enter"},
			ClearDay:     []string{"esc"},
			MatchesOnly:  []string{"m"},
			Follow:       []string{"F"},
			CloseLog:     []string{"ctrl+w"},
			Export:       []string{"e"},
			Reload:       []string{"r"},
			MinLevel:     []string{"L"},
			ToggleFilter: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"},
		},
		Display: DisplayConfig{
			ShowLineNumbers: true,
			TabWidth:        4,
			WrapLines:       false,
			AutoScroll:      true,
			SidebarWidth:    28,
		},
		Search: SearchConfig{
			Mode:       "exact",
			DebounceMs: 300,
		},
		Watch: WatchConfig{
			PollMs: 1000,
		},
	}
}

// Load loads config from path, or from the default location when path is
// empty, falling back to defaults when the file is missing
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	configPath, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Search.DebounceMs < 0 {
		cfg.Search.DebounceMs = 0
	}
	if cfg.Display.SidebarWidth <= 0 {
		cfg.Display.SidebarWidth = DefaultConfig().Display.SidebarWidth
	}

	return cfg, nil
}

// Save saves config to path, or to the default location when path is empty
func Save(path string, cfg *Config) error {
	configPath, err := resolvePath(path)
	if err != nil {
		return err
	}
	if configPath == "" {
		return nil
	}

	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// StoreLog remembers path as an opened log, keeping the list free of duplicates
func (c *Config) StoreLog(path string) {
	if !slices.Contains(c.Logs.Stored, path) {
		c.Logs.Stored = append(c.Logs.Stored, path)
	}
}

// ForgetLog removes path from the stored logs
func (c *Config) ForgetLog(path string) {
	c.Logs.Stored = slices.DeleteFunc(c.Logs.Stored, func(p string) bool { return p == path })
	if c.Logs.Active == path {
		c.Logs.Active = ""
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return getConfigPath(), nil
	}
	return expandPath(path)
}

// getConfigPath returns the config file path
func getConfigPath() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "logview", "config.toml")
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "logview", "config.toml")
}

// GetConfigPath exports the config path for user reference
func GetConfigPath() string {
	return getConfigPath()
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

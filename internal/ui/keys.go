package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/TimelordUK/logview/internal/config"
)

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	Quit        key.Binding
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Top         key.Binding
	Bottom      key.Binding
	SwitchFocus key.Binding
	Select      key.Binding

	// Logs actions
	Search      key.Binding
	NextMatch   key.Binding
	PrevMatch   key.Binding
	SearchMode  key.Binding
	ClearDay    key.Binding
	MatchesOnly key.Binding
	Follow      key.Binding
	CloseLog    key.Binding
	Export      key.Binding
	Reload      key.Binding
	MinLevel    key.Binding

	// ToggleFilter[i] toggles the i-th named filter
	ToggleFilter []key.Binding

	// Search input
	Confirm key.Binding
	Cancel  key.Binding
}

func binding(keys []string, desc string) key.Binding {
	help := ""
	if len(keys) > 0 {
		help = keys[0]
	}
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(help, desc),
	)
}

// newKeyMap builds the bindings from the keybinding configuration.
func newKeyMap(cfg config.KeybindingConfig) keyMap {
	km := keyMap{
		Quit:        binding(cfg.Quit, "quit"),
		Up:          binding(cfg.ScrollUp, "up"),
		Down:        binding(cfg.ScrollDown, "down"),
		PageUp:      binding(cfg.PageUp, "page up"),
		PageDown:    binding(cfg.PageDown, "page down"),
		Top:         binding(cfg.Top, "top"),
		Bottom:      binding(cfg.Bottom, "bottom"),
		SwitchFocus: binding(cfg.SwitchFocus, "focus"),
		Select:      binding(cfg.Select, "select"),
		Search:      binding(cfg.Search, "search"),
		NextMatch:   binding(cfg.NextMatch, "next"),
		PrevMatch:   binding(cfg.PrevMatch, "prev"),
		SearchMode: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "search mode"),
		),
		ClearDay:    binding(cfg.ClearDay, "all days"),
		MatchesOnly: binding(cfg.MatchesOnly, "matches only"),
		Follow:      binding(cfg.Follow, "follow"),
		CloseLog:    binding(cfg.CloseLog, "close log"),
		Export:      binding(cfg.Export, "export"),
		Reload:      binding(cfg.Reload, "reload"),
		MinLevel:    binding(cfg.MinLevel, "min level"),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
	for _, k := range cfg.ToggleFilter {
		km.ToggleFilter = append(km.ToggleFilter, key.NewBinding(
			key.WithKeys(k),
			key.WithHelp(k, "filter "+k),
		))
	}
	return km
}

// filterIndex returns which filter toggle msg matches, or -1
func (k keyMap) filterIndex(msg tea.KeyMsg) int {
	for i, b := range k.ToggleFilter {
		if key.Matches(msg, b) {
			return i
		}
	}
	return -1
}

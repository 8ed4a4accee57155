// Package ui provides the terminal user interface for logview.
//
// The Model renders a sidebar listing the open logs and the days of the
// active log, a header with the log name, selected day and time of the last
// update, and the log itself through a view.Viewport.
//
// Session events reach the UI through Events, a session.Listener that
// queues them without blocking the manager. The model drains the queue as
// one message, then takes a fresh snapshot of every session that changed.
//
// # Key Bindings
//
// Defaults, all configurable under [keybindings]:
//
//   - tab: cycle focus between the log, the log list and the day list
//   - enter: activate the log or select the day under the cursor
//   - esc: show all days again, or clear the search
//   - /: search, ctrl+t cycles exact, regex and fuzzy matching
//   - n/N: next/previous match, wrapping around
//   - 1-9: toggle named filters, m: show matches only, L: minimum level
//   - F: follow, e: export the visible lines, r: reload, ctrl+w: close log
//   - q: quit
package ui

// Package app is the composition root of logview.
//
// # Overview
//
// Run wires configuration, logging, the session manager, the file watcher
// and one of two front ends:
//
//   - the TUI (internal/ui), fed by a queued session.Listener
//   - print mode (internal/consolidate), which writes day headers and lines
//     to stdout
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()          Read ~/.config/logview/config.toml
//	       ├─────> session.NewManager()   Start the session loop
//	       ├─────> watch.New()            fsnotify plus optional polling
//	       ├─────> Manager.OpenAll()      Open args, stored or discovered logs
//	       └─────> ui.Run() / printLogs() Block until quit or cancel
//
// # Log Selection
//
// Logs named on the command line win. Otherwise the TUI reopens the logs
// stored by the previous run, and falls back to the system defaults from
// /etc/syslog.conf and /var/log. Logs that fail to open are dropped from the
// stored list.
package app

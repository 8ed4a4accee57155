package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/TimelordUK/logview/internal/config"
	"github.com/TimelordUK/logview/internal/consolidate"
	"github.com/TimelordUK/logview/internal/discover"
	"github.com/TimelordUK/logview/internal/export"
	"github.com/TimelordUK/logview/internal/logging"
	"github.com/TimelordUK/logview/internal/session"
	"github.com/TimelordUK/logview/internal/source"
	"github.com/TimelordUK/logview/internal/ui"
	"github.com/TimelordUK/logview/internal/watch"
)

// Options configure the logview application.
type Options struct {
	ConfigPath string // empty uses ~/.config/logview/config.toml
	LogFile    string
	Verbose    bool
	Print      bool // print to Stdout instead of starting the TUI
	Follow     bool // keep printing appended lines until cancelled
	Paths      []string
	Stdout     io.Writer // defaults to os.Stdout
	ExportDir  string    // empty uses the temp dir

	// DefaultLogs lists logs to open when none are given or stored;
	// nil uses discover.Defaults
	DefaultLogs func() []string
}

// Run opens the requested logs and shows them until the context is
// cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(logging.Options{
		LogFile: opts.LogFile,
		Verbose: opts.Verbose,
		Quiet:   !opts.Print,
	})
	if err != nil {
		return err
	}
	defer log.Close()

	filters, err := source.CompileFilters(cfg.Filters)
	if err != nil {
		return fmt.Errorf("load filters: %w", err)
	}

	paths := logPaths(cfg, opts)
	if len(paths) == 0 && opts.Print {
		return errors.New("no logs to print")
	}

	ctx, cancel := context.WithCancel(ctx)

	var listener session.Listener
	var printer *consolidate.Writer
	var events *ui.Events
	if opts.Print {
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		printer = consolidate.NewWriter(out, log)
		printer.SetPrefix(len(paths) > 1)
		listener = printer
	} else {
		events = ui.NewEvents()
		listener = events
	}

	mgr := session.NewManager(session.Options{Listener: listener, Logger: log})

	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = mgr.Run(ctx)
	}()

	var watcher *watch.Watcher
	if !opts.Print || opts.Follow {
		poll := time.Duration(cfg.Watch.PollMs) * time.Millisecond
		watcher, err = watch.New(func(path string) { _ = mgr.NotifyPath(path) }, poll, log)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Run(ctx); err != nil {
				log.Error("watcher stopped: %v", err)
			}
		}()
	}

	_, err = mgr.OpenAll(paths)
	var openErrs session.OpenErrors
	switch {
	case errors.As(err, &openErrs):
		for _, p := range openErrs.Paths() {
			cfg.ForgetLog(p)
		}
	case err != nil:
		return fmt.Errorf("open logs: %w", err)
	}

	opened := mgr.List()
	for _, info := range opened {
		if watcher != nil {
			if err := watcher.Add(info.Path); err != nil {
				log.Error("watch %s: %v", info.Path, err)
			}
		}
		if !opts.Print {
			cfg.StoreLog(info.Path)
			if info.Path == cfg.Logs.Active {
				_ = mgr.SetActive(info.ID)
			}
		}
	}

	if opts.Print {
		return printLogs(ctx, printer, len(opened), opts.Follow)
	}

	uiErr := ui.Run(ui.Options{
		Context:  ctx,
		Sessions: &sessions{Manager: mgr, watcher: watcher},
		Events:   events,
		Config:   cfg,
		Filters:  filters,
		Exporter: export.NewExporter(opts.ExportDir),
		Logger:   log,
	})
	if err := config.Save(opts.ConfigPath, cfg); err != nil {
		log.Error("%v", err)
	}
	return uiErr
}

// logPaths picks the logs to open: the command line, then the logs stored
// by the previous run, then the system defaults
func logPaths(cfg *config.Config, opts Options) []string {
	if len(opts.Paths) > 0 {
		return opts.Paths
	}
	if !opts.Print && len(cfg.Logs.Stored) > 0 {
		return cfg.Logs.Stored
	}
	if opts.DefaultLogs != nil {
		return opts.DefaultLogs()
	}
	return discover.Defaults()
}

func printLogs(ctx context.Context, w *consolidate.Writer, opened int, follow bool) error {
	if follow {
		<-ctx.Done()
		return w.Err()
	}
	if err := w.WaitLoaded(ctx, opened); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return w.Err()
}

// sessions stops watching a log when the UI closes it
type sessions struct {
	*session.Manager
	watcher *watch.Watcher
}

func (s *sessions) Close(id session.ID) error {
	var path string
	for _, info := range s.List() {
		if info.ID == id {
			path = info.Path
		}
	}
	if err := s.Manager.Close(id); err != nil {
		return err
	}
	if s.watcher != nil && path != "" {
		return s.watcher.Remove(path)
	}
	return nil
}

package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/TimelordUK/logview/internal/logging"
)

// Watcher reports changes to a set of files. Parent directories are watched
// rather than the files themselves so that rotated or recreated files keep
// being followed.
type Watcher struct {
	fsw    *fsnotify.Watcher
	notify func(path string)
	poll   time.Duration
	log    *logging.Logger

	mu    sync.Mutex
	files map[string]struct{}
	dirs  map[string]int // watched files per directory
}

// New creates a watcher calling notify with the path of every changed file.
// A non-zero poll also notifies every file periodically, for filesystems
// that deliver no events.
func New(notify func(path string), poll time.Duration, log *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Watcher{
		fsw:    fsw,
		notify: notify,
		poll:   poll,
		log:    log,
		files:  make(map[string]struct{}),
		dirs:   make(map[string]int),
	}, nil
}

// Add starts watching path
func (w *Watcher) Add(path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[path]; ok {
		return nil
	}
	dir := filepath.Dir(path)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.files[path] = struct{}{}
	return nil
}

// Remove stops watching path
func (w *Watcher) Remove(path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[path]; !ok {
		return nil
	}
	delete(w.files, path)

	dir := filepath.Dir(path)
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return nil
	}
	delete(w.dirs, dir)
	if err := w.fsw.Remove(dir); err != nil {
		return fmt.Errorf("unwatch %s: %w", dir, err)
	}
	return nil
}

func (w *Watcher) watched(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[filepath.Clean(path)]
	return ok
}

func (w *Watcher) snapshot() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.files))
	for p := range w.files {
		paths = append(paths, p)
	}
	return paths
}

// Run delivers notifications until ctx is cancelled, then closes the watcher
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var tick <-chan time.Time
	if w.poll > 0 {
		ticker := time.NewTicker(w.poll)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if w.watched(event.Name) {
				w.notify(filepath.Clean(event.Name))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher: %v", err)

		case <-tick:
			for _, path := range w.snapshot() {
				w.notify(path)
			}
		}
	}
}

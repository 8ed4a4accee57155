package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, poll time.Duration) (*Watcher, chan string) {
	t.Helper()
	changed := make(chan string, 64)
	w, err := New(func(path string) { changed <- path }, poll, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return w, changed
}

func waitFor(t *testing.T, changed chan string, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-changed:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("no notification for %s", want)
		}
	}
}

func TestWatcher_NotifiesOnAppend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	other := filepath.Join(dir, "other.log")

	w, changed := startWatcher(t, 0)
	if err := w.Add(path); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	if err := os.WriteFile(other, []byte("ignored\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.WriteString("line\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	f.Close()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-changed:
			if got == other {
				t.Fatalf("notified for unwatched file %s", other)
			}
			if got == path {
				return
			}
		case <-deadline:
			t.Fatalf("no notification for %s", path)
		}
	}
}

func TestWatcher_PollsWatchedFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, changed := startWatcher(t, 10*time.Millisecond)
	if err := w.Add(path); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	waitFor(t, changed, path)
}

func TestWatcher_AddRemoveRefcountsDirectories(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.log")
	b := filepath.Join(dir, "b.log")

	w, _ := startWatcher(t, 0)
	for _, p := range []string{a, b, a} {
		if err := w.Add(p); err != nil {
			t.Fatalf("Add(%s) returned error: %v", p, err)
		}
	}
	if n := w.dirs[dir]; n != 2 {
		t.Fatalf("dir refcount = %d, want 2", n)
	}

	if err := w.Remove(a); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if n := w.dirs[dir]; n != 1 {
		t.Fatalf("dir refcount = %d, want 1", n)
	}
	if err := w.Remove(b); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, ok := w.dirs[dir]; ok {
		t.Fatal("directory still watched after last file removed")
	}
	if w.watched(a) || w.watched(b) {
		t.Fatal("removed files still watched")
	}
}

package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/TimelordUK/logview/internal/days"
	logio "github.com/TimelordUK/logview/internal/io"
	"github.com/TimelordUK/logview/internal/logging"
	"github.com/TimelordUK/logview/internal/textenc"
	"github.com/TimelordUK/logview/pkg/logformat"
)

// Reader reads a file from offset to its current end
type Reader interface {
	ReadFrom(ctx context.Context, path string, offset int64) (logio.Chunk, error)
}

// ReaderFunc adapts a function to Reader
type ReaderFunc func(ctx context.Context, path string, offset int64) (logio.Chunk, error)

func (f ReaderFunc) ReadFrom(ctx context.Context, path string, offset int64) (logio.Chunk, error) {
	return f(ctx, path, offset)
}

// Options configures a Manager. Zero fields get defaults.
type Options struct {
	Reader   Reader
	Listener Listener
	Logger   *logging.Logger
	Decoder  *textenc.Decoder
	Parser   *logformat.TimestampParser
	Now      func() time.Time
}

// Manager is the registry of open sessions
type Manager struct {
	reader   Reader
	listener Listener
	log      *logging.Logger
	decoder  *textenc.Decoder
	parse    days.ParseFunc
	now      func() time.Time

	cmds    chan func()
	stopped chan struct{}

	// owned by the loop
	ctx      context.Context
	sessions map[ID]*Session
	order    []ID
	active   ID
	nextID   ID
	stale    int // completions discarded as superseded
}

// NewManager creates a manager. Nothing happens until Run is called.
func NewManager(opts Options) *Manager {
	m := &Manager{
		reader:   opts.Reader,
		listener: opts.Listener,
		log:      opts.Logger,
		decoder:  opts.Decoder,
		now:      opts.Now,
		cmds:     make(chan func()),
		stopped:  make(chan struct{}),
		sessions: make(map[ID]*Session),
	}
	if m.reader == nil {
		m.reader = ReaderFunc(logio.ReadFrom)
	}
	if m.listener == nil {
		m.listener = NopListener{}
	}
	if m.log == nil {
		m.log = logging.Nop()
	}
	if m.decoder == nil {
		m.decoder = textenc.NewLocale()
	}
	if m.now == nil {
		m.now = time.Now
	}
	parser := opts.Parser
	if parser == nil {
		parser = logformat.NewTimestampParser()
	}
	m.parse = parser.ParseDay
	return m
}

// Run processes commands and read completions until ctx is cancelled. Every
// in-flight read is cancelled on return.
func (m *Manager) Run(ctx context.Context) error {
	m.ctx = ctx
	defer close(m.stopped)
	defer m.cancelAll()

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-m.cmds:
			fn()
		}
	}
}

// call runs fn on the loop and waits for it to finish
func (m *Manager) call(fn func()) error {
	done := make(chan struct{})
	select {
	case m.cmds <- func() { fn(); close(done) }:
	case <-m.stopped:
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-m.stopped:
		return ErrStopped
	}
}

// post queues fn on the loop without waiting for it
func (m *Manager) post(fn func()) {
	select {
	case m.cmds <- fn:
	case <-m.stopped:
	}
}

func (m *Manager) cancelAll() {
	for _, s := range m.sessions {
		if s.cancel != nil {
			s.cancel()
		}
	}
}

// Open starts a session for path and schedules its initial read. Opening a
// path that is already open returns the existing session. The first session
// opened becomes active.
func (m *Manager) Open(path string) (ID, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, &OpenError{Path: path, Err: err}
	}
	if err := checkReadable(abs); err != nil {
		return 0, &OpenError{Path: abs, Err: err}
	}

	var id ID
	err = m.call(func() { id = m.open(abs) })
	return id, err
}

// OpenAll opens every path. Failures are collected into one OpenErrors,
// which is returned and delivered to the listener as a single event.
func (m *Manager) OpenAll(paths []string) ([]ID, error) {
	var ids []ID
	var errs OpenErrors
	for _, path := range paths {
		id, err := m.Open(path)
		if err != nil {
			var openErr *OpenError
			if !errors.As(err, &openErr) {
				return ids, err
			}
			errs = append(errs, openErr)
			continue
		}
		ids = append(ids, id)
	}
	if len(errs) == 0 {
		return ids, nil
	}

	if err := m.call(func() { m.listener.OpenFailed(errs) }); err != nil {
		return ids, err
	}
	return ids, errs
}

func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return logio.ErrNotRegular
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func (m *Manager) open(path string) ID {
	for _, id := range m.order {
		if m.sessions[id].path == path {
			return id
		}
	}

	m.nextID++
	s := newSession(m.nextID, path, m.now(), m.parse)
	m.sessions[s.id] = s
	m.order = append(m.order, s.id)
	m.log.Info("opened %s as session %d", path, s.id)

	m.startRead(s)

	if m.active == 0 {
		m.activate(s.id)
	}
	return s.id
}

// Close removes a session, cancelling any read in flight
func (m *Manager) Close(id ID) error {
	var err error
	if cerr := m.call(func() { err = m.close(id) }); cerr != nil {
		return cerr
	}
	return err
}

func (m *Manager) close(id ID) error {
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("close session %d: %w", id, ErrUnknownSession)
	}
	if s.cancel != nil {
		s.cancel()
	}

	pos := slices.Index(m.order, id)
	m.order = slices.Delete(m.order, pos, pos+1)
	delete(m.sessions, id)
	m.log.Info("closed session %d (%s)", id, s.path)

	m.listener.Closed(id)

	if m.active == id {
		next := ID(0)
		if len(m.order) > 0 {
			next = m.order[min(pos, len(m.order)-1)]
		}
		m.activate(next)
	}
	return nil
}

// SetActive makes id the active session and clears its unseen count
func (m *Manager) SetActive(id ID) error {
	var err error
	if cerr := m.call(func() {
		if _, ok := m.sessions[id]; !ok {
			err = fmt.Errorf("activate session %d: %w", id, ErrUnknownSession)
			return
		}
		m.activate(id)
	}); cerr != nil {
		return cerr
	}
	return err
}

func (m *Manager) activate(id ID) {
	if s, ok := m.sessions[id]; ok {
		s.unseen = 0
	}
	if id == m.active {
		return
	}
	previous := m.active
	m.active = id
	m.listener.ActiveChanged(id, previous)
}

// NotifyChanged reports that the session's file may have changed. A read is
// started when the session is idle; otherwise one follow-up read is
// scheduled for when the current read completes.
func (m *Manager) NotifyChanged(id ID) error {
	var err error
	if cerr := m.call(func() {
		s, ok := m.sessions[id]
		if !ok {
			err = fmt.Errorf("notify session %d: %w", id, ErrUnknownSession)
			return
		}
		m.notify(s)
	}); cerr != nil {
		return cerr
	}
	return err
}

// NotifyPath is NotifyChanged for the session reading path, if any
func (m *Manager) NotifyPath(path string) error {
	return m.call(func() {
		for _, id := range m.order {
			if s := m.sessions[id]; s.path == path {
				m.notify(s)
				return
			}
		}
	})
}

func (m *Manager) notify(s *Session) {
	if s.state == Reading {
		s.pending = true
		return
	}
	m.startRead(s)
}

// RequestRead starts a read now, superseding any read in flight
func (m *Manager) RequestRead(id ID) error {
	var err error
	if cerr := m.call(func() {
		s, ok := m.sessions[id]
		if !ok {
			err = fmt.Errorf("read session %d: %w", id, ErrUnknownSession)
			return
		}
		m.startRead(s)
	}); cerr != nil {
		return cerr
	}
	return err
}

func (m *Manager) startRead(s *Session) {
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	s.state = Reading
	s.pending = false

	ctx, cancel := context.WithCancel(m.ctx)
	s.cancel = cancel

	id, gen, path, offset := s.id, s.gen, s.path, s.tracker.Offset()
	go func() {
		chunk, err := m.reader.ReadFrom(ctx, path, offset)
		m.post(func() { m.finishRead(id, gen, chunk, err) })
	}()
}

func (m *Manager) finishRead(id ID, gen uint64, chunk logio.Chunk, err error) {
	s, ok := m.sessions[id]
	if !ok || s.gen != gen {
		// closed or superseded
		m.stale++
		m.log.Debug("discarding stale read %d of session %d", gen, id)
		return
	}
	s.cancel()
	s.cancel = nil
	s.state = Idle

	switch {
	case errors.Is(err, context.Canceled):
		m.log.Debug("read of %s cancelled", s.path)

	case err != nil:
		readErr := &ReadError{Path: s.path, Err: err}
		m.log.Error("%v", readErr)
		m.listener.LinesReady(LinesEvent{ID: id, Path: s.path, Initial: !s.reported, Err: readErr})
		s.reported = true

	default:
		wasLoaded := s.loaded
		ev, recovered := s.apply(chunk, m.decoder, m.now())
		s.reported = true
		if recovered > 0 {
			m.log.Debug("%s: %d lines decoded as %s", s.path, recovered, m.decoder.Name())
		}
		if chunk.Truncated {
			m.log.Info("%s was truncated, reloaded %d lines", s.path, len(ev.Lines))
		}
		// Reloaded and first-loaded lines are not new
		if id != m.active && wasLoaded && !ev.Reset {
			s.unseen += len(ev.Lines)
		}
		if len(ev.Lines) > 0 || ev.Reset || ev.Initial {
			m.listener.LinesReady(ev)
		}
	}

	if s.pending {
		m.startRead(s)
	}
}

// Snapshot returns a read-only view of a session
func (m *Manager) Snapshot(id ID) (Snapshot, bool) {
	var snap Snapshot
	var ok bool
	_ = m.call(func() {
		var s *Session
		if s, ok = m.sessions[id]; ok {
			snap = s.snapshot()
		}
	})
	return snap, ok
}

// List returns the open sessions in open order
func (m *Manager) List() []Info {
	var infos []Info
	_ = m.call(func() {
		for _, id := range m.order {
			infos = append(infos, m.sessions[id].info())
		}
	})
	return infos
}

// Active returns the active session, or zero
func (m *Manager) Active() ID {
	var id ID
	_ = m.call(func() { id = m.active })
	return id
}

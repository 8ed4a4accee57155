package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/TimelordUK/logview/internal/session"
)

// Messages

type linesMsg session.LinesEvent

type activeMsg struct {
	active, previous session.ID
}

type openFailedMsg session.OpenErrors

type closedMsg session.ID

// eventsMsg carries every event queued since the last delivery
type eventsMsg []tea.Msg

// Events is a session.Listener that queues events for the UI. Pushing never
// blocks the manager's loop; the queue grows until the UI drains it.
type Events struct {
	mu     sync.Mutex
	queue  []tea.Msg
	signal chan struct{}
}

// NewEvents creates an empty queue
func NewEvents() *Events {
	return &Events{signal: make(chan struct{}, 1)}
}

func (e *Events) push(msg tea.Msg) {
	e.mu.Lock()
	e.queue = append(e.queue, msg)
	e.mu.Unlock()

	select {
	case e.signal <- struct{}{}:
	default:
	}
}

func (e *Events) LinesReady(ev session.LinesEvent) { e.push(linesMsg(ev)) }

func (e *Events) ActiveChanged(active, previous session.ID) {
	e.push(activeMsg{active: active, previous: previous})
}

func (e *Events) OpenFailed(errs session.OpenErrors) { e.push(openFailedMsg(errs)) }

func (e *Events) Closed(id session.ID) { e.push(closedMsg(id)) }

// drain removes and returns everything queued
func (e *Events) drain() []tea.Msg {
	e.mu.Lock()
	defer e.mu.Unlock()
	msgs := e.queue
	e.queue = nil
	return msgs
}

// wait returns a command delivering the next batch of events, or nothing
// once ctx is done
func (e *Events) wait(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		for {
			if msgs := e.drain(); len(msgs) > 0 {
				return eventsMsg(msgs)
			}
			select {
			case <-e.signal:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

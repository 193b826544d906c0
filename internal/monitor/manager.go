package monitor

import (
	"context"
	"sync"
	"sync/atomic"
)

// Manager owns the single active monitoring session and the shared
// pause and waiting-for-input flags. Starting a new session retires
// the previous one first, blocking until it has torn down, so at most
// one session ticks at any instant.
type Manager struct {
	cfg  Config
	deps Deps

	paused  atomic.Bool
	waiting atomic.Bool

	mu      sync.Mutex
	current *Session
	cancel  context.CancelFunc
	last    *Session
}

// NewManager creates a manager for the given configuration and
// collaborators.
func NewManager(cfg Config, deps Deps) *Manager {
	return &Manager{cfg: cfg, deps: deps}
}

// Start retires any active session, resets the per-command detector
// state, and launches a new session for command.
func (m *Manager) Start(ctx context.Context, command string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.retireLocked()

	m.deps.Static.Reset()
	m.deps.Arbiter.Reset()
	m.deps.Questions.Clear()

	sessCtx, cancel := context.WithCancel(ctx)
	s := newSession(m.cfg, m.deps, command, &m.paused, &m.waiting)
	m.current = s
	m.cancel = cancel

	go func() {
		s.Run(sessCtx)
		cancel()
	}()

	return s
}

// Retire cancels the active session and blocks until it has exited.
func (m *Manager) Retire() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retireLocked()
}

func (m *Manager) retireLocked() {
	if m.current == nil {
		return
	}
	m.cancel()
	<-m.current.Done()
	m.last = m.current
	m.current = nil
	m.cancel = nil
}

// Pause raises the priority flag, freezing the loop without
// destroying its accumulated detector state.
func (m *Manager) Pause() {
	m.paused.Store(true)
}

// Resume clears the priority flag.
func (m *Manager) Resume() {
	m.paused.Store(false)
}

// WaitingForInput reports whether the monitored terminal is blocked on
// a question.
func (m *Manager) WaitingForInput() bool {
	return m.waiting.Load()
}

// SetWaitingForInput overrides the waiting flag, used by the dispatcher
// after delivering an input response.
func (m *Manager) SetWaitingForInput(v bool) {
	m.waiting.Store(v)
}

// LastResult returns the terminal state of the most recently finished
// session, or StateRunning while one is still active.
func (m *Manager) LastResult() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.current
	if s == nil {
		s = m.last
	}
	if s == nil {
		return StateRunning
	}
	select {
	case <-s.Done():
		return s.Result()
	default:
		return StateRunning
	}
}

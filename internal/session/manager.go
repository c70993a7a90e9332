// Package session multiplexes concurrent interview sessions. Each session is
// driven by its own goroutine that owns the turn state machine exclusively;
// the registry map is the only structure shared across callers and is
// serialized by the manager mutex. Suspending on an external answer is a
// channel receive, so a waiting session never blocks the process or other
// sessions.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/evaluator"
	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/jobconfig"
	"github.com/spigell/interviewer/internal/metrics"
	"github.com/spigell/interviewer/internal/report"
)

const (
	defaultMaxSessions      = 64
	defaultIdleTimeout      = 30 * time.Minute
	defaultEvictionInterval = time.Minute
)

// Config bounds the manager's resource usage.
type Config struct {
	// MaxSessions caps the number of registered sessions.
	MaxSessions int
	// IdleTimeout makes a session with no submitted answer for this long
	// eligible for eviction.
	IdleTimeout time.Duration
	// EvictionInterval is how often the janitor scans for idle sessions.
	EvictionInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxSessions <= 0 {
		c.MaxSessions = defaultMaxSessions
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.EvictionInterval <= 0 {
		c.EvictionInterval = defaultEvictionInterval
	}
	return c
}

// Manager owns the session registry.
type Manager struct {
	cfg      Config
	eval     evaluator.Evaluator
	reporter *report.Reporter
	metrics  *metrics.Metrics
	logger   *zap.Logger

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a manager and starts its eviction janitor. Metrics may
// be nil. Call Close to release all sessions.
func NewManager(cfg Config, eval evaluator.Evaluator, reporter *report.Reporter, m *metrics.Metrics, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	mgr := &Manager{
		cfg:      cfg.withDefaults(),
		eval:     eval,
		reporter: reporter,
		metrics:  m,
		logger:   logger,
		baseCtx:  ctx,
		stop:     cancel,
		sessions: make(map[string]*Session),
	}

	mgr.wg.Add(1)
	go mgr.janitor()

	return mgr
}

// Create validates the job config, registers a fresh session, drives it to
// its first prompt and returns the session id with that prompt.
func (m *Manager) Create(job *jobconfig.JobConfig) (string, *TurnResult, error) {
	if err := job.Validate(); err != nil {
		return "", nil, err
	}

	machine := interview.NewMachine(job, m.eval, m.logger)
	id := uuid.NewString()

	ctx, cancel := context.WithCancel(m.baseCtx)
	s := newSession(id, machine, cancel)

	m.mu.Lock()
	if len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		cancel()
		return "", nil, fmt.Errorf("%w: limit %d", ErrTooManySessions, m.cfg.MaxSessions)
	}
	m.sessions[id] = s
	m.mu.Unlock()

	m.metrics.SessionStarted()
	m.logger.Info("session created", zap.String("session_id", id), zap.Int("questions", len(job.Questions)))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		s.run(ctx, m.reporter, m, m.logger.With(zap.String("session_id", id)))
	}()

	ev := <-s.events
	if ev.err != nil {
		return id, nil, ev.err
	}

	return id, &TurnResult{Prompt: ev.prompt, Done: ev.done, Report: ev.report}, nil
}

// SubmitAnswer resumes the session waiting on an answer and blocks until the
// next prompt or completion. The text may be empty: an empty answer is valid.
func (m *Manager) SubmitAnswer(id, text string) (*TurnResult, error) {
	s := m.lookup(id)
	if s == nil {
		return nil, ErrNotFound
	}

	if err := s.accept(); err != nil {
		return nil, err
	}

	s.answers <- text

	ev := <-s.events
	if ev.err != nil {
		return nil, ev.err
	}

	return &TurnResult{Prompt: ev.prompt, Done: ev.done, Report: ev.report}, nil
}

// GetState returns a read-only snapshot of the session state. It never
// mutates the session.
func (m *Manager) GetState(id string) (interview.SessionState, error) {
	s := m.lookup(id)
	if s == nil {
		return interview.SessionState{}, ErrNotFound
	}
	return s.snapshot(), nil
}

// Cancel terminates the session, releasing any goroutine suspended on an
// external answer with a cancellation signal.
func (m *Manager) Cancel(id string) error {
	s := m.lookup(id)
	if s == nil {
		return ErrNotFound
	}
	if s.terminal() {
		return ErrAlreadyCompleted
	}

	s.cancel()
	return nil
}

// Len reports the number of registered sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close cancels every session and waits for their runners to exit.
func (m *Manager) Close() {
	m.stop()
	m.wg.Wait()

	m.mu.Lock()
	for id := range m.sessions {
		delete(m.sessions, id)
		m.metrics.SessionRemoved()
	}
	m.mu.Unlock()
}

func (m *Manager) lookup(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// finish records the terminal outcome of a session runner.
func (m *Manager) finish(s *Session, outcome interview.Phase) {
	switch outcome {
	case interview.PhaseDone:
		m.metrics.SessionCompleted()
	case interview.PhaseCancelled:
		m.metrics.SessionCancelled()
	case interview.PhaseFailed:
		m.metrics.SessionFailed()
	}

	m.logger.Info("session finished",
		zap.String("session_id", s.id),
		zap.String("outcome", string(outcome)),
	)
}

// janitor evicts sessions idle beyond the configured timeout and sweeps
// terminal sessions. A late SubmitAnswer for an evicted id fails with
// ErrNotFound.
func (m *Manager) janitor() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.EvictionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.baseCtx.Done():
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.cfg.IdleTimeout)

	m.mu.Lock()
	var evicted []*Session
	for id, s := range m.sessions {
		if s.idleSince().After(cutoff) {
			continue
		}
		delete(m.sessions, id)
		evicted = append(evicted, s)
	}
	m.mu.Unlock()

	for _, s := range evicted {
		wasTerminal := s.terminal()
		s.cancel()
		m.metrics.SessionRemoved()
		if !wasTerminal {
			m.metrics.SessionEvicted()
			m.logger.Info("idle session evicted", zap.String("session_id", s.id))
		}
	}
}

package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/logger"
	"github.com/spigell/interviewer/internal/report"
)

// TurnResult is what a caller gets back after creating a session or
// submitting an answer: either the next prompt, or a completion signal with
// the final report. The caller is never left without one of the two.
type TurnResult struct {
	Prompt string
	Done   bool
	Report string
}

// turnEvent is published by the runner exactly once per consumed interaction:
// one per emitted prompt, plus one terminal event.
type turnEvent struct {
	prompt string
	done   bool
	report string
	err    error
}

// Session pairs one interview state machine with the primitives needed to
// suspend on "awaiting answer" and resume later. The runner goroutine is the
// sole toucher of the machine; s.mu guards only the handoff flags and a
// cached state snapshot, so accept and GetState never wait behind a judge
// call.
type Session struct {
	id      string
	created time.Time

	// machine is owned by the runner goroutine. Nothing else may call it.
	machine *interview.Machine

	mu           sync.Mutex
	state        interview.SessionState
	lastActivity time.Time
	// awaiting is true while the runner has emitted a prompt and waits for
	// its answer.
	awaiting bool
	// answerInFlight is true between an accepted SubmitAnswer and the end of
	// its evaluation. It rejects double-submits.
	answerInFlight bool

	answers chan string
	events  chan turnEvent
	cancel  context.CancelFunc
	done    chan struct{}
}

func newSession(id string, machine *interview.Machine, cancel context.CancelFunc) *Session {
	now := time.Now()
	return &Session{
		id:           id,
		created:      now,
		lastActivity: now,
		machine:      machine,
		state:        machine.Snapshot(),
		answers:      make(chan string, 1),
		// One slot for the in-flight prompt event plus one for the terminal
		// event, so the runner never blocks publishing.
		events: make(chan turnEvent, 2),
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// run drives the machine until a terminal phase: emit prompt, suspend on the
// answer channel, evaluate, repeat; then review and report.
func (s *Session) run(ctx context.Context, reporter *report.Reporter, mgr *Manager, log *zap.Logger) {
	defer close(s.done)

	for {
		followup := len(s.machine.Snapshot().PendingFollowups) > 0
		prompt, ok := s.machine.NextPrompt()

		s.mu.Lock()
		if ok {
			s.awaiting = true
		}
		s.state = s.machine.Snapshot()
		s.mu.Unlock()

		if !ok {
			break
		}

		if followup {
			mgr.metrics.FollowupAsked()
		}
		log.Debug("prompt emitted",
			zap.Bool("followup", followup),
			zap.String("prompt", logger.TruncateForLog(prompt, 120)),
		)
		s.events <- turnEvent{prompt: prompt}

		select {
		case answer := <-s.answers:
			s.mu.Lock()
			s.awaiting = false
			s.mu.Unlock()

			// answerInFlight stays set across the evaluation so a racing
			// submit is rejected instead of queued.
			err := s.machine.Submit(ctx, answer)

			s.mu.Lock()
			s.answerInFlight = false
			s.state = s.machine.Snapshot()
			s.mu.Unlock()

			mgr.metrics.TurnEvaluated()
			if err != nil {
				// Invariant violation: fatal to this session only.
				s.events <- turnEvent{done: true, err: err}
				mgr.finish(s, interview.PhaseFailed)
				return
			}
		case <-ctx.Done():
			s.machine.Cancel()
			s.publishState()
			s.events <- turnEvent{done: true, err: ErrCancelled}
			mgr.finish(s, interview.PhaseCancelled)
			return
		}
	}

	if s.machine.Phase() != interview.PhaseReviewing {
		s.events <- turnEvent{done: true, err: ErrCancelled}
		mgr.finish(s, s.machine.Phase())
		return
	}

	summary := reporter.Review(ctx, s.machine.JobDescription(), s.machine.Answers())

	// Cancellation during the review window must not be absorbed into a
	// degraded done report.
	if ctx.Err() != nil {
		s.machine.Cancel()
		s.publishState()
		s.events <- turnEvent{done: true, err: ErrCancelled}
		mgr.finish(s, interview.PhaseCancelled)
		return
	}

	s.machine.BeginReporting()
	s.publishState()

	text := reporter.Report(summary)

	s.machine.CompleteReport(text)
	s.publishState()

	s.events <- turnEvent{done: true, report: text}
	mgr.finish(s, interview.PhaseDone)
}

// publishState refreshes the cached snapshot after a machine transition.
func (s *Session) publishState() {
	snap := s.machine.Snapshot()
	s.mu.Lock()
	s.state = snap
	s.mu.Unlock()
}

// accept validates and registers an incoming answer without delivering it.
// Callers deliver on the answers channel only after accept returns nil.
func (s *Session) accept() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state.Phase {
	case interview.PhaseCancelled:
		return ErrCancelled
	case interview.PhaseDone, interview.PhaseFailed:
		return ErrAlreadyCompleted
	}

	// Ids are handed out only together with the first prompt, so an answer
	// with no prompt outstanding is a usage error, never an early arrival.
	if s.answerInFlight || !s.awaiting {
		return ErrNoPendingQuestion
	}

	s.answerInFlight = true
	s.lastActivity = time.Now()
	return nil
}

func (s *Session) snapshot() interview.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Phase.Terminal()
}

// Package interview implements the dialogue orchestration core: the turn
// state machine that sequences main questions and bounded follow-up probes,
// records resolved answers, and terminates into the review phase.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/evaluator"
	"github.com/spigell/interviewer/internal/jobconfig"
	"github.com/spigell/interviewer/internal/judge"
)

// ErrInvariant marks a state that should never be reachable. It is fatal to
// the affected session only; the machine enters PhaseFailed.
var ErrInvariant = errors.New("internal invariant violation")

// ErrNotAwaiting is returned when an answer is submitted while the machine is
// not in the awaiting-answer state.
var ErrNotAwaiting = errors.New("no answer awaited")

// Machine drives one interview through its turns. It is not safe for
// concurrent use; the owning session runner is its sole caller.
type Machine struct {
	questions    []jobconfig.Question
	eval         evaluator.Evaluator
	maxFollowups int
	scope        jobconfig.FollowUpScope
	logger       *zap.Logger

	state SessionState
}

// NewMachine seeds a machine from the job configuration snapshot. The config
// must already be validated.
func NewMachine(cfg *jobconfig.JobConfig, eval evaluator.Evaluator, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Machine{
		questions:    append([]jobconfig.Question(nil), cfg.Questions...),
		eval:         eval,
		maxFollowups: cfg.MaxFollowupChances,
		scope:        cfg.Scope(),
		logger:       logger,
		state: SessionState{
			JobDescription: cfg.JobDescription,
			Phase:          PhaseInterviewing,
			FollowUps:      make(map[int]*FollowUpState),
		},
	}
}

// NextPrompt selects the next prompt to emit: the head of the follow-up queue
// first, then the next main question. When neither remains it transitions to
// PhaseReviewing and reports ok=false.
func (m *Machine) NextPrompt() (prompt string, ok bool) {
	if m.state.Phase != PhaseInterviewing {
		return "", false
	}

	if len(m.state.PendingFollowups) > 0 {
		prompt = m.state.PendingFollowups[0]
		m.state.PendingFollowups = m.state.PendingFollowups[1:]
		m.state.CurrentPrompt = prompt
		m.state.AwaitingAnswer = true
		return prompt, true
	}

	if m.state.QuestionIndex < len(m.questions) {
		prompt = m.questions[m.state.QuestionIndex].Text
		m.state.CurrentPrompt = prompt
		m.state.AwaitingAnswer = true
		return prompt, true
	}

	m.state.Phase = PhaseReviewing
	m.state.CurrentPrompt = ""
	return "", false
}

// Submit delivers the external answer for the current prompt and runs the
// evaluation turn. The answer may be empty: an empty string is a valid,
// recordable non-answer. Judge failures are absorbed: the turn is recorded as
// unevaluated and the question advances.
func (m *Machine) Submit(ctx context.Context, answer string) error {
	if m.state.Phase != PhaseInterviewing {
		return fmt.Errorf("submit in phase %s: %w", m.state.Phase, ErrNotAwaiting)
	}
	if !m.state.AwaitingAnswer {
		return ErrNotAwaiting
	}

	m.state.AwaitingAnswer = false
	m.state.CurrentPrompt = ""

	if m.state.QuestionIndex >= len(m.questions) {
		return m.fail("awaiting answer with question index past the question set")
	}

	question := m.questions[m.state.QuestionIndex]
	answer = strings.TrimSpace(answer)

	// Follow-ups probe a prior gap, but the answer is always evaluated
	// against the original question's full required-point set.
	verdict, err := m.eval.Evaluate(ctx, &question, answer)
	if err != nil {
		m.logger.Warn("evaluation unavailable, recording turn unevaluated",
			zap.String("question_id", question.ID),
			zap.Error(err),
		)
		m.advance(question, answer, nil, unevaluatedNote(question, err))
		return nil
	}

	fu := m.followUps(m.state.QuestionIndex)
	fu.History = append(fu.History, verdict)

	missing := fu.remainingGap(question.RequiredKeywords)
	if len(missing) == 0 {
		m.advance(question, answer, nil, question.Guidance)
		return nil
	}

	if m.scheduleFollowups(fu, verdict, missing) {
		m.logger.Debug("follow-up scheduled",
			zap.String("question_id", question.ID),
			zap.Strings("missing", missing),
			zap.Int("followup_count", fu.Count),
		)
		return nil
	}

	// Budget exhausted: move past all remaining gaps for this question.
	m.advance(question, answer, missing, question.Guidance)
	return nil
}

// followUps returns the follow-up tracking for a question index, creating it
// lazily on first evaluation.
func (m *Machine) followUps(idx int) *FollowUpState {
	fu, ok := m.state.FollowUps[idx]
	if !ok {
		fu = &FollowUpState{}
		m.state.FollowUps[idx] = fu
	}
	return fu
}

// scheduleFollowups enqueues the next probes if the budget allows and reports
// whether any were scheduled.
func (m *Machine) scheduleFollowups(fu *FollowUpState, verdict *judge.Verdict, missing []string) bool {
	if m.scope == jobconfig.ScopeKeyword {
		return m.scheduleByKeyword(fu, verdict, missing)
	}

	if fu.Count >= m.maxFollowups {
		return false
	}
	fu.Count++

	if probe := strings.TrimSpace(verdict.FollowUp); probe != "" {
		m.state.PendingFollowups = append(m.state.PendingFollowups, probe)
		return true
	}
	for _, point := range missing {
		m.state.PendingFollowups = append(m.state.PendingFollowups, deriveFollowUp(point))
	}
	return true
}

func (m *Machine) scheduleByKeyword(fu *FollowUpState, verdict *judge.Verdict, missing []string) bool {
	if fu.PerPoint == nil {
		fu.PerPoint = make(map[string]int, len(missing))
	}

	scheduled := false
	probe := strings.TrimSpace(verdict.FollowUp)
	for _, point := range missing {
		if fu.PerPoint[point] >= m.maxFollowups {
			continue
		}
		fu.PerPoint[point]++
		fu.Count++

		text := deriveFollowUp(point)
		if probe != "" {
			text, probe = probe, ""
		}
		m.state.PendingFollowups = append(m.state.PendingFollowups, text)
		scheduled = true
	}

	return scheduled
}

// advance resolves the current question: it appends the answered record,
// clears the follow-up queue so stale probes cannot resurrect, and moves the
// index forward.
func (m *Machine) advance(question jobconfig.Question, answer string, missing []string, notes string) {
	m.state.Answers = append(m.state.Answers, AnsweredRecord{
		QuestionID: question.ID,
		Question:   question.Text,
		Answer:     answer,
		Missing:    missing,
		Notes:      notes,
	})
	m.state.PendingFollowups = nil
	m.state.QuestionIndex++
}

func (m *Machine) fail(reason string) error {
	m.state.Phase = PhaseFailed
	m.logger.Error("interview invariant violated",
		zap.String("reason", reason),
		zap.Any("state", m.Snapshot()),
	)
	return fmt.Errorf("%w: %s", ErrInvariant, reason)
}

// BeginReporting transitions Reviewing -> Reporting.
func (m *Machine) BeginReporting() {
	if m.state.Phase == PhaseReviewing {
		m.state.Phase = PhaseReporting
	}
}

// CompleteReport stores the formatted report and finishes the session. A
// session already in a terminal phase stays there.
func (m *Machine) CompleteReport(report string) {
	if m.state.Phase.Terminal() {
		return
	}
	m.state.Report = report
	m.state.Phase = PhaseDone
}

// Cancel moves the session to the cancelled terminal phase. Distinct from
// PhaseDone.
func (m *Machine) Cancel() {
	if !m.state.Phase.Terminal() {
		m.state.Phase = PhaseCancelled
		m.state.AwaitingAnswer = false
		m.state.CurrentPrompt = ""
	}
}

// Phase returns the current lifecycle phase.
func (m *Machine) Phase() Phase {
	return m.state.Phase
}

// Answers returns a copy of the resolved answer log.
func (m *Machine) Answers() []AnsweredRecord {
	return append([]AnsweredRecord(nil), m.state.Answers...)
}

// JobDescription returns the job description the session was seeded with.
func (m *Machine) JobDescription() string {
	return m.state.JobDescription
}

// Snapshot returns a read-only deep copy of the session state.
func (m *Machine) Snapshot() SessionState {
	return m.state.Clone()
}

func deriveFollowUp(point string) string {
	return fmt.Sprintf("You didn’t mention “%s”. Could you add details regarding %s?", point, point)
}

func unevaluatedNote(question jobconfig.Question, err error) string {
	note := fmt.Sprintf("evaluation unavailable: %s", err)
	if question.Guidance != "" {
		note = question.Guidance + "; " + note
	}
	return note
}

package interview

import (
	"github.com/spigell/interviewer/internal/judge"
)

// Phase is the lifecycle phase of one interview session.
type Phase string

const (
	PhaseInterviewing Phase = "interviewing"
	PhaseReviewing    Phase = "reviewing"
	PhaseReporting    Phase = "reporting"
	PhaseDone         Phase = "done"
	PhaseCancelled    Phase = "cancelled"
	// PhaseFailed is entered when an internal invariant is violated. Fatal to
	// this session only.
	PhaseFailed Phase = "failed"
)

// Terminal reports whether the phase allows no further transitions.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseCancelled || p == PhaseFailed
}

// FollowUpState tracks the follow-up budget for one question. Created lazily
// on the first evaluation of that question and mutated only by the machine.
type FollowUpState struct {
	// Count is the number of follow-up turns spent on this question.
	Count int `json:"count"`
	// PerPoint carries the per-keyword counters when the keyword scope is
	// configured.
	PerPoint map[string]int `json:"per_point,omitempty"`
	// History holds every verdict received for this question, in order.
	History []*judge.Verdict `json:"-"`
}

// remainingGap returns the required points not yet covered by any verdict
// recorded for this question, preserving input order. A point is covered once
// any answer in the question's turn history had it present or explained, so a
// follow-up answer does not have to restate points already given.
func (f *FollowUpState) remainingGap(required []string) []string {
	covered := make(map[string]bool, len(required))
	for _, v := range f.History {
		for point, status := range v.Points {
			if status != judge.StatusMissing {
				covered[point] = true
			}
		}
	}

	var missing []string
	for _, point := range required {
		if !covered[point] {
			missing = append(missing, point)
		}
	}
	return missing
}

// AnsweredRecord is the append-only log entry produced once a question is
// fully resolved: its last answer, the gap left at that point, and notes.
type AnsweredRecord struct {
	QuestionID string   `json:"question_id"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Missing    []string `json:"missing,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// SessionState is the aggregate root of one interview. Exactly one exists per
// session and it is owned exclusively by that session's runner.
type SessionState struct {
	JobDescription   string                 `json:"job_description"`
	QuestionIndex    int                    `json:"question_index"`
	PendingFollowups []string               `json:"pending_followups,omitempty"`
	CurrentPrompt    string                 `json:"current_prompt,omitempty"`
	AwaitingAnswer   bool                   `json:"awaiting_answer"`
	Answers          []AnsweredRecord       `json:"answers"`
	FollowUps        map[int]*FollowUpState `json:"followups,omitempty"`
	Phase            Phase                  `json:"phase"`
	Report           string                 `json:"report,omitempty"`
}

// Clone returns a deep copy safe to hand outside the owning runner. Verdict
// pointers are shared: verdicts are immutable once received.
func (s *SessionState) Clone() SessionState {
	out := *s

	out.PendingFollowups = append([]string(nil), s.PendingFollowups...)

	out.Answers = make([]AnsweredRecord, len(s.Answers))
	for i, a := range s.Answers {
		out.Answers[i] = a
		out.Answers[i].Missing = append([]string(nil), a.Missing...)
	}

	if s.FollowUps != nil {
		out.FollowUps = make(map[int]*FollowUpState, len(s.FollowUps))
		for idx, fu := range s.FollowUps {
			cp := &FollowUpState{Count: fu.Count}
			if fu.PerPoint != nil {
				cp.PerPoint = make(map[string]int, len(fu.PerPoint))
				for k, v := range fu.PerPoint {
					cp.PerPoint[k] = v
				}
			}
			cp.History = append([]*judge.Verdict(nil), fu.History...)
			out.FollowUps[idx] = cp
		}
	}

	return out
}

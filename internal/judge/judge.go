package judge

import (
	"context"
	"errors"

	"github.com/spigell/interviewer/internal/jobconfig"
)

// PointStatus describes how well an answer covered one expected point.
type PointStatus string

const (
	StatusPresent   PointStatus = "present"
	StatusExplained PointStatus = "explained"
	StatusMissing   PointStatus = "missing"
)

// Judge failures. The turn state machine treats all three as recoverable:
// the affected turn is recorded as unevaluated and the session advances.
var (
	ErrUnavailable       = errors.New("judge unavailable")
	ErrTimeout           = errors.New("judge timed out")
	ErrMalformedResponse = errors.New("judge returned malformed response")
)

// Verdict is the structured result of judging one answer. Immutable once
// received.
type Verdict struct {
	// Points maps each expected point to its coverage status.
	Points map[string]PointStatus
	// Score is the overall score in [0, 1].
	Score float64
	// FollowUp is an optional probe question suggested by the judge for the
	// biggest remaining gap.
	FollowUp string
}

// Missing returns the point names with StatusMissing, preserving the order of
// the provided expected points. Points the verdict does not mention at all are
// also treated as missing.
func (v *Verdict) Missing(expected []string) []string {
	var missing []string
	for _, point := range expected {
		status, ok := v.Points[point]
		if !ok || status == StatusMissing {
			missing = append(missing, point)
		}
	}
	return missing
}

// Answer is one resolved question/answer pair handed to Summarize. It mirrors
// interview.AnsweredRecord without importing it.
type Answer struct {
	QuestionID string
	Question   string
	Answer     string
	Missing    []string
	Notes      string
}

// Judge produces semantic verdicts on interview answers.
type Judge interface {
	// Evaluate judges a single answer against the question's expected points.
	Evaluate(ctx context.Context, question *jobconfig.Question, answer string) (*Verdict, error)
	// Summarize produces a free-text evaluation of the whole interview.
	Summarize(ctx context.Context, jobDescription string, answers []Answer) (string, error)
}

// IsRecoverable reports whether err is one of the judge failure kinds the
// state machine absorbs at the turn boundary.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrMalformedResponse)
}

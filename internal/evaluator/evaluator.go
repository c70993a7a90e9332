// Package evaluator provides the gap-detection strategies used by the turn
// state machine: a deterministic keyword matcher and a judge-backed semantic
// evaluator. Both are interchangeable behind the Evaluator interface and are
// selected by configuration.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spigell/interviewer/internal/jobconfig"
	"github.com/spigell/interviewer/internal/judge"
)

// Evaluator inspects one answer against its question's required points.
type Evaluator interface {
	Evaluate(ctx context.Context, question *jobconfig.Question, answer string) (*judge.Verdict, error)
}

// Semantic delegates gap detection to an external judge, bounding each call
// with a timeout so a slow judge cannot stall the turn.
type Semantic struct {
	judge   judge.Judge
	timeout time.Duration
}

// NewSemantic creates the judge-backed evaluator. A non-positive timeout
// disables the per-call deadline.
func NewSemantic(j judge.Judge, timeout time.Duration) *Semantic {
	return &Semantic{judge: j, timeout: timeout}
}

func (s *Semantic) Evaluate(ctx context.Context, question *jobconfig.Question, answer string) (*judge.Verdict, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	verdict, err := s.judge.Evaluate(ctx, question, answer)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", judge.ErrTimeout, err)
		}
		return nil, err
	}

	return verdict, nil
}

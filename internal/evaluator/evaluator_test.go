package evaluator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spigell/interviewer/internal/jobconfig"
	"github.com/spigell/interviewer/internal/judge"
)

type stubJudge struct {
	verdict *judge.Verdict
	err     error
	block   bool
}

func (s *stubJudge) Evaluate(ctx context.Context, _ *jobconfig.Question, _ string) (*judge.Verdict, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.verdict, s.err
}

func (s *stubJudge) Summarize(context.Context, string, []judge.Answer) (string, error) {
	return "", nil
}

func TestSemanticPassesVerdictThrough(t *testing.T) {
	t.Parallel()

	want := &judge.Verdict{Score: 0.9}
	eval := NewSemantic(&stubJudge{verdict: want}, time.Second)

	got, err := eval.Evaluate(context.Background(), &jobconfig.Question{ID: "q1"}, "answer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("expected the judge verdict to pass through")
	}
}

func TestSemanticMapsDeadlineToTimeout(t *testing.T) {
	t.Parallel()

	eval := NewSemantic(&stubJudge{block: true}, 10*time.Millisecond)

	_, err := eval.Evaluate(context.Background(), &jobconfig.Question{ID: "q1"}, "answer")
	if !errors.Is(err, judge.ErrTimeout) {
		t.Fatalf("expected judge timeout, got %v", err)
	}
}

func TestSemanticKeepsJudgeErrors(t *testing.T) {
	t.Parallel()

	eval := NewSemantic(&stubJudge{err: judge.ErrUnavailable}, time.Second)

	_, err := eval.Evaluate(context.Background(), &jobconfig.Question{ID: "q1"}, "answer")
	if !errors.Is(err, judge.ErrUnavailable) {
		t.Fatalf("expected judge unavailable, got %v", err)
	}
}

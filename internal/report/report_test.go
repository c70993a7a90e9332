package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/jobconfig"
	"github.com/spigell/interviewer/internal/judge"
)

type stubJudge struct {
	summary string
	err     error
	got     []judge.Answer
}

func (s *stubJudge) Evaluate(context.Context, *jobconfig.Question, string) (*judge.Verdict, error) {
	return nil, errors.New("not used")
}

func (s *stubJudge) Summarize(_ context.Context, _ string, answers []judge.Answer) (string, error) {
	s.got = answers
	return s.summary, s.err
}

func testAnswers() []interview.AnsweredRecord {
	return []interview.AnsweredRecord{
		{
			QuestionID: "q1",
			Question:   "Describe your caching experience",
			Answer:     "redis with ttl",
		},
		{
			QuestionID: "q2",
			Question:   "What messaging systems have you run?",
			Answer:     "none",
			Missing:    []string{"kafka"},
			Notes:      "evaluation unavailable: judge timed out",
		},
	}
}

func TestReviewWithJudge(t *testing.T) {
	t.Parallel()

	j := &stubJudge{summary: "Solid caching, weak messaging."}
	r := New(j, nil, 0, zap.NewNop())

	summary := r.Review(context.Background(), "Backend engineer", testAnswers())

	if summary.Evaluation != "Solid caching, weak messaging." {
		t.Fatalf("unexpected evaluation: %q", summary.Evaluation)
	}
	if summary.Note != "" {
		t.Fatalf("unexpected degradation note: %q", summary.Note)
	}
	if len(j.got) != 2 || j.got[1].Missing[0] != "kafka" {
		t.Fatalf("judge did not receive the full answer set: %+v", j.got)
	}
}

func TestReviewDegradesOnJudgeFailure(t *testing.T) {
	t.Parallel()

	r := New(&stubJudge{err: judge.ErrUnavailable}, nil, 0, zap.NewNop())

	summary := r.Review(context.Background(), "Backend engineer", testAnswers())

	if summary.Evaluation != "" {
		t.Fatalf("unexpected evaluation: %q", summary.Evaluation)
	}
	if !strings.Contains(summary.Note, "evaluation unavailable") {
		t.Fatalf("expected a degradation note, got %q", summary.Note)
	}
	if len(summary.Answers) != 2 {
		t.Fatalf("answers must survive a degraded review")
	}
}

func TestReviewWithoutJudge(t *testing.T) {
	t.Parallel()

	r := New(nil, nil, 0, zap.NewNop())

	summary := r.Review(context.Background(), "Backend engineer", testAnswers())

	if summary.Evaluation != "" || summary.Note != "" {
		t.Fatalf("mechanical review should carry no evaluation: %+v", summary)
	}
	if summary.GeneratedAt.IsZero() {
		t.Fatalf("expected a generation timestamp")
	}
}

func TestTextFormatter(t *testing.T) {
	t.Parallel()

	r := New(nil, nil, 0, zap.NewNop())
	summary := r.Review(context.Background(), "Backend engineer", testAnswers())
	summary.Evaluation = "Hire for the caching role."
	summary.Note = "judge degraded"

	text := r.Report(summary)

	for _, want := range []string{
		"=== Interview Complete ===",
		"Q (q1): Describe your caching experience",
		"A: redis with ttl",
		"Missing keywords: kafka",
		"Notes: evaluation unavailable: judge timed out",
		"Overall evaluation:\nHire for the caching role.",
		"Note: judge degraded",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("report missing %q:\n%s", want, text)
		}
	}
}

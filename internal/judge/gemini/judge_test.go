package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/jobconfig"
	"github.com/spigell/interviewer/internal/judge"
)

type stubGenerator struct {
	response string
	err      error
	prompt   string
}

func (s *stubGenerator) GenerateContent(_ context.Context, _ string, prompt string) (string, error) {
	s.prompt = prompt
	return s.response, s.err
}

func testQuestion() *jobconfig.Question {
	return &jobconfig.Question{
		ID:               "q1",
		Text:             "Describe your caching experience",
		RequiredKeywords: []string{"redis", "ttl"},
	}
}

func TestEvaluateParsesVerdict(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{response: "```json\n" + `{
  "points": {"redis": "present", "ttl": "missing"},
  "score": 0.5,
  "follow_up": "What eviction policy did you use?"
}` + "\n```"}
	j := NewJudge(gen, zap.NewNop(), 0)

	verdict, err := j.Evaluate(context.Background(), testQuestion(), "I used Redis for sessions")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if verdict.Points["redis"] != judge.StatusPresent {
		t.Fatalf("expected redis present, got %s", verdict.Points["redis"])
	}
	if verdict.Points["ttl"] != judge.StatusMissing {
		t.Fatalf("expected ttl missing, got %s", verdict.Points["ttl"])
	}
	if verdict.Score != 0.5 {
		t.Fatalf("unexpected score: %v", verdict.Score)
	}
	if verdict.FollowUp != "What eviction policy did you use?" {
		t.Fatalf("unexpected follow-up: %q", verdict.FollowUp)
	}

	if !strings.Contains(gen.prompt, "Describe your caching experience") {
		t.Fatalf("prompt should embed the question, got %q", gen.prompt)
	}
	if strings.Contains(gen.prompt, "{{PAYLOAD_JSON}}") {
		t.Fatalf("payload placeholder was not substituted")
	}
}

func TestEvaluateMalformedResponse(t *testing.T) {
	t.Parallel()

	j := NewJudge(&stubGenerator{response: "I cannot answer that."}, zap.NewNop(), 0)

	_, err := j.Evaluate(context.Background(), testQuestion(), "answer")
	if !errors.Is(err, judge.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestEvaluateTransportFailure(t *testing.T) {
	t.Parallel()

	j := NewJudge(&stubGenerator{err: errors.New("connection refused")}, zap.NewNop(), 0)

	_, err := j.Evaluate(context.Background(), testQuestion(), "answer")
	if !errors.Is(err, judge.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestEvaluateKeepsContextErrors(t *testing.T) {
	t.Parallel()

	j := NewJudge(&stubGenerator{err: context.DeadlineExceeded}, zap.NewNop(), 0)

	_, err := j.Evaluate(context.Background(), testQuestion(), "answer")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the deadline error to pass through, got %v", err)
	}
	if errors.Is(err, judge.ErrUnavailable) {
		t.Fatalf("deadline errors must not be wrapped as unavailable")
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{response: "  Strong on caching, weak on messaging.  \n"}
	j := NewJudge(gen, zap.NewNop(), 0)

	summary, err := j.Summarize(context.Background(), "Backend engineer", []judge.Answer{
		{QuestionID: "q1", Question: "caching?", Answer: "redis with ttl"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "Strong on caching, weak on messaging." {
		t.Fatalf("unexpected summary: %q", summary)
	}

	if strings.Contains(gen.prompt, "{{JOB_DESCRIPTION}}") || strings.Contains(gen.prompt, "{{ANSWERS_JSON}}") {
		t.Fatalf("placeholders were not substituted: %q", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "redis with ttl") {
		t.Fatalf("prompt should embed the answers, got %q", gen.prompt)
	}
}

func TestParseVerdictCoercion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		expect judge.Verdict
	}{
		{
			name: "bare json",
			raw:  `{"points": {"redis": "covered"}, "score": "0.75"}`,
			expect: judge.Verdict{
				Points: map[string]judge.PointStatus{"redis": judge.StatusPresent},
				Score:  0.75,
			},
		},
		{
			name: "fenced without language tag",
			raw:  "```\n{\"points\": {\"ttl\": \"explained\"}, \"score\": 1}\n```",
			expect: judge.Verdict{
				Points: map[string]judge.PointStatus{"ttl": judge.StatusExplained},
				Score:  1,
			},
		},
		{
			name: "unknown status falls back to missing",
			raw:  `{"points": {"redis": "sort of"}, "score": 0}`,
			expect: judge.Verdict{
				Points: map[string]judge.PointStatus{"redis": judge.StatusMissing},
			},
		},
		{
			name:   "missing fields",
			raw:    `{}`,
			expect: judge.Verdict{Points: map[string]judge.PointStatus{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verdict, err := parseVerdict(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if verdict.Score != tt.expect.Score || verdict.FollowUp != tt.expect.FollowUp {
				t.Fatalf("unexpected verdict: %+v", verdict)
			}
			if len(verdict.Points) != len(tt.expect.Points) {
				t.Fatalf("unexpected points: %+v", verdict.Points)
			}
			for name, status := range tt.expect.Points {
				if verdict.Points[name] != status {
					t.Fatalf("point %s: expected %s, got %s", name, status, verdict.Points[name])
				}
			}
		})
	}
}

func TestParseVerdictGarbage(t *testing.T) {
	t.Parallel()

	if _, err := parseVerdict("not json at all"); err == nil {
		t.Fatalf("expected an error")
	}
}

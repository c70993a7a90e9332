// Package report implements the post-interview stage: one judge call over the
// full answer set, then formatting into a document via a pluggable Formatter.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/judge"
)

// Summary aggregates everything the formatter needs.
type Summary struct {
	JobDescription string
	Answers        []interview.AnsweredRecord
	// Evaluation is the judge's free-text assessment of the whole interview.
	// Empty when no judge is configured.
	Evaluation string
	// Note records a degraded review, e.g. the judge being unavailable. The
	// answers themselves are never affected.
	Note        string
	GeneratedAt time.Time
}

// Formatter renders a summary into an opaque document string.
type Formatter interface {
	Format(s *Summary) string
}

// Reporter produces the final summary and report for a completed interview.
type Reporter struct {
	judge     judge.Judge
	formatter Formatter
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a reporter. The judge may be nil, in which case the review is
// purely mechanical. A nil formatter falls back to the plain text one.
func New(j judge.Judge, f Formatter, timeout time.Duration, logger *zap.Logger) *Reporter {
	if f == nil {
		f = &TextFormatter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reporter{judge: j, formatter: f, timeout: timeout, logger: logger}
}

// Review calls the judge once over the full answer set. Judge failures
// degrade to a recorded note; the returned summary is always usable.
func (r *Reporter) Review(ctx context.Context, jobDescription string, answers []interview.AnsweredRecord) *Summary {
	summary := &Summary{
		JobDescription: jobDescription,
		Answers:        answers,
		GeneratedAt:    time.Now().UTC(),
	}

	if r.judge == nil {
		return summary
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	converted := make([]judge.Answer, len(answers))
	for i, a := range answers {
		converted[i] = judge.Answer{
			QuestionID: a.QuestionID,
			Question:   a.Question,
			Answer:     a.Answer,
			Missing:    a.Missing,
			Notes:      a.Notes,
		}
	}

	evaluation, err := r.judge.Summarize(ctx, jobDescription, converted)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %s", judge.ErrTimeout, err)
		}
		r.logger.Warn("review degraded, judge summary unavailable", zap.Error(err))
		summary.Note = fmt.Sprintf("evaluation unavailable: %s", err)
		return summary
	}

	summary.Evaluation = evaluation
	return summary
}

// Report formats the summary into the final document text.
func (r *Reporter) Report(s *Summary) string {
	return r.formatter.Format(s)
}

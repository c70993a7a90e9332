// Package gemini implements the judge collaborator on top of the Google
// GenAI API: it turns (question, answer, expected points) into a structured
// verdict and the full answer set into a summary.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/jobconfig"
	"github.com/spigell/interviewer/internal/judge"
	"github.com/spigell/interviewer/internal/logger"
)

//go:embed verdict_prompt.md
var verdictPromptTemplate string

//go:embed summary_prompt.md
var summaryPromptTemplate string

const defaultMaxLogLength = 200

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
}

// Judge is the Gemini-backed judge implementation.
type Judge struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

// NewJudge creates a judge on top of the given content generator.
func NewJudge(generator contentGenerator, log *zap.Logger, maxLogLength int) *Judge {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Judge{
		generator: generator,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

// Evaluate judges one answer against the question's expected points.
func (j *Judge) Evaluate(ctx context.Context, question *jobconfig.Question, answer string) (*judge.Verdict, error) {
	if question == nil {
		return nil, fmt.Errorf("question is required")
	}

	payload := map[string]any{
		"question":        question.Text,
		"expected_points": question.RequiredKeywords,
		"guidance":        question.Guidance,
		"answer":          answer,
	}

	payloadJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal verdict payload: %w", err)
	}

	prompt := strings.ReplaceAll(verdictPromptTemplate, "{{PAYLOAD_JSON}}", string(payloadJSON))

	j.logger.Debug("gemini verdict request",
		zap.String("question_id", question.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, j.maxLogLen)),
	)

	raw, err := j.generator.GenerateContent(ctx, "", prompt)
	if err != nil {
		return nil, classify(err)
	}

	j.logger.Debug("gemini verdict response",
		zap.String("question_id", question.ID),
		zap.String("response_preview", logger.TruncateForLog(raw, j.maxLogLen)),
	)

	verdict, err := parseVerdict(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", judge.ErrMalformedResponse, err)
	}

	return verdict, nil
}

// Summarize produces the free-text evaluation of the whole interview in one
// call over the full answer set.
func (j *Judge) Summarize(ctx context.Context, jobDescription string, answers []judge.Answer) (string, error) {
	answersJSON, err := json.MarshalIndent(answers, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal answers payload: %w", err)
	}

	prompt := strings.ReplaceAll(summaryPromptTemplate, "{{JOB_DESCRIPTION}}", jobDescription)
	prompt = strings.ReplaceAll(prompt, "{{ANSWERS_JSON}}", string(answersJSON))

	j.logger.Debug("gemini summary request",
		zap.Int("answers", len(answers)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, j.maxLogLen)),
	)

	summary, err := j.generator.GenerateContent(ctx, "", prompt)
	if err != nil {
		return "", classify(err)
	}

	return strings.TrimSpace(summary), nil
}

// classify maps transport failures onto the judge error kinds. Deadline
// errors pass through so the caller can report a timeout.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s", judge.ErrUnavailable, err)
}

func parseVerdict(raw string) (*judge.Verdict, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	verdict := &judge.Verdict{
		Points:   coercePoints(data["points"]),
		Score:    coerceFloat(data["score"]),
		FollowUp: coerceString(data["follow_up"]),
	}

	return verdict, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coercePoints(v any) map[string]judge.PointStatus {
	points := make(map[string]judge.PointStatus)

	raw, ok := v.(map[string]any)
	if !ok {
		return points
	}

	for name, status := range raw {
		switch strings.ToLower(strings.TrimSpace(coerceString(status))) {
		case string(judge.StatusPresent), "covered", "yes":
			points[name] = judge.StatusPresent
		case string(judge.StatusExplained):
			points[name] = judge.StatusExplained
		default:
			points[name] = judge.StatusMissing
		}
	}

	return points
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

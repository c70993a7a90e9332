package evaluator

import (
	"context"
	"regexp"
	"strings"

	"github.com/spigell/interviewer/internal/jobconfig"
	"github.com/spigell/interviewer/internal/judge"
)

// separators are the characters treated as equivalent when matching a
// multi-token keyword, so "redis cache" matches "Redis-cache" and "redis/cache".
var separators = regexp.MustCompile(`[\s\-/_\\]+`)

// MissingKeywords returns the required keywords with no whole-token,
// case-insensitive match in answer, preserving input order. It never fails.
func MissingKeywords(answer string, required []string) []string {
	var missing []string
	for _, kw := range required {
		if !keywordPresent(answer, kw) {
			missing = append(missing, kw)
		}
	}
	return missing
}

func keywordPresent(answer, keyword string) bool {
	tokens := separators.Split(strings.TrimSpace(keyword), -1)

	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		parts = append(parts, regexp.QuoteMeta(tok))
	}

	// A keyword with no tokens cannot be absent.
	if len(parts) == 0 {
		return true
	}

	pattern := `(?i)\b` + strings.Join(parts, separators.String()) + `\b`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}

	return re.MatchString(answer)
}

// Keyword is the deterministic evaluator strategy: an expected point is
// covered exactly when its keyword appears in the answer.
type Keyword struct{}

// NewKeyword creates the keyword-matching evaluator.
func NewKeyword() *Keyword {
	return &Keyword{}
}

// Evaluate synthesizes a verdict from the keyword gap check. It is total: the
// returned error is always nil.
func (k *Keyword) Evaluate(_ context.Context, question *jobconfig.Question, answer string) (*judge.Verdict, error) {
	points := make(map[string]judge.PointStatus, len(question.RequiredKeywords))
	covered := 0
	for _, kw := range question.RequiredKeywords {
		if keywordPresent(answer, kw) {
			points[kw] = judge.StatusPresent
			covered++
		} else {
			points[kw] = judge.StatusMissing
		}
	}

	score := 1.0
	if len(question.RequiredKeywords) > 0 {
		score = float64(covered) / float64(len(question.RequiredKeywords))
	}

	return &judge.Verdict{Points: points, Score: score}, nil
}

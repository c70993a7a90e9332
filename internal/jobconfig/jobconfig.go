package jobconfig

import (
	"errors"
	"fmt"
	"strings"
)

// FollowUpScope selects how the follow-up budget is accounted.
type FollowUpScope string

const (
	// ScopeQuestion counts follow-up chances per question, regardless of how
	// many required points are still missing.
	ScopeQuestion FollowUpScope = "question"
	// ScopeKeyword counts follow-up chances per missing keyword.
	ScopeKeyword FollowUpScope = "keyword"
)

// ErrInvalid marks a malformed job configuration. It is fatal at session
// creation time.
var ErrInvalid = errors.New("invalid job config")

// Question is a single main interview question. Immutable once loaded.
type Question struct {
	ID               string   `yaml:"id" json:"id"`
	Text             string   `yaml:"text" json:"text"`
	RequiredKeywords []string `yaml:"required_keywords" json:"required_keywords"`
	Guidance         string   `yaml:"guidance" json:"guidance"`
}

// JobConfig describes one interview: the job description, the ordered
// question set and the follow-up policy.
type JobConfig struct {
	JobDescription     string        `yaml:"job_description" json:"job_description"`
	Questions          []Question    `yaml:"questions" json:"questions"`
	MaxFollowupChances int           `yaml:"max_followup_chances" json:"max_followup_chances"`
	FollowUpScope      FollowUpScope `yaml:"followup_scope" json:"followup_scope"`
}

// Validate checks the configuration shape. All violations are reported
// wrapped in ErrInvalid.
func (c *JobConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalid)
	}

	if len(c.Questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrInvalid)
	}

	if c.MaxFollowupChances < 0 {
		return fmt.Errorf("%w: max_followup_chances must be >= 0, got %d", ErrInvalid, c.MaxFollowupChances)
	}

	switch c.FollowUpScope {
	case "", ScopeQuestion, ScopeKeyword:
	default:
		return fmt.Errorf("%w: unknown followup_scope %q", ErrInvalid, c.FollowUpScope)
	}

	seen := make(map[string]struct{}, len(c.Questions))
	for i, q := range c.Questions {
		id := strings.TrimSpace(q.ID)
		if id == "" {
			return fmt.Errorf("%w: question %d has empty id", ErrInvalid, i)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalid, id)
		}
		seen[id] = struct{}{}

		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: question %q has empty text", ErrInvalid, id)
		}
	}

	return nil
}

// Scope returns the configured follow-up scope, defaulting to per-question
// accounting.
func (c *JobConfig) Scope() FollowUpScope {
	if c.FollowUpScope == ScopeKeyword {
		return ScopeKeyword
	}
	return ScopeQuestion
}

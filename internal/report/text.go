package report

import (
	"fmt"
	"strings"
)

// TextFormatter renders the summary as plain text, one block per resolved
// question.
type TextFormatter struct{}

func (f *TextFormatter) Format(s *Summary) string {
	var b strings.Builder

	b.WriteString("=== Interview Complete ===\n\n")

	for _, a := range s.Answers {
		fmt.Fprintf(&b, "Q (%s): %s\n", a.QuestionID, a.Question)
		fmt.Fprintf(&b, "A: %s\n", a.Answer)
		if len(a.Missing) > 0 {
			fmt.Fprintf(&b, "  Missing keywords: %s\n", strings.Join(a.Missing, ", "))
		}
		if a.Notes != "" {
			fmt.Fprintf(&b, "  Notes: %s\n", a.Notes)
		}
		b.WriteString(strings.Repeat("-", 40))
		b.WriteString("\n")
	}

	if s.Evaluation != "" {
		b.WriteString("\nOverall evaluation:\n")
		b.WriteString(strings.TrimSpace(s.Evaluation))
		b.WriteString("\n")
	}

	if s.Note != "" {
		fmt.Fprintf(&b, "\nNote: %s\n", s.Note)
	}

	return b.String()
}

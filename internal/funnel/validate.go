package funnel

import (
	"strings"

	"blanknote-backend/internal/results"
)

// MinAnswerLength is the minimum trimmed length of a single answer.
const MinAnswerLength = 2

// ValidateAnswers checks a phase's answer set before it reaches the
// analyzer. Pure; any failure rejects the whole submission.
func ValidateAnswers(answers []results.Answer, required int) error {
	if len(answers) != required {
		return &ValidationError{Reason: ReasonIncomplete}
	}
	for _, a := range answers {
		if len(strings.TrimSpace(a.Answer)) < MinAnswerLength {
			return &ValidationError{Reason: ReasonTooShort}
		}
	}
	return nil
}

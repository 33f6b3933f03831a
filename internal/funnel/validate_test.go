package funnel

import (
	"errors"
	"testing"

	"blanknote-backend/internal/results"
)

func answersOf(values ...string) []results.Answer {
	answers := make([]results.Answer, 0, len(values))
	for i, v := range values {
		answers = append(answers, results.Answer{QuestionID: i + 1, Prompt: "prompt", Answer: v})
	}
	return answers
}

func TestValidateAnswers(t *testing.T) {
	cases := []struct {
		name       string
		answers    []results.Answer
		required   int
		wantReason string
	}{
		{"complete", answersOf("aa", "bb", "cc"), 3, ""},
		{"exactly min length", answersOf("ab"), 1, ""},
		{"too few", answersOf("aa", "bb"), 3, ReasonIncomplete},
		{"too many", answersOf("aa", "bb", "cc", "dd"), 3, ReasonIncomplete},
		{"empty set", nil, 3, ReasonIncomplete},
		{"one too short", answersOf("aa", "b", "cc"), 3, ReasonTooShort},
		{"whitespace only", answersOf("aa", "   ", "cc"), 3, ReasonTooShort},
		{"padded short answer", answersOf("  a  "), 1, ReasonTooShort},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAnswers(tc.answers, tc.required)
			if tc.wantReason == "" {
				if err != nil {
					t.Fatalf("ValidateAnswers: %v", err)
				}
				return
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Reason != tc.wantReason {
				t.Fatalf("reason = %q, want %q", vErr.Reason, tc.wantReason)
			}
		})
	}
}

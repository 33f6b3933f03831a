package session

import (
	"math/rand"
	"testing"

	"blanknote-backend/internal/funnel"
	"blanknote-backend/internal/results"
)

func newIntroState() *ClientFunnelState {
	return New(funnel.IntroQuestions, funnel.DeepQuestionPool, rand.New(rand.NewSource(1)))
}

func answerAll(s *ClientFunnelState) {
	for _, q := range s.Questions {
		s.SetAnswer(q.ID, "an honest answer")
	}
}

func TestCursorClamping(t *testing.T) {
	s := newIntroState()

	s.PrevQuestion()
	if s.Index != 0 {
		t.Fatalf("index = %d after prev at start, want 0", s.Index)
	}

	for i := 0; i < 100; i++ {
		s.NextQuestion()
	}
	if s.Index != len(s.Questions)-1 {
		t.Fatalf("index = %d after repeated next, want %d", s.Index, len(s.Questions)-1)
	}
	if !s.IsLastQuestion() {
		t.Fatal("cursor should sit on the last question")
	}

	s.GoToQuestion(-5)
	if s.Index != 0 {
		t.Fatalf("index = %d after GoToQuestion(-5), want 0", s.Index)
	}
	s.GoToQuestion(2)
	if s.CurrentQuestion().ID != funnel.IntroQuestions[2].ID {
		t.Fatalf("current question = %d, want %d", s.CurrentQuestion().ID, funnel.IntroQuestions[2].ID)
	}
}

func TestCanSubmitAndProgress(t *testing.T) {
	s := newIntroState()

	if s.CanSubmit() {
		t.Fatal("empty state must not be submittable")
	}

	answered, total := s.Progress()
	if answered != 0 || total != funnel.IntroAnswerCount {
		t.Fatalf("progress = %d/%d, want 0/%d", answered, total, funnel.IntroAnswerCount)
	}

	answerAll(s)
	answered, _ = s.Progress()
	if answered != funnel.IntroAnswerCount {
		t.Fatalf("answered = %d, want %d", answered, funnel.IntroAnswerCount)
	}
	if !s.CanSubmit() {
		t.Fatal("fully answered state must be submittable")
	}

	s.SetAnswer(s.Questions[0].ID, " x ")
	if s.CanSubmit() {
		t.Fatal("a too-short answer must block submission")
	}
}

func TestCanSubmitBlockedWhileSubmitting(t *testing.T) {
	s := newIntroState()
	answerAll(s)

	s.SetSubmitting(true)
	if s.CanSubmit() {
		t.Fatal("an in-flight submission must block a second submit")
	}

	s.SetSubmitting(false)
	if !s.CanSubmit() {
		t.Fatal("clearing the submitting flag must allow submission again")
	}
}

func TestStartDeepPhaseSamples(t *testing.T) {
	s := newIntroState()
	answerAll(s)
	s.CompleteIntro("result-1")
	s.StartDeepPhase()

	if s.Phase != results.PhaseDeep {
		t.Fatalf("phase = %q, want deep", s.Phase)
	}
	if s.Index != 0 {
		t.Fatalf("index = %d after phase switch, want 0", s.Index)
	}
	if len(s.Questions) != funnel.DeepAnswerCount {
		t.Fatalf("deep questions = %d, want %d", len(s.Questions), funnel.DeepAnswerCount)
	}
	seen := make(map[int]bool)
	for i, q := range s.Questions {
		if seen[q.ID] {
			t.Fatalf("question %d sampled twice", q.ID)
		}
		seen[q.ID] = true
		if i > 0 && s.Questions[i-1].ID >= q.ID {
			t.Fatal("deep sample must be ordered by id")
		}
	}
	if len(s.Answers) != 0 {
		t.Fatal("deep phase must start with no answers")
	}
	if s.ResultID != "result-1" {
		t.Fatalf("result id = %q, want result-1", s.ResultID)
	}
	if len(s.IntroRecord) != funnel.IntroAnswerCount {
		t.Fatalf("intro record = %d answers, want %d", len(s.IntroRecord), funnel.IntroAnswerCount)
	}
}

func TestSetErrorClearsSubmitting(t *testing.T) {
	s := newIntroState()
	s.SetSubmitting(true)
	s.SetError("analysis failed")
	if s.IsSubmitting {
		t.Fatal("error must clear the submitting flag")
	}
	if s.Err == "" {
		t.Fatal("error message must be recorded")
	}
	s.SetAnswer(s.Questions[0].ID, "retry text")
	if s.Err != "" {
		t.Fatal("typing must clear the error")
	}
}

func TestReset(t *testing.T) {
	s := newIntroState()
	answerAll(s)
	s.CompleteIntro("result-1")
	s.StartDeepPhase()

	s.Reset(funnel.IntroQuestions)

	if s.Phase != results.PhaseIntro {
		t.Fatalf("phase = %q after reset, want intro", s.Phase)
	}
	if len(s.Answers) != 0 || s.ResultID != "" || s.IntroRecord != nil {
		t.Fatal("reset must drop answers, records and the result binding")
	}
	if s.Index != 0 {
		t.Fatalf("index = %d after reset, want 0", s.Index)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newIntroState()
	answerAll(s)
	s.CompleteIntro("result-1")
	s.StartDeepPhase()
	for _, q := range s.Questions {
		s.SetAnswer(q.ID, "a buried answer")
	}
	s.CompleteDeep()

	data, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	restored, err := Restore(data, funnel.IntroQuestions, funnel.DeepQuestionPool)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Phase != results.PhaseDeep {
		t.Fatalf("restored phase = %q, want deep", restored.Phase)
	}
	if restored.ResultID != "result-1" {
		t.Fatalf("restored result id = %q, want result-1", restored.ResultID)
	}
	if len(restored.Questions) != funnel.DeepAnswerCount {
		t.Fatalf("restored deep questions = %d, want %d", len(restored.Questions), funnel.DeepAnswerCount)
	}
	// The restored deep questions must be the recorded ones, with answers.
	for i, q := range restored.Questions {
		if q.ID != s.DeepRecord[i].QuestionID {
			t.Fatalf("restored question %d = %d, want %d", i, q.ID, s.DeepRecord[i].QuestionID)
		}
		if restored.Answers[q.ID] != "a buried answer" {
			t.Fatalf("restored answer for %d = %q", q.ID, restored.Answers[q.ID])
		}
	}
	if !restored.CanSubmit() {
		t.Fatal("restored complete deep phase must be submittable")
	}
	// Transient flags are not part of the snapshot.
	if restored.Index != 0 || restored.IsSubmitting || restored.Err != "" {
		t.Fatal("restore must not carry transient flags")
	}
}

func TestRestoreRejectsGarbage(t *testing.T) {
	if _, err := Restore([]byte("{not json"), funnel.IntroQuestions, funnel.DeepQuestionPool); err == nil {
		t.Fatal("expected an error for malformed input")
	}
	if _, err := Restore([]byte(`{"phase":"mid"}`), funnel.IntroQuestions, funnel.DeepQuestionPool); err == nil {
		t.Fatal("expected an error for an unknown phase")
	}
}

func TestRestoreIntroPhaseKeepsAnswers(t *testing.T) {
	s := newIntroState()
	answerAll(s)
	s.CompleteIntro("")
	// Intro answered but not yet submitted to the backend.
	s.ResultID = ""

	data, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	restored, err := Restore(data, funnel.IntroQuestions, funnel.DeepQuestionPool)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Phase != results.PhaseIntro {
		t.Fatalf("restored phase = %q, want intro", restored.Phase)
	}
	if !restored.CanSubmit() {
		t.Fatal("restored answered intro must be submittable")
	}
}

package session

import (
	"math/rand"
	"sort"

	"blanknote-backend/internal/funnel"
	"blanknote-backend/internal/results"
)

// ClientFunnelState tracks one client's progress through the funnel. It is
// the server-side twin of the original client store, used by embedding
// frontends and by the prompt tooling to replay a funnel run. Not safe for
// concurrent use; one instance per client.
type ClientFunnelState struct {
	Phase        results.Phase
	Questions    []results.Question
	Answers      map[int]string
	Index        int
	IntroRecord  []results.Answer
	DeepRecord   []results.Answer
	ResultID     string
	IsSubmitting bool
	Err          string

	deepPool []results.Question
	rng      *rand.Rand
}

// New starts a fresh intro-phase state over the given question sets. A nil
// rng uses the global source for the later deep sample.
func New(intro, deepPool []results.Question, rng *rand.Rand) *ClientFunnelState {
	return &ClientFunnelState{
		Phase:     results.PhaseIntro,
		Questions: append([]results.Question(nil), intro...),
		Answers:   make(map[int]string),
		deepPool:  append([]results.Question(nil), deepPool...),
		rng:       rng,
	}
}

// CurrentQuestion returns the question at the cursor.
func (s *ClientFunnelState) CurrentQuestion() results.Question {
	if len(s.Questions) == 0 {
		return results.Question{}
	}
	return s.Questions[s.Index]
}

// SetAnswer records the answer text for a question and clears any error.
func (s *ClientFunnelState) SetAnswer(questionID int, text string) {
	s.Answers[questionID] = text
	s.Err = ""
}

// NextQuestion advances the cursor, clamped to the last question.
func (s *ClientFunnelState) NextQuestion() {
	if s.Index < len(s.Questions)-1 {
		s.Index++
	}
}

// PrevQuestion moves the cursor back, clamped to the first question.
func (s *ClientFunnelState) PrevQuestion() {
	if s.Index > 0 {
		s.Index--
	}
}

// GoToQuestion jumps the cursor; out-of-range indexes are clamped.
func (s *ClientFunnelState) GoToQuestion(i int) {
	switch {
	case i < 0:
		s.Index = 0
	case i >= len(s.Questions):
		s.Index = len(s.Questions) - 1
	default:
		s.Index = i
	}
}

// IsLastQuestion reports whether the cursor sits on the phase's last
// question.
func (s *ClientFunnelState) IsLastQuestion() bool {
	return s.Index == len(s.Questions)-1
}

// Progress reports answered count and total for the current phase.
func (s *ClientFunnelState) Progress() (answered, total int) {
	for _, q := range s.Questions {
		if a, ok := s.Answers[q.ID]; ok && len(a) > 0 {
			answered++
		}
	}
	return answered, len(s.Questions)
}

// CanSubmit reports whether every question of the current phase has an
// answer that would pass validation and no submission is in flight.
func (s *ClientFunnelState) CanSubmit() bool {
	if s.IsSubmitting {
		return false
	}
	return funnel.ValidateAnswers(s.collect(), len(s.Questions)) == nil
}

// collect builds the answer records for the current question set, in
// question order.
func (s *ClientFunnelState) collect() []results.Answer {
	answers := make([]results.Answer, 0, len(s.Questions))
	for _, q := range s.Questions {
		answers = append(answers, results.Answer{
			QuestionID: q.ID,
			Prompt:     q.Prompt,
			Answer:     s.Answers[q.ID],
		})
	}
	return answers
}

// CompleteIntro records the intro submission's outcome and freezes the
// intro answers.
func (s *ClientFunnelState) CompleteIntro(resultID string) {
	s.IntroRecord = s.collect()
	s.ResultID = resultID
	s.IsSubmitting = false
	s.Err = ""
}

// StartDeepPhase switches to the deep phase over a fresh 7-question sample
// from the configured pool and resets the cursor.
func (s *ClientFunnelState) StartDeepPhase() {
	s.Phase = results.PhaseDeep
	s.Questions = sampleFromPool(s.deepPool, funnel.DeepAnswerCount, s.rng)
	s.Answers = make(map[int]string)
	s.Index = 0
	s.Err = ""
}

// sampleFromPool draws n questions without replacement, ordered by ID.
func sampleFromPool(pool []results.Question, n int, rng *rand.Rand) []results.Question {
	if n > len(pool) {
		n = len(pool)
	}
	var perm []int
	if rng != nil {
		perm = rng.Perm(len(pool))
	} else {
		perm = rand.Perm(len(pool))
	}
	sampled := make([]results.Question, 0, n)
	for _, i := range perm[:n] {
		sampled = append(sampled, pool[i])
	}
	sort.Slice(sampled, func(i, j int) bool { return sampled[i].ID < sampled[j].ID })
	return sampled
}

// CompleteDeep records the deep submission's outcome.
func (s *ClientFunnelState) CompleteDeep() {
	s.DeepRecord = s.collect()
	s.IsSubmitting = false
	s.Err = ""
}

// SetSubmitting flags an in-flight submission.
func (s *ClientFunnelState) SetSubmitting(v bool) {
	s.IsSubmitting = v
}

// SetError records a user-facing error and clears the submitting flag.
func (s *ClientFunnelState) SetError(msg string) {
	s.Err = msg
	s.IsSubmitting = false
}

// Reset returns the state to a fresh intro phase, dropping all answers and
// the result binding.
func (s *ClientFunnelState) Reset(intro []results.Question) {
	s.Phase = results.PhaseIntro
	s.Questions = append([]results.Question(nil), intro...)
	s.Answers = make(map[int]string)
	s.Index = 0
	s.IntroRecord = nil
	s.DeepRecord = nil
	s.ResultID = ""
	s.IsSubmitting = false
	s.Err = ""
}

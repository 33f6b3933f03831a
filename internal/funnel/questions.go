package funnel

import (
	"math/rand"
	"sort"

	"blanknote-backend/internal/results"
)

const (
	// IntroAnswerCount answers are required for the intro submission.
	IntroAnswerCount = 5
	// DeepAnswerCount answers are required for the deep submission.
	DeepAnswerCount = 7
)

// IntroQuestions is the fixed 5-prompt intro set. Defined at process start,
// never mutated.
var IntroQuestions = []results.Question{
	{ID: 1, Prompt: "If I were born again", Phase: results.PhaseIntro},
	{ID: 2, Prompt: "My mother is", Phase: results.PhaseIntro},
	{ID: 3, Prompt: "The reason people avoid me is", Phase: results.PhaseIntro},
	{ID: 4, Prompt: "What I fear the most is", Phase: results.PhaseIntro},
	{ID: 5, Prompt: "The truth is, I", Phase: results.PhaseIntro},
}

// DeepQuestionPool is the pool the 7 deep prompts are sampled from, so the
// deep phase varies across sessions.
var DeepQuestionPool = []results.Question{
	{ID: 101, Prompt: "My father was", Phase: results.PhaseDeep},
	{ID: 102, Prompt: "When I am alone at night, I", Phase: results.PhaseDeep},
	{ID: 103, Prompt: "What I have never told anyone is", Phase: results.PhaseDeep},
	{ID: 104, Prompt: "When someone gets too close to me, I", Phase: results.PhaseDeep},
	{ID: 105, Prompt: "If I could erase one memory, it would be", Phase: results.PhaseDeep},
	{ID: 106, Prompt: "What I secretly envy in others is", Phase: results.PhaseDeep},
	{ID: 107, Prompt: "When I look in the mirror, I", Phase: results.PhaseDeep},
	{ID: 108, Prompt: "The person I could never forgive is", Phase: results.PhaseDeep},
	{ID: 109, Prompt: "If no one were watching me, I would", Phase: results.PhaseDeep},
	{ID: 110, Prompt: "Ten years from now, I", Phase: results.PhaseDeep},
}

// SampleDeepQuestions draws DeepAnswerCount questions from the pool without
// replacement, ordered by ID. A nil rng uses the global source.
func SampleDeepQuestions(rng *rand.Rand) []results.Question {
	var perm []int
	if rng != nil {
		perm = rng.Perm(len(DeepQuestionPool))
	} else {
		perm = rand.Perm(len(DeepQuestionPool))
	}

	sampled := make([]results.Question, 0, DeepAnswerCount)
	for _, i := range perm[:DeepAnswerCount] {
		sampled = append(sampled, DeepQuestionPool[i])
	}
	sort.Slice(sampled, func(i, j int) bool { return sampled[i].ID < sampled[j].ID })
	return sampled
}

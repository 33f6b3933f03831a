package results

import "time"

// Phase is a Result's position in the funnel. It only moves forward.
type Phase string

const (
	PhaseIntro Phase = "intro"
	PhaseDeep  Phase = "deep"
)

// Question is one sentence-completion prompt. The sets are static and
// defined at process start.
type Question struct {
	ID     int    `json:"id"`
	Prompt string `json:"prompt"`
	Phase  Phase  `json:"phase"`
}

// Answer is a user's completion of one prompt. Never mutated after
// submission.
type Answer struct {
	QuestionID int    `json:"questionId"`
	Prompt     string `json:"prompt"`
	Answer     string `json:"answer"`
}

// IntroAnalysis is the teaser-grade analysis produced once per Result.
type IntroAnalysis struct {
	Keywords  []string `json:"keywords"`
	OneLiner  string   `json:"oneLiner"`
	TypeLabel string   `json:"typeLabel"`
	Teaser    string   `json:"teaser"`
}

// FullAnalysis is the full-grade analysis produced once per Result.
// DeepAnalysis maps section names (selfImage, relationships, trauma,
// desires, summary, ...) to their text.
type FullAnalysis struct {
	Keywords     []string          `json:"keywords"`
	OneLiner     string            `json:"oneLiner"`
	TypeLabel    string            `json:"typeLabel"`
	DeepAnalysis map[string]string `json:"deepAnalysis"`
	ImagePrompt  string            `json:"imagePrompt"`
}

// Result is the persisted record for one user's run through the funnel.
// Answers always equals IntroAnswers followed by DeepAnswers.
type Result struct {
	ID            string         `json:"id"`
	Phase         Phase          `json:"phase"`
	IntroAnswers  []Answer       `json:"intro_answers"`
	DeepAnswers   []Answer       `json:"deep_answers"`
	Answers       []Answer       `json:"answers"`
	IntroAnalysis *IntroAnalysis `json:"intro_analysis"`
	AnalysisText  *FullAnalysis  `json:"analysis_text"`
	ImageURL      *string        `json:"image_url"`
	IsPaid        bool           `json:"is_paid"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Patch describes a partial update. Nil fields are left untouched.
type Patch struct {
	Phase        *Phase
	DeepAnswers  []Answer
	Answers      []Answer
	AnalysisText *FullAnalysis
	ImageURL     *string
	IsPaid       *bool
}

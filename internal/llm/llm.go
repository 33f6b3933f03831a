package llm

import (
	"context"
	"errors"

	"blanknote-backend/internal/results"
)

// Analyzer turns a set of sentence-completion answers into structured
// psychological analysis. Intro is teaser-grade; Deep consumes the full
// combined answer set.
type Analyzer interface {
	AnalyzeIntro(ctx context.Context, answers []results.Answer) (results.IntroAnalysis, error)
	AnalyzeDeep(ctx context.Context, introAnswers, deepAnswers []results.Answer) (results.FullAnalysis, error)
}

// ImageSynthesizer turns a text prompt into a temporary image URL. The URL
// may expire; callers that need durability copy it into blob storage.
type ImageSynthesizer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrorKind classifies analyzer failures for user messaging.
type ErrorKind string

const (
	KindQuotaExceeded ErrorKind = "quota_exceeded"
	KindUpstreamBusy  ErrorKind = "upstream_busy"
	KindMalformed     ErrorKind = "malformed"
	KindGeneric       ErrorKind = "generic"
)

// ProviderError wraps a provider failure with its classification.
type ProviderError struct {
	Kind ErrorKind
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// KindOf extracts the classification from an analyzer error, defaulting to
// generic.
func KindOf(err error) ErrorKind {
	var provider *ProviderError
	if errors.As(err, &provider) {
		return provider.Kind
	}
	return KindGeneric
}

package results

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The persisted JSONB columns and the analyzer responses flow through this
// one typed codec. Keywords are an array, deep sections are a flat string
// map; anything else is rejected at the boundary instead of being coerced
// downstream.

// ParseIntroAnalysis decodes and validates a teaser-grade analysis payload.
func ParseIntroAnalysis(raw []byte) (IntroAnalysis, error) {
	var analysis IntroAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return IntroAnalysis{}, fmt.Errorf("decode intro analysis: %w", err)
	}
	if len(analysis.Keywords) == 0 {
		return IntroAnalysis{}, fmt.Errorf("intro analysis missing keywords")
	}
	if strings.TrimSpace(analysis.OneLiner) == "" {
		return IntroAnalysis{}, fmt.Errorf("intro analysis missing oneLiner")
	}
	return analysis, nil
}

// ParseFullAnalysis decodes and validates a full-grade analysis payload.
func ParseFullAnalysis(raw []byte) (FullAnalysis, error) {
	var analysis FullAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return FullAnalysis{}, fmt.Errorf("decode full analysis: %w", err)
	}
	if len(analysis.Keywords) == 0 {
		return FullAnalysis{}, fmt.Errorf("full analysis missing keywords")
	}
	if len(analysis.DeepAnalysis) == 0 {
		return FullAnalysis{}, fmt.Errorf("full analysis missing deepAnalysis sections")
	}
	return analysis, nil
}

func marshalJSONB(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func decodeAnswers(raw []byte) ([]Answer, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var answers []Answer
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return answers, nil
}

func decodeIntroAnalysis(raw []byte) (*IntroAnalysis, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	analysis, err := ParseIntroAnalysis(raw)
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

func decodeFullAnalysis(raw []byte) (*FullAnalysis, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	analysis, err := ParseFullAnalysis(raw)
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

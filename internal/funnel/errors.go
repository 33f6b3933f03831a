package funnel

import (
	"fmt"

	"blanknote-backend/internal/llm"
)

const (
	ReasonIncomplete = "incomplete"
	ReasonTooShort   = "too_short"
)

// ValidationError rejects a submission before any analyzer call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// RateLimitError rejects a submission at the pipeline gate.
type RateLimitError struct {
	ResetInSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry in %ds", e.ResetInSeconds)
}

// AnalysisError wraps an analyzer failure with its classification.
type AnalysisError struct {
	Kind llm.ErrorKind
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed (%s): %v", e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// ImageGenError wraps an image synthesizer failure.
type ImageGenError struct {
	Err error
}

func (e *ImageGenError) Error() string {
	return fmt.Sprintf("image generation failed: %v", e.Err)
}

func (e *ImageGenError) Unwrap() error {
	return e.Err
}

// StorageError wraps a persistence failure.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failed: %v", e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NotFoundError reports an unknown result ID.
type NotFoundError struct {
	ResultID string
}

func (e *NotFoundError) Error() string {
	return "result not found: " + e.ResultID
}

// PreconditionError reports an operation invoked before its prerequisite
// phase transition.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

package funnel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"blanknote-backend/internal/llm"
	"blanknote-backend/internal/results"
	"blanknote-backend/internal/shared/metrics"
	"blanknote-backend/internal/shared/ratelimit"
	"blanknote-backend/internal/shared/storage/object"
	"blanknote-backend/internal/shared/telemetry"
)

var (
	errNoAnalyzer    = errors.New("no analyzer configured")
	errNoSynthesizer = errors.New("no image synthesizer configured")
)

// Service orchestrates one funnel phase transition at a time: validation,
// rate limiting, analysis, persistence. All collaborators are injected.
type Service struct {
	Repo     results.Repo
	Analyzer llm.Analyzer
	Images   llm.ImageSynthesizer
	Blobs    object.BlobStore
	Limiter  *ratelimit.Limiter

	// HTTPClient fetches temporary image URLs for durable storage.
	HTTPClient *http.Client
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// SubmitIntro gates, validates and analyzes the 5 intro answers, then
// creates the Result. The rate limiter is checked before anything else so a
// rejected client costs no analyzer tokens.
func (s *Service) SubmitIntro(ctx context.Context, answers []results.Answer, clientID string) (string, error) {
	if s.Limiter != nil {
		if d := s.Limiter.Check(clientID); !d.Allowed {
			metrics.IncRateLimited()
			return "", &RateLimitError{ResetInSeconds: d.ResetInSeconds}
		}
	}

	if err := ValidateAnswers(answers, IntroAnswerCount); err != nil {
		return "", err
	}
	if s.Analyzer == nil {
		return "", &AnalysisError{Kind: llm.KindGeneric, Err: errNoAnalyzer}
	}

	analysis, err := s.Analyzer.AnalyzeIntro(ctx, answers)
	if err != nil {
		metrics.IncIntroAnalysisFailed()
		return "", &AnalysisError{Kind: llm.KindOf(err), Err: err}
	}

	result := results.Result{
		ID:            uuid.NewString(),
		Phase:         results.PhaseIntro,
		IntroAnswers:  answers,
		Answers:       append([]results.Answer(nil), answers...),
		IntroAnalysis: &analysis,
		IsPaid:        false,
		CreatedAt:     s.now(),
	}
	if err := s.Repo.Create(ctx, result); err != nil {
		return "", &StorageError{Err: err}
	}

	metrics.IncIntroAnalysisCompleted()
	telemetry.Info("funnel.intro.completed", map[string]any{
		"result_id": result.ID,
		"client_id": clientID,
	})
	return result.ID, nil
}

// SubmitDeep runs the full analysis over the combined answer set and moves
// the Result into the deep phase. The update is a single patch, so a
// persistence failure leaves no partial state behind; the caller resubmits.
func (s *Service) SubmitDeep(ctx context.Context, resultID string, deepAnswers []results.Answer) (string, error) {
	result, err := s.Repo.GetByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, results.ErrNotFound) {
			return "", &NotFoundError{ResultID: resultID}
		}
		return "", &StorageError{Err: err}
	}

	// Deep analysis happens at most once per Result. A repeat submission
	// after a completed deep phase is a no-op success, not a regeneration.
	if result.Phase == results.PhaseDeep && result.AnalysisText != nil {
		return resultID, nil
	}

	if err := ValidateAnswers(deepAnswers, DeepAnswerCount); err != nil {
		return "", err
	}
	if s.Analyzer == nil {
		return "", &AnalysisError{Kind: llm.KindGeneric, Err: errNoAnalyzer}
	}

	analysis, err := s.Analyzer.AnalyzeDeep(ctx, result.IntroAnswers, deepAnswers)
	if err != nil {
		metrics.IncDeepAnalysisFailed()
		return "", &AnalysisError{Kind: llm.KindOf(err), Err: err}
	}

	combined := make([]results.Answer, 0, len(result.IntroAnswers)+len(deepAnswers))
	combined = append(combined, result.IntroAnswers...)
	combined = append(combined, deepAnswers...)

	deep := results.PhaseDeep
	patch := results.Patch{
		Phase:        &deep,
		DeepAnswers:  deepAnswers,
		Answers:      combined,
		AnalysisText: &analysis,
	}
	if err := s.Repo.Update(ctx, resultID, patch); err != nil {
		if errors.Is(err, results.ErrNotFound) {
			return "", &NotFoundError{ResultID: resultID}
		}
		return "", &StorageError{Err: err}
	}

	metrics.IncDeepAnalysisCompleted()
	telemetry.Info("funnel.deep.completed", map[string]any{
		"result_id": resultID,
	})
	return resultID, nil
}

// UnlockImage generates the unconscious visualization and marks the Result
// paid. Durable storage of the image is best-effort: if the copy fails the
// temporary provider URL is used as-is rather than failing the unlock.
func (s *Service) UnlockImage(ctx context.Context, resultID string) (string, error) {
	result, err := s.Repo.GetByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, results.ErrNotFound) {
			return "", &NotFoundError{ResultID: resultID}
		}
		return "", &StorageError{Err: err}
	}
	if result.AnalysisText == nil || result.AnalysisText.ImagePrompt == "" {
		return "", &PreconditionError{Reason: "deep analysis with an image prompt is required"}
	}
	if s.Images == nil {
		return "", &ImageGenError{Err: errNoSynthesizer}
	}

	tempURL, err := s.Images.Generate(ctx, result.AnalysisText.ImagePrompt)
	if err != nil {
		metrics.IncImageFailed()
		return "", &ImageGenError{Err: err}
	}

	imageURL := s.persistImage(ctx, resultID, tempURL)

	paid := true
	patch := results.Patch{
		ImageURL: &imageURL,
		IsPaid:   &paid,
	}
	if err := s.Repo.Update(ctx, resultID, patch); err != nil {
		if errors.Is(err, results.ErrNotFound) {
			return "", &NotFoundError{ResultID: resultID}
		}
		return "", &StorageError{Err: err}
	}

	metrics.IncImageGenerated()
	telemetry.Info("funnel.image.unlocked", map[string]any{
		"result_id": resultID,
	})
	return imageURL, nil
}

// persistImage copies the temporary image into blob storage and returns its
// permanent URL, falling back to the temporary URL on any failure. The
// temporary URL may expire later; accepted tradeoff.
func (s *Service) persistImage(ctx context.Context, resultID, tempURL string) string {
	if s.Blobs == nil {
		return tempURL
	}

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tempURL, nil)
	if err != nil {
		s.warnPersistImage(resultID, err)
		return tempURL
	}
	resp, err := client.Do(req)
	if err != nil {
		s.warnPersistImage(resultID, err)
		return tempURL
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		s.warnPersistImage(resultID, fmt.Errorf("fetch temporary image: status %d", resp.StatusCode))
		return tempURL
	}

	name := fmt.Sprintf("%s_%d.png", resultID, s.now().Unix())
	permanentURL, err := s.Blobs.Put(ctx, name, resp.Body)
	if err != nil {
		s.warnPersistImage(resultID, err)
		return tempURL
	}
	// Drain so the HTTP connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return permanentURL
}

func (s *Service) warnPersistImage(resultID string, err error) {
	telemetry.Warn("funnel.image.persist_failed", map[string]any{
		"result_id": resultID,
		"error":     err.Error(),
	})
}

// GetResult is a pass-through read used by the teaser and result pages.
func (s *Service) GetResult(ctx context.Context, resultID string) (results.Result, error) {
	result, err := s.Repo.GetByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, results.ErrNotFound) {
			return results.Result{}, &NotFoundError{ResultID: resultID}
		}
		return results.Result{}, &StorageError{Err: err}
	}
	return result, nil
}

// MarkAsPaid flips the paid flag. Unknown IDs report false without error.
func (s *Service) MarkAsPaid(ctx context.Context, resultID string) (bool, error) {
	paid := true
	err := s.Repo.Update(ctx, resultID, results.Patch{IsPaid: &paid})
	if errors.Is(err, results.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &StorageError{Err: err}
	}
	return true, nil
}

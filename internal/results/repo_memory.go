package results

import (
	"context"
	"sync"
)

// MemoryRepo stores results in memory and is safe for concurrent use.
// Used when DATABASE_URL is unset (dev) and in tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Result
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID: make(map[string]Result),
	}
}

// Create stores the result.
func (r *MemoryRepo) Create(ctx context.Context, result Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[result.ID] = result
	return nil
}

// GetByID returns a result by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, resultID string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.byID[resultID]
	if !ok {
		return Result{}, ErrNotFound
	}
	return result, nil
}

// Update applies the patch to an existing result.
func (r *MemoryRepo) Update(ctx context.Context, resultID string, patch Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	result, ok := r.byID[resultID]
	if !ok {
		return ErrNotFound
	}
	if patch.Phase != nil {
		result.Phase = *patch.Phase
	}
	if patch.DeepAnswers != nil {
		result.DeepAnswers = patch.DeepAnswers
	}
	if patch.Answers != nil {
		result.Answers = patch.Answers
	}
	if patch.AnalysisText != nil {
		result.AnalysisText = patch.AnalysisText
	}
	if patch.ImageURL != nil {
		result.ImageURL = patch.ImageURL
	}
	if patch.IsPaid != nil {
		result.IsPaid = *patch.IsPaid
	}
	r.byID[resultID] = result
	return nil
}

// Len reports the number of stored results.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

var _ Repo = (*MemoryRepo)(nil)

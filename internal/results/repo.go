package results

import "context"

// Repo defines persistence operations for results. Update applies partial
// patches; the pipeline never rewrites a whole record.
type Repo interface {
	Create(ctx context.Context, result Result) error
	GetByID(ctx context.Context, resultID string) (Result, error)
	Update(ctx context.Context, resultID string, patch Patch) error
}

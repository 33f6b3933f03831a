package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new result row.
func (r *PGRepo) Create(ctx context.Context, result Result) error {
	const query = `
INSERT INTO results (
	id, phase, intro_answers, deep_answers, answers, intro_analysis, analysis_text, image_url, is_paid, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	introAnswers, err := marshalJSONB(result.IntroAnswers)
	if err != nil {
		return err
	}
	var deepAnswers any
	if result.DeepAnswers != nil {
		if deepAnswers, err = marshalJSONB(result.DeepAnswers); err != nil {
			return err
		}
	}
	answers, err := marshalJSONB(result.Answers)
	if err != nil {
		return err
	}
	var introAnalysis any
	if result.IntroAnalysis != nil {
		if introAnalysis, err = marshalJSONB(result.IntroAnalysis); err != nil {
			return err
		}
	}
	var analysisText any
	if result.AnalysisText != nil {
		if analysisText, err = marshalJSONB(result.AnalysisText); err != nil {
			return err
		}
	}
	var imageURL any
	if result.ImageURL != nil {
		imageURL = *result.ImageURL
	}
	_, err = r.DB.ExecContext(ctx, query,
		result.ID,
		string(result.Phase),
		introAnswers,
		deepAnswers,
		answers,
		introAnalysis,
		analysisText,
		imageURL,
		result.IsPaid,
		result.CreatedAt,
	)
	return err
}

// GetByID returns a result by ID.
func (r *PGRepo) GetByID(ctx context.Context, resultID string) (Result, error) {
	const query = `
SELECT id, phase, intro_answers, deep_answers, answers, intro_analysis, analysis_text, image_url, is_paid, created_at
FROM results
WHERE id = $1
LIMIT 1`
	var result Result
	var phase string
	var introAnswers sql.NullString
	var deepAnswers sql.NullString
	var answers sql.NullString
	var introAnalysis sql.NullString
	var analysisText sql.NullString
	var imageURL sql.NullString
	err := r.DB.QueryRowContext(ctx, query, resultID).Scan(
		&result.ID,
		&phase,
		&introAnswers,
		&deepAnswers,
		&answers,
		&introAnalysis,
		&analysisText,
		&imageURL,
		&result.IsPaid,
		&result.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, ErrNotFound
	}
	if err != nil {
		return Result{}, err
	}

	result.Phase = Phase(phase)
	if result.IntroAnswers, err = decodeAnswers(nullBytes(introAnswers)); err != nil {
		return Result{}, err
	}
	if result.DeepAnswers, err = decodeAnswers(nullBytes(deepAnswers)); err != nil {
		return Result{}, err
	}
	if result.Answers, err = decodeAnswers(nullBytes(answers)); err != nil {
		return Result{}, err
	}
	if result.IntroAnalysis, err = decodeIntroAnalysis(nullBytes(introAnalysis)); err != nil {
		return Result{}, err
	}
	if result.AnalysisText, err = decodeFullAnalysis(nullBytes(analysisText)); err != nil {
		return Result{}, err
	}
	if imageURL.Valid {
		result.ImageURL = &imageURL.String
	}
	return result, nil
}

// Update applies the patch to an existing result row in a single statement.
func (r *PGRepo) Update(ctx context.Context, resultID string, patch Patch) error {
	var (
		sets []string
		args []any
	)
	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Phase != nil {
		addSet("phase", string(*patch.Phase))
	}
	if patch.DeepAnswers != nil {
		payload, err := marshalJSONB(patch.DeepAnswers)
		if err != nil {
			return err
		}
		addSet("deep_answers", payload)
	}
	if patch.Answers != nil {
		payload, err := marshalJSONB(patch.Answers)
		if err != nil {
			return err
		}
		addSet("answers", payload)
	}
	if patch.AnalysisText != nil {
		payload, err := marshalJSONB(patch.AnalysisText)
		if err != nil {
			return err
		}
		addSet("analysis_text", payload)
	}
	if patch.ImageURL != nil {
		addSet("image_url", *patch.ImageURL)
	}
	if patch.IsPaid != nil {
		addSet("is_paid", *patch.IsPaid)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, resultID)
	query := fmt.Sprintf("UPDATE results SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullBytes(raw sql.NullString) []byte {
	if !raw.Valid {
		return nil
	}
	return []byte(raw.String)
}

var _ Repo = (*PGRepo)(nil)

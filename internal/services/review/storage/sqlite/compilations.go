package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/accredit/internal/services/review/storage"
)

// PutCompilation inserts the single compilation row for a submission.
func (s *Store) PutCompilation(ctx context.Context, record storage.CompilationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("compilation id is required")
	}
	if strings.TrimSpace(record.SubmissionID) == "" {
		return fmt.Errorf("submission id is required")
	}

	version := record.Version
	if version <= 0 {
		version = 1
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO compilations (id, submission_id, status, items_json, recommendations_json, summary_strengths, summary_weaknesses, summary_category, version, created_at, updated_at, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.SubmissionID,
		record.Status,
		defaultJSONArray(record.ItemsJSON),
		defaultJSONArray(record.RecommendationsJSON),
		record.SummaryStrengths,
		record.SummaryWeaknesses,
		record.SummaryCategory,
		version,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
		toNullMillis(record.SubmittedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put compilation: %w", err)
	}
	return nil
}

// GetCompilationBySubmission returns the compilation for one submission.
func (s *Store) GetCompilationBySubmission(ctx context.Context, submissionID string) (storage.CompilationRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CompilationRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.CompilationRecord{}, fmt.Errorf("storage is not configured")
	}
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return storage.CompilationRecord{}, fmt.Errorf("submission id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, submission_id, status, items_json, recommendations_json, summary_strengths, summary_weaknesses, summary_category, version, created_at, updated_at, submitted_at
		 FROM compilations
		 WHERE submission_id = ?`,
		submissionID,
	)
	var (
		record      storage.CompilationRecord
		createdAt   int64
		updatedAt   int64
		submittedAt sql.NullInt64
	)
	err := row.Scan(
		&record.ID,
		&record.SubmissionID,
		&record.Status,
		&record.ItemsJSON,
		&record.RecommendationsJSON,
		&record.SummaryStrengths,
		&record.SummaryWeaknesses,
		&record.SummaryCategory,
		&record.Version,
		&createdAt,
		&updatedAt,
		&submittedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CompilationRecord{}, storage.ErrNotFound
		}
		return storage.CompilationRecord{}, fmt.Errorf("get compilation: %w", err)
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	record.SubmittedAt = fromNullMillis(submittedAt)
	return record, nil
}

// UpdateCompilation applies a version-guarded compilation update. A stale
// version returns storage.ErrConflict, a missing row storage.ErrNotFound.
func (s *Store) UpdateCompilation(ctx context.Context, record storage.CompilationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	submissionID := strings.TrimSpace(record.SubmissionID)
	if submissionID == "" {
		return fmt.Errorf("submission id is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE compilations
		 SET status = ?, items_json = ?, recommendations_json = ?, summary_strengths = ?, summary_weaknesses = ?, summary_category = ?, version = version + 1, updated_at = ?, submitted_at = ?
		 WHERE submission_id = ? AND version = ?`,
		record.Status,
		defaultJSONArray(record.ItemsJSON),
		defaultJSONArray(record.RecommendationsJSON),
		record.SummaryStrengths,
		record.SummaryWeaknesses,
		record.SummaryCategory,
		toMillis(record.UpdatedAt),
		toNullMillis(record.SubmittedAt),
		submissionID,
		record.Version,
	)
	if err != nil {
		return fmt.Errorf("update compilation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update compilation rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		row := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM compilations WHERE submission_id = ?`, submissionID)
		if scanErr := row.Scan(&exists); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("update compilation existence check: %w", scanErr)
		}
		return storage.ErrConflict
	}
	return nil
}

func defaultJSONArray(value string) string {
	if strings.TrimSpace(value) == "" {
		return "[]"
	}
	return value
}

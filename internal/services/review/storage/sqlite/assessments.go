package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/accredit/internal/services/review/storage"
)

const assessmentColumns = `id, submission_id, reviewer_id, status, items_json, strengths, weaknesses, category, created_at, updated_at, submitted_at`

// PutAssessment upserts one reviewer assessment. The (submission, reviewer)
// pair is the logical key, so a re-assignment replaces the prior row.
func (s *Store) PutAssessment(ctx context.Context, record storage.AssessmentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("assessment id is required")
	}
	if strings.TrimSpace(record.SubmissionID) == "" {
		return fmt.Errorf("submission id is required")
	}
	if strings.TrimSpace(record.ReviewerID) == "" {
		return fmt.Errorf("reviewer id is required")
	}

	itemsJSON := record.ItemsJSON
	if strings.TrimSpace(itemsJSON) == "" {
		itemsJSON = "[]"
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO assessments (`+assessmentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(submission_id, reviewer_id) DO UPDATE SET
		   id = excluded.id,
		   status = excluded.status,
		   items_json = excluded.items_json,
		   strengths = excluded.strengths,
		   weaknesses = excluded.weaknesses,
		   category = excluded.category,
		   updated_at = excluded.updated_at,
		   submitted_at = excluded.submitted_at`,
		record.ID,
		record.SubmissionID,
		record.ReviewerID,
		record.Status,
		itemsJSON,
		record.Strengths,
		record.Weaknesses,
		record.Category,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
		toNullMillis(record.SubmittedAt),
	)
	if err != nil {
		return fmt.Errorf("put assessment: %w", err)
	}
	return nil
}

// GetAssessment returns one reviewer's assessment of a submission.
func (s *Store) GetAssessment(ctx context.Context, submissionID string, reviewerID string) (storage.AssessmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AssessmentRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AssessmentRecord{}, fmt.Errorf("storage is not configured")
	}
	submissionID = strings.TrimSpace(submissionID)
	reviewerID = strings.TrimSpace(reviewerID)
	if submissionID == "" {
		return storage.AssessmentRecord{}, fmt.Errorf("submission id is required")
	}
	if reviewerID == "" {
		return storage.AssessmentRecord{}, fmt.Errorf("reviewer id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+assessmentColumns+`
		 FROM assessments
		 WHERE submission_id = ? AND reviewer_id = ?`,
		submissionID,
		reviewerID,
	)
	record, err := scanAssessment(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.AssessmentRecord{}, storage.ErrNotFound
		}
		return storage.AssessmentRecord{}, fmt.Errorf("get assessment: %w", err)
	}
	return record, nil
}

// ListAssessmentsBySubmission returns every reviewer assessment of a
// submission, ordered by reviewer id.
func (s *Store) ListAssessmentsBySubmission(ctx context.Context, submissionID string) ([]storage.AssessmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return nil, fmt.Errorf("submission id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+assessmentColumns+`
		 FROM assessments
		 WHERE submission_id = ?
		 ORDER BY reviewer_id ASC`,
		submissionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var records []storage.AssessmentRecord
	for rows.Next() {
		record, err := scanAssessment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list assessments: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return records, nil
}

func scanAssessment(scan func(dest ...any) error) (storage.AssessmentRecord, error) {
	var (
		record      storage.AssessmentRecord
		createdAt   int64
		updatedAt   int64
		submittedAt sql.NullInt64
	)
	err := scan(
		&record.ID,
		&record.SubmissionID,
		&record.ReviewerID,
		&record.Status,
		&record.ItemsJSON,
		&record.Strengths,
		&record.Weaknesses,
		&record.Category,
		&createdAt,
		&updatedAt,
		&submittedAt,
	)
	if err != nil {
		return storage.AssessmentRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	record.SubmittedAt = fromNullMillis(submittedAt)
	return record, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/accredit/internal/services/review/storage"
)

// PutSubmission inserts a new submission row.
func (s *Store) PutSubmission(ctx context.Context, record storage.SubmissionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	submissionID := strings.TrimSpace(record.ID)
	if submissionID == "" {
		return fmt.Errorf("submission id is required")
	}
	if strings.TrimSpace(record.AuthorID) == "" {
		return fmt.Errorf("author id is required")
	}

	version := record.Version
	if version <= 0 {
		version = 1
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO submissions (id, author_id, deadline, lock_reason, lock_holder_id, lock_holder_role, lock_note, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		submissionID,
		record.AuthorID,
		toMillis(record.Deadline),
		record.LockReason,
		record.LockHolderID,
		record.LockHolderRole,
		record.LockNote,
		version,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put submission: %w", err)
	}
	return nil
}

// GetSubmission returns one submission row by id.
func (s *Store) GetSubmission(ctx context.Context, submissionID string) (storage.SubmissionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SubmissionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SubmissionRecord{}, fmt.Errorf("storage is not configured")
	}
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return storage.SubmissionRecord{}, fmt.Errorf("submission id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, author_id, deadline, lock_reason, lock_holder_id, lock_holder_role, lock_note, version, created_at, updated_at
		 FROM submissions
		 WHERE id = ?`,
		submissionID,
	)
	var (
		record    storage.SubmissionRecord
		deadline  int64
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(
		&record.ID,
		&record.AuthorID,
		&deadline,
		&record.LockReason,
		&record.LockHolderID,
		&record.LockHolderRole,
		&record.LockNote,
		&record.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SubmissionRecord{}, storage.ErrNotFound
		}
		return storage.SubmissionRecord{}, fmt.Errorf("get submission: %w", err)
	}
	record.Deadline = fromMillis(deadline)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

// UpdateSubmission applies a version-guarded submission update. A stale
// version returns storage.ErrConflict, a missing row storage.ErrNotFound.
func (s *Store) UpdateSubmission(ctx context.Context, record storage.SubmissionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	submissionID := strings.TrimSpace(record.ID)
	if submissionID == "" {
		return fmt.Errorf("submission id is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE submissions
		 SET author_id = ?, deadline = ?, lock_reason = ?, lock_holder_id = ?, lock_holder_role = ?, lock_note = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		record.AuthorID,
		toMillis(record.Deadline),
		record.LockReason,
		record.LockHolderID,
		record.LockHolderRole,
		record.LockNote,
		toMillis(record.UpdatedAt),
		submissionID,
		record.Version,
	)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update submission rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		row := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM submissions WHERE id = ?`, submissionID)
		if scanErr := row.Scan(&exists); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("update submission existence check: %w", scanErr)
		}
		return storage.ErrConflict
	}
	return nil
}

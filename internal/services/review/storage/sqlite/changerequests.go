package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/accredit/internal/services/review/storage"
)

const changeRequestColumns = `id, type, submission_id, requester_id, current_value, requested_value,
	first_role, first_decision, first_actor_id, first_comment, first_decided_at,
	second_role, second_decision, second_actor_id, second_comment, second_decided_at,
	withdrawn_at, created_at, updated_at`

// PutChangeRequest upserts one dual-approval change request.
func (s *Store) PutChangeRequest(ctx context.Context, record storage.ChangeRequestRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("change request id is required")
	}
	if strings.TrimSpace(record.SubmissionID) == "" {
		return fmt.Errorf("submission id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO change_requests (`+changeRequestColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   current_value = excluded.current_value,
		   requested_value = excluded.requested_value,
		   first_decision = excluded.first_decision,
		   first_actor_id = excluded.first_actor_id,
		   first_comment = excluded.first_comment,
		   first_decided_at = excluded.first_decided_at,
		   second_decision = excluded.second_decision,
		   second_actor_id = excluded.second_actor_id,
		   second_comment = excluded.second_comment,
		   second_decided_at = excluded.second_decided_at,
		   withdrawn_at = excluded.withdrawn_at,
		   updated_at = excluded.updated_at`,
		record.ID,
		record.Type,
		record.SubmissionID,
		record.RequesterID,
		record.CurrentValue,
		record.RequestedValue,
		record.FirstRole,
		record.FirstDecision,
		record.FirstActorID,
		record.FirstComment,
		toNullMillis(record.FirstDecidedAt),
		record.SecondRole,
		record.SecondDecision,
		record.SecondActorID,
		record.SecondComment,
		toNullMillis(record.SecondDecidedAt),
		toNullMillis(record.WithdrawnAt),
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put change request: %w", err)
	}
	return nil
}

// GetChangeRequest returns one change request by id.
func (s *Store) GetChangeRequest(ctx context.Context, requestID string) (storage.ChangeRequestRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ChangeRequestRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ChangeRequestRecord{}, fmt.Errorf("storage is not configured")
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return storage.ChangeRequestRecord{}, fmt.Errorf("change request id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+changeRequestColumns+`
		 FROM change_requests
		 WHERE id = ?`,
		requestID,
	)
	record, err := scanChangeRequest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ChangeRequestRecord{}, storage.ErrNotFound
		}
		return storage.ChangeRequestRecord{}, fmt.Errorf("get change request: %w", err)
	}
	return record, nil
}

// ListChangeRequestsBySubmission returns every change request for one
// submission, newest first.
func (s *Store) ListChangeRequestsBySubmission(ctx context.Context, submissionID string) ([]storage.ChangeRequestRecord, error) {
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
		`SELECT `+changeRequestColumns+`
		 FROM change_requests
		 WHERE submission_id = ?
		 ORDER BY created_at DESC, id DESC`,
		submissionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list change requests: %w", err)
	}
	defer rows.Close()

	var records []storage.ChangeRequestRecord
	for rows.Next() {
		record, err := scanChangeRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list change requests: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list change requests: %w", err)
	}
	return records, nil
}

func scanChangeRequest(scan func(dest ...any) error) (storage.ChangeRequestRecord, error) {
	var (
		record          storage.ChangeRequestRecord
		firstDecidedAt  sql.NullInt64
		secondDecidedAt sql.NullInt64
		withdrawnAt     sql.NullInt64
		createdAt       int64
		updatedAt       int64
	)
	err := scan(
		&record.ID,
		&record.Type,
		&record.SubmissionID,
		&record.RequesterID,
		&record.CurrentValue,
		&record.RequestedValue,
		&record.FirstRole,
		&record.FirstDecision,
		&record.FirstActorID,
		&record.FirstComment,
		&firstDecidedAt,
		&record.SecondRole,
		&record.SecondDecision,
		&record.SecondActorID,
		&record.SecondComment,
		&secondDecidedAt,
		&withdrawnAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return storage.ChangeRequestRecord{}, err
	}
	record.FirstDecidedAt = fromNullMillis(firstDecidedAt)
	record.SecondDecidedAt = fromNullMillis(secondDecidedAt)
	record.WithdrawnAt = fromNullMillis(withdrawnAt)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

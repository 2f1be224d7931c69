package app

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/louisbranch/accredit/internal/platform/errors"
	"github.com/louisbranch/accredit/internal/platform/id"
	"github.com/louisbranch/accredit/internal/services/review/domain/identity"
	"github.com/louisbranch/accredit/internal/services/review/domain/lock"
	"github.com/louisbranch/accredit/internal/services/review/storage"
)

// Submission is the app-level view of one accreditation submission.
type Submission struct {
	ID        string
	AuthorID  string
	Deadline  time.Time
	Lock      lock.Lock
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SubmissionService registers and reads submissions under review.
type SubmissionService struct {
	submissions storage.SubmissionStore
	clock       func() time.Time
	newID       func() (string, error)
}

// NewSubmissionService creates a submission service over the store.
func NewSubmissionService(submissions storage.SubmissionStore) *SubmissionService {
	return &SubmissionService{
		submissions: submissions,
		clock:       time.Now,
		newID:       id.NewID,
	}
}

// CreateInput describes a submission registration.
type CreateInput struct {
	// SubmissionID is optional; a fresh id is generated when empty.
	SubmissionID string
	AuthorID     string
	Deadline     time.Time
}

// Create registers a submission for review. Admin only.
func (s *SubmissionService) Create(ctx context.Context, actor identity.Identity, input CreateInput) (Submission, error) {
	if actor.Role != identity.RoleAdmin {
		return Submission{}, apperrors.New(apperrors.CodeNotAuthorized, "only admins may register submissions")
	}
	authorID := strings.TrimSpace(input.AuthorID)
	if authorID == "" {
		return Submission{}, apperrors.New(apperrors.CodeInvalidArgument, "author id is required")
	}

	submissionID := strings.TrimSpace(input.SubmissionID)
	if submissionID == "" {
		generated, err := s.newID()
		if err != nil {
			return Submission{}, apperrors.Wrap(apperrors.CodeInternal, "generate submission id", err)
		}
		submissionID = generated
	}

	now := s.clock().UTC()
	record := storage.SubmissionRecord{
		ID:         submissionID,
		AuthorID:   authorID,
		Deadline:   input.Deadline.UTC(),
		LockReason: lock.ReasonLabel(lock.ReasonUnlocked),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.submissions.PutSubmission(ctx, record); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return Submission{}, apperrors.New(apperrors.CodeConflict, "submission already exists")
		}
		return Submission{}, apperrors.Wrap(apperrors.CodeInternal, "store submission", err)
	}
	return submissionFromRecord(record), nil
}

// Get returns one submission.
func (s *SubmissionService) Get(ctx context.Context, submissionID string) (Submission, error) {
	record, err := s.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Submission{}, apperrors.New(apperrors.CodeNotFound, "submission not found")
		}
		return Submission{}, apperrors.Wrap(apperrors.CodeInternal, "load submission", err)
	}
	return submissionFromRecord(record), nil
}

func submissionFromRecord(record storage.SubmissionRecord) Submission {
	return Submission{
		ID:        record.ID,
		AuthorID:  record.AuthorID,
		Deadline:  record.Deadline,
		Lock:      lockFromSubmission(record),
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

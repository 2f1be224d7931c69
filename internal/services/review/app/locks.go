package app

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/louisbranch/accredit/internal/platform/errors"
	"github.com/louisbranch/accredit/internal/services/review/domain/identity"
	"github.com/louisbranch/accredit/internal/services/review/domain/lock"
	"github.com/louisbranch/accredit/internal/services/review/storage"
)

// LockService guards the submission document lock.
//
// Two layers keep check-then-act atomic: a per-submission in-process mutex
// serializes concurrent calls in this process, and the store's version-guarded
// update rejects writes racing an out-of-process change with ErrConflict.
type LockService struct {
	submissions storage.SubmissionStore
	clock       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLockService creates a lock service over the submission store.
func NewLockService(submissions storage.SubmissionStore) *LockService {
	return &LockService{
		submissions: submissions,
		clock:       time.Now,
		locks:       make(map[string]*sync.Mutex),
	}
}

// Acquire takes the edit lock for a reviewing actor.
func (s *LockService) Acquire(ctx context.Context, actor identity.Identity, submissionID string) (lock.Lock, error) {
	return s.transition(ctx, submissionID, func(current lock.Lock, _ storage.SubmissionRecord) (lock.Lock, error) {
		return lock.Acquire(current, actor, submissionID)
	})
}

// Release clears the edit lock.
func (s *LockService) Release(ctx context.Context, actor identity.Identity, submissionID string) (lock.Lock, error) {
	return s.transition(ctx, submissionID, func(current lock.Lock, _ storage.SubmissionRecord) (lock.Lock, error) {
		return lock.Release(current, actor)
	})
}

// SendBack marks the submission as returned for correction.
func (s *LockService) SendBack(ctx context.Context, actor identity.Identity, submissionID string, note string) (lock.Lock, error) {
	return s.transition(ctx, submissionID, func(current lock.Lock, _ storage.SubmissionRecord) (lock.Lock, error) {
		return lock.SendBack(current, actor, submissionID, note)
	})
}

// ClearSentBack resets a sent-back submission to unlocked.
func (s *LockService) ClearSentBack(ctx context.Context, actor identity.Identity, submissionID string) (lock.Lock, error) {
	return s.transition(ctx, submissionID, func(current lock.Lock, record storage.SubmissionRecord) (lock.Lock, error) {
		return lock.ClearSentBack(current, record.AuthorID, actor)
	})
}

// Get returns the current lock state for a submission.
func (s *LockService) Get(ctx context.Context, submissionID string) (lock.Lock, error) {
	record, err := s.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return lock.Lock{}, apperrors.New(apperrors.CodeNotFound, "submission not found")
		}
		return lock.Lock{}, apperrors.Wrap(apperrors.CodeInternal, "load submission", err)
	}
	return lockFromSubmission(record), nil
}

func (s *LockService) transition(ctx context.Context, submissionID string, apply func(lock.Lock, storage.SubmissionRecord) (lock.Lock, error)) (lock.Lock, error) {
	mu := s.submissionMutex(submissionID)
	mu.Lock()
	defer mu.Unlock()

	record, err := s.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return lock.Lock{}, apperrors.New(apperrors.CodeNotFound, "submission not found")
		}
		return lock.Lock{}, apperrors.Wrap(apperrors.CodeInternal, "load submission", err)
	}

	current := lockFromSubmission(record)
	next, err := apply(current, record)
	if err != nil {
		return lock.Lock{}, err
	}
	if next == current {
		return next, nil
	}

	updated := applyLockToSubmission(record, next)
	updated.UpdatedAt = s.clock().UTC()
	if err := s.submissions.UpdateSubmission(ctx, updated); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return lock.Lock{}, apperrors.New(apperrors.CodeConflict, "submission changed concurrently, retry the operation")
		}
		if errors.Is(err, storage.ErrNotFound) {
			return lock.Lock{}, apperrors.New(apperrors.CodeNotFound, "submission not found")
		}
		return lock.Lock{}, apperrors.Wrap(apperrors.CodeInternal, "store submission", err)
	}
	return next, nil
}

func (s *LockService) submissionMutex(submissionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.locks[submissionID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[submissionID] = mu
	}
	return mu
}

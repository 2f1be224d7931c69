package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/accredit/internal/platform/errors"
	"github.com/louisbranch/accredit/internal/platform/id"
	"github.com/louisbranch/accredit/internal/services/review/domain/approval"
	"github.com/louisbranch/accredit/internal/services/review/domain/identity"
	"github.com/louisbranch/accredit/internal/services/review/storage"
)

// TypeDeadlineChange is the request type for submission deadline changes.
const TypeDeadlineChange = "deadline_change"

// deadlineLayout renders deadline dates in change request values.
const deadlineLayout = "2006-01-02"

// ChangeRequestService runs dual-approval change requests. Deadline changes
// need a lead reader and an admin to approve; on convergence the requested
// deadline is applied to the submission.
type ChangeRequestService struct {
	requests    storage.ChangeRequestStore
	submissions storage.SubmissionStore
	notifier    Notifier
	clock       func() time.Time
	newID       func() (string, error)
}

// NewChangeRequestService creates a change request service over the stores.
func NewChangeRequestService(requests storage.ChangeRequestStore, submissions storage.SubmissionStore, notifier Notifier) *ChangeRequestService {
	return &ChangeRequestService{
		requests:    requests,
		submissions: submissions,
		notifier:    notifier,
		clock:       time.Now,
		newID:       id.NewID,
	}
}

// CreateDeadlineChange opens a pending deadline change request.
func (s *ChangeRequestService) CreateDeadlineChange(ctx context.Context, actor identity.Identity, submissionID string, requestedDeadline time.Time) (approval.Request, error) {
	if !actor.IsReviewer() && actor.Role != identity.RoleAuthor {
		return approval.Request{}, apperrors.New(apperrors.CodeNotAuthorized, "only reviewers and authors may request a deadline change")
	}

	submission, err := s.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return approval.Request{}, apperrors.New(apperrors.CodeNotFound, "submission not found")
		}
		return approval.Request{}, apperrors.Wrap(apperrors.CodeInternal, "load submission", err)
	}

	request, err := approval.Create(approval.CreateInput{
		Type:           TypeDeadlineChange,
		SubmissionID:   submissionID,
		RequesterID:    actor.ActorID,
		CurrentValue:   submission.Deadline.UTC().Format(deadlineLayout),
		RequestedValue: requestedDeadline.UTC().Format(deadlineLayout),
		FirstRole:      identity.RoleLeadReader,
		SecondRole:     identity.RoleAdmin,
	}, s.clock, s.newID)
	if err != nil {
		return approval.Request{}, err
	}
	if err := s.put(ctx, request); err != nil {
		return approval.Request{}, err
	}
	return request, nil
}

// Approve records an approval in the actor's slot. When both slots have
// approved, the requested deadline is applied to the submission and the
// requester is notified.
func (s *ChangeRequestService) Approve(ctx context.Context, actor identity.Identity, requestID string, comment string) (approval.Request, error) {
	request, err := s.decide(ctx, requestID, func(r approval.Request) (approval.Request, error) {
		return approval.Approve(r, actor, comment, s.clock)
	})
	if err != nil {
		return approval.Request{}, err
	}

	if request.Status() == approval.StatusApproved {
		if err := s.applyDeadline(ctx, request); err != nil {
			return approval.Request{}, err
		}
		notify(ctx, s.notifier, "change_request.approved", []string{request.RequesterID}, map[string]string{
			"RequestID":    request.ID,
			"SubmissionID": request.SubmissionID,
			"Deadline":     request.RequestedValue,
		})
	}
	return request, nil
}

// Deny records a denial in the actor's slot and notifies the requester.
func (s *ChangeRequestService) Deny(ctx context.Context, actor identity.Identity, requestID string, reason string) (approval.Request, error) {
	request, err := s.decide(ctx, requestID, func(r approval.Request) (approval.Request, error) {
		return approval.Deny(r, actor, reason, s.clock)
	})
	if err != nil {
		return approval.Request{}, err
	}
	notify(ctx, s.notifier, "change_request.denied", []string{request.RequesterID}, map[string]string{
		"RequestID":    request.ID,
		"SubmissionID": request.SubmissionID,
		"Reason":       reason,
	})
	return request, nil
}

// Withdraw soft-closes a pending request.
func (s *ChangeRequestService) Withdraw(ctx context.Context, actor identity.Identity, requestID string) (approval.Request, error) {
	return s.decide(ctx, requestID, func(r approval.Request) (approval.Request, error) {
		return approval.Withdraw(r, actor, s.clock)
	})
}

// Get returns one change request.
func (s *ChangeRequestService) Get(ctx context.Context, requestID string) (approval.Request, error) {
	return s.load(ctx, requestID)
}

// ListBySubmission returns every change request for one submission.
func (s *ChangeRequestService) ListBySubmission(ctx context.Context, submissionID string) ([]approval.Request, error) {
	records, err := s.requests.ListChangeRequestsBySubmission(ctx, submissionID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list change requests", err)
	}
	requests := make([]approval.Request, 0, len(records))
	for _, record := range records {
		requests = append(requests, changeRequestFromRecord(record))
	}
	return requests, nil
}

func (s *ChangeRequestService) decide(ctx context.Context, requestID string, apply func(approval.Request) (approval.Request, error)) (approval.Request, error) {
	current, err := s.load(ctx, requestID)
	if err != nil {
		return approval.Request{}, err
	}
	updated, err := apply(current)
	if err != nil {
		return approval.Request{}, err
	}
	if err := s.put(ctx, updated); err != nil {
		return approval.Request{}, err
	}
	return updated, nil
}

// applyDeadline moves the approved deadline onto the submission, retrying the
// version-guarded write once if a concurrent update slipped in between.
func (s *ChangeRequestService) applyDeadline(ctx context.Context, request approval.Request) error {
	deadline, err := time.Parse(deadlineLayout, request.RequestedValue)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, fmt.Sprintf("parse requested deadline: %s", request.RequestedValue), err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		submission, err := s.submissions.GetSubmission(ctx, request.SubmissionID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return apperrors.New(apperrors.CodeNotFound, "submission not found")
			}
			return apperrors.Wrap(apperrors.CodeInternal, "load submission", err)
		}
		submission.Deadline = deadline
		submission.UpdatedAt = s.clock().UTC()
		err = s.submissions.UpdateSubmission(ctx, submission)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return apperrors.Wrap(apperrors.CodeInternal, "store submission", err)
		}
	}
	return apperrors.New(apperrors.CodeConflict, "submission changed concurrently, retry the approval")
}

func (s *ChangeRequestService) load(ctx context.Context, requestID string) (approval.Request, error) {
	record, err := s.requests.GetChangeRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return approval.Request{}, apperrors.New(apperrors.CodeNotFound, "change request not found")
		}
		return approval.Request{}, apperrors.Wrap(apperrors.CodeInternal, "load change request", err)
	}
	return changeRequestFromRecord(record), nil
}

func (s *ChangeRequestService) put(ctx context.Context, request approval.Request) error {
	if err := s.requests.PutChangeRequest(ctx, changeRequestToRecord(request)); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "store change request", err)
	}
	return nil
}

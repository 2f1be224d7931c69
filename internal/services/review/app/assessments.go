package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/accredit/internal/platform/errors"
	"github.com/louisbranch/accredit/internal/platform/id"
	"github.com/louisbranch/accredit/internal/services/review/catalog"
	"github.com/louisbranch/accredit/internal/services/review/domain/assessment"
	"github.com/louisbranch/accredit/internal/services/review/domain/identity"
	"github.com/louisbranch/accredit/internal/services/review/domain/vote"
	"github.com/louisbranch/accredit/internal/services/review/storage"
)

// AssessmentService coordinates reviewer assessments of a submission.
type AssessmentService struct {
	assessments storage.AssessmentStore
	submissions storage.SubmissionStore
	catalog     catalog.Catalog
	notifier    Notifier
	clock       func() time.Time
	newID       func() (string, error)
}

// NewAssessmentService creates an assessment service over the stores.
func NewAssessmentService(assessments storage.AssessmentStore, submissions storage.SubmissionStore, specCatalog catalog.Catalog, notifier Notifier) *AssessmentService {
	return &AssessmentService{
		assessments: assessments,
		submissions: submissions,
		catalog:     specCatalog,
		notifier:    notifier,
		clock:       time.Now,
		newID:       id.NewID,
	}
}

// Assign creates a fresh Assigned assessment for a reviewer. Lead readers and
// admins may assign. An existing assessment for the pair is superseded by the
// new empty one; prior work is not merged.
func (s *AssessmentService) Assign(ctx context.Context, actor identity.Identity, submissionID string, reviewerID string) (assessment.Assessment, error) {
	if actor.Role != identity.RoleLeadReader && actor.Role != identity.RoleAdmin {
		return assessment.Assessment{}, apperrors.New(apperrors.CodeNotAuthorized, "only lead readers and admins may assign reviewers")
	}
	if _, err := s.submissions.GetSubmission(ctx, submissionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return assessment.Assessment{}, apperrors.New(apperrors.CodeNotFound, "submission not found")
		}
		return assessment.Assessment{}, apperrors.Wrap(apperrors.CodeInternal, "load submission", err)
	}

	created, err := assessment.Create(assessment.CreateInput{
		SubmissionID: submissionID,
		ReviewerID:   reviewerID,
		Items:        s.catalog.Keys(),
	}, s.clock, s.newID)
	if err != nil {
		return assessment.Assessment{}, err
	}
	if err := s.put(ctx, created); err != nil {
		return assessment.Assessment{}, err
	}
	return created, nil
}

// Get returns one reviewer's assessment.
func (s *AssessmentService) Get(ctx context.Context, actor identity.Identity, submissionID string, reviewerID string) (assessment.Assessment, error) {
	if err := authorizeReviewerAccess(actor, reviewerID); err != nil {
		return assessment.Assessment{}, err
	}
	return s.load(ctx, submissionID, reviewerID)
}

// RecordVote stores one vote on the reviewer's own assessment.
func (s *AssessmentService) RecordVote(ctx context.Context, actor identity.Identity, submissionID string, reviewerID string, key catalog.ItemKey, value vote.Value, comment string) (assessment.Assessment, error) {
	return s.mutate(ctx, actor, submissionID, reviewerID, func(a assessment.Assessment) (assessment.Assessment, error) {
		return assessment.RecordVote(a, key, value, comment, s.clock)
	})
}

// ToggleBookmark flips the bookmark on one item.
func (s *AssessmentService) ToggleBookmark(ctx context.Context, actor identity.Identity, submissionID string, reviewerID string, key catalog.ItemKey) (assessment.Assessment, error) {
	return s.mutate(ctx, actor, submissionID, reviewerID, func(a assessment.Assessment) (assessment.Assessment, error) {
		return assessment.ToggleBookmark(a, key, s.clock)
	})
}

// FlagItem attaches a flag note to one item.
func (s *AssessmentService) FlagItem(ctx context.Context, actor identity.Identity, submissionID string, reviewerID string, key catalog.ItemKey, reason string) (assessment.Assessment, error) {
	return s.mutate(ctx, actor, submissionID, reviewerID, func(a assessment.Assessment) (assessment.Assessment, error) {
		return assessment.FlagItem(a, key, reason, s.clock)
	})
}

// SetRecommendation records the reviewer's recommendation fields.
func (s *AssessmentService) SetRecommendation(ctx context.Context, actor identity.Identity, submissionID string, reviewerID string, rec assessment.Recommendation) (assessment.Assessment, error) {
	return s.mutate(ctx, actor, submissionID, reviewerID, func(a assessment.Assessment) (assessment.Assessment, error) {
		return assessment.SetRecommendation(a, rec, s.clock)
	})
}

// MarkComplete sets the manual complete marker.
func (s *AssessmentService) MarkComplete(ctx context.Context, actor identity.Identity, submissionID string, reviewerID string) (assessment.Assessment, error) {
	return s.mutate(ctx, actor, submissionID, reviewerID, func(a assessment.Assessment) (assessment.Assessment, error) {
		return assessment.MarkComplete(a, s.clock)
	})
}

// Reopen clears the manual complete marker.
func (s *AssessmentService) Reopen(ctx context.Context, actor identity.Identity, submissionID string, reviewerID string) (assessment.Assessment, error) {
	return s.mutate(ctx, actor, submissionID, reviewerID, func(a assessment.Assessment) (assessment.Assessment, error) {
		return assessment.Reopen(a, s.clock)
	})
}

// Submit locks the assessment for compilation and notifies the lead reader.
func (s *AssessmentService) Submit(ctx context.Context, actor identity.Identity, submissionID string, reviewerID string) (assessment.Assessment, error) {
	submitted, err := s.mutate(ctx, actor, submissionID, reviewerID, func(a assessment.Assessment) (assessment.Assessment, error) {
		return assessment.Submit(a, s.clock)
	})
	if err != nil {
		return assessment.Assessment{}, err
	}
	notify(ctx, s.notifier, "review.submitted", []string{identity.RoleLabel(identity.RoleLeadReader)}, map[string]string{
		"SubmissionID": submitted.SubmissionID,
		"ReviewerID":   submitted.ReviewerID,
	})
	return submitted, nil
}

// Progress returns derived vote coverage for one assessment.
func (s *AssessmentService) Progress(ctx context.Context, actor identity.Identity, submissionID string, reviewerID string) (assessment.Progress, error) {
	loaded, err := s.Get(ctx, actor, submissionID, reviewerID)
	if err != nil {
		return assessment.Progress{}, err
	}
	return loaded.Progress(), nil
}

func (s *AssessmentService) mutate(ctx context.Context, actor identity.Identity, submissionID string, reviewerID string, apply func(assessment.Assessment) (assessment.Assessment, error)) (assessment.Assessment, error) {
	if err := authorizeReviewerAccess(actor, reviewerID); err != nil {
		return assessment.Assessment{}, err
	}
	current, err := s.load(ctx, submissionID, reviewerID)
	if err != nil {
		return assessment.Assessment{}, err
	}
	updated, err := apply(current)
	if err != nil {
		return assessment.Assessment{}, err
	}
	if err := s.put(ctx, updated); err != nil {
		return assessment.Assessment{}, err
	}
	return updated, nil
}

func (s *AssessmentService) load(ctx context.Context, submissionID string, reviewerID string) (assessment.Assessment, error) {
	record, err := s.assessments.GetAssessment(ctx, submissionID, reviewerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return assessment.Assessment{}, apperrors.New(apperrors.CodeNotFound, "assessment not found")
		}
		return assessment.Assessment{}, apperrors.Wrap(apperrors.CodeInternal, "load assessment", err)
	}
	return assessmentFromRecord(record)
}

func (s *AssessmentService) put(ctx context.Context, a assessment.Assessment) error {
	record, err := assessmentToRecord(a)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "encode assessment", err)
	}
	if err := s.assessments.PutAssessment(ctx, record); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "store assessment", err)
	}
	return nil
}

// authorizeReviewerAccess allows the owning reviewer and admins.
func authorizeReviewerAccess(actor identity.Identity, reviewerID string) error {
	if actor.Role == identity.RoleAdmin {
		return nil
	}
	if strings.TrimSpace(reviewerID) != "" && actor.ActorID == reviewerID {
		return nil
	}
	return apperrors.WithMetadata(
		apperrors.CodeNotAuthorized,
		fmt.Sprintf("actor may not operate on another reviewer's assessment: %s", actor.ActorID),
		map[string]string{"ReviewerID": reviewerID},
	)
}

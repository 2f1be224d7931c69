package app

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/louisbranch/accredit/internal/platform/errors"
	"github.com/louisbranch/accredit/internal/platform/id"
	"github.com/louisbranch/accredit/internal/services/review/catalog"
	"github.com/louisbranch/accredit/internal/services/review/domain/assessment"
	"github.com/louisbranch/accredit/internal/services/review/domain/compilation"
	"github.com/louisbranch/accredit/internal/services/review/domain/identity"
	"github.com/louisbranch/accredit/internal/services/review/domain/vote"
	"github.com/louisbranch/accredit/internal/services/review/storage"
)

// CompilationService rolls submitted assessments into the lead reader's
// decision document.
type CompilationService struct {
	compilations storage.CompilationStore
	assessments  storage.AssessmentStore
	catalog      catalog.Catalog
	notifier     Notifier
	clock        func() time.Time
	newID        func() (string, error)
}

// NewCompilationService creates a compilation service over the stores.
func NewCompilationService(compilations storage.CompilationStore, assessments storage.AssessmentStore, specCatalog catalog.Catalog, notifier Notifier) *CompilationService {
	return &CompilationService{
		compilations: compilations,
		assessments:  assessments,
		catalog:      specCatalog,
		notifier:     notifier,
		clock:        time.Now,
		newID:        id.NewID,
	}
}

// CreateOrLoad returns the submission's compilation, creating it on first
// use. Creation requires at least one submitted assessment.
func (s *CompilationService) CreateOrLoad(ctx context.Context, actor identity.Identity, submissionID string) (compilation.Compilation, error) {
	if err := authorizeLead(actor); err != nil {
		return compilation.Compilation{}, err
	}

	created, _, err := s.createOrLoad(ctx, submissionID)
	return created, err
}

func (s *CompilationService) createOrLoad(ctx context.Context, submissionID string) (compilation.Compilation, int64, error) {
	existing, version, err := s.load(ctx, submissionID)
	if err == nil {
		return existing, version, nil
	}
	if apperrors.CodeOf(err) != apperrors.CodeNotFound {
		return compilation.Compilation{}, 0, err
	}

	submitted, err := s.submittedAssessments(ctx, submissionID)
	if err != nil {
		return compilation.Compilation{}, 0, err
	}
	if len(submitted) == 0 {
		return compilation.Compilation{}, 0, apperrors.New(apperrors.CodeCompilationNoSubmittedReview, "compilation requires at least one submitted assessment")
	}

	created, err := compilation.Create(submissionID, s.clock, s.newID)
	if err != nil {
		return compilation.Compilation{}, 0, err
	}
	if err := s.create(ctx, created); err != nil {
		// Another writer created the row first; use theirs.
		if apperrors.CodeOf(err) == apperrors.CodeConflict {
			return s.load(ctx, submissionID)
		}
		return compilation.Compilation{}, 0, err
	}
	return created, 1, nil
}

// Aggregate re-reads the currently submitted assessments and refreshes the
// compiled items and reviewer recommendation list. Aggregation is idempotent
// and safe to repeat as more reviewers submit; lead reader determinations
// survive re-runs.
func (s *CompilationService) Aggregate(ctx context.Context, actor identity.Identity, submissionID string) (compilation.Compilation, error) {
	if err := authorizeLead(actor); err != nil {
		return compilation.Compilation{}, err
	}

	current, loadedVersion, err := s.createOrLoad(ctx, submissionID)
	if err != nil {
		return compilation.Compilation{}, err
	}
	submitted, err := s.submittedAssessments(ctx, submissionID)
	if err != nil {
		return compilation.Compilation{}, err
	}

	for _, key := range s.catalog.Keys() {
		var votes []vote.Vote
		for _, a := range submitted {
			if v, ok := a.VoteFor(key); ok {
				votes = append(votes, v)
			}
		}
		current, err = compilation.MergeItem(current, key, votes, s.clock)
		if err != nil {
			return compilation.Compilation{}, err
		}
	}

	recommendations := make([]compilation.ReviewerRecommendation, 0, len(submitted))
	for _, a := range submitted {
		recommendations = append(recommendations, compilation.ReviewerRecommendation{
			ReviewerID: a.ReviewerID,
			Strengths:  a.Recommendation.Strengths,
			Weaknesses: a.Recommendation.Weaknesses,
			Category:   a.Recommendation.Category,
		})
	}
	current, err = compilation.SetRecommendations(current, recommendations, s.clock)
	if err != nil {
		return compilation.Compilation{}, err
	}

	if err := s.update(ctx, current, loadedVersion); err != nil {
		return compilation.Compilation{}, err
	}
	return current, nil
}

// SetFinalDetermination records the lead reader's override for one item.
func (s *CompilationService) SetFinalDetermination(ctx context.Context, actor identity.Identity, submissionID string, key catalog.ItemKey, value vote.Value, notes string) (compilation.Compilation, error) {
	return s.mutate(ctx, actor, submissionID, func(c compilation.Compilation) (compilation.Compilation, error) {
		return compilation.SetFinalDetermination(c, key, value, notes, s.clock)
	})
}

// AdoptConsensus copies consensus values into items lacking an override.
func (s *CompilationService) AdoptConsensus(ctx context.Context, actor identity.Identity, submissionID string) (compilation.Compilation, error) {
	return s.mutate(ctx, actor, submissionID, func(c compilation.Compilation) (compilation.Compilation, error) {
		return compilation.AdoptConsensus(c, s.clock)
	})
}

// SetSummary records the lead reader's final summary.
func (s *CompilationService) SetSummary(ctx context.Context, actor identity.Identity, submissionID string, summary compilation.Summary) (compilation.Compilation, error) {
	return s.mutate(ctx, actor, submissionID, func(c compilation.Compilation) (compilation.Compilation, error) {
		return compilation.SetSummary(c, summary, s.clock)
	})
}

// Submit seals the compiled recommendation and notifies the program admins.
func (s *CompilationService) Submit(ctx context.Context, actor identity.Identity, submissionID string) (compilation.Compilation, error) {
	submitted, err := s.mutate(ctx, actor, submissionID, func(c compilation.Compilation) (compilation.Compilation, error) {
		return compilation.Submit(c, s.clock)
	})
	if err != nil {
		return compilation.Compilation{}, err
	}
	notify(ctx, s.notifier, "compilation.submitted", []string{identity.RoleLabel(identity.RoleAdmin)}, map[string]string{
		"SubmissionID": submitted.SubmissionID,
		"Category":     assessment.CategoryLabel(submitted.Summary.Category),
	})
	return submitted, nil
}

// Approve moves a submitted compilation to approved. Admin only.
func (s *CompilationService) Approve(ctx context.Context, actor identity.Identity, submissionID string) (compilation.Compilation, error) {
	if actor.Role != identity.RoleAdmin {
		return compilation.Compilation{}, apperrors.New(apperrors.CodeNotAuthorized, "only admins may approve a compiled recommendation")
	}
	current, version, err := s.load(ctx, submissionID)
	if err != nil {
		return compilation.Compilation{}, err
	}
	approved, err := compilation.Approve(current, s.clock)
	if err != nil {
		return compilation.Compilation{}, err
	}
	if err := s.update(ctx, approved, version); err != nil {
		return compilation.Compilation{}, err
	}
	return approved, nil
}

// Statistics returns determination counts for the stored compilation.
func (s *CompilationService) Statistics(ctx context.Context, actor identity.Identity, submissionID string) (compilation.Statistics, error) {
	current, err := s.read(ctx, actor, submissionID)
	if err != nil {
		return compilation.Statistics{}, err
	}
	return compilation.ComputeStatistics(current), nil
}

// Disagreements returns every compiled item where reviewers split.
func (s *CompilationService) Disagreements(ctx context.Context, actor identity.Identity, submissionID string) ([]compilation.Item, error) {
	current, err := s.read(ctx, actor, submissionID)
	if err != nil {
		return nil, err
	}
	return compilation.Disagreements(current), nil
}

// Get returns the stored compilation.
func (s *CompilationService) Get(ctx context.Context, actor identity.Identity, submissionID string) (compilation.Compilation, error) {
	return s.read(ctx, actor, submissionID)
}

func (s *CompilationService) read(ctx context.Context, actor identity.Identity, submissionID string) (compilation.Compilation, error) {
	if !actor.IsReviewer() && actor.Role != identity.RoleAdmin {
		return compilation.Compilation{}, apperrors.New(apperrors.CodeNotAuthorized, "only reviewers and admins may read a compilation")
	}
	current, _, err := s.load(ctx, submissionID)
	return current, err
}

func (s *CompilationService) mutate(ctx context.Context, actor identity.Identity, submissionID string, apply func(compilation.Compilation) (compilation.Compilation, error)) (compilation.Compilation, error) {
	if err := authorizeLead(actor); err != nil {
		return compilation.Compilation{}, err
	}
	current, version, err := s.load(ctx, submissionID)
	if err != nil {
		return compilation.Compilation{}, err
	}
	updated, err := apply(current)
	if err != nil {
		return compilation.Compilation{}, err
	}
	if err := s.update(ctx, updated, version); err != nil {
		return compilation.Compilation{}, err
	}
	return updated, nil
}

func (s *CompilationService) load(ctx context.Context, submissionID string) (compilation.Compilation, int64, error) {
	record, err := s.compilations.GetCompilationBySubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return compilation.Compilation{}, 0, apperrors.New(apperrors.CodeNotFound, "compilation not found")
		}
		return compilation.Compilation{}, 0, apperrors.Wrap(apperrors.CodeInternal, "load compilation", err)
	}
	c, err := compilationFromRecord(record)
	if err != nil {
		return compilation.Compilation{}, 0, err
	}
	return c, record.Version, nil
}

func (s *CompilationService) create(ctx context.Context, c compilation.Compilation) error {
	record, err := compilationToRecord(c)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "encode compilation", err)
	}
	if err := s.compilations.PutCompilation(ctx, record); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return apperrors.New(apperrors.CodeConflict, "compilation already exists")
		}
		return apperrors.Wrap(apperrors.CodeInternal, "store compilation", err)
	}
	return nil
}

// update writes a version-guarded compilation row. A concurrent writer makes
// the loaded version stale, surfaced as CONFLICT so the caller can retry.
func (s *CompilationService) update(ctx context.Context, c compilation.Compilation, version int64) error {
	record, err := compilationToRecord(c)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "encode compilation", err)
	}
	record.Version = version
	if err := s.compilations.UpdateCompilation(ctx, record); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return apperrors.New(apperrors.CodeConflict, "compilation changed concurrently, retry the operation")
		}
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "compilation not found")
		}
		return apperrors.Wrap(apperrors.CodeInternal, "store compilation", err)
	}
	return nil
}

func (s *CompilationService) submittedAssessments(ctx context.Context, submissionID string) ([]assessment.Assessment, error) {
	records, err := s.assessments.ListAssessmentsBySubmission(ctx, submissionID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list assessments", err)
	}
	var submitted []assessment.Assessment
	for _, record := range records {
		a, err := assessmentFromRecord(record)
		if err != nil {
			return nil, err
		}
		if a.Status == assessment.StatusSubmitted {
			submitted = append(submitted, a)
		}
	}
	return submitted, nil
}

// authorizeLead allows lead readers and admins.
func authorizeLead(actor identity.Identity) error {
	if actor.Role == identity.RoleLeadReader || actor.Role == identity.RoleAdmin {
		return nil
	}
	return apperrors.New(apperrors.CodeNotAuthorized, "only the lead reader or an admin may compile")
}

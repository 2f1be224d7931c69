// Package assessment models one reviewer's pass over a submission.
//
// An Assessment is created when a reviewer is assigned, collects one vote per
// specification item, and becomes immutable once submitted. All transitions
// are pure functions over the value; persistence happens at the edges.
package assessment

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/louisbranch/accredit/internal/platform/errors"
	"github.com/louisbranch/accredit/internal/platform/id"
	"github.com/louisbranch/accredit/internal/services/review/catalog"
	"github.com/louisbranch/accredit/internal/services/review/domain/vote"
)

// Status describes the lifecycle of an assessment.
type Status int

const (
	// StatusUnspecified represents an invalid assessment status value.
	StatusUnspecified Status = iota
	// StatusAssigned indicates the reviewer has not started voting.
	StatusAssigned
	// StatusInProgress indicates at least one vote was recorded.
	StatusInProgress
	// StatusComplete indicates the reviewer marked the pass finished.
	// The marker is advisory and clears when the reviewer edits further.
	StatusComplete
	// StatusSubmitted indicates the assessment is locked for compilation.
	StatusSubmitted
)

// RecommendationCategory is the reviewer's overall recommendation.
type RecommendationCategory int

const (
	// RecommendationUnspecified represents an unset recommendation.
	RecommendationUnspecified RecommendationCategory = iota
	// RecommendationAccredit recommends full accreditation.
	RecommendationAccredit
	// RecommendationAccreditConditions recommends accreditation with conditions.
	RecommendationAccreditConditions
	// RecommendationDefer recommends deferring the decision.
	RecommendationDefer
	// RecommendationDeny recommends denying accreditation.
	RecommendationDeny
)

// ItemReview holds one reviewer's state for one specification item.
type ItemReview struct {
	Key        catalog.ItemKey
	Vote       vote.Vote
	Bookmarked bool
	FlagNote   string
}

// Recommendation is the reviewer's final free-text summary and category.
type Recommendation struct {
	Strengths  string
	Weaknesses string
	Category   RecommendationCategory
}

// populated reports whether every required recommendation field is set.
func (r Recommendation) populated() bool {
	return strings.TrimSpace(r.Strengths) != "" &&
		strings.TrimSpace(r.Weaknesses) != "" &&
		r.Category != RecommendationUnspecified
}

// MissingFields lists unset recommendation fields by name.
func (r Recommendation) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(r.Strengths) == "" {
		missing = append(missing, "strengths")
	}
	if strings.TrimSpace(r.Weaknesses) == "" {
		missing = append(missing, "weaknesses")
	}
	if r.Category == RecommendationUnspecified {
		missing = append(missing, "category")
	}
	return missing
}

// Progress summarizes vote coverage across the assessment's items.
type Progress struct {
	Total         int
	Reviewed      int
	Compliant     int
	NonCompliant  int
	NotApplicable int
}

// Assessment is one reviewer's pass over one submission.
type Assessment struct {
	ID           string
	SubmissionID string
	ReviewerID   string
	Status       Status
	// Items follows the catalog order of the specification items.
	Items          []ItemReview
	Recommendation Recommendation
	CreatedAt      time.Time
	UpdatedAt      time.Time
	SubmittedAt    *time.Time
}

// CreateInput describes the data needed to assign a reviewer.
type CreateInput struct {
	SubmissionID string
	ReviewerID   string
	Items        []catalog.ItemKey
}

// Create assigns a reviewer to a submission with an empty assessment.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Assessment, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	submissionID := strings.TrimSpace(input.SubmissionID)
	if submissionID == "" {
		return Assessment{}, apperrors.New(apperrors.CodeAssessmentEmptySubmission, "submission id is required")
	}
	reviewerID := strings.TrimSpace(input.ReviewerID)
	if reviewerID == "" {
		return Assessment{}, apperrors.New(apperrors.CodeAssessmentEmptyReviewer, "reviewer id is required")
	}

	assessmentID, err := idGenerator()
	if err != nil {
		return Assessment{}, fmt.Errorf("generate assessment id: %w", err)
	}

	items := make([]ItemReview, 0, len(input.Items))
	for _, key := range input.Items {
		items = append(items, ItemReview{
			Key:  key,
			Vote: vote.Vote{ReviewerID: reviewerID, Value: vote.ValueUnset},
		})
	}

	createdAt := now().UTC()
	return Assessment{
		ID:           assessmentID,
		SubmissionID: submissionID,
		ReviewerID:   reviewerID,
		Status:       StatusAssigned,
		Items:        items,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// RecordVote stores one vote and moves the assessment into progress.
//
// Voting while the manual complete marker is set clears the marker back to
// in-progress. Voting after submission is rejected.
func RecordVote(a Assessment, key catalog.ItemKey, value vote.Value, comment string, now func() time.Time) (Assessment, error) {
	if now == nil {
		now = time.Now
	}
	if a.Status == StatusSubmitted {
		return Assessment{}, apperrors.New(apperrors.CodeAssessmentSubmitted, "assessment is submitted and locked")
	}
	if !vote.IsCounted(value) {
		return Assessment{}, apperrors.WithMetadata(
			apperrors.CodeAssessmentInvalidVote,
			fmt.Sprintf("vote value is not gradable: %s", vote.Label(value)),
			map[string]string{"Item": key.String()},
		)
	}

	updated, idx, err := cloneWithItem(a, key)
	if err != nil {
		return Assessment{}, err
	}
	updated.Items[idx].Vote = vote.Vote{
		ReviewerID: a.ReviewerID,
		Value:      value,
		Comment:    strings.TrimSpace(comment),
	}
	updated.Status = StatusInProgress
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// ToggleBookmark flips the bookmark annotation on one item.
// Bookmarks do not affect the status machine.
func ToggleBookmark(a Assessment, key catalog.ItemKey, now func() time.Time) (Assessment, error) {
	if now == nil {
		now = time.Now
	}
	if a.Status == StatusSubmitted {
		return Assessment{}, apperrors.New(apperrors.CodeAssessmentSubmitted, "assessment is submitted and locked")
	}
	updated, idx, err := cloneWithItem(a, key)
	if err != nil {
		return Assessment{}, err
	}
	updated.Items[idx].Bookmarked = !updated.Items[idx].Bookmarked
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// FlagItem attaches a free-text flag note to one item.
// Flags do not affect the status machine.
func FlagItem(a Assessment, key catalog.ItemKey, reason string, now func() time.Time) (Assessment, error) {
	if now == nil {
		now = time.Now
	}
	if a.Status == StatusSubmitted {
		return Assessment{}, apperrors.New(apperrors.CodeAssessmentSubmitted, "assessment is submitted and locked")
	}
	updated, idx, err := cloneWithItem(a, key)
	if err != nil {
		return Assessment{}, err
	}
	updated.Items[idx].FlagNote = strings.TrimSpace(reason)
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// SetRecommendation records the reviewer's final recommendation fields.
func SetRecommendation(a Assessment, rec Recommendation, now func() time.Time) (Assessment, error) {
	if now == nil {
		now = time.Now
	}
	if a.Status == StatusSubmitted {
		return Assessment{}, apperrors.New(apperrors.CodeAssessmentSubmitted, "assessment is submitted and locked")
	}
	updated := clone(a)
	updated.Recommendation = Recommendation{
		Strengths:  strings.TrimSpace(rec.Strengths),
		Weaknesses: strings.TrimSpace(rec.Weaknesses),
		Category:   rec.Category,
	}
	if updated.Status == StatusAssigned {
		updated.Status = StatusInProgress
	}
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// MarkComplete sets the reviewer's manual complete marker.
func MarkComplete(a Assessment, now func() time.Time) (Assessment, error) {
	if now == nil {
		now = time.Now
	}
	if a.Status != StatusInProgress {
		return Assessment{}, invalidTransition(a.Status, StatusComplete)
	}
	updated := clone(a)
	updated.Status = StatusComplete
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// Reopen clears the manual complete marker back to in-progress.
func Reopen(a Assessment, now func() time.Time) (Assessment, error) {
	if now == nil {
		now = time.Now
	}
	if a.Status != StatusComplete {
		return Assessment{}, invalidTransition(a.Status, StatusInProgress)
	}
	updated := clone(a)
	updated.Status = StatusInProgress
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// Submit locks the assessment for compilation.
//
// Submission requires a counted vote on every item and a fully populated
// recommendation. On failure the error metadata lists every missing item and
// recommendation field so the caller can render actionable guidance.
func Submit(a Assessment, now func() time.Time) (Assessment, error) {
	if now == nil {
		now = time.Now
	}
	if a.Status == StatusSubmitted {
		return Assessment{}, invalidTransition(a.Status, StatusSubmitted)
	}

	var missingItems []string
	for _, item := range a.Items {
		if !vote.IsCounted(item.Vote.Value) {
			missingItems = append(missingItems, item.Key.String())
		}
	}
	missingFields := a.Recommendation.MissingFields()

	if len(missingItems) > 0 || len(missingFields) > 0 {
		sort.Strings(missingItems)
		return Assessment{}, apperrors.WithMetadata(
			apperrors.CodeAssessmentIncomplete,
			fmt.Sprintf("assessment is incomplete: %d unvoted items, %d missing recommendation fields", len(missingItems), len(missingFields)),
			map[string]string{
				"MissingItems":  strings.Join(missingItems, ","),
				"MissingFields": strings.Join(missingFields, ","),
			},
		)
	}

	updated := clone(a)
	submittedAt := now().UTC()
	updated.Status = StatusSubmitted
	updated.UpdatedAt = submittedAt
	updated.SubmittedAt = &submittedAt
	return updated, nil
}

// Progress recomputes vote coverage counters from the items.
// Counters are derived, never stored independently.
func (a Assessment) Progress() Progress {
	progress := Progress{Total: len(a.Items)}
	for _, item := range a.Items {
		switch item.Vote.Value {
		case vote.ValueCompliant:
			progress.Compliant++
		case vote.ValueNonCompliant:
			progress.NonCompliant++
		case vote.ValueNotApplicable:
			progress.NotApplicable++
		}
	}
	progress.Reviewed = progress.Compliant + progress.NonCompliant + progress.NotApplicable
	return progress
}

// VoteFor returns the vote for one item key.
func (a Assessment) VoteFor(key catalog.ItemKey) (vote.Vote, bool) {
	for _, item := range a.Items {
		if item.Key == key {
			return item.Vote, true
		}
	}
	return vote.Vote{}, false
}

// StatusLabel returns the canonical label for a status.
func StatusLabel(status Status) string {
	switch status {
	case StatusAssigned:
		return "assigned"
	case StatusInProgress:
		return "in_progress"
	case StatusComplete:
		return "complete"
	case StatusSubmitted:
		return "submitted"
	default:
		return "unspecified"
	}
}

// StatusFromLabel parses a canonical status label.
func StatusFromLabel(label string) Status {
	switch strings.TrimSpace(strings.ToLower(label)) {
	case "assigned":
		return StatusAssigned
	case "in_progress":
		return StatusInProgress
	case "complete":
		return StatusComplete
	case "submitted":
		return StatusSubmitted
	default:
		return StatusUnspecified
	}
}

// CategoryLabel returns the canonical label for a recommendation category.
func CategoryLabel(category RecommendationCategory) string {
	switch category {
	case RecommendationAccredit:
		return "accredit"
	case RecommendationAccreditConditions:
		return "accredit_with_conditions"
	case RecommendationDefer:
		return "defer"
	case RecommendationDeny:
		return "deny"
	default:
		return "unspecified"
	}
}

// CategoryFromLabel parses a canonical recommendation category label.
func CategoryFromLabel(label string) RecommendationCategory {
	switch strings.TrimSpace(strings.ToLower(label)) {
	case "accredit":
		return RecommendationAccredit
	case "accredit_with_conditions":
		return RecommendationAccreditConditions
	case "defer":
		return RecommendationDefer
	case "deny":
		return RecommendationDeny
	default:
		return RecommendationUnspecified
	}
}

func clone(a Assessment) Assessment {
	updated := a
	updated.Items = make([]ItemReview, len(a.Items))
	copy(updated.Items, a.Items)
	return updated
}

func cloneWithItem(a Assessment, key catalog.ItemKey) (Assessment, int, error) {
	updated := clone(a)
	for idx, item := range updated.Items {
		if item.Key == key {
			return updated, idx, nil
		}
	}
	return Assessment{}, 0, apperrors.WithMetadata(
		apperrors.CodeAssessmentUnknownItem,
		fmt.Sprintf("specification item is not part of this assessment: %s", key.String()),
		map[string]string{"Item": key.String()},
	)
}

func invalidTransition(from, to Status) error {
	fromStatus := StatusLabel(from)
	toStatus := StatusLabel(to)
	return apperrors.WithMetadata(
		apperrors.CodeAssessmentInvalidTransition,
		fmt.Sprintf("assessment status transition not allowed: %s -> %s", fromStatus, toStatus),
		map[string]string{"FromStatus": fromStatus, "ToStatus": toStatus},
	)
}

// Package compilation models the lead reader's rollup of all submitted
// assessments into one decision document.
//
// Aggregation is additive: re-running a merge refreshes vote snapshots and
// consensus values but never touches a lead reader's explicit final
// determinations. All transitions are pure functions over the value.
package compilation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/louisbranch/accredit/internal/platform/errors"
	"github.com/louisbranch/accredit/internal/platform/id"
	"github.com/louisbranch/accredit/internal/services/review/catalog"
	"github.com/louisbranch/accredit/internal/services/review/domain/assessment"
	"github.com/louisbranch/accredit/internal/services/review/domain/vote"
)

// Status describes the lifecycle of a compilation.
type Status int

const (
	// StatusUnspecified represents an invalid compilation status value.
	StatusUnspecified Status = iota
	// StatusInProgress indicates the compilation is being worked.
	StatusInProgress
	// StatusComplete indicates the lead reader marked the rollup finished.
	StatusComplete
	// StatusSubmitted indicates the compiled recommendation was submitted.
	StatusSubmitted
	// StatusApproved indicates the program approved the compiled decision.
	StatusApproved
)

// Item is the compiled view of one specification item.
type Item struct {
	Key catalog.ItemKey
	// Votes is an immutable snapshot copied from submitted assessments.
	// It may diverge from the reviewers' live votes after later edits.
	Votes           []vote.Vote
	Consensus       vote.Value
	HasDisagreement bool
	// FinalDetermination is the lead reader's explicit override.
	// ValueUnset means no override was recorded.
	FinalDetermination vote.Value
	LeadReaderNotes    string
	// Comments collects the reviewers' free-text item comments.
	Comments []string
}

// Determination returns the value used for downstream statistics:
// the override when present, the consensus otherwise.
func (i Item) Determination() vote.Value {
	if i.FinalDetermination != vote.ValueUnset {
		return i.FinalDetermination
	}
	return i.Consensus
}

// Determined reports whether the item has a usable determination.
func (i Item) Determined() bool {
	return i.Determination() != vote.ValueUnset
}

// ReviewerRecommendation is one submitted reviewer's final recommendation.
type ReviewerRecommendation struct {
	ReviewerID string
	Strengths  string
	Weaknesses string
	Category   assessment.RecommendationCategory
}

// Summary is the lead reader's cross-reviewer final summary.
type Summary struct {
	Strengths  string
	Weaknesses string
	Category   assessment.RecommendationCategory
}

// MissingFields lists unset summary fields by name.
func (s Summary) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(s.Strengths) == "" {
		missing = append(missing, "strengths")
	}
	if strings.TrimSpace(s.Weaknesses) == "" {
		missing = append(missing, "weaknesses")
	}
	if s.Category == assessment.RecommendationUnspecified {
		missing = append(missing, "category")
	}
	return missing
}

// Statistics aggregates determinations across all compiled items.
type Statistics struct {
	Total         int
	Compliant     int
	NonCompliant  int
	NotApplicable int
	Undetermined  int
	// ComplianceRate is Compliant / (Total - NotApplicable); zero when the
	// denominator is zero.
	ComplianceRate float64
}

// Compilation is the submission-level rollup of all reviewer assessments.
type Compilation struct {
	ID           string
	SubmissionID string
	Status       Status
	// Items follows the catalog order of the specification items.
	Items           []Item
	Recommendations []ReviewerRecommendation
	Summary         Summary
	CreatedAt       time.Time
	UpdatedAt       time.Time
	SubmittedAt     *time.Time
}

// Create opens an empty in-progress compilation for a submission.
func Create(submissionID string, now func() time.Time, idGenerator func() (string, error)) (Compilation, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return Compilation{}, apperrors.New(apperrors.CodeAssessmentEmptySubmission, "submission id is required")
	}

	compilationID, err := idGenerator()
	if err != nil {
		return Compilation{}, fmt.Errorf("generate compilation id: %w", err)
	}

	createdAt := now().UTC()
	return Compilation{
		ID:           compilationID,
		SubmissionID: submissionID,
		Status:       StatusInProgress,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// MergeItem upserts the compiled view of one specification item from a fresh
// vote snapshot. Existing final determinations and lead reader notes are
// preserved; votes, consensus, disagreement and comments are replaced.
func MergeItem(c Compilation, key catalog.ItemKey, votes []vote.Vote, now func() time.Time) (Compilation, error) {
	if now == nil {
		now = time.Now
	}
	if err := rejectSealed(c); err != nil {
		return Compilation{}, err
	}

	snapshot := make([]vote.Vote, len(votes))
	copy(snapshot, votes)
	agg := vote.Aggregate(snapshot)

	var comments []string
	for _, v := range snapshot {
		if strings.TrimSpace(v.Comment) != "" {
			comments = append(comments, v.Comment)
		}
	}

	updated := clone(c)
	for idx := range updated.Items {
		if updated.Items[idx].Key == key {
			updated.Items[idx].Votes = snapshot
			updated.Items[idx].Consensus = agg.Consensus
			updated.Items[idx].HasDisagreement = agg.HasDisagreement
			updated.Items[idx].Comments = comments
			updated.UpdatedAt = now().UTC()
			return updated, nil
		}
	}
	updated.Items = append(updated.Items, Item{
		Key:             key,
		Votes:           snapshot,
		Consensus:       agg.Consensus,
		HasDisagreement: agg.HasDisagreement,
		Comments:        comments,
	})
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// SetRecommendations replaces the cross-reviewer recommendation list.
func SetRecommendations(c Compilation, recommendations []ReviewerRecommendation, now func() time.Time) (Compilation, error) {
	if now == nil {
		now = time.Now
	}
	if err := rejectSealed(c); err != nil {
		return Compilation{}, err
	}
	updated := clone(c)
	updated.Recommendations = make([]ReviewerRecommendation, len(recommendations))
	copy(updated.Recommendations, recommendations)
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// SetFinalDetermination records the lead reader's override for one item.
func SetFinalDetermination(c Compilation, key catalog.ItemKey, value vote.Value, notes string, now func() time.Time) (Compilation, error) {
	if now == nil {
		now = time.Now
	}
	if err := rejectSealed(c); err != nil {
		return Compilation{}, err
	}
	if !vote.IsCounted(value) {
		return Compilation{}, apperrors.WithMetadata(
			apperrors.CodeCompilationInvalidValue,
			fmt.Sprintf("final determination must be a gradable value: %s", vote.Label(value)),
			map[string]string{"Item": key.String()},
		)
	}

	updated := clone(c)
	for idx := range updated.Items {
		if updated.Items[idx].Key == key {
			updated.Items[idx].FinalDetermination = value
			updated.Items[idx].LeadReaderNotes = strings.TrimSpace(notes)
			updated.UpdatedAt = now().UTC()
			return updated, nil
		}
	}
	return Compilation{}, apperrors.WithMetadata(
		apperrors.CodeCompilationUnknownItem,
		fmt.Sprintf("specification item is not part of this compilation: %s", key),
		map[string]string{"Item": key.String()},
	)
}

// AdoptConsensus copies the consensus into the final determination for every
// item lacking an explicit override. Items with a manual override and items
// without a consensus are left untouched. When nothing is adopted the
// compilation is returned unchanged, UpdatedAt included.
func AdoptConsensus(c Compilation, now func() time.Time) (Compilation, error) {
	if now == nil {
		now = time.Now
	}
	if err := rejectSealed(c); err != nil {
		return Compilation{}, err
	}
	updated := clone(c)
	adopted := false
	for idx := range updated.Items {
		item := &updated.Items[idx]
		if item.FinalDetermination != vote.ValueUnset {
			continue
		}
		if item.Consensus == vote.ValueUnset {
			continue
		}
		item.FinalDetermination = item.Consensus
		adopted = true
	}
	if adopted {
		updated.UpdatedAt = now().UTC()
	}
	return updated, nil
}

// SetSummary records the lead reader's final cross-reviewer summary.
func SetSummary(c Compilation, summary Summary, now func() time.Time) (Compilation, error) {
	if now == nil {
		now = time.Now
	}
	if err := rejectSealed(c); err != nil {
		return Compilation{}, err
	}
	updated := clone(c)
	updated.Summary = Summary{
		Strengths:  strings.TrimSpace(summary.Strengths),
		Weaknesses: strings.TrimSpace(summary.Weaknesses),
		Category:   summary.Category,
	}
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// MarkComplete sets the lead reader's manual complete marker.
func MarkComplete(c Compilation, now func() time.Time) (Compilation, error) {
	if now == nil {
		now = time.Now
	}
	if c.Status != StatusInProgress {
		return Compilation{}, invalidTransition(c.Status, StatusComplete)
	}
	updated := clone(c)
	updated.Status = StatusComplete
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// Submit seals the compiled recommendation.
//
// Every item needs a determination (consensus or override) and the summary
// must be fully populated. On failure the error metadata lists every
// undetermined item and missing summary field.
func Submit(c Compilation, now func() time.Time) (Compilation, error) {
	if now == nil {
		now = time.Now
	}
	if c.Status != StatusInProgress && c.Status != StatusComplete {
		return Compilation{}, invalidTransition(c.Status, StatusSubmitted)
	}

	var undetermined []string
	for _, item := range c.Items {
		if !item.Determined() {
			undetermined = append(undetermined, item.Key.String())
		}
	}
	missingFields := c.Summary.MissingFields()

	if len(c.Items) == 0 {
		undetermined = append(undetermined, "no compiled items")
	}
	if len(undetermined) > 0 || len(missingFields) > 0 {
		sort.Strings(undetermined)
		return Compilation{}, apperrors.WithMetadata(
			apperrors.CodeCompilationIncomplete,
			fmt.Sprintf("compilation is incomplete: %d undetermined items, %d missing summary fields", len(undetermined), len(missingFields)),
			map[string]string{
				"UndeterminedItems": strings.Join(undetermined, ","),
				"MissingFields":     strings.Join(missingFields, ","),
			},
		)
	}

	updated := clone(c)
	submittedAt := now().UTC()
	updated.Status = StatusSubmitted
	updated.UpdatedAt = submittedAt
	updated.SubmittedAt = &submittedAt
	return updated, nil
}

// Approve moves a submitted compilation to its terminal approved state.
func Approve(c Compilation, now func() time.Time) (Compilation, error) {
	if now == nil {
		now = time.Now
	}
	if c.Status != StatusSubmitted {
		return Compilation{}, invalidTransition(c.Status, StatusApproved)
	}
	updated := clone(c)
	updated.Status = StatusApproved
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// ComputeStatistics aggregates determinations across all compiled items.
// The override always wins over the consensus.
func ComputeStatistics(c Compilation) Statistics {
	stats := Statistics{Total: len(c.Items)}
	for _, item := range c.Items {
		switch item.Determination() {
		case vote.ValueCompliant:
			stats.Compliant++
		case vote.ValueNonCompliant:
			stats.NonCompliant++
		case vote.ValueNotApplicable:
			stats.NotApplicable++
		default:
			stats.Undetermined++
		}
	}
	denominator := stats.Total - stats.NotApplicable
	if denominator > 0 {
		stats.ComplianceRate = float64(stats.Compliant) / float64(denominator)
	}
	return stats
}

// Disagreements returns every compiled item where reviewers split.
func Disagreements(c Compilation) []Item {
	var items []Item
	for _, item := range c.Items {
		if item.HasDisagreement {
			items = append(items, item)
		}
	}
	return items
}

// ItemFor returns the compiled item for one key.
func (c Compilation) ItemFor(key catalog.ItemKey) (Item, bool) {
	for _, item := range c.Items {
		if item.Key == key {
			return item, true
		}
	}
	return Item{}, false
}

// StatusLabel returns the canonical label for a compilation status.
func StatusLabel(status Status) string {
	switch status {
	case StatusInProgress:
		return "in_progress"
	case StatusComplete:
		return "complete"
	case StatusSubmitted:
		return "submitted"
	case StatusApproved:
		return "approved"
	default:
		return "unspecified"
	}
}

// StatusFromLabel parses a canonical compilation status label.
func StatusFromLabel(label string) Status {
	switch strings.TrimSpace(strings.ToLower(label)) {
	case "in_progress":
		return StatusInProgress
	case "complete":
		return StatusComplete
	case "submitted":
		return StatusSubmitted
	case "approved":
		return StatusApproved
	default:
		return StatusUnspecified
	}
}

func clone(c Compilation) Compilation {
	updated := c
	updated.Items = make([]Item, len(c.Items))
	copy(updated.Items, c.Items)
	updated.Recommendations = make([]ReviewerRecommendation, len(c.Recommendations))
	copy(updated.Recommendations, c.Recommendations)
	return updated
}

func rejectSealed(c Compilation) error {
	if c.Status == StatusSubmitted || c.Status == StatusApproved {
		return apperrors.WithMetadata(
			apperrors.CodeCompilationInvalidTransition,
			fmt.Sprintf("compilation is sealed: %s", StatusLabel(c.Status)),
			map[string]string{"Status": StatusLabel(c.Status)},
		)
	}
	return nil
}

func invalidTransition(from, to Status) error {
	fromStatus := StatusLabel(from)
	toStatus := StatusLabel(to)
	return apperrors.WithMetadata(
		apperrors.CodeCompilationInvalidTransition,
		fmt.Sprintf("compilation status transition not allowed: %s -> %s", fromStatus, toStatus),
		map[string]string{"FromStatus": fromStatus, "ToStatus": toStatus},
	)
}

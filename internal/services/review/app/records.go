package app

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/louisbranch/accredit/internal/platform/errors"
	"github.com/louisbranch/accredit/internal/services/review/catalog"
	"github.com/louisbranch/accredit/internal/services/review/domain/approval"
	"github.com/louisbranch/accredit/internal/services/review/domain/assessment"
	"github.com/louisbranch/accredit/internal/services/review/domain/compilation"
	"github.com/louisbranch/accredit/internal/services/review/domain/identity"
	"github.com/louisbranch/accredit/internal/services/review/domain/lock"
	"github.com/louisbranch/accredit/internal/services/review/domain/vote"
	"github.com/louisbranch/accredit/internal/services/review/storage"
)

type assessmentItemJSON struct {
	StandardCode string `json:"standard_code"`
	SpecCode     string `json:"spec_code"`
	Vote         string `json:"vote,omitempty"`
	Comment      string `json:"comment,omitempty"`
	Bookmarked   bool   `json:"bookmarked,omitempty"`
	FlagNote     string `json:"flag_note,omitempty"`
}

type voteJSON struct {
	ReviewerID string `json:"reviewer_id"`
	Value      string `json:"value"`
	Comment    string `json:"comment,omitempty"`
}

type compiledItemJSON struct {
	StandardCode       string     `json:"standard_code"`
	SpecCode           string     `json:"spec_code"`
	Votes              []voteJSON `json:"votes,omitempty"`
	Consensus          string     `json:"consensus,omitempty"`
	HasDisagreement    bool       `json:"has_disagreement,omitempty"`
	FinalDetermination string     `json:"final_determination,omitempty"`
	LeadReaderNotes    string     `json:"lead_reader_notes,omitempty"`
	Comments           []string   `json:"comments,omitempty"`
}

type recommendationJSON struct {
	ReviewerID string `json:"reviewer_id"`
	Strengths  string `json:"strengths,omitempty"`
	Weaknesses string `json:"weaknesses,omitempty"`
	Category   string `json:"category,omitempty"`
}

func assessmentToRecord(a assessment.Assessment) (storage.AssessmentRecord, error) {
	items := make([]assessmentItemJSON, 0, len(a.Items))
	for _, item := range a.Items {
		items = append(items, assessmentItemJSON{
			StandardCode: item.Key.StandardCode,
			SpecCode:     item.Key.SpecCode,
			Vote:         vote.Label(item.Vote.Value),
			Comment:      item.Vote.Comment,
			Bookmarked:   item.Bookmarked,
			FlagNote:     item.FlagNote,
		})
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return storage.AssessmentRecord{}, fmt.Errorf("marshal assessment items: %w", err)
	}
	return storage.AssessmentRecord{
		ID:           a.ID,
		SubmissionID: a.SubmissionID,
		ReviewerID:   a.ReviewerID,
		Status:       assessment.StatusLabel(a.Status),
		ItemsJSON:    string(itemsJSON),
		Strengths:    a.Recommendation.Strengths,
		Weaknesses:   a.Recommendation.Weaknesses,
		Category:     assessment.CategoryLabel(a.Recommendation.Category),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		SubmittedAt:  a.SubmittedAt,
	}, nil
}

func assessmentFromRecord(record storage.AssessmentRecord) (assessment.Assessment, error) {
	var items []assessmentItemJSON
	if record.ItemsJSON != "" {
		if err := json.Unmarshal([]byte(record.ItemsJSON), &items); err != nil {
			return assessment.Assessment{}, apperrors.Wrap(apperrors.CodeInternal, "decode assessment items", err)
		}
	}
	reviews := make([]assessment.ItemReview, 0, len(items))
	for _, item := range items {
		reviews = append(reviews, assessment.ItemReview{
			Key: catalog.ItemKey{StandardCode: item.StandardCode, SpecCode: item.SpecCode},
			Vote: vote.Vote{
				ReviewerID: record.ReviewerID,
				Value:      vote.FromLabel(item.Vote),
				Comment:    item.Comment,
			},
			Bookmarked: item.Bookmarked,
			FlagNote:   item.FlagNote,
		})
	}
	return assessment.Assessment{
		ID:           record.ID,
		SubmissionID: record.SubmissionID,
		ReviewerID:   record.ReviewerID,
		Status:       assessment.StatusFromLabel(record.Status),
		Items:        reviews,
		Recommendation: assessment.Recommendation{
			Strengths:  record.Strengths,
			Weaknesses: record.Weaknesses,
			Category:   assessment.CategoryFromLabel(record.Category),
		},
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
		SubmittedAt: record.SubmittedAt,
	}, nil
}

func compilationToRecord(c compilation.Compilation) (storage.CompilationRecord, error) {
	items := make([]compiledItemJSON, 0, len(c.Items))
	for _, item := range c.Items {
		votes := make([]voteJSON, 0, len(item.Votes))
		for _, v := range item.Votes {
			votes = append(votes, voteJSON{
				ReviewerID: v.ReviewerID,
				Value:      vote.Label(v.Value),
				Comment:    v.Comment,
			})
		}
		items = append(items, compiledItemJSON{
			StandardCode:       item.Key.StandardCode,
			SpecCode:           item.Key.SpecCode,
			Votes:              votes,
			Consensus:          vote.Label(item.Consensus),
			HasDisagreement:    item.HasDisagreement,
			FinalDetermination: vote.Label(item.FinalDetermination),
			LeadReaderNotes:    item.LeadReaderNotes,
			Comments:           item.Comments,
		})
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return storage.CompilationRecord{}, fmt.Errorf("marshal compiled items: %w", err)
	}

	recommendations := make([]recommendationJSON, 0, len(c.Recommendations))
	for _, rec := range c.Recommendations {
		recommendations = append(recommendations, recommendationJSON{
			ReviewerID: rec.ReviewerID,
			Strengths:  rec.Strengths,
			Weaknesses: rec.Weaknesses,
			Category:   assessment.CategoryLabel(rec.Category),
		})
	}
	recommendationsJSON, err := json.Marshal(recommendations)
	if err != nil {
		return storage.CompilationRecord{}, fmt.Errorf("marshal reviewer recommendations: %w", err)
	}

	return storage.CompilationRecord{
		ID:                  c.ID,
		SubmissionID:        c.SubmissionID,
		Status:              compilation.StatusLabel(c.Status),
		ItemsJSON:           string(itemsJSON),
		RecommendationsJSON: string(recommendationsJSON),
		SummaryStrengths:    c.Summary.Strengths,
		SummaryWeaknesses:   c.Summary.Weaknesses,
		SummaryCategory:     assessment.CategoryLabel(c.Summary.Category),
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
		SubmittedAt:         c.SubmittedAt,
	}, nil
}

func compilationFromRecord(record storage.CompilationRecord) (compilation.Compilation, error) {
	var items []compiledItemJSON
	if record.ItemsJSON != "" {
		if err := json.Unmarshal([]byte(record.ItemsJSON), &items); err != nil {
			return compilation.Compilation{}, apperrors.Wrap(apperrors.CodeInternal, "decode compiled items", err)
		}
	}
	compiled := make([]compilation.Item, 0, len(items))
	for _, item := range items {
		votes := make([]vote.Vote, 0, len(item.Votes))
		for _, v := range item.Votes {
			votes = append(votes, vote.Vote{
				ReviewerID: v.ReviewerID,
				Value:      vote.FromLabel(v.Value),
				Comment:    v.Comment,
			})
		}
		compiled = append(compiled, compilation.Item{
			Key:                catalog.ItemKey{StandardCode: item.StandardCode, SpecCode: item.SpecCode},
			Votes:              votes,
			Consensus:          vote.FromLabel(item.Consensus),
			HasDisagreement:    item.HasDisagreement,
			FinalDetermination: vote.FromLabel(item.FinalDetermination),
			LeadReaderNotes:    item.LeadReaderNotes,
			Comments:           item.Comments,
		})
	}

	var recommendations []recommendationJSON
	if record.RecommendationsJSON != "" {
		if err := json.Unmarshal([]byte(record.RecommendationsJSON), &recommendations); err != nil {
			return compilation.Compilation{}, apperrors.Wrap(apperrors.CodeInternal, "decode reviewer recommendations", err)
		}
	}
	recs := make([]compilation.ReviewerRecommendation, 0, len(recommendations))
	for _, rec := range recommendations {
		recs = append(recs, compilation.ReviewerRecommendation{
			ReviewerID: rec.ReviewerID,
			Strengths:  rec.Strengths,
			Weaknesses: rec.Weaknesses,
			Category:   assessment.CategoryFromLabel(rec.Category),
		})
	}

	return compilation.Compilation{
		ID:              record.ID,
		SubmissionID:    record.SubmissionID,
		Status:          compilation.StatusFromLabel(record.Status),
		Items:           compiled,
		Recommendations: recs,
		Summary: compilation.Summary{
			Strengths:  record.SummaryStrengths,
			Weaknesses: record.SummaryWeaknesses,
			Category:   assessment.CategoryFromLabel(record.SummaryCategory),
		},
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
		SubmittedAt: record.SubmittedAt,
	}, nil
}

func lockFromSubmission(record storage.SubmissionRecord) lock.Lock {
	reason := lock.ReasonFromLabel(record.LockReason)
	return lock.Lock{
		Locked:     reason == lock.ReasonReaderReview || reason == lock.ReasonLeadReaderReview,
		HolderID:   record.LockHolderID,
		HolderRole: identity.RoleFromLabel(record.LockHolderRole),
		Reason:     reason,
		Note:       record.LockNote,
	}
}

func applyLockToSubmission(record storage.SubmissionRecord, state lock.Lock) storage.SubmissionRecord {
	record.LockReason = lock.ReasonLabel(state.Reason)
	record.LockHolderID = state.HolderID
	record.LockHolderRole = identity.RoleLabel(state.HolderRole)
	record.LockNote = state.Note
	return record
}

func changeRequestToRecord(r approval.Request) storage.ChangeRequestRecord {
	return storage.ChangeRequestRecord{
		ID:              r.ID,
		Type:            r.Type,
		SubmissionID:    r.SubmissionID,
		RequesterID:     r.RequesterID,
		CurrentValue:    r.CurrentValue,
		RequestedValue:  r.RequestedValue,
		FirstRole:       identity.RoleLabel(r.First.Role),
		FirstDecision:   approval.DecisionLabel(r.First.Decision),
		FirstActorID:    r.First.ActorID,
		FirstComment:    r.First.Comment,
		FirstDecidedAt:  r.First.DecidedAt,
		SecondRole:      identity.RoleLabel(r.Second.Role),
		SecondDecision:  approval.DecisionLabel(r.Second.Decision),
		SecondActorID:   r.Second.ActorID,
		SecondComment:   r.Second.Comment,
		SecondDecidedAt: r.Second.DecidedAt,
		WithdrawnAt:     r.WithdrawnAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func changeRequestFromRecord(record storage.ChangeRequestRecord) approval.Request {
	return approval.Request{
		ID:             record.ID,
		Type:           record.Type,
		SubmissionID:   record.SubmissionID,
		RequesterID:    record.RequesterID,
		CurrentValue:   record.CurrentValue,
		RequestedValue: record.RequestedValue,
		First: approval.Slot{
			Role:      identity.RoleFromLabel(record.FirstRole),
			Decision:  approval.DecisionFromLabel(record.FirstDecision),
			ActorID:   record.FirstActorID,
			Comment:   record.FirstComment,
			DecidedAt: record.FirstDecidedAt,
		},
		Second: approval.Slot{
			Role:      identity.RoleFromLabel(record.SecondRole),
			Decision:  approval.DecisionFromLabel(record.SecondDecision),
			ActorID:   record.SecondActorID,
			Comment:   record.SecondComment,
			DecidedAt: record.SecondDecidedAt,
		},
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
		WithdrawnAt: record.WithdrawnAt,
	}
}

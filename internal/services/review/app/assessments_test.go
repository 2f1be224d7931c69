package app

import (
	"context"
	"testing"

	apperrors "github.com/louisbranch/accredit/internal/platform/errors"
	"github.com/louisbranch/accredit/internal/services/review/catalog"
	"github.com/louisbranch/accredit/internal/services/review/domain/assessment"
	"github.com/louisbranch/accredit/internal/services/review/domain/vote"
)

func newAssessmentService(t *testing.T, store *memStore, notifier Notifier) *AssessmentService {
	t.Helper()
	svc := NewAssessmentService(store, store, testCatalog(t), notifier)
	svc.clock = testClock
	svc.newID = sequentialIDs("assessment")
	return svc
}

func TestAssignCreatesCatalogItems(t *testing.T) {
	store := newMemStore()
	seedSubmission(t, store)
	svc := newAssessmentService(t, store, NopNotifier{})

	created, err := svc.Assign(context.Background(), leadActor("submission-1"), "submission-1", "reader-1")
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if created.Status != assessment.StatusAssigned {
		t.Fatalf("Status = %v, want StatusAssigned", created.Status)
	}
	if len(created.Items) != 3 {
		t.Fatalf("Items length = %d, want 3 catalog items", len(created.Items))
	}

	loaded, err := svc.Get(context.Background(), readerActor("reader-1", "submission-1"), "submission-1", "reader-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if loaded.ID != created.ID {
		t.Fatalf("loaded ID = %q, want %q", loaded.ID, created.ID)
	}
}

func TestAssignAuthorization(t *testing.T) {
	store := newMemStore()
	seedSubmission(t, store)
	svc := newAssessmentService(t, store, NopNotifier{})

	if _, err := svc.Assign(context.Background(), readerActor("reader-1", "submission-1"), "submission-1", "reader-1"); apperrors.CodeOf(err) != apperrors.CodeNotAuthorized {
		t.Fatalf("reader assign error code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeNotAuthorized)
	}
	if _, err := svc.Assign(context.Background(), adminActor(), "missing", "reader-1"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("missing submission error code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeNotFound)
	}
}

func TestRecordVotePersistsAcrossLoads(t *testing.T) {
	store := newMemStore()
	seedSubmission(t, store)
	svc := newAssessmentService(t, store, NopNotifier{})
	reader := readerActor("reader-1", "submission-1")
	key := catalog.ItemKey{StandardCode: "STD1", SpecCode: "a"}

	if _, err := svc.Assign(context.Background(), adminActor(), "submission-1", "reader-1"); err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if _, err := svc.RecordVote(context.Background(), reader, "submission-1", "reader-1", key, vote.ValueCompliant, "well documented"); err != nil {
		t.Fatalf("RecordVote returned error: %v", err)
	}

	loaded, err := svc.Get(context.Background(), reader, "submission-1", "reader-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if loaded.Status != assessment.StatusInProgress {
		t.Fatalf("Status = %v, want StatusInProgress", loaded.Status)
	}
	v, ok := loaded.VoteFor(key)
	if !ok || v.Value != vote.ValueCompliant || v.Comment != "well documented" {
		t.Fatalf("VoteFor = %+v, %v, want persisted compliant vote", v, ok)
	}

	progress, err := svc.Progress(context.Background(), reader, "submission-1", "reader-1")
	if err != nil {
		t.Fatalf("Progress returned error: %v", err)
	}
	if progress.Reviewed != 1 || progress.Total != 3 {
		t.Fatalf("Progress = %+v, want Reviewed 1 of Total 3", progress)
	}
}

func TestRecordVoteOwnership(t *testing.T) {
	store := newMemStore()
	seedSubmission(t, store)
	svc := newAssessmentService(t, store, NopNotifier{})
	key := catalog.ItemKey{StandardCode: "STD1", SpecCode: "a"}

	if _, err := svc.Assign(context.Background(), adminActor(), "submission-1", "reader-1"); err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}

	other := readerActor("reader-2", "submission-1")
	if _, err := svc.RecordVote(context.Background(), other, "submission-1", "reader-1", key, vote.ValueCompliant, ""); apperrors.CodeOf(err) != apperrors.CodeNotAuthorized {
		t.Fatalf("other reviewer vote error code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeNotAuthorized)
	}

	// Admins may act on any reviewer's assessment.
	if _, err := svc.RecordVote(context.Background(), adminActor(), "submission-1", "reader-1", key, vote.ValueCompliant, ""); err != nil {
		t.Fatalf("admin vote returned error: %v", err)
	}
}

func TestSubmitNotifiesLeadReader(t *testing.T) {
	store := newMemStore()
	seedSubmission(t, store)
	notifier := &recordingNotifier{}
	svc := newAssessmentService(t, store, notifier)
	reader := readerActor("reader-1", "submission-1")

	if _, err := svc.Assign(context.Background(), adminActor(), "submission-1", "reader-1"); err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	for _, key := range testCatalog(t).Keys() {
		if _, err := svc.RecordVote(context.Background(), reader, "submission-1", "reader-1", key, vote.ValueCompliant, ""); err != nil {
			t.Fatalf("RecordVote returned error: %v", err)
		}
	}
	if _, err := svc.SetRecommendation(context.Background(), reader, "submission-1", "reader-1", assessment.Recommendation{
		Strengths:  "thorough evidence",
		Weaknesses: "minor gaps",
		Category:   assessment.RecommendationAccredit,
	}); err != nil {
		t.Fatalf("SetRecommendation returned error: %v", err)
	}

	submitted, err := svc.Submit(context.Background(), reader, "submission-1", "reader-1")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if submitted.Status != assessment.StatusSubmitted {
		t.Fatalf("Status = %v, want StatusSubmitted", submitted.Status)
	}

	events := notifier.Events()
	if len(events) != 1 || events[0] != "review.submitted" {
		t.Fatalf("events = %v, want [review.submitted]", events)
	}

	if _, err := svc.RecordVote(context.Background(), reader, "submission-1", "reader-1", testCatalog(t).Keys()[0], vote.ValueNonCompliant, ""); apperrors.CodeOf(err) != apperrors.CodeAssessmentSubmitted {
		t.Fatalf("vote after submit error code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeAssessmentSubmitted)
	}
}

func TestSubmitIncompleteSurfacesMissingItems(t *testing.T) {
	store := newMemStore()
	seedSubmission(t, store)
	svc := newAssessmentService(t, store, NopNotifier{})
	reader := readerActor("reader-1", "submission-1")

	if _, err := svc.Assign(context.Background(), adminActor(), "submission-1", "reader-1"); err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if _, err := svc.RecordVote(context.Background(), reader, "submission-1", "reader-1", catalog.ItemKey{StandardCode: "STD1", SpecCode: "a"}, vote.ValueCompliant, ""); err != nil {
		t.Fatalf("RecordVote returned error: %v", err)
	}

	_, err := svc.Submit(context.Background(), reader, "submission-1", "reader-1")
	if apperrors.CodeOf(err) != apperrors.CodeAssessmentIncomplete {
		t.Fatalf("error code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeAssessmentIncomplete)
	}
}

func TestGetMissingAssessment(t *testing.T) {
	store := newMemStore()
	seedSubmission(t, store)
	svc := newAssessmentService(t, store, NopNotifier{})

	if _, err := svc.Get(context.Background(), adminActor(), "submission-1", "reader-1"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("error code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeNotFound)
	}
}

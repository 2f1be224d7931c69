package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/accredit/internal/services/review/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir() + "/review.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testSubmission(id string, now time.Time) storage.SubmissionRecord {
	return storage.SubmissionRecord{
		ID:         id,
		AuthorID:   "author-1",
		Deadline:   now.AddDate(0, 1, 0),
		LockReason: "unlocked",
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestSubmissionRoundTrip(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	if err := store.PutSubmission(context.Background(), testSubmission("submission-1", now)); err != nil {
		t.Fatalf("put submission: %v", err)
	}

	record, err := store.GetSubmission(context.Background(), "submission-1")
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if record.AuthorID != "author-1" {
		t.Fatalf("AuthorID = %q, want author-1", record.AuthorID)
	}
	if record.Version != 1 {
		t.Fatalf("Version = %d, want 1", record.Version)
	}
	if !record.Deadline.Equal(now.AddDate(0, 1, 0)) {
		t.Fatalf("Deadline = %v, want %v", record.Deadline, now.AddDate(0, 1, 0))
	}

	if err := store.PutSubmission(context.Background(), testSubmission("submission-1", now)); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate put error = %v, want ErrConflict", err)
	}

	if _, err := store.GetSubmission(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing error = %v, want ErrNotFound", err)
	}
}

func TestSubmissionVersionGuard(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	if err := store.PutSubmission(context.Background(), testSubmission("submission-1", now)); err != nil {
		t.Fatalf("put submission: %v", err)
	}

	record, err := store.GetSubmission(context.Background(), "submission-1")
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}

	record.LockReason = "reader_review"
	record.LockHolderID = "reader-1"
	record.LockHolderRole = "reader"
	record.UpdatedAt = now.Add(time.Minute)
	if err := store.UpdateSubmission(context.Background(), record); err != nil {
		t.Fatalf("update submission: %v", err)
	}

	updated, err := store.GetSubmission(context.Background(), "submission-1")
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("Version = %d, want 2 after update", updated.Version)
	}
	if updated.LockHolderID != "reader-1" {
		t.Fatalf("LockHolderID = %q, want reader-1", updated.LockHolderID)
	}

	// The first record still carries version 1, so a second write loses.
	record.LockHolderID = "reader-2"
	if err := store.UpdateSubmission(context.Background(), record); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("stale update error = %v, want ErrConflict", err)
	}

	missing := testSubmission("missing", now)
	if err := store.UpdateSubmission(context.Background(), missing); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update missing error = %v, want ErrNotFound", err)
	}
}

func TestAssessmentUpsertAndList(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	record := storage.AssessmentRecord{
		ID:           "assessment-1",
		SubmissionID: "submission-1",
		ReviewerID:   "reader-1",
		Status:       "assigned",
		ItemsJSON:    `[{"standard_code":"STD1","spec_code":"a"}]`,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.PutAssessment(context.Background(), record); err != nil {
		t.Fatalf("put assessment: %v", err)
	}

	submittedAt := now.Add(time.Hour)
	record.Status = "submitted"
	record.Strengths = "clear evidence"
	record.Category = "accredit"
	record.UpdatedAt = submittedAt
	record.SubmittedAt = &submittedAt
	if err := store.PutAssessment(context.Background(), record); err != nil {
		t.Fatalf("upsert assessment: %v", err)
	}

	got, err := store.GetAssessment(context.Background(), "submission-1", "reader-1")
	if err != nil {
		t.Fatalf("get assessment: %v", err)
	}
	if got.Status != "submitted" {
		t.Fatalf("Status = %q, want submitted", got.Status)
	}
	if got.SubmittedAt == nil || !got.SubmittedAt.Equal(submittedAt) {
		t.Fatalf("SubmittedAt = %v, want %v", got.SubmittedAt, submittedAt)
	}
	if got.ItemsJSON != record.ItemsJSON {
		t.Fatalf("ItemsJSON = %q, want round trip", got.ItemsJSON)
	}

	other := storage.AssessmentRecord{
		ID:           "assessment-2",
		SubmissionID: "submission-1",
		ReviewerID:   "reader-2",
		Status:       "assigned",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.PutAssessment(context.Background(), other); err != nil {
		t.Fatalf("put second assessment: %v", err)
	}

	records, err := store.ListAssessmentsBySubmission(context.Background(), "submission-1")
	if err != nil {
		t.Fatalf("list assessments: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("assessments len = %d, want 2", len(records))
	}
	if records[0].ReviewerID != "reader-1" || records[1].ReviewerID != "reader-2" {
		t.Fatalf("reviewer order = %q, %q, want reader-1, reader-2", records[0].ReviewerID, records[1].ReviewerID)
	}

	if _, err := store.GetAssessment(context.Background(), "submission-1", "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing error = %v, want ErrNotFound", err)
	}
}

func TestCompilationRoundTrip(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	record := storage.CompilationRecord{
		ID:           "compilation-1",
		SubmissionID: "submission-1",
		Status:       "in_progress",
		ItemsJSON:    `[{"standard_code":"STD1","spec_code":"a","consensus":"compliant"}]`,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.PutCompilation(context.Background(), record); err != nil {
		t.Fatalf("put compilation: %v", err)
	}
	if err := store.PutCompilation(context.Background(), record); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate put error = %v, want ErrConflict", err)
	}

	record.Version = 1
	record.Status = "submitted"
	record.SummaryStrengths = "strong faculty"
	record.SummaryCategory = "accredit_with_conditions"
	submittedAt := now.Add(time.Hour)
	record.SubmittedAt = &submittedAt
	record.UpdatedAt = submittedAt
	if err := store.UpdateCompilation(context.Background(), record); err != nil {
		t.Fatalf("update compilation: %v", err)
	}

	got, err := store.GetCompilationBySubmission(context.Background(), "submission-1")
	if err != nil {
		t.Fatalf("get compilation: %v", err)
	}
	if got.ID != "compilation-1" {
		t.Fatalf("ID = %q, want compilation-1 kept across update", got.ID)
	}
	if got.Status != "submitted" {
		t.Fatalf("Status = %q, want submitted", got.Status)
	}
	if got.SummaryCategory != "accredit_with_conditions" {
		t.Fatalf("SummaryCategory = %q, want accredit_with_conditions", got.SummaryCategory)
	}
	if got.Version != 2 {
		t.Fatalf("Version = %d, want 2 after update", got.Version)
	}

	if err := store.UpdateCompilation(context.Background(), record); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("stale update error = %v, want ErrConflict", err)
	}
	missing := record
	missing.SubmissionID = "missing"
	if err := store.UpdateCompilation(context.Background(), missing); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update missing error = %v, want ErrNotFound", err)
	}

	if _, err := store.GetCompilationBySubmission(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing error = %v, want ErrNotFound", err)
	}
}

func TestChangeRequestRoundTrip(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	record := storage.ChangeRequestRecord{
		ID:             "request-1",
		Type:           "deadline_change",
		SubmissionID:   "submission-1",
		RequesterID:    "reader-1",
		CurrentValue:   "2026-04-01",
		RequestedValue: "2026-05-01",
		FirstRole:      "lead_reader",
		FirstDecision:  "unset",
		SecondRole:     "admin",
		SecondDecision: "unset",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := store.PutChangeRequest(context.Background(), record); err != nil {
		t.Fatalf("put change request: %v", err)
	}

	decidedAt := now.Add(time.Hour)
	record.FirstDecision = "approved"
	record.FirstActorID = "lead-1"
	record.FirstDecidedAt = &decidedAt
	record.UpdatedAt = decidedAt
	if err := store.PutChangeRequest(context.Background(), record); err != nil {
		t.Fatalf("upsert change request: %v", err)
	}

	got, err := store.GetChangeRequest(context.Background(), "request-1")
	if err != nil {
		t.Fatalf("get change request: %v", err)
	}
	if got.FirstDecision != "approved" {
		t.Fatalf("FirstDecision = %q, want approved", got.FirstDecision)
	}
	if got.FirstDecidedAt == nil || !got.FirstDecidedAt.Equal(decidedAt) {
		t.Fatalf("FirstDecidedAt = %v, want %v", got.FirstDecidedAt, decidedAt)
	}
	if got.SecondDecision != "unset" {
		t.Fatalf("SecondDecision = %q, want unset", got.SecondDecision)
	}

	later := record
	later.ID = "request-2"
	later.CreatedAt = now.Add(2 * time.Hour)
	later.UpdatedAt = later.CreatedAt
	if err := store.PutChangeRequest(context.Background(), later); err != nil {
		t.Fatalf("put second change request: %v", err)
	}

	records, err := store.ListChangeRequestsBySubmission(context.Background(), "submission-1")
	if err != nil {
		t.Fatalf("list change requests: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("change requests len = %d, want 2", len(records))
	}
	if records[0].ID != "request-2" {
		t.Fatalf("records[0].ID = %q, want newest first", records[0].ID)
	}

	if _, err := store.GetChangeRequest(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing error = %v, want ErrNotFound", err)
	}
}

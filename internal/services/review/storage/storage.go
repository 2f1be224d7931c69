// Package storage defines persistence contracts for the review service.
//
// Records are flat rows: domain enums are stored as canonical labels and
// structured payloads (votes, compiled items) as JSON columns. The app layer
// owns the record/domain mapping.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write lost a version race or violated a
	// uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

// SubmissionRecord stores one accreditation submission with its lock state.
// Version guards concurrent updates: UpdateSubmission only applies when the
// stored version matches and bumps it by one.
type SubmissionRecord struct {
	ID             string
	AuthorID       string
	Deadline       time.Time
	LockReason     string
	LockHolderID   string
	LockHolderRole string
	LockNote       string
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AssessmentRecord stores one reviewer's assessment of a submission.
type AssessmentRecord struct {
	ID           string
	SubmissionID string
	ReviewerID   string
	Status       string
	// ItemsJSON is the ordered per-item review list serialized as JSON.
	ItemsJSON   string
	Strengths   string
	Weaknesses  string
	Category    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	SubmittedAt *time.Time
}

// CompilationRecord stores the lead reader's compiled rollup for a submission.
// Version guards concurrent updates the same way SubmissionRecord's does.
type CompilationRecord struct {
	ID           string
	SubmissionID string
	Status       string
	// ItemsJSON and RecommendationsJSON hold the compiled item list and the
	// reviewer recommendation list serialized as JSON.
	ItemsJSON           string
	RecommendationsJSON string
	SummaryStrengths    string
	SummaryWeaknesses   string
	SummaryCategory     string
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
	SubmittedAt         *time.Time
}

// ChangeRequestRecord stores one dual-approval change request with both
// decision slots flattened into the row.
type ChangeRequestRecord struct {
	ID              string
	Type            string
	SubmissionID    string
	RequesterID     string
	CurrentValue    string
	RequestedValue  string
	FirstRole       string
	FirstDecision   string
	FirstActorID    string
	FirstComment    string
	FirstDecidedAt  *time.Time
	SecondRole      string
	SecondDecision  string
	SecondActorID   string
	SecondComment   string
	SecondDecidedAt *time.Time
	WithdrawnAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SubmissionStore persists submission and lock state.
type SubmissionStore interface {
	// PutSubmission inserts a new submission. An existing id returns ErrConflict.
	PutSubmission(ctx context.Context, record SubmissionRecord) error
	GetSubmission(ctx context.Context, submissionID string) (SubmissionRecord, error)
	// UpdateSubmission applies the record only when the stored version equals
	// record.Version, then increments it. A version mismatch returns
	// ErrConflict; a missing row returns ErrNotFound.
	UpdateSubmission(ctx context.Context, record SubmissionRecord) error
}

// AssessmentStore persists reviewer assessments.
type AssessmentStore interface {
	PutAssessment(ctx context.Context, record AssessmentRecord) error
	GetAssessment(ctx context.Context, submissionID string, reviewerID string) (AssessmentRecord, error)
	ListAssessmentsBySubmission(ctx context.Context, submissionID string) ([]AssessmentRecord, error)
}

// CompilationStore persists compiled submission rollups.
type CompilationStore interface {
	// PutCompilation inserts a new compilation. An existing row for the
	// submission returns ErrConflict.
	PutCompilation(ctx context.Context, record CompilationRecord) error
	GetCompilationBySubmission(ctx context.Context, submissionID string) (CompilationRecord, error)
	// UpdateCompilation applies the record only when the stored version equals
	// record.Version, then increments it. A version mismatch returns
	// ErrConflict; a missing row returns ErrNotFound.
	UpdateCompilation(ctx context.Context, record CompilationRecord) error
}

// ChangeRequestStore persists dual-approval change requests.
type ChangeRequestStore interface {
	PutChangeRequest(ctx context.Context, record ChangeRequestRecord) error
	GetChangeRequest(ctx context.Context, requestID string) (ChangeRequestRecord, error)
	ListChangeRequestsBySubmission(ctx context.Context, submissionID string) ([]ChangeRequestRecord, error)
}

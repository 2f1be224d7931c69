package app

import (
	"context"
	"sort"
	"sync"

	"github.com/louisbranch/accredit/internal/services/review/storage"
)

// memStore is an in-memory implementation of every store interface.
type memStore struct {
	mu             sync.Mutex
	submissions    map[string]storage.SubmissionRecord
	assessments    map[string]storage.AssessmentRecord
	compilations   map[string]storage.CompilationRecord
	changeRequests map[string]storage.ChangeRequestRecord

	// failUpdateSubmission forces the next UpdateSubmission to conflict.
	failUpdateSubmission bool
	// failUpdateCompilation forces the next UpdateCompilation to conflict.
	failUpdateCompilation bool
}

func newMemStore() *memStore {
	return &memStore{
		submissions:    make(map[string]storage.SubmissionRecord),
		assessments:    make(map[string]storage.AssessmentRecord),
		compilations:   make(map[string]storage.CompilationRecord),
		changeRequests: make(map[string]storage.ChangeRequestRecord),
	}
}

func (m *memStore) PutSubmission(_ context.Context, record storage.SubmissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.submissions[record.ID]; exists {
		return storage.ErrConflict
	}
	if record.Version <= 0 {
		record.Version = 1
	}
	m.submissions[record.ID] = record
	return nil
}

func (m *memStore) GetSubmission(_ context.Context, submissionID string) (storage.SubmissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.submissions[submissionID]
	if !ok {
		return storage.SubmissionRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (m *memStore) UpdateSubmission(_ context.Context, record storage.SubmissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdateSubmission {
		m.failUpdateSubmission = false
		return storage.ErrConflict
	}
	current, ok := m.submissions[record.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if current.Version != record.Version {
		return storage.ErrConflict
	}
	record.Version++
	m.submissions[record.ID] = record
	return nil
}

func assessmentKey(submissionID, reviewerID string) string {
	return submissionID + "\x00" + reviewerID
}

func (m *memStore) PutAssessment(_ context.Context, record storage.AssessmentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments[assessmentKey(record.SubmissionID, record.ReviewerID)] = record
	return nil
}

func (m *memStore) GetAssessment(_ context.Context, submissionID string, reviewerID string) (storage.AssessmentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.assessments[assessmentKey(submissionID, reviewerID)]
	if !ok {
		return storage.AssessmentRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (m *memStore) ListAssessmentsBySubmission(_ context.Context, submissionID string) ([]storage.AssessmentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var records []storage.AssessmentRecord
	for _, record := range m.assessments {
		if record.SubmissionID == submissionID {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ReviewerID < records[j].ReviewerID
	})
	return records, nil
}

func (m *memStore) PutCompilation(_ context.Context, record storage.CompilationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.compilations[record.SubmissionID]; exists {
		return storage.ErrConflict
	}
	if record.Version <= 0 {
		record.Version = 1
	}
	m.compilations[record.SubmissionID] = record
	return nil
}

func (m *memStore) GetCompilationBySubmission(_ context.Context, submissionID string) (storage.CompilationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.compilations[submissionID]
	if !ok {
		return storage.CompilationRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (m *memStore) UpdateCompilation(_ context.Context, record storage.CompilationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdateCompilation {
		m.failUpdateCompilation = false
		return storage.ErrConflict
	}
	current, ok := m.compilations[record.SubmissionID]
	if !ok {
		return storage.ErrNotFound
	}
	if current.Version != record.Version {
		return storage.ErrConflict
	}
	record.Version++
	m.compilations[record.SubmissionID] = record
	return nil
}

func (m *memStore) PutChangeRequest(_ context.Context, record storage.ChangeRequestRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changeRequests[record.ID] = record
	return nil
}

func (m *memStore) GetChangeRequest(_ context.Context, requestID string) (storage.ChangeRequestRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.changeRequests[requestID]
	if !ok {
		return storage.ChangeRequestRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (m *memStore) ListChangeRequestsBySubmission(_ context.Context, submissionID string) ([]storage.ChangeRequestRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var records []storage.ChangeRequestRecord
	for _, record := range m.changeRequests {
		if record.SubmissionID == submissionID {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

var (
	_ storage.SubmissionStore    = (*memStore)(nil)
	_ storage.AssessmentStore    = (*memStore)(nil)
	_ storage.CompilationStore   = (*memStore)(nil)
	_ storage.ChangeRequestStore = (*memStore)(nil)
)

// recordingNotifier captures notify calls for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Notify(_ context.Context, event string, _ []string, _ map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	events := make([]string, len(n.events))
	copy(events, n.events)
	return events
}

package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/louisbranch/accredit/internal/services/review/catalog"
	"github.com/louisbranch/accredit/internal/services/review/domain/identity"
)

var testNow = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func sequentialIDs(prefix string) func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("%s-%d", prefix, n), nil
	}
}

func testCatalog(t *testing.T) catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Item{
		{Key: catalog.ItemKey{StandardCode: "STD1", SpecCode: "a"}, Text: "Mission is published"},
		{Key: catalog.ItemKey{StandardCode: "STD1", SpecCode: "b"}, Text: "Outcomes are assessed"},
		{Key: catalog.ItemKey{StandardCode: "STD2", SpecCode: "a"}, Text: "Faculty are qualified"},
	})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return c
}

func adminActor() identity.Identity {
	return identity.Identity{ActorID: "admin-1", Role: identity.RoleAdmin}
}

func leadActor(submissionIDs ...string) identity.Identity {
	return identity.Identity{ActorID: "lead-1", Role: identity.RoleLeadReader, AssignedSubmissionIDs: submissionIDs}
}

func readerActor(actorID string, submissionIDs ...string) identity.Identity {
	return identity.Identity{ActorID: actorID, Role: identity.RoleReader, AssignedSubmissionIDs: submissionIDs}
}

func authorActor(actorID string) identity.Identity {
	return identity.Identity{ActorID: actorID, Role: identity.RoleAuthor}
}

func seedSubmission(t *testing.T, store *memStore) {
	t.Helper()
	svc := NewSubmissionService(store)
	svc.clock = testClock
	svc.newID = sequentialIDs("submission")
	if _, err := svc.Create(context.Background(), adminActor(), CreateInput{
		SubmissionID: "submission-1",
		AuthorID:     "author-1",
		Deadline:     testNow.AddDate(0, 1, 0),
	}); err != nil {
		t.Fatalf("seed submission: %v", err)
	}
}

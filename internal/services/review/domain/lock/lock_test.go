package lock

import (
	"testing"

	apperrors "github.com/louisbranch/accredit/internal/platform/errors"
	"github.com/louisbranch/accredit/internal/services/review/domain/identity"
)

func reader(actorID string) identity.Identity {
	return identity.Identity{
		ActorID:               actorID,
		Role:                  identity.RoleReader,
		AssignedSubmissionIDs: []string{"sub-1"},
	}
}

func leadReader(actorID string) identity.Identity {
	return identity.Identity{
		ActorID:               actorID,
		Role:                  identity.RoleLeadReader,
		AssignedSubmissionIDs: []string{"sub-1"},
	}
}

func TestAcquireUnlocked(t *testing.T) {
	locked, err := Acquire(Unlocked(), reader("reader-1"), "sub-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !locked.Locked || locked.HolderID != "reader-1" {
		t.Fatalf("unexpected lock state: %+v", locked)
	}
	if locked.Reason != ReasonReaderReview {
		t.Fatalf("expected reader_review reason, got %s", ReasonLabel(locked.Reason))
	}
}

func TestAcquireByLeadReaderUsesLeadReason(t *testing.T) {
	locked, err := Acquire(Unlocked(), leadReader("lead-1"), "sub-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if locked.Reason != ReasonLeadReaderReview {
		t.Fatalf("expected lead_reader_review reason, got %s", ReasonLabel(locked.Reason))
	}
}

func TestAcquireSameHolderIsNoOp(t *testing.T) {
	locked, err := Acquire(Unlocked(), reader("reader-1"), "sub-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	again, err := Acquire(locked, reader("reader-1"), "sub-1")
	if err != nil {
		t.Fatalf("re-acquire by holder: %v", err)
	}
	if again != locked {
		t.Fatal("expected re-acquire to return the same lock state")
	}
}

func TestAcquireHeldByOtherFails(t *testing.T) {
	locked, _ := Acquire(Unlocked(), reader("reader-1"), "sub-1")
	_, err := Acquire(locked, reader("reader-2"), "sub-1")
	if apperrors.CodeOf(err) != apperrors.CodeAlreadyLocked {
		t.Fatalf("expected already locked error, got %v", err)
	}
}

func TestAcquireRequiresReviewerRoleAndAssignment(t *testing.T) {
	author := identity.Identity{ActorID: "author-1", Role: identity.RoleAuthor, AssignedSubmissionIDs: []string{"sub-1"}}
	if _, err := Acquire(Unlocked(), author, "sub-1"); apperrors.CodeOf(err) != apperrors.CodeNotAuthorized {
		t.Fatalf("expected author acquire to be unauthorized, got %v", err)
	}

	unassigned := identity.Identity{ActorID: "reader-9", Role: identity.RoleReader}
	if _, err := Acquire(Unlocked(), unassigned, "sub-1"); apperrors.CodeOf(err) != apperrors.CodeLockActorUnassigned {
		t.Fatalf("expected unassigned acquire to fail, got %v", err)
	}
}

func TestReleaseByHolder(t *testing.T) {
	locked, _ := Acquire(Unlocked(), reader("reader-1"), "sub-1")
	unlocked, err := Release(locked, reader("reader-1"))
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if unlocked.Locked {
		t.Fatal("expected lock to clear")
	}
}

func TestReleaseEscalation(t *testing.T) {
	locked, _ := Acquire(Unlocked(), reader("reader-1"), "sub-1")

	if _, err := Release(locked, reader("reader-2")); apperrors.CodeOf(err) != apperrors.CodeNotAuthorized {
		t.Fatalf("expected peer release to be unauthorized, got %v", err)
	}

	if _, err := Release(locked, leadReader("lead-1")); err != nil {
		t.Fatalf("expected lead reader to force-release, got %v", err)
	}

	admin := identity.Identity{ActorID: "admin-1", Role: identity.RoleAdmin}
	if _, err := Release(locked, admin); err != nil {
		t.Fatalf("expected admin to force-release, got %v", err)
	}
}

func TestReleaseUnlockedFails(t *testing.T) {
	if _, err := Release(Unlocked(), reader("reader-1")); apperrors.CodeOf(err) != apperrors.CodeLockNotHeld {
		t.Fatalf("expected lock not held error, got %v", err)
	}
}

func TestSendBackReleasesEditLock(t *testing.T) {
	locked, _ := Acquire(Unlocked(), reader("reader-1"), "sub-1")
	sentBack, err := SendBack(locked, reader("reader-1"), "sub-1", " missing faculty CVs ")
	if err != nil {
		t.Fatalf("send back: %v", err)
	}
	if sentBack.Locked {
		t.Fatal("expected edit lock to be released on send back")
	}
	if sentBack.Reason != ReasonSentBack {
		t.Fatalf("expected sent_back reason, got %s", ReasonLabel(sentBack.Reason))
	}
	if sentBack.Note != "missing faculty CVs" {
		t.Fatalf("expected trimmed note, got %q", sentBack.Note)
	}
}

func TestSendBackRequiresReason(t *testing.T) {
	if _, err := SendBack(Unlocked(), reader("reader-1"), "sub-1", "  "); apperrors.CodeOf(err) != apperrors.CodeLockReasonEmpty {
		t.Fatalf("expected empty reason error, got %v", err)
	}
}

func TestSendBackBlockedByOtherHolder(t *testing.T) {
	locked, _ := Acquire(Unlocked(), reader("reader-1"), "sub-1")
	if _, err := SendBack(locked, reader("reader-2"), "sub-1", "fix tables"); apperrors.CodeOf(err) != apperrors.CodeAlreadyLocked {
		t.Fatalf("expected send back to respect another holder's lock, got %v", err)
	}
	// Lead readers override the held lock.
	if _, err := SendBack(locked, leadReader("lead-1"), "sub-1", "fix tables"); err != nil {
		t.Fatalf("expected lead reader send back to succeed, got %v", err)
	}
}

func TestAcquireBlockedWhileSentBack(t *testing.T) {
	sentBack, err := SendBack(Unlocked(), reader("reader-1"), "sub-1", "fix section 3")
	if err != nil {
		t.Fatalf("send back: %v", err)
	}

	if _, err := Acquire(sentBack, reader("reader-2"), "sub-1"); apperrors.CodeOf(err) != apperrors.CodeLockSentBack {
		t.Fatalf("expected acquire over sent-back to fail, got %v", err)
	}
	// The marker survives for the author even against the sender and the lead.
	if _, err := Acquire(sentBack, reader("reader-1"), "sub-1"); apperrors.CodeOf(err) != apperrors.CodeLockSentBack {
		t.Fatalf("expected sender re-acquire to fail, got %v", err)
	}
	if _, err := Acquire(sentBack, leadReader("lead-1"), "sub-1"); apperrors.CodeOf(err) != apperrors.CodeLockSentBack {
		t.Fatalf("expected lead reader acquire to fail, got %v", err)
	}

	author := identity.Identity{ActorID: "author-1", Role: identity.RoleAuthor}
	cleared, err := ClearSentBack(sentBack, "author-1", author)
	if err != nil {
		t.Fatalf("clear sent back: %v", err)
	}
	if _, err := Acquire(cleared, reader("reader-2"), "sub-1"); err != nil {
		t.Fatalf("expected acquire after clear to succeed, got %v", err)
	}
}

func TestSendBackBlockedWhileSentBack(t *testing.T) {
	sentBack, _ := SendBack(Unlocked(), reader("reader-1"), "sub-1", "fix section 3")

	if _, err := SendBack(sentBack, reader("reader-2"), "sub-1", "fix tables"); apperrors.CodeOf(err) != apperrors.CodeLockSentBack {
		t.Fatalf("expected second send back to fail, got %v", err)
	}
	if _, err := SendBack(sentBack, leadReader("lead-1"), "sub-1", "fix tables"); apperrors.CodeOf(err) != apperrors.CodeLockSentBack {
		t.Fatalf("expected lead reader send back to fail, got %v", err)
	}
	if sentBack.Note != "fix section 3" {
		t.Fatalf("expected original note to survive, got %q", sentBack.Note)
	}
}

func TestClearSentBackByAuthorOnly(t *testing.T) {
	sentBack, _ := SendBack(Unlocked(), reader("reader-1"), "sub-1", "fix tables")

	author := identity.Identity{ActorID: "author-1", Role: identity.RoleAuthor}
	cleared, err := ClearSentBack(sentBack, "author-1", author)
	if err != nil {
		t.Fatalf("clear sent back: %v", err)
	}
	if cleared.Reason != ReasonUnlocked || cleared.Note != "" {
		t.Fatalf("expected cleared lock state, got %+v", cleared)
	}

	if _, err := ClearSentBack(sentBack, "author-1", reader("reader-1")); apperrors.CodeOf(err) != apperrors.CodeNotAuthorized {
		t.Fatalf("expected non-author clear to fail, got %v", err)
	}
	if _, err := ClearSentBack(Unlocked(), "author-1", author); apperrors.CodeOf(err) != apperrors.CodeLockNotSentBack {
		t.Fatalf("expected clear on non-sent-back state to fail, got %v", err)
	}
}

func TestReasonLabelRoundTrip(t *testing.T) {
	for _, reason := range []Reason{ReasonReaderReview, ReasonLeadReaderReview, ReasonSentBack} {
		if ReasonFromLabel(ReasonLabel(reason)) != reason {
			t.Fatalf("reason label round trip failed for %s", ReasonLabel(reason))
		}
	}
	if ReasonFromLabel("unlocked") != ReasonUnlocked {
		t.Fatal("expected unlocked label to parse")
	}
}

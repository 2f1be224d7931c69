package approval

import (
	"testing"
	"time"

	apperrors "github.com/louisbranch/accredit/internal/platform/errors"
	"github.com/louisbranch/accredit/internal/services/review/domain/identity"
)

var fixedTime = time.Date(2024, 4, 2, 15, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() (string, error) { return "request-1", nil }

func leadActor() identity.Identity {
	return identity.Identity{ActorID: "lead-1", Role: identity.RoleLeadReader}
}

func adminActor() identity.Identity {
	return identity.Identity{ActorID: "admin-1", Role: identity.RoleAdmin}
}

func pendingRequest(t *testing.T) Request {
	t.Helper()
	r, err := Create(CreateInput{
		Type:           "deadline_change",
		SubmissionID:   "sub-1",
		RequesterID:    "author-1",
		CurrentValue:   "2024-05-01",
		RequestedValue: "2024-06-01",
		FirstRole:      identity.RoleLeadReader,
		SecondRole:     identity.RoleAdmin,
	}, fixedNow, fixedID)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return r
}

func TestCreateRequest(t *testing.T) {
	r := pendingRequest(t)
	if r.ID != "request-1" || r.Status() != StatusPending {
		t.Fatalf("unexpected request: %+v", r)
	}
	if r.First.Role != identity.RoleLeadReader || r.Second.Role != identity.RoleAdmin {
		t.Fatal("expected slot roles to be recorded")
	}
}

func TestCreateRequestValidation(t *testing.T) {
	if _, err := Create(CreateInput{RequestedValue: "x", FirstRole: identity.RoleLeadReader, SecondRole: identity.RoleAdmin}, fixedNow, fixedID); apperrors.CodeOf(err) != apperrors.CodeApprovalEmptyRequester {
		t.Fatalf("expected empty requester error, got %v", err)
	}
	if _, err := Create(CreateInput{RequesterID: "a", FirstRole: identity.RoleLeadReader, SecondRole: identity.RoleAdmin}, fixedNow, fixedID); apperrors.CodeOf(err) != apperrors.CodeApprovalEmptyValue {
		t.Fatalf("expected empty value error, got %v", err)
	}
	if _, err := Create(CreateInput{RequesterID: "a", RequestedValue: "x", FirstRole: identity.RoleLeadReader}, fixedNow, fixedID); apperrors.CodeOf(err) != apperrors.CodeApprovalInvalidSlot {
		t.Fatalf("expected invalid slot error, got %v", err)
	}
}

func TestStatusOfConvergence(t *testing.T) {
	tests := []struct {
		name          string
		first, second Decision
		want          Status
	}{
		{name: "both unset", first: DecisionUnset, second: DecisionUnset, want: StatusPending},
		{name: "one approval", first: DecisionApproved, second: DecisionUnset, want: StatusPending},
		{name: "both approve", first: DecisionApproved, second: DecisionApproved, want: StatusApproved},
		{name: "approve then deny", first: DecisionApproved, second: DecisionDenied, want: StatusDenied},
		{name: "deny then approve", first: DecisionDenied, second: DecisionApproved, want: StatusDenied},
		{name: "deny dominates pending", first: DecisionUnset, second: DecisionDenied, want: StatusDenied},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusOf(tc.first, tc.second); got != tc.want {
				t.Fatalf("StatusOf = %s, want %s", StatusLabel(got), StatusLabel(tc.want))
			}
		})
	}
}

func TestApprovalOrderDoesNotMatter(t *testing.T) {
	r := pendingRequest(t)

	leadFirst, err := Approve(r, leadActor(), "fine by me", fixedNow)
	if err != nil {
		t.Fatalf("lead approve: %v", err)
	}
	leadFirst, err = Approve(leadFirst, adminActor(), "", fixedNow)
	if err != nil {
		t.Fatalf("admin approve: %v", err)
	}

	adminFirst, err := Approve(r, adminActor(), "", fixedNow)
	if err != nil {
		t.Fatalf("admin approve: %v", err)
	}
	adminFirst, err = Approve(adminFirst, leadActor(), "", fixedNow)
	if err != nil {
		t.Fatalf("lead approve: %v", err)
	}

	if leadFirst.Status() != StatusApproved || adminFirst.Status() != StatusApproved {
		t.Fatal("expected both orderings to converge on approved")
	}
}

func TestDenialIsFinal(t *testing.T) {
	r := pendingRequest(t)
	denied, err := Deny(r, adminActor(), "deadline extension too long", fixedNow)
	if err != nil {
		t.Fatalf("deny: %v", err)
	}
	if denied.Status() != StatusDenied {
		t.Fatalf("expected denied status, got %s", StatusLabel(denied.Status()))
	}

	// The other slot cannot flip a settled request.
	if _, err := Approve(denied, leadActor(), "", fixedNow); apperrors.CodeOf(err) != apperrors.CodeApprovalNotPending {
		t.Fatalf("expected vote on settled request to fail, got %v", err)
	}
}

func TestSlotVotesOnlyOnce(t *testing.T) {
	r := pendingRequest(t)
	r, err := Approve(r, leadActor(), "", fixedNow)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := Approve(r, leadActor(), "", fixedNow); apperrors.CodeOf(err) != apperrors.CodeApprovalSlotDecided {
		t.Fatalf("expected second slot vote to fail, got %v", err)
	}
}

func TestVoteRequiresSlotRole(t *testing.T) {
	r := pendingRequest(t)
	readerActor := identity.Identity{ActorID: "reader-1", Role: identity.RoleReader}
	if _, err := Approve(r, readerActor, "", fixedNow); apperrors.CodeOf(err) != apperrors.CodeApprovalInvalidSlot {
		t.Fatalf("expected roleless vote to fail, got %v", err)
	}
}

func TestWithdraw(t *testing.T) {
	r := pendingRequest(t)

	withdrawn, err := Withdraw(r, identity.Identity{ActorID: "author-1", Role: identity.RoleAuthor}, fixedNow)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if withdrawn.Status() != StatusWithdrawn {
		t.Fatalf("expected withdrawn status, got %s", StatusLabel(withdrawn.Status()))
	}

	// Votes after withdrawal are rejected.
	if _, err := Approve(withdrawn, leadActor(), "", fixedNow); apperrors.CodeOf(err) != apperrors.CodeApprovalNotPending {
		t.Fatalf("expected vote on withdrawn request to fail, got %v", err)
	}

	// Only the requester may withdraw.
	if _, err := Withdraw(r, leadActor(), fixedNow); apperrors.CodeOf(err) != apperrors.CodeNotAuthorized {
		t.Fatalf("expected non-requester withdraw to fail, got %v", err)
	}

	// Settled requests cannot be withdrawn.
	denied, _ := Deny(r, adminActor(), "no", fixedNow)
	if _, err := Withdraw(denied, identity.Identity{ActorID: "author-1"}, fixedNow); apperrors.CodeOf(err) != apperrors.CodeApprovalNotPending {
		t.Fatalf("expected withdraw on settled request to fail, got %v", err)
	}
}

func TestDecisionLabelRoundTrip(t *testing.T) {
	for _, decision := range []Decision{DecisionApproved, DecisionDenied} {
		if DecisionFromLabel(DecisionLabel(decision)) != decision {
			t.Fatalf("decision label round trip failed for %s", DecisionLabel(decision))
		}
	}
	if DecisionFromLabel("abstain") != DecisionUnset {
		t.Fatal("expected unknown decision label to map to unset")
	}
}

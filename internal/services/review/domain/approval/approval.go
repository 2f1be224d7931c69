// Package approval models a generic two-party approval request.
//
// Both slots must approve for the request to pass; a single denial is final
// even if the other slot never votes. The overall status is a pure function
// of the two slots, mirroring the consensus-with-override convergence used in
// compilation but with exactly two parties and no tie-break.
package approval

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/accredit/internal/platform/errors"
	"github.com/louisbranch/accredit/internal/platform/id"
	"github.com/louisbranch/accredit/internal/services/review/domain/identity"
)

// Decision is the vote recorded in one approval slot.
type Decision int

const (
	// DecisionUnset indicates the slot has not voted.
	DecisionUnset Decision = iota
	// DecisionApproved indicates the slot approved the request.
	DecisionApproved
	// DecisionDenied indicates the slot denied the request.
	DecisionDenied
)

// Status is the overall state of a request.
type Status int

const (
	// StatusUnspecified represents an invalid status value.
	StatusUnspecified Status = iota
	// StatusPending indicates at least one slot has not voted and none denied.
	StatusPending
	// StatusApproved indicates both slots approved.
	StatusApproved
	// StatusDenied indicates at least one slot denied.
	StatusDenied
	// StatusWithdrawn indicates the requester withdrew while pending.
	StatusWithdrawn
)

// Slot records one party's vote on a request.
type Slot struct {
	Role      identity.Role
	Decision  Decision
	ActorID   string
	Comment   string
	DecidedAt *time.Time
}

// Request is a two-party approval request for an out-of-band change.
type Request struct {
	ID           string
	Type         string
	SubmissionID string
	RequesterID  string
	// CurrentValue and RequestedValue are opaque text renderings of the
	// value under change (for example a deadline date).
	CurrentValue   string
	RequestedValue string
	First          Slot
	Second         Slot
	CreatedAt      time.Time
	UpdatedAt      time.Time
	WithdrawnAt    *time.Time
}

// Status derives the request status from the two slots.
// Withdrawal is orthogonal and dominates while recorded.
func (r Request) Status() Status {
	if r.WithdrawnAt != nil {
		return StatusWithdrawn
	}
	return StatusOf(r.First.Decision, r.Second.Decision)
}

// StatusOf computes the convergence of two independent decisions:
// either denial is final, both approvals approve, anything else is pending.
func StatusOf(first, second Decision) Status {
	if first == DecisionDenied || second == DecisionDenied {
		return StatusDenied
	}
	if first == DecisionApproved && second == DecisionApproved {
		return StatusApproved
	}
	return StatusPending
}

// CreateInput describes a new change request.
type CreateInput struct {
	Type           string
	SubmissionID   string
	RequesterID    string
	CurrentValue   string
	RequestedValue string
	FirstRole      identity.Role
	SecondRole     identity.Role
}

// Create opens a pending two-party request.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Request, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	requesterID := strings.TrimSpace(input.RequesterID)
	if requesterID == "" {
		return Request{}, apperrors.New(apperrors.CodeApprovalEmptyRequester, "requester id is required")
	}
	requestedValue := strings.TrimSpace(input.RequestedValue)
	if requestedValue == "" {
		return Request{}, apperrors.New(apperrors.CodeApprovalEmptyValue, "requested value is required")
	}
	if input.FirstRole == identity.RoleUnspecified || input.SecondRole == identity.RoleUnspecified {
		return Request{}, apperrors.New(apperrors.CodeApprovalInvalidSlot, "both approval slot roles are required")
	}

	requestID, err := idGenerator()
	if err != nil {
		return Request{}, fmt.Errorf("generate request id: %w", err)
	}

	createdAt := now().UTC()
	return Request{
		ID:             requestID,
		Type:           strings.TrimSpace(input.Type),
		SubmissionID:   strings.TrimSpace(input.SubmissionID),
		RequesterID:    requesterID,
		CurrentValue:   strings.TrimSpace(input.CurrentValue),
		RequestedValue: requestedValue,
		First:          Slot{Role: input.FirstRole},
		Second:         Slot{Role: input.SecondRole},
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}, nil
}

// Approve records an approval in the actor's slot.
func Approve(r Request, actor identity.Identity, comment string, now func() time.Time) (Request, error) {
	return decide(r, actor, DecisionApproved, comment, now)
}

// Deny records a denial in the actor's slot. A denial is final.
func Deny(r Request, actor identity.Identity, reason string, now func() time.Time) (Request, error) {
	return decide(r, actor, DecisionDenied, reason, now)
}

// Withdraw soft-closes a pending request. Only the original requester may
// withdraw, and only while the request is still pending.
func Withdraw(r Request, actor identity.Identity, now func() time.Time) (Request, error) {
	if now == nil {
		now = time.Now
	}
	if actor.ActorID == "" || actor.ActorID != r.RequesterID {
		return Request{}, apperrors.New(apperrors.CodeNotAuthorized, "only the requester may withdraw the request")
	}
	if r.Status() != StatusPending {
		return Request{}, apperrors.WithMetadata(
			apperrors.CodeApprovalNotPending,
			fmt.Sprintf("request is not pending: %s", StatusLabel(r.Status())),
			map[string]string{"Status": StatusLabel(r.Status())},
		)
	}
	updated := r
	withdrawnAt := now().UTC()
	updated.WithdrawnAt = &withdrawnAt
	updated.UpdatedAt = withdrawnAt
	return updated, nil
}

// decide writes one decision into the slot matching the actor's role.
// Each slot is settable exactly once; re-voting requires withdrawing and
// re-creating the request.
func decide(r Request, actor identity.Identity, decision Decision, comment string, now func() time.Time) (Request, error) {
	if now == nil {
		now = time.Now
	}
	status := r.Status()
	if status == StatusWithdrawn {
		return Request{}, apperrors.New(apperrors.CodeApprovalNotPending, "request was withdrawn")
	}
	if status == StatusDenied || status == StatusApproved {
		return Request{}, apperrors.WithMetadata(
			apperrors.CodeApprovalNotPending,
			fmt.Sprintf("request already settled: %s", StatusLabel(status)),
			map[string]string{"Status": StatusLabel(status)},
		)
	}

	updated := r
	var slot *Slot
	switch actor.Role {
	case updated.First.Role:
		slot = &updated.First
	case updated.Second.Role:
		slot = &updated.Second
	default:
		return Request{}, apperrors.WithMetadata(
			apperrors.CodeApprovalInvalidSlot,
			fmt.Sprintf("role has no approval slot on this request: %s", identity.RoleLabel(actor.Role)),
			map[string]string{"Role": identity.RoleLabel(actor.Role)},
		)
	}
	if slot.Decision != DecisionUnset {
		return Request{}, apperrors.New(apperrors.CodeApprovalSlotDecided, "approval slot has already voted")
	}

	decidedAt := now().UTC()
	slot.Decision = decision
	slot.ActorID = actor.ActorID
	slot.Comment = strings.TrimSpace(comment)
	slot.DecidedAt = &decidedAt
	updated.UpdatedAt = decidedAt
	return updated, nil
}

// StatusLabel returns the canonical label for a request status.
func StatusLabel(status Status) string {
	switch status {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusDenied:
		return "denied"
	case StatusWithdrawn:
		return "withdrawn"
	default:
		return "unspecified"
	}
}

// DecisionLabel returns the canonical label for a slot decision.
func DecisionLabel(decision Decision) string {
	switch decision {
	case DecisionApproved:
		return "approved"
	case DecisionDenied:
		return "denied"
	default:
		return "unset"
	}
}

// DecisionFromLabel parses a canonical slot decision label.
func DecisionFromLabel(label string) Decision {
	switch strings.TrimSpace(strings.ToLower(label)) {
	case "approved":
		return DecisionApproved
	case "denied":
		return DecisionDenied
	default:
		return DecisionUnset
	}
}

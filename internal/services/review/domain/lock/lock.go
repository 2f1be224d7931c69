// Package lock models the single-writer guard over a submission document.
//
// The lock is submission metadata, not a separate entity: callers persist the
// whole submission record atomically after applying one of the pure
// transitions here. Lock reasons are a tagged enum so "someone is reviewing"
// and "returned for correction" cannot be conflated.
package lock

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/accredit/internal/platform/errors"
	"github.com/louisbranch/accredit/internal/services/review/domain/identity"
)

// Reason describes why a submission is locked.
type Reason int

const (
	// ReasonUnlocked indicates no lock is in effect.
	ReasonUnlocked Reason = iota
	// ReasonReaderReview indicates a reader holds the edit lock.
	ReasonReaderReview
	// ReasonLeadReaderReview indicates the lead reader holds the edit lock.
	ReasonLeadReaderReview
	// ReasonSentBack indicates the document was returned for correction.
	// The submitting author may edit; the marker is advisory.
	ReasonSentBack
)

// Lock is the submission's lock state.
type Lock struct {
	Locked     bool
	HolderID   string
	HolderRole identity.Role
	Reason     Reason
	// Note carries the free-text correction reason when sent back.
	Note string
}

// Unlocked returns the zero lock state.
func Unlocked() Lock {
	return Lock{Reason: ReasonUnlocked}
}

// Acquire takes the edit lock for a reviewing actor.
//
// Re-acquiring a lock the actor already holds is a no-op success. A lock held
// by a different actor fails with ALREADY_LOCKED. A sent-back submission
// cannot be locked until the author clears the correction marker. Only
// readers and lead readers assigned to the submission may acquire.
func Acquire(current Lock, actor identity.Identity, submissionID string) (Lock, error) {
	if !actor.IsReviewer() {
		return Lock{}, apperrors.New(apperrors.CodeNotAuthorized, "only readers may lock a submission for review")
	}
	if !actor.IsAssigned(submissionID) {
		return Lock{}, apperrors.New(apperrors.CodeLockActorUnassigned, "actor is not assigned to this submission")
	}
	if current.Reason == ReasonSentBack {
		return Lock{}, apperrors.WithMetadata(
			apperrors.CodeLockSentBack,
			"submission is sent back for correction; the author must clear it first",
			map[string]string{"SentBackBy": current.HolderID, "Note": current.Note},
		)
	}
	if current.Locked {
		if current.HolderID == actor.ActorID {
			return current, nil
		}
		return Lock{}, apperrors.WithMetadata(
			apperrors.CodeAlreadyLocked,
			fmt.Sprintf("submission is locked by another actor: %s", current.HolderID),
			map[string]string{"HolderID": current.HolderID, "HolderRole": identity.RoleLabel(current.HolderRole)},
		)
	}

	reason := ReasonReaderReview
	if actor.Role == identity.RoleLeadReader {
		reason = ReasonLeadReaderReview
	}
	return Lock{
		Locked:     true,
		HolderID:   actor.ActorID,
		HolderRole: actor.Role,
		Reason:     reason,
	}, nil
}

// Release clears the edit lock.
//
// The holder may always release. Lead readers and admins may force-release a
// lock held by someone else so a disconnected reviewer cannot block the
// submission indefinitely.
func Release(current Lock, actor identity.Identity) (Lock, error) {
	if !current.Locked {
		return Lock{}, apperrors.New(apperrors.CodeLockNotHeld, "submission is not locked")
	}
	if current.HolderID != actor.ActorID &&
		actor.Role != identity.RoleLeadReader &&
		actor.Role != identity.RoleAdmin {
		return Lock{}, apperrors.New(apperrors.CodeNotAuthorized, "only the lock holder, a lead reader, or an admin may release")
	}
	return Unlocked(), nil
}

// SendBack returns the submission to its author for correction.
//
// The edit lock is implicitly released: the sent-back state is an advisory
// marker that only the author clears after correcting the document. Sending
// back an already sent-back submission is rejected so the original
// correction note survives until the author acts on it.
func SendBack(current Lock, actor identity.Identity, submissionID string, note string) (Lock, error) {
	if !actor.IsReviewer() {
		return Lock{}, apperrors.New(apperrors.CodeNotAuthorized, "only readers may send a submission back")
	}
	if !actor.IsAssigned(submissionID) {
		return Lock{}, apperrors.New(apperrors.CodeLockActorUnassigned, "actor is not assigned to this submission")
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return Lock{}, apperrors.New(apperrors.CodeLockReasonEmpty, "a correction reason is required to send back")
	}
	if current.Reason == ReasonSentBack {
		return Lock{}, apperrors.WithMetadata(
			apperrors.CodeLockSentBack,
			"submission is already sent back for correction; the author must clear it first",
			map[string]string{"SentBackBy": current.HolderID, "Note": current.Note},
		)
	}
	if current.Locked && current.HolderID != actor.ActorID &&
		actor.Role != identity.RoleLeadReader {
		return Lock{}, apperrors.WithMetadata(
			apperrors.CodeAlreadyLocked,
			fmt.Sprintf("submission is locked by another actor: %s", current.HolderID),
			map[string]string{"HolderID": current.HolderID},
		)
	}
	return Lock{
		Locked:     false,
		HolderID:   actor.ActorID,
		HolderRole: actor.Role,
		Reason:     ReasonSentBack,
		Note:       note,
	}, nil
}

// ClearSentBack resets a sent-back submission to unlocked.
// Only the submission's original author may clear the marker.
func ClearSentBack(current Lock, authorID string, actor identity.Identity) (Lock, error) {
	if current.Reason != ReasonSentBack {
		return Lock{}, apperrors.New(apperrors.CodeLockNotSentBack, "submission is not sent back for correction")
	}
	if actor.ActorID == "" || actor.ActorID != authorID {
		return Lock{}, apperrors.New(apperrors.CodeNotAuthorized, "only the submitting author may clear the correction marker")
	}
	return Unlocked(), nil
}

// ReasonLabel returns the canonical label for a lock reason.
func ReasonLabel(reason Reason) string {
	switch reason {
	case ReasonReaderReview:
		return "reader_review"
	case ReasonLeadReaderReview:
		return "lead_reader_review"
	case ReasonSentBack:
		return "sent_back_for_correction"
	default:
		return "unlocked"
	}
}

// ReasonFromLabel parses a canonical lock reason label.
func ReasonFromLabel(label string) Reason {
	switch strings.TrimSpace(strings.ToLower(label)) {
	case "reader_review":
		return ReasonReaderReview
	case "lead_reader_review":
		return ReasonLeadReaderReview
	case "sent_back_for_correction":
		return ReasonSentBack
	default:
		return ReasonUnlocked
	}
}

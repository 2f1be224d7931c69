// Package errors provides structured error handling with machine-readable codes.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"
	// CodeInternal represents an unexpected internal failure (storage, IO).
	CodeInternal Code = "INTERNAL"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeConflict Code = "CONFLICT"

	// Authorization errors
	CodeNotAuthorized Code = "NOT_AUTHORIZED"

	// Validation errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Lock errors
	CodeAlreadyLocked       Code = "ALREADY_LOCKED"
	CodeLockNotHeld         Code = "LOCK_NOT_HELD"
	CodeLockNotSentBack     Code = "LOCK_NOT_SENT_BACK"
	CodeLockSentBack        Code = "LOCK_SENT_BACK_FOR_CORRECTION"
	CodeLockReasonEmpty     Code = "LOCK_SEND_BACK_REASON_EMPTY"
	CodeLockActorUnassigned Code = "LOCK_ACTOR_NOT_ASSIGNED"

	// Assessment errors
	CodeAssessmentIncomplete        Code = "INCOMPLETE_REVIEW"
	CodeAssessmentSubmitted         Code = "ASSESSMENT_ALREADY_SUBMITTED"
	CodeAssessmentInvalidTransition Code = "ASSESSMENT_INVALID_STATUS_TRANSITION"
	CodeAssessmentUnknownItem       Code = "ASSESSMENT_UNKNOWN_SPEC_ITEM"
	CodeAssessmentInvalidVote       Code = "ASSESSMENT_INVALID_VOTE_VALUE"
	CodeAssessmentEmptySubmission   Code = "ASSESSMENT_EMPTY_SUBMISSION_ID"
	CodeAssessmentEmptyReviewer     Code = "ASSESSMENT_EMPTY_REVIEWER_ID"

	// Compilation errors
	CodeCompilationIncomplete        Code = "INCOMPLETE_COMPILATION"
	CodeCompilationInvalidTransition Code = "COMPILATION_INVALID_STATUS_TRANSITION"
	CodeCompilationNoSubmittedReview Code = "COMPILATION_NO_SUBMITTED_REVIEW"
	CodeCompilationInvalidValue      Code = "COMPILATION_INVALID_DETERMINATION"
	CodeCompilationUnknownItem       Code = "COMPILATION_UNKNOWN_SPEC_ITEM"

	// Change request errors
	CodeApprovalSlotDecided    Code = "APPROVAL_SLOT_ALREADY_DECIDED"
	CodeApprovalNotPending     Code = "APPROVAL_REQUEST_NOT_PENDING"
	CodeApprovalInvalidSlot    Code = "APPROVAL_INVALID_SLOT_ROLE"
	CodeApprovalEmptyRequester Code = "APPROVAL_EMPTY_REQUESTER_ID"
	CodeApprovalEmptyValue     Code = "APPROVAL_EMPTY_REQUESTED_VALUE"
	CodeInvalidStateTransition Code = "INVALID_STATE_TRANSITION"

	// Catalog errors
	CodeCatalogEmptyItemCode Code = "CATALOG_EMPTY_ITEM_CODE"
	CodeCatalogEmptyItemText Code = "CATALOG_EMPTY_ITEM_TEXT"
	CodeCatalogDuplicateItem Code = "CATALOG_DUPLICATE_ITEM"
	CodeCatalogEmpty         Code = "CATALOG_EMPTY"
)

// Package identity describes the acting caller for review operations.
//
// Authentication happens outside this module. The calling layer resolves the
// actor and supplies an Identity with every operation that needs
// authorization; domain and app code only consult the role and assignment
// facts carried here.
package identity

import "strings"

// Role describes an actor's capability level within the review process.
type Role int

const (
	// RoleUnspecified represents an invalid role value.
	RoleUnspecified Role = iota
	// RoleAuthor indicates the submitting institution's author.
	RoleAuthor
	// RoleReader indicates an independent reviewer.
	RoleReader
	// RoleLeadReader indicates the compiling lead reviewer.
	RoleLeadReader
	// RoleAdmin indicates a program administrator.
	RoleAdmin
)

// Identity captures the acting caller for one operation.
type Identity struct {
	ActorID string
	Role    Role
	// AssignedSubmissionIDs lists submissions the actor is assigned to review.
	AssignedSubmissionIDs []string
}

// IsAssigned reports whether the actor is assigned to the submission.
func (id Identity) IsAssigned(submissionID string) bool {
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return false
	}
	for _, assigned := range id.AssignedSubmissionIDs {
		if assigned == submissionID {
			return true
		}
	}
	return false
}

// IsReviewer reports whether the actor holds a reviewing role.
func (id Identity) IsReviewer() bool {
	return id.Role == RoleReader || id.Role == RoleLeadReader
}

// RoleLabel returns the canonical label for a role.
func RoleLabel(role Role) string {
	switch role {
	case RoleAuthor:
		return "author"
	case RoleReader:
		return "reader"
	case RoleLeadReader:
		return "lead_reader"
	case RoleAdmin:
		return "admin"
	default:
		return "unspecified"
	}
}

// RoleFromLabel parses a canonical role label.
func RoleFromLabel(label string) Role {
	switch strings.TrimSpace(strings.ToLower(label)) {
	case "author":
		return RoleAuthor
	case "reader":
		return RoleReader
	case "lead_reader":
		return RoleLeadReader
	case "admin":
		return RoleAdmin
	default:
		return RoleUnspecified
	}
}

// Package policy holds the assignment and independence predicates consulted
// by workflow permission checks. These are pure functions over already-loaded
// domain data; they perform no I/O.
package policy

import (
	"fmt"

	"github.com/google/uuid"

	"cedrus/internal/domain"
)

// IsAssignedToAudit reports whether the user is the audit's lead auditor or a
// team member. The reason explains a denial and is safe to show to users.
func IsAssignedToAudit(userID uuid.UUID, audit *domain.Audit) (bool, string) {
	if audit.IsLeadAuditor(userID) || audit.HasTeamMember(userID) {
		return true, ""
	}
	return false, "You are not assigned to this audit"
}

// IsAssignedLead reports whether the user is this audit's lead auditor.
func IsAssignedLead(userID uuid.UUID, audit *domain.Audit) (bool, string) {
	if audit.IsLeadAuditor(userID) {
		return true, ""
	}
	return false, "You are not the lead auditor for this audit"
}

// IsIndependentForDecision enforces decision independence (ISO 17021-1
// Clause 9.6): the decision-maker must not have conducted or reviewed the
// audit. review may be nil when no technical review exists yet.
func IsIndependentForDecision(userID uuid.UUID, audit *domain.Audit, review *domain.TechnicalReview) (bool, string) {
	if audit.IsLeadAuditor(userID) {
		return false, "Decision-maker must not be the audit's lead auditor"
	}
	if audit.HasTeamMember(userID) {
		return false, "Decision-maker must not be a member of the audit team"
	}
	if review != nil && review.ReviewerID == userID {
		return false, "Decision-maker must not be the audit's technical reviewer"
	}
	return true, ""
}

// ValidateStatus rejects values outside the declared state set before they
// reach the transition table.
func ValidateStatus(status domain.AuditStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown audit status %q", status)
	}
	return nil
}

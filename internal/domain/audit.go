package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditStatus enumerates the closed set of audit lifecycle states.
type AuditStatus string

const (
	StatusDraft           AuditStatus = "draft"
	StatusScheduled       AuditStatus = "scheduled"
	StatusInProgress      AuditStatus = "in_progress"
	StatusReportDraft     AuditStatus = "report_draft"
	StatusClientReview    AuditStatus = "client_review"
	StatusSubmitted       AuditStatus = "submitted"
	StatusTechnicalReview AuditStatus = "technical_review"
	StatusDecisionPending AuditStatus = "decision_pending"
	// StatusDecided is a legacy state. No canonical edge transitions into it;
	// it is reachable only through direct data manipulation and exists so
	// historical audits can still be closed.
	StatusDecided   AuditStatus = "decided"
	StatusClosed    AuditStatus = "closed"
	StatusCancelled AuditStatus = "cancelled"
)

// StatusInfo describes one status for UI pickers.
type StatusInfo struct {
	Code        AuditStatus `json:"code"`
	Label       string      `json:"label"`
	Description string      `json:"description"`
}

// AllStatuses lists every status in lifecycle order. The slice is the single
// source of truth for status enumeration; do not reorder it.
var AllStatuses = []StatusInfo{
	{StatusDraft, "Draft", "Audit is being prepared and is not yet visible to the client."},
	{StatusScheduled, "Scheduled", "Audit dates are confirmed and the team is assigned."},
	{StatusInProgress, "In Progress", "On-site or remote audit activities are underway."},
	{StatusReportDraft, "Report Draft", "The lead auditor is drafting the audit report."},
	{StatusClientReview, "Client Review", "The client is responding to findings."},
	{StatusSubmitted, "Submitted", "The report is submitted for technical review."},
	{StatusTechnicalReview, "Technical Review", "An independent reviewer is checking the audit."},
	{StatusDecisionPending, "Decision Pending", "Awaiting the certification decision."},
	{StatusDecided, "Decided", "Legacy: certification decision recorded."},
	{StatusClosed, "Closed", "The audit cycle is complete."},
	{StatusCancelled, "Cancelled", "The audit was cancelled."},
}

// Label returns the human-readable name for the status, or the raw code for
// values outside the declared set.
func (s AuditStatus) Label() string {
	for _, info := range AllStatuses {
		if info.Code == s {
			return info.Label
		}
	}
	return string(s)
}

// Valid reports membership in the declared state set.
func (s AuditStatus) Valid() bool {
	for _, info := range AllStatuses {
		if info.Code == s {
			return true
		}
	}
	return false
}

// AuditType enumerates the certification audit kinds.
type AuditType string

const (
	AuditTypeStage1          AuditType = "stage1"
	AuditTypeStage2          AuditType = "stage2"
	AuditTypeSurveillance    AuditType = "surveillance"
	AuditTypeRecertification AuditType = "recertification"
	AuditTypeTransfer        AuditType = "transfer"
	AuditTypeSpecial         AuditType = "special"
	AuditTypeInternal        AuditType = "internal"
)

// Audit is the aggregate root whose status the workflow engine manages. Team
// members, dates, and linked records are read by guards but owned elsewhere.
type Audit struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Type           AuditType
	Status         AuditStatus
	LeadAuditorID  *uuid.UUID
	TeamMemberIDs  []uuid.UUID
	SiteIDs        []uuid.UUID
	StartDate      *time.Time
	EndDate        *time.Time
	// Version guards against lost updates: a status write must carry the
	// version it read, and storage rejects the write if another transition
	// committed in between.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasTeamMember reports whether the user is on the audit team.
func (a *Audit) HasTeamMember(userID uuid.UUID) bool {
	for _, id := range a.TeamMemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsLeadAuditor reports whether the user is this audit's assigned lead.
func (a *Audit) IsLeadAuditor(userID uuid.UUID) bool {
	return a.LeadAuditorID != nil && *a.LeadAuditorID == userID
}

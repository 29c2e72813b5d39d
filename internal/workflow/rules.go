package workflow

import (
	"context"
	"fmt"
	"strings"

	"cedrus/internal/domain"
	"cedrus/internal/identity"
	"cedrus/internal/policy"
	"cedrus/pkg/platform/fsm"
)

// Guard and permission wiring for the audit lifecycle. The table below is the
// single authoritative encoding of the ISO 17021-1 workflow: which edges
// exist, who may traverse them, and which business preconditions gate them.
// Guard messages are part of the public contract; UI and API consumers show
// them verbatim.

type (
	guard      = fsm.Guard[*Snapshot]
	permission = fsm.Permission[*Snapshot, domain.User]
	rule       = fsm.Rule[*Snapshot, domain.User]
)

// ruleSet binds the transition table to an injected role provider so the
// permission layer can be exercised with fakes.
type ruleSet struct {
	roles identity.RoleProvider
}

// NewMachine builds the audit state machine. The apply function mutates only
// the in-memory audit; persistence is the orchestration service's job.
func NewMachine(roles identity.RoleProvider) *fsm.Machine[*Snapshot, domain.User] {
	rs := &ruleSet{roles: roles}
	return fsm.New(
		func(s *Snapshot) fsm.State { return s.State() },
		func(_ context.Context, s *Snapshot, to fsm.State) error {
			s.Audit.Status = domain.AuditStatus(to)
			return nil
		},
		rs.rules(),
	)
}

// rules returns the full transition table in presentation order. closed and
// cancelled are terminal: they have no entries as a source state. decided has
// no inbound edge; it survives only so legacy audits can still be closed.
func (rs *ruleSet) rules() []rule {
	st := func(s domain.AuditStatus) fsm.State { return fsm.State(s) }

	cancel := func(from domain.AuditStatus) rule {
		return rule{
			From:       st(from),
			To:         st(domain.StatusCancelled),
			Label:      "Cancel Audit",
			Permission: rs.adminOnly,
		}
	}

	return []rule{
		{From: st(domain.StatusDraft), To: st(domain.StatusScheduled), Label: "Schedule Audit",
			Permission: rs.leadOrAdmin, Guards: []guard{guardReadyForScheduling}},
		cancel(domain.StatusDraft),

		// The scheduling guard runs again here: an audit whose lead was
		// unassigned after scheduling must not start.
		{From: st(domain.StatusScheduled), To: st(domain.StatusInProgress), Label: "Start Audit",
			Permission: rs.leadOrAdmin, Guards: []guard{guardReadyForScheduling}},
		cancel(domain.StatusScheduled),

		{From: st(domain.StatusInProgress), To: st(domain.StatusReportDraft), Label: "Begin Report Draft",
			Permission: rs.leadOrAdmin, Guards: []guard{guardHasFindings}},
		cancel(domain.StatusInProgress),

		{From: st(domain.StatusReportDraft), To: st(domain.StatusClientReview), Label: "Send for Client Review",
			Permission: rs.leadOrAdmin},
		{From: st(domain.StatusReportDraft), To: st(domain.StatusInProgress), Label: "Return to In Progress",
			Permission: rs.leadOrAdmin},
		cancel(domain.StatusReportDraft),

		{From: st(domain.StatusClientReview), To: st(domain.StatusSubmitted), Label: "Submit Audit",
			Permission: rs.leadOrAdmin, Guards: []guard{guardMajorNCsAnswered}},
		{From: st(domain.StatusClientReview), To: st(domain.StatusReportDraft), Label: "Return to Report Draft",
			Permission: rs.leadOrAdmin},
		cancel(domain.StatusClientReview),

		// The client-response guard runs again on the way into technical
		// review in case responses were cleared after submission.
		{From: st(domain.StatusSubmitted), To: st(domain.StatusTechnicalReview), Label: "Send to Technical Review",
			Permission: rs.technicalReviewer, Guards: []guard{guardMajorNCsAnswered}},
		cancel(domain.StatusSubmitted),

		{From: st(domain.StatusTechnicalReview), To: st(domain.StatusDecisionPending), Label: "Move to Decision",
			Permission: rs.technicalReviewer, Guards: []guard{guardTechnicalReviewApproved}},
		{From: st(domain.StatusTechnicalReview), To: st(domain.StatusReportDraft), Label: "Return to Report Draft",
			Permission: rs.adminOnly},
		cancel(domain.StatusTechnicalReview),

		{From: st(domain.StatusDecisionPending), To: st(domain.StatusClosed), Label: "Close Audit",
			Permission: rs.decisionMaker, Guards: []guard{guardDecisionPreconditions}},
		{From: st(domain.StatusDecisionPending), To: st(domain.StatusTechnicalReview), Label: "Return to Technical Review",
			Permission: rs.adminOnly},
		cancel(domain.StatusDecisionPending),

		{From: st(domain.StatusDecided), To: st(domain.StatusClosed), Label: "Close Audit",
			Permission: rs.adminOnly},
		cancel(domain.StatusDecided),
	}
}

// ---------------------------------------------------------------------------
// Permissions
// ---------------------------------------------------------------------------

func (rs *ruleSet) adminOnly(_ context.Context, _ *Snapshot, actor domain.User, _, _ fsm.State) bool {
	return rs.roles.IsCBAdmin(actor.ID)
}

func (rs *ruleSet) leadOrAdmin(_ context.Context, s *Snapshot, actor domain.User, _, _ fsm.State) bool {
	if rs.roles.IsCBAdmin(actor.ID) {
		return true
	}
	ok, _ := policy.IsAssignedLead(actor.ID, s.Audit)
	return ok
}

func (rs *ruleSet) technicalReviewer(_ context.Context, _ *Snapshot, actor domain.User, _, _ fsm.State) bool {
	return rs.roles.CanConductTechnicalReview(actor.ID) || rs.roles.IsCBAdmin(actor.ID)
}

// decisionMaker allows a decision-maker who satisfies the independence
// policy, or a CB admin overriding it. The orchestration layer flags the
// override in the trail and requires a justification note.
func (rs *ruleSet) decisionMaker(_ context.Context, s *Snapshot, actor domain.User, _, _ fsm.State) bool {
	if rs.roles.IsCBAdmin(actor.ID) {
		return true
	}
	if !rs.roles.IsDecisionMaker(actor.ID) {
		return false
	}
	ok, _ := policy.IsIndependentForDecision(actor.ID, s.Audit, s.TechnicalReview)
	return ok
}

// ---------------------------------------------------------------------------
// Guards
// ---------------------------------------------------------------------------

func guardReadyForScheduling(_ context.Context, s *Snapshot) (bool, string) {
	if s.Audit.LeadAuditorID == nil {
		return false, "Cannot schedule audit: Lead auditor must be assigned"
	}
	if s.Audit.StartDate == nil {
		return false, "Cannot schedule audit: Start date must be set"
	}
	return true, ""
}

func guardHasFindings(_ context.Context, s *Snapshot) (bool, string) {
	if s.FindingCount == 0 {
		return false, "Cannot move to report draft: At least one finding (NC, Observation, or OFI) is required"
	}
	return true, ""
}

// guardMajorNCsAnswered requires every major nonconformity to carry both a
// client root cause and a corrective action. One without the other is not a
// complete response.
func guardMajorNCsAnswered(_ context.Context, s *Snapshot) (bool, string) {
	for _, nc := range s.Nonconformities {
		if nc.Category != domain.CategoryMajor {
			continue
		}
		if !nc.HasClientResponse() {
			return false, fmt.Sprintf("Cannot submit audit: Major NC (Clause %s) is missing client response", nc.Clause)
		}
	}
	return true, ""
}

func guardTechnicalReviewApproved(_ context.Context, s *Snapshot) (bool, string) {
	if s.TechnicalReview == nil {
		return false, "Technical review is required before moving to decision"
	}
	if s.TechnicalReview.Status != domain.ReviewApproved {
		return false, fmt.Sprintf("Technical review status is '%s', must be 'Approved'", s.TechnicalReview.Status.Label())
	}
	return true, ""
}

// guardDecisionPreconditions enforces the certification-decision gates:
// stage 2 needs a completed stage 1, surveillance needs an active
// certification, and no major NC may still be open.
func guardDecisionPreconditions(_ context.Context, s *Snapshot) (bool, string) {
	if s.Audit.Type == domain.AuditTypeStage2 && !s.HasCompletedStage1 {
		return false, "Stage 2 audit requires a completed Stage 1 audit before closing."
	}
	if s.Audit.Type == domain.AuditTypeSurveillance && !s.hasActiveCertification() {
		return false, "Surveillance audit requires active certifications. Cannot make decision."
	}
	if open := s.openMajorNonconformities(); len(open) > 0 {
		clauses := make([]string, 0, 3)
		for _, nc := range open {
			if len(clauses) == 3 {
				break
			}
			clauses = append(clauses, nc.Clause)
		}
		return false, fmt.Sprintf(
			"Cannot make decision: %d major NC(s) still open (%s). All must be verified.",
			len(open), strings.Join(clauses, ", "),
		)
	}
	return true, ""
}

package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cedrus/internal/domain"
	"cedrus/internal/identity"
	"cedrus/pkg/platform/fsm"
)

type testUsers struct {
	admin         domain.User
	lead          domain.User
	reviewer      domain.User
	decisionMaker domain.User
	outsider      domain.User
}

func newTestRoles() (*identity.StaticRoles, testUsers) {
	users := testUsers{
		admin:         domain.User{ID: uuid.New(), Name: "Ada Admin"},
		lead:          domain.User{ID: uuid.New(), Name: "Lena Lead"},
		reviewer:      domain.User{ID: uuid.New(), Name: "Rita Reviewer"},
		decisionMaker: domain.User{ID: uuid.New(), Name: "Dan Decider"},
		outsider:      domain.User{ID: uuid.New(), Name: "Oscar Outsider"},
	}
	roles := identity.NewStaticRoles()
	roles.Grant(users.admin.ID, domain.RoleCBAdmin)
	roles.Grant(users.lead.ID, domain.RoleLeadAuditor)
	roles.Grant(users.reviewer.ID, domain.RoleTechnicalReviewer)
	roles.Grant(users.decisionMaker.ID, domain.RoleDecisionMaker)
	return roles, users
}

func auditInStatus(status domain.AuditStatus, lead *domain.User) *domain.Audit {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	audit := &domain.Audit{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Type:           domain.AuditTypeStage1,
		Status:         status,
		StartDate:      &start,
		Version:        1,
	}
	if lead != nil {
		audit.LeadAuditorID = &lead.ID
	}
	return audit
}

func TestTransitionTable_Shape(t *testing.T) {
	roles, _ := newTestRoles()
	m := NewMachine(roles)

	t.Run("terminal states have no outgoing edges", func(t *testing.T) {
		assert.Empty(t, m.ReachableFrom(fsm.State(domain.StatusClosed)))
		assert.Empty(t, m.ReachableFrom(fsm.State(domain.StatusCancelled)))
	})

	t.Run("no edge transitions into decided", func(t *testing.T) {
		for _, info := range domain.AllStatuses {
			for _, to := range m.ReachableFrom(fsm.State(info.Code)) {
				assert.NotEqual(t, fsm.State(domain.StatusDecided), to,
					"state %s must not reach decided", info.Code)
			}
		}
	})

	t.Run("every non-terminal state can be cancelled", func(t *testing.T) {
		for _, info := range domain.AllStatuses {
			if info.Code == domain.StatusClosed || info.Code == domain.StatusCancelled {
				continue
			}
			assert.Contains(t, m.ReachableFrom(fsm.State(info.Code)), fsm.State(domain.StatusCancelled),
				"state %s must be cancellable", info.Code)
		}
	})

	t.Run("unknown state has no transitions out", func(t *testing.T) {
		assert.Empty(t, m.ReachableFrom("archived"))
	})
}

func TestGuard_ReadyForScheduling(t *testing.T) {
	roles, users := newTestRoles()
	m := NewMachine(roles)
	ctx := context.Background()

	t.Run("missing lead auditor blocks even a CB admin", func(t *testing.T) {
		snap := &Snapshot{Audit: auditInStatus(domain.StatusDraft, nil)}
		ok, reason := m.CanTransition(ctx, snap, fsm.State(domain.StatusScheduled), users.admin)
		assert.False(t, ok)
		assert.Equal(t, "Cannot schedule audit: Lead auditor must be assigned", reason)
	})

	t.Run("missing start date blocks", func(t *testing.T) {
		audit := auditInStatus(domain.StatusDraft, &users.lead)
		audit.StartDate = nil
		snap := &Snapshot{Audit: audit}
		ok, reason := m.CanTransition(ctx, snap, fsm.State(domain.StatusScheduled), users.lead)
		assert.False(t, ok)
		assert.Equal(t, "Cannot schedule audit: Start date must be set", reason)
	})

	t.Run("assigned lead with dates passes", func(t *testing.T) {
		snap := &Snapshot{Audit: auditInStatus(domain.StatusDraft, &users.lead)}
		ok, reason := m.CanTransition(ctx, snap, fsm.State(domain.StatusScheduled), users.lead)
		assert.True(t, ok)
		assert.Equal(t, "Validation passed", reason)
	})

	t.Run("guard re-runs when starting a scheduled audit", func(t *testing.T) {
		audit := auditInStatus(domain.StatusScheduled, &users.lead)
		audit.LeadAuditorID = nil
		snap := &Snapshot{Audit: audit}
		ok, reason := m.CanTransition(ctx, snap, fsm.State(domain.StatusInProgress), users.admin)
		assert.False(t, ok)
		assert.Contains(t, reason, "Lead auditor must be assigned")
	})
}

func TestGuard_HasFindings(t *testing.T) {
	roles, users := newTestRoles()
	m := NewMachine(roles)
	ctx := context.Background()

	snap := &Snapshot{Audit: auditInStatus(domain.StatusInProgress, &users.lead)}
	ok, reason := m.CanTransition(ctx, snap, fsm.State(domain.StatusReportDraft), users.lead)
	assert.False(t, ok)
	assert.Equal(t, "Cannot move to report draft: At least one finding (NC, Observation, or OFI) is required", reason)

	snap.FindingCount = 1
	ok, _ = m.CanTransition(ctx, snap, fsm.State(domain.StatusReportDraft), users.lead)
	assert.True(t, ok)
}

func TestGuard_MajorNCsAnswered(t *testing.T) {
	roles, users := newTestRoles()
	m := NewMachine(roles)
	ctx := context.Background()

	majorNC := func(clause, rootCause, correctiveAction string) domain.Finding {
		return domain.Finding{
			ID:                     uuid.New(),
			Type:                   domain.FindingNonconformity,
			Category:               domain.CategoryMajor,
			Clause:                 clause,
			Verification:           domain.VerificationOpen,
			ClientRootCause:        rootCause,
			ClientCorrectiveAction: correctiveAction,
		}
	}

	t.Run("missing root cause blocks submission", func(t *testing.T) {
		snap := &Snapshot{
			Audit:           auditInStatus(domain.StatusClientReview, &users.lead),
			Nonconformities: []domain.Finding{majorNC("8.2", "", "retrain staff")},
		}
		ok, reason := m.CanTransition(ctx, snap, fsm.State(domain.StatusSubmitted), users.lead)
		assert.False(t, ok)
		assert.Equal(t, "Cannot submit audit: Major NC (Clause 8.2) is missing client response", reason)
	})

	t.Run("root cause alone is not a complete response", func(t *testing.T) {
		snap := &Snapshot{
			Audit:           auditInStatus(domain.StatusClientReview, &users.lead),
			Nonconformities: []domain.Finding{majorNC("7.1", "process gap", "")},
		}
		ok, reason := m.CanTransition(ctx, snap, fsm.State(domain.StatusSubmitted), users.lead)
		assert.False(t, ok)
		assert.Contains(t, reason, "missing client response")
	})

	t.Run("minor NCs do not require responses", func(t *testing.T) {
		minor := majorNC("6.1", "", "")
		minor.Category = domain.CategoryMinor
		snap := &Snapshot{
			Audit:           auditInStatus(domain.StatusClientReview, &users.lead),
			Nonconformities: []domain.Finding{minor},
		}
		ok, _ := m.CanTransition(ctx, snap, fsm.State(domain.StatusSubmitted), users.lead)
		assert.True(t, ok)
	})

	t.Run("complete responses pass", func(t *testing.T) {
		snap := &Snapshot{
			Audit:           auditInStatus(domain.StatusClientReview, &users.lead),
			Nonconformities: []domain.Finding{majorNC("8.2", "process gap", "retrain staff")},
		}
		ok, _ := m.CanTransition(ctx, snap, fsm.State(domain.StatusSubmitted), users.lead)
		assert.True(t, ok)
	})
}

func TestGuard_TechnicalReviewApproved(t *testing.T) {
	roles, users := newTestRoles()
	m := NewMachine(roles)
	ctx := context.Background()

	audit := auditInStatus(domain.StatusTechnicalReview, &users.lead)

	t.Run("missing review blocks", func(t *testing.T) {
		snap := &Snapshot{Audit: audit}
		ok, reason := m.CanTransition(ctx, snap, fsm.State(domain.StatusDecisionPending), users.reviewer)
		assert.False(t, ok)
		assert.Contains(t, reason, "Technical review is required")
	})

	t.Run("unapproved review blocks with its label", func(t *testing.T) {
		snap := &Snapshot{
			Audit:           audit,
			TechnicalReview: &domain.TechnicalReview{Status: domain.ReviewRequiresClarification},
		}
		ok, reason := m.CanTransition(ctx, snap, fsm.State(domain.StatusDecisionPending), users.reviewer)
		assert.False(t, ok)
		assert.Equal(t, "Technical review status is 'Requires Clarification', must be 'Approved'", reason)
	})

	t.Run("approved review passes", func(t *testing.T) {
		snap := &Snapshot{
			Audit:           audit,
			TechnicalReview: &domain.TechnicalReview{Status: domain.ReviewApproved},
		}
		ok, _ := m.CanTransition(ctx, snap, fsm.State(domain.StatusDecisionPending), users.reviewer)
		assert.True(t, ok)
	})
}

func TestGuard_DecisionPreconditions(t *testing.T) {
	roles, users := newTestRoles()
	m := NewMachine(roles)
	ctx := context.Background()

	base := func(auditType domain.AuditType) *Snapshot {
		audit := auditInStatus(domain.StatusDecisionPending, &users.lead)
		audit.Type = auditType
		return &Snapshot{Audit: audit}
	}

	t.Run("stage2 requires a completed stage1", func(t *testing.T) {
		snap := base(domain.AuditTypeStage2)
		ok, reason := m.CanTransition(ctx, snap, fsm.State(domain.StatusClosed), users.decisionMaker)
		assert.False(t, ok)
		assert.Equal(t, "Stage 2 audit requires a completed Stage 1 audit before closing.", reason)

		snap.HasCompletedStage1 = true
		ok, _ = m.CanTransition(ctx, snap, fsm.State(domain.StatusClosed), users.decisionMaker)
		assert.True(t, ok)
	})

	t.Run("surveillance requires an active certification", func(t *testing.T) {
		snap := base(domain.AuditTypeSurveillance)
		snap.Certifications = []domain.Certification{{CertificateStatus: domain.CertificateSuspended}}
		ok, reason := m.CanTransition(ctx, snap, fsm.State(domain.StatusClosed), users.decisionMaker)
		assert.False(t, ok)
		assert.Equal(t, "Surveillance audit requires active certifications. Cannot make decision.", reason)

		snap.Certifications = append(snap.Certifications, domain.Certification{CertificateStatus: domain.CertificateActive})
		ok, _ = m.CanTransition(ctx, snap, fsm.State(domain.StatusClosed), users.decisionMaker)
		assert.True(t, ok)
	})

	t.Run("open major NCs block with clause list capped at three", func(t *testing.T) {
		snap := base(domain.AuditTypeStage1)
		for _, clause := range []string{"4.1", "6.2", "7.5", "9.1"} {
			snap.Nonconformities = append(snap.Nonconformities, domain.Finding{
				Type:         domain.FindingNonconformity,
				Category:     domain.CategoryMajor,
				Clause:       clause,
				Verification: domain.VerificationOpen,
			})
		}
		ok, reason := m.CanTransition(ctx, snap, fsm.State(domain.StatusClosed), users.decisionMaker)
		assert.False(t, ok)
		assert.Equal(t, "Cannot make decision: 4 major NC(s) still open (4.1, 6.2, 7.5). All must be verified.", reason)
	})

	t.Run("single open major NC names its clause", func(t *testing.T) {
		snap := base(domain.AuditTypeStage1)
		snap.Nonconformities = []domain.Finding{{
			Type:         domain.FindingNonconformity,
			Category:     domain.CategoryMajor,
			Clause:       "8.5",
			Verification: domain.VerificationOpen,
		}}
		ok, reason := m.CanTransition(ctx, snap, fsm.State(domain.StatusClosed), users.decisionMaker)
		assert.False(t, ok)
		assert.Contains(t, reason, "major NC(s) still open")
		assert.Contains(t, reason, "8.5")
	})

	t.Run("verified major NCs do not block", func(t *testing.T) {
		snap := base(domain.AuditTypeStage1)
		snap.Nonconformities = []domain.Finding{{
			Type:         domain.FindingNonconformity,
			Category:     domain.CategoryMajor,
			Clause:       "8.5",
			Verification: domain.VerificationClosed,
		}}
		ok, _ := m.CanTransition(ctx, snap, fsm.State(domain.StatusClosed), users.decisionMaker)
		assert.True(t, ok)
	})
}

func TestPermissions_Matrix(t *testing.T) {
	roles, users := newTestRoles()
	m := NewMachine(roles)
	ctx := context.Background()
	denied := "You do not have permission to perform this transition"

	t.Run("only a CB admin may cancel", func(t *testing.T) {
		snap := &Snapshot{Audit: auditInStatus(domain.StatusDraft, &users.lead)}

		ok, reason := m.CanTransition(ctx, snap, fsm.State(domain.StatusCancelled), users.lead)
		assert.False(t, ok)
		assert.Equal(t, denied, reason)

		ok, _ = m.CanTransition(ctx, snap, fsm.State(domain.StatusCancelled), users.admin)
		assert.True(t, ok)
	})

	t.Run("only the assigned lead or an admin may schedule", func(t *testing.T) {
		snap := &Snapshot{Audit: auditInStatus(domain.StatusDraft, &users.lead)}

		ok, _ := m.CanTransition(ctx, snap, fsm.State(domain.StatusScheduled), users.outsider)
		assert.False(t, ok)

		// Another lead auditor not assigned to this audit is refused too.
		other := domain.User{ID: uuid.New()}
		roles.Grant(other.ID, domain.RoleLeadAuditor)
		ok, _ = m.CanTransition(ctx, snap, fsm.State(domain.StatusScheduled), other)
		assert.False(t, ok)

		ok, _ = m.CanTransition(ctx, snap, fsm.State(domain.StatusScheduled), users.lead)
		assert.True(t, ok)
		ok, _ = m.CanTransition(ctx, snap, fsm.State(domain.StatusScheduled), users.admin)
		assert.True(t, ok)
	})

	t.Run("sending to technical review needs a reviewer", func(t *testing.T) {
		snap := &Snapshot{Audit: auditInStatus(domain.StatusSubmitted, &users.lead)}

		ok, reason := m.CanTransition(ctx, snap, fsm.State(domain.StatusTechnicalReview), users.lead)
		assert.False(t, ok)
		assert.Equal(t, denied, reason)

		ok, _ = m.CanTransition(ctx, snap, fsm.State(domain.StatusTechnicalReview), users.reviewer)
		assert.True(t, ok)
	})

	t.Run("returning from technical review is admin only", func(t *testing.T) {
		snap := &Snapshot{Audit: auditInStatus(domain.StatusTechnicalReview, &users.lead)}

		ok, _ := m.CanTransition(ctx, snap, fsm.State(domain.StatusReportDraft), users.lead)
		assert.False(t, ok)
		ok, _ = m.CanTransition(ctx, snap, fsm.State(domain.StatusReportDraft), users.reviewer)
		assert.False(t, ok)
		ok, _ = m.CanTransition(ctx, snap, fsm.State(domain.StatusReportDraft), users.admin)
		assert.True(t, ok)
	})

	t.Run("closing a decision requires independence", func(t *testing.T) {
		audit := auditInStatus(domain.StatusDecisionPending, &users.lead)
		snap := &Snapshot{Audit: audit}

		// An independent decision-maker may close.
		ok, _ := m.CanTransition(ctx, snap, fsm.State(domain.StatusClosed), users.decisionMaker)
		assert.True(t, ok)

		// A decision-maker who led the audit may not.
		involved := domain.User{ID: uuid.New()}
		roles.Grant(involved.ID, domain.RoleDecisionMaker)
		audit.LeadAuditorID = &involved.ID
		ok, reason := m.CanTransition(ctx, snap, fsm.State(domain.StatusClosed), involved)
		assert.False(t, ok)
		assert.Equal(t, denied, reason)

		// Nor one who reviewed it.
		audit.LeadAuditorID = &users.lead.ID
		snap.TechnicalReview = &domain.TechnicalReview{Status: domain.ReviewApproved, ReviewerID: involved.ID}
		ok, _ = m.CanTransition(ctx, snap, fsm.State(domain.StatusClosed), involved)
		assert.False(t, ok)

		// A CB admin overrides the independence check.
		ok, _ = m.CanTransition(ctx, snap, fsm.State(domain.StatusClosed), users.admin)
		assert.True(t, ok)
	})

	t.Run("legacy decided audits are closed by admins", func(t *testing.T) {
		snap := &Snapshot{Audit: auditInStatus(domain.StatusDecided, &users.lead)}

		ok, _ := m.CanTransition(ctx, snap, fsm.State(domain.StatusClosed), users.decisionMaker)
		assert.False(t, ok)
		ok, _ = m.CanTransition(ctx, snap, fsm.State(domain.StatusClosed), users.admin)
		assert.True(t, ok)
	})
}

func TestMachine_TransitionMutatesSnapshotOnly(t *testing.T) {
	roles, users := newTestRoles()
	m := NewMachine(roles)

	snap := &Snapshot{Audit: auditInStatus(domain.StatusDraft, &users.lead)}
	err := m.Transition(context.Background(), snap, fsm.State(domain.StatusScheduled), users.lead)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, snap.Audit.Status)
}

package domain

import "github.com/google/uuid"

// Role names a certification-body responsibility. Role assignment lives in
// the identity subsystem; the workflow engine only consults predicates.
type Role string

const (
	RoleCBAdmin           Role = "cb_admin"
	RoleLeadAuditor       Role = "lead_auditor"
	RoleAuditor           Role = "auditor"
	RoleTechnicalReviewer Role = "technical_reviewer"
	RoleDecisionMaker     Role = "decision_maker"
)

// User is the acting party in a transition. Only identity and display name
// travel with it; role membership is resolved through identity.RoleProvider.
type User struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// Package identity exposes role membership as an injected capability so the
// workflow's permission layer can be tested with fakes instead of a real
// identity subsystem.
package identity

import (
	"sync"

	"github.com/google/uuid"

	"cedrus/internal/domain"
)

// RoleProvider answers the role predicates the workflow permission matrix
// depends on. Implementations must be pure reads: no predicate may mutate
// role state.
type RoleProvider interface {
	IsCBAdmin(userID uuid.UUID) bool
	IsLeadAuditor(userID uuid.UUID) bool
	IsAuditor(userID uuid.UUID) bool
	CanConductTechnicalReview(userID uuid.UUID) bool
	IsDecisionMaker(userID uuid.UUID) bool
}

// StaticRoles is a map-backed RoleProvider. The server seeds it from
// configuration; tests assemble it inline.
type StaticRoles struct {
	mu    sync.RWMutex
	roles map[uuid.UUID]map[domain.Role]struct{}
}

func NewStaticRoles() *StaticRoles {
	return &StaticRoles{roles: make(map[uuid.UUID]map[domain.Role]struct{})}
}

// Grant assigns a role to a user.
func (s *StaticRoles) Grant(userID uuid.UUID, role domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roles[userID] == nil {
		s.roles[userID] = make(map[domain.Role]struct{})
	}
	s.roles[userID][role] = struct{}{}
}

func (s *StaticRoles) has(userID uuid.UUID, role domain.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.roles[userID][role]
	return ok
}

func (s *StaticRoles) IsCBAdmin(userID uuid.UUID) bool {
	return s.has(userID, domain.RoleCBAdmin)
}

func (s *StaticRoles) IsLeadAuditor(userID uuid.UUID) bool {
	return s.has(userID, domain.RoleLeadAuditor)
}

func (s *StaticRoles) IsAuditor(userID uuid.UUID) bool {
	return s.has(userID, domain.RoleAuditor)
}

func (s *StaticRoles) CanConductTechnicalReview(userID uuid.UUID) bool {
	return s.has(userID, domain.RoleTechnicalReviewer) || s.has(userID, domain.RoleCBAdmin)
}

func (s *StaticRoles) IsDecisionMaker(userID uuid.UUID) bool {
	return s.has(userID, domain.RoleDecisionMaker)
}

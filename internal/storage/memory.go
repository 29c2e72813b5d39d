package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"cedrus/internal/domain"
	"cedrus/pkg/platform/sentinel"
)

// In-memory stores keep the development server and tests lightweight. They
// intentionally favor clarity over performance.

type InMemoryAuditStore struct {
	mu     sync.RWMutex
	audits map[uuid.UUID]domain.Audit
}

func NewInMemoryAuditStore() *InMemoryAuditStore {
	return &InMemoryAuditStore{audits: make(map[uuid.UUID]domain.Audit)}
}

func (s *InMemoryAuditStore) Save(_ context.Context, audit *domain.Audit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits[audit.ID] = *audit
	return nil
}

func (s *InMemoryAuditStore) FindByID(_ context.Context, id uuid.UUID) (*domain.Audit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if audit, ok := s.audits[id]; ok {
		copied := audit
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryAuditStore) UpdateStatus(_ context.Context, id uuid.UUID, to domain.AuditStatus, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	audit, ok := s.audits[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if audit.Version != expectedVersion {
		return sentinel.ErrConflict
	}
	audit.Status = to
	audit.Version++
	audit.UpdatedAt = time.Now()
	s.audits[id] = audit
	return nil
}

func (s *InMemoryAuditStore) ExistsCompletedStage1(_ context.Context, organizationID, excludeAuditID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, audit := range s.audits {
		if audit.ID == excludeAuditID {
			continue
		}
		if audit.OrganizationID != organizationID || audit.Type != domain.AuditTypeStage1 {
			continue
		}
		if audit.Status == domain.StatusClosed || audit.Status == domain.StatusDecided {
			return true, nil
		}
	}
	return false, nil
}

type InMemoryFindingStore struct {
	mu       sync.RWMutex
	findings map[uuid.UUID][]domain.Finding
}

func NewInMemoryFindingStore() *InMemoryFindingStore {
	return &InMemoryFindingStore{findings: make(map[uuid.UUID][]domain.Finding)}
}

func (s *InMemoryFindingStore) Save(_ context.Context, finding *domain.Finding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.findings[finding.AuditID]
	for i := range list {
		if list[i].ID == finding.ID {
			list[i] = *finding
			return nil
		}
	}
	s.findings[finding.AuditID] = append(list, *finding)
	return nil
}

func (s *InMemoryFindingStore) CountByAudit(_ context.Context, auditID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.findings[auditID]), nil
}

func (s *InMemoryFindingStore) ListNonconformities(_ context.Context, auditID uuid.UUID) ([]domain.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ncs []domain.Finding
	for _, f := range s.findings[auditID] {
		if f.Type == domain.FindingNonconformity {
			ncs = append(ncs, f)
		}
	}
	return ncs, nil
}

type InMemoryTechnicalReviewStore struct {
	mu      sync.RWMutex
	reviews map[uuid.UUID]domain.TechnicalReview // keyed by audit ID, one per audit
}

func NewInMemoryTechnicalReviewStore() *InMemoryTechnicalReviewStore {
	return &InMemoryTechnicalReviewStore{reviews: make(map[uuid.UUID]domain.TechnicalReview)}
}

func (s *InMemoryTechnicalReviewStore) Save(_ context.Context, review *domain.TechnicalReview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[review.AuditID] = *review
	return nil
}

func (s *InMemoryTechnicalReviewStore) FindByAudit(_ context.Context, auditID uuid.UUID) (*domain.TechnicalReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if review, ok := s.reviews[auditID]; ok {
		copied := review
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

type InMemoryCertificationStore struct {
	mu             sync.RWMutex
	certifications map[uuid.UUID][]domain.Certification
}

func NewInMemoryCertificationStore() *InMemoryCertificationStore {
	return &InMemoryCertificationStore{certifications: make(map[uuid.UUID][]domain.Certification)}
}

func (s *InMemoryCertificationStore) Save(_ context.Context, certification *domain.Certification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certifications[certification.AuditID] = append(s.certifications[certification.AuditID], *certification)
	return nil
}

func (s *InMemoryCertificationStore) ListByAudit(_ context.Context, auditID uuid.UUID) ([]domain.Certification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Certification(nil), s.certifications[auditID]...), nil
}

type InMemoryStatusLogStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]domain.StatusLogEntry
}

func NewInMemoryStatusLogStore() *InMemoryStatusLogStore {
	return &InMemoryStatusLogStore{entries: make(map[uuid.UUID][]domain.StatusLogEntry)}
}

// Append only ever grows the log. There is deliberately no update or delete.
func (s *InMemoryStatusLogStore) Append(_ context.Context, entry domain.StatusLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.AuditID] = append(s.entries[entry.AuditID], entry)
	return nil
}

func (s *InMemoryStatusLogStore) ListByAudit(_ context.Context, auditID uuid.UUID) ([]domain.StatusLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.StatusLogEntry(nil), s.entries[auditID]...), nil
}

func (s *InMemoryStatusLogStore) CountByAudit(_ context.Context, auditID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries[auditID]), nil
}

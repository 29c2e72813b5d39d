package workflow

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"cedrus/internal/domain"
	"cedrus/pkg/platform/sentinel"
)

const evidenceTimeout = 3 * time.Second

// snapshot gathers the guard evidence relevant to the audit's current state
// with shared context cancellation. Only the queries the reachable edges can
// actually consult are issued.
func (s *Service) snapshot(ctx context.Context, audit *domain.Audit) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, evidenceTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	snap := &Snapshot{Audit: audit}

	switch audit.Status {
	case domain.StatusInProgress:
		s.gatherFindingCount(ctx, g, snap)

	case domain.StatusClientReview, domain.StatusSubmitted:
		s.gatherNonconformities(ctx, g, snap)

	case domain.StatusTechnicalReview:
		s.gatherTechnicalReview(ctx, g, snap)

	case domain.StatusDecisionPending:
		s.gatherNonconformities(ctx, g, snap)
		s.gatherTechnicalReview(ctx, g, snap)
		if audit.Type == domain.AuditTypeSurveillance {
			s.gatherCertifications(ctx, g, snap)
		}
		if audit.Type == domain.AuditTypeStage2 {
			s.gatherStage1Completion(ctx, g, snap)
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Service) gatherFindingCount(ctx context.Context, g *errgroup.Group, snap *Snapshot) {
	g.Go(func() error {
		count, err := s.findings.CountByAudit(ctx, snap.Audit.ID)
		if err != nil {
			return err
		}
		snap.FindingCount = count
		return nil
	})
}

func (s *Service) gatherNonconformities(ctx context.Context, g *errgroup.Group, snap *Snapshot) {
	g.Go(func() error {
		ncs, err := s.findings.ListNonconformities(ctx, snap.Audit.ID)
		if err != nil {
			return err
		}
		snap.Nonconformities = ncs
		return nil
	})
}

func (s *Service) gatherTechnicalReview(ctx context.Context, g *errgroup.Group, snap *Snapshot) {
	g.Go(func() error {
		review, err := s.reviews.FindByAudit(ctx, snap.Audit.ID)
		// A missing review is evidence, not an error: the guard reports it.
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		snap.TechnicalReview = review
		return nil
	})
}

func (s *Service) gatherCertifications(ctx context.Context, g *errgroup.Group, snap *Snapshot) {
	g.Go(func() error {
		certifications, err := s.certifications.ListByAudit(ctx, snap.Audit.ID)
		if err != nil {
			return err
		}
		snap.Certifications = certifications
		return nil
	})
}

func (s *Service) gatherStage1Completion(ctx context.Context, g *errgroup.Group, snap *Snapshot) {
	g.Go(func() error {
		exists, err := s.audits.ExistsCompletedStage1(ctx, snap.Audit.OrganizationID, snap.Audit.ID)
		if err != nil {
			return err
		}
		snap.HasCompletedStage1 = exists
		return nil
	})
}

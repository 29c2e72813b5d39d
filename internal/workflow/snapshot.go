package workflow

import (
	"cedrus/internal/domain"
	"cedrus/pkg/platform/fsm"
)

// Snapshot bundles the audit with the evidence its guards read: findings,
// the technical review (nil when none exists), certifications, and whether a
// completed stage 1 audit exists for the organization. Guards are pure
// functions over this value; they perform no I/O.
type Snapshot struct {
	Audit              *domain.Audit
	FindingCount       int
	Nonconformities    []domain.Finding
	TechnicalReview    *domain.TechnicalReview
	Certifications     []domain.Certification
	HasCompletedStage1 bool
}

// State exposes the audit's status to the generic engine.
func (s *Snapshot) State() fsm.State {
	return fsm.State(s.Audit.Status)
}

// openMajorNonconformities returns major NCs still in open verification.
func (s *Snapshot) openMajorNonconformities() []domain.Finding {
	var open []domain.Finding
	for _, nc := range s.Nonconformities {
		if nc.Category == domain.CategoryMajor && nc.Verification == domain.VerificationOpen {
			open = append(open, nc)
		}
	}
	return open
}

// hasActiveCertification reports whether any linked certificate is active.
func (s *Snapshot) hasActiveCertification() bool {
	for _, c := range s.Certifications {
		if c.CertificateStatus == domain.CertificateActive {
			return true
		}
	}
	return false
}

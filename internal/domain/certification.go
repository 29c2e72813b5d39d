package domain

import (
	"time"

	"github.com/google/uuid"
)

// CertificateStatus tracks the lifecycle of an issued certificate.
type CertificateStatus string

const (
	CertificateActive    CertificateStatus = "active"
	CertificateSuspended CertificateStatus = "suspended"
	CertificateWithdrawn CertificateStatus = "withdrawn"
	CertificateExpired   CertificateStatus = "expired"
)

// Certification links an audit to a certificate. Surveillance decisions
// require at least one active certification on the audit.
type Certification struct {
	ID                uuid.UUID
	AuditID           uuid.UUID
	Standard          string
	CertificateStatus CertificateStatus
	IssuedAt          *time.Time
	ExpiresAt         *time.Time
}

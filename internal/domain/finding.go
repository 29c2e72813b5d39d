package domain

import (
	"time"

	"github.com/google/uuid"
)

// FindingType distinguishes the three kinds of audit findings.
type FindingType string

const (
	FindingNonconformity FindingType = "nonconformity"
	FindingObservation   FindingType = "observation"
	// FindingOFI is an Opportunity for Improvement, an informational finding.
	FindingOFI FindingType = "ofi"
)

// FindingCategory grades a nonconformity's severity.
type FindingCategory string

const (
	CategoryMajor FindingCategory = "major"
	CategoryMinor FindingCategory = "minor"
)

// VerificationStatus tracks a nonconformity through client response and
// closure.
type VerificationStatus string

const (
	VerificationOpen            VerificationStatus = "open"
	VerificationClientResponded VerificationStatus = "client_responded"
	VerificationAccepted        VerificationStatus = "accepted"
	VerificationClosed          VerificationStatus = "closed"
)

// Finding is guard input only: the workflow engine reads findings but never
// creates, mutates, or deletes them.
type Finding struct {
	ID          uuid.UUID
	AuditID     uuid.UUID
	Type        FindingType
	Category    FindingCategory
	Clause      string
	Description string
	// Verification and the client response fields are meaningful only for
	// nonconformities.
	Verification           VerificationStatus
	ClientRootCause        string
	ClientCorrectiveAction string
	CreatedAt              time.Time
}

// HasClientResponse reports whether the client supplied both a root cause and
// a corrective action. Either one alone is not a complete response.
func (f *Finding) HasClientResponse() bool {
	return f.ClientRootCause != "" && f.ClientCorrectiveAction != ""
}

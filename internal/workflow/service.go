package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cedrus/internal/domain"
	"cedrus/internal/events"
	"cedrus/internal/identity"
	"cedrus/internal/locker"
	"cedrus/internal/policy"
	wfmetrics "cedrus/internal/workflow/metrics"
	dErrors "cedrus/pkg/domain-errors"
	"cedrus/pkg/platform/fsm"
	"cedrus/pkg/platform/sentinel"
	"cedrus/pkg/platform/tx"
	"cedrus/pkg/requestcontext"
)

var tracer = otel.Tracer("cedrus/workflow")

// Store ports are defined on the consumer side so implementations can be
// swapped without touching the service.

type AuditStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Audit, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to domain.AuditStatus, expectedVersion int64) error
	ExistsCompletedStage1(ctx context.Context, organizationID, excludeAuditID uuid.UUID) (bool, error)
}

type FindingReader interface {
	CountByAudit(ctx context.Context, auditID uuid.UUID) (int, error)
	ListNonconformities(ctx context.Context, auditID uuid.UUID) ([]domain.Finding, error)
}

type ReviewReader interface {
	FindByAudit(ctx context.Context, auditID uuid.UUID) (*domain.TechnicalReview, error)
}

type CertificationReader interface {
	ListByAudit(ctx context.Context, auditID uuid.UUID) ([]domain.Certification, error)
}

type TrailRecorder interface {
	Record(ctx context.Context, entry domain.StatusLogEntry) error
}

type EventEmitter interface {
	Emit(ctx context.Context, event events.Event) error
}

// Target is one transition the caller may offer in a menu.
type Target struct {
	Code  domain.AuditStatus `json:"code"`
	Label string             `json:"label"`
}

// Service is the single entry point for audit status changes. It wraps the
// state machine with evidence gathering, transactional persistence, the
// audit trail, and event emission.
type Service struct {
	machine        *fsm.Machine[*Snapshot, domain.User]
	roles          identity.RoleProvider
	audits         AuditStore
	findings       FindingReader
	reviews        ReviewReader
	certifications CertificationReader
	trail          TrailRecorder

	runner  tx.Runner
	locks   locker.Locker
	emitter EventEmitter
	logger  *slog.Logger
	metrics *wfmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *wfmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithEmitter(emitter EventEmitter) Option {
	return func(s *Service) { s.emitter = emitter }
}

func WithRunner(runner tx.Runner) Option {
	return func(s *Service) { s.runner = runner }
}

func WithLocker(locks locker.Locker) Option {
	return func(s *Service) { s.locks = locks }
}

func NewService(
	roles identity.RoleProvider,
	audits AuditStore,
	findings FindingReader,
	reviews ReviewReader,
	certifications CertificationReader,
	trail TrailRecorder,
	opts ...Option,
) *Service {
	s := &Service{
		machine:        NewMachine(roles),
		roles:          roles,
		audits:         audits,
		findings:       findings,
		reviews:        reviews,
		certifications: certifications,
		trail:          trail,
		runner:         tx.NopRunner{},
		locks:          locker.NopLocker{},
		logger:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transition moves the audit to newStatus as actor, appending exactly one
// trail entry atomically with the status write and emitting an
// audit_status_changed event after commit. Refusals come back as coded
// domain errors carrying the exact rule message.
func (s *Service) Transition(ctx context.Context, auditID uuid.UUID, newStatus domain.AuditStatus, actor domain.User, notes string) (*domain.Audit, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "workflow.Transition", trace.WithAttributes(
		attribute.String("audit.id", auditID.String()),
		attribute.String("audit.to_status", string(newStatus)),
	))
	defer span.End()

	if err := policy.ValidateStatus(newStatus); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "unknown target status")
	}

	release, err := s.locks.Acquire(ctx, auditID)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementConflict()
			return nil, dErrors.New(dErrors.CodeConflict, "Another transition for this audit is in progress")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire transition lock")
	}
	defer release()

	audit, err := s.audits.FindByID(ctx, auditID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "audit not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit")
	}
	from := audit.Status
	span.SetAttributes(attribute.String("audit.from_status", string(from)))

	snap, err := s.snapshot(ctx, audit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to gather transition evidence")
	}

	decision := s.machine.Evaluate(ctx, snap, fsm.State(newStatus), actor)
	if !decision.Allowed {
		s.metrics.IncrementDenial(string(from), string(newStatus), denialKind(decision.Denial))
		return nil, denialError(decision)
	}

	overridden := s.independenceOverridden(snap, actor, newStatus)
	if overridden && notes == "" {
		s.metrics.IncrementDenial(string(from), string(newStatus), "guard")
		return nil, dErrors.New(dErrors.CodeGuardViolation,
			"Closing this audit overrides decision independence and requires a justification note")
	}

	entry := domain.StatusLogEntry{
		AuditID:                audit.ID,
		FromStatus:             from,
		ToStatus:               newStatus,
		ActorID:                actor.ID,
		Notes:                  notes,
		IndependenceOverridden: overridden,
		CreatedAt:              requestcontext.Now(ctx),
	}

	// Status write and trail append share one atomic unit. The version check
	// makes a lost race fail with a conflict instead of double-logging.
	err = s.runner.Within(ctx, func(ctx context.Context) error {
		if err := s.audits.UpdateStatus(ctx, audit.ID, newStatus, audit.Version); err != nil {
			return err
		}
		return s.trail.Record(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementConflict()
			return nil, dErrors.New(dErrors.CodeConflict, "The audit was modified by a concurrent transition, please retry")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist transition")
	}

	audit.Status = newStatus
	audit.Version++

	s.emit(ctx, events.Event{
		Action:                 events.ActionAuditStatusChanged,
		AuditID:                audit.ID,
		From:                   from,
		To:                     newStatus,
		ActorID:                actor.ID,
		Notes:                  notes,
		IndependenceOverridden: overridden,
	})

	s.metrics.IncrementTransition(string(from), string(newStatus))
	s.metrics.ObserveTransitionLatency(time.Since(start))
	s.logger.InfoContext(ctx, "audit transitioned",
		"audit_id", audit.ID,
		"from_status", from,
		"to_status", newStatus,
		"actor_id", actor.ID,
		"independence_overridden", overridden,
	)
	return audit, nil
}

// CanTransition probes whether the actor could move the audit to newStatus
// right now. Rule failures are data: the method only errors when evidence
// cannot be loaded.
func (s *Service) CanTransition(ctx context.Context, audit *domain.Audit, newStatus domain.AuditStatus, actor domain.User) (bool, string, error) {
	snap, err := s.snapshot(ctx, audit)
	if err != nil {
		return false, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to gather transition evidence")
	}
	ok, reason := s.machine.CanTransition(ctx, snap, fsm.State(newStatus), actor)
	return ok, reason, nil
}

// AvailableTransitions lists what the actor may legally do right now, in
// table order. It never fails: if evidence cannot be loaded, nothing is
// offered.
func (s *Service) AvailableTransitions(ctx context.Context, audit *domain.Audit, actor domain.User) []Target {
	snap, err := s.snapshot(ctx, audit)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to gather evidence for transition menu",
			"audit_id", audit.ID,
			"error", err,
		)
		return nil
	}

	reachable := s.machine.AvailableTransitions(ctx, snap, actor)
	targets := make([]Target, 0, len(reachable))
	for _, t := range reachable {
		targets = append(targets, Target{Code: domain.AuditStatus(t.State), Label: t.Label})
	}
	return targets
}

// Statuses returns the static status catalogue for UI pickers.
func (s *Service) Statuses() []domain.StatusInfo {
	return domain.AllStatuses
}

// independenceOverridden reports whether this transition is a CB admin
// closing a certification decision despite failing the independence policy.
func (s *Service) independenceOverridden(snap *Snapshot, actor domain.User, to domain.AuditStatus) bool {
	if snap.Audit.Status != domain.StatusDecisionPending || to != domain.StatusClosed {
		return false
	}
	if !s.roles.IsCBAdmin(actor.ID) {
		return false
	}
	independent, _ := policy.IsIndependentForDecision(actor.ID, snap.Audit, snap.TechnicalReview)
	return !independent
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		// Event delivery is best-effort; the transition already committed.
		s.logger.ErrorContext(ctx, "failed to emit status change event",
			"audit_id", event.AuditID,
			"error", err,
		)
	}
}

func denialError(d fsm.Decision) error {
	switch d.Denial {
	case fsm.DenialInvalidEdge:
		return dErrors.New(dErrors.CodeInvalidTransition, d.Reason)
	case fsm.DenialPermission:
		return dErrors.New(dErrors.CodePermissionDenied, d.Reason)
	default:
		return dErrors.New(dErrors.CodeGuardViolation, d.Reason)
	}
}

func denialKind(d fsm.Denial) string {
	switch d {
	case fsm.DenialInvalidEdge:
		return "invalid_edge"
	case fsm.DenialPermission:
		return "permission"
	default:
		return "guard"
	}
}

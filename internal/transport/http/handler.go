// Package httptransport is the thin HTTP layer over the workflow service. It
// delegates to domain services without embedding business logic so transport
// concerns remain isolated.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"cedrus/internal/domain"
	"cedrus/internal/platform/middleware"
	"cedrus/internal/workflow"
	dErrors "cedrus/pkg/domain-errors"
	"cedrus/pkg/platform/httputil"
	"cedrus/pkg/requestcontext"
)

// WorkflowService defines the workflow operations the API exposes.
type WorkflowService interface {
	Transition(ctx context.Context, auditID uuid.UUID, newStatus domain.AuditStatus, actor domain.User, notes string) (*domain.Audit, error)
	AvailableTransitions(ctx context.Context, audit *domain.Audit, actor domain.User) []workflow.Target
	Statuses() []domain.StatusInfo
}

// AuditReader loads audits for read endpoints.
type AuditReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Audit, error)
}

// TrailReader lists the status-change history of one audit.
type TrailReader interface {
	ListByAudit(ctx context.Context, auditID uuid.UUID) ([]domain.StatusLogEntry, error)
}

// Handler handles the audit workflow endpoints.
type Handler struct {
	logger    *slog.Logger
	wf        WorkflowService
	audits    AuditReader
	trail     TrailReader
	validator middleware.TokenValidator
}

func New(
	wf WorkflowService,
	audits AuditReader,
	trail TrailReader,
	validator middleware.TokenValidator,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		logger:    logger,
		wf:        wf,
		audits:    audits,
		trail:     trail,
		validator: validator,
	}
}

// Register mounts the workflow routes on the router. All routes require
// authentication.
func (h *Handler) Register(r chi.Router) {
	wfRouter := chi.NewRouter()
	wfRouter.Use(middleware.Timeout(30 * time.Second))
	wfRouter.Use(middleware.RequireAuth(h.validator, h.logger))
	wfRouter.Get("/audit-statuses", h.handleListStatuses)
	wfRouter.Post("/audits/{auditID}/transitions", h.handleTransition)
	wfRouter.Get("/audits/{auditID}/transitions", h.handleAvailableTransitions)
	wfRouter.Get("/audits/{auditID}/status-log", h.handleStatusLog)

	r.Mount("/", wfRouter)
}

type transitionRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

type auditResponse struct {
	ID             uuid.UUID          `json:"id"`
	OrganizationID uuid.UUID          `json:"organization_id"`
	Type           domain.AuditType   `json:"audit_type"`
	Status         domain.AuditStatus `json:"status"`
	StatusLabel    string             `json:"status_label"`
	Version        int64              `json:"version"`
}

type statusLogEntryResponse struct {
	ID                     uuid.UUID          `json:"id"`
	FromStatus             domain.AuditStatus `json:"from_status"`
	ToStatus               domain.AuditStatus `json:"to_status"`
	ActorID                uuid.UUID          `json:"actor_id"`
	Notes                  string             `json:"notes,omitempty"`
	IndependenceOverridden bool               `json:"independence_overridden,omitempty"`
	CreatedAt              time.Time          `json:"created_at"`
}

func toAuditResponse(a *domain.Audit) auditResponse {
	return auditResponse{
		ID:             a.ID,
		OrganizationID: a.OrganizationID,
		Type:           a.Type,
		Status:         a.Status,
		StatusLabel:    a.Status.Label(),
		Version:        a.Version,
	}
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	auditID, ok := h.auditIDFromURL(w, r)
	if !ok {
		return
	}
	actor := middleware.Actor(ctx)

	req, ok := httputil.DecodeAndPrepare[transitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.Status == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "status is required"))
		return
	}

	audit, err := h.wf.Transition(ctx, auditID, domain.AuditStatus(req.Status), actor, req.Notes)
	if err != nil {
		switch dErrors.CodeOf(err) {
		case dErrors.CodeInternal:
			h.logger.ErrorContext(ctx, "transition failed",
				"request_id", requestID,
				"audit_id", auditID,
				"error", err.Error(),
			)
		default:
			h.logger.WarnContext(ctx, "transition refused",
				"request_id", requestID,
				"audit_id", auditID,
				"to_status", req.Status,
				"reason", dErrors.MessageOf(err),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toAuditResponse(audit))
}

func (h *Handler) handleAvailableTransitions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	auditID, ok := h.auditIDFromURL(w, r)
	if !ok {
		return
	}
	actor := middleware.Actor(ctx)

	audit, err := h.audits.FindByID(ctx, auditID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeNotFound, "audit not found"))
		return
	}

	targets := h.wf.AvailableTransitions(ctx, audit, actor)
	if targets == nil {
		targets = []workflow.Target{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"current_status": audit.Status,
		"transitions":    targets,
	})
}

func (h *Handler) handleStatusLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	auditID, ok := h.auditIDFromURL(w, r)
	if !ok {
		return
	}

	if _, err := h.audits.FindByID(ctx, auditID); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeNotFound, "audit not found"))
		return
	}

	entries, err := h.trail.ListByAudit(ctx, auditID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list status log",
			"request_id", requestcontext.RequestID(ctx),
			"audit_id", auditID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list status log"))
		return
	}

	out := make([]statusLogEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, statusLogEntryResponse{
			ID:                     e.ID,
			FromStatus:             e.FromStatus,
			ToStatus:               e.ToStatus,
			ActorID:                e.ActorID,
			Notes:                  e.Notes,
			IndependenceOverridden: e.IndependenceOverridden,
			CreatedAt:              e.CreatedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (h *Handler) handleListStatuses(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"statuses": h.wf.Statuses()})
}

func (h *Handler) auditIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "auditID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid audit id"))
		return uuid.Nil, false
	}
	return id, true
}

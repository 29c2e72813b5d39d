package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cedrus/internal/domain"
	"cedrus/pkg/platform/sentinel"
)

func TestInMemoryAuditStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryAuditStore()

	audit := &domain.Audit{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Type:           domain.AuditTypeStage1,
		Status:         domain.StatusDraft,
		Version:        1,
	}
	require.NoError(t, store.Save(ctx, audit))

	t.Run("matching version succeeds and bumps version", func(t *testing.T) {
		err := store.UpdateStatus(ctx, audit.ID, domain.StatusScheduled, 1)
		require.NoError(t, err)

		got, err := store.FindByID(ctx, audit.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusScheduled, got.Status)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		err := store.UpdateStatus(ctx, audit.ID, domain.StatusInProgress, 1)
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("unknown audit not found", func(t *testing.T) {
		err := store.UpdateStatus(ctx, uuid.New(), domain.StatusScheduled, 1)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestInMemoryAuditStore_ExistsCompletedStage1(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryAuditStore()
	orgID := uuid.New()

	stage2 := &domain.Audit{ID: uuid.New(), OrganizationID: orgID, Type: domain.AuditTypeStage2, Status: domain.StatusDecisionPending}
	require.NoError(t, store.Save(ctx, stage2))

	ok, err := store.ExistsCompletedStage1(ctx, orgID, stage2.ID)
	require.NoError(t, err)
	assert.False(t, ok, "no stage1 audit exists yet")

	openStage1 := &domain.Audit{ID: uuid.New(), OrganizationID: orgID, Type: domain.AuditTypeStage1, Status: domain.StatusInProgress}
	require.NoError(t, store.Save(ctx, openStage1))

	ok, err = store.ExistsCompletedStage1(ctx, orgID, stage2.ID)
	require.NoError(t, err)
	assert.False(t, ok, "an in-progress stage1 does not count")

	closedStage1 := &domain.Audit{ID: uuid.New(), OrganizationID: orgID, Type: domain.AuditTypeStage1, Status: domain.StatusClosed}
	require.NoError(t, store.Save(ctx, closedStage1))

	ok, err = store.ExistsCompletedStage1(ctx, orgID, stage2.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// The audit itself never satisfies its own prerequisite.
	ok, err = store.ExistsCompletedStage1(ctx, orgID, closedStage1.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Legacy decided status counts as completed.
	decidedStage1 := &domain.Audit{ID: uuid.New(), OrganizationID: uuid.New(), Type: domain.AuditTypeStage1, Status: domain.StatusDecided}
	require.NoError(t, store.Save(ctx, decidedStage1))

	ok, err = store.ExistsCompletedStage1(ctx, decidedStage1.OrganizationID, uuid.New())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryFindingStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryFindingStore()
	auditID := uuid.New()

	count, err := store.CountByAudit(ctx, auditID)
	require.NoError(t, err)
	assert.Zero(t, count)

	nc := &domain.Finding{ID: uuid.New(), AuditID: auditID, Type: domain.FindingNonconformity, Category: domain.CategoryMajor, Clause: "7.5"}
	obs := &domain.Finding{ID: uuid.New(), AuditID: auditID, Type: domain.FindingObservation}
	require.NoError(t, store.Save(ctx, nc))
	require.NoError(t, store.Save(ctx, obs))

	count, err = store.CountByAudit(ctx, auditID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	ncs, err := store.ListNonconformities(ctx, auditID)
	require.NoError(t, err)
	require.Len(t, ncs, 1)
	assert.Equal(t, "7.5", ncs[0].Clause)

	// Saving the same finding again updates in place.
	nc.Verification = domain.VerificationClosed
	require.NoError(t, store.Save(ctx, nc))

	count, err = store.CountByAudit(ctx, auditID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	ncs, err = store.ListNonconformities(ctx, auditID)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationClosed, ncs[0].Verification)
}

func TestInMemoryTechnicalReviewStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryTechnicalReviewStore()
	auditID := uuid.New()

	_, err := store.FindByAudit(ctx, auditID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	review := &domain.TechnicalReview{ID: uuid.New(), AuditID: auditID, ReviewerID: uuid.New(), Status: domain.ReviewPending}
	require.NoError(t, store.Save(ctx, review))

	got, err := store.FindByAudit(ctx, auditID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewPending, got.Status)

	// One review per audit: saving again replaces it.
	review.Status = domain.ReviewApproved
	require.NoError(t, store.Save(ctx, review))

	got, err = store.FindByAudit(ctx, auditID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewApproved, got.Status)
}

func TestInMemoryStatusLogStore_AppendOnly(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStatusLogStore()
	auditID := uuid.New()

	for i, to := range []domain.AuditStatus{domain.StatusScheduled, domain.StatusInProgress} {
		entry := domain.StatusLogEntry{
			ID:        uuid.New(),
			AuditID:   auditID,
			ToStatus:  to,
			CreatedAt: time.Now(),
		}
		require.NoError(t, store.Append(ctx, entry))

		count, err := store.CountByAudit(ctx, auditID)
		require.NoError(t, err)
		assert.Equal(t, i+1, count, "log grows by exactly one per append")
	}

	entries, err := store.ListByAudit(ctx, auditID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.StatusScheduled, entries[0].ToStatus)
	assert.Equal(t, domain.StatusInProgress, entries[1].ToStatus)
}

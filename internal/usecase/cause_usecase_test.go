package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	infraRepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCauseUsecase(t *testing.T) (*CauseUsecase, *stack, repo.AuditLogRepository) {
	t.Helper()
	s := newStack(t)
	audits := infraRepo.NewAuditLogGormRepository(s.db)
	return NewCauseUsecase(infraRepo.NewTxManagerGorm(s.db), s.causes, 0, zerolog.Nop()), s, audits
}

func TestCause_GetDerivesMilestone(t *testing.T) {
	uc, s, _ := newCauseUsecase(t)
	c := s.createCause(t, 77700*2+100)

	out, err := uc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Clean Water", out.Name)
	assert.Equal(t, int64(2), out.Milestone.Count)
	assert.Equal(t, int64(100), out.Milestone.ProgressCents)
	assert.Equal(t, int64(77700), out.Milestone.GoalCents)
}

func TestCause_GetErrors(t *testing.T) {
	uc, _, _ := newCauseUsecase(t)

	_, err := uc.Get(context.Background(), 0)
	he, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)

	_, err = uc.Get(context.Background(), 42)
	he, ok = AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}

func TestCause_CreateWritesAudit(t *testing.T) {
	ctx := context.Background()
	uc, s, audits := newCauseUsecase(t)

	out, err := uc.Create(ctx, CreateCauseInput{Name: "  Reading Rooms  "})
	require.NoError(t, err)
	assert.Equal(t, "Reading Rooms", out.Name)
	assert.Equal(t, int64(77700), out.Milestone.GoalCents)
	assert.Equal(t, int64(1), s.count(t, &model.Cause{}))

	logs, err := audits.List(ctx, repo.AuditLogFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionCreateCause, logs[0].Action)
	assert.Equal(t, "1", logs[0].EntityID)

	_, err = uc.Create(ctx, CreateCauseInput{Name: " "})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)
}

func TestCause_RecalculateRepairsDrift(t *testing.T) {
	ctx := context.Background()
	uc, s, audits := newCauseUsecase(t)
	c := s.createCause(t, 999)

	for _, ref := range []string{"A", "B"} {
		r := ref
		created, err := s.donations.CreateIfAbsent(ctx, &model.Donation{Reference: &r, CauseID: c.ID, AmountCents: 250})
		require.NoError(t, err)
		require.True(t, created)
	}

	out, err := uc.Recalculate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, RecalculateOutput{CauseID: c.ID, BeforeCents: 999, AfterCents: 500}, out)
	assert.Equal(t, int64(500), s.raised(t, c.ID))

	action := model.AuditActionRecalculateCause
	logs, err := audits.List(ctx, repo.AuditLogFilter{Action: &action})
	require.NoError(t, err)
	require.Len(t, logs, 1)

	var details map[string]int64
	require.NoError(t, json.Unmarshal([]byte(logs[0].Details), &details))
	assert.Equal(t, map[string]int64{"before": 999, "after": 500}, details)

	// 2回目は差分なし
	again, err := uc.Recalculate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), again.BeforeCents)
	assert.Equal(t, int64(500), again.AfterCents)
}

func TestCause_RecalculateMissingCause(t *testing.T) {
	uc, _, _ := newCauseUsecase(t)

	_, err := uc.Recalculate(context.Background(), 7)
	he, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}

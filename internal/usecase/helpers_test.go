package usecase

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/testutil"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SQLite上で本物のrepository一式を組む
type stack struct {
	db        *gorm.DB
	orders    *infraRepo.OrderGormRepository
	donations *infraRepo.DonationGormRepository
	causes    *infraRepo.CauseGormRepository
	ledger    *LedgerUsecase
}

func newStack(t *testing.T) *stack {
	t.Helper()
	gdb := testutil.NewTestDB(t)

	s := &stack{
		db:        gdb,
		orders:    infraRepo.NewOrderGormRepository(gdb),
		donations: infraRepo.NewDonationGormRepository(gdb),
		causes:    infraRepo.NewCauseGormRepository(gdb),
	}
	s.ledger = NewLedgerUsecase(infraRepo.NewTxManagerGorm(gdb), s.orders, s.donations, zerolog.Nop(), 0)
	return s
}

func (s *stack) createCause(t *testing.T, raised int64) model.Cause {
	t.Helper()
	c := model.Cause{Name: "Clean Water", RaisedCents: raised, GoalCents: 77700}
	require.NoError(t, s.causes.Create(context.Background(), &c))
	return c
}

func (s *stack) raised(t *testing.T, causeID int64) int64 {
	t.Helper()
	c, err := s.causes.FindByID(context.Background(), causeID)
	require.NoError(t, err)
	return c.RaisedCents
}

func (s *stack) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(m).Count(&n).Error)
	return n
}

func int64Ptr(v int64) *int64 { return &v }

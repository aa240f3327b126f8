package repository

import (
	"context"
	"sync"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCauseGormRepository_IncrementRaised(t *testing.T) {
	ctx := context.Background()
	r := NewCauseGormRepository(testutil.NewTestDB(t))

	c := model.Cause{Name: "Clean Water", GoalCents: 77700}
	require.NoError(t, r.Create(ctx, &c))

	ok, err := r.IncrementRaised(ctx, c.ID, 500)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IncrementRaised(ctx, 999, 500)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.RaisedCents)
}

func TestCauseGormRepository_ConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	r := NewCauseGormRepository(testutil.NewTestDB(t))

	c := model.Cause{Name: "Schools"}
	require.NoError(t, r.Create(ctx, &c))

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.IncrementRaised(ctx, c.ID, 100)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := r.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n*100), got.RaisedCents)
}

func TestCauseGormRepository_LockAndSetRaised(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewTestDB(t)
	tm := NewTxManagerGorm(gdb)
	r := NewCauseGormRepository(gdb)

	c := model.Cause{Name: "Trees"}
	require.NoError(t, r.Create(ctx, &c))
	assert.Equal(t, int64(77700), c.GoalCents)

	err := tm.WithinTx(ctx, func(tx repo.TxRepos) error {
		locked, err := tx.Causes().FindByIDForUpdate(ctx, c.ID)
		if err != nil {
			return err
		}
		return tx.Causes().SetRaised(ctx, locked.ID, 1234)
	})
	require.NoError(t, err)

	got, err := r.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), got.RaisedCents)

	_, err = r.FindByID(ctx, 999)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	_, err = r.FindByIDForUpdate(ctx, 999)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.ErrorIs(t, r.SetRaised(ctx, 999, 1), repo.ErrNotFound)
}

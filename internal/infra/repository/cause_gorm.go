package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CauseGormRepository struct {
	db *gorm.DB
}

func NewCauseGormRepository(db *gorm.DB) *CauseGormRepository {
	return &CauseGormRepository{db: db}
}

func (r *CauseGormRepository) FindByID(ctx context.Context, causeID int64) (model.Cause, error) {
	var c model.Cause
	err := r.db.WithContext(ctx).Where("id = ?", causeID).First(&c).Error
	if isNotFound(err) {
		return model.Cause{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cause{}, err
	}
	return c, nil
}

func (r *CauseGormRepository) FindByIDForUpdate(ctx context.Context, causeID int64) (model.Cause, error) {
	var c model.Cause
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", causeID).
		First(&c).Error
	if isNotFound(err) {
		return model.Cause{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cause{}, err
	}
	return c, nil
}

func (r *CauseGormRepository) Create(ctx context.Context, cause *model.Cause) error {
	return r.db.WithContext(ctx).Create(cause).Error
}

// 読んでから足すのではなく、DB側で加算する（同時寄付でも取りこぼさない）
func (r *CauseGormRepository) IncrementRaised(ctx context.Context, causeID int64, amountCents int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Cause{}).
		Where("id = ?", causeID).
		UpdateColumn("raised_cents", gorm.Expr("raised_cents + ?", amountCents))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

func (r *CauseGormRepository) SetRaised(ctx context.Context, causeID int64, raisedCents int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Cause{}).
		Where("id = ?", causeID).
		Update("raised_cents", raisedCents)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

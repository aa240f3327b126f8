package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DonationGormRepository struct {
	db *gorm.DB
}

func NewDonationGormRepository(db *gorm.DB) *DonationGormRepository {
	return &DonationGormRepository{db: db}
}

func (r *DonationGormRepository) FindByOrderID(ctx context.Context, orderID int64) (model.Donation, bool, error) {
	return r.findOne(ctx, "order_id = ?", orderID)
}

func (r *DonationGormRepository) FindByReference(ctx context.Context, reference string) (model.Donation, bool, error) {
	return r.findOne(ctx, "reference = ?", reference)
}

func (r *DonationGormRepository) findOne(ctx context.Context, cond string, arg interface{}) (model.Donation, bool, error) {
	var d model.Donation
	err := r.db.WithContext(ctx).Where(cond, arg).First(&d).Error
	if isNotFound(err) {
		return model.Donation{}, false, nil
	}
	if err != nil {
		return model.Donation{}, false, err
	}
	return d, true, nil
}

// 一意制約（order_id / reference）に任せて INSERT ... ON CONFLICT DO NOTHING
func (r *DonationGormRepository) CreateIfAbsent(ctx context.Context, donation *model.Donation) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(donation)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *DonationGormRepository) SumByCause(ctx context.Context, causeID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Donation{}).
		Where("cause_id = ?", causeID).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

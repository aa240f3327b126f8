package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindBySessionID(ctx context.Context, sessionID string) (model.Order, bool, error) {
	return r.findOne(ctx, "session_id = ?", sessionID)
}

func (r *OrderGormRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (model.Order, bool, error) {
	return r.findOne(ctx, "order_number = ?", orderNumber)
}

func (r *OrderGormRepository) findOne(ctx context.Context, cond string, arg interface{}) (model.Order, bool, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where(cond, arg).First(&o).Error
	if isNotFound(err) {
		return model.Order{}, false, nil
	}
	if err != nil {
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order *model.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if isDuplicate(err) {
			return repo.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *OrderGormRepository) Update(ctx context.Context, order model.Order) error {
	//order_numberとsession_idは識別子なので触らない
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status":             order.Status,
			"product_name":       order.ProductName,
			"quantity":           order.Quantity,
			"amount_total_cents": order.AmountTotalCents,
			"currency":           order.Currency,
			"donation_cents":     order.DonationCents,
			"cause_id":           order.CauseID,
			"cause_name":         order.CauseName,
			"customer_email":     order.CustomerEmail,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

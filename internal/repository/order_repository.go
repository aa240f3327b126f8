package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type OrderRepository interface {
	FindBySessionID(ctx context.Context, sessionID string) (model.Order, bool, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (model.Order, bool, error)

	// 一意制約に当たったらErrDuplicateを返す
	Create(ctx context.Context, order *model.Order) error

	// order_number以外の可変項目を上書きする
	Update(ctx context.Context, order model.Order) error
}

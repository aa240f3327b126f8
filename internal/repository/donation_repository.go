package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type DonationRepository interface {
	FindByOrderID(ctx context.Context, orderID int64) (model.Donation, bool, error)
	FindByReference(ctx context.Context, reference string) (model.Donation, bool, error)

	// 既に同じorder_id/referenceがあれば何もせず false を返す
	CreateIfAbsent(ctx context.Context, donation *model.Donation) (bool, error)

	SumByCause(ctx context.Context, causeID int64) (int64, error)
}

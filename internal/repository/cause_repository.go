package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CauseRepository interface {
	FindByID(ctx context.Context, causeID int64) (model.Cause, error)
	// 行ロックを取って取得（再計算用）
	FindByIDForUpdate(ctx context.Context, causeID int64) (model.Cause, error)
	Create(ctx context.Context, cause *model.Cause) error

	// raised_cents = raised_cents + amount をDB側で1文で実行する。
	// 対象がなければ false
	IncrementRaised(ctx context.Context, causeID int64, amountCents int64) (bool, error)

	// 集計値の修復用
	SetRaised(ctx context.Context, causeID int64, raisedCents int64) error
}

package db

import (
	"storefront/internal/domain/model"

	"gorm.io/gorm"
)

// Migrate はテーブルと一意インデックスを作る。
// orders.order_number / orders.session_id / donations.order_id / donations.reference の
// 一意制約が冪等性の前提なので、ここで必ず作っておく
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&model.Cause{},
		&model.Order{},
		&model.Donation{},
		&model.AuditLog{},
	)
}

package model

import "time"

// 寄付レコード。作成後は更新しない。
// order_id（注文経由）かreference（寄付のみのフォーム送信）のどちらかで一意になる
type Donation struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID       *int64    `gorm:"uniqueIndex" json:"order_id,omitempty"`
	Reference     *string   `gorm:"type:varchar(255);uniqueIndex" json:"reference,omitempty"`
	CauseID       int64     `gorm:"not null;index" json:"cause_id"`
	AmountCents   int64     `gorm:"not null" json:"amount_cents"`
	CustomerEmail string    `gorm:"type:varchar(255)" json:"customer_email"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// IdempotencyKey はログ用のキー
func (d Donation) IdempotencyKey() string {
	if d.Reference != nil && *d.Reference != "" {
		return "ref:" + *d.Reference
	}
	if d.OrderID != nil {
		return "order:" + itoa(*d.OrderID)
	}
	return ""
}

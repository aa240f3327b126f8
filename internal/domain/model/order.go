package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
)

// 注文。order_numberとsession_idの両方が冪等キーになる
type Order struct {
	ID          int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string  `gorm:"type:varchar(255);not null;uniqueIndex" json:"order_number"`
	SessionID   *string `gorm:"type:varchar(255);uniqueIndex" json:"session_id,omitempty"`

	Status      OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ProductName string      `gorm:"type:varchar(255)" json:"product_name"`
	Quantity    int64       `gorm:"not null;default:1" json:"quantity"`

	AmountTotalCents int64  `gorm:"not null;default:0" json:"amount_total_cents"`
	Currency         string `gorm:"type:varchar(10);not null;default:'usd'" json:"currency"`

	//寄付額（0なら寄付なし）
	DonationCents int64  `gorm:"not null;default:0" json:"donation_cents"`
	CauseID       *int64 `gorm:"index" json:"cause_id,omitempty"`
	CauseName     string `gorm:"type:varchar(255)" json:"cause_name"`

	CustomerEmail string    `gorm:"type:varchar(255)" json:"customer_email"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// HasDonation は寄付レコードを作るべき注文かどうか
func (o Order) HasDonation() bool {
	return o.CauseID != nil && *o.CauseID > 0 && o.DonationCents > 0
}

// 状態は pending -> completed にしか進めない
func (s OrderStatus) Advance(next OrderStatus) OrderStatus {
	if s == OrderStatusCompleted {
		return s
	}
	if next == "" {
		return s
	}
	return next
}

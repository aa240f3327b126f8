package model

import "time"

type AuditAction string

const (
	//webhookを受信した（結果に関係なく必ず残す）
	AuditActionWebhookReceived AuditAction = "WEBHOOK_RECEIVED"
	//寄付の集計値を再計算した
	AuditActionRecalculateCause AuditAction = "RECALCULATE_CAUSE"
	//寄付先を作成した
	AuditActionCreateCause AuditAction = "CREATE_CAUSE"
)

// 何に対する操作か
type AuditEntityType string

const (
	AuditEntityWebhook AuditEntityType = "webhook"
	AuditEntityOrder   AuditEntityType = "order"
	AuditEntityCause   AuditEntityType = "cause"
)

// 監査ログ。あとから手で突き合わせできるように生のペイロードや前後の値を残す
type AuditLog struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Action     AuditAction     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityType AuditEntityType `gorm:"type:varchar(50);not null;index" json:"entity_type"`
	EntityID   string          `gorm:"type:varchar(255);index" json:"entity_id"`
	Details    string          `gorm:"type:text" json:"details"`
	CreatedAt  time.Time       `gorm:"not null;index" json:"created_at"`
}

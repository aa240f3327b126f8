package model

import (
	"strconv"
	"time"
)

// 寄付先。raised_centsはアトミックな加算でしか更新しない
type Cause struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	RaisedCents int64     `gorm:"not null;default:0" json:"raised_cents"`
	GoalCents   int64     `gorm:"not null;default:77700" json:"goal_cents"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

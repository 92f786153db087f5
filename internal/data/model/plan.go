package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionPlan 套餐模型 (由套餐目录维护, 购买服务只读)
type SubscriptionPlan struct {
	PlanID     string          `gorm:"primaryKey;column:plan_id;type:varchar(64)"`
	Name       string          `gorm:"column:name;type:varchar(128);not null"`
	BasePrice  decimal.Decimal `gorm:"column:base_price;type:decimal(12,2);not null"` // 主币种单位, 不用转换为分
	Currency   string          `gorm:"column:currency;type:varchar(10);not null"`
	BaseTokens int64           `gorm:"column:base_tokens;not null"`
	Active     bool            `gorm:"column:active;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (SubscriptionPlan) TableName() string { return "subscription_plan" }

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserTransaction 交易模型
type UserTransaction struct {
	OrderRef      string          `gorm:"primaryKey;column:order_ref;type:varchar(128)"`
	PayerID       string          `gorm:"column:payer_id;type:varchar(64);not null;index:idx_payer_created,priority:1"`
	Kind          string          `gorm:"column:kind;type:varchar(32);not null"`
	PlanID        string          `gorm:"column:plan_id;type:varchar(64);not null"`
	BillingCycle  string          `gorm:"column:billing_cycle;type:varchar(16);not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null"`
	Currency      string          `gorm:"column:currency;type:varchar(10);not null"`
	Tokens        int64           `gorm:"column:tokens;not null"`
	PaymentMethod string          `gorm:"column:payment_method;type:varchar(32);not null"`
	ProviderRef   string          `gorm:"column:provider_ref;type:varchar(128)"`
	Status        string          `gorm:"column:status;type:varchar(16);not null;index:idx_status_created,priority:1"` // pending, paid, failed, expired
	CreatedAt     time.Time       `gorm:"column:created_at;index:idx_payer_created,priority:2;index:idx_status_created,priority:2"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
	CompletedAt   *time.Time      `gorm:"column:completed_at"`
}

func (UserTransaction) TableName() string { return "user_transaction" }

package biz

import (
	"context"

	"github.com/shopspring/decimal"
)

// Plan 订阅套餐 (只读, 由套餐目录维护)
type Plan struct {
	ID         string
	Name       string
	BasePrice  decimal.Decimal // 主币种单位, 如 20 表示 20 元
	Currency   string
	BaseTokens int64
	Active     bool
}

// PlanCatalog 套餐目录 (只读依赖)
// FindPlan returns nil, nil when the plan does not exist.
type PlanCatalog interface {
	FindPlan(ctx context.Context, planID string) (*Plan, error)
}

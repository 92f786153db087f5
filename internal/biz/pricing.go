package biz

import (
	"strings"

	"xinyuan_tech/purchase-service/internal/errors"

	"github.com/shopspring/decimal"
)

// BillingCycle 计费周期
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

const (
	// 年付按 10 个月计费, 发放 12 个月代币
	yearlyPriceMultiplier = 10
	yearlyTokenMultiplier = 12

	// priceScale matches the ledger amount column, decimal(12,2).
	priceScale = 2
)

// ParseBillingCycle accepts "monthly" or "yearly", case-insensitively.
func ParseBillingCycle(s string) (BillingCycle, error) {
	switch c := BillingCycle(strings.ToLower(strings.TrimSpace(s))); c {
	case BillingCycleMonthly, BillingCycleYearly:
		return c, nil
	default:
		return "", errors.ErrorInvalidBillingCycle("invalid billing cycle %q", s)
	}
}

// Quote 一次购买的计费结果
type Quote struct {
	Amount Amount
	Tokens int64
}

// ComputePrice maps a plan and billing cycle to the charged amount and the
// granted token quantity. Every cycle variant is priced here and nowhere else.
// Prices finer than the stored scale are refused rather than rounded.
func ComputePrice(plan *Plan, cycle BillingCycle) (*Quote, error) {
	if !plan.BasePrice.Equal(plan.BasePrice.Round(priceScale)) {
		return nil, errors.ErrorPlanCatalogUnavailable("plan %s price %s exceeds %d decimal places", plan.ID, plan.BasePrice, priceScale)
	}
	switch cycle {
	case BillingCycleMonthly:
		return &Quote{
			Amount: MajorAmount(plan.BasePrice, plan.Currency),
			Tokens: plan.BaseTokens,
		}, nil
	case BillingCycleYearly:
		return &Quote{
			Amount: MajorAmount(plan.BasePrice.Mul(decimal.NewFromInt(yearlyPriceMultiplier)), plan.Currency),
			Tokens: plan.BaseTokens * yearlyTokenMultiplier,
		}, nil
	default:
		return nil, errors.ErrorInvalidBillingCycle("invalid billing cycle %q", string(cycle))
	}
}

package biz

import (
	"fmt"
	"sync/atomic"
	"time"

	"xinyuan_tech/purchase-service/internal/constants"
)

// OrderRefGenerator 订单号生成器
// 格式: <prefix>_<unix 纳秒>_<payerID>, 可直接看出谁在什么时候买的。
// The timestamp is forced to strictly increase within the process, so two
// calls never share a reference even on a coarse clock.
type OrderRefGenerator struct {
	prefix string
	now    func() time.Time
	last   atomic.Int64
}

// NewOrderRefGenerator 创建订阅订单号生成器
func NewOrderRefGenerator() *OrderRefGenerator {
	return &OrderRefGenerator{
		prefix: constants.OrderRefPrefixSubscription,
		now:    time.Now,
	}
}

// Generate returns a new order reference for payerID.
func (g *OrderRefGenerator) Generate(payerID string) (string, error) {
	t := g.now()
	if t.IsZero() {
		return "", fmt.Errorf("order ref: clock unavailable")
	}
	ts := t.UnixNano()
	for {
		last := g.last.Load()
		next := ts
		if next <= last {
			next = last + 1
		}
		if g.last.CompareAndSwap(last, next) {
			return fmt.Sprintf("%s_%d_%s", g.prefix, next, payerID), nil
		}
	}
}

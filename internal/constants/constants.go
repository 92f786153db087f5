package constants

import "time"

// 缓存相关常量
const (
	// PlanCacheExpiration 套餐缓存过期时间; 下架状态最多滞后一个周期
	PlanCacheExpiration = 5 * time.Minute
	// NullCacheExpiration 空值缓存过期时间 (防止缓存穿透)
	NullCacheExpiration = 5 * time.Minute
	// CacheRandomMaxSeconds 缓存随机过期时间最大值(秒) - 防止缓存雪崩
	CacheRandomMaxSeconds = 60
	// PlanCacheKeyPrefix 套餐缓存 key 前缀
	PlanCacheKeyPrefix = "purchase:plan:"
)

// 分页相关常量
const (
	// DefaultPageSize 默认分页大小
	DefaultPageSize = 10
	// MaxPageSize 最大分页大小
	MaxPageSize = 100
)

// 分布式锁相关常量
const (
	// SweepLockKey 过期扫描锁
	SweepLockKey = "purchase:sweep:pending"
	// SweepLockExpiration 过期扫描锁过期时间
	SweepLockExpiration = 10 * time.Minute
	// SweepLockRetries 只尝试一次, 失败说明其他实例正在处理
	SweepLockRetries = 1
)

// 交易类型
const (
	TransactionKindSubscription = "subscription"
)

// OrderRefPrefixSubscription 订阅订单号前缀
const OrderRefPrefixSubscription = "sub"

// 支付状态(与payment-service保持一致)
const (
	PaymentStatusPending = "pending" // 待支付(订单已创建，等待支付)
	PaymentStatusSuccess = "success" // 支付成功
	PaymentStatusFailed  = "failed"  // 支付失败
	PaymentStatusClosed  = "closed"  // 订单关闭
)

// 支付方式
const (
	PaymentMethodAlipay = "alipay"
)

// 支付来源常量（用于 payment-service）
const (
	// PaymentSourceSubscription 订阅来源
	PaymentSourceSubscription = "subscription"
)

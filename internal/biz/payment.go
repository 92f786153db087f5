package biz

import "context"

// PaymentRequest 发起支付请求
// Amount is passed in whatever unit the caller holds; the adapter converts
// explicitly with Amount.In if its provider expects a different unit.
type PaymentRequest struct {
	OrderRef    string
	Description string
	Method      string
	Amount      Amount
	PayerID     string
}

// PaymentInstructions is the provider's opaque payable data (redirect url,
// QR payload, client secret ...) plus the provider's own reference.
type PaymentInstructions struct {
	ProviderRef string
	Data        map[string]any
}

// PaymentProvider 支付服务客户端接口 (防腐层)
type PaymentProvider interface {
	CreatePayment(ctx context.Context, req *PaymentRequest) (*PaymentInstructions, error)
}

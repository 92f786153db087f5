package data

import (
	"context"
	"fmt"
	"time"

	"xinyuan_tech/purchase-service/internal/biz"
	"xinyuan_tech/purchase-service/internal/conf"
	"xinyuan_tech/purchase-service/internal/constants"
	"xinyuan_tech/purchase-service/internal/pkg/sign"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/uuid"
)

const gatewayCreatePaymentPath = "/v1/payments"

type gatewayCreatePaymentRequest struct {
	MerchantID string `json:"merchant_id"`
	OrderNo    string `json:"order_no"`
	UserID     string `json:"user_id"`
	Amount     string `json:"amount"` // 主币种单位, 两位小数
	Currency   string `json:"currency"`
	Method     string `json:"method"`
	Subject    string `json:"subject"`
	Source     string `json:"source"`
	NotifyURL  string `json:"notify_url,omitempty"`
	ReturnURL  string `json:"return_url,omitempty"`
	Sign       string `json:"sign"`
}

type gatewayCreatePaymentReply struct {
	PaymentID string `json:"payment_id"`
	PayURL    string `json:"pay_url"`
	PayCode   string `json:"pay_code"`
	PayParams string `json:"pay_params"`
}

// gatewayClient 支付网关客户端 (HTTP)
type gatewayClient struct {
	client    *http.Client
	merchant  string
	secret    string
	notifyURL string
	returnURL string
	log       *log.Helper
}

func newGatewayClient(c *conf.Bootstrap, logger log.Logger) (*gatewayClient, func(), error) {
	gw := c.Client.Payment.Gateway
	conn, err := http.NewClient(
		context.Background(),
		http.WithEndpoint(gw.Addr),
		http.WithTimeout(c.PaymentTimeout()),
		http.WithMiddleware(
			recovery.Recovery(),
			requestID(),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("dial payment gateway %s: %w", gw.Addr, err)
	}
	cleanup := func() { _ = conn.Close() }
	return &gatewayClient{
		client:    conn,
		merchant:  gw.Merchant,
		secret:    gw.Secret,
		notifyURL: gw.NotifyURL,
		returnURL: gw.ReturnURL,
		log:       log.NewHelper(logger),
	}, cleanup, nil
}

// requestID tags each outbound call so gateway logs can be correlated.
func requestID() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			if tr, ok := transport.FromClientContext(ctx); ok {
				tr.RequestHeader().Set("X-Request-Id", uuid.NewString())
			}
			return handler(ctx, req)
		}
	}
}

// CreatePayment 调用支付网关创建支付单. The gateway expects major units.
func (g *gatewayClient) CreatePayment(ctx context.Context, req *biz.PaymentRequest) (*biz.PaymentInstructions, error) {
	amount, err := req.Amount.In(biz.UnitMajor)
	if err != nil {
		return nil, err
	}

	body := &gatewayCreatePaymentRequest{
		MerchantID: g.merchant,
		OrderNo:    req.OrderRef,
		UserID:     req.PayerID,
		Amount:     amount.Value.StringFixed(2),
		Currency:   amount.Currency,
		Method:     req.Method,
		Subject:    req.Description,
		Source:     constants.PaymentSourceSubscription,
		NotifyURL:  g.notifyURL,
		ReturnURL:  g.returnURL,
	}
	body.Sign = sign.Params(map[string]string{
		"merchant_id": body.MerchantID,
		"order_no":    body.OrderNo,
		"user_id":     body.UserID,
		"amount":      body.Amount,
		"currency":    body.Currency,
		"method":      body.Method,
		"subject":     body.Subject,
		"source":      body.Source,
		"notify_url":  body.NotifyURL,
		"return_url":  body.ReturnURL,
	}, g.secret)

	start := time.Now()
	var reply gatewayCreatePaymentReply
	if err := g.client.Invoke(ctx, "POST", gatewayCreatePaymentPath, body, &reply); err != nil {
		g.log.WithContext(ctx).Errorf("Gateway CreatePayment failed: orderRef=%s, elapsed=%s, err=%v", req.OrderRef, time.Since(start), err)
		return nil, err
	}
	if reply.PaymentID == "" {
		return nil, fmt.Errorf("payment gateway returned no payment id for %s", req.OrderRef)
	}

	data := map[string]any{"payment_id": reply.PaymentID}
	if reply.PayURL != "" {
		data["pay_url"] = reply.PayURL
	}
	if reply.PayCode != "" {
		data["pay_code"] = reply.PayCode
	}
	if reply.PayParams != "" {
		data["pay_params"] = reply.PayParams
	}
	return &biz.PaymentInstructions{ProviderRef: reply.PaymentID, Data: data}, nil
}

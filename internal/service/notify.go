package service

import (
	"context"
	"encoding/json"
	"strings"

	"xinyuan_tech/purchase-service/internal/biz"
	"xinyuan_tech/purchase-service/internal/conf"
	"xinyuan_tech/purchase-service/internal/constants"
	"xinyuan_tech/purchase-service/internal/errors"
	"xinyuan_tech/purchase-service/internal/pkg/sign"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Notification sources
const (
	SourceGateway = "gateway"
	SourceStripe  = "stripe"
	SourceNats    = "nats"
)

// NotifyService 支付结果通知
type NotifyService struct {
	confirm       *biz.ConfirmationUsecase
	gatewaySecret string
	stripeSecret  string
	metrics       *Metrics
	log           *log.Helper
}

// NewNotifyService 创建支付结果通知服务
func NewNotifyService(confirm *biz.ConfirmationUsecase, c *conf.Bootstrap, metrics *Metrics, logger log.Logger) *NotifyService {
	s := &NotifyService{
		confirm: confirm,
		metrics: metrics,
		log:     log.NewHelper(logger),
	}
	if c != nil && c.Client != nil && c.Client.Payment != nil {
		s.gatewaySecret = c.Client.Payment.Gateway.Secret
		s.stripeSecret = c.Client.Payment.Stripe.WebhookSecret
	}
	return s
}

// GatewayNotify 处理支付网关回调. body is the raw request body; signature is
// the hex HMAC-SHA256 of it.
func (s *NotifyService) GatewayNotify(ctx context.Context, body []byte, signature string) (*NotifyReply, error) {
	if !sign.Verify(body, signature, s.gatewaySecret) {
		s.log.WithContext(ctx).Warn("Rejected gateway notification with bad signature")
		s.metrics.ObserveNotification(SourceGateway, errors.ReasonInvalidNotification)
		return nil, errors.ErrorInvalidNotification("invalid signature")
	}
	n, err := decodeGatewayNotification(body)
	if err != nil {
		s.metrics.ObserveNotification(SourceGateway, errors.ReasonInvalidNotification)
		return nil, err
	}
	n.Source = SourceGateway
	return s.apply(ctx, n)
}

// HandleMessage 处理消息总线上的支付结果事件 (与网关回调同结构, 内部总线不签名)
func (s *NotifyService) HandleMessage(ctx context.Context, data []byte) error {
	n, err := decodeGatewayNotification(data)
	if err != nil {
		s.metrics.ObserveNotification(SourceNats, errors.ReasonInvalidNotification)
		return err
	}
	n.Source = SourceNats
	_, err = s.apply(ctx, n)
	return err
}

// StripeWebhook 处理 Stripe webhook
func (s *NotifyService) StripeWebhook(ctx context.Context, payload []byte, signature string) (*NotifyReply, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.stripeSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.log.WithContext(ctx).Warnf("Rejected stripe webhook: %v", err)
		s.metrics.ObserveNotification(SourceStripe, errors.ReasonInvalidNotification)
		return nil, errors.ErrorInvalidNotification("invalid stripe signature")
	}

	var status string
	switch event.Type {
	case "payment_intent.succeeded":
		status = constants.PaymentStatusSuccess
	case "payment_intent.payment_failed":
		status = constants.PaymentStatusFailed
	case "payment_intent.canceled":
		status = constants.PaymentStatusClosed
	default:
		s.log.WithContext(ctx).Debugf("Ignoring stripe event %s", event.Type)
		return &NotifyReply{Success: true, Status: "ignored"}, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		s.metrics.ObserveNotification(SourceStripe, errors.ReasonInvalidNotification)
		return nil, errors.ErrorInvalidNotification("malformed payment intent")
	}
	n := &biz.PaymentNotification{
		OrderRef:    pi.Metadata["order_ref"],
		Status:      status,
		ProviderRef: pi.ID,
		Source:      SourceStripe,
	}
	if status == constants.PaymentStatusSuccess {
		n.Amount = &biz.Amount{
			Value:    decimal.NewFromInt(pi.AmountReceived),
			Currency: strings.ToUpper(string(pi.Currency)),
			Unit:     biz.UnitMinor,
		}
	}
	return s.apply(ctx, n)
}

func (s *NotifyService) apply(ctx context.Context, n *biz.PaymentNotification) (*NotifyReply, error) {
	tx, err := s.confirm.HandleNotification(ctx, n)
	s.metrics.ObserveNotification(n.Source, outcome(err))
	if err != nil {
		return nil, err
	}
	return &NotifyReply{Success: true, Status: string(tx.Status)}, nil
}

func decodeGatewayNotification(data []byte) (*biz.PaymentNotification, error) {
	var req GatewayNotifyRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, errors.ErrorInvalidNotification("malformed notification")
	}
	n := &biz.PaymentNotification{
		OrderRef:    req.OrderNo,
		Status:      strings.ToLower(req.Status),
		ProviderRef: req.PaymentID,
	}
	if req.Amount != "" {
		if strings.TrimSpace(req.Currency) == "" {
			return nil, errors.ErrorInvalidNotification("currency required with amount")
		}
		v, err := decimal.NewFromString(req.Amount)
		if err != nil {
			return nil, errors.ErrorInvalidNotification("malformed amount %q", req.Amount)
		}
		amount := biz.MajorAmount(v, req.Currency)
		n.Amount = &amount
	}
	return n, nil
}

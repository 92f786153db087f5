package data

import (
	"context"
	"strings"

	"xinyuan_tech/purchase-service/internal/biz"
	"xinyuan_tech/purchase-service/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// stripeClient creates Stripe PaymentIntents. Stripe expects minor units.
type stripeClient struct {
	log *log.Helper
}

func newStripeClient(c *conf.Bootstrap, logger log.Logger) *stripeClient {
	stripe.Key = c.Client.Payment.Stripe.APIKey
	return &stripeClient{log: log.NewHelper(logger)}
}

func (s *stripeClient) CreatePayment(ctx context.Context, req *biz.PaymentRequest) (*biz.PaymentInstructions, error) {
	minor, err := req.Amount.In(biz.UnitMinor)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(minor.Value.IntPart()),
		Currency:    stripe.String(strings.ToLower(minor.Currency)),
		Description: stripe.String(req.Description),
	}
	params.Context = ctx
	params.AddMetadata("order_ref", req.OrderRef)
	params.AddMetadata("payer_id", req.PayerID)
	params.SetIdempotencyKey(req.OrderRef)

	pi, err := paymentintent.New(params)
	if err != nil {
		s.log.WithContext(ctx).Errorf("Stripe PaymentIntent failed: orderRef=%s, err=%v", req.OrderRef, err)
		return nil, err
	}
	return &biz.PaymentInstructions{
		ProviderRef: pi.ID,
		Data: map[string]any{
			"payment_intent_id": pi.ID,
			"client_secret":     pi.ClientSecret,
			"status":            string(pi.Status),
		},
	}, nil
}

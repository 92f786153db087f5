package data

import (
	"fmt"

	"xinyuan_tech/purchase-service/internal/biz"
	"xinyuan_tech/purchase-service/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

// NewPaymentProvider selects the payment adapter named by client.payment.provider.
func NewPaymentProvider(c *conf.Bootstrap, logger log.Logger) (biz.PaymentProvider, func(), error) {
	if c.Client == nil || c.Client.Payment == nil {
		return nil, nil, fmt.Errorf("client.payment configuration is required")
	}
	switch c.Client.Payment.Provider {
	case "gateway":
		gw, cleanup, err := newGatewayClient(c, logger)
		if err != nil {
			return nil, nil, err
		}
		return gw, cleanup, nil
	case "stripe":
		return newStripeClient(c, logger), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported payment provider %q", c.Client.Payment.Provider)
	}
}

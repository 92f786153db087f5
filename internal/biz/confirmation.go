package biz

import (
	"context"

	"xinyuan_tech/purchase-service/internal/constants"
	"xinyuan_tech/purchase-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// PaymentNotification is a provider's report about an order, normalized by
// the transport that received it (gateway callback, Stripe webhook, NATS).
type PaymentNotification struct {
	OrderRef    string
	Status      string // constants.PaymentStatus*
	ProviderRef string
	Amount      *Amount
	Source      string
}

// ConfirmationUsecase 支付结果确认
type ConfirmationUsecase struct {
	ledger *LedgerUsecase
	log    *log.Helper
}

// NewConfirmationUsecase 创建支付结果确认
func NewConfirmationUsecase(ledger *LedgerUsecase, logger log.Logger) *ConfirmationUsecase {
	return &ConfirmationUsecase{
		ledger: ledger,
		log:    log.NewHelper(logger),
	}
}

func targetStatus(paymentStatus string) (TransactionStatus, bool) {
	switch paymentStatus {
	case constants.PaymentStatusSuccess:
		return StatusPaid, true
	case constants.PaymentStatusFailed:
		return StatusFailed, true
	case constants.PaymentStatusClosed:
		return StatusExpired, true
	default:
		return "", false
	}
}

// HandleNotification applies a provider notification to the ledger.
// Replayed notifications are no-ops; a pending report leaves the row alone.
func (uc *ConfirmationUsecase) HandleNotification(ctx context.Context, n *PaymentNotification) (*Transaction, error) {
	uc.log.WithContext(ctx).Infof("HandleNotification: source=%s, orderRef=%s, status=%s, providerRef=%s", n.Source, n.OrderRef, n.Status, n.ProviderRef)

	if n.OrderRef == "" {
		return nil, errors.ErrorInvalidNotification("order reference is required")
	}

	tx, err := uc.ledger.Get(ctx, n.OrderRef)
	if err != nil {
		return nil, err
	}

	if n.Status == constants.PaymentStatusPending {
		return tx, nil
	}
	target, ok := targetStatus(n.Status)
	if !ok {
		uc.log.WithContext(ctx).Warnf("Unknown payment status %q for %s", n.Status, n.OrderRef)
		return nil, errors.ErrorInvalidNotification("unknown payment status %q", n.Status)
	}

	if target == StatusPaid && n.Amount != nil && !n.Amount.Equal(tx.Charge()) {
		uc.log.WithContext(ctx).Errorf("Amount mismatch for %s: notified %s, recorded %s", n.OrderRef, n.Amount, tx.Charge())
		return nil, errors.ErrorInvalidNotification("amount does not match transaction %s", n.OrderRef)
	}

	return uc.ledger.UpdateStatus(ctx, n.OrderRef, target)
}

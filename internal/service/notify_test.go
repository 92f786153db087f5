package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"xinyuan_tech/purchase-service/internal/errors"
	"xinyuan_tech/purchase-service/internal/pkg/sign"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

func purchaseOne(t *testing.T, s *testStack) string {
	t.Helper()
	reply, err := s.purchase.Purchase(userCtx("u-1"), &PurchaseRequest{PlanID: "pro", BillingCycle: "monthly"})
	require.NoError(t, err)
	return reply.OrderRef
}

func gatewayBody(ref, status, amount string) []byte {
	return []byte(fmt.Sprintf(`{"order_no":%q,"payment_id":"pay_1","status":%q,"amount":%q,"currency":"CNY"}`, ref, status, amount))
}

func TestGatewayNotify(t *testing.T) {
	s := newTestStack(t)
	ref := purchaseOne(t, s)
	ctx := context.Background()

	body := gatewayBody(ref, "success", "20.00")
	_, err := s.notify.GatewayNotify(ctx, body, "deadbeef")
	assert.True(t, errors.IsInvalidNotification(err))

	reply, err := s.notify.GatewayNotify(ctx, body, sign.Body(body, testGatewaySecret))
	require.NoError(t, err)
	assert.Equal(t, "paid", reply.Status)

	// replay
	reply, err = s.notify.GatewayNotify(ctx, body, sign.Body(body, testGatewaySecret))
	require.NoError(t, err)
	assert.Equal(t, "paid", reply.Status)

	conflicting := gatewayBody(ref, "failed", "")
	_, err = s.notify.GatewayNotify(ctx, conflicting, sign.Body(conflicting, testGatewaySecret))
	assert.True(t, errors.IsInvalidStateTransition(err))

	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.notifications.WithLabelValues(SourceGateway, "success")))
}

func TestGatewayNotify_AmountMismatch(t *testing.T) {
	s := newTestStack(t)
	ref := purchaseOne(t, s)

	body := gatewayBody(ref, "success", "0.01")
	_, err := s.notify.GatewayNotify(context.Background(), body, sign.Body(body, testGatewaySecret))
	assert.True(t, errors.IsInvalidNotification(err))

	tx, err := s.ledger.Get(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "pending", string(tx.Status))
}

func TestGatewayNotify_AmountWithoutCurrency(t *testing.T) {
	s := newTestStack(t)
	ref := purchaseOne(t, s)

	body := []byte(fmt.Sprintf(`{"order_no":%q,"payment_id":"pay_1","status":"success","amount":"20.00"}`, ref))
	_, err := s.notify.GatewayNotify(context.Background(), body, sign.Body(body, testGatewaySecret))
	require.True(t, errors.IsInvalidNotification(err))
	assert.Contains(t, err.Error(), "currency required")

	tx, err := s.ledger.Get(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "pending", string(tx.Status))
}

func TestHandleMessage(t *testing.T) {
	s := newTestStack(t)
	ref := purchaseOne(t, s)

	require.NoError(t, s.notify.HandleMessage(context.Background(), gatewayBody(ref, "closed", "")))
	tx, err := s.ledger.Get(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "expired", string(tx.Status))

	assert.Error(t, s.notify.HandleMessage(context.Background(), []byte("{")))
}

func stripeEvent(eventType, ref string, amount int64) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_1",
  "object": "event",
  "api_version": "2020-08-27",
  "type": %q,
  "data": {"object": {"id": "pi_1", "object": "payment_intent", "amount": %d, "amount_received": %d, "currency": "cny", "metadata": {"order_ref": %q}}}
}`, eventType, amount, amount, ref))
}

func signStripe(t *testing.T, payload []byte) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testStripeSecret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestStripeWebhook(t *testing.T) {
	s := newTestStack(t)
	ref := purchaseOne(t, s)
	ctx := context.Background()

	payload := stripeEvent("payment_intent.succeeded", ref, 2000)
	_, err := s.notify.StripeWebhook(ctx, payload, "t=1,v1=bad")
	assert.True(t, errors.IsInvalidNotification(err))

	reply, err := s.notify.StripeWebhook(ctx, payload, signStripe(t, payload))
	require.NoError(t, err)
	assert.Equal(t, "paid", reply.Status)

	ignored := stripeEvent("charge.refunded", ref, 2000)
	reply, err = s.notify.StripeWebhook(ctx, ignored, signStripe(t, ignored))
	require.NoError(t, err)
	assert.Equal(t, "ignored", reply.Status)
}

func TestStripeWebhook_AmountMismatch(t *testing.T) {
	s := newTestStack(t)
	ref := purchaseOne(t, s)

	payload := stripeEvent("payment_intent.succeeded", ref, 1)
	_, err := s.notify.StripeWebhook(context.Background(), payload, signStripe(t, payload))
	assert.True(t, errors.IsInvalidNotification(err))
}

package biz

import (
	"context"
	"testing"
	"time"

	"xinyuan_tech/purchase-service/internal/conf"
	"xinyuan_tech/purchase-service/internal/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type purchaseFixture struct {
	catalog  *fakeCatalog
	provider *fakeProvider
	repo     *memRepo
	uc       *PurchaseUsecase
}

func newPurchaseFixture(t *testing.T, c *conf.Bootstrap) *purchaseFixture {
	t.Helper()
	if c == nil {
		c = &conf.Bootstrap{
			Client:   &conf.Client{Payment: &conf.Payment{Timeout: "2s"}},
			Purchase: &conf.Purchase{DefaultPaymentMethod: "alipay", PaymentMethods: []string{"wxpay"}},
		}
	}
	f := &purchaseFixture{
		catalog:  &fakeCatalog{plans: map[string]*Plan{"pro": proPlan()}},
		provider: &fakeProvider{},
		repo:     newMemRepo(),
	}
	ledger := NewLedgerUsecase(f.repo, testLogger)
	f.uc = NewPurchaseUsecase(f.catalog, NewOrderRefGenerator(), f.provider, ledger, c, testLogger)
	return f
}

func TestPurchase_ProYearly(t *testing.T) {
	f := newPurchaseFixture(t, nil)

	res, err := f.uc.Purchase(context.Background(), "u-1", "pro", "yearly", "")
	require.NoError(t, err)
	require.NotEmpty(t, res.OrderRef)

	assert.Equal(t, 1, f.repo.count())
	tx, err := f.repo.Get(context.Background(), res.OrderRef)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, tx.Status)
	assert.Equal(t, "200", tx.Amount.String())
	assert.Equal(t, int64(12000), tx.Tokens)
	assert.Equal(t, "subscription", tx.Kind)
	assert.Equal(t, "alipay", tx.PaymentMethod)
	assert.Equal(t, "pay_"+res.OrderRef, tx.ProviderRef)

	require.Equal(t, 1, f.provider.calls())
	req := f.provider.requests[0]
	assert.Equal(t, res.OrderRef, req.OrderRef)
	assert.Equal(t, "Pro subscription (yearly)", req.Description)
	assert.Equal(t, "u-1", req.PayerID)
	assert.Equal(t, UnitMajor, req.Amount.Unit)
	assert.True(t, req.Amount.Value.Equal(decimal.NewFromInt(200)))

	data := res.PaymentData()
	assert.Equal(t, res.OrderRef, data["order_no"])
	assert.Equal(t, "https://pay.example/"+res.OrderRef, data["pay_url"])
}

func TestPurchase_Monthly(t *testing.T) {
	f := newPurchaseFixture(t, nil)

	res, err := f.uc.Purchase(context.Background(), "u-1", "pro", "monthly", "wxpay")
	require.NoError(t, err)
	assert.Equal(t, "20", res.Transaction.Amount.String())
	assert.Equal(t, int64(1000), res.Transaction.Tokens)
	assert.Equal(t, "wxpay", res.Transaction.PaymentMethod)
}

func TestPurchase_PlanNotFound(t *testing.T) {
	f := newPurchaseFixture(t, nil)

	_, err := f.uc.Purchase(context.Background(), "u-1", "enterprise", "yearly", "")
	assert.True(t, errors.IsPlanNotFound(err))
	assert.Equal(t, 0, f.provider.calls())
	assert.Equal(t, 0, f.repo.count())
}

func TestPurchase_InactivePlan(t *testing.T) {
	f := newPurchaseFixture(t, nil)
	f.catalog.plans["pro"].Active = false

	_, err := f.uc.Purchase(context.Background(), "u-1", "pro", "monthly", "")
	assert.True(t, errors.IsPlanNotFound(err))
	assert.Equal(t, 0, f.provider.calls())
}

func TestPurchase_CatalogFailure(t *testing.T) {
	f := newPurchaseFixture(t, nil)
	f.catalog.err = errBoom

	_, err := f.uc.Purchase(context.Background(), "u-1", "pro", "monthly", "")
	assert.True(t, errors.IsPlanCatalogUnavailable(err))
	assert.Equal(t, 0, f.provider.calls())
}

func TestPurchase_InvalidCycle(t *testing.T) {
	f := newPurchaseFixture(t, nil)

	_, err := f.uc.Purchase(context.Background(), "u-1", "pro", "weekly", "")
	assert.True(t, errors.IsInvalidBillingCycle(err))
	assert.Equal(t, 0, f.provider.calls())
	assert.Equal(t, 0, f.repo.count())
}

func TestPurchase_InvalidMethod(t *testing.T) {
	f := newPurchaseFixture(t, nil)

	_, err := f.uc.Purchase(context.Background(), "u-1", "pro", "monthly", "bitcoin")
	assert.True(t, errors.IsInvalidPaymentMethod(err))
	assert.Equal(t, 0, f.provider.calls())
}

func TestPurchase_MissingPayer(t *testing.T) {
	f := newPurchaseFixture(t, nil)

	_, err := f.uc.Purchase(context.Background(), "", "pro", "monthly", "")
	assert.True(t, errors.IsAuthenticationFailed(err))
	assert.Equal(t, 0, f.catalog.calls)
}

func TestPurchase_ProviderFailure(t *testing.T) {
	f := newPurchaseFixture(t, nil)
	f.provider.err = errBoom

	_, err := f.uc.Purchase(context.Background(), "u-1", "pro", "yearly", "")
	assert.True(t, errors.IsPaymentProviderUnavailable(err))
	assert.Equal(t, 1, f.provider.calls())
	assert.Equal(t, 0, f.repo.count())
}

func TestPurchase_ProviderTimeout(t *testing.T) {
	c := &conf.Bootstrap{
		Client:   &conf.Client{Payment: &conf.Payment{Timeout: "20ms"}},
		Purchase: &conf.Purchase{DefaultPaymentMethod: "alipay"},
	}
	f := newPurchaseFixture(t, c)
	f.provider.block = time.Second

	_, err := f.uc.Purchase(context.Background(), "u-1", "pro", "yearly", "")
	assert.True(t, errors.IsPaymentProviderUnavailable(err))
	assert.Equal(t, 0, f.repo.count())
}

func TestPurchase_CallerCancellationDoesNotOrphan(t *testing.T) {
	f := newPurchaseFixture(t, nil)
	f.provider.block = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	res, err := f.uc.Purchase(ctx, "u-1", "pro", "monthly", "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.count())
	assert.NotEmpty(t, res.OrderRef)
}

func TestPurchase_LedgerFailureSurfaces(t *testing.T) {
	f := newPurchaseFixture(t, nil)
	f.repo.createErr = errBoom

	_, err := f.uc.Purchase(context.Background(), "u-1", "pro", "monthly", "")
	assert.True(t, errors.IsLedgerWriteFailed(err))
	assert.Equal(t, 1, f.provider.calls())
}

func TestPurchase_DuplicateOrderRefIsFatal(t *testing.T) {
	f := newPurchaseFixture(t, nil)
	frozen := time.Unix(1700000000, 0)
	f.uc.refs.now = func() time.Time { return frozen }

	first, err := f.uc.Purchase(context.Background(), "u-1", "pro", "monthly", "")
	require.NoError(t, err)

	// a fresh generator on the same clock mints the same reference
	f.uc.refs = NewOrderRefGenerator()
	f.uc.refs.now = func() time.Time { return frozen }

	_, err = f.uc.Purchase(context.Background(), "u-1", "pro", "monthly", "")
	assert.True(t, errors.IsDuplicateOrderReference(err))
	assert.Equal(t, 1, f.repo.count())

	tx, err := f.repo.Get(context.Background(), first.OrderRef)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, tx.Status)
}

func TestPurchase_NoDeduplication(t *testing.T) {
	f := newPurchaseFixture(t, nil)

	a, err := f.uc.Purchase(context.Background(), "u-1", "pro", "monthly", "")
	require.NoError(t, err)
	b, err := f.uc.Purchase(context.Background(), "u-1", "pro", "monthly", "")
	require.NoError(t, err)

	assert.NotEqual(t, a.OrderRef, b.OrderRef)
	assert.Equal(t, 2, f.repo.count())
}

func TestPurchase_QuoteFixedAtCreation(t *testing.T) {
	f := newPurchaseFixture(t, nil)

	res, err := f.uc.Purchase(context.Background(), "u-1", "pro", "monthly", "")
	require.NoError(t, err)

	f.catalog.plans["pro"].BasePrice = decimal.NewFromInt(99)

	tx, err := f.repo.Get(context.Background(), res.OrderRef)
	require.NoError(t, err)
	assert.Equal(t, "20", tx.Amount.String())
}

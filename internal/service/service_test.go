package service

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"xinyuan_tech/purchase-service/internal/biz"
	"xinyuan_tech/purchase-service/internal/conf"
	"xinyuan_tech/purchase-service/internal/data"
	"xinyuan_tech/purchase-service/internal/data/model"

	"github.com/glebarez/sqlite"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testGatewaySecret = "gw-secret"
	testStripeSecret  = "whsec_test"
)

var testLogger = log.NewFilter(log.DefaultLogger, log.FilterLevel(log.LevelError))

type testStack struct {
	purchase *PurchaseService
	notify   *NotifyService
	metrics  *Metrics
	ledger   *biz.LedgerUsecase
}

// newTestStack wires the real data layer against sqlite and a fake gateway.
func newTestStack(t *testing.T) *testStack {
	t.Helper()
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"payment_id":"pay_1","pay_url":"https://pay.example/pay_1"}`))
	}))
	t.Cleanup(gw.Close)

	c := &conf.Bootstrap{
		Data: &conf.Data{},
		Client: &conf.Client{Payment: &conf.Payment{
			Provider: "gateway",
			Timeout:  "2s",
			Gateway:  conf.Gateway{Addr: gw.URL, Secret: testGatewaySecret},
			Stripe:   conf.Stripe{WebhookSecret: testStripeSecret},
		}},
		Purchase: &conf.Purchase{DefaultPaymentMethod: "alipay"},
	}
	c.Data.Database.AutoMigrate = true

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "purchase.db")), &gorm.Config{})
	require.NoError(t, err)
	d, cleanup, err := data.NewData(c, testLogger, db, nil)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	require.NoError(t, db.Create(&model.SubscriptionPlan{
		PlanID:     "pro",
		Name:       "Pro",
		BasePrice:  decimal.NewFromInt(20),
		Currency:   "CNY",
		BaseTokens: 1000,
		Active:     true,
	}).Error)

	provider, closeProvider, err := data.NewPaymentProvider(c, testLogger)
	require.NoError(t, err)
	t.Cleanup(closeProvider)

	ledger := biz.NewLedgerUsecase(data.NewTransactionRepo(d, testLogger), testLogger)
	purchase := biz.NewPurchaseUsecase(data.NewPlanRepo(d, testLogger), biz.NewOrderRefGenerator(), provider, ledger, c, testLogger)
	metrics := NewMetrics()
	return &testStack{
		purchase: NewPurchaseService(purchase, ledger, metrics, testLogger),
		notify:   NewNotifyService(biz.NewConfirmationUsecase(ledger, testLogger), c, metrics, testLogger),
		metrics:  metrics,
		ledger:   ledger,
	}
}

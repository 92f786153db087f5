package biz

import (
	"context"
	"fmt"
	"maps"
	"time"

	"xinyuan_tech/purchase-service/internal/conf"
	"xinyuan_tech/purchase-service/internal/constants"
	"xinyuan_tech/purchase-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// PurchaseResult 购买结果
type PurchaseResult struct {
	OrderRef     string
	Instructions *PaymentInstructions
	Transaction  *Transaction
}

// PaymentData returns the provider's instructions merged with the order
// reference, which the client echoes back to correlate the payment.
func (r *PurchaseResult) PaymentData() map[string]any {
	data := make(map[string]any, len(r.Instructions.Data)+1)
	maps.Copy(data, r.Instructions.Data)
	data["order_no"] = r.OrderRef
	return data
}

// PurchaseUsecase 订阅购买编排
type PurchaseUsecase struct {
	catalog       PlanCatalog
	refs          *OrderRefGenerator
	payment       PaymentProvider
	ledger        *LedgerUsecase
	defaultMethod string
	methods       map[string]bool
	timeout       time.Duration
	log           *log.Helper
}

// NewPurchaseUsecase 创建订阅购买编排
func NewPurchaseUsecase(
	catalog PlanCatalog,
	refs *OrderRefGenerator,
	payment PaymentProvider,
	ledger *LedgerUsecase,
	c *conf.Bootstrap,
	logger log.Logger,
) *PurchaseUsecase {
	uc := &PurchaseUsecase{
		catalog:       catalog,
		refs:          refs,
		payment:       payment,
		ledger:        ledger,
		defaultMethod: constants.PaymentMethodAlipay,
		methods:       map[string]bool{},
		timeout:       c.PaymentTimeout(),
		log:           log.NewHelper(logger),
	}
	if c != nil && c.Purchase != nil {
		if c.Purchase.DefaultPaymentMethod != "" {
			uc.defaultMethod = c.Purchase.DefaultPaymentMethod
		}
		for _, m := range c.Purchase.PaymentMethods {
			uc.methods[m] = true
		}
	}
	uc.methods[uc.defaultMethod] = true
	return uc
}

// Purchase 发起订阅购买
// The provider call and the ledger insert run to completion even if the
// caller goes away. A pending transaction exists only if the provider call
// succeeded.
func (uc *PurchaseUsecase) Purchase(ctx context.Context, payerID, planID, billingCycle, method string) (*PurchaseResult, error) {
	uc.log.WithContext(ctx).Infof("Purchase: payerID=%s, planID=%s, billingCycle=%s, method=%s", payerID, planID, billingCycle, method)

	if payerID == "" {
		return nil, errors.ErrorAuthenticationFailed("authentication required")
	}

	// 1. 查询套餐
	plan, err := uc.catalog.FindPlan(ctx, planID)
	if err != nil {
		uc.log.WithContext(ctx).Errorf("Failed to find plan %s: %v", planID, err)
		return nil, errors.ErrorPlanCatalogUnavailable("failed to initialize subscription purchase")
	}
	if plan == nil || !plan.Active {
		uc.log.WithContext(ctx).Warnf("Plan not found or inactive: %s", planID)
		return nil, errors.ErrorPlanNotFound("invalid subscription plan")
	}

	// 2. 计算价格和代币数量
	cycle, err := ParseBillingCycle(billingCycle)
	if err != nil {
		return nil, err
	}
	quote, err := ComputePrice(plan, cycle)
	if err != nil {
		return nil, err
	}

	if method == "" {
		method = uc.defaultMethod
	}
	if !uc.methods[method] {
		return nil, errors.ErrorInvalidPaymentMethod("unsupported payment method %q", method)
	}

	// 3. 生成订单号
	orderRef, err := uc.refs.Generate(payerID)
	if err != nil {
		uc.log.WithContext(ctx).Errorf("Failed to generate order reference: %v", err)
		return nil, errors.ErrorLedgerWriteFailed("failed to initialize subscription purchase")
	}

	// 调用方断开后仍需完成支付调用和记账, 避免支付侧出现无账本记录的支付单
	detached := context.WithoutCancel(ctx)

	// 4. 调用支付服务
	req := &PaymentRequest{
		OrderRef:    orderRef,
		Description: fmt.Sprintf("%s subscription (%s)", plan.Name, cycle),
		Method:      method,
		Amount:      quote.Amount,
		PayerID:     payerID,
	}
	uc.log.WithContext(ctx).Infof("Calling payment provider: orderRef=%s, amount=%s, method=%s", orderRef, quote.Amount, method)
	instructions, err := uc.createPayment(detached, req)
	if err != nil {
		uc.log.WithContext(ctx).Errorf("Failed to create payment for %s: %v", orderRef, err)
		return nil, errors.ErrorPaymentProviderUnavailable("failed to initialize subscription purchase")
	}

	// 5. 记录待支付交易
	tx := &Transaction{
		OrderRef:      orderRef,
		PayerID:       payerID,
		Kind:          constants.TransactionKindSubscription,
		PlanID:        plan.ID,
		BillingCycle:  cycle,
		Amount:        quote.Amount.Value,
		Currency:      quote.Amount.Currency,
		Tokens:        quote.Tokens,
		PaymentMethod: method,
		ProviderRef:   instructions.ProviderRef,
	}
	if err := uc.ledger.Record(detached, tx); err != nil {
		// 支付单已在支付侧创建, 此处无法撤销, 只能丢弃支付指令
		uc.log.WithContext(ctx).Errorf("Discarding payment instructions for %s (provider ref %s): %v", orderRef, instructions.ProviderRef, err)
		return nil, err
	}

	return &PurchaseResult{
		OrderRef:     orderRef,
		Instructions: instructions,
		Transaction:  tx,
	}, nil
}

func (uc *PurchaseUsecase) createPayment(ctx context.Context, req *PaymentRequest) (*PaymentInstructions, error) {
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}
	instructions, err := uc.payment.CreatePayment(ctx, req)
	if err != nil {
		return nil, err
	}
	if instructions == nil {
		return nil, fmt.Errorf("payment provider returned no instructions")
	}
	if instructions.Data == nil {
		instructions.Data = map[string]any{}
	}
	return instructions, nil
}

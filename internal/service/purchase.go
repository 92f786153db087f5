package service

import (
	"context"
	"time"

	"xinyuan_tech/purchase-service/internal/auth"
	"xinyuan_tech/purchase-service/internal/biz"
	"xinyuan_tech/purchase-service/internal/constants"
	"xinyuan_tech/purchase-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// PurchaseService 订阅购买服务
type PurchaseService struct {
	purchase *biz.PurchaseUsecase
	ledger   *biz.LedgerUsecase
	metrics  *Metrics
	log      *log.Helper
}

// NewPurchaseService 创建订阅购买服务
func NewPurchaseService(purchase *biz.PurchaseUsecase, ledger *biz.LedgerUsecase, metrics *Metrics, logger log.Logger) *PurchaseService {
	return &PurchaseService{
		purchase: purchase,
		ledger:   ledger,
		metrics:  metrics,
		log:      log.NewHelper(logger),
	}
}

// Purchase 发起订阅购买
// The payer is the authenticated user, never a field of the request.
func (s *PurchaseService) Purchase(ctx context.Context, req *PurchaseRequest) (*PurchaseReply, error) {
	start := time.Now()
	uid, ok := auth.GetUIDFromContext(ctx)
	if !ok {
		s.metrics.ObservePurchase(errors.ReasonAuthenticationFailed, time.Since(start))
		return nil, errors.ErrorAuthenticationFailed("authentication required")
	}

	res, err := s.purchase.Purchase(ctx, uid, req.PlanID, req.BillingCycle, req.PaymentMethod)
	s.metrics.ObservePurchase(outcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	return &PurchaseReply{
		Success:     true,
		OrderRef:    res.OrderRef,
		PaymentData: res.PaymentData(),
	}, nil
}

// GetTransaction 查询交易 (本人或管理员)
func (s *PurchaseService) GetTransaction(ctx context.Context, req *GetTransactionRequest) (*TransactionInfo, error) {
	if _, ok := auth.GetUIDFromContext(ctx); !ok {
		return nil, errors.ErrorAuthenticationFailed("authentication required")
	}
	tx, err := s.ledger.Get(ctx, req.OrderRef)
	if err != nil {
		return nil, err
	}
	// 权限验证
	if err := auth.CheckOwnership(ctx, tx.PayerID); err != nil {
		return nil, err
	}
	return toTransactionInfo(tx), nil
}

// ListTransactions 查询当前用户的交易
func (s *PurchaseService) ListTransactions(ctx context.Context, req *ListTransactionsRequest) (*ListTransactionsReply, error) {
	uid, ok := auth.GetUIDFromContext(ctx)
	if !ok {
		return nil, errors.ErrorAuthenticationFailed("authentication required")
	}
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > constants.MaxPageSize {
		pageSize = constants.DefaultPageSize
	}

	items, total, err := s.ledger.ListByPayer(ctx, uid, page, pageSize)
	if err != nil {
		return nil, err
	}
	reply := &ListTransactionsReply{
		Items:    make([]*TransactionInfo, len(items)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for i, tx := range items {
		reply.Items[i] = toTransactionInfo(tx)
	}
	return reply, nil
}

func toTransactionInfo(tx *biz.Transaction) *TransactionInfo {
	info := &TransactionInfo{
		OrderRef:      tx.OrderRef,
		PayerID:       tx.PayerID,
		Kind:          tx.Kind,
		PlanID:        tx.PlanID,
		BillingCycle:  string(tx.BillingCycle),
		Amount:        tx.Amount.StringFixed(2),
		Currency:      tx.Currency,
		Tokens:        tx.Tokens,
		PaymentMethod: tx.PaymentMethod,
		Status:        string(tx.Status),
		CreatedAt:     tx.CreatedAt.Unix(),
	}
	if tx.CompletedAt != nil {
		info.CompletedAt = tx.CompletedAt.Unix()
	}
	return info
}

package data

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"xinyuan_tech/purchase-service/internal/biz"
	"xinyuan_tech/purchase-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type transactionRepo struct {
	data *Data
	log  *log.Helper
}

// NewTransactionRepo 创建交易仓库
func NewTransactionRepo(data *Data, logger log.Logger) biz.TransactionRepo {
	return &transactionRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// Create inserts tx. An existing row with the same order_ref is left untouched
// and reported as biz.ErrOrderRefConflict.
func (r *transactionRepo) Create(ctx context.Context, tx *biz.Transaction) error {
	m := toTransactionModel(tx)
	res := r.data.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if res.Error != nil {
		if stderrors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return biz.ErrOrderRefConflict
		}
		return fmt.Errorf("create transaction %s: %w", tx.OrderRef, res.Error)
	}
	if res.RowsAffected == 0 {
		return biz.ErrOrderRefConflict
	}
	return nil
}

// Get 查询交易, 不存在时返回 nil, nil
func (r *transactionRepo) Get(ctx context.Context, orderRef string) (*biz.Transaction, error) {
	var m model.UserTransaction
	err := r.data.db.WithContext(ctx).Where("order_ref = ?", orderRef).First(&m).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", orderRef, err)
	}
	return toTransaction(&m), nil
}

// TransitionStatus 条件更新 (WHERE status = from), 并发安全
func (r *transactionRepo) TransitionStatus(ctx context.Context, orderRef string, from, to biz.TransactionStatus, at time.Time) (bool, error) {
	res := r.data.db.WithContext(ctx).
		Model(&model.UserTransaction{}).
		Where("order_ref = ? AND status = ?", orderRef, string(from)).
		Updates(map[string]interface{}{
			"status":       string(to),
			"updated_at":   at,
			"completed_at": at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("update transaction %s: %w", orderRef, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ListByPayer 分页查询用户交易, 按创建时间倒序
func (r *transactionRepo) ListByPayer(ctx context.Context, payerID string, page, pageSize int) ([]*biz.Transaction, int64, error) {
	var (
		models []model.UserTransaction
		total  int64
	)
	query := r.data.db.WithContext(ctx).Model(&model.UserTransaction{}).Where("payer_id = ?", payerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Order("order_ref DESC").
		Offset(offset).Limit(pageSize).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}

	items := make([]*biz.Transaction, len(models))
	for i := range models {
		items[i] = toTransaction(&models[i])
	}
	return items, total, nil
}

// ListStalePending 查询创建时间早于 before 的待支付交易
func (r *transactionRepo) ListStalePending(ctx context.Context, before time.Time, limit int) ([]string, error) {
	var refs []string
	err := r.data.db.WithContext(ctx).
		Model(&model.UserTransaction{}).
		Where("status = ? AND created_at < ?", string(biz.StatusPending), before).
		Order("created_at ASC").
		Limit(limit).
		Pluck("order_ref", &refs).Error
	if err != nil {
		return nil, fmt.Errorf("list stale pending transactions: %w", err)
	}
	return refs, nil
}

func toTransactionModel(tx *biz.Transaction) *model.UserTransaction {
	return &model.UserTransaction{
		OrderRef:      tx.OrderRef,
		PayerID:       tx.PayerID,
		Kind:          tx.Kind,
		PlanID:        tx.PlanID,
		BillingCycle:  string(tx.BillingCycle),
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Tokens:        tx.Tokens,
		PaymentMethod: tx.PaymentMethod,
		ProviderRef:   tx.ProviderRef,
		Status:        string(tx.Status),
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
		CompletedAt:   tx.CompletedAt,
	}
}

func toTransaction(m *model.UserTransaction) *biz.Transaction {
	return &biz.Transaction{
		OrderRef:      m.OrderRef,
		PayerID:       m.PayerID,
		Kind:          m.Kind,
		PlanID:        m.PlanID,
		BillingCycle:  biz.BillingCycle(m.BillingCycle),
		Amount:        m.Amount,
		Currency:      m.Currency,
		Tokens:        m.Tokens,
		PaymentMethod: m.PaymentMethod,
		ProviderRef:   m.ProviderRef,
		Status:        biz.TransactionStatus(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		CompletedAt:   m.CompletedAt,
	}
}

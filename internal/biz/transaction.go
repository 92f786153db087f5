package biz

import (
	"context"
	stderrors "errors"
	"time"

	"xinyuan_tech/purchase-service/internal/constants"
	"xinyuan_tech/purchase-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
)

// TransactionStatus 交易状态
type TransactionStatus string

const (
	StatusPending TransactionStatus = "pending"
	StatusPaid    TransactionStatus = "paid"
	StatusFailed  TransactionStatus = "failed"
	StatusExpired TransactionStatus = "expired"
)

// IsTerminal reports whether no transition may leave s.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusFailed || s == StatusExpired
}

// CanTransition reports whether from -> to is a legal ledger transition.
// Only pending may move, and only into a terminal state.
func CanTransition(from, to TransactionStatus) bool {
	return from == StatusPending && to.IsTerminal()
}

// Transaction 交易记录 (账本中的持久化记录)
// Amount and Tokens are fixed at creation and never recomputed.
type Transaction struct {
	OrderRef      string
	PayerID       string
	Kind          string
	PlanID        string
	BillingCycle  BillingCycle
	Amount        decimal.Decimal // 主币种单位
	Currency      string
	Tokens        int64
	PaymentMethod string
	ProviderRef   string
	Status        TransactionStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// Charge returns the recorded charge with its unit tag.
func (t *Transaction) Charge() Amount {
	return MajorAmount(t.Amount, t.Currency)
}

// ErrOrderRefConflict is returned by a TransactionRepo when the order
// reference is already stored.
var ErrOrderRefConflict = stderrors.New("order reference already exists")

// TransactionRepo 交易仓库接口
type TransactionRepo interface {
	// Create inserts tx; it must never overwrite an existing row.
	Create(ctx context.Context, tx *Transaction) error
	// Get returns nil, nil when the order reference is unknown.
	Get(ctx context.Context, orderRef string) (*Transaction, error)
	// TransitionStatus atomically moves orderRef from -> to and reports
	// whether a row was changed.
	TransitionStatus(ctx context.Context, orderRef string, from, to TransactionStatus, at time.Time) (bool, error)
	ListByPayer(ctx context.Context, payerID string, page, pageSize int) ([]*Transaction, int64, error)
	// ListStalePending returns order refs still pending that were created before the cutoff.
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]string, error)
}

// LedgerUsecase 交易账本
type LedgerUsecase struct {
	repo TransactionRepo
	now  func() time.Time
	log  *log.Helper
}

// NewLedgerUsecase 创建交易账本
func NewLedgerUsecase(repo TransactionRepo, logger log.Logger) *LedgerUsecase {
	return &LedgerUsecase{
		repo: repo,
		now:  time.Now,
		log:  log.NewHelper(logger),
	}
}

// Record inserts tx as a new pending transaction.
func (uc *LedgerUsecase) Record(ctx context.Context, tx *Transaction) error {
	now := uc.now().UTC()
	tx.Status = StatusPending
	tx.CreatedAt = now
	tx.UpdatedAt = now
	tx.CompletedAt = nil

	if err := uc.repo.Create(ctx, tx); err != nil {
		if stderrors.Is(err, ErrOrderRefConflict) {
			uc.log.WithContext(ctx).Errorf("Duplicate order reference %s: %v", tx.OrderRef, err)
			return errors.ErrorDuplicateOrderReference("failed to initialize subscription purchase")
		}
		uc.log.WithContext(ctx).Errorf("Failed to record transaction %s: %v", tx.OrderRef, err)
		return errors.ErrorLedgerWriteFailed("failed to initialize subscription purchase")
	}
	uc.log.WithContext(ctx).Infof("Recorded pending transaction: orderRef=%s, amount=%s, tokens=%d", tx.OrderRef, tx.Charge(), tx.Tokens)
	return nil
}

// Get 查询交易
func (uc *LedgerUsecase) Get(ctx context.Context, orderRef string) (*Transaction, error) {
	tx, err := uc.repo.Get(ctx, orderRef)
	if err != nil {
		uc.log.WithContext(ctx).Errorf("Failed to get transaction %s: %v", orderRef, err)
		return nil, errors.ErrorLedgerReadFailed("failed to load transaction")
	}
	if tx == nil {
		return nil, errors.ErrorTransactionNotFound("transaction %s not found", orderRef)
	}
	return tx, nil
}

// ListByPayer 分页查询用户交易
func (uc *LedgerUsecase) ListByPayer(ctx context.Context, payerID string, page, pageSize int) ([]*Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > constants.MaxPageSize {
		pageSize = constants.DefaultPageSize
	}
	items, total, err := uc.repo.ListByPayer(ctx, payerID, page, pageSize)
	if err != nil {
		uc.log.WithContext(ctx).Errorf("Failed to list transactions for %s: %v", payerID, err)
		return nil, 0, errors.ErrorLedgerReadFailed("failed to list transactions")
	}
	return items, total, nil
}

// load is Get for the write path: a store failure surfaces as a failed write.
func (uc *LedgerUsecase) load(ctx context.Context, orderRef string) (*Transaction, error) {
	tx, err := uc.Get(ctx, orderRef)
	if errors.IsLedgerReadFailed(err) {
		return nil, errors.ErrorLedgerWriteFailed("failed to update transaction")
	}
	return tx, err
}

// UpdateStatus moves a pending transaction into a terminal state. Replaying
// the transition the row already went through is a no-op.
func (uc *LedgerUsecase) UpdateStatus(ctx context.Context, orderRef string, target TransactionStatus) (*Transaction, error) {
	current, err := uc.load(ctx, orderRef)
	if err != nil {
		return nil, err
	}
	if current.Status == target && target.IsTerminal() {
		uc.log.WithContext(ctx).Infof("Transaction %s already %s, skipping (idempotent)", orderRef, target)
		return current, nil
	}
	if !CanTransition(current.Status, target) {
		return nil, errors.ErrorInvalidStateTransition("cannot move transaction %s from %s to %s", orderRef, current.Status, target)
	}

	now := uc.now().UTC()
	ok, err := uc.repo.TransitionStatus(ctx, orderRef, current.Status, target, now)
	if err != nil {
		uc.log.WithContext(ctx).Errorf("Failed to update transaction %s to %s: %v", orderRef, target, err)
		return nil, errors.ErrorLedgerWriteFailed("failed to update transaction")
	}
	if !ok {
		// lost a race with another writer
		latest, err := uc.load(ctx, orderRef)
		if err != nil {
			return nil, err
		}
		if latest.Status == target {
			return latest, nil
		}
		return nil, errors.ErrorInvalidStateTransition("cannot move transaction %s from %s to %s", orderRef, latest.Status, target)
	}

	current.Status = target
	current.UpdatedAt = now
	current.CompletedAt = &now
	uc.log.WithContext(ctx).Infof("Transaction %s moved to %s", orderRef, target)
	return current, nil
}

// ExpireStalePending expires pending transactions created more than olderThan
// ago. Rows confirmed concurrently are skipped.
func (uc *LedgerUsecase) ExpireStalePending(ctx context.Context, olderThan time.Duration, batch int) (int, []string, error) {
	if olderThan <= 0 {
		return 0, nil, stderrors.New("ledger: olderThan must be positive")
	}
	cutoff := uc.now().UTC().Add(-olderThan)
	refs, err := uc.repo.ListStalePending(ctx, cutoff, batch)
	if err != nil {
		uc.log.WithContext(ctx).Errorf("Failed to list stale pending transactions: %v", err)
		return 0, nil, errors.ErrorLedgerReadFailed("failed to list stale pending transactions")
	}

	expired := make([]string, 0, len(refs))
	for _, ref := range refs {
		if _, err := uc.UpdateStatus(ctx, ref, StatusExpired); err != nil {
			if errors.IsInvalidStateTransition(err) {
				continue
			}
			uc.log.WithContext(ctx).Errorf("Failed to expire transaction %s: %v", ref, err)
			continue
		}
		expired = append(expired, ref)
	}
	uc.log.WithContext(ctx).Infof("Expired %d stale pending transactions (cutoff %s)", len(expired), cutoff.Format(time.RFC3339))
	return len(expired), expired, nil
}

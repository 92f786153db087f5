package biz

import (
	"context"
	"time"

	"xinyuan_tech/purchase-service/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
)

const sweepBatchSize = 500

// SweepResult 过期扫描结果
type SweepResult struct {
	Skipped   bool
	Expired   int
	OrderRefs []string
}

// SweepUsecase expires transactions left pending past a configured age.
type SweepUsecase struct {
	ledger *LedgerUsecase
	rs     *redsync.Redsync
	log    *log.Helper
}

// NewSweepUsecase 创建过期扫描
func NewSweepUsecase(ledger *LedgerUsecase, rs *redsync.Redsync, logger log.Logger) *SweepUsecase {
	return &SweepUsecase{
		ledger: ledger,
		rs:     rs,
		log:    log.NewHelper(logger),
	}
}

// ExpireStalePending runs one sweep under a distributed lock so only one
// instance works at a time.
func (uc *SweepUsecase) ExpireStalePending(ctx context.Context, olderThan time.Duration) (*SweepResult, error) {
	mutex := uc.rs.NewMutex(
		constants.SweepLockKey,
		redsync.WithExpiry(constants.SweepLockExpiration),
		redsync.WithTries(constants.SweepLockRetries),
	)
	if err := mutex.LockContext(ctx); err != nil {
		uc.log.WithContext(ctx).Infof("Skipping pending sweep: lock busy (%v)", err)
		return &SweepResult{Skipped: true}, nil
	}
	defer func() {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			uc.log.WithContext(ctx).Warnf("Failed to release sweep lock: %v", err)
		}
	}()

	count, refs, err := uc.ledger.ExpireStalePending(ctx, olderThan, sweepBatchSize)
	if err != nil {
		return nil, err
	}
	return &SweepResult{Expired: count, OrderRefs: refs}, nil
}

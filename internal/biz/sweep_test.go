package biz

import (
	"context"
	"testing"
	"time"

	"xinyuan_tech/purchase-service/internal/constants"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedsync(t *testing.T) (*redsync.Redsync, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redsync.New(goredis.NewPool(client)), mr
}

func TestSweep_ExpiresStalePending(t *testing.T) {
	ctx := context.Background()
	rs, _ := newTestRedsync(t)
	repo := newMemRepo()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ledger := newTestLedger(repo, created)
	require.NoError(t, ledger.Record(ctx, pendingTx("old")))
	ledger.now = func() time.Time { return created.Add(2 * time.Hour) }

	uc := NewSweepUsecase(ledger, rs, testLogger)
	res, err := uc.ExpireStalePending(ctx, time.Hour)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 1, res.Expired)
	assert.Equal(t, []string{"old"}, res.OrderRefs)
}

func TestSweep_SkipsWhenLocked(t *testing.T) {
	ctx := context.Background()
	rs, _ := newTestRedsync(t)
	ledger := newTestLedger(newMemRepo(), time.Now())

	held := rs.NewMutex(constants.SweepLockKey, redsync.WithExpiry(time.Minute))
	require.NoError(t, held.LockContext(ctx))
	defer held.UnlockContext(ctx)

	uc := NewSweepUsecase(ledger, rs, testLogger)
	res, err := uc.ExpireStalePending(ctx, time.Hour)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}

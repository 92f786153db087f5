package data

import (
	"context"
	"testing"
	"time"

	"xinyuan_tech/purchase-service/internal/constants"
	"xinyuan_tech/purchase-service/internal/data/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPlan(t *testing.T, d *Data, id string, active bool) {
	t.Helper()
	require.NoError(t, d.db.Create(&model.SubscriptionPlan{
		PlanID:     id,
		Name:       "Pro",
		BasePrice:  decimal.NewFromInt(20),
		Currency:   "CNY",
		BaseTokens: 1000,
		Active:     true,
	}).Error)
	if !active {
		require.NoError(t, d.db.Model(&model.SubscriptionPlan{}).Where("plan_id = ?", id).Update("active", false).Error)
	}
}

func TestPlanRepo_FindPlanCachesResult(t *testing.T) {
	d, mr := newTestData(t)
	seedPlan(t, d, "pro", true)
	repo := NewPlanRepo(d, testLogger)
	ctx := context.Background()

	plan, err := repo.FindPlan(ctx, "pro")
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, "Pro", plan.Name)
	assert.True(t, plan.BasePrice.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, int64(1000), plan.BaseTokens)
	assert.True(t, plan.Active)
	assert.True(t, mr.Exists("purchase:plan:pro"))

	// served from cache once the row is gone
	require.NoError(t, d.db.Where("plan_id = ?", "pro").Delete(&model.SubscriptionPlan{}).Error)
	plan, err = repo.FindPlan(ctx, "pro")
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.True(t, plan.BasePrice.Equal(decimal.NewFromInt(20)))
}

func TestPlanRepo_FindPlanMissingIsNullCached(t *testing.T) {
	d, mr := newTestData(t)
	repo := NewPlanRepo(d, testLogger)
	ctx := context.Background()

	plan, err := repo.FindPlan(ctx, "enterprise")
	require.NoError(t, err)
	assert.Nil(t, plan)

	val, err := mr.Get("purchase:plan:enterprise")
	require.NoError(t, err)
	assert.Equal(t, nullPlan, val)

	plan, err = repo.FindPlan(ctx, "enterprise")
	require.NoError(t, err)
	assert.Nil(t, plan)
}

func TestPlanRepo_FindPlanInactive(t *testing.T) {
	d, _ := newTestData(t)
	seedPlan(t, d, "legacy", false)
	repo := NewPlanRepo(d, testLogger)

	plan, err := repo.FindPlan(context.Background(), "legacy")
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.False(t, plan.Active)
}

func TestPlanRepo_RedisDownFallsThrough(t *testing.T) {
	d, mr := newTestData(t)
	seedPlan(t, d, "pro", true)
	mr.Close()
	repo := NewPlanRepo(d, testLogger)

	plan, err := repo.FindPlan(context.Background(), "pro")
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, "pro", plan.ID)
}

func TestPlanRepo_DeactivationVisibleAfterTTL(t *testing.T) {
	d, mr := newTestData(t)
	seedPlan(t, d, "pro", true)
	repo := NewPlanRepo(d, testLogger)
	ctx := context.Background()

	plan, err := repo.FindPlan(ctx, "pro")
	require.NoError(t, err)
	require.True(t, plan.Active)
	assert.LessOrEqual(t, mr.TTL("purchase:plan:pro"), constants.PlanCacheExpiration+time.Duration(constants.CacheRandomMaxSeconds)*time.Second)

	require.NoError(t, d.db.Model(&model.SubscriptionPlan{}).Where("plan_id = ?", "pro").Update("active", false).Error)
	plan, err = repo.FindPlan(ctx, "pro")
	require.NoError(t, err)
	assert.True(t, plan.Active, "cached entry still served")

	mr.FastForward(constants.PlanCacheExpiration + time.Duration(constants.CacheRandomMaxSeconds)*time.Second)
	plan, err = repo.FindPlan(ctx, "pro")
	require.NoError(t, err)
	assert.False(t, plan.Active)
}

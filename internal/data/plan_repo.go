package data

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math/rand/v2"
	"time"

	"xinyuan_tech/purchase-service/internal/biz"
	"xinyuan_tech/purchase-service/internal/constants"
	"xinyuan_tech/purchase-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// nullPlan marks a plan id known to be absent (防止缓存穿透)
const nullPlan = "null"

// planRepo 套餐目录 (数据库 + Redis 旁路缓存)
type planRepo struct {
	data *Data
	log  *log.Helper
}

// NewPlanRepo 创建套餐目录
func NewPlanRepo(data *Data, logger log.Logger) biz.PlanCatalog {
	return &planRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func planCacheKey(planID string) string {
	return constants.PlanCacheKeyPrefix + planID
}

// cacheTTL adds a random offset so cached plans do not all expire together.
func cacheTTL() time.Duration {
	return constants.PlanCacheExpiration + time.Duration(rand.IntN(constants.CacheRandomMaxSeconds))*time.Second
}

// FindPlan 查询套餐, 先读缓存. Cache failures fall through to the database.
// A deactivated plan may still read as active until its cache entry expires,
// at most PlanCacheExpiration plus jitter.
func (r *planRepo) FindPlan(ctx context.Context, planID string) (*biz.Plan, error) {
	if plan, hit := r.fromCache(ctx, planID); hit {
		return plan, nil
	}

	var m model.SubscriptionPlan
	err := r.data.db.WithContext(ctx).Where("plan_id = ?", planID).First(&m).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		r.toCache(ctx, planID, nil)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find plan %s: %w", planID, err)
	}

	plan := &biz.Plan{
		ID:         m.PlanID,
		Name:       m.Name,
		BasePrice:  m.BasePrice,
		Currency:   m.Currency,
		BaseTokens: m.BaseTokens,
		Active:     m.Active,
	}
	r.toCache(ctx, planID, plan)
	return plan, nil
}

func (r *planRepo) fromCache(ctx context.Context, planID string) (*biz.Plan, bool) {
	if r.data.rdb == nil {
		return nil, false
	}
	val, err := r.data.rdb.Get(ctx, planCacheKey(planID)).Result()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			r.log.WithContext(ctx).Warnf("Failed to read plan cache %s: %v", planID, err)
		}
		return nil, false
	}
	if val == nullPlan {
		return nil, true
	}
	var plan biz.Plan
	if err := json.Unmarshal([]byte(val), &plan); err != nil {
		r.log.WithContext(ctx).Warnf("Corrupt plan cache entry %s: %v", planID, err)
		return nil, false
	}
	return &plan, true
}

func (r *planRepo) toCache(ctx context.Context, planID string, plan *biz.Plan) {
	if r.data.rdb == nil {
		return
	}
	val, ttl := nullPlan, constants.NullCacheExpiration
	if plan != nil {
		b, err := json.Marshal(plan)
		if err != nil {
			return
		}
		val, ttl = string(b), cacheTTL()
	}
	if err := r.data.rdb.Set(ctx, planCacheKey(planID), val, ttl).Err(); err != nil {
		r.log.WithContext(ctx).Warnf("Failed to write plan cache %s: %v", planID, err)
	}
}

package data

import (
	"fmt"

	"xinyuan_tech/purchase-service/internal/conf"
	"xinyuan_tech/purchase-service/internal/data/model"

	"github.com/glebarez/sqlite"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewDB,
	NewRedis,
	NewRedsync,
	NewPlanRepo,
	NewTransactionRepo,
	NewPaymentProvider,
)

// Data .
type Data struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewData .
func NewData(c *conf.Bootstrap, logger log.Logger, db *gorm.DB, rdb *redis.Client) (*Data, func(), error) {
	helper := log.NewHelper(logger)
	if c.Data != nil && c.Data.Database.AutoMigrate {
		if err := db.AutoMigrate(&model.SubscriptionPlan{}, &model.UserTransaction{}); err != nil {
			return nil, nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	cleanup := func() {
		helper.Info("closing the data resources")
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		if rdb != nil {
			_ = rdb.Close()
		}
	}
	return &Data{db: db, rdb: rdb}, cleanup, nil
}

// NewDB opens the ledger database. The sqlite driver is meant for local
// development only.
func NewDB(c *conf.Bootstrap) (*gorm.DB, error) {
	if c == nil || c.Data == nil || c.Data.Database.Source == "" {
		return nil, fmt.Errorf("database source is required")
	}
	dbConf := c.Data.Database

	var dialector gorm.Dialector
	switch dbConf.Driver {
	case "", "mysql":
		dialector = mysql.Open(dbConf.Source)
	case "sqlite":
		dialector = sqlite.Open(dbConf.Source)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dbConf.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if dbConf.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbConf.MaxIdleConns)
	}
	if dbConf.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dbConf.MaxOpenConns)
	}
	lifetime, err := conf.ParseDuration(dbConf.ConnMaxLifetime, 0)
	if err != nil {
		return nil, fmt.Errorf("data.database.conn_max_lifetime: %w", err)
	}
	if lifetime > 0 {
		sqlDB.SetConnMaxLifetime(lifetime)
	}
	return db, nil
}

// NewRedis .
func NewRedis(c *conf.Bootstrap) (*redis.Client, error) {
	opts := &redis.Options{Addr: "localhost:6379"}
	if c != nil && c.Data != nil {
		redisConf := c.Data.Redis
		if redisConf.Addr != "" {
			opts.Addr = redisConf.Addr
		}
		opts.Password = redisConf.Password
		opts.DB = int(redisConf.Db)
		opts.PoolSize = int(redisConf.PoolSize)

		var err error
		if opts.ReadTimeout, err = conf.ParseDuration(redisConf.ReadTimeout, 0); err != nil {
			return nil, fmt.Errorf("data.redis.read_timeout: %w", err)
		}
		if opts.WriteTimeout, err = conf.ParseDuration(redisConf.WriteTimeout, 0); err != nil {
			return nil, fmt.Errorf("data.redis.write_timeout: %w", err)
		}
		if opts.DialTimeout, err = conf.ParseDuration(redisConf.DialTimeout, 0); err != nil {
			return nil, fmt.Errorf("data.redis.dial_timeout: %w", err)
		}
	}
	return redis.NewClient(opts), nil
}

// NewRedsync 创建 redsync 实例
func NewRedsync(rdb *redis.Client) *redsync.Redsync {
	pool := goredis.NewPool(rdb)
	return redsync.New(pool)
}

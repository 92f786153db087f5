package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"xinyuan_tech/purchase-service/internal/conf"
	"xinyuan_tech/purchase-service/internal/logger"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
	_ "go.uber.org/automaxprocs"
)

const sweepJobTimeout = 5 * time.Minute

var (
	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	// 初始化配置
	c := config.New(
		config.WithSource(
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}

	zl, closeLog, err := logger.NewLogger(bc.Log)
	if err != nil {
		panic(err)
	}
	defer closeLog()
	l := log.With(zl,
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", "purchase-cron",
	)
	helper := log.NewHelper(l)

	// 未配置则不运行, 没有默认的扫描周期与过期时间
	if !bc.SweepEnabled() {
		helper.Info("[CRON] sweep.schedule / sweep.pending_ttl not configured, nothing to do")
		return
	}
	ttl, err := bc.SweepPendingTTL()
	if err != nil {
		panic(err)
	}

	// 初始化应用
	app, cleanup, err := wireApp(&bc, l)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// 创建定时任务调度器（支持秒级调度）
	cronScheduler := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{helper})),
		cron.WithLogger(cronLogger{helper}),
	)

	// 过期待支付交易扫描
	_, err = cronScheduler.AddFunc(bc.Sweep.Schedule, func() {
		helper.Info("[CRON] Starting stale pending sweep...")
		ctx, cancel := context.WithTimeout(context.Background(), sweepJobTimeout)
		defer cancel()

		res, err := app.sweep.ExpireStalePending(ctx, ttl)
		switch {
		case err != nil:
			helper.Errorf("[CRON] Error expiring stale transactions: %v", err)
		case res.Skipped:
			helper.Info("[CRON] Sweep skipped, another instance holds the lock")
		default:
			helper.Infof("[CRON] Expired %d stale transactions: %v", res.Expired, res.OrderRefs)
		}
	})
	if err != nil {
		panic(err)
	}

	// 启动定时任务
	cronScheduler.Start()
	helper.Infof("[CRON] Stale pending sweep scheduled: %q, pending_ttl=%s", bc.Sweep.Schedule, ttl)

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	helper.Info("Shutting down gracefully...")

	// 停止定时任务
	ctx := cronScheduler.Stop()
	select {
	case <-ctx.Done():
		helper.Info("Cron jobs stopped gracefully")
	case <-time.After(5 * time.Second):
		helper.Warn("Cron jobs forced to stop after timeout")
	}
}

// cronLogger routes robfig/cron's own logging through kratos.
type cronLogger struct {
	h *log.Helper
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.h.Debugw(append([]interface{}{log.DefaultMessageKey, msg}, keysAndValues...)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.h.Errorw(append([]interface{}{log.DefaultMessageKey, msg, "error", err}, keysAndValues...)...)
}

package main

import "xinyuan_tech/purchase-service/internal/biz"

// CronApp Cron 应用结构
type CronApp struct {
	sweep *biz.SweepUsecase
}

//go:build wireinject
// +build wireinject

package main

import (
	"xinyuan_tech/purchase-service/internal/biz"
	"xinyuan_tech/purchase-service/internal/conf"
	"xinyuan_tech/purchase-service/internal/data"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp 初始化应用
func wireApp(*conf.Bootstrap, log.Logger) (*CronApp, func(), error) {
	panic(wire.Build(
		// Data 层
		data.ProviderSet,

		// Biz 层
		biz.ProviderSet,

		// App 结构
		wire.Struct(new(CronApp), "*"),
	))
}

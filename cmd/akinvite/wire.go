//go:build wireinject
// +build wireinject

package main

import (
	"github.com/go-arcade/akinvite/internal/bootstrap"
	"github.com/go-arcade/akinvite/internal/chat"
	"github.com/go-arcade/akinvite/internal/config"
	"github.com/go-arcade/akinvite/internal/invite"
	"github.com/go-arcade/akinvite/internal/pkg/authentik"
	"github.com/go-arcade/akinvite/internal/router"
	"github.com/go-arcade/akinvite/pkg/http/middleware"
	"github.com/go-arcade/akinvite/pkg/log"
	"github.com/go-arcade/akinvite/pkg/metrics"
	"github.com/google/wire"
)

func initApp(configPath string) (*bootstrap.App, func(), error) {
	panic(wire.Build(
		// 配置层
		config.ProviderSet,
		// 日志层（依赖 config）
		log.ProviderSet,
		// 指标层（依赖 config）
		metrics.ProviderSet,
		// 身份提供方客户端（依赖 config）
		authentik.ProviderSet,
		// 邀请服务（依赖 authentik）
		invite.ProviderSet,
		// 聊天机器人（依赖 config, invite）
		chat.ProviderSet,
		middleware.ProviderSet,
		router.ProviderSet,
		// 应用层
		bootstrap.NewApp,
	))
}

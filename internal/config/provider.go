package config

import (
	"time"

	"github.com/go-arcade/akinvite/internal/chat"
	"github.com/go-arcade/akinvite/internal/invite"
	"github.com/go-arcade/akinvite/internal/pkg/authentik"
	"github.com/go-arcade/akinvite/pkg/http"
	"github.com/go-arcade/akinvite/pkg/log"
	"github.com/go-arcade/akinvite/pkg/metrics"
	"github.com/google/wire"
)

// ProviderSet is a Wire provider set for configuration
var ProviderSet = wire.NewSet(
	NewConf,
	ProvideHttpConfig,
	ProvideLogConfig,
	ProvideMetricsConfig,
	ProvideMatrixConfig,
	ProvideInviteConfig,
	ProvideBotConfig,
	ProvideAuthentikConfig,
)

// ProvideHttpConfig 提供 HTTP 配置
func ProvideHttpConfig(appConf AppConfig) *http.Http {
	httpConfig := appConf.Http
	httpConfig.SetDefaults()
	return &httpConfig
}

// ProvideLogConfig 提供日志配置
func ProvideLogConfig(appConf AppConfig) *log.Conf {
	logConf := appConf.Log
	return &logConf
}

// ProvideMetricsConfig 提供 Metrics 配置
func ProvideMetricsConfig(appConf AppConfig) metrics.MetricsConfig {
	return appConf.Metrics
}

func ProvideMatrixConfig(appConf AppConfig) *chat.MatrixConf {
	matrixConf := appConf.Matrix
	matrixConf.SetDefaults()
	return &matrixConf
}

// ProvideInviteConfig maps [invite] onto the service's read-only config.
func ProvideInviteConfig(appConf AppConfig) invite.Config {
	ic := appConf.Invite
	return invite.Config{
		AkURL:          ic.AkURL,
		FlowID:         ic.FlowID,
		ExpirationDays: ic.Expiration,
		Message:        ic.Message,
		Policy: invite.Policy{
			Allowed:    ic.AllowedUsers,
			Disallowed: ic.DisallowedUsers,
		},
	}
}

func ProvideBotConfig(appConf AppConfig) chat.BotConfig {
	return chat.BotConfig{
		Aliases:     appConf.Invite.CommandAliases,
		Prefix:      appConf.Invite.CommandPrefix,
		SyncTimeout: time.Duration(appConf.Matrix.SyncTimeout) * time.Second,
	}
}

func ProvideAuthentikConfig(appConf AppConfig) authentik.Conf {
	return authentik.Conf{
		URL:        appConf.Invite.AkURL,
		AdminToken: appConf.Invite.AdminToken,
	}
}

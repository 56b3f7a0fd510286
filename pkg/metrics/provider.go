package metrics

import (
	"github.com/go-arcade/akinvite/pkg/log"
	"github.com/google/wire"
)

// ProviderSet is a Wire provider set for metrics
var ProviderSet = wire.NewSet(
	NewMetricsServer,
)

// NewMetricsServer creates a new metrics server from config
func NewMetricsServer(config MetricsConfig) *Server {
	server := NewServer(config)
	if err := SetupInviteMetrics(server); err != nil {
		log.Warnw("failed to register invitation metrics", "error", err)
	}
	return server
}

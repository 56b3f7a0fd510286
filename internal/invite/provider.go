package invite

import (
	"github.com/go-arcade/akinvite/internal/pkg/authentik"
	"github.com/google/wire"
)

// ProviderSet binds the authentik client as the service's Provider.
var ProviderSet = wire.NewSet(
	ProvideService,
	wire.Bind(new(Provider), new(*authentik.Client)),
)

func ProvideService(cfg Config, provider Provider) *Service {
	return NewService(cfg, provider)
}

package chat

import (
	"github.com/google/wire"
)

// ProviderSet wires the bot onto the Matrix transport.
var ProviderSet = wire.NewSet(
	NewMatrixTransport,
	wire.Bind(new(Transport), new(*MatrixTransport)),
	NewBot,
)

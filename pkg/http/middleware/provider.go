package middleware

import (
	"github.com/google/wire"
)

// ProviderSet 提供中间件相关的依赖
var ProviderSet = wire.NewSet(ProvideRateLimiter)

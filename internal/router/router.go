package router

import (
	"embed"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/akinvite/internal/invite"
	"github.com/go-arcade/akinvite/pkg/http"
	"github.com/go-arcade/akinvite/pkg/http/middleware"
	"github.com/go-arcade/akinvite/pkg/version"
	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/9/8 15:48
 * @file: router.go
 * @description: router
 */

//go:embed static
var web embed.FS

type Router struct {
	Http        *http.Http
	Invite      *invite.Service
	RateLimiter *middleware.RateLimiter
}

func NewRouter(httpConf *http.Http, svc *invite.Service, rl *middleware.RateLimiter) *Router {
	return &Router{
		Http:        httpConf,
		Invite:      svc,
		RateLimiter: rl,
	}
}

func (rt *Router) Router(sugar *zap.SugaredLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "akinvite",
		DisableStartupMessage: true,
		ReadTimeout:           http.Timeout(rt.Http.ReadTimeout),
		WriteTimeout:          http.Timeout(rt.Http.WriteTimeout),
		IdleTimeout:           http.Timeout(rt.Http.IdleTimeout),
		BodyLimit:             rt.Http.BodyLimit,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
	})

	app.Use(
		fiberrecover.New(),
		middleware.RequestMiddleware(),
		middleware.RealIPMiddleware(),
		http.AccessLogFormat(rt.Http, sugar),
		middleware.ExceptionMiddleware,
	)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(version.GetVersion())
	})

	app.Get("/generate", rt.generateForm)
	app.Post("/generate", rt.RateLimiter.Handler(), rt.generate)

	// 找不到路径时的处理 - 必须在所有路由注册之后
	app.Use(func(c *fiber.Ctx) error {
		return http.WithRepCode(c, http.NotFound)
	})

	return app
}

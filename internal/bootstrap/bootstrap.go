package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-arcade/akinvite/internal/chat"
	"github.com/go-arcade/akinvite/internal/config"
	"github.com/go-arcade/akinvite/internal/router"
	"github.com/go-arcade/akinvite/pkg/http"
	"github.com/go-arcade/akinvite/pkg/http/middleware"
	"github.com/go-arcade/akinvite/pkg/log"
	"github.com/go-arcade/akinvite/pkg/metrics"
	"github.com/go-arcade/akinvite/pkg/safe"
	"github.com/gofiber/fiber/v2"
)

type App struct {
	HttpApp       *fiber.App
	Bot           *chat.Bot
	MetricsServer *metrics.Server
	RateLimiter   *middleware.RateLimiter
	Logger        *log.Logger
	AppConf       config.AppConfig
}

// InitAppFunc init app function type
type InitAppFunc func(configPath string) (*App, func(), error)

func NewApp(
	rt *router.Router,
	bot *chat.Bot,
	metricsServer *metrics.Server,
	rateLimiter *middleware.RateLimiter,
	logger *log.Logger,
	appConf config.AppConfig,
) (*App, func(), error) {
	httpApp := rt.Router(logger.Log)

	cleanup := func() {
		// stop metrics server
		if metricsServer != nil {
			log.Info("Shutting down metrics server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Stop(shutdownCtx); err != nil {
				log.Errorw("Failed to stop metrics server", "error", err)
			}
		}
		_ = logger.Log.Sync()
	}

	app := &App{
		HttpApp:       httpApp,
		Bot:           bot,
		MetricsServer: metricsServer,
		RateLimiter:   rateLimiter,
		Logger:        logger,
		AppConf:       appConf,
	}
	return app, cleanup, nil
}

// Bootstrap init app, return App instance and cleanup function
func Bootstrap(configFile string, initApp InitAppFunc) (*App, func(), config.AppConfig, error) {
	// Wire build App (所有依赖都由 wire 自动注入)
	app, cleanup, err := initApp(configFile)
	if err != nil {
		return nil, nil, config.AppConfig{}, err
	}
	return app, cleanup, app.AppConf, nil
}

// Run start app and wait for exit signal, then gracefully shutdown
func Run(app *App, cleanup func()) {
	appConf := app.AppConf
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start metrics server
	if app.MetricsServer != nil {
		if err := app.MetricsServer.Start(); err != nil {
			log.Errorw("Metrics server failed", "error", err)
		}
	}

	safe.Go(func() { app.RateLimiter.Run(ctx) })

	// start chat bot
	botDone := make(chan struct{})
	if appConf.Matrix.Enable {
		safe.Go(func() {
			defer close(botDone)
			if err := app.Bot.Run(ctx); err != nil {
				log.Errorw("chat bot failed", "error", err)
			}
		})
	} else {
		close(botDone)
		log.Info("chat bot is disabled")
	}

	// set signal listener (graceful shutdown)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// start HTTP server (async)
	if appConf.Http.Enable {
		safe.Go(func() {
			addr := appConf.Http.Addr()
			log.Infow("HTTP listener started", "address", addr)
			if err := app.HttpApp.Listen(addr); err != nil {
				log.Errorw("HTTP listener failed",
					"address", addr,
					"error", err,
				)
			}
		})
	} else {
		log.Info("HTTP form is disabled")
	}

	// wait for exit signal
	sig := <-quit
	log.Infow("Received signal, shutting down gracefully...", "signal", sig.String())
	cancel()

	shutdownTimeout := http.Timeout(appConf.Http.ShutdownTimeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// close HTTP server
	if appConf.Http.Enable {
		if err := app.HttpApp.ShutdownWithContext(shutdownCtx); err != nil {
			log.Errorw("HTTP server shutdown error", "error", err)
		} else {
			log.Info("HTTP server shut down gracefully")
		}
	}

	// wait for in-flight chat commands
	select {
	case <-botDone:
	case <-shutdownCtx.Done():
		log.Warn("chat bot did not stop before the shutdown timeout")
	}

	cleanup()

	log.Info("Server shutdown complete")
}

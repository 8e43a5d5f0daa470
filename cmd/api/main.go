package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/onsite-notifier/internal/api/http"
	"github.com/spec-kit/onsite-notifier/internal/api/http/handlers"
	"github.com/spec-kit/onsite-notifier/internal/chat"
	"github.com/spec-kit/onsite-notifier/internal/config"
	"github.com/spec-kit/onsite-notifier/internal/helpdesk"
	"github.com/spec-kit/onsite-notifier/internal/observability"
	"github.com/spec-kit/onsite-notifier/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	helpdeskClient := helpdesk.NewClient(cfg.Helpdesk, logger)
	chatClient := chat.NewClient(cfg.Chat, logger)

	pipe := pipeline.New(cfg, pipeline.Dependencies{
		Fetcher: helpdeskClient,
		Sender:  chatClient,
	}, logger, metrics)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, chatClient),
		Webhook: handlers.NewWebhookHandler(pipe, cfg.Webhook, logger),
		Metrics: handlers.NewMetricsHandler(metrics),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourname/aquaguide/internal"
	"github.com/yourname/aquaguide/internal/advice"
	"github.com/yourname/aquaguide/internal/api"
	"github.com/yourname/aquaguide/internal/auth"
	"github.com/yourname/aquaguide/internal/config"
	"github.com/yourname/aquaguide/internal/metrics"
	"github.com/yourname/aquaguide/internal/notify"
	"github.com/yourname/aquaguide/internal/service"
	"github.com/yourname/aquaguide/internal/storage"
)

func main() {
	cfg := config.Load()
	logger, err := internal.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init storage: %v", err)
	}
	defer store.Close()

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.RedisAddr != "" {
		rn, err := notify.NewRedisNotifier(ctx, cfg.RedisAddr, cfg.RedisChannel, logger)
		if err != nil {
			logger.Warnf("redis notifier disabled: %v", err)
		} else {
			notifier = rn
		}
	}
	defer notifier.Close()

	var generator advice.Generator = advice.StaticGenerator{}
	if cfg.AdviceURL != "" {
		generator = advice.NewHTTPGenerator(cfg.AdviceURL, cfg.AdviceAPIKey, logger)
	}

	provider, err := auth.NewProvider(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init auth: %v", err)
	}

	m := metrics.New()
	manager := service.NewBatchManager(store, logger, service.WithNotifier(notifier), service.WithMetrics(m))
	app := api.NewApp(logger, manager, generator, m)

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(app, auth.AuthMiddleware(provider), cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("server running on %s (storage=%s, auth=%s)", cfg.HTTPAddr, cfg.DBType, cfg.AuthMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	deliveryHTTP "rpchealth/internal/adapter/delivery/http"
	handlerHTTP "rpchealth/internal/adapter/handler/http"
	"rpchealth/internal/app"
	"rpchealth/internal/config"
	"rpchealth/internal/domain/entity"
	"rpchealth/internal/logger"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfgPath := flag.String("config", "configs", "directory containing config.yaml")
	flag.Parse()

	// --- Configuration ---
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration from %s: %v", *cfgPath, err)
	}

	// --- Logger ---
	appLogger, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to setup logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	appLogger.Info("Logger initialized", zap.Any("config", cfg.Logger))

	// --- Dependency Injection (Manual) ---
	appLogger.Info("Initializing dependencies...")
	healthService, err := app.NewHealthService(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize health service", zap.Error(err))
	}
	healthHandler := handlerHTTP.NewHealthHandler(healthService, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Continuous mode ---
	if cfg.Checker.Continuous {
		mode, err := entity.ParseCheckMode(cfg.Checker.Mode)
		if err != nil {
			appLogger.Fatal("Invalid checker mode", zap.Error(err))
		}
		go healthService.RunContinuous(ctx, mode, cfg.Checker.GetRefreshInterval(), nil)
	}

	// --- HTTP Router & Server ---
	appLogger.Info("Setting up HTTP router...")
	r := router.New()
	var limiter *rate.Limiter
	if cfg.RateLimit.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), max(cfg.RateLimit.Burst, 1))
	}
	deliveryHTTP.RegisterRoutes(r, healthHandler, limiter, appLogger)

	server := &fasthttp.Server{
		Handler:      deliveryHTTP.Handler(r, appLogger),
		Name:         cfg.App.Name,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverAddr := ":" + cfg.Server.Port
	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("address", serverAddr))
		serveErr <- server.ListenAndServe(serverAddr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	case <-ctx.Done():
		appLogger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			appLogger.Error("HTTP server shutdown failed", zap.Error(err))
		}
	}
	appLogger.Info("Server stopped")
}

// Command probe runs endpoint health cycles from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rpchealth/internal/app"
	"rpchealth/internal/config"
	"rpchealth/internal/domain/entity"
	"rpchealth/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "configs", "directory containing config.yaml")
	modeFlag := flag.String("mode", "", "check mode: local or remote (defaults to checker.mode)")
	format := flag.String("format", formatTable, "output format: table or json")
	strict := flag.Bool("strict", false, "exit with status 1 when any endpoint is unhealthy")
	watch := flag.Bool("watch", false, "keep checking every checker.refresh_interval until interrupted")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration from %s: %v", *cfgPath, err)
	}
	appLogger, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to setup logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	rawMode := cfg.Checker.Mode
	if *modeFlag != "" {
		rawMode = *modeFlag
	}
	mode, err := entity.ParseCheckMode(rawMode)
	if err != nil {
		appLogger.Fatal("Invalid check mode", zap.Error(err))
	}
	render, err := rendererFor(*format)
	if err != nil {
		appLogger.Fatal("Invalid output format", zap.Error(err))
	}

	healthService, err := app.NewHealthService(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize health service", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *watch {
		healthService.RunContinuous(ctx, mode, cfg.Checker.GetRefreshInterval(), func(report entity.HealthReport) {
			if err := render(os.Stdout, report); err != nil {
				appLogger.Error("Failed to render report", zap.Error(err))
			}
		})
		return
	}

	report := healthService.CheckNow(ctx, mode)
	if err := render(os.Stdout, report); err != nil {
		appLogger.Fatal("Failed to render report", zap.Error(err))
	}
	if code := exitCode(report, *strict); code != 0 {
		_ = appLogger.Sync()
		stop()
		os.Exit(code)
	}
}

// exitCode is 2 when the cycle could not run and, under strict, 1 when any endpoint is unhealthy.
func exitCode(report entity.HealthReport, strict bool) int {
	if report.Error != "" {
		return 2
	}
	if strict && report.Summary().Unhealthy() > 0 {
		return 1
	}
	return 0
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags]\n\nProbes the configured RPC and WebSocket endpoints.\n\n", os.Args[0])
		flag.PrintDefaults()
	}
}

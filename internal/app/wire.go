// Package app assembles the health service from configuration.
package app

import (
	"fmt"

	"rpchealth/internal/adapter/remote"
	"rpchealth/internal/adapter/rpc"
	"rpchealth/internal/adapter/socket"
	"rpchealth/internal/adapter/storage/chainlist"
	"rpchealth/internal/adapter/storage/endpoints"
	"rpchealth/internal/adapter/storage/memory"
	"rpchealth/internal/application"
	"rpchealth/internal/application/port"
	"rpchealth/internal/config"
	domainRepo "rpchealth/internal/domain/repository"
	domainService "rpchealth/internal/domain/service"

	"go.uber.org/zap"
)

// NewHealthService wires the probers, endpoint source, remote client and report cache described by cfg.
func NewHealthService(cfg *config.Config, logger *zap.Logger) (port.HealthService, error) {
	endpointRepo, err := NewEndpointRepository(cfg, logger)
	if err != nil {
		return nil, err
	}

	var remoteProber domainService.RemoteRPCProber
	if cfg.Remote.URL != "" {
		remoteProber = remote.NewClient(cfg.Remote, nil, logger)
	}

	return application.NewHealthService(
		endpointRepo,
		memory.NewReportRepository(cfg.Cache, logger),
		rpc.NewProber(nil, logger),
		socket.NewProber(nil, logger),
		remoteProber,
		logger,
		cfg.Checker,
	), nil
}

// NewEndpointRepository returns the endpoint source selected by cfg.Endpoints.Source.
func NewEndpointRepository(cfg *config.Config, logger *zap.Logger) (domainRepo.EndpointRepository, error) {
	switch cfg.Endpoints.Source {
	case config.SourceStatic:
		return endpoints.NewStaticRepository(cfg.Endpoints), nil
	case config.SourceFile:
		return endpoints.NewFileRepository(cfg.Endpoints.File, logger), nil
	case config.SourceChainlist:
		chains := memory.NewChainRepository(
			chainlist.NewRepository(cfg.Chainlist, logger),
			cfg.Chainlist.GetCacheTTL(),
			logger,
		)
		return chainlist.NewEndpointRepository(chains, cfg.Endpoints.ChainID, logger), nil
	default:
		return nil, fmt.Errorf("unsupported endpoints source %q", cfg.Endpoints.Source)
	}
}

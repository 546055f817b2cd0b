package chainlist

import (
	"context"
	"fmt"

	"rpchealth/internal/domain"
	"rpchealth/internal/domain/entity"
	domainRepo "rpchealth/internal/domain/repository"

	"go.uber.org/zap"
)

// Compile-time check
var _ domainRepo.EndpointRepository = (*EndpointRepository)(nil)

// EndpointRepository derives the endpoint lists of a single chain from the registry.
type EndpointRepository struct {
	chains  domainRepo.ChainRepository
	chainID int64
	logger  *zap.Logger
}

// NewEndpointRepository selects chainID out of the chains served by chains.
func NewEndpointRepository(chains domainRepo.ChainRepository, chainID int64, logger *zap.Logger) *EndpointRepository {
	return &EndpointRepository{
		chains:  chains,
		chainID: chainID,
		logger:  logger.Named("ChainlistEndpoints"),
	}
}

// GetEndpoints returns the HTTP(S) and WS(S) endpoints registered for the configured chain.
func (r *EndpointRepository) GetEndpoints(ctx context.Context) (entity.EndpointConfig, error) {
	chains, err := r.chains.GetAllChains(ctx)
	if err != nil {
		return entity.EndpointConfig{}, fmt.Errorf("%w: %v", domain.ErrUpstreamSourceFailure, err)
	}

	for _, chain := range chains {
		if chain.ChainID != r.chainID {
			continue
		}
		endpoints := chain.Endpoints()
		r.logger.Debug("Resolved chain endpoints",
			zap.Int64("chainId", r.chainID),
			zap.String("name", chain.Name),
			zap.Int("rpcCount", len(endpoints.RPCURLs)),
			zap.Int("socketCount", len(endpoints.WSURLs)),
		)
		return endpoints, nil
	}

	r.logger.Warn("Chain not present in registry", zap.Int64("chainId", r.chainID))
	return entity.EndpointConfig{}, fmt.Errorf("%w: chain id %d", domain.ErrChainNotFound, r.chainID)
}

package repository

import (
	"context"

	"rpchealth/internal/domain/entity"
)

// EndpointRepository supplies the endpoints to probe.
type EndpointRepository interface {
	// GetEndpoints returns the current endpoint configuration.
	GetEndpoints(ctx context.Context) (entity.EndpointConfig, error)
}

// ChainRepository defines the interface for accessing chain registry data.
type ChainRepository interface {
	// GetAllChains retrieves the list of all chains from the underlying data source.
	GetAllChains(ctx context.Context) ([]entity.Chain, error)
}

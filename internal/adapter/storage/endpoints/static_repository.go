package endpoints

import (
	"context"

	"rpchealth/internal/config"
	"rpchealth/internal/domain/entity"
	domainRepo "rpchealth/internal/domain/repository"
)

// Compile-time check
var _ domainRepo.EndpointRepository = (*StaticRepository)(nil)

// StaticRepository serves the endpoint lists given in the application configuration.
type StaticRepository struct {
	endpoints entity.EndpointConfig
}

// NewStaticRepository copies the lists out of cfg; later changes to cfg are not observed.
func NewStaticRepository(cfg config.EndpointsConfig) *StaticRepository {
	return &StaticRepository{
		endpoints: entity.EndpointConfig{RPCURLs: cfg.RPCURLs, WSURLs: cfg.WSURLs}.Normalized(),
	}
}

// GetEndpoints returns a copy of the configured endpoint lists.
func (r *StaticRepository) GetEndpoints(_ context.Context) (entity.EndpointConfig, error) {
	return entity.EndpointConfig{
		RPCURLs: append([]string{}, r.endpoints.RPCURLs...),
		WSURLs:  append([]string{}, r.endpoints.WSURLs...),
	}, nil
}

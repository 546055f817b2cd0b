package endpoints

import (
	"context"
	"fmt"
	"os"

	"rpchealth/internal/domain/entity"
	domainRepo "rpchealth/internal/domain/repository"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Compile-time check
var _ domainRepo.EndpointRepository = (*FileRepository)(nil)

// FileRepository reads endpoint lists from a YAML document on every call,
// so edits to the file take effect on the next cycle.
//
//	rpcUrls:
//	  - https://eth.llamarpc.com
//	wsUrls:
//	  - wss://ethereum-rpc.publicnode.com
type FileRepository struct {
	path   string
	logger *zap.Logger
}

// NewFileRepository creates a repository backed by the YAML file at path.
func NewFileRepository(path string, logger *zap.Logger) *FileRepository {
	return &FileRepository{
		path:   path,
		logger: logger.Named("FileEndpoints"),
	}
}

// GetEndpoints parses the file. Absent lists come back empty.
func (r *FileRepository) GetEndpoints(_ context.Context) (entity.EndpointConfig, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return entity.EndpointConfig{}, fmt.Errorf("failed to read endpoints file %s: %w", r.path, err)
	}

	var cfg entity.EndpointConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return entity.EndpointConfig{}, fmt.Errorf("failed to parse endpoints file %s: %w", r.path, err)
	}

	cfg = cfg.Normalized()
	r.logger.Debug("Loaded endpoints file",
		zap.String("path", r.path),
		zap.Int("rpcCount", len(cfg.RPCURLs)),
		zap.Int("socketCount", len(cfg.WSURLs)),
	)
	return cfg, nil
}

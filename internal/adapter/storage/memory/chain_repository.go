package memory

import (
	"context"
	"fmt"
	"time"

	"rpchealth/internal/domain/entity"
	domainRepo "rpchealth/internal/domain/repository"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainRepo.ChainRepository = (*ChainRepository)(nil)

const allChainsKey = "all_chains_v1"

// ChainRepository caches the registry served by an upstream ChainRepository.
// Failed fetches are not cached.
type ChainRepository struct {
	upstream domainRepo.ChainRepository
	cache    *cache.Cache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewChainRepository wraps upstream with a cache whose entries live for ttl.
func NewChainRepository(upstream domainRepo.ChainRepository, ttl time.Duration, logger *zap.Logger) *ChainRepository {
	return &ChainRepository{
		upstream: upstream,
		cache:    cache.New(ttl, 2*ttl),
		ttl:      ttl,
		logger:   logger.Named("MemoryChainStorage"),
	}
}

// GetAllChains returns the cached registry, fetching it from upstream on a miss.
func (r *ChainRepository) GetAllChains(ctx context.Context) ([]entity.Chain, error) {
	if x, found := r.cache.Get(allChainsKey); found {
		if chains, ok := x.([]entity.Chain); ok {
			r.logger.Debug("Memory cache hit", zap.String("key", allChainsKey))
			return chains, nil
		}
		r.logger.Warn(
			"Memory cache data type mismatch for key",
			zap.String("key", allChainsKey), zap.Any("type", fmt.Sprintf("%T", x)),
		)
	}

	chains, err := r.upstream.GetAllChains(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.Set(allChainsKey, chains, r.ttl)
	r.logger.Debug("Memory cache set", zap.String("key", allChainsKey), zap.Int("count", len(chains)))
	return chains, nil
}

package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rpchealth/internal/config"
	"rpchealth/internal/domain/entity"
	domainRepo "rpchealth/internal/domain/repository"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainRepo.ReportRepository = (*ReportRepository)(nil)

const latestReportKey = "latest_report_v1"

// ReportRepository implements domainRepo.ReportRepository using the go-cache in-memory library.
type ReportRepository struct {
	mu         sync.Mutex // serializes the newer-than check with the write in SetLatest
	cache      *cache.Cache
	logger     *zap.Logger
	defaultTTL time.Duration
}

// NewReportRepository creates a new in-memory report repository instance.
func NewReportRepository(cfg config.CacheConfig, logger *zap.Logger) *ReportRepository {
	defaultExpiration := cfg.GetDefaultExpiration()
	cleanupInterval := cfg.GetCleanupInterval()

	c := cache.New(defaultExpiration, cleanupInterval)
	logger.Info(
		"Initialized go-cache for report storage",
		zap.Duration("defaultExpiration", defaultExpiration),
		zap.Duration("cleanupInterval", cleanupInterval),
	)

	return &ReportRepository{
		cache:      c,
		logger:     logger.Named("MemoryReportStorage"),
		defaultTTL: defaultExpiration,
	}
}

// GetLatest retrieves the cached report, returning found status.
func (r *ReportRepository) GetLatest(_ context.Context) (entity.HealthReport, bool, error) {
	x, found := r.cache.Get(latestReportKey)
	if !found {
		r.logger.Debug("Memory cache miss", zap.String("key", latestReportKey))
		return entity.HealthReport{}, false, nil
	}
	report, ok := x.(entity.HealthReport)
	if !ok {
		r.logger.Warn(
			"Memory cache data type mismatch for key",
			zap.String("key", latestReportKey), zap.Any("type", fmt.Sprintf("%T", x)),
		)
		return entity.HealthReport{}, false, nil
	}
	r.logger.Debug("Memory cache hit", zap.String("key", latestReportKey))
	return report, true, nil
}

// SetLatest caches the report with a given TTL; a non-positive TTL uses the cache default.
// Reports older than the cached one are ignored so a slow cycle never overwrites a newer report.
func (r *ReportRepository) SetLatest(_ context.Context, report entity.HealthReport, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(latestReportKey); found {
		if current, ok := x.(entity.HealthReport); ok && current.Timestamp.After(report.Timestamp) {
			r.logger.Debug("Skipping stale report", zap.Time("current", current.Timestamp), zap.Time("stale", report.Timestamp))
			return nil
		}
	}
	r.cache.Set(latestReportKey, report, ttl)
	r.logger.Debug("Memory cache set", zap.String("key", latestReportKey), zap.Duration("ttl", ttl))
	return nil
}

package repository

import (
	"context"
	"time"

	"rpchealth/internal/domain/entity"
)

// ReportRepository keeps the most recent health report.
type ReportRepository interface {
	// GetLatest retrieves the last stored report, returning found status.
	GetLatest(ctx context.Context) (entity.HealthReport, bool, error)

	// SetLatest stores the report with a specified TTL.
	SetLatest(ctx context.Context, report entity.HealthReport, ttl time.Duration) error
}

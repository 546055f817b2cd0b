package port

import (
	"context"
	"time"

	"rpchealth/internal/domain/entity"
)

// HealthService defines the interface for probing the configured endpoints and reporting on them.
type HealthService interface {
	// CheckNow runs one full cycle (RPC and socket batches) in the given mode.
	CheckNow(ctx context.Context, mode entity.CheckMode) entity.HealthReport

	// CheckRPC runs the RPC batch locally for the given URLs. It backs the remote probe boundary.
	CheckRPC(ctx context.Context, urls []string) entity.BatchResult

	// Latest returns the most recent report produced by any cycle.
	Latest(ctx context.Context) (entity.HealthReport, bool)

	// RunContinuous runs a cycle immediately and then once per interval until ctx is cancelled.
	RunContinuous(ctx context.Context, mode entity.CheckMode, interval time.Duration, onReport func(entity.HealthReport))
}

package service

import (
	"context"
	"time"

	"rpchealth/internal/domain/entity"
)

// RPCProber probes a single JSON-RPC endpoint. It never fails; failures are classified into the result.
type RPCProber interface {
	ProbeRPC(ctx context.Context, url string, timeout time.Duration) entity.ProbeResult
}

// SocketProber probes a single WebSocket endpoint. It never fails; failures are classified into the result.
type SocketProber interface {
	ProbeSocket(ctx context.Context, url string, timeout time.Duration) entity.ProbeResult
}

// RemoteRPCProber runs the RPC probe for a list of URLs from another vantage point.
type RemoteRPCProber interface {
	ProbeRPCBatch(ctx context.Context, urls []string) ([]entity.ProbeResult, error)
}

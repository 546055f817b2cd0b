package app

import (
	"context"
	"testing"
	"time"

	"rpchealth/internal/adapter/storage/chainlist"
	"rpchealth/internal/adapter/storage/endpoints"
	"rpchealth/internal/config"
	"rpchealth/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewEndpointRepository_SelectsSource(t *testing.T) {
	tests := []struct {
		source string
		want   any
	}{
		{config.SourceStatic, &endpoints.StaticRepository{}},
		{config.SourceFile, &endpoints.FileRepository{}},
		{config.SourceChainlist, &chainlist.EndpointRepository{}},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			cfg := &config.Config{Endpoints: config.EndpointsConfig{Source: tt.source, ChainID: 1}}
			cfg.Chainlist.CacheTTL = time.Minute

			repo, err := NewEndpointRepository(cfg, zap.NewNop())

			require.NoError(t, err)
			assert.IsType(t, tt.want, repo)
		})
	}

	_, err := NewEndpointRepository(&config.Config{Endpoints: config.EndpointsConfig{Source: "etcd"}}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewHealthService_EmptyStaticConfig(t *testing.T) {
	cfg := &config.Config{
		Checker: config.CheckerConfig{
			RPCTimeout:      time.Second,
			LightRPCTimeout: time.Second,
			SocketTimeout:   time.Second,
		},
		Endpoints: config.EndpointsConfig{Source: config.SourceStatic},
		Cache:     config.CacheConfig{DefaultExpiration: time.Minute, CleanupInterval: time.Minute},
	}

	svc, err := NewHealthService(cfg, zap.NewNop())
	require.NoError(t, err)

	report := svc.CheckNow(context.Background(), entity.ModeLocal)

	assert.Empty(t, report.Error)
	assert.Empty(t, report.RPCResults)
	assert.Empty(t, report.SocketResults)
	latest, found := svc.Latest(context.Background())
	require.True(t, found)
	assert.Equal(t, report.Timestamp, latest.Timestamp)
}

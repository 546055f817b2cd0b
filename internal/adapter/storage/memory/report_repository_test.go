package memory

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"rpchealth/internal/config"
	"rpchealth/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRepo() *ReportRepository {
	return NewReportRepository(config.CacheConfig{
		DefaultExpiration: time.Minute,
		CleanupInterval:   time.Minute,
	}, zap.NewNop())
}

func TestReportRepository_MissThenHit(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()

	_, found, err := repo.GetLatest(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	report := entity.HealthReport{
		RPCResults: entity.BatchResult{{URL: "https://rpc.example.org", Status: entity.StatusOnline}},
		Timestamp:  time.Now().UTC(),
		Mode:       entity.ModeLocal,
	}
	require.NoError(t, repo.SetLatest(ctx, report, 0))

	got, found, err := repo.GetLatest(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, report, got)
}

func TestReportRepository_OlderReportDoesNotReplaceNewer(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.SetLatest(ctx, entity.HealthReport{Timestamp: now, Mode: entity.ModeRemote}, time.Minute))
	require.NoError(t, repo.SetLatest(ctx, entity.HealthReport{Timestamp: now.Add(-time.Second), Mode: entity.ModeLocal}, time.Minute))

	got, found, err := repo.GetLatest(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, entity.ModeRemote, got.Mode)
}

func TestReportRepository_Expires(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()

	require.NoError(t, repo.SetLatest(ctx, entity.HealthReport{Timestamp: time.Now()}, 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, found, err := repo.GetLatest(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReportRepository_ConcurrentWritersKeepNewest(t *testing.T) {
	for round := 0; round < 20; round++ {
		repo := newRepo()
		ctx := context.Background()
		base := time.Now().UTC()

		offsets := rand.Perm(50)
		var wg sync.WaitGroup
		start := make(chan struct{})
		for _, offset := range offsets {
			wg.Add(1)
			go func(offset int) {
				defer wg.Done()
				<-start
				_ = repo.SetLatest(ctx, entity.HealthReport{Timestamp: base.Add(time.Duration(offset) * time.Millisecond)}, time.Minute)
			}(offset)
		}
		close(start)
		wg.Wait()

		got, found, err := repo.GetLatest(ctx)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, base.Add(49*time.Millisecond), got.Timestamp)
	}
}

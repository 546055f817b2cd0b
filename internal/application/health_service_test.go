package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"rpchealth/internal/config"
	"rpchealth/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEndpoints struct {
	cfg entity.EndpointConfig
	err error
}

func (f fakeEndpoints) GetEndpoints(context.Context) (entity.EndpointConfig, error) {
	return f.cfg, f.err
}

type fakeReports struct {
	mu     sync.Mutex
	latest *entity.HealthReport
	sets   int
}

func (f *fakeReports) GetLatest(context.Context) (entity.HealthReport, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest == nil {
		return entity.HealthReport{}, false, nil
	}
	return *f.latest, true, nil
}

func (f *fakeReports) SetLatest(_ context.Context, report entity.HealthReport, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = &report
	f.sets++
	return nil
}

type fakeRPCProber struct {
	mu       sync.Mutex
	timeouts []time.Duration
	delay    time.Duration
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeRPCProber) ProbeRPC(_ context.Context, url string, timeout time.Duration) entity.ProbeResult {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	f.mu.Lock()
	f.timeouts = append(f.timeouts, timeout)
	f.mu.Unlock()

	time.Sleep(f.delay)
	height := uint64(42)
	return entity.ProbeResult{URL: url, Status: entity.StatusOnline, LatencyMs: 12, BlockHeight: &height}
}

type fakeSocketProber struct {
	calls atomic.Int32
}

func (f *fakeSocketProber) ProbeSocket(_ context.Context, url string, timeout time.Duration) entity.ProbeResult {
	f.calls.Add(1)
	if url == "wss://down.example.org" {
		return entity.ProbeResult{URL: url}.Failed(entity.StatusTimeout, entity.FailureTimeout, entity.ConnectionTimeoutDetail(timeout))
	}
	return entity.ProbeResult{URL: url, Status: entity.StatusConnected, LatencyMs: 7}
}

type fakeRemote struct {
	gotURLs []string
	results []entity.ProbeResult
	err     error
}

func (f *fakeRemote) ProbeRPCBatch(_ context.Context, urls []string) ([]entity.ProbeResult, error) {
	f.gotURLs = urls
	return f.results, f.err
}

func testCheckerConfig() config.CheckerConfig {
	return config.CheckerConfig{
		RPCTimeout:      10 * time.Second,
		LightRPCTimeout: 5 * time.Second,
		SocketTimeout:   5 * time.Second,
		RefreshInterval: time.Minute,
		ReportTTL:       time.Minute,
	}
}

type serviceFixture struct {
	rpc     *fakeRPCProber
	socket  *fakeSocketProber
	reports *fakeReports
	remote  *fakeRemote
}

func newService(t *testing.T, endpoints fakeEndpoints) (*healthService, *serviceFixture) {
	t.Helper()
	fx := &serviceFixture{
		rpc:     &fakeRPCProber{},
		socket:  &fakeSocketProber{},
		reports: &fakeReports{},
		remote:  &fakeRemote{},
	}
	svc := NewHealthService(endpoints, fx.reports, fx.rpc, fx.socket, fx.remote, zap.NewNop(), testCheckerConfig())
	return svc.(*healthService), fx
}

func TestCheckNow_LocalCombinesBothBatches(t *testing.T) {
	svc, fx := newService(t, fakeEndpoints{cfg: entity.EndpointConfig{
		RPCURLs: []string{"https://a.example.org", " https://b.example.org ", ""},
		WSURLs:  []string{"wss://up.example.org", "wss://down.example.org"},
	}})

	report := svc.CheckNow(context.Background(), entity.ModeLocal)

	assert.Empty(t, report.Error)
	assert.Equal(t, entity.ModeLocal, report.Mode)
	assert.False(t, report.Timestamp.IsZero())
	assert.Equal(t, []string{"https://a.example.org", "https://b.example.org"}, report.RPCResults.URLs())
	assert.Equal(t, []string{"wss://up.example.org", "wss://down.example.org"}, report.SocketResults.URLs())
	assert.Equal(t, entity.StatusConnected, report.SocketResults[0].Status)
	assert.Equal(t, entity.StatusTimeout, report.SocketResults[1].Status)

	summary := report.Summary()
	assert.Equal(t, 2, summary.RPCHealthy)
	assert.Equal(t, 1, summary.SocketHealthy)
	assert.Equal(t, 1, summary.Unhealthy())

	latest, found := svc.Latest(context.Background())
	require.True(t, found)
	assert.Equal(t, report.Timestamp, latest.Timestamp)
	assert.Nil(t, fx.remote.gotURLs)
}

func TestCheckNow_UsesCallerFacingTimeout(t *testing.T) {
	svc, fx := newService(t, fakeEndpoints{cfg: entity.EndpointConfig{RPCURLs: []string{"https://a.example.org"}}})

	svc.CheckNow(context.Background(), entity.ModeLocal)

	require.Len(t, fx.rpc.timeouts, 1)
	assert.Equal(t, 10*time.Second, fx.rpc.timeouts[0])
}

func TestCheckNow_AbsentListsAreEmpty(t *testing.T) {
	svc, fx := newService(t, fakeEndpoints{})

	report := svc.CheckNow(context.Background(), entity.ModeLocal)

	assert.Empty(t, report.Error)
	require.NotNil(t, report.RPCResults)
	require.NotNil(t, report.SocketResults)
	assert.Empty(t, report.RPCResults)
	assert.Empty(t, report.SocketResults)
	assert.Zero(t, fx.rpc.calls.Load())
	assert.Zero(t, fx.socket.calls.Load())
}

func TestCheckNow_EndpointConfigFailureIsReported(t *testing.T) {
	svc, fx := newService(t, fakeEndpoints{err: errors.New("registry unreachable")})

	report := svc.CheckNow(context.Background(), entity.ModeLocal)

	assert.Contains(t, report.Error, "endpoint configuration unavailable")
	assert.Contains(t, report.Error, "registry unreachable")
	assert.Empty(t, report.RPCResults)
	assert.Empty(t, report.SocketResults)
	assert.Zero(t, fx.rpc.calls.Load())
	assert.Equal(t, 1, fx.reports.sets)
}

func TestCheckNow_UnknownMode(t *testing.T) {
	svc, fx := newService(t, fakeEndpoints{cfg: entity.EndpointConfig{RPCURLs: []string{"https://a.example.org"}}})

	report := svc.CheckNow(context.Background(), entity.CheckMode("satellite"))

	assert.Contains(t, report.Error, "unknown check mode")
	assert.Zero(t, fx.rpc.calls.Load())
}

func TestCheckNow_RemoteDelegatesRPCOnly(t *testing.T) {
	svc, fx := newService(t, fakeEndpoints{cfg: entity.EndpointConfig{
		RPCURLs: []string{"https://a.example.org", "https://b.example.org", "https://c.example.org"},
		WSURLs:  []string{"wss://up.example.org"},
	}})
	// Out of order and missing one endpoint.
	fx.remote.results = []entity.ProbeResult{
		{URL: "https://c.example.org", Status: entity.StatusOnline, LatencyMs: 30},
		{URL: "https://a.example.org", Status: entity.StatusOffline, LatencyMs: 10, ErrorDetail: "Rate Limited (429)", Category: entity.FailureRateLimited},
	}

	report := svc.CheckNow(context.Background(), entity.ModeRemote)

	assert.Equal(t, []string{"https://a.example.org", "https://b.example.org", "https://c.example.org"}, fx.remote.gotURLs)
	assert.Zero(t, fx.rpc.calls.Load())
	assert.EqualValues(t, 1, fx.socket.calls.Load())

	require.Len(t, report.RPCResults, 3)
	assert.Equal(t, []string{"https://a.example.org", "https://b.example.org", "https://c.example.org"}, report.RPCResults.URLs())
	assert.Equal(t, "Rate Limited (429)", report.RPCResults[0].ErrorDetail)
	assert.Equal(t, entity.StatusOffline, report.RPCResults[1].Status)
	assert.Equal(t, entity.DetailRemoteNoResult, report.RPCResults[1].ErrorDetail)
	assert.Equal(t, entity.StatusOnline, report.RPCResults[2].Status)
	assert.Equal(t, entity.ModeRemote, report.Mode)
}

func TestCheckNow_RemoteFailureMarksEveryEndpoint(t *testing.T) {
	svc, fx := newService(t, fakeEndpoints{cfg: entity.EndpointConfig{
		RPCURLs: []string{"https://a.example.org", "https://b.example.org"},
	}})
	fx.remote.err = errors.New("connection refused")

	report := svc.CheckNow(context.Background(), entity.ModeRemote)

	assert.Empty(t, report.Error)
	require.Len(t, report.RPCResults, 2)
	for i, r := range report.RPCResults {
		assert.Equal(t, fx.remote.gotURLs[i], r.URL)
		assert.Equal(t, entity.StatusOffline, r.Status)
		assert.Equal(t, entity.FailureTransportUnreachable, r.Category)
		assert.Contains(t, r.ErrorDetail, "Remote check failed")
	}
}

func TestCheckNow_RemoteWithoutProberConfigured(t *testing.T) {
	reports := &fakeReports{}
	svc := NewHealthService(
		fakeEndpoints{cfg: entity.EndpointConfig{RPCURLs: []string{"https://a.example.org"}}},
		reports, &fakeRPCProber{}, &fakeSocketProber{}, nil, zap.NewNop(), testCheckerConfig(),
	)

	report := svc.CheckNow(context.Background(), entity.ModeRemote)

	require.Len(t, report.RPCResults, 1)
	assert.Contains(t, report.RPCResults[0].ErrorDetail, "no remote prober configured")
}

func TestCheckRPC_RunsLocalBatch(t *testing.T) {
	svc, fx := newService(t, fakeEndpoints{})

	results := svc.CheckRPC(context.Background(), []string{"https://x.example.org", "https://y.example.org"})

	assert.Equal(t, []string{"https://x.example.org", "https://y.example.org"}, results.URLs())
	assert.EqualValues(t, 2, fx.rpc.calls.Load())
	assert.Equal(t, 0, fx.reports.sets)
}

func TestRunContinuous_RunsImmediatelyThenOnEveryTick(t *testing.T) {
	svc, fx := newService(t, fakeEndpoints{cfg: entity.EndpointConfig{RPCURLs: []string{"https://a.example.org"}}})

	ctx, cancel := context.WithCancel(context.Background())
	reports := make(chan entity.HealthReport, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.RunContinuous(ctx, entity.ModeLocal, 200*time.Millisecond, func(r entity.HealthReport) { reports <- r })
	}()

	select {
	case <-reports:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("first cycle did not run immediately")
	}
	for i := 0; i < 2; i++ {
		select {
		case r := <-reports:
			assert.Len(t, r.RPCResults, 1)
		case <-time.After(time.Second):
			t.Fatal("cycle did not run on tick")
		}
	}
	cancel()
	<-done

	fx.rpc.mu.Lock()
	defer fx.rpc.mu.Unlock()
	for _, timeout := range fx.rpc.timeouts {
		assert.Equal(t, 5*time.Second, timeout)
	}
}

func TestRunContinuous_CyclesNeverOverlap(t *testing.T) {
	svc, fx := newService(t, fakeEndpoints{cfg: entity.EndpointConfig{RPCURLs: []string{"https://a.example.org"}}})
	fx.rpc.delay = 60 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	var cycles atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.RunContinuous(ctx, entity.ModeLocal, 20*time.Millisecond, func(entity.HealthReport) { cycles.Add(1) })
	}()

	require.Eventually(t, func() bool { return cycles.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.EqualValues(t, 1, fx.rpc.maxSeen.Load())
}

func TestRunContinuous_InFlightCycleFinishesAfterCancel(t *testing.T) {
	svc, fx := newService(t, fakeEndpoints{cfg: entity.EndpointConfig{RPCURLs: []string{"https://a.example.org"}}})
	fx.rpc.delay = 80 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	var delivered atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.RunContinuous(ctx, entity.ModeLocal, time.Hour, func(r entity.HealthReport) {
			if r.RPCResults[0].Status == entity.StatusOnline {
				delivered.Add(1)
			}
		})
	}()

	require.Eventually(t, func() bool { return fx.rpc.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	<-done

	assert.EqualValues(t, 1, delivered.Load())
}

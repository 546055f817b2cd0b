package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rpchealth/internal/application/port"
	"rpchealth/internal/config"
	"rpchealth/internal/domain"
	"rpchealth/internal/domain/entity"
	domainRepo "rpchealth/internal/domain/repository"
	domainService "rpchealth/internal/domain/service"

	"go.uber.org/zap"
)

// Compile-time check to ensure healthService implements HealthService
var _ port.HealthService = (*healthService)(nil)

// DefaultRefreshInterval is the continuous-mode period used when none is configured.
const DefaultRefreshInterval = 60 * time.Second

// healthService implements the port.HealthService interface orchestrating probe cycles.
type healthService struct {
	endpoints    domainRepo.EndpointRepository
	reports      domainRepo.ReportRepository
	rpcProber    domainService.RPCProber
	socketProber domainService.SocketProber
	remote       domainService.RemoteRPCProber
	logger       *zap.Logger
	cfg          config.CheckerConfig
}

// NewHealthService creates a new instance of the health service.
// remote may be nil, in which case remote-mode RPC results report the missing prober.
func NewHealthService(
	endpoints domainRepo.EndpointRepository,
	reports domainRepo.ReportRepository,
	rpcProber domainService.RPCProber,
	socketProber domainService.SocketProber,
	remote domainService.RemoteRPCProber,
	logger *zap.Logger,
	cfg config.CheckerConfig,
) port.HealthService {
	return &healthService{
		endpoints:    endpoints,
		reports:      reports,
		rpcProber:    rpcProber,
		socketProber: socketProber,
		remote:       remote,
		logger:       logger.Named("HealthService"),
		cfg:          cfg,
	}
}

// CheckNow runs one caller-facing cycle with the full RPC timeout.
func (s *healthService) CheckNow(ctx context.Context, mode entity.CheckMode) entity.HealthReport {
	return s.runCycle(ctx, mode, s.cfg.GetRPCTimeout())
}

// CheckRPC runs the local RPC batch for urls with the caller-facing timeout.
func (s *healthService) CheckRPC(ctx context.Context, urls []string) entity.BatchResult {
	return s.localRPCBatch(ctx, urls, s.cfg.GetRPCTimeout())
}

// Latest returns the last stored report, if any.
func (s *healthService) Latest(ctx context.Context) (entity.HealthReport, bool) {
	if s.reports == nil {
		return entity.HealthReport{}, false
	}
	report, found, err := s.reports.GetLatest(ctx)
	if err != nil {
		s.logger.Warn("Report cache error when getting latest report", zap.Error(err))
		return entity.HealthReport{}, false
	}
	return report, found
}

// RunContinuous runs a cycle immediately and then on every tick of a fixed ticker.
// Cycles never overlap: a cycle that overruns its interval delays the next one
// until it completes, because the ticker drops the ticks nobody received.
// Cancelling ctx stops the loop at the next tick; the cycle in flight finishes.
func (s *healthService) RunContinuous(
	ctx context.Context,
	mode entity.CheckMode,
	interval time.Duration,
	onReport func(entity.HealthReport),
) {
	if interval <= 0 {
		interval = s.cfg.GetRefreshInterval()
	}
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	s.logger.Info("Starting continuous checks", zap.String("mode", string(mode)), zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cycleCtx := context.WithoutCancel(ctx)
	runOnce := func() {
		report := s.runCycle(cycleCtx, mode, s.cfg.GetLightRPCTimeout())
		if onReport != nil {
			onReport(report)
		}
	}

	runOnce()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Continuous checks stopping due to context cancellation.")
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				s.logger.Info("Continuous checks stopping due to context cancellation.")
				return
			}
			runOnce()
		}
	}
}

// runCycle builds one report. It never fails; problems are recorded in the report.
func (s *healthService) runCycle(ctx context.Context, mode entity.CheckMode, rpcTimeout time.Duration) entity.HealthReport {
	report := entity.HealthReport{
		RPCResults:    entity.BatchResult{},
		SocketResults: entity.BatchResult{},
		Mode:          mode,
	}

	if mode != entity.ModeLocal && mode != entity.ModeRemote {
		report.Error = fmt.Errorf("%w: %q", domain.ErrUnknownCheckMode, mode).Error()
		report.Timestamp = time.Now().UTC()
		s.logger.Error("Refusing to run cycle", zap.String("mode", string(mode)))
		return report
	}

	endpoints, err := s.endpoints.GetEndpoints(ctx)
	if err != nil {
		report.Error = fmt.Errorf("%w: %v", domain.ErrEndpointsUnavailable, err).Error()
		report.Timestamp = time.Now().UTC()
		s.logger.Error("Failed to load endpoint configuration", zap.Error(err))
		s.store(ctx, report)
		return report
	}
	endpoints = endpoints.Normalized()

	s.logger.Debug("Starting cycle",
		zap.String("mode", string(mode)),
		zap.Int("rpcCount", len(endpoints.RPCURLs)),
		zap.Int("socketCount", len(endpoints.WSURLs)),
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if mode == entity.ModeRemote {
			report.RPCResults = s.remoteRPCBatch(ctx, endpoints.RPCURLs)
			return
		}
		report.RPCResults = s.localRPCBatch(ctx, endpoints.RPCURLs, rpcTimeout)
	}()
	go func() {
		defer wg.Done()
		report.SocketResults = s.socketBatch(ctx, endpoints.WSURLs)
	}()
	wg.Wait()

	report.Timestamp = time.Now().UTC()

	summary := report.Summary()
	s.logger.Info("Cycle finished",
		zap.String("mode", string(mode)),
		zap.Int("rpcHealthy", summary.RPCHealthy), zap.Int("rpcTotal", summary.RPCTotal),
		zap.Int("socketHealthy", summary.SocketHealthy), zap.Int("socketTotal", summary.SocketTotal),
	)

	s.store(ctx, report)
	return report
}

func (s *healthService) localRPCBatch(ctx context.Context, urls []string, timeout time.Duration) entity.BatchResult {
	return RunBatch(ctx, urls, func(ctx context.Context, url string) entity.ProbeResult {
		return s.rpcProber.ProbeRPC(ctx, url, timeout)
	}, s.logPanic(rpcFallback))
}

func (s *healthService) socketBatch(ctx context.Context, urls []string) entity.BatchResult {
	timeout := s.cfg.GetSocketTimeout()
	return RunBatch(ctx, urls, func(ctx context.Context, url string) entity.ProbeResult {
		return s.socketProber.ProbeSocket(ctx, url, timeout)
	}, s.logPanic(socketFallback))
}

// remoteRPCBatch delegates the RPC batch and realigns the answer with urls.
func (s *healthService) remoteRPCBatch(ctx context.Context, urls []string) entity.BatchResult {
	if len(urls) == 0 {
		return entity.BatchResult{}
	}

	var (
		results []entity.ProbeResult
		err     error
	)
	if s.remote == nil {
		err = fmt.Errorf("%w: no remote prober configured", domain.ErrRemoteProbeFailed)
	} else {
		results, err = s.remote.ProbeRPCBatch(ctx, urls)
	}
	if err != nil {
		s.logger.Warn("Remote RPC batch failed", zap.Int("urlCount", len(urls)), zap.Error(err))
		batch := make(entity.BatchResult, len(urls))
		for i, url := range urls {
			batch[i] = entity.ProbeResult{URL: url}.Failed(
				entity.StatusOffline, entity.FailureTransportUnreachable, entity.RemoteFailedDetail(err),
			)
		}
		return batch
	}

	return alignResults(urls, results)
}

// alignResults orders results to match urls and fills in any endpoint the remote side left out.
func alignResults(urls []string, results []entity.ProbeResult) entity.BatchResult {
	byURL := make(map[string][]entity.ProbeResult, len(results))
	for _, r := range results {
		byURL[r.URL] = append(byURL[r.URL], r)
	}

	batch := make(entity.BatchResult, len(urls))
	for i, url := range urls {
		if queue := byURL[url]; len(queue) > 0 {
			batch[i] = queue[0]
			byURL[url] = queue[1:]
			continue
		}
		batch[i] = entity.ProbeResult{URL: url}.Failed(
			entity.StatusOffline, entity.FailureTransportUnreachable, entity.DetailRemoteNoResult,
		)
	}
	return batch
}

func (s *healthService) logPanic(fallback FallbackFunc) FallbackFunc {
	return func(url string, cause error) entity.ProbeResult {
		s.logger.Error("Probe panicked", zap.String("url", url), zap.Error(cause))
		return fallback(url, cause)
	}
}

func (s *healthService) store(ctx context.Context, report entity.HealthReport) {
	if s.reports == nil {
		return
	}
	if err := s.reports.SetLatest(ctx, report, s.cfg.GetReportTTL()); err != nil {
		s.logger.Error("Failed to cache report", zap.Error(err))
	}
}

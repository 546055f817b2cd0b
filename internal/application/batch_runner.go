package application

import (
	"context"
	"fmt"
	"sync"

	"rpchealth/internal/domain/entity"
)

// ProbeFunc probes one endpoint and always returns a result.
type ProbeFunc func(ctx context.Context, url string) entity.ProbeResult

// FallbackFunc builds the failure result for an endpoint whose probe panicked.
type FallbackFunc func(url string, cause error) entity.ProbeResult

// RunBatch probes every url concurrently and waits for all of them.
// Result i always belongs to urls[i]; an empty input returns an empty batch without calling probe.
func RunBatch(ctx context.Context, urls []string, probe ProbeFunc, fallback FallbackFunc) entity.BatchResult {
	results := make(entity.BatchResult, len(urls))
	if len(urls) == 0 {
		return results
	}

	var wg sync.WaitGroup
	wg.Add(len(urls))
	for i, url := range urls {
		go func(index int, url string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[index] = fallback(url, fmt.Errorf("probe panicked: %v", r))
				}
			}()

			res := probe(ctx, url)
			res.URL = url
			results[index] = res
		}(i, url)
	}

	wg.Wait()
	return results
}

// rpcFallback is the RPC batch's FallbackFunc.
func rpcFallback(url string, _ error) entity.ProbeResult {
	return entity.ProbeResult{URL: url}.Failed(
		entity.StatusOffline, entity.FailureTransportUnreachable, entity.DetailNetworkBlocked,
	)
}

// socketFallback is the socket batch's FallbackFunc.
func socketFallback(url string, _ error) entity.ProbeResult {
	return entity.ProbeResult{URL: url}.Failed(
		entity.StatusFailed, entity.FailureTransportUnreachable, entity.DetailSocketFailed,
	)
}

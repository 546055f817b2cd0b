package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"rpchealth/internal/domain/entity"
	domainService "rpchealth/internal/domain/service"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainService.RPCProber = (*Prober)(nil)

// HTTPClient is the part of *fasthttp.Client the prober depends on.
type HTTPClient interface {
	DoTimeout(req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error
}

// Prober implements the domainService.RPCProber interface over HTTP(S).
type Prober struct {
	client HTTPClient
	logger *zap.Logger
}

// NewProber creates a new RPC prober. A nil client selects NewHTTPClient().
func NewProber(client HTTPClient, logger *zap.Logger) *Prober {
	if client == nil {
		client = NewHTTPClient()
	}
	return &Prober{
		client: client,
		logger: logger.Named("RPCProber"),
	}
}

// NewHTTPClient returns the fasthttp client used for probing when none is injected.
// Large batches against one host wait for a free connection instead of failing.
func NewHTTPClient() *fasthttp.Client {
	return &fasthttp.Client{
		Name:                "rpchealth",
		MaxIdleConnDuration: 30 * time.Second,
		ReadBufferSize:      readBufferSize,
		MaxConnsPerHost:     maxConnsPerHost,
		MaxConnWaitTimeout:  DefaultTimeout,
	}
}

// Default bounds for caller-facing and auto-refresh checks.
const (
	DefaultTimeout = 10 * time.Second
	LightTimeout   = 5 * time.Second
)

const (
	// readBufferSize bounds the response headers accepted from a node.
	readBufferSize  = 32 * 1024
	maxConnsPerHost = 1024
	maxRedirects    = 5
)

// checkPayload is the standard JSON-RPC request to check node health.
var checkPayload = []byte(`{"jsonrpc":"2.0","method":"eth_blockNumber","params":[],"id":1}`)

// JSONRPCResponse defines the basic structure for a JSON-RPC response.
type JSONRPCResponse struct {
	ID      interface{}     `json:"id"`
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError defines the structure for a JSON-RPC error.
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ProbeRPC sends one eth_blockNumber call to rpcURL and classifies the outcome.
// The effective bound is the smaller of timeout and the context deadline.
func (p *Prober) ProbeRPC(ctx context.Context, rpcURL string, timeout time.Duration) entity.ProbeResult {
	startTime := time.Now()
	result := entity.ProbeResult{URL: rpcURL}

	timeout = effectiveTimeout(ctx, timeout)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rpcURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	req.SetBody(checkPayload)

	requestErr := p.doFollowingRedirects(req, resp, timeout)
	if requestErr != nil {
		result.LatencyMs = time.Since(startTime).Milliseconds()
		if isTimeout(requestErr) {
			p.logger.Debug("RPC probe timed out",
				zap.String("url", rpcURL), zap.Duration("timeout", timeout), zap.Error(requestErr),
			)
			return result.Failed(entity.StatusOffline, entity.FailureTimeout, entity.RequestTimeoutDetail(timeout))
		}
		p.logger.Debug("RPC probe request failed", zap.String("url", rpcURL), zap.Error(requestErr))
		return result.Failed(entity.StatusOffline, entity.FailureTransportUnreachable, entity.DetailNetworkBlocked)
	}

	statusCode := resp.StatusCode()
	if statusCode < fasthttp.StatusOK || statusCode >= fasthttp.StatusMultipleChoices {
		result.LatencyMs = time.Since(startTime).Milliseconds()
		category, detail := entity.ClassifyHTTPStatus(statusCode)
		p.logger.Debug("RPC probe returned non-success status",
			zap.String("url", rpcURL), zap.Int("statusCode", statusCode), zap.String("category", string(category)),
		)
		return result.Failed(entity.StatusOffline, category, detail)
	}

	body := resp.Body()
	if !json.Valid(body) {
		result.LatencyMs = time.Since(startTime).Milliseconds()
		p.logger.Debug("RPC probe returned invalid JSON",
			zap.String("url", rpcURL), zap.ByteString("bodySample", body[:min(256, len(body))]),
		)
		return result.Failed(entity.StatusOffline, entity.FailureMalformedResponse, entity.DetailInvalidJSON)
	}

	result.Status = entity.StatusOnline
	var rpcResp JSONRPCResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		p.logger.Debug("RPC probe response is not a JSON-RPC object", zap.String("url", rpcURL), zap.Error(err))
	} else {
		if rpcResp.Error != nil {
			p.logger.Debug("RPC probe returned JSON-RPC error",
				zap.String("url", rpcURL),
				zap.Int("errorCode", rpcResp.Error.Code),
				zap.String("errorMessage", rpcResp.Error.Message),
			)
		}
		if height, ok := parseBlockHeight(rpcResp.Result); ok {
			result.BlockHeight = &height
		}
	}
	result.LatencyMs = time.Since(startTime).Milliseconds()

	p.logger.Debug("RPC probe succeeded",
		zap.String("url", rpcURL), zap.Int64("latencyMs", result.LatencyMs),
	)
	return result
}

// doFollowingRedirects sends req and follows up to maxRedirects redirects within one shared bound.
// 301/302 turn a POST into a GET and 303 always does; 307/308 resend the request unchanged.
// A redirect without a Location header is returned as is.
func (p *Prober) doFollowingRedirects(req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	remaining := timeout
	for redirects := 0; ; redirects++ {
		if err := p.client.DoTimeout(req, resp, remaining); err != nil {
			return err
		}
		statusCode := resp.StatusCode()
		if !fasthttp.StatusCodeIsRedirect(statusCode) {
			return nil
		}
		location := resp.Header.Peek(fasthttp.HeaderLocation)
		if len(location) == 0 {
			return nil
		}
		if redirects == maxRedirects {
			return fasthttp.ErrTooManyRedirects
		}

		uri := req.URI()
		from := uri.String()
		uri.UpdateBytes(location)
		to := uri.String()
		req.SetRequestURI(to)
		if statusCode == fasthttp.StatusSeeOther ||
			(req.Header.IsPost() && (statusCode == fasthttp.StatusMovedPermanently || statusCode == fasthttp.StatusFound)) {
			req.Header.SetMethod(fasthttp.MethodGet)
			req.ResetBody()
		}
		p.logger.Debug("Following RPC redirect",
			zap.String("url", from), zap.String("location", to), zap.Int("statusCode", statusCode),
		)

		if remaining = time.Until(deadline); remaining <= 0 {
			return fasthttp.ErrTimeout
		}
	}
}

// parseBlockHeight reads a hex quantity such as "0x2a". Anything else yields false.
func parseBlockHeight(raw json.RawMessage) (uint64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var quantity string
	if err := json.Unmarshal(raw, &quantity); err != nil {
		return 0, false
	}
	digits := strings.TrimPrefix(strings.TrimPrefix(quantity, "0x"), "0X")
	if digits == "" {
		return 0, false
	}
	height, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, false
	}
	return height, true
}

// effectiveTimeout clamps timeout to the context deadline, if that is sooner.
func effectiveTimeout(ctx context.Context, timeout time.Duration) time.Duration {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			if remaining <= 0 {
				return time.Nanosecond
			}
			return remaining
		}
	}
	return timeout
}

func isTimeout(err error) bool {
	if errors.Is(err, fasthttp.ErrTimeout) ||
		errors.Is(err, fasthttp.ErrDialTimeout) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

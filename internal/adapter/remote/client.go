package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"rpchealth/internal/config"
	"rpchealth/internal/domain"
	"rpchealth/internal/domain/entity"
	domainService "rpchealth/internal/domain/service"
	"rpchealth/internal/pkg/apperrors"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainService.RemoteRPCProber = (*Client)(nil)

// HealthPath is the route of the remote RPC batch boundary.
const HealthPath = "/api/v1/rpc-health"

const defaultTimeout = 30 * time.Second

// BatchRequest is the body accepted by the remote boundary.
type BatchRequest struct {
	URLs []string `json:"urls"`
}

// BatchResponse is the body returned by the remote boundary.
type BatchResponse struct {
	Results []entity.ProbeResult `json:"results"`
	Error   string               `json:"error,omitempty"`
}

// HTTPClient abstracts the fasthttp client for testing.
type HTTPClient interface {
	DoTimeout(req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error
}

// Client runs RPC batches on a remote instance of this service.
type Client struct {
	client   HTTPClient
	endpoint string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewClient creates a remote prober for the instance at cfg.URL.
func NewClient(cfg config.RemoteConfig, client HTTPClient, logger *zap.Logger) *Client {
	if client == nil {
		client = &fasthttp.Client{Name: "rpchealth-remote"}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		client:   client,
		endpoint: strings.TrimRight(cfg.URL, "/") + HealthPath,
		timeout:  timeout,
		logger:   logger.Named("RemoteProber"),
	}
}

// ProbeRPCBatch posts urls to the remote boundary and returns its results unchanged.
func (c *Client) ProbeRPCBatch(ctx context.Context, urls []string) ([]entity.ProbeResult, error) {
	payload, err := json.Marshal(BatchRequest{URLs: urls})
	if err != nil {
		return nil, fmt.Errorf("%w: %w: failed to encode request: %v", domain.ErrRemoteProbeFailed, apperrors.ErrInternal, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = max(remaining, time.Nanosecond)
		}
	}

	c.logger.Debug("Delegating RPC batch", zap.String("endpoint", c.endpoint), zap.Int("urlCount", len(urls)))

	if err := c.client.DoTimeout(req, resp, timeout); err != nil {
		sentinel := apperrors.ErrExternalServiceFailure
		if errors.Is(err, fasthttp.ErrTimeout) {
			sentinel = apperrors.ErrTimeout
		}
		return nil, fmt.Errorf("%w: %w: %v", domain.ErrRemoteProbeFailed, sentinel, err)
	}

	var body BatchResponse
	decodeErr := json.Unmarshal(resp.Body(), &body)

	if resp.StatusCode() != fasthttp.StatusOK {
		reason := fmt.Sprintf("status %d", resp.StatusCode())
		if decodeErr == nil && body.Error != "" {
			reason = fmt.Sprintf("%s (%s)", body.Error, reason)
		}
		return nil, fmt.Errorf("%w: %w: %s", domain.ErrRemoteProbeFailed, apperrors.ErrExternalServiceFailure, reason)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %w: invalid response body: %v", domain.ErrRemoteProbeFailed, apperrors.ErrExternalServiceFailure, decodeErr)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrRemoteProbeFailed, body.Error)
	}

	c.logger.Debug("Remote RPC batch finished", zap.Int("resultCount", len(body.Results)))
	return body.Results, nil
}

package http

import (
	"encoding/json"
	"fmt"

	"rpchealth/internal/adapter/remote"
	"rpchealth/internal/application/port"
	"rpchealth/internal/domain/entity"
	"rpchealth/internal/pkg/apperrors"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const errURLsRequired = "urls array is required"

// ErrorResponse is the body of every non-2xx API answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthHandler struct {
	service port.HealthService
	logger  *zap.Logger
}

func NewHealthHandler(service port.HealthService, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.Named("HealthHandler"),
	}
}

// CheckRPCHealth runs the RPC probe over the posted urls; it is the remote execution boundary.
func (h *HealthHandler) CheckRPCHealth(ctx *fasthttp.RequestCtx) {
	urls, err := decodeURLs(ctx.PostBody())
	if err != nil {
		h.logger.Debug("Rejected rpc-health request", zap.Error(err))
		h.writeJSON(ctx, fasthttp.StatusBadRequest, ErrorResponse{Error: errURLsRequired})
		return
	}

	results := h.service.CheckRPC(ctx, urls)
	h.logger.Info("Served rpc-health request",
		zap.Int("urlCount", len(urls)),
		zap.Int("healthy", results.Healthy()),
	)
	h.writeJSON(ctx, fasthttp.StatusOK, remote.BatchResponse{Results: results})
}

// GetLatestReport returns the last report produced by any cycle.
func (h *HealthHandler) GetLatestReport(ctx *fasthttp.RequestCtx) {
	report, found := h.service.Latest(ctx)
	if !found {
		h.writeJSON(ctx, fasthttp.StatusNotFound, ErrorResponse{Error: "no report available yet"})
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, report)
}

// RunCheck runs one cycle now in the mode given by the "mode" query argument (default local).
func (h *HealthHandler) RunCheck(ctx *fasthttp.RequestCtx) {
	mode, err := entity.ParseCheckMode(string(ctx.QueryArgs().Peek("mode")))
	if err != nil {
		h.logger.Debug("Rejected check request", zap.Error(err))
		h.writeJSON(ctx, fasthttp.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, h.service.CheckNow(ctx, mode))
}

// Health reports that the process is serving.
func (h *HealthHandler) Health(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBodyString("OK")
}

// decodeURLs accepts only a body whose "urls" member is a JSON array of strings.
func decodeURLs(body []byte) ([]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	field, ok := raw["urls"]
	if !ok {
		return nil, fmt.Errorf("%w: urls missing", apperrors.ErrInvalidInput)
	}
	var urls []string
	if err := json.Unmarshal(field, &urls); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if urls == nil {
		return nil, fmt.Errorf("%w: urls is null", apperrors.ErrInvalidInput)
	}
	return urls, nil
}

func (h *HealthHandler) writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

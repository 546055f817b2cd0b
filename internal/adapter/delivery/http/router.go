package http

import (
	"time"

	handler "rpchealth/internal/adapter/handler/http"
	"rpchealth/internal/adapter/remote"
	"rpchealth/internal/pkg/apperrors"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Route paths served by the API.
const (
	ReportPath = "/api/v1/report"
	HealthPath = "/health"
)

// RegisterRoutes sets up the probe API routes and the health check.
// limiter throttles the RPC batch boundary only; a nil limiter disables throttling.
func RegisterRoutes(r *router.Router, h *handler.HealthHandler, limiter *rate.Limiter, logger *zap.Logger) {
	logger.Info("Setting up application-specific routes...")

	r.POST(remote.HealthPath, RateLimit(limiter, logger)(h.CheckRPCHealth))
	r.OPTIONS(remote.HealthPath, preflight)
	r.GET(ReportPath, h.GetLatestReport)
	r.POST(ReportPath, h.RunCheck)

	logger.Info("Setting up health check route...")
	r.GET(HealthPath, h.Health)

	logger.Info("All routes registered.")
}

// Handler wraps the router with CORS headers and request logging.
func Handler(r *router.Router, logger *zap.Logger) fasthttp.RequestHandler {
	return Logging(logger)(CORS(r.Handler))
}

// Logging logs every request with its status and duration.
func Logging(logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	logger = logger.Named("HTTP")
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			next(ctx)
			logger.Info("Request handled",
				zap.ByteString("method", ctx.Method()),
				zap.ByteString("uri", ctx.RequestURI()),
				zap.Int("status", ctx.Response.StatusCode()),
				zap.Duration("duration", time.Since(start)),
			)
		}
	}
}

// CORS allows browser pages on any origin to call the API.
func CORS(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set(fasthttp.HeaderAccessControlAllowOrigin, "*")
		ctx.Response.Header.Set(fasthttp.HeaderAccessControlAllowMethods, "GET, POST, OPTIONS")
		ctx.Response.Header.Set(fasthttp.HeaderAccessControlAllowHeaders, "Content-Type")
		next(ctx)
	}
}

// RateLimit answers 429 once limiter runs out of tokens.
func RateLimit(limiter *rate.Limiter, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		if limiter == nil {
			return next
		}
		return func(ctx *fasthttp.RequestCtx) {
			if !limiter.Allow() {
				logger.Warn("Rate limit exceeded", zap.String("remoteAddr", ctx.RemoteAddr().String()))
				ctx.SetContentType("application/json")
				ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
				ctx.SetBodyString(`{"error":"` + apperrors.ErrRateLimited.Error() + `"}`)
				return
			}
			next(ctx)
		}
	}
}

func preflight(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

package socket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rpchealth/internal/domain/entity"
	domainService "rpchealth/internal/domain/service"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainService.SocketProber = (*Prober)(nil)

// DefaultTimeout bounds a socket probe when the caller passes none.
const DefaultTimeout = 5 * time.Second

// Dialer opens a WebSocket connection. A non-nil connection returned together with
// an error is treated as partially established and is closed by the prober.
type Dialer interface {
	Dial(ctx context.Context, wsURL string) (io.Closer, error)
}

// GorillaDialer adapts *websocket.Dialer to Dialer.
type GorillaDialer struct {
	dialer *websocket.Dialer
}

// NewGorillaDialer returns a dialer that relies on the prober's context for its deadline.
func NewGorillaDialer() *GorillaDialer {
	return &GorillaDialer{
		dialer: &websocket.Dialer{
			Proxy: http.ProxyFromEnvironment,
		},
	}
}

// Dial performs the upgrade handshake. No application message is exchanged.
func (d *GorillaDialer) Dial(ctx context.Context, wsURL string) (io.Closer, error) {
	conn, resp, err := d.dialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Prober implements the domainService.SocketProber interface.
type Prober struct {
	dialer Dialer
	logger *zap.Logger
}

// NewProber creates a new socket prober. A nil dialer selects NewGorillaDialer().
func NewProber(dialer Dialer, logger *zap.Logger) *Prober {
	if dialer == nil {
		dialer = NewGorillaDialer()
	}
	return &Prober{
		dialer: dialer,
		logger: logger.Named("SocketProber"),
	}
}

type dialOutcome struct {
	conn io.Closer
	err  error
}

// ProbeSocket opens wsURL and reports whether the connection opened within timeout.
// The bound is independent of ctx cancellation. Exactly one of open, error or
// timeout settles the result, and the connection is always closed afterwards.
func (p *Prober) ProbeSocket(ctx context.Context, wsURL string, timeout time.Duration) entity.ProbeResult {
	startTime := time.Now()
	result := entity.ProbeResult{URL: wsURL}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if err := validateURL(wsURL); err != nil {
		result.LatencyMs = time.Since(startTime).Milliseconds()
		p.logger.Debug("Socket probe rejected URL", zap.String("url", wsURL), zap.Error(err))
		return result.Failed(entity.StatusFailed, entity.FailureConnectionRejected, entity.DetailSocketCreation)
	}

	dialCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	done := make(chan dialOutcome, 1)
	go func() {
		conn, err := p.dialer.Dial(dialCtx, wsURL)
		done <- dialOutcome{conn: conn, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		elapsed := time.Since(startTime)
		result.LatencyMs = elapsed.Milliseconds()
		p.closeQuietly(wsURL, out.conn)

		switch {
		case elapsed >= timeout || isTimeout(out.err):
			return p.timedOut(result, timeout)
		case out.err == nil:
			result.Status = entity.StatusConnected
			p.logger.Debug("Socket probe connected",
				zap.String("url", wsURL), zap.Int64("latencyMs", result.LatencyMs),
			)
			return result
		case closedBeforeOpen(out.err):
			p.logger.Debug("Socket closed before open", zap.String("url", wsURL), zap.Error(out.err))
			return result.Failed(entity.StatusClosed, entity.FailureTransportUnreachable, entity.DetailSocketClosed)
		default:
			p.logger.Debug("Socket probe failed", zap.String("url", wsURL), zap.Error(out.err))
			return result.Failed(entity.StatusFailed, entity.FailureTransportUnreachable, entity.DetailSocketFailed)
		}

	case <-timer.C:
		result.LatencyMs = time.Since(startTime).Milliseconds()
		cancel()
		// A connection that completes after the deadline still has to be released.
		go func() {
			out := <-done
			p.closeQuietly(wsURL, out.conn)
		}()
		return p.timedOut(result, timeout)
	}
}

func (p *Prober) timedOut(result entity.ProbeResult, timeout time.Duration) entity.ProbeResult {
	p.logger.Debug("Socket probe timed out", zap.String("url", result.URL), zap.Duration("timeout", timeout))
	return result.Failed(entity.StatusTimeout, entity.FailureTimeout, entity.ConnectionTimeoutDetail(timeout))
}

// closeQuietly closes conn, if any. Close errors never change a settled result.
func (p *Prober) closeQuietly(wsURL string, conn io.Closer) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		p.logger.Debug("Ignoring socket close error", zap.String("url", wsURL), zap.Error(err))
	}
}

func validateURL(wsURL string) error {
	u, err := url.Parse(wsURL)
	if err != nil {
		return err
	}
	switch strings.ToLower(u.Scheme) {
	case "ws", "wss":
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func closedBeforeOpen(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

package entity

import (
	"fmt"
	"strings"
	"time"
)

// ProbeStatus is the coarse outcome of a single probe.
type ProbeStatus string

// RPC probes report online/offline; socket probes report connected/failed/timeout/closed.
const (
	StatusOnline    ProbeStatus = "online"
	StatusOffline   ProbeStatus = "offline"
	StatusConnected ProbeStatus = "connected"
	StatusFailed    ProbeStatus = "failed"
	StatusTimeout   ProbeStatus = "timeout"
	StatusClosed    ProbeStatus = "closed"
)

// Healthy reports whether the status is a success variant.
func (s ProbeStatus) Healthy() bool {
	return s == StatusOnline || s == StatusConnected
}

// FailureCategory classifies the cause of a failed probe.
type FailureCategory string

// Every failed probe carries exactly one of these.
const (
	FailureTransportUnreachable FailureCategory = "transport_unreachable"
	FailureTimeout              FailureCategory = "timeout"
	FailureRateLimited          FailureCategory = "rate_limited"
	FailureAccessForbidden      FailureCategory = "access_forbidden"
	FailureServerUnavailable    FailureCategory = "server_unavailable"
	FailureMalformedResponse    FailureCategory = "malformed_response"
	FailureConnectionRejected   FailureCategory = "connection_rejected"
)

// ProbeResult is one point-in-time observation of one endpoint.
type ProbeResult struct {
	URL         string          `json:"url"`
	Status      ProbeStatus     `json:"status"`
	LatencyMs   int64           `json:"latencyMs"`
	BlockHeight *uint64         `json:"blockHeight,omitempty"`
	ErrorDetail string          `json:"errorDetail,omitempty"`
	Category    FailureCategory `json:"category,omitempty"`
}

// Grade returns the latency band of the result.
func (r ProbeResult) Grade() LatencyGrade {
	return GradeLatency(r.LatencyMs)
}

// BatchResult holds one result per input endpoint, in input order.
type BatchResult []ProbeResult

// URLs returns the endpoint of every result, in order.
func (b BatchResult) URLs() []string {
	urls := make([]string, len(b))
	for i, r := range b {
		urls[i] = r.URL
	}
	return urls
}

// Healthy counts the results with a success status.
func (b BatchResult) Healthy() int {
	n := 0
	for _, r := range b {
		if r.Status.Healthy() {
			n++
		}
	}
	return n
}

// LatencyGrade is a coarse latency band used for display and alerting.
type LatencyGrade string

const (
	LatencyGood LatencyGrade = "good"
	LatencyFair LatencyGrade = "fair"
	LatencySlow LatencyGrade = "slow"
)

// GradeLatency maps a latency in milliseconds to its band.
func GradeLatency(ms int64) LatencyGrade {
	switch {
	case ms < 100:
		return LatencyGood
	case ms < 300:
		return LatencyFair
	default:
		return LatencySlow
	}
}

// CheckMode selects the vantage point used for RPC probes.
type CheckMode string

const (
	ModeLocal  CheckMode = "local"
	ModeRemote CheckMode = "remote"
)

// ParseCheckMode parses a mode name, case-insensitively. Empty means local.
func ParseCheckMode(s string) (CheckMode, error) {
	switch CheckMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLocal:
		return ModeLocal, nil
	case ModeRemote:
		return ModeRemote, nil
	default:
		return "", fmt.Errorf("unknown check mode %q", s)
	}
}

// EndpointConfig is the set of endpoints probed in one cycle.
type EndpointConfig struct {
	RPCURLs []string `json:"rpcUrls" yaml:"rpcUrls" mapstructure:"rpc_urls"`
	WSURLs  []string `json:"wsUrls" yaml:"wsUrls" mapstructure:"ws_urls"`
}

// Normalized returns a copy with nil lists replaced by empty ones, entries trimmed and blanks dropped.
func (c EndpointConfig) Normalized() EndpointConfig {
	return EndpointConfig{
		RPCURLs: compactURLs(c.RPCURLs),
		WSURLs:  compactURLs(c.WSURLs),
	}
}

func compactURLs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, u := range in {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// HealthReport combines the RPC and socket batches of one cycle.
type HealthReport struct {
	RPCResults    BatchResult `json:"rpcResults"`
	SocketResults BatchResult `json:"socketResults"`
	Timestamp     time.Time   `json:"timestamp"`
	Mode          CheckMode   `json:"mode"`
	Error         string      `json:"error,omitempty"`
}

// ReportSummary counts healthy and unhealthy endpoints per kind.
type ReportSummary struct {
	RPCTotal      int `json:"rpcTotal"`
	RPCHealthy    int `json:"rpcHealthy"`
	SocketTotal   int `json:"socketTotal"`
	SocketHealthy int `json:"socketHealthy"`
}

// Unhealthy is the number of endpoints that did not pass.
func (s ReportSummary) Unhealthy() int {
	return (s.RPCTotal - s.RPCHealthy) + (s.SocketTotal - s.SocketHealthy)
}

// Summary computes the report's counts.
func (r HealthReport) Summary() ReportSummary {
	return ReportSummary{
		RPCTotal:      len(r.RPCResults),
		RPCHealthy:    r.RPCResults.Healthy(),
		SocketTotal:   len(r.SocketResults),
		SocketHealthy: r.SocketResults.Healthy(),
	}
}

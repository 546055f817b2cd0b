package entity

import (
	"fmt"
	"net/http"
	"time"
)

// Human-readable failure details shown next to an endpoint.
const (
	DetailNetworkBlocked  = "Network error - CORS or connection blocked"
	DetailInvalidJSON     = "Invalid JSON response"
	DetailSocketCreation  = "WebSocket creation failed"
	DetailSocketFailed    = "Connection failed - May be blocked or unreachable"
	DetailSocketClosed    = "Connection closed before open"
	DetailRemoteNoResult  = "No result from remote prober"
	detailRemoteFailed    = "Remote check failed: %v"
	detailRequestTimeout  = "Request timeout (>%s)"
	detailConnTimeout     = "Connection timeout (>%s)"
	detailAccessForbidden = "Access Forbidden (403) - May need authentication or IP whitelisting"
	detailRateLimited     = "Rate Limited (429)"
	detailServiceUnavail  = "Service Unavailable (%d)"
	detailHTTPStatus      = "HTTP %d"
)

// Failed returns a copy of r marked as failed with the given status, category and detail.
func (r ProbeResult) Failed(status ProbeStatus, category FailureCategory, detail string) ProbeResult {
	r.Status = status
	r.Category = category
	r.ErrorDetail = detail
	r.BlockHeight = nil
	return r
}

// FormatBound renders a timeout bound the way it appears in failure details: whole seconds as "10s", anything else as a Go duration.
// Bounds of a millisecond or more are rounded to the millisecond, since a bound clamped to a context deadline is rarely round.
func FormatBound(d time.Duration) string {
	if d >= time.Millisecond {
		d = d.Round(time.Millisecond)
	}
	if d >= time.Second && d%time.Second == 0 {
		return fmt.Sprintf("%ds", d/time.Second)
	}
	return d.String()
}

// RequestTimeoutDetail describes an RPC request that hit its bound.
func RequestTimeoutDetail(bound time.Duration) string {
	return fmt.Sprintf(detailRequestTimeout, FormatBound(bound))
}

// ConnectionTimeoutDetail describes a socket that did not open within its bound.
func ConnectionTimeoutDetail(bound time.Duration) string {
	return fmt.Sprintf(detailConnTimeout, FormatBound(bound))
}

// RemoteFailedDetail describes a remote prober that could not answer.
func RemoteFailedDetail(err error) string {
	return fmt.Sprintf(detailRemoteFailed, err)
}

// ClassifyHTTPStatus maps a non-2xx status code to its failure category and detail.
// Unlisted 5xx codes count as server unavailability; any other code is a rejection.
func ClassifyHTTPStatus(code int) (FailureCategory, string) {
	switch code {
	case http.StatusForbidden:
		return FailureAccessForbidden, detailAccessForbidden
	case http.StatusTooManyRequests:
		return FailureRateLimited, detailRateLimited
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return FailureServerUnavailable, fmt.Sprintf(detailServiceUnavail, code)
	}
	if code >= 500 {
		return FailureServerUnavailable, fmt.Sprintf(detailHTTPStatus, code)
	}
	return FailureConnectionRejected, fmt.Sprintf(detailHTTPStatus, code)
}

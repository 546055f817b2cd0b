package entity

import (
	"fmt"
	"net/url"
	"strings"
)

// Protocol defines the type for endpoint protocols.
type Protocol string

// Constants for known protocols.
const (
	ProtocolHTTP    Protocol = "http"
	ProtocolHTTPS   Protocol = "https"
	ProtocolWS      Protocol = "ws"
	ProtocolWSS     Protocol = "wss"
	ProtocolUnknown Protocol = "unknown"
)

// EndpointURL represents a validated URL for an RPC or WebSocket endpoint.
type EndpointURL string

// NewEndpointURL creates a new EndpointURL instance.
func NewEndpointURL(rawURL string) (EndpointURL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", fmt.Errorf("endpoint url cannot be empty")
	}

	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint url format '%s': %w", rawURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("endpoint url '%s' has no host", rawURL)
	}

	switch protocolOf(u.Scheme) {
	case ProtocolHTTP, ProtocolHTTPS, ProtocolWS, ProtocolWSS:
	default:
		return "", fmt.Errorf("endpoint url '%s' has unsupported scheme: '%s'", rawURL, u.Scheme)
	}

	return EndpointURL(rawURL), nil
}

// String returns the string representation of the EndpointURL.
func (e EndpointURL) String() string {
	return string(e)
}

// Protocol reports the scheme of the URL.
func (e EndpointURL) Protocol() Protocol {
	scheme, _, found := strings.Cut(string(e), "://")
	if !found {
		return ProtocolUnknown
	}
	return protocolOf(scheme)
}

func protocolOf(scheme string) Protocol {
	switch strings.ToLower(scheme) {
	case "http":
		return ProtocolHTTP
	case "https":
		return ProtocolHTTPS
	case "ws":
		return ProtocolWS
	case "wss":
		return ProtocolWSS
	default:
		return ProtocolUnknown
	}
}
